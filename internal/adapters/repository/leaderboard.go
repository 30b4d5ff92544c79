package repository

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/vouchd/vouchd/internal/adapters/docstore"
	"github.com/vouchd/vouchd/internal/domain/model"
	"github.com/vouchd/vouchd/pkg/metrics"
)

// defaultCapacity bounds the per-tag leaderboard.
const defaultCapacity = 100

// Leaderboard owns the bounded top-K ranking per tag. Entries are
// created, replaced, and evicted only by Reconcile.
//
// Reconcile is a read-delete-insert-evict sequence without a cross-row
// transaction; callers MUST serialize invocations per tag (the app
// routes them through the serializer pool). Under that discipline the
// board never exceeds its capacity and holds at most one row per owner.
type Leaderboard struct {
	store    *docstore.Store
	capacity int
}

// LeaderboardOption applies a configuration option to the Leaderboard.
type LeaderboardOption func(*Leaderboard)

// WithCapacity bounds the number of entries tracked per tag.
func WithCapacity(n int) LeaderboardOption {
	return func(l *Leaderboard) {
		if n > 0 {
			l.capacity = n
		}
	}
}

// NewLeaderboard creates a Leaderboard over the given document store.
func NewLeaderboard(store *docstore.Store, opts ...LeaderboardOption) *Leaderboard {
	l := &Leaderboard{
		store:    store,
		capacity: defaultCapacity,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Capacity returns the configured per-tag bound.
func (l *Leaderboard) Capacity() int { return l.capacity }

// Reconcile folds the owner's new count into the tag's board:
//
//  1. One ascending scan (at most capacity rows) yields the current
//     minimum, the total, and the owner's stale row if any.
//  2. The stale row is deleted, so an owner never holds two rows.
//  3. The new entry is admitted iff it beats the minimum or the board
//     has room.
//  4. If the insert pushed the board past capacity, the minimum
//     observed in step 1 is evicted.
//
// Reconcile is monotonic per owner: a count no higher than the owner's
// current row is ignored, so reconciles applied out of order converge
// on the highest count.
//
// Cost is one scan plus at most three single-row writes regardless of
// board size.
func (l *Leaderboard) Reconcile(ctx context.Context, tag, owner string, newCount int) error {
	partition := tagPartition(tag)

	page, err := l.store.Scan(ctx, docstore.Query{
		Partition: partition,
		Prefix:    "COUNT#",
		Limit:     l.capacity,
	})
	if err != nil {
		metrics.RecordLeaderboardError()
		return err
	}

	total := len(page.Items)
	minSort := ""
	minCount := 0
	if total > 0 {
		minSort = page.Items[0].Key.Sort
		minCount = rankCount(minSort)
	}

	// The owner's previous position, wherever it is. With per-tag
	// serialization this is the newCount-1 row, but a crash between a
	// count increment and its reconcile can leave an older one, and
	// reconciles enqueued out of order can arrive with a count the
	// board already passed.
	staleSort := ""
	for _, doc := range page.Items {
		if rankOwner(doc.Key.Sort) == owner {
			staleSort = doc.Key.Sort
			break
		}
	}

	if staleSort != "" && rankCount(staleSort) >= newCount {
		// The board already reflects a count at least this high;
		// applying newCount would move the owner backwards.
		return nil
	}

	removed := 0
	if staleSort != "" {
		existed, err := l.store.Delete(ctx, docstore.Key{Partition: partition, Sort: staleSort})
		if err != nil {
			metrics.RecordLeaderboardError()
			return err
		}
		if existed {
			removed = 1
		}
	}

	if newCount <= minCount && total >= l.capacity {
		// Does not qualify; nothing was removed either, because an
		// owner already on the board always beats the minimum.
		return nil
	}

	entry := model.LeaderEntry{Owner: owner, Count: newCount}
	newKey := docstore.Key{Partition: partition, Sort: rankKey(newCount, owner)}
	if err := l.store.Put(ctx, newKey, entry); err != nil {
		metrics.RecordLeaderboardError()
		return err
	}
	metrics.RecordLeaderboardUpdate()

	if total-removed+1 > l.capacity && minSort != "" && minSort != staleSort {
		if _, err := l.store.Delete(ctx, docstore.Key{Partition: partition, Sort: minSort}); err != nil {
			metrics.RecordLeaderboardError()
			return err
		}
		metrics.RecordLeaderboardEviction()
	}
	return nil
}

// Top returns up to limit entries for the tag ordered by count
// descending, ties broken by ascending owner id. The result is finite
// and restartable; limit is capped at the board capacity.
func (l *Leaderboard) Top(ctx context.Context, tag string, limit int) ([]model.LeaderEntry, error) {
	if limit < 1 || limit > l.capacity {
		limit = l.capacity
	}

	page, err := l.store.Scan(ctx, docstore.Query{
		Partition: tagPartition(tag),
		Prefix:    "COUNT#",
		Reverse:   true,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}

	entries := make([]model.LeaderEntry, 0, len(page.Items))
	for _, doc := range page.Items {
		var e model.LeaderEntry
		if err := json.Unmarshal(doc.Value, &e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	// The descending key scan yields descending owner ids within a
	// count; flip ties to ascending owner order.
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Owner < entries[j].Owner
	})
	return entries, nil
}
