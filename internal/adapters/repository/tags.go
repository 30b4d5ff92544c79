// Package repository owns the persistent structures of the endorsement
// system: per-user tag records, the deduplicated endorsement ledger, and
// the bounded per-tag leaderboard. Each structure is written only
// through its own store type; the orchestrator in internal/app is the
// sole caller that touches more than one per operation.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/vouchd/vouchd/internal/adapters/docstore"
	"github.com/vouchd/vouchd/internal/domain/model"
)

// TagStore owns tag records and their PENDING/ACTIVE lifecycle.
type TagStore struct {
	store *docstore.Store
}

// NewTagStore creates a TagStore over the given document store.
func NewTagStore(store *docstore.Store) *TagStore {
	return &TagStore{store: store}
}

// Get returns the tag record for (owner, tag).
// Returns ErrNotFound when absent.
func (t *TagStore) Get(ctx context.Context, owner, tag string) (model.Tag, error) {
	var rec model.Tag
	err := t.store.Get(ctx, tagKey(owner, tag), &rec)
	if errors.Is(err, docstore.ErrKeyNotFound) {
		return model.Tag{}, ErrNotFound
	}
	if err != nil {
		return model.Tag{}, err
	}
	return rec, nil
}

// CreateActive inserts an ACTIVE tag with count 1 (the self-add path).
// Returns ErrAlreadyExists when a record is present; callers pre-check
// and treat that as a business no-op.
func (t *TagStore) CreateActive(ctx context.Context, owner, tag string) error {
	rec := model.Tag{
		Owner:     owner,
		Name:      tag,
		Status:    model.StatusActive,
		Count:     1,
		CreatedAt: time.Now().UTC(),
	}
	err := t.store.Insert(ctx, tagKey(owner, tag), rec)
	if errors.Is(err, docstore.ErrConditionFailed) {
		return ErrAlreadyExists
	}
	return err
}

// CreatePending inserts a PENDING tag with count 0, recording the
// proposer so an accept can credit the first endorsement.
func (t *TagStore) CreatePending(ctx context.Context, owner, tag, proposer string) error {
	rec := model.Tag{
		Owner:     owner,
		Name:      tag,
		Status:    model.StatusPending,
		Count:     0,
		CreatedBy: proposer,
		CreatedAt: time.Now().UTC(),
	}
	err := t.store.Insert(ctx, tagKey(owner, tag), rec)
	if errors.Is(err, docstore.ErrConditionFailed) {
		return ErrAlreadyExists
	}
	return err
}

// Activate transitions PENDING -> ACTIVE and sets count to 1.
// Returns ErrNotPending when the record is absent or not PENDING.
func (t *TagStore) Activate(ctx context.Context, owner, tag string) error {
	return t.store.Mutate(ctx, tagKey(owner, tag), func(current []byte) ([]byte, error) {
		if current == nil {
			return nil, ErrNotPending
		}
		var rec model.Tag
		if err := json.Unmarshal(current, &rec); err != nil {
			return nil, err
		}
		if rec.Status != model.StatusPending {
			return nil, ErrNotPending
		}
		rec.Status = model.StatusActive
		rec.Count = 1
		return json.Marshal(rec)
	})
}

// Remove deletes the tag record unconditionally (the reject path).
func (t *TagStore) Remove(ctx context.Context, owner, tag string) error {
	_, err := t.store.Delete(ctx, tagKey(owner, tag))
	return err
}

// IncrementCount atomically adds by to the tag's count and returns the
// new value. Returns ErrNotFound when the tag is absent. The counter is
// never read-modify-written outside the store transaction.
func (t *TagStore) IncrementCount(ctx context.Context, owner, tag string, by int) (int, error) {
	newCount := 0
	err := t.store.Mutate(ctx, tagKey(owner, tag), func(current []byte) ([]byte, error) {
		if current == nil {
			return nil, ErrNotFound
		}
		var rec model.Tag
		if err := json.Unmarshal(current, &rec); err != nil {
			return nil, err
		}
		rec.Count += by
		newCount = rec.Count
		return json.Marshal(rec)
	})
	if err != nil {
		return 0, err
	}
	return newCount, nil
}

// ListByOwner returns one page of the owner's tags. The status filter is
// applied after the page is fetched, so a page may hold fewer than limit
// visible items even when more exist; it is a visibility filter, not a
// count-accurate slice.
func (t *TagStore) ListByOwner(ctx context.Context, owner string, status model.Status, limit int, cursor string) ([]model.Tag, string, error) {
	if limit < 1 {
		return nil, "", ErrInvalidLimit
	}
	startAfter, err := docstore.DecodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	page, err := t.store.Scan(ctx, docstore.Query{
		Partition:  userPartition(owner),
		Prefix:     tagSortPrefix,
		Limit:      limit,
		StartAfter: startAfter,
	})
	if err != nil {
		return nil, "", err
	}

	items := make([]model.Tag, 0, len(page.Items))
	for _, doc := range page.Items {
		var rec model.Tag
		if err := json.Unmarshal(doc.Value, &rec); err != nil {
			return nil, "", err
		}
		if status != "" && rec.Status != status {
			continue
		}
		items = append(items, rec)
	}
	return items, docstore.EncodeCursor(page.NextKey), nil
}

func tagKey(owner, tag string) docstore.Key {
	return docstore.Key{Partition: userPartition(owner), Sort: tagSort(tag)}
}
