package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/vouchd/vouchd/internal/adapters/docstore"
	"github.com/vouchd/vouchd/internal/domain/model"
)

// Ledger owns the deduplicated (owner, tag, endorser) endorsement rows.
// The conditional insert on the primary row is the dedup gate; no other
// serialization is needed for it.
type Ledger struct {
	store *docstore.Store
}

// NewLedger creates a Ledger over the given document store.
func NewLedger(store *docstore.Store) *Ledger {
	return &Ledger{store: store}
}

// TryRecord inserts the endorsement if the triple is new. Returns
// created=false, not an error, when the triple already exists.
//
// The reverse-lookup row is written after the primary insert succeeds.
// A crash between the two leaves the reverse path one row behind; the
// ledger row is the source of truth and a retry of the same endorsement
// lands on the duplicate branch without touching the count again.
func (l *Ledger) TryRecord(ctx context.Context, owner, tag, endorser string) (bool, error) {
	rec := model.Endorsement{
		Owner:     owner,
		Tag:       tag,
		Endorser:  endorser,
		CreatedAt: time.Now().UTC(),
	}

	primary := docstore.Key{
		Partition: userPartition(owner),
		Sort:      endorsementSort(tag, endorser),
	}
	err := l.store.Insert(ctx, primary, rec)
	if errors.Is(err, docstore.ErrConditionFailed) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	reverse := docstore.Key{
		Partition: actorPartition(endorser),
		Sort:      endorsedBySort(owner, tag),
	}
	if err := l.store.Put(ctx, reverse, rec); err != nil {
		return false, err
	}
	return true, nil
}

// ListEndorsers returns one page of endorsements for (owner, tag).
func (l *Ledger) ListEndorsers(ctx context.Context, owner, tag string, limit int, cursor string) ([]model.Endorsement, string, error) {
	if limit < 1 {
		return nil, "", ErrInvalidLimit
	}
	startAfter, err := docstore.DecodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	page, err := l.store.Scan(ctx, docstore.Query{
		Partition:  userPartition(owner),
		Prefix:     endSortPrefix + tag + "#",
		Limit:      limit,
		StartAfter: startAfter,
	})
	if err != nil {
		return nil, "", err
	}
	items, err := decodeEndorsements(page.Items)
	if err != nil {
		return nil, "", err
	}
	return items, docstore.EncodeCursor(page.NextKey), nil
}

// ListEndorsedByActor returns one page of the endorsements the actor has
// given, via the reverse access path.
func (l *Ledger) ListEndorsedByActor(ctx context.Context, actor string, limit int, cursor string) ([]model.Endorsement, string, error) {
	if limit < 1 {
		return nil, "", ErrInvalidLimit
	}
	startAfter, err := docstore.DecodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	page, err := l.store.Scan(ctx, docstore.Query{
		Partition:  actorPartition(actor),
		Prefix:     endSortPrefix,
		Limit:      limit,
		StartAfter: startAfter,
	})
	if err != nil {
		return nil, "", err
	}
	items, err := decodeEndorsements(page.Items)
	if err != nil {
		return nil, "", err
	}
	return items, docstore.EncodeCursor(page.NextKey), nil
}

func decodeEndorsements(docs []docstore.Document) ([]model.Endorsement, error) {
	items := make([]model.Endorsement, 0, len(docs))
	for _, doc := range docs {
		var rec model.Endorsement
		if err := json.Unmarshal(doc.Value, &rec); err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, nil
}
