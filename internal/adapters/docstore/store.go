// Package docstore provides a partitioned document store over BadgerDB.
//
// Documents are JSON values addressed by a (partition, sort) key pair.
// Within a partition, Badger's ordered iteration yields sort-key order,
// which gives the range and continuation semantics the repositories
// build on. Every operation is a single-document atomic step; there are
// no cross-document transactions.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/vouchd/vouchd/pkg/metrics"
)

// keySep separates partition from sort key in the encoded Badger key.
// Identifiers must not contain NUL.
const keySep = byte(0x00)

// Key addresses one document.
type Key struct {
	Partition string
	Sort      string
}

// encode builds the Badger key for k.
func (k Key) encode() []byte {
	b := make([]byte, 0, len(k.Partition)+1+len(k.Sort))
	b = append(b, k.Partition...)
	b = append(b, keySep)
	b = append(b, k.Sort...)
	return b
}

// Document is one scanned row.
type Document struct {
	Key   Key
	Value []byte
}

// Query describes a range scan over one partition.
type Query struct {
	Partition  string
	Prefix     string // sort-key prefix, may be empty
	Reverse    bool   // descending sort-key order
	Limit      int    // max items per page; required
	StartAfter string // exclusive continuation sort key; forward scans only
}

// Page is one page of scan results. NextKey is the native continuation
// token (the last sort key of the page) and is empty when no further
// pages exist.
type Page struct {
	Items   []Document
	NextKey string
}

// Store is a Badger-backed partitioned document store.
type Store struct {
	db       *badger.DB
	dir      string
	inMemory bool
	sync     bool
	retryMax int
	closed   atomic.Bool
}

// New opens the store. With no directory configured it runs in memory,
// which is also how the test suites use it.
func New(_ context.Context, opts ...Option) (*Store, error) {
	s := &Store{
		retryMax: 5,
		inMemory: true,
	}
	for _, opt := range opts {
		opt(s)
	}

	badgerOpts := badger.DefaultOptions(s.dir)
	badgerOpts.Logger = nil
	if s.inMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	} else {
		badgerOpts = badgerOpts.WithSyncWrites(s.sync)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, wrapOpen(err)
	}
	s.db = db
	return s, nil
}

// Close releases the underlying database. Subsequent operations return
// ErrClosed; closing an already closed store is a no-op.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return wrapInternal(err)
	}
	return nil
}

// guard rejects operations on a closed store.
func (s *Store) guard(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Get unmarshals the document at key into dest.
// Returns ErrKeyNotFound when the document is absent.
func (s *Store) Get(ctx context.Context, key Key, dest any) error {
	defer observe("get", time.Now())
	if err := s.guard(ctx); err != nil {
		return err
	}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key.encode())
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrKeyNotFound
	}
	if err != nil {
		return wrapInternal(err)
	}
	return nil
}

// Put writes the document at key unconditionally.
func (s *Store) Put(ctx context.Context, key Key, value any) error {
	defer observe("put", time.Now())
	if err := s.guard(ctx); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return wrapInternal(err)
	}
	return s.withConflictRetry(func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			return txn.Set(key.encode(), data)
		})
	})
}

// Insert writes the document at key only if no document exists there.
// Returns ErrConditionFailed when the key is already present. The
// existence check and the write happen in one transaction, making this
// the store's conditional-write primitive.
func (s *Store) Insert(ctx context.Context, key Key, value any) error {
	defer observe("insert", time.Now())
	if err := s.guard(ctx); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return wrapInternal(err)
	}
	k := key.encode()
	return s.withConflictRetry(func() error {
		err := s.db.Update(func(txn *badger.Txn) error {
			_, err := txn.Get(k)
			if err == nil {
				return ErrConditionFailed
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			return txn.Set(k, data)
		})
		if errors.Is(err, ErrConditionFailed) {
			return ErrConditionFailed
		}
		return err
	})
}

// Mutate applies fn to the current raw document (nil when absent) and
// writes back the returned bytes, all inside one transaction. This is
// the atomic read-modify-write primitive the tag counter rides on;
// conflicting concurrent mutations are retried internally up to the
// configured bound.
func (s *Store) Mutate(ctx context.Context, key Key, fn func(current []byte) ([]byte, error)) error {
	defer observe("mutate", time.Now())
	if err := s.guard(ctx); err != nil {
		return err
	}
	k := key.encode()
	return s.withConflictRetry(func() error {
		return s.db.Update(func(txn *badger.Txn) error {
			var current []byte
			item, err := txn.Get(k)
			switch {
			case err == nil:
				current, err = item.ValueCopy(nil)
				if err != nil {
					return err
				}
			case errors.Is(err, badger.ErrKeyNotFound):
				current = nil
			default:
				return err
			}
			next, err := fn(current)
			if err != nil {
				return err
			}
			return txn.Set(k, next)
		})
	})
}

// Delete removes the document at key. The returned bool reports whether
// a document existed. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key Key) (bool, error) {
	defer observe("delete", time.Now())
	if err := s.guard(ctx); err != nil {
		return false, err
	}
	k := key.encode()
	existed := false
	err := s.withConflictRetry(func() error {
		existed = false
		return s.db.Update(func(txn *badger.Txn) error {
			_, err := txn.Get(k)
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			existed = true
			return txn.Delete(k)
		})
	})
	if err != nil {
		return false, err
	}
	return existed, nil
}

// Scan returns one page of documents from a partition in sort-key order
// (descending when q.Reverse). NextKey is set when more documents remain.
func (s *Store) Scan(ctx context.Context, q Query) (Page, error) {
	defer observe("scan", time.Now())
	if err := s.guard(ctx); err != nil {
		return Page{}, err
	}
	if q.Limit < 1 {
		return Page{}, ErrInvalidLimit
	}

	prefix := Key{Partition: q.Partition, Sort: q.Prefix}.encode()
	var page Page
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{
			PrefetchValues: true,
			PrefetchSize:   q.Limit,
			Reverse:        q.Reverse,
			Prefix:         prefix,
		})
		defer it.Close()

		seek := prefix
		if q.Reverse {
			// Position past the last key sharing the prefix.
			seek = append(append([]byte{}, prefix...), 0xFF)
		} else if q.StartAfter != "" {
			seek = Key{Partition: q.Partition, Sort: q.StartAfter}.encode()
		}

		it.Seek(seek)
		// Exclusive continuation: skip the cursor row itself.
		if !q.Reverse && q.StartAfter != "" && it.ValidForPrefix(prefix) {
			start := Key{Partition: q.Partition, Sort: q.StartAfter}.encode()
			if bytes.Equal(it.Item().Key(), start) {
				it.Next()
			}
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if len(page.Items) == q.Limit {
				page.NextKey = page.Items[len(page.Items)-1].Key.Sort
				return nil
			}
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			page.Items = append(page.Items, Document{
				Key:   decodeKey(item.KeyCopy(nil)),
				Value: val,
			})
		}
		return nil
	})
	if err != nil {
		return Page{}, wrapInternal(err)
	}
	return page, nil
}

// withConflictRetry retries fn on Badger transaction conflicts. A
// conflict after the retry budget surfaces as ErrConflict.
func (s *Store) withConflictRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt < s.retryMax; attempt++ {
		err = fn()
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		metrics.RecordStoreConflictRetry()
	}
	return ErrConflict
}

// decodeKey splits an encoded Badger key back into its parts.
func decodeKey(raw []byte) Key {
	if i := bytes.IndexByte(raw, keySep); i >= 0 {
		return Key{Partition: string(raw[:i]), Sort: string(raw[i+1:])}
	}
	return Key{Partition: string(raw)}
}

func observe(op string, start time.Time) {
	metrics.RecordStoreOpLatency(op, float64(time.Since(start).Microseconds())/1e3)
}
