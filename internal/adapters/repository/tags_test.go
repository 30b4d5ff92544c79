package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/vouchd/vouchd/internal/adapters/docstore"
	"github.com/vouchd/vouchd/internal/domain/model"
)

func newTestDocstore(t *testing.T) *docstore.Store {
	t.Helper()
	s, err := docstore.New(context.Background())
	if err != nil {
		t.Fatalf("open docstore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestTagStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	tags := NewTagStore(newTestDocstore(t))

	// Absent tag
	if _, err := tags.Get(ctx, "u1", "go"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Pending via proposal
	if err := tags.CreatePending(ctx, "u1", "go", "u2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec, err := tags.Get(ctx, "u1", "go")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Status != model.StatusPending {
		t.Errorf("status = %s, want PENDING", rec.Status)
	}
	if rec.Count != 0 {
		t.Errorf("count = %d, want 0", rec.Count)
	}
	if rec.CreatedBy != "u2" {
		t.Errorf("createdBy = %s, want u2", rec.CreatedBy)
	}

	// Double create fails with AlreadyExists
	if err := tags.CreatePending(ctx, "u1", "go", "u3"); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if err := tags.CreateActive(ctx, "u1", "go"); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	// Accept path
	if err := tags.Activate(ctx, "u1", "go"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec, err = tags.Get(ctx, "u1", "go")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Status != model.StatusActive {
		t.Errorf("status = %s, want ACTIVE", rec.Status)
	}
	if rec.Count != 1 {
		t.Errorf("count = %d, want 1", rec.Count)
	}

	// Activate is PENDING-only
	if err := tags.Activate(ctx, "u1", "go"); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
	if err := tags.Activate(ctx, "u1", "missing"); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
}

func TestTagStore_CreateActiveSelfAdd(t *testing.T) {
	ctx := context.Background()
	tags := NewTagStore(newTestDocstore(t))

	if err := tags.CreateActive(ctx, "u1", "rust"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec, err := tags.Get(ctx, "u1", "rust")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Status != model.StatusActive || rec.Count != 1 {
		t.Errorf("got status=%s count=%d, want ACTIVE count=1", rec.Status, rec.Count)
	}
	if rec.CreatedBy != "" {
		t.Errorf("self-added tag must not carry a proposer, got %q", rec.CreatedBy)
	}
}

func TestTagStore_Remove(t *testing.T) {
	ctx := context.Background()
	tags := NewTagStore(newTestDocstore(t))

	if err := tags.CreatePending(ctx, "u1", "go", "u2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tags.Remove(ctx, "u1", "go"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := tags.Get(ctx, "u1", "go"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}

	// Removing an absent tag is not an error (reject is unconditional).
	if err := tags.Remove(ctx, "u1", "go"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTagStore_IncrementCount(t *testing.T) {
	ctx := context.Background()
	tags := NewTagStore(newTestDocstore(t))

	if _, err := tags.IncrementCount(ctx, "u1", "go", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := tags.CreateActive(ctx, "u1", "go"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for want := 2; want <= 5; want++ {
		got, err := tags.IncrementCount(ctx, "u1", "go", 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("newCount = %d, want %d", got, want)
		}
	}
}

func TestTagStore_ListByOwner(t *testing.T) {
	ctx := context.Background()
	tags := NewTagStore(newTestDocstore(t))

	if err := tags.CreateActive(ctx, "u1", "ada"); err != nil {
		t.Fatal(err)
	}
	if err := tags.CreatePending(ctx, "u1", "basic", "u2"); err != nil {
		t.Fatal(err)
	}
	if err := tags.CreateActive(ctx, "u1", "cobol"); err != nil {
		t.Fatal(err)
	}
	if err := tags.CreateActive(ctx, "u2", "dart"); err != nil {
		t.Fatal(err)
	}

	// Unfiltered listing pages through everything for the owner.
	items, next, err := tags.ListByOwner(ctx, "u1", "", 10, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 3 || next != "" {
		t.Fatalf("got %d items next=%q, want 3 items and no cursor", len(items), next)
	}

	// Status filtering is applied after the page fetch; a page can come
	// back short while a cursor still exists.
	items, next, err = tags.ListByOwner(ctx, "u1", model.StatusActive, 2, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d visible items, want 1 (basic filtered out of the page)", len(items))
	}
	if next == "" {
		t.Fatal("expected a continuation cursor")
	}

	items, _, err = tags.ListByOwner(ctx, "u1", model.StatusActive, 2, next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].Name != "cobol" {
		t.Fatalf("resumed page = %+v, want just cobol", items)
	}
}

func TestTagStore_ListByOwnerBadCursor(t *testing.T) {
	ctx := context.Background()
	tags := NewTagStore(newTestDocstore(t))

	_, _, err := tags.ListByOwner(ctx, "u1", "", 10, "!!not-a-cursor!!")
	if !errors.Is(err, docstore.ErrBadCursor) {
		t.Fatalf("expected ErrBadCursor, got %v", err)
	}
}
