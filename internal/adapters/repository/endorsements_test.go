package repository

import (
	"context"
	"fmt"
	"testing"
)

func TestLedger_TryRecordDedup(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(newTestDocstore(t))

	created, err := ledger.TryRecord(ctx, "u1", "go", "u2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("first record must create")
	}

	// Same triple again is a quiet no-op, not an error.
	created, err = ledger.TryRecord(ctx, "u1", "go", "u2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Fatal("duplicate triple must not create")
	}

	// A different endorser for the same tag is a new row.
	created, err = ledger.TryRecord(ctx, "u1", "go", "u3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("distinct endorser must create")
	}

	items, next, err := ledger.ListEndorsers(ctx, "u1", "go", 25, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 || next != "" {
		t.Fatalf("got %d endorsers next=%q, want 2 and no cursor", len(items), next)
	}
	if items[0].Endorser != "u2" || items[1].Endorser != "u3" {
		t.Errorf("endorsers = %s,%s, want u2,u3", items[0].Endorser, items[1].Endorser)
	}
}

func TestLedger_ListEndorsersScopedToTag(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(newTestDocstore(t))

	mustRecord(t, ledger, "u1", "go", "u2")
	mustRecord(t, ledger, "u1", "golf", "u3")

	// The "go" listing must not pick up "golf" rows despite the shared
	// string prefix; the trailing separator scopes the range.
	items, _, err := ledger.ListEndorsers(ctx, "u1", "go", 25, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].Endorser != "u2" {
		t.Fatalf("items = %+v, want only u2's endorsement of go", items)
	}
}

func TestLedger_ListEndorsersPagination(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(newTestDocstore(t))

	const total = 7
	for i := 0; i < total; i++ {
		mustRecord(t, ledger, "u1", "go", fmt.Sprintf("endorser-%02d", i))
	}

	seen := map[string]bool{}
	cursor := ""
	for {
		items, next, err := ledger.ListEndorsers(ctx, "u1", "go", 3, cursor)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, e := range items {
			if seen[e.Endorser] {
				t.Fatalf("endorser %s returned twice across pages", e.Endorser)
			}
			seen[e.Endorser] = true
		}
		if next == "" {
			break
		}
		cursor = next
	}
	if len(seen) != total {
		t.Fatalf("paged through %d endorsers, want %d", len(seen), total)
	}
}

func TestLedger_ListEndorsedByActor(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(newTestDocstore(t))

	mustRecord(t, ledger, "u1", "go", "actor")
	mustRecord(t, ledger, "u2", "rust", "actor")
	mustRecord(t, ledger, "u3", "zig", "someone-else")

	items, next, err := ledger.ListEndorsedByActor(ctx, "actor", 25, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 || next != "" {
		t.Fatalf("got %d items next=%q, want 2 and no cursor", len(items), next)
	}
	if items[0].Owner != "u1" || items[0].Tag != "go" {
		t.Errorf("first item = %+v, want u1/go", items[0])
	}
	if items[1].Owner != "u2" || items[1].Tag != "rust" {
		t.Errorf("second item = %+v, want u2/rust", items[1])
	}
}

func mustRecord(t *testing.T, ledger *Ledger, owner, tag, endorser string) {
	t.Helper()
	created, err := ledger.TryRecord(context.Background(), owner, tag, endorser)
	if err != nil {
		t.Fatalf("record %s/%s by %s: %v", owner, tag, endorser, err)
	}
	if !created {
		t.Fatalf("record %s/%s by %s: expected creation", owner, tag, endorser)
	}
}
