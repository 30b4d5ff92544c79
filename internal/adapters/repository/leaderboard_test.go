package repository

import (
	"context"
	"fmt"
	"testing"
)

func TestLeaderboard_ReconcileAndTop(t *testing.T) {
	ctx := context.Background()
	board := NewLeaderboard(newTestDocstore(t), WithCapacity(100))

	if err := board.Reconcile(ctx, "go", "u1", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := board.Reconcile(ctx, "go", "u2", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := board.Reconcile(ctx, "go", "u2", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := board.Top(ctx, "go", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Owner != "u2" || entries[0].Count != 2 {
		t.Errorf("top entry = %+v, want u2 count 2", entries[0])
	}
	if entries[1].Owner != "u1" || entries[1].Count != 1 {
		t.Errorf("second entry = %+v, want u1 count 1", entries[1])
	}
}

func TestLeaderboard_RankReplacementLeavesOneRow(t *testing.T) {
	ctx := context.Background()
	store := newTestDocstore(t)
	board := NewLeaderboard(store, WithCapacity(100))

	for count := 1; count <= 5; count++ {
		if err := board.Reconcile(ctx, "go", "u1", count); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	entries, err := board.Top(ctx, "go", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d rows for one owner, want exactly 1", len(entries))
	}
	if entries[0].Count != 5 {
		t.Errorf("count = %d, want 5", entries[0].Count)
	}
}

func TestLeaderboard_OutOfOrderReconcileKeepsHighestCount(t *testing.T) {
	ctx := context.Background()
	board := NewLeaderboard(newTestDocstore(t), WithCapacity(100))

	// Two increments whose reconciles arrive inverted; the board must
	// settle on the higher count rather than the last writer.
	if err := board.Reconcile(ctx, "go", "u1", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := board.Reconcile(ctx, "go", "u1", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := board.Top(ctx, "go", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Count != 3 {
		t.Errorf("count = %d, want 3 after stale reconcile", entries[0].Count)
	}

	// Replaying the same count is also a no-op.
	if err := board.Reconcile(ctx, "go", "u1", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries, err = board.Top(ctx, "go", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Count != 3 {
		t.Errorf("board = %+v, want single u1 row at 3", entries)
	}
}

func TestLeaderboard_BoundedWithEviction(t *testing.T) {
	ctx := context.Background()
	board := NewLeaderboard(newTestDocstore(t), WithCapacity(3))

	// Fill the board.
	for i, owner := range []string{"a", "b", "c"} {
		if err := board.Reconcile(ctx, "go", owner, i+2); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	// counts: a=2, b=3, c=4. A newcomer with 1 does not qualify.
	if err := board.Reconcile(ctx, "go", "d", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries, err := board.Top(ctx, "go", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	for _, e := range entries {
		if e.Owner == "d" {
			t.Fatal("non-qualifying owner admitted to a full board")
		}
	}

	// A newcomer beating the minimum evicts it.
	if err := board.Reconcile(ctx, "go", "e", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries, err = board.Top(ctx, "go", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("board size = %d after eviction, want 3", len(entries))
	}
	if entries[0].Owner != "e" || entries[0].Count != 5 {
		t.Errorf("top = %+v, want e count 5", entries[0])
	}
	for _, e := range entries {
		if e.Owner == "a" {
			t.Fatal("minimum entry a should have been evicted")
		}
	}
}

func TestLeaderboard_MemberUpdateOnFullBoardDoesNotEvict(t *testing.T) {
	ctx := context.Background()
	board := NewLeaderboard(newTestDocstore(t), WithCapacity(3))

	for i, owner := range []string{"a", "b", "c"} {
		if err := board.Reconcile(ctx, "go", owner, i+1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	// a (the minimum) improves; board stays at 3 with everyone present.
	if err := board.Reconcile(ctx, "go", "a", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := board.Top(ctx, "go", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("board size = %d, want 3", len(entries))
	}
	owners := map[string]int{}
	for _, e := range entries {
		owners[e.Owner] = e.Count
	}
	if owners["a"] != 2 || owners["b"] != 2 || owners["c"] != 3 {
		t.Errorf("board = %v, want a=2 b=2 c=3", owners)
	}
}

func TestLeaderboard_TopOrderingWithTies(t *testing.T) {
	ctx := context.Background()
	board := NewLeaderboard(newTestDocstore(t), WithCapacity(100))

	// zed and amy tie on count; amy must list first.
	if err := board.Reconcile(ctx, "go", "zed", 3); err != nil {
		t.Fatal(err)
	}
	if err := board.Reconcile(ctx, "go", "amy", 3); err != nil {
		t.Fatal(err)
	}
	if err := board.Reconcile(ctx, "go", "max", 7); err != nil {
		t.Fatal(err)
	}

	entries, err := board.Top(ctx, "go", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"max", "amy", "zed"}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i, owner := range want {
		if entries[i].Owner != owner {
			t.Errorf("entries[%d] = %s, want %s", i, entries[i].Owner, owner)
		}
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Count > entries[i-1].Count {
			t.Fatal("counts must be non-increasing")
		}
	}
}

func TestLeaderboard_TagsAreIsolated(t *testing.T) {
	ctx := context.Background()
	board := NewLeaderboard(newTestDocstore(t), WithCapacity(100))

	if err := board.Reconcile(ctx, "go", "u1", 4); err != nil {
		t.Fatal(err)
	}
	if err := board.Reconcile(ctx, "rust", "u2", 9); err != nil {
		t.Fatal(err)
	}

	entries, err := board.Top(ctx, "go", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Owner != "u1" {
		t.Fatalf("go board = %+v, want only u1", entries)
	}
}

func TestLeaderboard_ManyOwnersStaysBounded(t *testing.T) {
	ctx := context.Background()
	const cap = 10
	board := NewLeaderboard(newTestDocstore(t), WithCapacity(cap))

	// 30 owners with distinct counts; only the top 10 may remain.
	for i := 1; i <= 30; i++ {
		owner := fmt.Sprintf("owner-%02d", i)
		for c := 1; c <= i; c++ {
			if err := board.Reconcile(ctx, "go", owner, c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
	}

	entries, err := board.Top(ctx, "go", cap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != cap {
		t.Fatalf("board size = %d, want %d", len(entries), cap)
	}
	// Highest count first, and exactly the top owners survive.
	if entries[0].Owner != "owner-30" || entries[0].Count != 30 {
		t.Errorf("top = %+v, want owner-30 count 30", entries[0])
	}
	if entries[cap-1].Count != 21 {
		t.Errorf("bottom count = %d, want 21", entries[cap-1].Count)
	}
}
