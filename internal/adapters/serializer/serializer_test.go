package serializer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDoBeforeStart(t *testing.T) {
	p := New()
	err := p.Do(context.Background(), "k", func(context.Context) error { return nil })
	if !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestDoReturnsTaskResult(t *testing.T) {
	ctx := context.Background()
	p := New(WithShards(2))
	p.Start(ctx)
	defer p.Stop()

	if err := p.Do(ctx, "k", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := errors.New("boom")
	err := p.Do(ctx, "k", func(context.Context) error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("expected task error, got %v", err)
	}
}

func TestSameKeySerialized(t *testing.T) {
	ctx := context.Background()
	p := New(WithShards(4))
	p.Start(ctx)
	defer p.Stop()

	var inFlight atomic.Int32
	var maxInFlight atomic.Int32
	var wg sync.WaitGroup

	// Many concurrent submissions for one key must never overlap.
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Do(ctx, "same-tag", func(context.Context) error {
				cur := inFlight.Add(1)
				for {
					prev := maxInFlight.Load()
					if cur <= prev || maxInFlight.CompareAndSwap(prev, cur) {
						break
					}
				}
				time.Sleep(100 * time.Microsecond)
				inFlight.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	if got := maxInFlight.Load(); got != 1 {
		t.Fatalf("expected at most 1 in-flight task per key, observed %d", got)
	}
}

func TestDifferentKeysRunConcurrently(t *testing.T) {
	ctx := context.Background()
	p := New(WithShards(8))
	p.Start(ctx)
	defer p.Stop()

	release := make(chan struct{})
	started := make(chan string, 2)

	var wg sync.WaitGroup
	// Two keys that hash to different shards (found by probing).
	keyA, keyB := "", ""
	for i := 'a'; i <= 'z' && keyB == ""; i++ {
		k := "tag-" + string(i)
		if keyA == "" {
			keyA = k
			continue
		}
		if p.shardFor(k) != p.shardFor(keyA) {
			keyB = k
		}
	}
	if keyB == "" {
		t.Skip("no shard-distinct key pair found")
	}

	for _, key := range []string{keyA, keyB} {
		wg.Add(1)
		go func(k string) {
			defer wg.Done()
			_ = p.Do(ctx, k, func(context.Context) error {
				started <- k
				<-release
				return nil
			})
		}(key)
	}

	// Both tasks must be in flight at once.
	deadline := time.After(2 * time.Second)
	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-deadline:
			t.Fatal("tasks for distinct shards did not run concurrently")
		}
	}
	close(release)
	wg.Wait()
}

func TestCanceledContextSkipsQueuedWork(t *testing.T) {
	ctx := context.Background()
	p := New(WithShards(1))
	p.Start(ctx)
	defer p.Stop()

	block := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = p.Do(ctx, "k", func(context.Context) error {
			<-block
			return nil
		})
	}()

	// Give the blocking task time to occupy the shard.
	time.Sleep(20 * time.Millisecond)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	ran := false
	err := p.Do(canceled, "k", func(context.Context) error {
		ran = true
		return nil
	})
	close(block)
	wg.Wait()

	if err == nil {
		t.Fatal("expected an error for the canceled submission")
	}
	if ran {
		t.Fatal("canceled task must not run")
	}
}

func TestStopDrains(t *testing.T) {
	ctx := context.Background()
	p := New(WithShards(2))
	p.Start(ctx)

	var ran atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Do(ctx, "k", func(context.Context) error {
				ran.Add(1)
				return nil
			})
		}()
	}
	wg.Wait()
	p.Stop()

	if got := ran.Load(); got != 20 {
		t.Fatalf("expected 20 tasks to run before stop, got %d", got)
	}

	if err := p.Do(ctx, "k", func(context.Context) error { return nil }); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped after Stop, got %v", err)
	}
}
