// Package serializer provides per-key serialized execution on a sharded
// pool of goroutines. Work submitted for the same key always lands on
// the same shard and runs in submission order, which is the
// mutual-exclusion discipline leaderboard reconciliation requires
// without holding any lock across store calls.
package serializer

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/vouchd/vouchd/pkg/metrics"
)

// Default pool configuration constants.
const (
	defaultShards    = 8
	defaultQueueSize = 1024
)

type task struct {
	ctx  context.Context
	fn   func(context.Context) error
	done chan error
}

// Pool routes tasks to shards by key hash and runs each shard's tasks
// sequentially.
type Pool struct {
	shards    []chan task
	shardsN   int
	queueSize int
	depth     atomic.Int64

	mu         sync.Mutex
	started    bool
	submitters sync.WaitGroup
	workers    sync.WaitGroup
}

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithShards sets the number of shard goroutines.
func WithShards(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.shardsN = n
		}
	}
}

// WithQueueSize sets the per-shard task buffer.
func WithQueueSize(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.queueSize = n
		}
	}
}

// New constructs a Pool with default configuration.
func New(opts ...Option) *Pool {
	p := &Pool{
		shardsN:   defaultShards,
		queueSize: defaultQueueSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the shard goroutines. Calling Start twice is a no-op.
func (p *Pool) Start(_ context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.shards = make([]chan task, p.shardsN)
	for i := range p.shards {
		ch := make(chan task, p.queueSize)
		p.shards[i] = ch
		p.workers.Add(1)
		go p.run(ch)
	}
	p.started = true
}

// Stop rejects new work, drains queued tasks, and waits for in-flight
// tasks to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()

	// All submitters hold a reservation between the started check and
	// their channel send; once they drain, closing is safe.
	p.submitters.Wait()
	for _, ch := range p.shards {
		close(ch)
	}
	p.workers.Wait()
}

func (p *Pool) run(ch chan task) {
	defer p.workers.Done()
	for t := range ch {
		p.depth.Add(-1)
		metrics.UpdateSerializerDepth(int(p.depth.Load()))
		if t.ctx.Err() != nil {
			// Caller gave up while queued; skip the work, it will be
			// redone from current state on retry.
			t.done <- t.ctx.Err()
			continue
		}
		t.done <- t.fn(t.ctx)
	}
}

// Do runs fn on the shard owning key and returns its result. Calls with
// the same key are executed one at a time in submission order. Returns
// ErrStopped when the pool is not running and the context error when the
// caller cancels before the task is picked up.
func (p *Pool) Do(ctx context.Context, key string, fn func(context.Context) error) error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return ErrStopped
	}
	p.submitters.Add(1)
	ch := p.shards[p.shardFor(key)]
	p.mu.Unlock()
	defer p.submitters.Done()

	t := task{ctx: ctx, fn: fn, done: make(chan error, 1)}
	select {
	case ch <- t:
		p.depth.Add(1)
		metrics.UpdateSerializerDepth(int(p.depth.Load()))
	case <-ctx.Done():
		return ctx.Err()
	}

	return <-t.done
}

// Depth returns the number of queued tasks across all shards.
func (p *Pool) Depth() int {
	return int(p.depth.Load())
}

func (p *Pool) shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(p.shardsN))
}
