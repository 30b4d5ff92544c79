// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vouchd/vouchd/internal/adapters/docstore"
	"github.com/vouchd/vouchd/internal/adapters/repository"
	"github.com/vouchd/vouchd/internal/adapters/serializer"
	"github.com/vouchd/vouchd/internal/domain/model"
	"github.com/vouchd/vouchd/internal/domain/types"
	"github.com/vouchd/vouchd/pkg/logger"
	"github.com/vouchd/vouchd/pkg/metrics"
)

// Business no-op messages, kept stable because clients display them.
const (
	msgNotActive       = "Tag not active or does not exist"
	msgAlreadyEndorsed = "User already endorsed this tag"
	msgRecorded        = "Endorsement recorded"
	msgTagExists       = "Tag already exists"
	msgTagAdded        = "Tag added successfully"
	msgTagRequested    = "Tag request sent"
	msgTagAccepted     = "Tag accepted and count set to 1"
	msgTagRejected     = "Tag rejected"
	msgNoPendingTag    = "Tag request not found or already active"
)

// Service coordinates the tag store, the endorsement ledger, and the
// leaderboard index. It holds no persistent state of its own; all
// shared state lives in the document store.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      *docstore.Store
	ownsStore  bool
	tags       *repository.TagStore
	ledger     *repository.Ledger
	board      *repository.Leaderboard
	reconciler *serializer.Pool

	// Configuration
	dataDir          string
	leaderboardSize  int
	serializerShards int
	endorserPageSize int
	tagPageSize      int
	maxListLimit     int
	storeRetryMax    int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore injects an already-open document store. The service will
// not close it on Stop. Mainly for tests.
func WithStore(store *docstore.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
			s.ownsStore = false
		}
	}
}

// WithDataDir sets the on-disk store directory. Empty keeps the store
// in memory.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		s.dataDir = dir
	}
}

// WithLeaderboardSize bounds the per-tag leaderboard.
func WithLeaderboardSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.leaderboardSize = n
		}
	}
}

// WithSerializerShards sets the number of reconciliation shards.
func WithSerializerShards(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.serializerShards = n
		}
	}
}

// WithEndorserPageSize sets the page size for endorsement listings.
func WithEndorserPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.endorserPageSize = n
		}
	}
}

// WithTagPageSize sets the default page size for tag listings.
func WithTagPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.tagPageSize = n
		}
	}
}

// WithMaxListLimit caps caller-specified page sizes.
func WithMaxListLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxListLimit = n
		}
	}
}

// WithStoreRetryMax bounds internal retries on store conflicts.
func WithStoreRetryMax(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.storeRetryMax = n
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		ownsStore:        true,
		leaderboardSize:  100,
		serializerShards: 8,
		endorserPageSize: 25,
		tagPageSize:      50,
		maxListLimit:     100,
		storeRetryMax:    5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store and wires the components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.store == nil {
		storeOpts := []docstore.Option{docstore.WithRetryMax(s.storeRetryMax)}
		if s.dataDir != "" {
			storeOpts = append(storeOpts, docstore.WithDir(s.dataDir), docstore.WithSyncWrites(true))
		}
		store, err := docstore.New(ctx, storeOpts...)
		if err != nil {
			return err
		}
		s.store = store
		s.ownsStore = true
	}

	s.tags = repository.NewTagStore(s.store)
	s.ledger = repository.NewLedger(s.store)
	s.board = repository.NewLeaderboard(s.store, repository.WithCapacity(s.leaderboardSize))
	s.reconciler = serializer.New(serializer.WithShards(s.serializerShards))
	s.reconciler.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "endorsement service started",
		logger.Int("leaderboardSize", s.leaderboardSize),
		logger.Int("serializerShards", s.serializerShards),
		logger.Bool("inMemory", s.dataDir == ""),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping endorsement service...")

	if s.reconciler != nil {
		s.reconciler.Stop()
	}
	if s.store != nil && s.ownsStore {
		if err := s.store.Close(); err != nil {
			s.logger.Error(ctx, "closing store failed", logger.Error(err))
		}
	}
	s.started = false
	s.logger.Info(ctx, "endorsement service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Endorse records endorser's endorsement of (owner, tag).
//
// The sequence puts the irreversible step (the ledger insert) before
// the derived-state updates, so a failure part-way leaves state that a
// retry or the next endorsement reconciles from the current count.
func (s *Service) Endorse(ctx context.Context, owner, tag, endorser string) (types.Outcome, error) {
	if err := s.ready(); err != nil {
		return types.Outcome{}, err
	}

	rec, err := s.tags.Get(ctx, owner, tag)
	if errors.Is(err, repository.ErrNotFound) {
		return types.Outcome{Message: msgNotActive}, nil
	}
	if err != nil {
		return types.Outcome{}, err
	}
	if rec.Status != model.StatusActive {
		return types.Outcome{Message: msgNotActive}, nil
	}

	created, err := s.ledger.TryRecord(ctx, owner, tag, endorser)
	if err != nil {
		return types.Outcome{}, err
	}
	if !created {
		metrics.RecordDuplicateEndorsement()
		return types.Outcome{Message: msgAlreadyEndorsed}, nil
	}
	metrics.RecordEndorsement()

	newCount, err := s.tags.IncrementCount(ctx, owner, tag, 1)
	if err != nil {
		return types.Outcome{}, err
	}

	start := time.Now()
	err = s.reconciler.Do(ctx, tag, func(ctx context.Context) error {
		return s.board.Reconcile(ctx, tag, owner, newCount)
	})
	metrics.RecordReconcileLatency(float64(time.Since(start).Microseconds()) / 1e3)
	if err != nil {
		return types.Outcome{}, err
	}

	s.logger.Debug(ctx, "endorsement recorded",
		logger.String("owner", owner),
		logger.String("tag", tag),
		logger.String("endorser", endorser),
		logger.Int("newCount", newCount),
	)
	return types.Outcome{Message: msgRecorded, NewCount: newCount}, nil
}

// AddTag adds a tag to owner's profile. The owner self-adding gets an
// ACTIVE tag with count 1 and, deliberately, no ledger row; anyone else
// proposing creates a PENDING request credited to them.
func (s *Service) AddTag(ctx context.Context, owner, tag, actor string) (types.Outcome, error) {
	if err := s.ready(); err != nil {
		return types.Outcome{}, err
	}

	_, err := s.tags.Get(ctx, owner, tag)
	if err == nil {
		return types.Outcome{Message: msgTagExists}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return types.Outcome{}, err
	}

	if owner == actor {
		err := s.tags.CreateActive(ctx, owner, tag)
		if errors.Is(err, repository.ErrAlreadyExists) {
			// Lost the race with a concurrent add; same no-op as the pre-check.
			return types.Outcome{Message: msgTagExists}, nil
		}
		if err != nil {
			return types.Outcome{}, err
		}
		metrics.RecordTagCreated(string(model.StatusActive))
		return types.Outcome{Message: msgTagAdded}, nil
	}

	err = s.tags.CreatePending(ctx, owner, tag, actor)
	if errors.Is(err, repository.ErrAlreadyExists) {
		return types.Outcome{Message: msgTagExists}, nil
	}
	if err != nil {
		return types.Outcome{}, err
	}
	metrics.RecordTagCreated(string(model.StatusPending))
	return types.Outcome{Message: msgTagRequested}, nil
}

// AcceptTag activates a PENDING tag and seeds exactly one endorsement
// credited to the original proposer, keeping count and ledger in step.
func (s *Service) AcceptTag(ctx context.Context, owner, tag string) (types.Outcome, error) {
	if err := s.ready(); err != nil {
		return types.Outcome{}, err
	}

	rec, err := s.tags.Get(ctx, owner, tag)
	if errors.Is(err, repository.ErrNotFound) {
		return types.Outcome{Message: msgNoPendingTag}, nil
	}
	if err != nil {
		return types.Outcome{}, err
	}
	if rec.Status != model.StatusPending {
		return types.Outcome{Message: msgNoPendingTag}, nil
	}

	if err := s.tags.Activate(ctx, owner, tag); err != nil {
		if errors.Is(err, repository.ErrNotPending) {
			return types.Outcome{Message: msgNoPendingTag}, nil
		}
		return types.Outcome{}, err
	}
	metrics.RecordTagActivated()

	// TryRecord makes the seeding safe to retry after a crash.
	if _, err := s.ledger.TryRecord(ctx, owner, tag, rec.CreatedBy); err != nil {
		return types.Outcome{}, err
	}
	return types.Outcome{Message: msgTagAccepted, NewCount: 1}, nil
}

// RejectTag deletes a tag request unconditionally.
func (s *Service) RejectTag(ctx context.Context, owner, tag string) (types.Outcome, error) {
	if err := s.ready(); err != nil {
		return types.Outcome{}, err
	}
	if err := s.tags.Remove(ctx, owner, tag); err != nil {
		return types.Outcome{}, err
	}
	metrics.RecordTagRejected()
	return types.Outcome{Message: msgTagRejected}, nil
}

// TagLeaders returns the tag's leaderboard, highest counts first.
func (s *Service) TagLeaders(ctx context.Context, tag string) ([]types.Leader, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	entries, err := s.board.Top(ctx, tag, s.leaderboardSize)
	if err != nil {
		return nil, err
	}
	leaders := make([]types.Leader, len(entries))
	for i, e := range entries {
		leaders[i] = types.Leader{UserID: e.Owner, Count: e.Count}
	}
	return leaders, nil
}

// Endorsers returns one page of endorsements for (owner, tag).
func (s *Service) Endorsers(ctx context.Context, owner, tag, cursor string) (types.EndorserPage, error) {
	if err := s.ready(); err != nil {
		return types.EndorserPage{}, err
	}
	items, next, err := s.ledger.ListEndorsers(ctx, owner, tag, s.endorserPageSize, cursor)
	if err != nil {
		return types.EndorserPage{}, err
	}
	return types.EndorserPage{Items: items, NextCursor: next}, nil
}

// TagsByUser returns one page of owner's tags. Viewers other than the
// owner see ACTIVE tags only.
func (s *Service) TagsByUser(ctx context.Context, owner, viewer string, limit int, cursor string) (types.TagPage, error) {
	if err := s.ready(); err != nil {
		return types.TagPage{}, err
	}
	if limit < 1 {
		limit = s.tagPageSize
	}
	if limit > s.maxListLimit {
		limit = s.maxListLimit
	}
	status := model.Status("")
	if viewer != owner {
		status = model.StatusActive
	}
	items, next, err := s.tags.ListByOwner(ctx, owner, status, limit, cursor)
	if err != nil {
		return types.TagPage{}, err
	}
	return types.TagPage{Items: items, NextCursor: next}, nil
}

// EndorsedByActor returns one page of (owner, tag) pairs the actor has
// endorsed.
func (s *Service) EndorsedByActor(ctx context.Context, actor, cursor string) (types.EndorsedPage, error) {
	if err := s.ready(); err != nil {
		return types.EndorsedPage{}, err
	}
	items, next, err := s.ledger.ListEndorsedByActor(ctx, actor, s.endorserPageSize, cursor)
	if err != nil {
		return types.EndorsedPage{}, err
	}
	refs := make([]types.EndorsedRef, len(items))
	for i, e := range items {
		refs[i] = types.EndorsedRef{UserID: e.Owner, Tag: e.Tag}
	}
	return types.EndorsedPage{Items: refs, NextCursor: next}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"leaderboardSize":  s.leaderboardSize,
		"serializerShards": s.serializerShards,
		"inMemory":         s.dataDir == "",
	}
	if s.started {
		stats["reconcilerDepth"] = s.reconciler.Depth()
	}
	return stats
}
