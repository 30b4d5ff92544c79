package docstore

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithDir sets the on-disk database directory. An empty dir keeps the
// store in memory.
func WithDir(dir string) Option {
	return func(s *Store) {
		if dir != "" {
			s.dir = dir
			s.inMemory = false
		}
	}
}

// WithSyncWrites forces writes to be synced to disk. Ignored in memory mode.
func WithSyncWrites(sync bool) Option {
	return func(s *Store) {
		s.sync = sync
	}
}

// WithRetryMax bounds internal retries on transaction conflicts.
func WithRetryMax(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.retryMax = n
		}
	}
}
