package config

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrLoadConfig             = errors.New("load config failed")
	ErrEmptyAddr              = errors.New("addr must not be empty")
	ErrInvalidLeaderboardSize = errors.New("leaderboard_size must be at least 1")
	ErrInvalidShards          = errors.New("serializer_shards must be at least 1")
	ErrInvalidPageSize        = errors.New("page sizes must be at least 1")
	ErrInvalidRetryMax        = errors.New("store_retry_max must be at least 1")
)

// wrapLoad wraps a provider error with the load sentinel.
func wrapLoad(err error) error {
	return fmt.Errorf("%w: %w", ErrLoadConfig, err)
}
