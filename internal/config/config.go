// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults.
// - Load(ctx) layers defaults, optional YAML file, and environment variables.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataDir is the Badger database directory. Empty runs the store in memory.
	DataDir string `koanf:"data_dir"`

	// LeaderboardSize bounds the number of entries tracked per tag.
	LeaderboardSize int `koanf:"leaderboard_size"`

	// SerializerShards sets the number of goroutines serializing
	// leaderboard reconciliation per tag.
	SerializerShards int `koanf:"serializer_shards"`

	// EndorserPageSize is the page size for endorser and endorsed-by listings.
	EndorserPageSize int `koanf:"endorser_page_size"`

	// TagPageSize is the default page size for tag listings.
	TagPageSize int `koanf:"tag_page_size"`

	// MaxListLimit caps caller-specified page sizes.
	MaxListLimit int `koanf:"max_list_limit"`

	// StoreRetryMax bounds internal retries on document store conflicts.
	StoreRetryMax int `koanf:"store_retry_max"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":9080",
		DataDir:          "",
		LeaderboardSize:  100,
		SerializerShards: runtime.NumCPU(),
		EndorserPageSize: 25,
		TagPageSize:      50,
		MaxListLimit:     100,
		StoreRetryMax:    5,
	}
}
