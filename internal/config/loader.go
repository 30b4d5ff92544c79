package config

import (
	"context"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if VOUCHD_CONFIG is set
//  3. env (prefix VOUCHD_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("VOUCHD_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, wrapLoad(err)
		}
	}

	// Environment variables: VOUCHD_ADDR, VOUCHD_LEADERBOARD_SIZE, ...
	// Map env keys like VOUCHD_TAG_PAGE_SIZE -> tag_page_size (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("VOUCHD_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "vouchd_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, wrapLoad(err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, wrapLoad(err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return ErrEmptyAddr
	case c.LeaderboardSize < 1:
		return ErrInvalidLeaderboardSize
	case c.SerializerShards < 1:
		return ErrInvalidShards
	case c.EndorserPageSize < 1 || c.TagPageSize < 1:
		return ErrInvalidPageSize
	case c.MaxListLimit < 1:
		return ErrInvalidPageSize
	case c.StoreRetryMax < 1:
		return ErrInvalidRetryMax
	}
	return nil
}
