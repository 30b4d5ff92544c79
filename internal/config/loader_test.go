package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"github.com/vouchd/vouchd/internal/config"
)

func clearConfigEnvVars() {
	for _, key := range []string{
		"VOUCHD_CONFIG",
		"VOUCHD_ADDR",
		"VOUCHD_LOG_LEVEL",
		"VOUCHD_DATA_DIR",
		"VOUCHD_LEADERBOARD_SIZE",
		"VOUCHD_SERIALIZER_SHARDS",
		"VOUCHD_ENDORSER_PAGE_SIZE",
		"VOUCHD_TAG_PAGE_SIZE",
		"VOUCHD_MAX_LIST_LIMIT",
		"VOUCHD_STORE_RETRY_MAX",
	} {
		_ = os.Unsetenv(key)
	}
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.LeaderboardSize, convey.ShouldEqual, 100)
				convey.So(cfg.EndorserPageSize, convey.ShouldEqual, 25)
				convey.So(cfg.TagPageSize, convey.ShouldEqual, 50)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("VOUCHD_ADDR", ":8080")
			_ = os.Setenv("VOUCHD_LEADERBOARD_SIZE", "10")
			_ = os.Setenv("VOUCHD_SERIALIZER_SHARDS", "4")
			_ = os.Setenv("VOUCHD_TAG_PAGE_SIZE", "20")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.LeaderboardSize, convey.ShouldEqual, 10)
				convey.So(cfg.SerializerShards, convey.ShouldEqual, 4)
				convey.So(cfg.TagPageSize, convey.ShouldEqual, 20)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			clearConfigEnvVars()
			dir := t.TempDir()
			path := filepath.Join(dir, "vouchd.yaml")
			yaml := "addr: \":7070\"\nleaderboard_size: 50\nendorser_page_size: 10\n"
			convey.So(os.WriteFile(path, []byte(yaml), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("VOUCHD_CONFIG", path)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values should override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.LeaderboardSize, convey.ShouldEqual, 50)
				convey.So(cfg.EndorserPageSize, convey.ShouldEqual, 10)
				convey.So(cfg.TagPageSize, convey.ShouldEqual, 50)
			})
		})

		convey.Convey("When the configuration is invalid", func() {
			_ = os.Setenv("VOUCHD_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then loading should fail with a sentinel error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(err, convey.ShouldEqual, config.ErrEmptyAddr)
			})
		})

		convey.Convey("When env sets a non-positive leaderboard size", func() {
			_ = os.Setenv("VOUCHD_LEADERBOARD_SIZE", "0")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading should fail", func() {
				convey.So(err, convey.ShouldEqual, config.ErrInvalidLeaderboardSize)
			})
		})
	})
}
