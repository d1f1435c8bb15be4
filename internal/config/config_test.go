package config_test

import (
	"errors"
	"testing"

	"github.com/okian/prefight/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.EloK, convey.ShouldEqual, 32)
			convey.So(cfg.EloInitial, convey.ShouldEqual, 1500)
			convey.So(cfg.GlickoInitialRD, convey.ShouldEqual, 350)
			convey.So(cfg.GlickoC, convey.ShouldEqual, 34)
			convey.So(cfg.TransitiveWindow, convey.ShouldEqual, 1)
			convey.So(cfg.LeaderboardMetric, convey.ShouldEqual, config.MetricElo)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one bad field each", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":        func(c *config.Config) { c.Addr = "" },
			"zero k":            func(c *config.Config) { c.EloK = 0 },
			"zero rd":           func(c *config.Config) { c.GlickoInitialRD = 0 },
			"cap below initial": func(c *config.Config) { c.GlickoRDCap = 100 },
			"negative c":        func(c *config.Config) { c.GlickoC = -1 },
			"negative period":   func(c *config.Config) { c.GlickoPeriodDays = -3 },
			"negative window":   func(c *config.Config) { c.TransitiveWindow = -1 },
			"zero records":      func(c *config.Config) { c.MaxRecordsPerRequest = 0 },
			"zero limit":        func(c *config.Config) { c.MaxLeaderboardLimit = 0 },
			"bad metric":        func(c *config.Config) { c.LeaderboardMetric = "trueskill" },
			"bad format":        func(c *config.Config) { c.LogFormat = "xml" },
		}

		for name, mutate := range cases {
			convey.Convey("Then validation rejects "+name, func() {
				cfg := config.New()
				mutate(cfg)
				err := cfg.Validate()

				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}

		convey.Convey("Metric names are case insensitive", func() {
			cfg := config.New()
			cfg.LeaderboardMetric = "Glicko"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
