// Package config defines process configuration and its loading.
//
// Conventions:
// - New returns a Config holding every default.
// - Load layers a YAML file and PREFIGHT_ environment variables over New.
// - Validate reports bad values wrapped in ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
)

// Leaderboard metric names.
const (
	MetricElo    = "elo"
	MetricGlicko = "glicko"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// EloK and EloInitial parametrise the Elo engine.
	EloK       float64 `koanf:"elo_k"`
	EloInitial float64 `koanf:"elo_initial"`

	// Glicko engine parameters.
	GlickoInitialRating float64 `koanf:"glicko_initial_rating"`
	GlickoInitialRD     float64 `koanf:"glicko_initial_rd"`
	GlickoC             float64 `koanf:"glicko_c"`
	GlickoRDCap         float64 `koanf:"glicko_rd_cap"`
	// GlickoPeriodDays converts the gap between matches into rating periods.
	// Zero counts one period per match.
	GlickoPeriodDays float64 `koanf:"glicko_period_days"`

	// TransitiveWindow is how many recent matches feed the transitive flag.
	// Zero uses the full history.
	TransitiveWindow int `koanf:"transitive_window"`

	// ParallelCategories runs stage categories as concurrent passes.
	ParallelCategories bool `koanf:"parallel_categories"`

	// MaxRecordsPerRequest caps POST /v1/features bodies.
	MaxRecordsPerRequest int `koanf:"max_records_per_request"`

	// MaxLeaderboardLimit caps GET /v1/ratings?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// LeaderboardMetric picks the rating the leaderboard ranks by: elo or glicko.
	LeaderboardMetric string `koanf:"leaderboard_metric"`

	// DatabasePath is the SQLite feature store. Empty disables persistence.
	DatabasePath string `koanf:"database_path"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		EloK:                 32,
		EloInitial:           1500,
		GlickoInitialRating:  1500,
		GlickoInitialRD:      350,
		GlickoC:              34,
		GlickoRDCap:          350,
		GlickoPeriodDays:     0,
		TransitiveWindow:     1,
		ParallelCategories:   false,
		MaxRecordsPerRequest: 50_000,
		MaxLeaderboardLimit:  100,
		LeaderboardMetric:    MetricElo,
		DatabasePath:         "",
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.EloK <= 0:
		return fmt.Errorf("%w: elo_k must be positive, got %g", ErrInvalidConfig, c.EloK)
	case c.GlickoInitialRD <= 0:
		return fmt.Errorf("%w: glicko_initial_rd must be positive, got %g", ErrInvalidConfig, c.GlickoInitialRD)
	case c.GlickoRDCap < c.GlickoInitialRD:
		return fmt.Errorf("%w: glicko_rd_cap %g below glicko_initial_rd %g",
			ErrInvalidConfig, c.GlickoRDCap, c.GlickoInitialRD)
	case c.GlickoC < 0:
		return fmt.Errorf("%w: glicko_c must not be negative", ErrInvalidConfig)
	case c.GlickoPeriodDays < 0:
		return fmt.Errorf("%w: glicko_period_days must not be negative", ErrInvalidConfig)
	case c.TransitiveWindow < 0:
		return fmt.Errorf("%w: transitive_window must not be negative", ErrInvalidConfig)
	case c.MaxRecordsPerRequest < 1:
		return fmt.Errorf("%w: max_records_per_request must be at least 1", ErrInvalidConfig)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be at least 1", ErrInvalidConfig)
	}

	switch strings.ToLower(c.LeaderboardMetric) {
	case MetricElo, MetricGlicko:
	default:
		return fmt.Errorf("%w: leaderboard_metric %q (want elo or glicko)", ErrInvalidConfig, c.LeaderboardMetric)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q (want text or json)", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
