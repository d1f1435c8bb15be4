package service

import (
	"time"

	"github.com/okian/prefight/internal/config"
	"github.com/okian/prefight/internal/domain/rating"
	"github.com/okian/prefight/internal/domain/transitive"
	"github.com/okian/prefight/pkg/logger"
)

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

// WithElo sets the Elo K-factor and initial rating.
func WithElo(k, initial float64) Option {
	return func(s *Service) {
		s.eloOpts = []rating.EloOption{rating.WithK(k), rating.WithEloInitial(initial)}
	}
}

// WithGlicko sets the Glicko engine parameters.
func WithGlicko(initialRating, initialRD, c, rdCap, periodDays float64) Option {
	return func(s *Service) {
		s.glickoOpts = []rating.GlickoOption{
			rating.WithGlickoInitial(initialRating, initialRD),
			rating.WithC(c),
			rating.WithRDCap(rdCap),
			rating.WithPeriodDays(periodDays),
		}
	}
}

// WithTransitiveWindow sets how many recent matches feed the transitive flag.
func WithTransitiveWindow(n int) Option {
	return func(s *Service) {
		s.detectorOpts = []transitive.Option{transitive.WithWindow(n)}
	}
}

// WithParallelCategories runs stage categories as concurrent passes.
func WithParallelCategories(enabled bool) Option {
	return func(s *Service) { s.parallel = enabled }
}

// WithLeaderboardMetric picks the rating the leaderboard ranks by.
func WithLeaderboardMetric(metric string) Option {
	return func(s *Service) {
		if metric != "" {
			s.metric = metric
		}
	}
}

// WithMaxRecords caps the records accepted by one build.
func WithMaxRecords(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRecords = n
		}
	}
}

// WithMaxLeaderboardLimit caps TopN requests.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithFeatureStore persists every build through store.
func WithFeatureStore(store FeatureStore) Option {
	return func(s *Service) { s.store = store }
}

// WithPersistQueue sizes the background persistence queue and its workers.
func WithPersistQueue(size, workers int) Option {
	return func(s *Service) {
		if size > 0 {
			s.persistQueueSize = size
		}
		if workers > 0 {
			s.persistWorkers = workers
		}
	}
}

// WithClock overrides the time source used for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// ConfigOptions maps a loaded Config onto service options.
func ConfigOptions(cfg *config.Config) []Option {
	return []Option{
		WithElo(cfg.EloK, cfg.EloInitial),
		WithGlicko(cfg.GlickoInitialRating, cfg.GlickoInitialRD, cfg.GlickoC, cfg.GlickoRDCap, cfg.GlickoPeriodDays),
		WithTransitiveWindow(cfg.TransitiveWindow),
		WithParallelCategories(cfg.ParallelCategories),
		WithLeaderboardMetric(cfg.LeaderboardMetric),
		WithMaxRecords(cfg.MaxRecordsPerRequest),
		WithMaxLeaderboardLimit(cfg.MaxLeaderboardLimit),
	}
}
