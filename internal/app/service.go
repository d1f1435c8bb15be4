// Package service wires the feature engine, the ratings leaderboard and the
// feature store behind the dependencies the HTTP API and the CLI need.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/prefight/internal/adapters/ingest"
	"github.com/okian/prefight/internal/adapters/mq/queue"
	"github.com/okian/prefight/internal/adapters/mq/worker"
	"github.com/okian/prefight/internal/adapters/repository"
	"github.com/okian/prefight/internal/adapters/storage/featurestore"
	"github.com/okian/prefight/internal/config"
	"github.com/okian/prefight/internal/domain/entity"
	"github.com/okian/prefight/internal/domain/features"
	"github.com/okian/prefight/internal/domain/model"
	"github.com/okian/prefight/internal/domain/rating"
	"github.com/okian/prefight/internal/domain/transitive"
	"github.com/okian/prefight/internal/domain/types"
	"github.com/okian/prefight/pkg/logger"
	"github.com/okian/prefight/pkg/metrics"
)

// Persistence outcomes reported by Build.
const (
	PersistDisabled = "disabled"
	PersistQueued   = "queued"
	PersistDropped  = "dropped"
)

// FeatureStore is what the service needs from persistent storage.
type FeatureStore interface {
	worker.Persister
	Runs(ctx context.Context) ([]featurestore.Run, error)
	Values(ctx context.Context, runID, column string) ([]featurestore.ColumnValue, error)
}

// Build is the outcome of one feature build.
type Build struct {
	RunID   string           `json:"run_id"`
	Persist string           `json:"persist"`
	Took    time.Duration    `json:"took_ns"`
	Result  *features.Result `json:"result"`
}

// RunInfo describes the most recent build.
type RunInfo struct {
	ID       string    `json:"id"`
	At       time.Time `json:"at"`
	Records  int       `json:"records"`
	Entities int       `json:"entities"`
	Mode     string    `json:"mode"`
}

// Service implements the API dependencies for the feature engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	assembler   *features.Assembler
	leaderboard *repository.TreapStore
	store       FeatureStore
	queue       *queue.InMemoryQueue[worker.Job]
	pool        *worker.Pool

	// Configuration
	eloOpts          []rating.EloOption
	glickoOpts       []rating.GlickoOption
	detectorOpts     []transitive.Option
	parallel         bool
	metric           string
	maxRecords       int
	maxLimit         int
	persistQueueSize int
	persistWorkers   int
	now              func() time.Time

	// State
	started bool
	builds  atomic.Int64
	lastRun atomic.Pointer[RunInfo]

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		metric:           config.MetricElo,
		maxRecords:       50_000,
		maxLimit:         100,
		persistQueueSize: 16,
		persistWorkers:   1,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the engine and, with a feature store configured, starts the
// persistence workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	stages := features.DefaultStages(
		rating.NewElo(s.eloOpts...),
		rating.NewGlicko(s.glickoOpts...),
		transitive.New(s.detectorOpts...),
	)
	asm, err := features.New(stages, features.WithParallelCategories(s.parallel))
	if err != nil {
		return fmt.Errorf("build assembler: %w", err)
	}
	s.assembler = asm
	s.leaderboard = repository.NewTreapStore()

	if s.store != nil {
		s.queue = queue.NewInMemoryQueue[worker.Job](queue.WithCapacity(s.persistQueueSize))
		s.pool = worker.NewPool(s.persistWorkers, s.queue, s.store, worker.WithLogger(s.logger.Named("persist")))
		// Workers outlive the request that started the service.
		s.pool.Start(context.WithoutCancel(ctx))
	}

	s.started = true
	s.logger.Info(ctx, "feature service started",
		logger.Int("columns", len(asm.Schema())),
		logger.Bool("parallel", s.parallel),
		logger.String("leaderboard_metric", s.metric),
		logger.Bool("persistence", s.store != nil),
	)
	return nil
}

// Stop drains pending persistence jobs and marks the service stopped.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	var err error
	if s.pool != nil {
		err = s.pool.Shutdown(ctx)
	}
	s.started = false
	s.logger.Info(ctx, "feature service stopped")
	return err
}

// Schema returns the feature column names.
func (s *Service) Schema() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.assembler == nil {
		return nil
	}
	return s.assembler.Schema()
}

// MaxRecords returns the per-build record cap.
func (s *Service) MaxRecords() int { return s.maxRecords }

// MaxLeaderboardLimit returns the TopN cap.
func (s *Service) MaxLeaderboardLimit() int { return s.maxLimit }

// Decode reads match records from r, logging fields that degraded to unknown.
func (s *Service) Decode(ctx context.Context, r io.Reader) ([]model.MatchRecord, ingest.Report, error) {
	recs, rep, err := ingest.Decode(ctx, r, ingest.WithMaxRecords(s.maxRecords))
	if errors.Is(err, ingest.ErrTooManyRecords) {
		return nil, rep, fmt.Errorf("%w: limit is %d", ErrTooManyRecords, s.maxRecords)
	}
	if err != nil {
		return nil, rep, err
	}
	if n := rep.UnknownTotal(); n > 0 {
		s.log().Warn(ctx, "unknown fields in input",
			logger.Int("count", n),
			logger.String("fields", strings.Join(rep.Fields(), ",")),
		)
	}
	return recs, rep, nil
}

// Build runs the engine over records, republishes the leaderboard from the
// final ratings and queues the run for persistence.
func (s *Service) Build(ctx context.Context, records []model.MatchRecord, source string) (*Build, error) {
	s.mu.RLock()
	started, asm, q := s.started, s.assembler, s.queue
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}
	if len(records) > s.maxRecords {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyRecords, len(records), s.maxRecords)
	}

	start := time.Now()
	res, err := asm.Run(ctx, records)
	if err != nil {
		metrics.RecordValidationError(validationReason(err))
		s.log().Warn(ctx, "feature build rejected", logger.Error(err))
		return nil, err
	}
	took := time.Since(start)
	s.recordRun(records, res, took)

	if err := s.leaderboard.ReplaceAll(ctx, s.ratings(res.Entities)); err != nil {
		return nil, fmt.Errorf("publish leaderboard: %w", err)
	}

	b := &Build{RunID: uuid.NewString(), Persist: PersistDisabled, Took: took, Result: res}
	at := s.now().UTC()
	if q != nil {
		job := worker.Job{
			Run:    featurestore.Run{ID: b.RunID, CreatedAt: at, Mode: res.Mode, Source: source},
			Result: res,
		}
		b.Persist = PersistDropped
		if q.Enqueue(ctx, job) {
			b.Persist = PersistQueued
		} else {
			s.log().Warn(ctx, "persistence queue full, run not stored", logger.String("run_id", b.RunID))
		}
	}

	s.builds.Add(1)
	s.lastRun.Store(&RunInfo{ID: b.RunID, At: at, Records: len(records), Entities: len(res.Entities), Mode: res.Mode})
	s.log().Info(ctx, "features built",
		logger.String("run_id", b.RunID),
		logger.Int("records", len(records)),
		logger.Int("entities", len(res.Entities)),
		logger.String("mode", res.Mode),
		logger.Duration("took", took),
		logger.String("persist", b.Persist),
	)
	return b, nil
}

func (s *Service) recordRun(records []model.MatchRecord, res *features.Result, took time.Duration) {
	for i := range records {
		metrics.RecordRecordProcessed()
		if records[i].Outcome.Decisive() {
			metrics.RecordRatingUpdate("elo")
			metrics.RecordRatingUpdate("glicko")
		} else {
			metrics.RecordRatingSkip("elo")
			metrics.RecordRatingSkip("glicko")
		}
	}
	metrics.RecordRowsEmitted(len(res.Rows))
	metrics.RecordRun(res.Mode, float64(took.Microseconds())/1000)
	metrics.UpdateEntitiesTracked(len(res.Entities))
}

func validationReason(err error) string {
	switch {
	case errors.Is(err, features.ErrOutOfOrder):
		return "out_of_order"
	case errors.Is(err, features.ErrDuplicateRecord):
		return "duplicate"
	case errors.Is(err, features.ErrInvalidRecord):
		return "invalid"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}

// ratings picks the configured leaderboard metric out of the summaries.
// Entities without a known rating are left off the board.
func (s *Service) ratings(sums []entity.Summary) []repository.Rating {
	out := make([]repository.Rating, 0, len(sums))
	for _, sum := range sums {
		v, dev := sum.Elo, types.Unknown()
		if strings.EqualFold(s.metric, config.MetricGlicko) {
			v, dev = sum.Glicko, sum.GlickoRD
		}
		x, ok := v.Float()
		if !ok {
			continue
		}
		out = append(out, repository.Rating{EntityID: sum.ID, Rating: x, Deviation: dev, Matches: sum.Matches})
	}
	return out
}

// TopN returns the top N leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.leaderboard.TopN(ctx, n)
}

// Rank returns the rank and rating of an entity.
func (s *Service) Rank(ctx context.Context, entityID string) (types.Entry, error) {
	if err := s.ready(); err != nil {
		return types.Entry{}, err
	}
	return s.leaderboard.Rank(ctx, entityID)
}

// Runs lists stored runs.
func (s *Service) Runs(ctx context.Context) ([]featurestore.Run, error) {
	if s.store == nil {
		return nil, ErrPersistenceDisabled
	}
	return s.store.Runs(ctx)
}

// Values returns one stored column of a run.
func (s *Service) Values(ctx context.Context, runID, column string) ([]featurestore.ColumnValue, error) {
	if s.store == nil {
		return nil, ErrPersistenceDisabled
	}
	return s.store.Values(ctx, runID, column)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":            s.started,
		"parallelCategories": s.parallel,
		"leaderboardMetric":  s.metric,
		"persistence":        s.store != nil,
		"builds":             s.builds.Load(),
	}

	if s.started {
		stats["columns"] = len(s.assembler.Schema())
		stats["rankedEntities"] = s.leaderboard.Count(ctx)
		if last := s.lastRun.Load(); last != nil {
			stats["lastRun"] = *last
		}
		if s.queue != nil {
			stats["persistQueueLength"] = s.queue.Len(ctx)
			stats["persistSaved"] = s.pool.Saved()
			stats["persistFailed"] = s.pool.Failed()
		}
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	metrics.UpdateSystem(mem.HeapAlloc, runtime.NumGoroutine())
	return stats
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.logger == nil {
		return logger.Nop()
	}
	return s.logger
}
