// Package worker persists finished feature runs in the background.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/prefight/internal/adapters/storage/featurestore"
	"github.com/okian/prefight/internal/domain/features"
	"github.com/okian/prefight/pkg/logger"
	"github.com/okian/prefight/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount  = 1
	poolShutdownTimeout = 30 * time.Second
)

// Job is one run waiting to be written.
type Job struct {
	Run    featurestore.Run
	Result *features.Result
}

// Persister writes a run.
type Persister interface {
	SaveRun(ctx context.Context, run featurestore.Run, res *features.Result) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker drains jobs until the queue closes.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue is drained.
	Run(ctx context.Context)

	// Shutdown waits for the worker to finish.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	persister Persister
	name      string
	stats     *counters

	done chan struct{}

	logger logger.Logger
}

type counters struct {
	saved  atomic.Int64
	failed atomic.Int64
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, persister Persister, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		persister: persister,
		name:      "worker",
		stats:     &counters{},
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop. Jobs still queued when the queue closes are
// written before Run returns.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "persist run failed", logger.Error(err))
			}
		}
	}
}

// Shutdown waits for the worker loop to exit.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job Job) error {
	start := time.Now()
	if err := w.persister.SaveRun(ctx, job.Run, job.Result); err != nil {
		w.stats.failed.Add(1)
		metrics.RecordPersistJob("failed")
		metrics.RecordError("worker", "persist_failed")
		return fmt.Errorf("run %s: %w", job.Run.ID, err)
	}
	w.stats.saved.Add(1)
	metrics.RecordPersistJob("ok")
	w.logger.Debug(ctx, "run persisted",
		logger.String("run_id", job.Run.ID),
		logger.Int("rows", len(job.Result.Rows)),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	stats   *counters

	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, persister Persister, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		stats:   &counters{},
	}
	for i := range pool.workers {
		wopts := append([]Option{WithName("persist-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(queue, persister, wopts...)
		w.stats = pool.stats
		pool.workers[i] = w
	}
	pool.logger = pool.workers[0].logger
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Saved returns how many runs were written.
func (p *Pool) Saved() int64 { return p.stats.saved.Load() }

// Failed returns how many runs could not be written.
func (p *Pool) Failed() int64 { return p.stats.failed.Load() }

// Shutdown closes the queue, lets the workers drain it, and waits for them.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var firstErr error
	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
