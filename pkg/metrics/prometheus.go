// Package metrics provides Prometheus metrics for the prefight engine and service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the process.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Engine
	recordsProcessed   prometheus.Counter
	rowsEmitted        prometheus.Counter
	runs               *prometheus.CounterVec
	runDuration        prometheus.Histogram
	validationErrors   *prometheus.CounterVec
	unknownFields      *prometheus.CounterVec
	entitiesTracked    prometheus.Gauge
	ratingUpdates      *prometheus.CounterVec
	ratingUpdatesSkips *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Leaderboard
	leaderboardEntries      prometheus.Gauge
	leaderboardQueryLatency prometheus.Histogram

	// Feature store
	storeWrites       prometheus.Counter
	storeWriteLatency prometheus.Histogram

	// Persistence queue
	persistQueueSize    prometheus.Gauge
	persistQueueDropped prometheus.Counter
	persistJobs         *prometheus.CounterVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "prefight",
		subsystem:        "engine",
		histogramBuckets: []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		enabled:          true,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		Buckets: m.histogramBuckets, ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.recordsProcessed = auto.NewCounter(m.counterOpts("records_processed_total",
		"Match records folded into entity state"))
	m.rowsEmitted = auto.NewCounter(m.counterOpts("rows_emitted_total",
		"Feature rows emitted"))
	m.runs = auto.NewCounterVec(m.counterOpts("runs_total",
		"Completed assembler runs by execution mode"), []string{"mode"})
	m.runDuration = auto.NewHistogram(m.histogramOpts("run_duration_milliseconds",
		"Wall time of a full assembler run in milliseconds"))
	m.validationErrors = auto.NewCounterVec(m.counterOpts("validation_errors_total",
		"Input sequences rejected before processing, by reason"), []string{"reason"})
	m.unknownFields = auto.NewCounterVec(m.counterOpts("unknown_fields_total",
		"Record fields that arrived as unknown, by field"), []string{"field"})
	m.entitiesTracked = auto.NewGauge(m.gaugeOpts("entities_tracked",
		"Entities held in the state table after the last run"))
	m.ratingUpdates = auto.NewCounterVec(m.counterOpts("rating_updates_total",
		"Rating updates applied, by engine"), []string{"engine"})
	m.ratingUpdatesSkips = auto.NewCounterVec(m.counterOpts("rating_updates_skipped_total",
		"Rating updates skipped for non-decisive outcomes, by engine"), []string{"engine"})

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"HTTP requests by endpoint, method and status code"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds"), []string{"endpoint", "method", "status_code"})

	m.leaderboardEntries = auto.NewGauge(m.gaugeOpts("leaderboard_entries",
		"Entities currently ranked on the ratings leaderboard"))
	m.leaderboardQueryLatency = auto.NewHistogram(m.histogramOpts("leaderboard_query_latency_milliseconds",
		"Leaderboard read latency in milliseconds"))

	m.storeWrites = auto.NewCounter(m.counterOpts("store_runs_written_total",
		"Runs persisted to the feature store"))
	m.storeWriteLatency = auto.NewHistogram(m.histogramOpts("store_write_latency_milliseconds",
		"Feature store write latency in milliseconds"))

	m.persistQueueSize = auto.NewGauge(m.gaugeOpts("persist_queue_size",
		"Runs waiting to be written to the feature store"))
	m.persistQueueDropped = auto.NewCounter(m.counterOpts("persist_queue_dropped_total",
		"Runs not queued for persistence because the queue was full or closed"))
	m.persistJobs = auto.NewCounterVec(m.counterOpts("persist_jobs_total",
		"Persistence jobs finished, by status"), []string{"status"})

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_total",
		"Errors by component and type"), []string{"component", "type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes",
		"Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count",
		"Number of goroutines"))
}

// RecordRecordProcessed counts one record folded into state.
func (m *Manager) RecordRecordProcessed() {
	if m.enabled {
		m.recordsProcessed.Inc()
	}
}

// RecordRowsEmitted counts emitted feature rows.
func (m *Manager) RecordRowsEmitted(n int) {
	if m.enabled {
		m.rowsEmitted.Add(float64(n))
	}
}

// RecordRun records a completed run and its duration.
func (m *Manager) RecordRun(mode string, durationMs float64) {
	if m.enabled {
		m.runs.WithLabelValues(mode).Inc()
		m.runDuration.Observe(durationMs)
	}
}

// RecordValidationError counts a rejected input sequence.
func (m *Manager) RecordValidationError(reason string) {
	if m.enabled {
		m.validationErrors.WithLabelValues(reason).Inc()
	}
}

// RecordUnknownField counts a field that degraded to unknown.
func (m *Manager) RecordUnknownField(field string) {
	if m.enabled {
		m.unknownFields.WithLabelValues(field).Inc()
	}
}

// UpdateEntitiesTracked sets the entity table size.
func (m *Manager) UpdateEntitiesTracked(n int) {
	if m.enabled {
		m.entitiesTracked.Set(float64(n))
	}
}

// RecordRatingUpdate counts an applied rating update.
func (m *Manager) RecordRatingUpdate(engine string) {
	if m.enabled {
		m.ratingUpdates.WithLabelValues(engine).Inc()
	}
}

// RecordRatingSkip counts a skipped rating update.
func (m *Manager) RecordRatingSkip(engine string) {
	if m.enabled {
		m.ratingUpdatesSkips.WithLabelValues(engine).Inc()
	}
}

// RecordHTTPRequest counts one HTTP request.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if m.enabled {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// UpdateLeaderboardEntries sets the leaderboard size.
func (m *Manager) UpdateLeaderboardEntries(n int) {
	if m.enabled {
		m.leaderboardEntries.Set(float64(n))
	}
}

// RecordLeaderboardQueryLatency observes a leaderboard read.
func (m *Manager) RecordLeaderboardQueryLatency(ms float64) {
	if m.enabled {
		m.leaderboardQueryLatency.Observe(ms)
	}
}

// RecordStoreWrite records one persisted run.
func (m *Manager) RecordStoreWrite(ms float64) {
	if m.enabled {
		m.storeWrites.Inc()
		m.storeWriteLatency.Observe(ms)
	}
}

// UpdatePersistQueueSize sets the persistence queue length.
func (m *Manager) UpdatePersistQueueSize(n int) {
	if m.enabled {
		m.persistQueueSize.Set(float64(n))
	}
}

// RecordPersistDropped counts a run that could not be queued.
func (m *Manager) RecordPersistDropped() {
	if m.enabled {
		m.persistQueueDropped.Inc()
	}
}

// RecordPersistJob counts a finished persistence job.
func (m *Manager) RecordPersistJob(status string) {
	if m.enabled {
		m.persistJobs.WithLabelValues(status).Inc()
	}
}

// RecordError counts an error by component and type.
func (m *Manager) RecordError(component, errorType string) {
	if m.enabled {
		m.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// UpdateSystem sets the process memory and goroutine gauges.
func (m *Manager) UpdateSystem(memBytes uint64, goroutines int) {
	if m.enabled {
		m.systemMemoryUsage.Set(float64(memBytes))
		m.systemGoroutineCount.Set(float64(goroutines))
	}
}

// Package-level helpers delegate to the global manager.

func RecordRecordProcessed()                       { globalManager.RecordRecordProcessed() }
func RecordRowsEmitted(n int)                      { globalManager.RecordRowsEmitted(n) }
func RecordRun(mode string, durationMs float64)    { globalManager.RecordRun(mode, durationMs) }
func RecordValidationError(reason string)          { globalManager.RecordValidationError(reason) }
func RecordUnknownField(field string)              { globalManager.RecordUnknownField(field) }
func UpdateEntitiesTracked(n int)                  { globalManager.UpdateEntitiesTracked(n) }
func RecordRatingUpdate(engine string)             { globalManager.RecordRatingUpdate(engine) }
func RecordRatingSkip(engine string)               { globalManager.RecordRatingSkip(engine) }
func UpdateLeaderboardEntries(n int)               { globalManager.UpdateLeaderboardEntries(n) }
func RecordLeaderboardQueryLatency(ms float64)     { globalManager.RecordLeaderboardQueryLatency(ms) }
func RecordStoreWrite(ms float64)                  { globalManager.RecordStoreWrite(ms) }
func UpdatePersistQueueSize(n int)                 { globalManager.UpdatePersistQueueSize(n) }
func RecordPersistDropped()                        { globalManager.RecordPersistDropped() }
func RecordPersistJob(status string)               { globalManager.RecordPersistJob(status) }
func RecordError(component, errorType string)      { globalManager.RecordError(component, errorType) }
func UpdateSystem(memBytes uint64, goroutines int) { globalManager.UpdateSystem(memBytes, goroutines) }

// RecordHTTPRequest counts one HTTP request on the global manager.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
