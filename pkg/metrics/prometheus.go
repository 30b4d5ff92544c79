// Package metrics provides Prometheus metrics for the vouchd endorsement service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Core business metrics
	endorsementsRecorded  prometheus.Counter
	endorsementsDuplicate prometheus.Counter
	tagsCreated           *prometheus.CounterVec
	tagsActivated         prometheus.Counter
	tagsRejected          prometheus.Counter

	// Leaderboard maintenance metrics
	leaderboardUpdates   prometheus.Counter
	leaderboardEvictions prometheus.Counter
	leaderboardErrors    prometheus.Counter
	reconcileLatency     prometheus.Histogram

	// Document store metrics
	storeConflictRetries prometheus.Counter
	storeOpLatency       *prometheus.HistogramVec

	// Serializer metrics
	serializerDepth prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "vouchd",
		subsystem:        "endorse",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.endorsementsRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "endorsements_recorded_total",
		Help:      "Total number of endorsements recorded in the ledger",
	})

	m.endorsementsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "endorsements_duplicate_total",
		Help:      "Total number of duplicate endorsement attempts rejected by the ledger",
	})

	m.tagsCreated = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "tags_created_total",
			Help:      "Total number of tags created by initial status",
		},
		[]string{"status"},
	)

	m.tagsActivated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tags_activated_total",
		Help:      "Total number of pending tags accepted by their owner",
	})

	m.tagsRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tags_rejected_total",
		Help:      "Total number of pending tags rejected by their owner",
	})

	m.leaderboardUpdates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_updates_total",
		Help:      "Total number of leaderboard reconciliations applied",
	})

	m.leaderboardEvictions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_evictions_total",
		Help:      "Total number of minimum entries evicted from full leaderboards",
	})

	m.leaderboardErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_errors_total",
		Help:      "Total number of leaderboard reconciliation errors",
	})

	m.reconcileLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reconcile_latency_milliseconds",
		Help:      "Histogram of leaderboard reconciliation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeConflictRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_conflict_retries_total",
		Help:      "Total number of document store transaction conflicts retried internally",
	})

	m.storeOpLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "store_op_latency_milliseconds",
			Help:      "Document store operation latency in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"op"},
	)

	m.serializerDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "serializer_depth",
		Help:      "Current number of reconciliations waiting in the per-tag serializer",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "Current allocated heap memory in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Current number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_milliseconds",
		Help:      "Average garbage collection pause time in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// Package-level helpers recording on the global manager.

// RecordEndorsement increments the recorded endorsements counter.
func RecordEndorsement() {
	globalManager.endorsementsRecorded.Inc()
}

// RecordDuplicateEndorsement increments the duplicate endorsements counter.
func RecordDuplicateEndorsement() {
	globalManager.endorsementsDuplicate.Inc()
}

// RecordTagCreated increments the tag creation counter for the given status.
func RecordTagCreated(status string) {
	globalManager.tagsCreated.WithLabelValues(status).Inc()
}

// RecordTagActivated increments the tag activation counter.
func RecordTagActivated() {
	globalManager.tagsActivated.Inc()
}

// RecordTagRejected increments the tag rejection counter.
func RecordTagRejected() {
	globalManager.tagsRejected.Inc()
}

// RecordLeaderboardUpdate increments the leaderboard update counter.
func RecordLeaderboardUpdate() {
	globalManager.leaderboardUpdates.Inc()
}

// RecordLeaderboardEviction increments the leaderboard eviction counter.
func RecordLeaderboardEviction() {
	globalManager.leaderboardEvictions.Inc()
}

// RecordLeaderboardError increments the leaderboard error counter.
func RecordLeaderboardError() {
	globalManager.leaderboardErrors.Inc()
}

// RecordReconcileLatency records a reconciliation latency observation.
func RecordReconcileLatency(latencyMs float64) {
	globalManager.reconcileLatency.Observe(latencyMs)
}

// RecordStoreConflictRetry increments the store conflict retry counter.
func RecordStoreConflictRetry() {
	globalManager.storeConflictRetries.Inc()
}

// RecordStoreOpLatency records a document store operation latency observation.
func RecordStoreOpLatency(op string, latencyMs float64) {
	globalManager.storeOpLatency.WithLabelValues(op).Observe(latencyMs)
}

// UpdateSerializerDepth sets the serializer depth gauge.
func UpdateSerializerDepth(depth int) {
	globalManager.serializerDepth.Set(float64(depth))
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records an HTTP request duration observation.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// UpdateSystemMemoryUsage sets the allocated heap memory gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records a garbage collection pause observation.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by the service.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
