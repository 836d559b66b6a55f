// Package metrics provides Prometheus metrics for the podium leaderboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the podium service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Core Business Metrics
	registrations *prometheus.CounterVec
	submissions   *prometheus.CounterVec
	scoreAwarded  *prometheus.HistogramVec
	participants  prometheus.Gauge
	results       prometheus.Gauge

	// Critical section
	lockWait     *prometheus.HistogramVec
	lockHeld     *prometheus.HistogramVec
	lockTimeouts *prometheus.CounterVec

	// Store
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec

	// Accepted-key cache
	dedupeHits prometheus.Counter
	dedupeSize prometheus.Gauge

	// Telemetry side channel
	telemetryEnqueued  prometheus.Counter
	telemetryDropped   prometheus.Counter
	telemetrySent      prometheus.Counter
	telemetryFailed    prometheus.Counter
	telemetryQueueSize prometheus.Gauge
	telemetryLatency   prometheus.Histogram
	telemetryWorkers   prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System Performance Metrics
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
		namespace:        "podium",
		subsystem:        "leaderboard",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.registrations = auto.NewCounterVec(
		m.counterOpts("registrations_total", "Registration requests by outcome"),
		[]string{"outcome"},
	)
	m.submissions = auto.NewCounterVec(
		m.counterOpts("submissions_total", "Submission requests by outcome"),
		[]string{"outcome"},
	)
	m.scoreAwarded = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "score_awarded",
			Help:      "Scores awarded to accepted submissions per problem",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		},
		[]string{"problem"},
	)
	m.participants = auto.NewGauge(m.gaugeOpts("participants", "Registered participants"))
	m.results = auto.NewGauge(m.gaugeOpts("results", "Accepted submission results"))

	m.lockWait = auto.NewHistogramVec(
		m.histogramOpts("lock_wait_milliseconds", "Time spent waiting for the exclusive lock"),
		[]string{"scope"},
	)
	m.lockHeld = auto.NewHistogramVec(
		m.histogramOpts("lock_held_milliseconds", "Time the exclusive lock was held"),
		[]string{"scope"},
	)
	m.lockTimeouts = auto.NewCounterVec(
		m.counterOpts("lock_timeouts_total", "Lock acquisitions that exceeded the configured timeout"),
		[]string{"scope"},
	)

	m.storeLatency = auto.NewHistogramVec(
		m.histogramOpts("store_latency_milliseconds", "Snapshot load/save latency"),
		[]string{"collection", "op"},
	)
	m.storeErrors = auto.NewCounterVec(
		m.counterOpts("store_errors_total", "Snapshot load/save failures"),
		[]string{"collection", "op"},
	)

	m.dedupeHits = auto.NewCounter(m.counterOpts("dedupe_hits_total", "Re-submissions answered from the accepted-key cache"))
	m.dedupeSize = auto.NewGauge(m.gaugeOpts("dedupe_size", "Entries in the accepted-key cache"))

	m.telemetryEnqueued = auto.NewCounter(m.counterOpts("telemetry_enqueued_total", "Telemetry points accepted for delivery"))
	m.telemetryDropped = auto.NewCounter(m.counterOpts("telemetry_dropped_total", "Telemetry points dropped because the queue was full or closed"))
	m.telemetrySent = auto.NewCounter(m.counterOpts("telemetry_sent_total", "Telemetry points delivered"))
	m.telemetryFailed = auto.NewCounter(m.counterOpts("telemetry_failed_total", "Telemetry deliveries that failed"))
	m.telemetryQueueSize = auto.NewGauge(m.gaugeOpts("telemetry_queue_size", "Telemetry points waiting for delivery"))
	m.telemetryLatency = auto.NewHistogram(m.histogramOpts("telemetry_latency_milliseconds", "Telemetry delivery latency"))
	m.telemetryWorkers = auto.NewGauge(m.gaugeOpts("telemetry_workers", "Telemetry delivery workers"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Errors by type and severity"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint, method and type"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Allocated heap bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_milliseconds", "Average GC pause in milliseconds"))
}

// Business Metrics Functions.

// RecordRegistration counts a registration outcome.
func RecordRegistration(outcome string) {
	globalManager.registrations.WithLabelValues(outcome).Inc()
}

// RecordSubmission counts a submission outcome.
func RecordSubmission(outcome string) {
	globalManager.submissions.WithLabelValues(outcome).Inc()
}

// RecordScoreAwarded observes the score given for a problem.
func RecordScoreAwarded(problem string, score int) {
	globalManager.scoreAwarded.WithLabelValues(problem).Observe(float64(score))
}

// UpdateParticipants sets the participant gauge.
func UpdateParticipants(count int) {
	globalManager.participants.Set(float64(count))
}

// UpdateResults sets the accepted results gauge.
func UpdateResults(count int) {
	globalManager.results.Set(float64(count))
}

// Lock Metrics Functions.

// RecordLockWait observes how long an acquisition waited.
func RecordLockWait(scope string, latencyMs float64) {
	globalManager.lockWait.WithLabelValues(scope).Observe(latencyMs)
}

// RecordLockHeld observes how long a critical section ran.
func RecordLockHeld(scope string, latencyMs float64) {
	globalManager.lockHeld.WithLabelValues(scope).Observe(latencyMs)
}

// RecordLockTimeout counts an acquisition that timed out.
func RecordLockTimeout(scope string) {
	globalManager.lockTimeouts.WithLabelValues(scope).Inc()
}

// Store Metrics Functions.

// RecordStoreLatency observes a load or save.
func RecordStoreLatency(collection, op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(collection, op).Observe(latencyMs)
}

// RecordStoreError counts a failed load or save.
func RecordStoreError(collection, op string) {
	globalManager.storeErrors.WithLabelValues(collection, op).Inc()
}

// Dedupe Metrics Functions.

// RecordDedupeHit counts a re-submission answered without taking the lock.
func RecordDedupeHit() {
	globalManager.dedupeHits.Inc()
}

// UpdateDedupeSize sets the cache size gauge.
func UpdateDedupeSize(size int64) {
	globalManager.dedupeSize.Set(float64(size))
}

// Telemetry Metrics Functions.

// RecordTelemetryEnqueued counts a point accepted by the queue.
func RecordTelemetryEnqueued() {
	globalManager.telemetryEnqueued.Inc()
}

// RecordTelemetryDropped counts a point the queue refused.
func RecordTelemetryDropped() {
	globalManager.telemetryDropped.Inc()
}

// RecordTelemetrySent counts a delivered point.
func RecordTelemetrySent() {
	globalManager.telemetrySent.Inc()
}

// RecordTelemetryFailed counts a failed delivery.
func RecordTelemetryFailed() {
	globalManager.telemetryFailed.Inc()
}

// UpdateTelemetryQueueSize sets the queue depth gauge.
func UpdateTelemetryQueueSize(size int) {
	globalManager.telemetryQueueSize.Set(float64(size))
}

// RecordTelemetryLatency observes a delivery round trip.
func RecordTelemetryLatency(latencyMs float64) {
	globalManager.telemetryLatency.Observe(latencyMs)
}

// UpdateTelemetryWorkers sets the worker gauge.
func UpdateTelemetryWorkers(count int) {
	globalManager.telemetryWorkers.Set(float64(count))
}

// HTTP Metrics Functions.

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
