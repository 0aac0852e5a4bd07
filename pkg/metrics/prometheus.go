// Package metrics provides Prometheus metrics for the OpenRamp matching service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every metric the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Conversation
	chatTurns      *prometheus.CounterVec
	activeSessions prometheus.Gauge

	// Search
	searches      *prometheus.CounterVec
	searchRounds  prometheus.Histogram
	searchLatency prometheus.Histogram
	searchResults prometheus.Histogram

	// Metric resolution
	metricFetches      *prometheus.CounterVec
	metricFetchLatency prometheus.Histogram
	snapshotRepos      prometheus.Gauge

	// Rate limiting
	rateLimitRejections *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "openramp",
		subsystem:        "matcher",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) initializeMetrics() {
	m.chatTurns = m.counterVec("chat_turns_total", "Chat turns processed by resulting action", "action")
	m.activeSessions = m.gauge("sessions_active", "Number of stored conversation sessions")

	m.searches = m.counterVec("searches_total", "Searches completed by stop reason", "stop_reason")
	m.searchRounds = m.histogram("search_rounds", "Rounds consumed per search", []float64{1, 2, 3, 4, 5, 6, 8, 10, 15, 20})
	m.searchLatency = m.histogram("search_latency_milliseconds", "End-to-end search latency in milliseconds", m.histogramBuckets)
	m.searchResults = m.histogram("search_results", "Results returned per search", []float64{0, 1, 2, 5, 10, 20, 50, 100})

	m.metricFetches = m.counterVec("metric_fetches_total", "Repository metric lookups by outcome", "source", "outcome")
	m.metricFetchLatency = m.histogram("metric_fetch_latency_milliseconds", "Online metric fetch latency in milliseconds", m.histogramBuckets)
	m.snapshotRepos = m.gauge("snapshot_repositories", "Repositories held in the offline snapshot")

	m.rateLimitRejections = m.counterVec("rate_limit_rejections_total", "Token acquisitions that timed out", "capability")

	m.httpRequests = promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordChatTurn counts a processed chat turn.
func (m *Manager) RecordChatTurn(action string) {
	if m.enabled {
		m.chatTurns.WithLabelValues(action).Inc()
	}
}

// UpdateActiveSessions sets the stored session count.
func (m *Manager) UpdateActiveSessions(n int) {
	if m.enabled {
		m.activeSessions.Set(float64(n))
	}
}

// RecordSearch records one finished search.
func (m *Manager) RecordSearch(stopReason string, rounds, results int, latencyMs float64) {
	if !m.enabled {
		return
	}
	m.searches.WithLabelValues(stopReason).Inc()
	m.searchRounds.Observe(float64(rounds))
	m.searchResults.Observe(float64(results))
	m.searchLatency.Observe(latencyMs)
}

// RecordMetricFetch counts a metric lookup; outcome is ok, degraded or missing.
func (m *Manager) RecordMetricFetch(source, outcome string) {
	if m.enabled {
		m.metricFetches.WithLabelValues(source, outcome).Inc()
	}
}

// RecordMetricFetchLatency records an online fetch latency.
func (m *Manager) RecordMetricFetchLatency(latencyMs float64) {
	if m.enabled {
		m.metricFetchLatency.Observe(latencyMs)
	}
}

// UpdateSnapshotRepos sets the offline snapshot size.
func (m *Manager) UpdateSnapshotRepos(n int) {
	if m.enabled {
		m.snapshotRepos.Set(float64(n))
	}
}

// RecordRateLimitRejection counts a timed-out token acquisition.
func (m *Manager) RecordRateLimitRejection(capability string) {
	if m.enabled {
		m.rateLimitRejections.WithLabelValues(capability).Inc()
	}
}

// RecordHTTPRequest records an HTTP request.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError records a failed HTTP request.
func (m *Manager) RecordHTTPError(endpoint, method, errorType, severity string) {
	if !m.enabled {
		return
	}
	m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	m.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// UpdateSystem sets memory and goroutine gauges.
func (m *Manager) UpdateSystem(memBytes uint64, goroutines int) {
	if !m.enabled {
		return
	}
	m.systemMemoryUsage.Set(float64(memBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
}

// Package-level helpers that delegate to the global manager.

// RecordChatTurn counts a processed chat turn.
func RecordChatTurn(action string) { globalManager.RecordChatTurn(action) }

// UpdateActiveSessions sets the stored session count.
func UpdateActiveSessions(n int) { globalManager.UpdateActiveSessions(n) }

// RecordSearch records one finished search.
func RecordSearch(stopReason string, rounds, results int, latencyMs float64) {
	globalManager.RecordSearch(stopReason, rounds, results, latencyMs)
}

// RecordMetricFetch counts a metric lookup.
func RecordMetricFetch(source, outcome string) { globalManager.RecordMetricFetch(source, outcome) }

// RecordMetricFetchLatency records an online fetch latency.
func RecordMetricFetchLatency(latencyMs float64) { globalManager.RecordMetricFetchLatency(latencyMs) }

// UpdateSnapshotRepos sets the offline snapshot size.
func UpdateSnapshotRepos(n int) { globalManager.UpdateSnapshotRepos(n) }

// RecordRateLimitRejection counts a timed-out token acquisition.
func RecordRateLimitRejection(capability string) { globalManager.RecordRateLimitRejection(capability) }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordHTTPError records a failed HTTP request.
func RecordHTTPError(endpoint, method, errorType, severity string) {
	globalManager.RecordHTTPError(endpoint, method, errorType, severity)
}

// UpdateSystem sets memory and goroutine gauges.
func UpdateSystem(memBytes uint64, goroutines int) { globalManager.UpdateSystem(memBytes, goroutines) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
