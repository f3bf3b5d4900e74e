package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metric collectors / Contient tous les collecteurs de métriques Prometheus
type Metrics struct {
	// Deliverable metrics
	DeliverableOps      *prometheus.CounterVec   // Repository operations by operation and status
	RepositoryDuration  *prometheus.HistogramVec // Backend round-trip latency by operation
	ValidationFailures  *prometheus.CounterVec   // Rejected submissions by failing field
	DeleteConfirmations *prometheus.CounterVec   // Two-step delete progress by stage (armed/confirmed/cancelled)

	// Cache metrics
	CacheLookups       *prometheus.CounterVec // List cache lookups by result (hit/miss)
	CacheInvalidations *prometheus.CounterVec // List cache invalidations by reason (write/manual)

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec   // Total HTTP requests by method, path, status
	HTTPRequestDuration *prometheus.HistogramVec // HTTP request latency in seconds
	ActiveConnections   prometheus.Gauge         // Current number of active HTTP connections

	// Security metrics
	RateLimitHits *prometheus.CounterVec // Rate limit rejections by scope
	CSRFFailures  prometheus.Counter     // CSRF validation failures

	// System metrics
	ActiveSessions      prometheus.Gauge // Browser sessions currently held
	DatabaseConnections prometheus.Gauge // Current database connection pool size
}

// NewMetrics initializes Metrics instance / Initialise une instance Metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{
		DeliverableOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deliverables_operations_total",
				Help: "Total number of deliverable repository operations by operation and status",
			},
			[]string{"operation", "status"},
		),

		RepositoryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "deliverables_repository_duration_seconds",
				Help: "Backend round-trip latency in seconds by operation",
				// remote service calls: 5ms to 10s
				Buckets: []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),

		ValidationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deliverables_validation_failures_total",
				Help: "Total number of validation messages by field",
			},
			[]string{"field"},
		),

		DeleteConfirmations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deliverables_delete_confirmations_total",
				Help: "Two-step delete events by stage (armed, confirmed, cancelled)",
			},
			[]string{"stage"},
		),

		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deliverables_cache_lookups_total",
				Help: "List cache lookups by result (hit, miss)",
			},
			[]string{"result"},
		),

		CacheInvalidations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deliverables_cache_invalidations_total",
				Help: "List cache invalidations by reason (write, manual)",
			},
			[]string{"reason"},
		),

		// HTTP metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status code",
			},
			[]string{"method", "path", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		ActiveConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_active_connections",
				Help: "Current number of active HTTP connections",
			},
		),

		// Security metrics
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "security_rate_limit_hits_total",
				Help: "Rate limit rejections by limiter scope (global, writes)",
			},
			[]string{"scope"},
		),

		CSRFFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "security_csrf_failures_total",
				Help: "Total number of CSRF validation failures",
			},
		),

		// System metrics
		ActiveSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ui_active_sessions",
				Help: "Current number of browser sessions held in memory",
			},
		),

		DatabaseConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "database_connections_active",
				Help: "Current number of active database connections",
			},
		),
	}

	return m
}

// RecordOperation records one repository operation and its latency.
// Status is "success" or "failure".
func (m *Metrics) RecordOperation(operation, status string, duration time.Duration) {
	m.DeliverableOps.WithLabelValues(operation, status).Inc()
	m.RepositoryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordValidationFailure counts a rejected field / Compte un champ rejeté
func (m *Metrics) RecordValidationFailure(field string) {
	m.ValidationFailures.WithLabelValues(field).Inc()
}

// RecordDeleteStage records a two-step delete transition.
func (m *Metrics) RecordDeleteStage(stage string) {
	m.DeleteConfirmations.WithLabelValues(stage).Inc()
}

// RecordCacheLookup records a list cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// RecordCacheInvalidation records why the list cache was dropped.
func (m *Metrics) RecordCacheInvalidation(reason string) {
	m.CacheInvalidations.WithLabelValues(reason).Inc()
}

// RecordHTTPRequest records an HTTP request with method, path, and status code.
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCodeToString(statusCode)).Inc()
}

// RecordHTTPDuration records the duration of an HTTP request.
func (m *Metrics) RecordHTTPDuration(method, path string, duration time.Duration) {
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IncrementActiveConnections increments the active connections gauge.
func (m *Metrics) IncrementActiveConnections() {
	m.ActiveConnections.Inc()
}

// DecrementActiveConnections decrements the active connections gauge.
func (m *Metrics) DecrementActiveConnections() {
	m.ActiveConnections.Dec()
}

// RecordRateLimitHit counts a request rejected by the scope limiter.
func (m *Metrics) RecordRateLimitHit(scope string) {
	m.RateLimitHits.WithLabelValues(scope).Inc()
}

// RecordCSRFFailure increments the CSRF failure counter.
func (m *Metrics) RecordCSRFFailure() {
	m.CSRFFailures.Inc()
}

// SetActiveSessions sets the session gauge.
func (m *Metrics) SetActiveSessions(count int) {
	m.ActiveSessions.Set(float64(count))
}

// UpdateDatabaseConnections updates the database connections gauge.
func (m *Metrics) UpdateDatabaseConnections(count int) {
	m.DatabaseConnections.Set(float64(count))
}

// statusCodeToString keeps label cardinality low / Limite la cardinalité des labels
func statusCodeToString(code int) string {
	switch code {
	case 200, 201, 204, 303, 400, 403, 404, 409, 422, 429, 500, 502, 503:
		return strconv.Itoa(code)
	}
	if code >= 100 && code < 600 {
		return strconv.Itoa(code/100) + "xx"
	}
	return "unknown"
}
