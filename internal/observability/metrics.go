package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestsActive  prometheus.Gauge

	// Fill pass metrics
	PassesTotal   *prometheus.CounterVec
	PassDuration  *prometheus.HistogramVec
	FieldsTotal   *prometheus.CounterVec
	FieldFailures *prometheus.CounterVec
	FieldsPerPass *prometheus.HistogramVec

	// Escalation metrics
	EscalationRequestsTotal *prometheus.CounterVec
	EscalationDuration      *prometheus.HistogramVec
	EscalationTokensUsed    *prometheus.CounterVec
	AnswerCacheHits         prometheus.Counter
	AnswerCacheMisses       prometheus.Counter
}

// NewMetrics creates a new metrics instance with all Prometheus metrics registered
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "applyforge"
	}

	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_active",
				Help:      "Number of active HTTP requests",
			},
		),

		// Fill pass metrics
		PassesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fill_passes_total",
				Help:      "Total number of fill passes by outcome",
			},
			[]string{"site", "outcome"}, // outcome: completed, redirect, error
		),
		PassDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fill_pass_duration_seconds",
				Help:      "Fill pass duration in seconds",
				Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
			},
			[]string{"site"},
		),
		FieldsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fields_processed_total",
				Help:      "Total number of fields processed by bucket and outcome",
			},
			[]string{"site", "bucket", "outcome"}, // outcome: filled, unmatched
		),
		FieldFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "field_failures_total",
				Help:      "Per-field failures by cause",
			},
			[]string{"site", "cause"},
		),
		FieldsPerPass: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fields_per_pass",
				Help:      "Number of fields collected per pass",
				Buckets:   []float64{1, 5, 10, 20, 35, 50, 75, 100},
			},
			[]string{"site"},
		),

		// Escalation metrics
		EscalationRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "escalation_requests_total",
				Help:      "Total number of escalation round trips",
			},
			[]string{"model", "status"},
		),
		EscalationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "escalation_request_duration_seconds",
				Help:      "Escalation round trip duration in seconds",
				Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"model"},
		),
		EscalationTokensUsed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "escalation_tokens_used_total",
				Help:      "Total number of tokens used",
			},
			[]string{"model", "type"}, // type: input, output
		),
		AnswerCacheHits: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "answer_cache_hits_total",
				Help:      "Total number of answer cache hits",
			},
		),
		AnswerCacheMisses: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "answer_cache_misses_total",
				Help:      "Total number of answer cache misses",
			},
		),
	}

	return m
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordPass records the outcome of one fill pass
func (m *Metrics) RecordPass(site, outcome string, fieldCount int, duration time.Duration) {
	m.PassesTotal.WithLabelValues(site, outcome).Inc()
	m.PassDuration.WithLabelValues(site).Observe(duration.Seconds())
	m.FieldsPerPass.WithLabelValues(site).Observe(float64(fieldCount))
}

// RecordField records one processed field
func (m *Metrics) RecordField(site, bucket, outcome string) {
	m.FieldsTotal.WithLabelValues(site, bucket, outcome).Inc()
}

// RecordFieldFailure records a per-field failure cause
func (m *Metrics) RecordFieldFailure(site, cause string) {
	m.FieldFailures.WithLabelValues(site, cause).Inc()
}

// RecordEscalation records one escalation round trip
func (m *Metrics) RecordEscalation(model, status string, duration time.Duration, inputTokens, outputTokens int) {
	m.EscalationRequestsTotal.WithLabelValues(model, status).Inc()
	m.EscalationDuration.WithLabelValues(model).Observe(duration.Seconds())
	m.EscalationTokensUsed.WithLabelValues(model, "input").Add(float64(inputTokens))
	m.EscalationTokensUsed.WithLabelValues(model, "output").Add(float64(outputTokens))
}

// HTTPMiddleware returns middleware for recording HTTP metrics
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.HTTPRequestsActive.Inc()
		defer m.HTTPRequestsActive.Dec()

		start := time.Now()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		m.RecordHTTPRequest(r.Method, r.URL.Path, wrapped.statusCode, duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Global metrics instance
var globalMetrics *Metrics

// InitMetrics initializes the global metrics instance
func InitMetrics(namespace string) *Metrics {
	globalMetrics = NewMetrics(namespace)
	return globalMetrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	if globalMetrics == nil {
		globalMetrics = NewMetrics("applyforge")
	}
	return globalMetrics
}
