package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds all Prometheus metrics for the API
type Metrics struct {
	registry *prometheus.Registry

	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec

	// Conversion metrics
	conversionsTotal   *prometheus.CounterVec
	conversionDuration *prometheus.HistogramVec
	conversionBytes    *prometheus.HistogramVec
	warningsTotal      *prometheus.CounterVec

	// Library metrics
	libraryOperationsTotal *prometheus.CounterVec
	libraryRecordings      prometheus.Gauge

	// API key authentication metrics
	authRequestsTotal *prometheus.CounterVec
}

// NewMetrics creates the API metrics on a private registry, so several
// servers (or tests) can coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lmptool_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lmptool_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "lmptool_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),

		conversionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lmptool_conversions_total",
				Help: "Total number of recording conversions",
			},
			[]string{"direction", "status"},
		),

		conversionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lmptool_conversion_duration_seconds",
				Help:    "Recording conversion duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"direction"},
		),

		conversionBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lmptool_conversion_recording_bytes",
				Help:    "Size of converted recordings in bytes",
				Buckets: prometheus.ExponentialBuckets(64, 4, 10),
			},
			[]string{"direction"},
		),

		warningsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lmptool_decode_warnings_total",
				Help: "Total number of non-fatal decode warnings",
			},
			[]string{"kind"},
		),

		libraryOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lmptool_library_operations_total",
				Help: "Total number of library operations",
			},
			[]string{"operation", "status"},
		),

		libraryRecordings: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "lmptool_library_recordings",
				Help: "Number of recordings in the library",
			},
		),

		authRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lmptool_auth_requests_total",
				Help: "Total number of authentication requests",
			},
			[]string{"status"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for inspection
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	statusCodeStr := strconv.Itoa(statusCode)

	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCodeStr).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordConversion records a decode or encode
func (m *Metrics) RecordConversion(direction string, success bool, size int, duration time.Duration) {
	m.conversionsTotal.WithLabelValues(direction, status(success)).Inc()
	m.conversionDuration.WithLabelValues(direction).Observe(duration.Seconds())
	if success {
		m.conversionBytes.WithLabelValues(direction).Observe(float64(size))
	}
}

// RecordWarning counts a decode warning by kind
func (m *Metrics) RecordWarning(kind string) {
	m.warningsTotal.WithLabelValues(kind).Inc()
}

// RecordLibraryOperation records a library operation
func (m *Metrics) RecordLibraryOperation(operation string, success bool) {
	m.libraryOperationsTotal.WithLabelValues(operation, status(success)).Inc()
}

// SetLibraryRecordings updates the library size gauge
func (m *Metrics) SetLibraryRecordings(n int) {
	m.libraryRecordings.Set(float64(n))
}

// RecordAuthRequest records an authentication request
func (m *Metrics) RecordAuthRequest(success bool) {
	m.authRequestsTotal.WithLabelValues(status(success)).Inc()
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		handler(rw, r)

		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
}

// InstrumentAuthMiddleware instruments the authentication middleware
func (m *Metrics) InstrumentAuthMiddleware(next func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hasAPIKey := r.Header.Get("X-API-Key") != ""

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next(h).ServeHTTP(rw, r)

			if hasAPIKey {
				m.RecordAuthRequest(rw.statusCode != http.StatusUnauthorized)
			}
		})
	}
}

func status(success bool) string {
	if success {
		return statusSuccess
	}
	return statusError
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
