package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP metrics shared across all handlers
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Auth and tenancy metrics
var (
	authFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Failed bearer token verifications by reason.",
		},
		[]string{"reason"},
	)

	refreshRotationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "refresh_rotations_total",
		Help: "Successful refresh token rotations.",
	})

	refreshReplaysTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "refresh_replays_total",
		Help: "Refresh attempts with an already-consumed token.",
	})

	devHeaderResolutionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tenant_dev_header_resolutions_total",
		Help: "Tenant scopes resolved from the X-Tenant-ID development header.",
	})
)

// Init registers all metrics with the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight,
		httpRequestsTotal,
		httpRequestDuration,
		authFailuresTotal,
		refreshRotationsTotal,
		refreshReplaysTotal,
		devHeaderResolutionsTotal,
	)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAuthFailure increments the auth failure counter for the given reason
func RecordAuthFailure(reason string) {
	authFailuresTotal.WithLabelValues(reason).Inc()
}

// RecordRefreshRotation increments the successful rotation counter
func RecordRefreshRotation() {
	refreshRotationsTotal.Inc()
}

// RecordRefreshReplay increments the replay detection counter
func RecordRefreshReplay() {
	refreshReplaysTotal.Inc()
}

// RecordDevHeaderResolution increments the dev header resolution counter
func RecordDevHeaderResolution() {
	devHeaderResolutionsTotal.Inc()
}

// Instrument wraps a handler with request count, latency and in-flight
// tracking. Path is taken from the chi route pattern when available so that
// /api/v1/listings/{id} does not explode label cardinality.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)
		path := routePattern(r)

		httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// routePattern returns the matched chi route pattern, or the raw path when
// the request never reached the router.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

// statusWriter captures the response code for instrumentation
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
