package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "navgate_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "navgate_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method"},
	)

	accessDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "navgate_access_decisions_total",
			Help: "Path access decisions by permission kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	permissionBuilds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "navgate_permission_map_builds_total",
			Help: "Number of times the permission maps were built",
		},
	)

	catalogReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "navgate_catalog_reloads_total",
			Help: "Catalog reload attempts by result",
		},
		[]string{"result"},
	)
)

// RecordDecision counts one access decision.
func RecordDecision(kind string, allowed bool) {
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	accessDecisions.WithLabelValues(kind, outcome).Inc()
}

// RecordPermissionBuild counts one permission map build.
func RecordPermissionBuild() {
	permissionBuilds.Inc()
}

// RecordCatalogReload counts a reload attempt.
func RecordCatalogReload(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	catalogReloads.WithLabelValues(result).Inc()
}

// Handler exposes the registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		httpRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
