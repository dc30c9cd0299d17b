// Package metrics exposes Prometheus instrumentation for the oracle client, the search
// engine and the HTTP server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "overyonder"

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.025, 0.1, 0.5, 1, 5, 15, 60, 300},
	}, []string{"method"})

	// Oracle metrics
	oracleCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "oracle",
		Name:      "calls_total",
		Help:      "Reverse-geocoding calls by outcome",
	}, []string{"outcome"})

	oracleLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "oracle",
		Name:      "call_duration_seconds",
		Help:      "Reverse-geocoding call latency including gate wait",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	OracleRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "oracle",
		Name:      "retries_total",
		Help:      "Reverse-geocoding retries after network or rate-limit failures",
	})

	// Search metrics
	searchOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "search",
		Name:      "outcomes_total",
		Help:      "Heading searches by terminal status",
	}, []string{"status"})

	searchAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "search",
		Name:      "attempts",
		Help:      "Distance steps taken per heading search",
		Buckets:   []float64{1, 2, 3, 5, 10, 20, 50},
	})
)

// ObserveOracleCall records one oracle call and its outcome label.
func ObserveOracleCall(d time.Duration, outcome string) {
	oracleCalls.WithLabelValues(outcome).Inc()
	oracleLatency.Observe(d.Seconds())
}

// ObserveSearch records a finished search.
func ObserveSearch(status string, attempts int) {
	searchOutcomes.WithLabelValues(status).Inc()
	searchAttempts.Observe(float64(attempts))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// statusRecorder captures the response status for labelling.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware records request count and latency.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		httpRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}
