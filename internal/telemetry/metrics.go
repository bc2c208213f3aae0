package telemetry

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	httpDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// CacheLookups counts flag cache reads by result: hit, miss, corrupt, error.
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flag_cache_lookups_total",
			Help: "Flag cache lookups by result",
		},
		[]string{"result"},
	)
	// CacheWriteFailures counts best-effort cache writes that failed.
	CacheWriteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flag_cache_write_failures_total",
		Help: "Failed flag cache writes",
	})
	// StoreReads counts durable store reads by result: found, not_found, error.
	StoreReads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flag_store_reads_total",
			Help: "Durable flag store reads by result",
		},
		[]string{"result"},
	)
	// Evaluations counts evaluation outcomes.
	Evaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flag_evaluations_total",
			Help: "Flag evaluations by outcome",
		},
		[]string{"enabled"},
	)

	registerOnce sync.Once
)

// Cache lookup and store read result labels.
const (
	ResultHit      = "hit"
	ResultMiss     = "miss"
	ResultCorrupt  = "corrupt"
	ResultError    = "error"
	ResultFound    = "found"
	ResultNotFound = "not_found"
)

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpReqs, httpDur, CacheLookups, CacheWriteFailures, StoreReads, Evaluations)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)

		// chi fills the route pattern while routing, so read it afterwards
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}

		httpReqs.WithLabelValues(route, r.Method, http.StatusText(ww.status)).Inc()
		httpDur.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
