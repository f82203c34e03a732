package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	generationDuration prometheus.Histogram
	generationTotal    *prometheus.CounterVec
	sessionsCreated    prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "grid_cache_hits_total",
		Help: "Total routine grid cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "grid_cache_misses_total",
		Help: "Total routine grid cache misses",
	})

	generationDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "routine_generation_duration_seconds",
		Help:    "Duration of routine regeneration runs",
		Buckets: prometheus.DefBuckets,
	})

	generationTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "routine_generations_total",
		Help: "Total routine regeneration attempts",
	}, []string{"outcome"})

	sessionsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "routine_sessions_created_total",
		Help: "Total class sessions written by regeneration",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheHits, cacheMisses, generationDuration, generationTotal, sessionsCreated, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		generationDuration: generationDuration,
		generationTotal:    generationTotal,
		sessionsCreated:    sessionsCreated,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one completed HTTP request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, code).Inc()
}

// ObserveCacheHit records a routine grid cache hit.
func (m *MetricsService) ObserveCacheHit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

// ObserveCacheMiss records a routine grid cache miss.
func (m *MetricsService) ObserveCacheMiss() {
	if m != nil {
		m.cacheMisses.Inc()
	}
}

// ObserveGeneration records one regeneration run. Outcome is one of
// "success", "conflict" or "error".
func (m *MetricsService) ObserveGeneration(outcome string, sessions int, duration time.Duration) {
	if m == nil {
		return
	}
	m.generationTotal.WithLabelValues(outcome).Inc()
	m.generationDuration.Observe(duration.Seconds())
	if sessions > 0 {
		m.sessionsCreated.Add(float64(sessions))
	}
}
