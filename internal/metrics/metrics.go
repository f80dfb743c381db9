// Package metrics exposes Prometheus instrumentation for the
// scheduler tick loop and the HTTP trigger surface, following the
// registry/middleware shape of the pack's metrics package.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	tickDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scheduler_tick_duration_seconds",
			Help:    "Duration of a scheduler tick.",
			Buckets: prometheus.DefBuckets,
		},
	)
	websitesProcessedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduler_websites_processed_total",
			Help: "Total number of websites that produced a generation attempt.",
		},
	)
	generationOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "article_generation_outcomes_total",
			Help: "Total article generation attempts by outcome.",
		},
		[]string{"outcome"}, // success | failed
	)
	providerCallDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_call_duration_seconds",
			Help:    "Duration of outbound LLM provider calls.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
)

var initOnce sync.Once
var registry *prometheus.Registry

// Init registers all metrics exactly once and returns the registry.
func Init() *prometheus.Registry {
	initOnce.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(httpRequestsTotal)
		registry.MustRegister(httpRequestDurationSeconds)
		registry.MustRegister(tickDurationSeconds)
		registry.MustRegister(websitesProcessedTotal)
		registry.MustRegister(generationOutcomesTotal)
		registry.MustRegister(providerCallDurationSeconds)

		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		log.Info().Msg("prometheus metrics initialized")
	})
	return registry
}

// Handler serves the metrics registry over HTTP.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// HTTPMiddleware records request count and latency by method, path,
// and status.
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(lw.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		httpRequestDurationSeconds.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// ObserveTick records the duration of one scheduler tick.
func ObserveTick(d time.Duration) {
	tickDurationSeconds.Observe(d.Seconds())
}

// IncWebsitesProcessed increments the count of websites that produced
// a generation attempt during a tick.
func IncWebsitesProcessed(n int) {
	websitesProcessedTotal.Add(float64(n))
}

// IncGenerationOutcome records one article-generation attempt's
// terminal outcome ("success" or "failed").
func IncGenerationOutcome(outcome string) {
	generationOutcomesTotal.WithLabelValues(outcome).Inc()
}

// ObserveProviderCall records the latency of one outbound LLM call.
func ObserveProviderCall(provider string, d time.Duration) {
	providerCallDurationSeconds.WithLabelValues(provider).Observe(d.Seconds())
}
