// Package metrics exposes Prometheus instrumentation for the model invoker,
// the generation orchestrator and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "flashforge"

// Collector records application metrics. It satisfies both
// generation.Observer and gemini.AttemptObserver.
type Collector struct {
	attempts           *prometheus.CounterVec
	backoffs           prometheus.Histogram
	generations        *prometheus.CounterVec
	cards              prometheus.Counter
	generationDuration *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
	httpInFlight prometheus.Gauge
}

// NewCollector registers all metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_attempts_total",
			Help:      "Model API attempts by outcome",
		}, []string{"outcome"}),

		backoffs: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_backoff_seconds",
			Help:      "Delay slept before retrying a model API call",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 8),
		}),

		generations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Flashcard generation calls by outcome",
		}, []string{"outcome"}),

		cards: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flashcards_generated_total",
			Help:      "Flashcards returned to callers",
		}),

		generationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "End-to-end duration of flashcard generation calls",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"outcome"}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests received",
		}, []string{"method", "route", "status"}),

		httpLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),

		httpInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "Current number of in-flight HTTP requests",
		}),
	}
}

// ObserveAttempt counts one model API attempt.
func (c *Collector) ObserveAttempt(outcome string) {
	c.attempts.WithLabelValues(outcome).Inc()
}

// ObserveBackoff records a retry delay.
func (c *Collector) ObserveBackoff(delay time.Duration) {
	c.backoffs.Observe(delay.Seconds())
}

// ObserveGeneration records one orchestrator call.
func (c *Collector) ObserveGeneration(outcome string, cards int, duration time.Duration) {
	c.generations.WithLabelValues(outcome).Inc()
	c.cards.Add(float64(cards))
	c.generationDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// Middleware records request metrics labelled by chi route pattern, which
// keeps label cardinality bounded.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		c.httpInFlight.Inc()
		defer c.httpInFlight.Dec()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}

		labels := prometheus.Labels{
			"method": r.Method,
			"route":  route,
			"status": strconv.Itoa(status),
		}
		c.httpRequests.With(labels).Inc()
		c.httpLatency.With(labels).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
