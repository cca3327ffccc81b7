// Package monitoring provides prometheus metrics and OpenTelemetry tracing
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/alchemorsel/mealplan/internal/ports/outbound"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	registry *prometheus.Registry
	logger   *zap.Logger

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Intake metrics
	intakeAttemptsTotal   *prometheus.CounterVec
	intakeAttemptDuration *prometheus.HistogramVec
	intakeResultsTotal    *prometheus.CounterVec

	// Consistency metrics
	recipesDeletedTotal      *prometheus.CounterVec
	ratingRecalculationTotal prometheus.Counter
}

// NewMetricsCollector creates a collector backed by its own registry
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &MetricsCollector{
		registry: registry,
		logger:   logger.Named("metrics"),

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		intakeAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipe_intake_attempts_total",
				Help: "Generator attempts by the state they ended in",
			},
			[]string{"outcome"},
		),
		intakeAttemptDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recipe_intake_attempt_duration_seconds",
				Help:    "Duration of one generator attempt in seconds",
				Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"outcome"},
		),
		intakeResultsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipe_intake_results_total",
				Help: "Settled intake requests",
			},
			[]string{"status"},
		),

		recipesDeletedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipes_deleted_total",
				Help: "Recipes deleted through the usage guard",
			},
			[]string{"cascaded"},
		),
		ratingRecalculationTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "recipe_rating_recalculations_total",
				Help: "Rating aggregate recomputations",
			},
		),
	}
}

var _ outbound.MetricsRecorder = (*MetricsCollector)(nil)

// IntakeAttempt records one generator attempt
func (m *MetricsCollector) IntakeAttempt(outcome string, duration time.Duration) {
	m.intakeAttemptsTotal.WithLabelValues(outcome).Inc()
	m.intakeAttemptDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// IntakeResult records a settled intake request
func (m *MetricsCollector) IntakeResult(success bool) {
	status := "failed"
	if success {
		status = "persisted"
	}
	m.intakeResultsTotal.WithLabelValues(status).Inc()
}

// RecipeDeleted records a guarded deletion
func (m *MetricsCollector) RecipeDeleted(cascaded bool) {
	m.recipesDeletedTotal.WithLabelValues(strconv.FormatBool(cascaded)).Inc()
}

// RatingRecalculated records a rating recomputation
func (m *MetricsCollector) RatingRecalculated() {
	m.ratingRecalculationTotal.Inc()
}

// HTTPMiddleware records request counts and latency by route pattern
func (m *MetricsCollector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// Registry exposes the underlying registry
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
