package monitoring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alchemorsel/mealplan/internal/infrastructure/config"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMetricsCollector_Intake(t *testing.T) {
	m := NewMetricsCollector(zaptest.NewLogger(t))

	m.IntakeAttempt("valid", 20*time.Millisecond)
	m.IntakeAttempt("retrying", time.Second)
	m.IntakeAttempt("retrying", time.Second)
	m.IntakeResult(true)
	m.IntakeResult(false)
	m.RecipeDeleted(true)
	m.RatingRecalculated()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.intakeAttemptsTotal.WithLabelValues("retrying")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.intakeResultsTotal.WithLabelValues("persisted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.intakeResultsTotal.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recipesDeletedTotal.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ratingRecalculationTotal))
}

func TestMetricsCollector_HTTPMiddleware(t *testing.T) {
	m := NewMetricsCollector(zaptest.NewLogger(t))

	r := chi.NewRouter()
	r.Use(m.HTTPMiddleware)
	r.Get("/recipes/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/recipes/"+id, nil))
	}

	// requests are labelled by route pattern, not raw path
	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues(http.MethodGet, "/recipes/{id}", "404")))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "http_requests_total"))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}

func TestTracingProvider_Disabled(t *testing.T) {
	tp, err := NewTracingProvider(context.Background(), config.AppConfig{Name: "mealplan"}, config.TracingConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.NoError(t, tp.Shutdown(context.Background()))
	assert.Empty(t, TraceIDFromContext(context.Background()))
}
