package healthcheck

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type countingChecker struct {
	status Status
	calls  atomic.Int32
}

func (c *countingChecker) Check(ctx context.Context) Check {
	c.calls.Add(1)
	return Check{Status: c.status, LastChecked: time.Now()}
}

func TestHealthCheck_NoCheckers(t *testing.T) {
	hc := New("1.0.0", zaptest.NewLogger(t))

	response := hc.Check(context.Background())

	assert.Equal(t, StatusHealthy, response.Status)
	assert.Equal(t, "1.0.0", response.Version)
	assert.Empty(t, response.Checks)
}

func TestHealthCheck_CriticalFailureIsUnhealthy(t *testing.T) {
	hc := New("1.0.0", zaptest.NewLogger(t))
	hc.Register("database", FuncChecker(func(context.Context) error { return errors.New("down") }), true)
	hc.Register("cache", &countingChecker{status: StatusHealthy}, false)

	response := hc.Check(context.Background())

	assert.Equal(t, StatusUnhealthy, response.Status)
	require.Len(t, response.Checks, 2)
	for _, check := range response.Checks {
		if check.Name == "database" {
			assert.Equal(t, StatusUnhealthy, check.Status)
			assert.Equal(t, "down", check.Message)
			assert.True(t, check.Critical)
		}
	}
}

func TestHealthCheck_NonCriticalFailureDegrades(t *testing.T) {
	hc := New("1.0.0", zaptest.NewLogger(t))
	hc.Register("database", &countingChecker{status: StatusHealthy}, true)
	hc.Register("generator", FuncChecker(func(context.Context) error { return errors.New("unreachable") }), false)

	response := hc.Check(context.Background())

	assert.Equal(t, StatusDegraded, response.Status)
}

func TestHealthCheck_CachesWithinTTL(t *testing.T) {
	hc := New("1.0.0", zaptest.NewLogger(t))
	checker := &countingChecker{status: StatusHealthy}
	hc.Register("database", checker, true)

	hc.Check(context.Background())
	hc.Check(context.Background())
	assert.Equal(t, int32(1), checker.calls.Load())

	hc.SetCacheTTL(0)
	hc.Check(context.Background())
	assert.Equal(t, int32(2), checker.calls.Load())
}

func TestHandler_StatusCodes(t *testing.T) {
	hc := New("1.0.0", zaptest.NewLogger(t))
	hc.SetCacheTTL(0)

	rec := httptest.NewRecorder()
	hc.Handler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Contains(t, body, "total_duration_ms")

	hc.Register("database", FuncChecker(func(context.Context) error { return errors.New("down") }), true)
	rec = httptest.NewRecorder()
	hc.Handler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	hc.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	hc.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDatabaseChecker(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()
	check := NewDatabaseChecker(db).Check(context.Background())
	assert.Equal(t, StatusHealthy, check.Status)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	check = NewDatabaseChecker(db).Check(context.Background())
	assert.Equal(t, StatusUnhealthy, check.Status)
	assert.Contains(t, check.Message, "connection refused")

	assert.NoError(t, mock.ExpectationsWereMet())
}
