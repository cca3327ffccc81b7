package testutils

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alchemorsel/mealplan/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertAppError asserts err is an AppError with code, and returns it
func AssertAppError(t *testing.T, err error, code errors.ErrorCode, msgAndArgs ...interface{}) *errors.AppError {
	t.Helper()
	require.Error(t, err, msgAndArgs...)
	appErr, ok := errors.As(err)
	require.True(t, ok, "expected an AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code, msgAndArgs...)
	return appErr
}

// AssertFieldError asserts err is a validation error naming field
func AssertFieldError(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err), "expected a validation error, got %v", err)

	fields := errors.FieldErrors(err)
	names := make([]string, len(fields))
	for i, fe := range fields {
		names[i] = fe.Field
	}
	assert.Contains(t, names, field)
}

// HTTPAssertions provides HTTP-specific assertion methods
type HTTPAssertions struct {
	t *testing.T
}

// NewHTTPAssertions creates a new HTTP assertions helper
func NewHTTPAssertions(t *testing.T) *HTTPAssertions {
	return &HTTPAssertions{t: t}
}

// JSONResponse asserts status and JSON content type, then decodes the body
func (ha *HTTPAssertions) JSONResponse(rec *httptest.ResponseRecorder, expectedCode int, target interface{}) {
	ha.t.Helper()
	require.Equal(ha.t, expectedCode, rec.Code, "body: %s", rec.Body.String())
	assert.True(ha.t, strings.Contains(rec.Header().Get("Content-Type"), "application/json"),
		"Response should have JSON content type, got: %s", rec.Header().Get("Content-Type"))
	if target != nil {
		require.NoError(ha.t, json.Unmarshal(rec.Body.Bytes(), target), "Response should be valid JSON")
	}
}

// ErrorResponse asserts the error envelope carries code
func (ha *HTTPAssertions) ErrorResponse(rec *httptest.ResponseRecorder, expectedCode int, code errors.ErrorCode) errors.ErrorDetails {
	ha.t.Helper()
	var body errors.ErrorResponse
	ha.JSONResponse(rec, expectedCode, &body)
	assert.Equal(ha.t, code, body.Error.Code)
	return body.Error
}

// SecurityHeaders asserts the API security headers are present
func (ha *HTTPAssertions) SecurityHeaders(rec *httptest.ResponseRecorder) {
	ha.t.Helper()
	assert.Equal(ha.t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(ha.t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(ha.t, rec.Header().Get("Content-Security-Policy"))
}
