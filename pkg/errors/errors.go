// Package errors provides structured error handling for the application.
// Every failure surfaced by the core carries a stable code plus a field/message
// pair that callers can render verbatim.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents an error code
type ErrorCode string

const (
	// Caller-fixable errors
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeNotFound         ErrorCode = "NOT_FOUND"

	// A derived invariant did not hold (e.g. totalTime != prepTime + cookTime)
	CodeIntegrityViolation ErrorCode = "INTEGRITY_VIOLATION"

	// Retryable errors
	CodeTransient     ErrorCode = "TRANSIENT"
	CodeDatabaseError ErrorCode = "DATABASE_ERROR"

	CodeInternal ErrorCode = "INTERNAL_ERROR"
)

// AppError represents an application error with structured information
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Field      string                 `json:"field,omitempty"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// StatusCode returns the appropriate HTTP status code
func (e *AppError) StatusCode() int {
	switch e.Code {
	case CodeValidationFailed, CodeIntegrityViolation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeTransient, CodeDatabaseError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WithMetadata adds metadata to the error
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithCause adds a cause error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithField sets the field the error refers to
func (e *AppError) WithField(field string) *AppError {
	e.Field = field
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message, details string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Details:    details,
		StackTrace: getStackTrace(),
	}
}

// NewValidationError creates a validation error for a single field
func NewValidationError(field, message string) *AppError {
	return NewAppError(CodeValidationFailed, message, "").WithField(field)
}

// NewNotFoundError creates a not found error for a resource identified by id
func NewNotFoundError(resource, id string) *AppError {
	err := NewAppError(
		CodeNotFound,
		fmt.Sprintf("%s not found", resource),
		"",
	)
	if id != "" {
		err.Details = fmt.Sprintf("%s with ID %s does not exist", resource, id)
		err.WithMetadata("id", id)
	}
	return err.WithField(strings.ToLower(strings.ReplaceAll(resource, " ", "_")) + "_id")
}

// NewConflictError creates a conflict error
func NewConflictError(field, message string) *AppError {
	return NewAppError(CodeConflict, message, "").WithField(field)
}

// NewIntegrityViolation creates an error for a derived invariant that failed to hold
func NewIntegrityViolation(field, message string) *AppError {
	return NewAppError(CodeIntegrityViolation, message, "").WithField(field)
}

// NewTransientError creates an error for a temporarily unavailable dependency
func NewTransientError(service string, cause error) *AppError {
	return NewAppError(
		CodeTransient,
		fmt.Sprintf("%s is temporarily unavailable", service),
		"",
	).WithCause(cause)
}

// NewDatabaseError creates a database error
func NewDatabaseError(operation string, cause error) *AppError {
	return NewAppError(
		CodeDatabaseError,
		"Database operation failed",
		fmt.Sprintf("Failed to %s", operation),
	).WithCause(cause)
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *AppError {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return NewAppError(CodeInternal, message, "")
}

// fieldError is implemented by domain validation failures.
type fieldError interface {
	error
	FieldName() string
}

// Wrap converts err into an AppError. AppErrors pass through untouched, domain
// field errors become validation errors and anything else is internal.
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	var fe fieldError
	if stderrors.As(err, &fe) {
		return NewValidationError(fe.FieldName(), fe.Error()).WithCause(err)
	}

	return NewInternalError(message).WithCause(err)
}

// As returns the AppError in err's chain, if any
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is checks if an error is of a specific error code
func Is(err error, code ErrorCode) bool {
	if appErr, ok := As(err); ok {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeInternal
}

// IsRetryable reports whether the failure is eligible for retry with backoff
func IsRetryable(err error) bool {
	switch GetCode(err) {
	case CodeTransient, CodeDatabaseError:
		return true
	default:
		return false
	}
}

// IsValidation reports whether err is caller-fixable bad input. Integrity
// violations are treated as validation failures at the boundary.
func IsValidation(err error) bool {
	switch GetCode(err) {
	case CodeValidationFailed, CodeIntegrityViolation:
		return true
	default:
		return false
	}
}

// getStackTrace captures the current stack trace
func getStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var builder strings.Builder
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "pkg/errors") {
			builder.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return builder.String()
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	if len(v) == 1 {
		return v[0].Message
	}

	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Message)
	}

	return strings.Join(messages, "; ")
}

// NewValidationErrors creates a single validation AppError carrying every field failure
func NewValidationErrors(errs []ValidationError) *AppError {
	validationErrs := ValidationErrors(errs)

	appErr := NewAppError(
		CodeValidationFailed,
		"Validation failed",
		validationErrs.Error(),
	).WithMetadata("validation_errors", validationErrs)
	if len(errs) > 0 {
		appErr.Field = errs[0].Field
	}
	return appErr
}

// FieldErrors flattens err into field/message pairs suitable for display
func FieldErrors(err error) []ValidationError {
	if err == nil {
		return nil
	}
	appErr, ok := As(err)
	if !ok {
		return []ValidationError{{Message: err.Error()}}
	}
	if list, ok := appErr.Metadata["validation_errors"].(ValidationErrors); ok && len(list) > 0 {
		return list
	}
	return []ValidationError{{Field: appErr.Field, Message: appErr.Message}}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error ErrorDetails `json:"error"`
}

// ErrorDetails represents the error details in API responses
type ErrorDetails struct {
	Code      ErrorCode              `json:"code"`
	Field     string                 `json:"field,omitempty"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// ToErrorResponse converts an AppError to an API error response
func ToErrorResponse(err *AppError, requestID string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetails{
			Code:      err.Code,
			Field:     err.Field,
			Message:   err.Message,
			Details:   err.Details,
			Metadata:  err.Metadata,
			RequestID: requestID,
			Timestamp: fmt.Sprintf("%d", time.Now().Unix()),
		},
	}
}
