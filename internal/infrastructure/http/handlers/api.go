// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/alchemorsel/mealplan/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/mealplan/internal/ports/inbound"
	"github.com/alchemorsel/mealplan/pkg/errors"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// responder is embedded by every handler group
type responder struct {
	logger *zap.Logger
}

func (h responder) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

func (h responder) ok(w http.ResponseWriter, status int, data interface{}, message string) {
	h.writeJSON(w, status, APIResponse{Success: true, Data: data, Message: message})
}

// writeError renders err as the error envelope. Unclassified errors become
// internal errors and are logged.
func (h responder) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := errors.Wrap(err, "request failed")
	if appErr.StatusCode() >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.String("code", string(appErr.Code)),
			zap.Error(err),
		)
	}
	h.writeJSON(w, appErr.StatusCode(), errors.ToErrorResponse(appErr, chimiddleware.GetReqID(r.Context())))
}

// errorStatus maps err onto its HTTP status
func errorStatus(err error) int {
	return errors.Wrap(err, "request failed").StatusCode()
}

// decode reads a JSON body into dst
func decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return errors.NewValidationError("body", "request body is required")
		}
		return errors.NewValidationError("body", "request body is not valid JSON").WithCause(err)
	}
	return nil
}

// uuidParam parses a UUID route parameter
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.NewValidationError(name, "must be a valid UUID")
	}
	return id, nil
}

// callerID returns the identified caller or a validation error
func callerID(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.UserID(r.Context())
	if !ok {
		return uuid.Nil, errors.NewValidationError("user_id", "the "+middleware.UserIDHeader+" header is required")
	}
	return id, nil
}

func pagination(r *http.Request) (inbound.PaginationParams, error) {
	limit, err := intQuery(r, "limit")
	if err != nil {
		return inbound.PaginationParams{}, err
	}
	offset, err := intQuery(r, "offset")
	if err != nil {
		return inbound.PaginationParams{}, err
	}
	return inbound.PaginationParams{Limit: limit, Offset: offset}, nil
}

func intQuery(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewValidationError(name, "must be an integer")
	}
	return n, nil
}

func boolQuery(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errors.NewValidationError(name, "must be true or false")
	}
	return &b, nil
}

func listQuery(r *http.Request, name string) []string {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
