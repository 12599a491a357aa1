// Package httpx renders the flat JSON error envelope shared by every handler:
// a machine code, a human message, the HTTP status, and the request and trace
// identifiers taken from the request context.
package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/wreath-atelier/api/internal/platform/requestctx"
)

// Error is one API error response.
type Error struct {
	Code    string
	Message string
	Status  int
	Details map[string]any
}

// WithDetails returns a copy of the error carrying extra top-level payload
// fields. Reserved envelope keys are never overridden.
func (e Error) WithDetails(details map[string]any) Error {
	e.Details = details
	return e
}

// NewError builds an error response. A zero status defaults to 500.
func NewError(code, message string, status int) Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Error{
		Code:    sanitize(code, 80),
		Message: sanitize(message, 512),
		Status:  status,
	}
}

// WriteError renders the error envelope. Request and trace identifiers are read
// from the context so every error carries its correlation keys.
func WriteError(ctx context.Context, w http.ResponseWriter, err Error) {
	status := err.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}

	payload := map[string]any{
		"error":   err.Code,
		"message": err.Message,
		"status":  status,
	}
	for key, value := range err.Details {
		switch key {
		case "error", "message", "status", "request_id", "trace_id":
			continue
		}
		payload[key] = value
	}
	if requestID := sanitize(middleware.GetReqID(ctx), 80); requestID != "" {
		payload["request_id"] = requestID
	}
	if traceID := sanitize(requestctx.TraceID(ctx), 64); traceID != "" {
		payload["trace_id"] = traceID
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// sanitize keeps header-derived values single-line and bounded before they are
// echoed back in a response body.
func sanitize(value string, limit int) string {
	if limit <= 0 {
		limit = 256
	}
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.TrimSpace(value)
	if len(value) > limit {
		value = value[:limit]
	}
	return value
}
