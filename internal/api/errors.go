// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/dlcat/internal/api/middleware"
	"github.com/ManuGH/dlcat/internal/bus"
	"github.com/ManuGH/dlcat/internal/catalog"
	"github.com/ManuGH/dlcat/internal/future"
	"github.com/ManuGH/dlcat/internal/log"
	"github.com/ManuGH/dlcat/internal/query"
	"github.com/ManuGH/dlcat/internal/registry"
	"github.com/ManuGH/dlcat/internal/resilience"
	"github.com/ManuGH/dlcat/internal/translator"
)

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"requestId,omitempty"`
	TraceID   string `json:"traceId,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// classify maps domain errors onto HTTP status codes and stable error codes.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, translator.ErrInvalidURI), errors.Is(err, translator.ErrPathOutsideRoot):
		return http.StatusBadRequest, "invalid_uri"
	case errors.Is(err, query.ErrUnsupportedField):
		return http.StatusBadRequest, "unsupported_field"
	case errors.Is(err, registry.ErrUnknownService):
		return http.StatusNotFound, "unknown_server"
	case errors.Is(err, catalog.ErrNoResource):
		return http.StatusNotFound, "no_resource"
	case errors.Is(err, translator.ErrUnsupportedType):
		return http.StatusUnprocessableEntity, "unsupported_type"
	case errors.Is(err, resilience.ErrCircuitOpen):
		return http.StatusServiceUnavailable, "bus_unavailable"
	case errors.Is(err, future.ErrTimeout):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, bus.ErrTransport):
		return http.StatusBadGateway, "bus_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError classifies err and writes the matching response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, kind := classify(err)
	if code >= http.StatusInternalServerError {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "api.error").
			Str(log.FieldPath, r.URL.Path).
			Int("status", code).
			Msg("request failed")
	}
	writeProblem(w, r, code, kind, err.Error())
}

// writeProblem writes an ErrorResponse with request and trace correlation.
func writeProblem(w http.ResponseWriter, r *http.Request, code int, kind, detail string) {
	traceID, _ := middleware.ExtractTraceContext(r)
	writeJSON(w, code, ErrorResponse{
		Error:     kind,
		Detail:    detail,
		RequestID: log.RequestIDFromContext(r.Context()),
		TraceID:   traceID,
	})
}

// writeBadRequest writes a 400 for malformed input.
func writeBadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	writeProblem(w, r, http.StatusBadRequest, "bad_request", detail)
}
