// Package handlers exposes the integration gateway over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"integration-gateway/internal/common/errors"
	"integration-gateway/internal/common/logging"
	"integration-gateway/internal/models"
)

// Dispatcher routes a single integration request
type Dispatcher interface {
	Dispatch(ctx context.Context, req *models.IntegrationRequest) (*models.ResponseEnvelope, error)
}

// HealthCheck reports the state of one collaborator
type HealthCheck func(ctx context.Context) error

type Handlers struct {
	dispatcher Dispatcher
	checks     map[string]HealthCheck
	logger     logging.Logger
}

// New creates the HTTP handlers. checks are run by the JSON health endpoint,
// keyed by the name reported in the response.
func New(dispatcher Dispatcher, checks map[string]HealthCheck) *Handlers {
	if checks == nil {
		checks = map[string]HealthCheck{}
	}
	return &Handlers{
		dispatcher: dispatcher,
		checks:     checks,
		logger:     logging.Component("handlers"),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError renders err as an ErrorResponse with the status for its kind
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := models.ErrorResponse{
		Code:    errors.Kind(err),
		Message: err.Error(),
	}
	if appErr, ok := errors.As(err); ok {
		resp.Message = appErr.Message
		if appErr.Type == errors.ErrTypeExternalCall {
			resp.StatusCode = appErr.StatusCode
		}
	}

	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", err,
			logging.String("path", r.URL.Path),
			logging.String("code", resp.Code),
			logging.Int("status", status),
		)
	}
	writeJSON(w, status, resp)
}

// StatusFor maps an error kind to the HTTP status returned to callers
func StatusFor(err error) int {
	switch errors.GetType(err) {
	case errors.ErrTypeValidation:
		return http.StatusBadRequest
	case errors.ErrTypeExternalCall:
		return http.StatusBadGateway
	case errors.ErrTypeDispatch:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
