package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"integration-gateway/internal/common/errors"
	"integration-gateway/internal/models"
)

// maxRequestBodySize bounds the inbound request document
const maxRequestBodySize = 5 << 20

// CreateExternalCall executes or queues an outbound HTTP call
// @Summary Create external call
// @Description Executes the described HTTP call synchronously with cache-aside semantics, or queues it when operationType is FIRE_AND_FORGET and returns only the assigned id
// @Tags integration
// @Accept json
// @Produce json
// @Param request body models.IntegrationRequest true "Outbound call description"
// @Success 200 {object} models.ResponseEnvelope "Upstream response, cached response or queued id"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 502 {object} models.ErrorResponse "Upstream call failed"
// @Failure 503 {object} models.ErrorResponse "Queue unavailable"
// @Failure 500 {object} models.ErrorResponse "Internal error"
// @Router /integration/v1/create-external-call [post]
func (h *Handlers) CreateExternalCall(w http.ResponseWriter, r *http.Request) {
	var req models.IntegrationRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err := decoder.Decode(&req); err != nil {
		h.writeError(w, r, errors.ValidationError(fmt.Sprintf("invalid JSON body: %v", err)))
		return
	}

	env, err := h.dispatcher.Dispatch(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, env)
}
