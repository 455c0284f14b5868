package handlers

import (
	"net/http"

	"integration-gateway/internal/models"
)

// Liveness is the fixed liveness probe
// @Summary Liveness probe
// @Description Returns the literal string Success while the process is up
// @Tags system
// @Produce plain
// @Success 200 {string} string "Success"
// @Router /integration/v1/health [get]
func (h *Handlers) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Success"))
}

// HealthCheck returns the health status of the application
// @Summary Health check
// @Description Returns the health status of the cache store and the queue broker
// @Tags system
// @Produce json
// @Success 200 {object} models.HealthResponse "All dependencies healthy"
// @Failure 503 {object} models.HealthResponse "A dependency is unhealthy"
// @Router /health [get]
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := models.HealthResponse{Status: "healthy", Checks: make(map[string]string, len(h.checks))}

	for name, check := range h.checks {
		if err := check(r.Context()); err != nil {
			status.Status = "unhealthy"
			status.Checks[name] = "unhealthy: " + err.Error()
			continue
		}
		status.Checks[name] = "healthy"
	}

	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}
