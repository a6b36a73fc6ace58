package api

import (
	"net/http"
	"time"

	"github.com/teshtvele/groups-management/internal/api/respond"
)

// HealthHandler reports the aggregated service health.
type HealthHandler struct {
	isHealthy  func() bool
	components func() map[string]bool
}

// NewHealthHandler creates a health handler backed by check. A nil check reports unhealthy.
func NewHealthHandler(check func() bool) *HealthHandler { return &HealthHandler{isHealthy: check} }

// WithComponents adds per-component state to the response body.
func (h *HealthHandler) WithComponents(f func() map[string]bool) *HealthHandler {
	h.components = f
	return h
}

// CheckHealth handles GET /api/health
// Always returns 200; body reports healthy/unhealthy. 500 indicates handler failure only.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	if h.isHealthy != nil && h.isHealthy() {
		status = "healthy"
	}
	resp := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if h.components != nil {
		resp["components"] = h.components()
	}
	respond.WriteJSON(w, http.StatusOK, resp)
}
