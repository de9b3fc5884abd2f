package handlers

import (
	"net/http"
	"time"
)

// HealthHandler reports liveness
type HealthHandler struct {
	service string
	now     func() time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service string) *HealthHandler {
	return &HealthHandler{service: service, now: time.Now}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"service":   h.service,
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}
