package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/zatekoja/articleforge/internal/domain/providers"
	"github.com/zatekoja/articleforge/internal/infrastructure/observability"
)

// DefaultHeartbeat is the idle interval between keep-alive events
const DefaultHeartbeat = 30 * time.Second

// SSEHandler handles Server-Sent Events for workflow stage transitions
type SSEHandler struct {
	eventBus  providers.RunEventBus
	heartbeat time.Duration
	clients   atomic.Int64
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.RunEventBus, heartbeat time.Duration) *SSEHandler {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return &SSEHandler{eventBus: eventBus, heartbeat: heartbeat}
}

// StreamRunEvents streams transitions for one slug, or every run when the
// slug is "all"
// GET /events/{slug}
func (h *SSEHandler) StreamRunEvents(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		respondWithError(w, http.StatusBadRequest, "slug is required")
		return
	}
	if slug == "all" {
		slug = ""
	}

	if h.eventBus == nil {
		respondWithError(w, http.StatusServiceUnavailable, "run events are not configured")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	logger := observability.LoggerFromContext(r.Context())

	// streams outlive the server write timeout
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		logger.Debug().Err(err).Msg("failed to clear write deadline")
	}

	events, err := h.eventBus.Subscribe(r.Context(), slug)
	if err != nil {
		logger.Error().Err(err).Str("slug", slug).Msg("failed to subscribe to run events")
		respondWithError(w, http.StatusBadGateway, "failed to subscribe to run events")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	h.clients.Add(1)
	defer h.clients.Add(-1)

	h.sendEvent(w, "connected", map[string]interface{}{
		"slug":      slug,
		"timestamp": time.Now().UTC(),
	})
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.Debug().Str("slug", slug).Msg("client disconnected from run stream")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now().UTC(),
			})
			flusher.Flush()
		case event, ok := <-events:
			if !ok {
				return
			}
			h.sendEvent(w, "stage", event)
			flusher.Flush()
		}
	}
}

// sendEvent sends an SSE event to the client
func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		observability.GetLogger().Error().Err(err).Msg("failed to marshal event data")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// GetClientCount returns the number of connected clients
func (h *SSEHandler) GetClientCount() int {
	return int(h.clients.Load())
}
