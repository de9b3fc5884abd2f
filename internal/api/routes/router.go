package routes

import (
	"net/http"

	"github.com/zatekoja/articleforge/internal/api/handlers"
	"github.com/zatekoja/articleforge/internal/api/middleware"
	"github.com/zatekoja/articleforge/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	workflowHandler *handlers.WorkflowHandler
	contentHandler  *handlers.ContentHandler
	healthHandler   *handlers.HealthHandler
	sseHandler      *handlers.SSEHandler

	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router. sseHandler may be nil when no run-event bus is configured.
func NewRouter(
	workflowHandler *handlers.WorkflowHandler,
	contentHandler *handlers.ContentHandler,
	healthHandler *handlers.HealthHandler,
	sseHandler *handlers.SSEHandler,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		workflowHandler: workflowHandler,
		contentHandler:  contentHandler,
		healthHandler:   healthHandler,
		sseHandler:      sseHandler,
		allowedOrigins:  allowedOrigins,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)

	// Workflow endpoints
	r.mux.HandleFunc("POST /process", r.workflowHandler.ProcessTerm)
	r.mux.HandleFunc("GET /status/{slug}", r.workflowHandler.GetStatus)

	// Artifact store endpoints
	r.mux.HandleFunc("GET /content/{path...}", r.contentHandler.GetContent)
	r.mux.HandleFunc("POST /content/{path...}", r.contentHandler.PutContent)

	// Stage transition stream
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /events/{slug}", r.sseHandler.StreamRunEvents)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// CORS wraps everything so headers are set even on preflight
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
