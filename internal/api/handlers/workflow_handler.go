package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/zatekoja/articleforge/internal/application/workflow"
	"github.com/zatekoja/articleforge/internal/domain/entities"
)

// WorkflowRunner is the slice of the engine the HTTP surface drives
type WorkflowRunner interface {
	ProcessTerm(ctx context.Context, raw string, opts workflow.ProcessOptions) (*entities.WorkflowRun, error)
	Status(ctx context.Context, slug string) (*entities.WorkflowRun, error)
}

// WorkflowHandler handles term processing and run status requests
type WorkflowHandler struct {
	runner WorkflowRunner
}

// NewWorkflowHandler creates a new workflow handler
func NewWorkflowHandler(runner WorkflowRunner) *WorkflowHandler {
	return &WorkflowHandler{runner: runner}
}

type processRequest struct {
	Keyword string `json:"keyword"`
	Force   bool   `json:"force,omitempty"`
}

// ProcessTerm runs one term to a terminal state on the request context
// POST /process
func (h *WorkflowHandler) ProcessTerm(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Keyword) == "" {
		respondWithError(w, http.StatusBadRequest, "keyword is required")
		return
	}

	run, err := h.runner.ProcessTerm(r.Context(), req.Keyword, workflow.ProcessOptions{Force: req.Force})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, envelope{
		Success: run.Status == entities.RunCompleted,
		Data:    run,
	})
}

// GetStatus returns the checkpointed run document for a slug
// GET /status/{slug}
func (h *WorkflowHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		respondWithError(w, http.StatusBadRequest, "slug is required")
		return
	}

	run, err := h.runner.Status(r.Context(), slug)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, run)
}
