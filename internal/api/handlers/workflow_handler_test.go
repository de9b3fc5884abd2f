package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/articleforge/internal/api/handlers"
	"github.com/zatekoja/articleforge/internal/application/workflow"
	"github.com/zatekoja/articleforge/internal/domain/entities"
	apperrors "github.com/zatekoja/articleforge/pkg/errors"
)

type stubRunner struct {
	run       *entities.WorkflowRun
	err       error
	processed []string
	forced    bool
}

func (s *stubRunner) ProcessTerm(ctx context.Context, raw string, opts workflow.ProcessOptions) (*entities.WorkflowRun, error) {
	s.processed = append(s.processed, raw)
	s.forced = opts.Force
	return s.run, s.err
}

func (s *stubRunner) Status(ctx context.Context, slug string) (*entities.WorkflowRun, error) {
	if s.run == nil || s.run.Term.Slug != slug {
		return nil, apperrors.NewNotFoundError("no run recorded for " + slug)
	}
	return s.run, nil
}

func sampleRun(status entities.RunStatus) *entities.WorkflowRun {
	term, _ := entities.NewTerm("best running shoes")
	run := entities.NewWorkflowRun("wf-1", term, time.Now())
	run.Status = status
	return run
}

func TestWorkflowHandler_ProcessTerm_Success(t *testing.T) {
	runner := &stubRunner{run: sampleRun(entities.RunCompleted)}
	handler := handlers.NewWorkflowHandler(runner)

	req := httptest.NewRequest("POST", "/process", strings.NewReader(`{"keyword":"best running shoes","force":true}`))
	w := httptest.NewRecorder()

	handler.ProcessTerm(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"best running shoes"}, runner.processed)
	assert.True(t, runner.forced)

	var response struct {
		Success bool                 `json:"success"`
		Data    entities.WorkflowRun `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.True(t, response.Success)
	assert.Equal(t, "best-running-shoes", response.Data.Term.Slug)
	assert.Equal(t, entities.RunCompleted, response.Data.Status)
}

func TestWorkflowHandler_ProcessTerm_FailedRunIsNotSuccess(t *testing.T) {
	runner := &stubRunner{run: sampleRun(entities.RunFailed)}
	handler := handlers.NewWorkflowHandler(runner)

	req := httptest.NewRequest("POST", "/process", strings.NewReader(`{"keyword":"best running shoes"}`))
	w := httptest.NewRecorder()

	handler.ProcessTerm(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, false, response["success"])
	assert.NotNil(t, response["data"])
}

func TestWorkflowHandler_ProcessTerm_MissingKeyword(t *testing.T) {
	for name, body := range map[string]string{
		"empty body":    `{}`,
		"blank keyword": `{"keyword":"   "}`,
		"malformed":     `{"keyword":`,
	} {
		t.Run(name, func(t *testing.T) {
			runner := &stubRunner{}
			handler := handlers.NewWorkflowHandler(runner)
			req := httptest.NewRequest("POST", "/process", strings.NewReader(body))
			w := httptest.NewRecorder()

			handler.ProcessTerm(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, runner.processed)
		})
	}
}

func TestWorkflowHandler_ProcessTerm_ErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperrors.NewValidationError("term is empty after normalization"), http.StatusBadRequest},
		{apperrors.NewConflictError("batch in progress", "already_running"), http.StatusConflict},
		{apperrors.NewCancelledError("request cancelled", context.Canceled), http.StatusGatewayTimeout},
		{apperrors.NewConfigError("missing credential", nil), http.StatusServiceUnavailable},
		{apperrors.NewIOError("disk full", nil), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(string(apperrors.TypeOf(tc.err)), func(t *testing.T) {
			handler := handlers.NewWorkflowHandler(&stubRunner{err: tc.err})
			req := httptest.NewRequest("POST", "/process", strings.NewReader(`{"keyword":"x"}`))
			w := httptest.NewRecorder()

			handler.ProcessTerm(w, req)

			assert.Equal(t, tc.status, w.Code)
			var response map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.NotEmpty(t, response["error"])
		})
	}
}

func TestWorkflowHandler_GetStatus(t *testing.T) {
	handler := handlers.NewWorkflowHandler(&stubRunner{run: sampleRun(entities.RunRunning)})

	t.Run("known slug", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/status/best-running-shoes", nil)
		req.SetPathValue("slug", "best-running-shoes")
		w := httptest.NewRecorder()

		handler.GetStatus(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var run entities.WorkflowRun
		require.NoError(t, json.NewDecoder(w.Body).Decode(&run))
		assert.Equal(t, "wf-1", run.ID)
		assert.Len(t, run.Stages, len(entities.Stages))
	})

	t.Run("unknown slug", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/status/never-seen", nil)
		req.SetPathValue("slug", "never-seen")
		w := httptest.NewRecorder()

		handler.GetStatus(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHealthHandler(t *testing.T) {
	handler := handlers.NewHealthHandler("articleforge-api")
	w := httptest.NewRecorder()

	handler.Health(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "ok", response["status"])
	assert.Equal(t, "articleforge-api", response["service"])
	assert.NotEmpty(t, response["timestamp"])
}
