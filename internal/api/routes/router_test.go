package routes_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/articleforge/internal/adapters/storage"
	"github.com/zatekoja/articleforge/internal/api/handlers"
	"github.com/zatekoja/articleforge/internal/api/routes"
	"github.com/zatekoja/articleforge/internal/application/workflow"
	"github.com/zatekoja/articleforge/internal/domain/entities"
	apperrors "github.com/zatekoja/articleforge/pkg/errors"
)

type notFoundRunner struct{}

func (notFoundRunner) ProcessTerm(ctx context.Context, raw string, opts workflow.ProcessOptions) (*entities.WorkflowRun, error) {
	return nil, apperrors.NewValidationError("unused")
}

func (notFoundRunner) Status(ctx context.Context, slug string) (*entities.WorkflowRun, error) {
	return nil, apperrors.NewNotFoundError("no run recorded for " + slug)
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)

	router := routes.NewRouter(
		handlers.NewWorkflowHandler(notFoundRunner{}),
		handlers.NewContentHandler(store),
		handlers.NewHealthHandler("articleforge"),
		nil,
		[]string{"*"},
		nil,
	)
	server := httptest.NewServer(router.SetupRoutes())
	t.Cleanup(server.Close)
	return server
}

func TestRouter_Routes(t *testing.T) {
	server := newServer(t)

	cases := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{"GET", "/health", "", http.StatusOK},
		{"GET", "/status/unknown-term", "", http.StatusNotFound},
		{"POST", "/process", `{}`, http.StatusBadRequest},
		{"GET", "/content/unknown-term/article.md", "", http.StatusNotFound},
		{"POST", "/content/manual/nested/notes.md", `{"content":"hello"}`, http.StatusCreated},
		{"GET", "/content/manual/nested/notes.md", "", http.StatusOK},
		{"GET", "/events/unknown-term", "", http.StatusNotFound},
		{"DELETE", "/process", "", http.StatusMethodNotAllowed},
	}

	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, server.URL+tc.path, strings.NewReader(tc.body))
			require.NoError(t, err)
			resp, err := server.Client().Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
