package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zatekoja/articleforge/internal/api/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestCORSMiddleware(t *testing.T) {
	t.Run("wildcard", func(t *testing.T) {
		handler := middleware.CORSMiddleware([]string{"*"})(okHandler())
		req := httptest.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "https://editor.example.com")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusTeapot, w.Code)
	})

	t.Run("explicit list", func(t *testing.T) {
		handler := middleware.CORSMiddleware([]string{"https://a.example.com"})(okHandler())

		req := httptest.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "https://a.example.com")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, "https://a.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Origin", w.Header().Get("Vary"))

		req = httptest.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "https://b.example.com")
		w = httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		handler := middleware.CORSMiddleware(nil)(okHandler())
		req := httptest.NewRequest("OPTIONS", "/process", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
	})
}

func TestLoggingAndObservabilityPassThrough(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("GET /status/{slug}", okHandler())
	handler := middleware.ObservabilityMiddleware(nil)(middleware.LoggingMiddleware(mux))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/status/trail-shoes", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
}
