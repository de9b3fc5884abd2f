package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/zatekoja/articleforge/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/articleforge/pkg/errors"
)

// envelope is the success body shared by the workflow and content routes
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps the error taxonomy onto HTTP status codes
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		observability.LoggerFromContext(r.Context()).Error().
			Err(err).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	respondWithError(w, status, err.Error())
}

func statusForError(err error) int {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypeConflict:
		return http.StatusConflict
	case apperrors.ErrorTypePolicyViolation:
		return http.StatusUnprocessableEntity
	case apperrors.ErrorTypeUpstreamUnavailable:
		return http.StatusBadGateway
	case apperrors.ErrorTypeCancelled:
		return http.StatusGatewayTimeout
	case apperrors.ErrorTypeConfig:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
