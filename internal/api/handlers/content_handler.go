package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
)

// ContentHandler exposes the artifact store over HTTP
type ContentHandler struct {
	store providers.ArtifactStore
}

// NewContentHandler creates a new content handler
func NewContentHandler(store providers.ArtifactStore) *ContentHandler {
	return &ContentHandler{store: store}
}

type contentResponse struct {
	Path     string                `json:"path"`
	Content  interface{}           `json:"content,omitempty"`
	Metadata entities.ArtifactMeta `json:"metadata"`
}

type putContentRequest struct {
	Content  json.RawMessage        `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// GetContent returns an artifact payload with its sidecar
// GET /content/{path...}
func (h *ContentHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	if path == "" {
		respondWithError(w, http.StatusBadRequest, "path is required")
		return
	}

	artifact, err := h.store.Get(r.Context(), path)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	var content interface{} = artifact.Text()
	if artifact.Meta.IsStructured() && json.Valid(artifact.Payload) {
		content = json.RawMessage(artifact.Payload)
	}

	respondWithJSON(w, http.StatusOK, envelope{
		Success: true,
		Data: contentResponse{
			Path:     artifact.Path,
			Content:  content,
			Metadata: artifact.Meta,
		},
	})
}

// PutContent stores an artifact. A string content is written verbatim; any
// other JSON value is stored as compact JSON.
// POST /content/{path...}
func (h *ContentHandler) PutContent(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	if path == "" {
		respondWithError(w, http.StatusBadRequest, "path is required")
		return
	}

	var req putContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Content) == 0 || bytes.Equal(req.Content, []byte("null")) {
		respondWithError(w, http.StatusBadRequest, "content is required")
		return
	}

	payload, mediaType, err := decodeContent(path, req.Content)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid content")
		return
	}

	meta := entities.ArtifactMeta{MediaType: mediaType, Extra: req.Metadata}
	if err := h.store.Put(r.Context(), path, payload, meta); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	stored, err := h.store.Get(r.Context(), path)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, envelope{
		Success: true,
		Data:    contentResponse{Path: stored.Path, Metadata: stored.Meta},
	})
}

func decodeContent(path string, raw json.RawMessage) ([]byte, string, error) {
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, "", err
		}
		return []byte(text), entities.MediaTypeForPath(path), nil
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), entities.MediaTypeJSON, nil
}
