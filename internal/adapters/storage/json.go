package storage

import (
	"context"
	"encoding/json"

	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
	apperrors "github.com/zatekoja/articleforge/pkg/errors"
)

// PutJSON encodes v with stable indentation and stores it as JSON
func PutJSON(ctx context.Context, store providers.ArtifactStore, path string, v interface{}, meta entities.ArtifactMeta) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperrors.NewInternalError("failed to encode "+path, err)
	}
	data = append(data, '\n')
	meta.MediaType = entities.MediaTypeJSON
	return store.Put(ctx, path, data, meta)
}

// GetJSON loads path and decodes it into v
func GetJSON(ctx context.Context, store providers.ArtifactStore, path string, v interface{}) (*entities.Artifact, error) {
	artifact, err := store.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(artifact.Payload, v); err != nil {
		return nil, apperrors.NewValidationError("artifact " + path + " is not valid JSON: " + err.Error())
	}
	return artifact, nil
}

// PutText stores text with the given media type
func PutText(ctx context.Context, store providers.ArtifactStore, path, text, mediaType string, meta entities.ArtifactMeta) error {
	meta.MediaType = mediaType
	return store.Put(ctx, path, []byte(text), meta)
}
