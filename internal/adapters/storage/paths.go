package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strings"
	"time"

	"github.com/zatekoja/articleforge/internal/domain/entities"
	apperrors "github.com/zatekoja/articleforge/pkg/errors"
)

const (
	sidecarSuffix = ".meta"
	tempMarker    = ".tmp-"
)

// ValidatePath rejects paths that are empty, absolute, contain parent
// segments, backslashes or NUL bytes, or name a sidecar directly.
func ValidatePath(p string) error {
	if strings.TrimSpace(p) == "" {
		return apperrors.NewValidationError("artifact path is empty")
	}
	if strings.ContainsRune(p, 0) || strings.Contains(p, "\\") {
		return apperrors.NewValidationError("artifact path contains forbidden characters: " + p)
	}
	if strings.HasPrefix(p, "/") {
		return apperrors.NewValidationError("artifact path must be relative: " + p)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return apperrors.NewValidationError("artifact path escapes the root: " + p)
		}
	}
	if strings.HasSuffix(p, sidecarSuffix) {
		return apperrors.NewValidationError("artifact path names a sidecar: " + p)
	}
	if c := path.Clean(p); c == "." || c == "" {
		return apperrors.NewValidationError("artifact path resolves to the root: " + p)
	}
	return nil
}

// normalizePrefix validates a directory prefix; the empty prefix means the whole store
func normalizePrefix(prefix string) (string, error) {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return "", nil
	}
	if err := ValidatePath(prefix); err != nil {
		return "", err
	}
	return path.Clean(prefix), nil
}

func sidecarPath(p string) string {
	return p + sidecarSuffix
}

func isInternal(name string) bool {
	base := path.Base(name)
	return strings.HasSuffix(base, sidecarSuffix) || strings.Contains(base, tempMarker)
}

// finalizeMeta fills the fields the store owns: media type, size, checksum and creation time
func finalizeMeta(p string, payload []byte, meta entities.ArtifactMeta, now time.Time) entities.ArtifactMeta {
	if meta.MediaType == "" {
		meta.MediaType = entities.MediaTypeForPath(p)
	}
	sum := sha256.Sum256(payload)
	meta.SHA256 = hex.EncodeToString(sum[:])
	meta.Size = int64(len(payload))
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = now.UTC()
	}
	return meta
}

// inferMeta rebuilds a sidecar for a payload written without one
func inferMeta(p string, payload []byte, modTime time.Time) entities.ArtifactMeta {
	return finalizeMeta(p, payload, entities.ArtifactMeta{CreatedAt: modTime}, modTime)
}
