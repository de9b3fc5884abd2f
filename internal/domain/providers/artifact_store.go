package providers

import (
	"context"

	"github.com/zatekoja/articleforge/internal/domain/entities"
)

// ArtifactStore is the capability interface over the persistence backends.
// Paths look like <slug>/<stage>[/<sub>].<ext> and never escape the root.
type ArtifactStore interface {
	// Put writes payload and its sidecar atomically; readers see the old or the new version in full
	Put(ctx context.Context, path string, payload []byte, meta entities.ArtifactMeta) error

	// Get returns the payload and sidecar, or a NOT_FOUND error
	Get(ctx context.Context, path string) (*entities.Artifact, error)

	// Exists reports whether path holds an artifact; it never fails
	Exists(ctx context.Context, path string) bool

	// EnsureDir prepares prefix for writes; it is idempotent
	EnsureDir(ctx context.Context, prefix string) error

	// List returns artifact paths under prefix, sidecars excluded
	List(ctx context.Context, prefix string) ([]string, error)

	// Purge removes every artifact under prefix
	Purge(ctx context.Context, prefix string) error
}
