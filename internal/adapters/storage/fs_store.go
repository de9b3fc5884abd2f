package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
	apperrors "github.com/zatekoja/articleforge/pkg/errors"
)

var _ providers.ArtifactStore = (*FSStore)(nil)

// Option configures a store
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the clock used for created_at
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// FSStore is the local filesystem backend rooted at a directory
type FSStore struct {
	root string
	now  func() time.Time
}

// NewFSStore creates the root directory if needed and returns a store over it
func NewFSStore(root string, opts ...Option) (*FSStore, error) {
	if root == "" {
		return nil, apperrors.NewConfigError("artifact root is empty", nil)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid artifact root", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, apperrors.NewConfigError("artifact root is not writable", err)
	}
	o := buildOptions(opts)
	return &FSStore{root: abs, now: o.now}, nil
}

// Root returns the absolute root directory
func (s *FSStore) Root() string {
	return s.root
}

func (s *FSStore) resolve(p string) (string, error) {
	full := filepath.Join(s.root, filepath.FromSlash(p))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", apperrors.NewValidationError("artifact path escapes the root: " + p)
	}
	return full, nil
}

// Put writes payload to a temporary sibling, fsyncs it and renames it into place, then does the same for the sidecar
func (s *FSStore) Put(ctx context.Context, p string, payload []byte, meta entities.ArtifactMeta) error {
	if err := ValidatePath(p); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return apperrors.NewCancelledError("put cancelled", err)
	}
	full, err := s.resolve(p)
	if err != nil {
		return err
	}

	meta = finalizeMeta(p, payload, meta, s.now())
	sidecar, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return apperrors.NewInternalError("failed to encode sidecar", err)
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return apperrors.NewIOError("failed to create artifact directory", err)
	}
	if err := writeAtomic(full, payload); err != nil {
		return apperrors.NewIOError(fmt.Sprintf("failed to write %s", p), err)
	}
	if err := writeAtomic(sidecarPath(full), sidecar); err != nil {
		return apperrors.NewIOError(fmt.Sprintf("failed to write sidecar for %s", p), err)
	}
	return nil
}

func writeAtomic(target string, data []byte) error {
	dir, base := filepath.Split(target)
	tmp, err := os.CreateTemp(dir, "."+base+tempMarker+"*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, target); err != nil {
		cleanup()
		return err
	}
	return nil
}

// Get reads the payload and its sidecar
func (s *FSStore) Get(ctx context.Context, p string) (*entities.Artifact, error) {
	if err := ValidatePath(p); err != nil {
		return nil, err
	}
	full, err := s.resolve(p)
	if err != nil {
		return nil, err
	}

	payload, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewNotFoundError("artifact not found: " + p)
		}
		return nil, apperrors.NewIOError(fmt.Sprintf("failed to read %s", p), err)
	}

	var meta entities.ArtifactMeta
	raw, err := os.ReadFile(sidecarPath(full))
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(raw, &meta); jsonErr != nil {
			return nil, apperrors.NewIOError(fmt.Sprintf("corrupt sidecar for %s", p), jsonErr)
		}
	case errors.Is(err, fs.ErrNotExist):
		modTime := s.now()
		if info, statErr := os.Stat(full); statErr == nil {
			modTime = info.ModTime()
		}
		meta = inferMeta(p, payload, modTime)
	default:
		return nil, apperrors.NewIOError(fmt.Sprintf("failed to read sidecar for %s", p), err)
	}

	return newArtifact(p, payload, meta), nil
}

func newArtifact(p string, payload []byte, meta entities.ArtifactMeta) *entities.Artifact {
	artifact := &entities.Artifact{Path: p, Payload: payload, Meta: meta}
	if meta.IsStructured() {
		var data interface{}
		if err := json.Unmarshal(payload, &data); err == nil {
			artifact.Data = data
		}
	}
	return artifact
}

// Exists reports whether p holds an artifact
func (s *FSStore) Exists(ctx context.Context, p string) bool {
	if ValidatePath(p) != nil {
		return false
	}
	full, err := s.resolve(p)
	if err != nil {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && info.Mode().IsRegular()
}

// EnsureDir creates prefix under the root
func (s *FSStore) EnsureDir(ctx context.Context, prefix string) error {
	clean, err := normalizePrefix(prefix)
	if err != nil {
		return err
	}
	full, err := s.resolve(clean)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(full, 0o755); err != nil {
		return apperrors.NewIOError("failed to create "+prefix, err)
	}
	return nil
}

// List walks prefix and returns artifact paths in lexical order
func (s *FSStore) List(ctx context.Context, prefix string) ([]string, error) {
	clean, err := normalizePrefix(prefix)
	if err != nil {
		return nil, err
	}
	start, err := s.resolve(clean)
	if err != nil {
		return nil, err
	}

	var out []string
	err = filepath.WalkDir(start, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) {
				return fs.SkipDir
			}
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || isInternal(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, apperrors.NewIOError("failed to list "+prefix, err)
	}
	sort.Strings(out)
	return out, nil
}

// Purge removes prefix and everything beneath it
func (s *FSStore) Purge(ctx context.Context, prefix string) error {
	clean, err := normalizePrefix(prefix)
	if err != nil {
		return err
	}
	if clean == "" {
		return apperrors.NewValidationError("refusing to purge the whole store")
	}
	full, err := s.resolve(clean)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(full); err != nil {
		return apperrors.NewIOError("failed to purge "+prefix, err)
	}
	if err := os.Remove(sidecarPath(full)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return apperrors.NewIOError("failed to purge sidecar of "+prefix, err)
	}
	return nil
}
