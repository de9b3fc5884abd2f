package storage

import (
	"context"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
)

var _ providers.ArtifactStore = (*CachedStore)(nil)

// CachedStore wraps an ArtifactStore with an in-process LRU of recently read artifacts.
// Writes through this store invalidate their entry; writes by other processes are not observed until eviction.
type CachedStore struct {
	inner providers.ArtifactStore
	cache *lru.Cache[string, *entities.Artifact]

	// gen is bumped by every write to a path; a read only fills the cache when
	// no write started between its backend read and its Add
	mu     sync.Mutex
	gen    map[string]uint64
	purges uint64
}

// NewCachedStore wraps inner with an LRU holding up to size artifacts
func NewCachedStore(inner providers.ArtifactStore, size int) (*CachedStore, error) {
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, *entities.Artifact](size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{inner: inner, cache: cache, gen: make(map[string]uint64)}, nil
}

// Put writes through and drops the cached copy
func (s *CachedStore) Put(ctx context.Context, p string, payload []byte, meta entities.ArtifactMeta) error {
	s.invalidate(p)
	err := s.inner.Put(ctx, p, payload, meta)
	s.invalidate(p)
	return err
}

// Get serves from the LRU when possible
func (s *CachedStore) Get(ctx context.Context, p string) (*entities.Artifact, error) {
	if cached, ok := s.cache.Get(p); ok {
		return cloneArtifact(cached), nil
	}
	seen, purges := s.generation(p)
	artifact, err := s.inner.Get(ctx, p)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.gen[p] == seen && s.purges == purges {
		s.cache.Add(p, cloneArtifact(artifact))
	}
	s.mu.Unlock()
	return cloneArtifact(artifact), nil
}

func (s *CachedStore) generation(p string) (uint64, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen[p], s.purges
}

func (s *CachedStore) invalidate(p string) {
	s.mu.Lock()
	s.gen[p]++
	s.cache.Remove(p)
	s.mu.Unlock()
}

func cloneArtifact(a *entities.Artifact) *entities.Artifact {
	cp := *a
	cp.Payload = append([]byte(nil), a.Payload...)
	return &cp
}

// Exists consults the LRU before the backend
func (s *CachedStore) Exists(ctx context.Context, p string) bool {
	if s.cache.Contains(p) {
		return true
	}
	return s.inner.Exists(ctx, p)
}

// EnsureDir delegates to the backend
func (s *CachedStore) EnsureDir(ctx context.Context, prefix string) error {
	return s.inner.EnsureDir(ctx, prefix)
}

// List delegates to the backend
func (s *CachedStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Purge delegates and evicts every cached path under prefix
func (s *CachedStore) Purge(ctx context.Context, prefix string) error {
	s.evictPrefix(prefix)
	err := s.inner.Purge(ctx, prefix)
	s.evictPrefix(prefix)
	return err
}

func (s *CachedStore) evictPrefix(prefix string) {
	trimmed := strings.Trim(prefix, "/")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purges++
	for _, key := range s.cache.Keys() {
		if key == trimmed || strings.HasPrefix(key, trimmed+"/") {
			s.cache.Remove(key)
		}
	}
}
