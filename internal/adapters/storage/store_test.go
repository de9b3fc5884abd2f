package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"

	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
	apperrors "github.com/zatekoja/articleforge/pkg/errors"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type storeFactory func(t *testing.T) providers.ArtifactStore

func backends() map[string]storeFactory {
	return map[string]storeFactory{
		"fs": func(t *testing.T) providers.ArtifactStore {
			s, err := NewFSStore(t.TempDir(), WithClock(clock))
			require.NoError(t, err)
			return s
		},
		"memblob": func(t *testing.T) providers.ArtifactStore {
			s := NewBlobStoreFromBucket(memblob.OpenBucket(nil), "articles", WithClock(clock))
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
		"cached-fs": func(t *testing.T) providers.ArtifactStore {
			inner, err := NewFSStore(t.TempDir(), WithClock(clock))
			require.NoError(t, err)
			s, err := NewCachedStore(inner, 16)
			require.NoError(t, err)
			return s
		},
	}
}

func TestArtifactStoreContract(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("put then get returns payload and metadata", func(t *testing.T) {
				store := factory(t)
				payload := []byte(`{"title":"Rolex Submariner"}`)
				require.NoError(t, store.Put(ctx, "rolex-submariner/analysis/plan.json", payload, entities.ArtifactMeta{
					Term:     "Rolex Submariner",
					Type:     "plan",
					Provider: "anthropic",
				}))

				artifact, err := store.Get(ctx, "rolex-submariner/analysis/plan.json")
				require.NoError(t, err)
				assert.Equal(t, payload, artifact.Payload)
				assert.Equal(t, entities.MediaTypeJSON, artifact.Meta.MediaType)
				assert.Equal(t, int64(len(payload)), artifact.Meta.Size)
				assert.Len(t, artifact.Meta.SHA256, 64)
				assert.Equal(t, fixedNow, artifact.Meta.CreatedAt.UTC())
				assert.Equal(t, "plan", artifact.Meta.Type)
				assert.Equal(t, map[string]interface{}{"title": "Rolex Submariner"}, artifact.Data)
			})

			t.Run("text artifacts carry no structured data", func(t *testing.T) {
				store := factory(t)
				require.NoError(t, store.Put(ctx, "slug/article.md", []byte("# Title\n"), entities.ArtifactMeta{}))
				artifact, err := store.Get(ctx, "slug/article.md")
				require.NoError(t, err)
				assert.Equal(t, entities.MediaTypeMarkdown, artifact.Meta.MediaType)
				assert.Nil(t, artifact.Data)
				assert.Equal(t, "# Title\n", artifact.Text())
			})

			t.Run("overwrite replaces the previous payload", func(t *testing.T) {
				store := factory(t)
				require.NoError(t, store.Put(ctx, "slug/enhanced.json", []byte(`{"v":1}`), entities.ArtifactMeta{}))
				require.NoError(t, store.Put(ctx, "slug/enhanced.json", []byte(`{"v":2}`), entities.ArtifactMeta{}))
				artifact, err := store.Get(ctx, "slug/enhanced.json")
				require.NoError(t, err)
				assert.JSONEq(t, `{"v":2}`, string(artifact.Payload))
			})

			t.Run("missing artifact is NOT_FOUND", func(t *testing.T) {
				store := factory(t)
				_, err := store.Get(ctx, "nope/run.json")
				assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNotFound))
				assert.False(t, store.Exists(ctx, "nope/run.json"))
			})

			t.Run("invalid paths are rejected", func(t *testing.T) {
				store := factory(t)
				for _, p := range []string{"", "/etc/passwd", "../escape.json", "a/../../b.json", "a\\b.json", "slug/plan.json.meta"} {
					err := store.Put(ctx, p, []byte("x"), entities.ArtifactMeta{})
					assert.True(t, apperrors.Is(err, apperrors.ErrorTypeValidation), "path %q", p)
				}
			})

			t.Run("list hides sidecars and is sorted", func(t *testing.T) {
				store := factory(t)
				for _, p := range []string{"b/research/serp.json", "b/research/keyword.json", "a/run.json"} {
					require.NoError(t, store.Put(ctx, p, []byte(`{}`), entities.ArtifactMeta{}))
				}

				all, err := store.List(ctx, "")
				require.NoError(t, err)
				assert.Equal(t, []string{"a/run.json", "b/research/keyword.json", "b/research/serp.json"}, all)

				research, err := store.List(ctx, "b/research")
				require.NoError(t, err)
				assert.Equal(t, []string{"b/research/keyword.json", "b/research/serp.json"}, research)

				none, err := store.List(ctx, "missing")
				require.NoError(t, err)
				assert.Empty(t, none)
			})

			t.Run("purge removes the prefix only", func(t *testing.T) {
				store := factory(t)
				require.NoError(t, store.Put(ctx, "a/run.json", []byte(`{}`), entities.ArtifactMeta{}))
				require.NoError(t, store.Put(ctx, "a/research/paa.json", []byte(`{}`), entities.ArtifactMeta{}))
				require.NoError(t, store.Put(ctx, "ab/run.json", []byte(`{}`), entities.ArtifactMeta{}))
				_, _ = store.Get(ctx, "a/run.json")

				require.NoError(t, store.Purge(ctx, "a"))
				assert.False(t, store.Exists(ctx, "a/run.json"))
				assert.False(t, store.Exists(ctx, "a/research/paa.json"))
				assert.True(t, store.Exists(ctx, "ab/run.json"))

				assert.Error(t, store.Purge(ctx, ""))
			})
		})
	}
}

func TestFSStoreMissingSidecarIsInferred(t *testing.T) {
	root := t.TempDir()
	store, err := NewFSStore(root, WithClock(clock))
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "slug"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "slug", "optimized.json"), []byte(`{"ok":true}`), 0o644))

	artifact, err := store.Get(context.Background(), "slug/optimized.json")
	require.NoError(t, err)
	assert.Equal(t, entities.MediaTypeJSON, artifact.Meta.MediaType)
	assert.Equal(t, int64(11), artifact.Meta.Size)
	assert.False(t, artifact.Meta.CreatedAt.IsZero())
}

func TestFSStoreLeavesNoTemporaryFiles(t *testing.T) {
	root := t.TempDir()
	store, err := NewFSStore(root)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), "slug/run.json", []byte(`{}`), entities.ArtifactMeta{}))

	entries, err := os.ReadDir(filepath.Join(root, "slug"))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"run.json", "run.json.meta"}, names)
}

func TestFSStoreRejectsEmptyRoot(t *testing.T) {
	_, err := NewFSStore("")
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeConfig))
}

func TestFSStoreConcurrentReadersNeverSeePartialWrites(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	const size = 256 * 1024
	first := bytes.Repeat([]byte("a"), size)
	second := bytes.Repeat([]byte("b"), size)
	require.NoError(t, store.Put(ctx, "slug/article.md", first, entities.ArtifactMeta{}))

	stop := make(chan struct{})
	var wg sync.WaitGroup
	var mu sync.Mutex
	var bad []string

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				artifact, err := store.Get(ctx, "slug/article.md")
				if err != nil {
					mu.Lock()
					bad = append(bad, err.Error())
					mu.Unlock()
					continue
				}
				if !bytes.Equal(artifact.Payload, first) && !bytes.Equal(artifact.Payload, second) {
					mu.Lock()
					bad = append(bad, "partial payload")
					mu.Unlock()
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		payload := first
		if i%2 == 0 {
			payload = second
		}
		require.NoError(t, store.Put(ctx, "slug/article.md", payload, entities.ArtifactMeta{}))
	}
	close(stop)
	wg.Wait()

	assert.Empty(t, bad)
}

func TestCachedStoreServesRepeatedReads(t *testing.T) {
	inner, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	cached, err := NewCachedStore(inner, 4)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, cached.Put(ctx, "slug/plan.json", []byte(`{"v":1}`), entities.ArtifactMeta{}))
	_, err = cached.Get(ctx, "slug/plan.json")
	require.NoError(t, err)

	// removing the file behind the cache still serves the cached copy
	require.NoError(t, os.Remove(filepath.Join(inner.Root(), "slug", "plan.json")))
	artifact, err := cached.Get(ctx, "slug/plan.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(artifact.Payload))

	// a write through the cache invalidates
	require.NoError(t, cached.Put(ctx, "slug/plan.json", []byte(`{"v":2}`), entities.ArtifactMeta{}))
	artifact, err = cached.Get(ctx, "slug/plan.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(artifact.Payload))
}

// gatedStore holds Get after the backend read until release is closed
type gatedStore struct {
	providers.ArtifactStore
	read    chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedStore) Get(ctx context.Context, p string) (*entities.Artifact, error) {
	artifact, err := g.ArtifactStore.Get(ctx, p)
	gated := false
	g.once.Do(func() { gated = true })
	if gated {
		close(g.read)
		<-g.release
	}
	return artifact, err
}

func TestCachedStoreReadRacingWriteDoesNotCacheStaleCopy(t *testing.T) {
	inner, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	gate := &gatedStore{ArtifactStore: inner, read: make(chan struct{}), release: make(chan struct{})}
	cached, err := NewCachedStore(gate, 4)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, inner.Put(ctx, "s/run.json", []byte(`{"v":0}`), entities.ArtifactMeta{}))

	done := make(chan *entities.Artifact, 1)
	go func() {
		artifact, err := cached.Get(ctx, "s/run.json")
		assert.NoError(t, err)
		done <- artifact
	}()

	<-gate.read
	require.NoError(t, cached.Put(ctx, "s/run.json", []byte(`{"v":1}`), entities.ArtifactMeta{}))
	close(gate.release)

	stale := <-done
	assert.JSONEq(t, `{"v":0}`, string(stale.Payload))

	artifact, err := cached.Get(ctx, "s/run.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(artifact.Payload))
}

func TestCachedStoreReadRacingPurgeDoesNotCacheStaleCopy(t *testing.T) {
	inner, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	gate := &gatedStore{ArtifactStore: inner, read: make(chan struct{}), release: make(chan struct{})}
	cached, err := NewCachedStore(gate, 4)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, inner.Put(ctx, "s/plan.json", []byte(`{"v":0}`), entities.ArtifactMeta{}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := cached.Get(ctx, "s/plan.json")
		assert.NoError(t, err)
	}()

	<-gate.read
	require.NoError(t, cached.Purge(ctx, "s"))
	close(gate.release)
	<-done

	_, err = cached.Get(ctx, "s/plan.json")
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNotFound), "got %v", err)
}

func TestCachedStoreReturnsIndependentPayloads(t *testing.T) {
	inner, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	cached, err := NewCachedStore(inner, 4)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, cached.Put(ctx, "slug/plan.json", []byte(`{"v":1}`), entities.ArtifactMeta{}))
	first, err := cached.Get(ctx, "slug/plan.json")
	require.NoError(t, err)
	first.Payload[len(first.Payload)-2] = '9'

	second, err := cached.Get(ctx, "slug/plan.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(second.Payload))
}

func TestJSONHelpers(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	in := entities.ValuationRange{Low: 8000, High: 12000, Currency: "USD", Blurb: "steel dive watch"}
	require.NoError(t, PutJSON(ctx, store, entities.ValuationPath("rolex"), in, entities.ArtifactMeta{Type: "valuation"}))

	var out entities.ValuationRange
	artifact, err := GetJSON(ctx, store, entities.ValuationPath("rolex"), &out)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, "valuation", artifact.Meta.Type)

	require.NoError(t, PutText(ctx, store, entities.BlurbPath("rolex"), "not json", entities.MediaTypeText, entities.ArtifactMeta{}))
	_, err = GetJSON(ctx, store, entities.BlurbPath("rolex"), &out)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeValidation))
}
