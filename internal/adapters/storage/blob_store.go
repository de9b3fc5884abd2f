package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"

	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
	apperrors "github.com/zatekoja/articleforge/pkg/errors"
)

var _ providers.ArtifactStore = (*BlobStore)(nil)

// BlobStore is the object-store backend rooted at a key prefix inside a bucket.
// A single object write is atomic for readers, so no temporary key is used.
type BlobStore struct {
	bucket *blob.Bucket
	prefix string
	now    func() time.Time
}

// NewBlobStore opens bucketURL (s3://, gs://, mem://) and roots the store at prefix
func NewBlobStore(ctx context.Context, bucketURL, prefix string, opts ...Option) (*BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to open bucket "+bucketURL, err)
	}
	return NewBlobStoreFromBucket(bucket, prefix, opts...), nil
}

// NewBlobStoreFromBucket wraps an already opened bucket
func NewBlobStoreFromBucket(bucket *blob.Bucket, prefix string, opts ...Option) *BlobStore {
	o := buildOptions(opts)
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &BlobStore{bucket: bucket, prefix: prefix, now: o.now}
}

func (s *BlobStore) key(p string) string {
	return s.prefix + p
}

// Put writes the payload object, then its sidecar object
func (s *BlobStore) Put(ctx context.Context, p string, payload []byte, meta entities.ArtifactMeta) error {
	if err := ValidatePath(p); err != nil {
		return err
	}
	meta = finalizeMeta(p, payload, meta, s.now())
	sidecar, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return apperrors.NewInternalError("failed to encode sidecar", err)
	}

	if err := s.bucket.WriteAll(ctx, s.key(p), payload, &blob.WriterOptions{
		ContentType: meta.MediaType,
		Metadata:    map[string]string{"sha256": meta.SHA256},
	}); err != nil {
		return s.classify(fmt.Sprintf("failed to write %s", p), err)
	}
	if err := s.bucket.WriteAll(ctx, s.key(sidecarPath(p)), sidecar, &blob.WriterOptions{
		ContentType: entities.MediaTypeJSON,
	}); err != nil {
		return s.classify(fmt.Sprintf("failed to write sidecar for %s", p), err)
	}
	return nil
}

// Get reads the payload and sidecar objects
func (s *BlobStore) Get(ctx context.Context, p string) (*entities.Artifact, error) {
	if err := ValidatePath(p); err != nil {
		return nil, err
	}
	payload, err := s.bucket.ReadAll(ctx, s.key(p))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, apperrors.NewNotFoundError("artifact not found: " + p)
		}
		return nil, s.classify(fmt.Sprintf("failed to read %s", p), err)
	}

	var meta entities.ArtifactMeta
	raw, err := s.bucket.ReadAll(ctx, s.key(sidecarPath(p)))
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(raw, &meta); jsonErr != nil {
			return nil, apperrors.NewIOError(fmt.Sprintf("corrupt sidecar for %s", p), jsonErr)
		}
	case gcerrors.Code(err) == gcerrors.NotFound:
		modTime := s.now()
		if attrs, attrErr := s.bucket.Attributes(ctx, s.key(p)); attrErr == nil {
			modTime = attrs.ModTime
		}
		meta = inferMeta(p, payload, modTime)
	default:
		return nil, s.classify(fmt.Sprintf("failed to read sidecar for %s", p), err)
	}
	return newArtifact(p, payload, meta), nil
}

// Exists reports whether the payload object exists
func (s *BlobStore) Exists(ctx context.Context, p string) bool {
	if ValidatePath(p) != nil {
		return false
	}
	ok, err := s.bucket.Exists(ctx, s.key(p))
	return err == nil && ok
}

// EnsureDir validates prefix; object stores have no directories to create
func (s *BlobStore) EnsureDir(ctx context.Context, prefix string) error {
	_, err := normalizePrefix(prefix)
	return err
}

// List returns artifact paths under prefix
func (s *BlobStore) List(ctx context.Context, prefix string) ([]string, error) {
	clean, err := normalizePrefix(prefix)
	if err != nil {
		return nil, err
	}
	keyPrefix := s.prefix
	if clean != "" {
		keyPrefix += clean + "/"
	}

	var out []string
	iter := s.bucket.List(&blob.ListOptions{Prefix: keyPrefix})
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, s.classify("failed to list "+prefix, err)
		}
		if obj.IsDir || isInternal(obj.Key) {
			continue
		}
		out = append(out, strings.TrimPrefix(obj.Key, s.prefix))
	}
	sort.Strings(out)
	return out, nil
}

// Purge deletes every object under prefix, sidecars included
func (s *BlobStore) Purge(ctx context.Context, prefix string) error {
	clean, err := normalizePrefix(prefix)
	if err != nil {
		return err
	}
	if clean == "" {
		return apperrors.NewValidationError("refusing to purge the whole store")
	}

	iter := s.bucket.List(&blob.ListOptions{Prefix: s.prefix + clean + "/"})
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return s.classify("failed to list "+prefix, err)
		}
		if err := s.bucket.Delete(ctx, obj.Key); err != nil && gcerrors.Code(err) != gcerrors.NotFound {
			return s.classify("failed to delete "+obj.Key, err)
		}
	}
	for _, key := range []string{s.key(clean), s.key(sidecarPath(clean))} {
		if err := s.bucket.Delete(ctx, key); err != nil && gcerrors.Code(err) != gcerrors.NotFound {
			return s.classify("failed to delete "+key, err)
		}
	}
	return nil
}

// Close releases the bucket
func (s *BlobStore) Close() error {
	return s.bucket.Close()
}

func (s *BlobStore) classify(message string, err error) error {
	if apperrors.IsContextError(err) || gcerrors.Code(err) == gcerrors.Canceled || gcerrors.Code(err) == gcerrors.DeadlineExceeded {
		return apperrors.NewCancelledError(message, err)
	}
	return apperrors.NewIOError(message, err)
}
