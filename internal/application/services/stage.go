package services

import (
	"context"
	"time"

	"github.com/zatekoja/articleforge/internal/adapters/storage"
	"github.com/zatekoja/articleforge/internal/application/policy"
	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
	"github.com/zatekoja/articleforge/internal/infrastructure/observability"
)

// StageOptions tunes one stage execution
type StageOptions struct {
	// Force ignores cached artifacts
	Force bool
	// TTL refreshes cached artifacts older than this; zero never expires
	TTL time.Duration
}

// Deps are the capabilities shared by the stage services
type Deps struct {
	Store   providers.ArtifactStore
	Gateway *policy.Gateway
	Metrics *observability.Metrics
	Now     func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

// loadCached decodes path into v when a fresh copy exists and force is off
func (d Deps) loadCached(ctx context.Context, stage entities.Stage, path string, opts StageOptions, v interface{}) (*entities.Artifact, bool) {
	if opts.Force || !d.Store.Exists(ctx, path) {
		observability.RecordCacheMiss(ctx, d.Metrics, string(stage))
		return nil, false
	}
	artifact, err := storage.GetJSON(ctx, d.Store, path, v)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("path", path).Msg("ignoring unreadable cached artifact")
		observability.RecordCacheMiss(ctx, d.Metrics, string(stage))
		return nil, false
	}
	if artifact.Meta.Expired(opts.TTL, d.now()) {
		observability.RecordCacheMiss(ctx, d.Metrics, string(stage))
		return nil, false
	}
	observability.RecordCacheHit(ctx, d.Metrics, string(stage))
	return artifact, true
}

// artifactMeta builds the sidecar for a provider-derived artifact
func artifactMeta(term entities.Term, typ string, m providers.ResultMeta) entities.ArtifactMeta {
	meta := entities.ArtifactMeta{
		Term:     term.Raw,
		Type:     typ,
		Provider: m.Provider,
		Mock:     m.Mock,
	}
	if m.Degraded != "" {
		meta.Extra = map[string]interface{}{"degraded": m.Degraded}
	}
	return meta
}

func provenance(stage entities.Stage, m providers.ResultMeta) entities.ProvenanceEntry {
	return entities.ProvenanceEntry{Stage: stage, Endpoint: m.Endpoint, Provider: m.Provider, Mock: m.Mock}
}
