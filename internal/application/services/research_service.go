package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/zatekoja/articleforge/internal/adapters/storage"
	"github.com/zatekoja/articleforge/internal/application/policy"
	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
	"github.com/zatekoja/articleforge/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/articleforge/pkg/errors"
)

const (
	defaultLocale       = "en"
	defaultSERPDepth    = 10
	defaultRelatedItems = 20
)

// ResearchService collects the research sub-artifacts for a term
type ResearchService struct {
	deps     Deps
	locale   string
	depth    int
	maxItems int
}

// NewResearchService creates a new research collector
func NewResearchService(deps Deps) *ResearchService {
	return &ResearchService{
		deps:     deps,
		locale:   defaultLocale,
		depth:    defaultSERPDepth,
		maxItems: defaultRelatedItems,
	}
}

// partOutcome describes where one research part came from
type partOutcome struct {
	cached bool
	mock   bool
}

// bundleRecorder serializes writes to the bundle from the fan-out goroutines
type bundleRecorder struct {
	mu     sync.Mutex
	bundle *entities.ResearchBundle
}

func (r *bundleRecorder) record(part string, out partOutcome, set func(b *entities.ResearchBundle)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set(r.bundle)
	if out.cached {
		r.bundle.Cached = append(r.bundle.Cached, part)
	}
	if out.mock {
		r.bundle.Mocked = append(r.bundle.Mocked, part)
	}
}

func (r *bundleRecorder) missing(part string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bundle.Missing = append(r.bundle.Missing, part)
}

// Collect returns the merged research bundle. Cached parts are reused; misses
// are fetched concurrently. Only the keyword part is mandatory.
func (s *ResearchService) Collect(ctx context.Context, term entities.Term, opts StageOptions) (*entities.ResearchBundle, error) {
	ctx, span := observability.StartSpan(ctx, "services.research.collect")
	defer span.End()
	logger := observability.LoggerFromContext(ctx).With().Str("slug", term.Slug).Logger()

	rec := &bundleRecorder{bundle: &entities.ResearchBundle{Term: term}}
	kwReq := providers.KeywordRequest{Slug: term.Slug, Keyword: term.Raw, Locale: s.locale, MaxItems: s.maxItems}
	serpReq := providers.SERPRequest{Slug: term.Slug, Keyword: term.Raw, Locale: s.locale, Depth: s.depth}

	optional := func(part string, err error) error {
		if apperrors.Is(err, apperrors.ErrorTypeCancelled) {
			return err
		}
		logger.Warn().Err(err).Str("part", part).Msg("research part unavailable, continuing without it")
		rec.missing(part)
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, out, err := researchPart(gctx, s.deps, term, entities.ResearchKeyword, policy.KeywordMetrics, opts,
			func(ctx context.Context, a providers.Adapters) providers.Result[entities.KeywordMetrics] {
				return a.Keywords.KeywordMetrics(ctx, kwReq)
			})
		if err != nil {
			return fmt.Errorf("keyword research for %s: %w", term.Slug, err)
		}
		rec.record(entities.ResearchKeyword, out, func(b *entities.ResearchBundle) { b.Keyword = v })
		return nil
	})
	g.Go(func() error {
		v, out, err := researchPart(gctx, s.deps, term, entities.ResearchRelated, policy.RelatedKeywords, opts,
			func(ctx context.Context, a providers.Adapters) providers.Result[entities.RelatedKeywords] {
				return a.Keywords.RelatedKeywords(ctx, kwReq)
			})
		if err != nil {
			return optional(entities.ResearchRelated, err)
		}
		rec.record(entities.ResearchRelated, out, func(b *entities.ResearchBundle) { b.Related = v })
		return nil
	})
	g.Go(func() error {
		v, out, err := researchPart(gctx, s.deps, term, entities.ResearchSERP, policy.SERPResults, opts,
			func(ctx context.Context, a providers.Adapters) providers.Result[entities.SERPResults] {
				return a.SERP.SERPResults(ctx, serpReq)
			})
		if err != nil {
			return optional(entities.ResearchSERP, err)
		}
		rec.record(entities.ResearchSERP, out, func(b *entities.ResearchBundle) { b.SERP = v })
		return nil
	})
	g.Go(func() error {
		v, out, err := researchPart(gctx, s.deps, term, entities.ResearchPAA, policy.PAAQuestions, opts,
			func(ctx context.Context, a providers.Adapters) providers.Result[entities.PAAQuestions] {
				return a.PAA.PAAQuestions(ctx, serpReq)
			})
		if err != nil {
			return optional(entities.ResearchPAA, err)
		}
		rec.record(entities.ResearchPAA, out, func(b *entities.ResearchBundle) { b.PAA = v })
		return nil
	})
	if err := g.Wait(); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	// the expansion fan-out takes the SERP output as input
	expansion, out, err := s.expand(ctx, term, rec.bundle.SERP, opts)
	switch {
	case err != nil:
		if err := optional(entities.ResearchExpansion, err); err != nil {
			observability.RecordError(span, err)
			return nil, err
		}
	default:
		rec.record(entities.ResearchExpansion, out, func(b *entities.ResearchBundle) { b.Expansion = expansion })
	}

	b := rec.bundle
	sortParts(b.Missing)
	sortParts(b.Mocked)
	sortParts(b.Cached)
	logger.Info().
		Strs("cached", b.Cached).
		Strs("missing", b.Missing).
		Strs("mocked", b.Mocked).
		Msg("research collected")
	return b, nil
}

// expand issues the five topic_expansion sub-calls concurrently and merges them
func (s *ResearchService) expand(ctx context.Context, term entities.Term, serp *entities.SERPResults, opts StageOptions) (*entities.TopicExpansion, partOutcome, error) {
	path := entities.ResearchPath(term.Slug, entities.ResearchExpansion)
	var cached entities.TopicExpansion
	if artifact, ok := s.deps.loadCached(ctx, entities.StageResearch, path, opts, &cached); ok {
		return &cached, partOutcome{cached: true, mock: artifact.Meta.Mock}, nil
	}

	parts := make([]*entities.ExpansionPart, len(entities.ExpansionAspects))
	metas := make([]providers.ResultMeta, len(entities.ExpansionAspects))
	errs := make([]error, len(entities.ExpansionAspects))

	var wg sync.WaitGroup
	for i, aspect := range entities.ExpansionAspects {
		wg.Add(1)
		go func(i int, aspect string) {
			defer wg.Done()
			res, err := policy.Call(ctx, s.deps.Gateway, policy.TopicExpansion,
				func(ctx context.Context, a providers.Adapters) providers.Result[entities.ExpansionPart] {
					return a.Analytical.TopicExpansion(ctx, providers.ExpansionRequest{
						Slug: term.Slug, Term: term.Raw, Aspect: aspect, SERP: serp,
					})
				})
			if err != nil {
				errs[i] = err
				return
			}
			part := res.Value
			part.Aspect = aspect
			parts[i] = &part
			metas[i] = res.Meta
		}(i, aspect)
	}
	wg.Wait()

	merged := &entities.TopicExpansion{}
	out := partOutcome{}
	var firstErr error
	provider := ""
	for i, aspect := range entities.ExpansionAspects {
		if errs[i] != nil {
			if apperrors.Is(errs[i], apperrors.ErrorTypeCancelled) {
				return nil, out, errs[i]
			}
			if firstErr == nil {
				firstErr = errs[i]
			}
			merged.Missing = append(merged.Missing, aspect)
			continue
		}
		merged.Merge(*parts[i])
		out.mock = out.mock || metas[i].Mock
		if provider == "" {
			provider = metas[i].Provider
		}
	}
	if len(merged.Missing) == len(entities.ExpansionAspects) {
		return nil, out, fmt.Errorf("topic expansion for %s: %w", term.Slug, firstErr)
	}

	meta := entities.ArtifactMeta{Term: term.Raw, Type: "research." + entities.ResearchExpansion, Provider: provider, Mock: out.mock}
	if err := storage.PutJSON(ctx, s.deps.Store, path, merged, meta); err != nil {
		return nil, out, fmt.Errorf("failed to store %s: %w", path, err)
	}
	return merged, out, nil
}

// researchPart returns one research sub-artifact, from cache or through the gateway
func researchPart[T any](
	ctx context.Context,
	d Deps,
	term entities.Term,
	part string,
	ep policy.Endpoint,
	opts StageOptions,
	call func(context.Context, providers.Adapters) providers.Result[T],
) (*T, partOutcome, error) {
	path := entities.ResearchPath(term.Slug, part)
	var cached T
	if artifact, ok := d.loadCached(ctx, entities.StageResearch, path, opts, &cached); ok {
		return &cached, partOutcome{cached: true, mock: artifact.Meta.Mock}, nil
	}

	res, err := policy.Call(ctx, d.Gateway, ep, call)
	if err != nil {
		return nil, partOutcome{}, err
	}
	if err := storage.PutJSON(ctx, d.Store, path, res.Value, artifactMeta(term, "research."+part, res.Meta)); err != nil {
		return nil, partOutcome{}, fmt.Errorf("failed to store %s: %w", path, err)
	}
	v := res.Value
	return &v, partOutcome{mock: res.Meta.Mock}, nil
}

// Load rebuilds the bundle from stored artifacts without calling providers
func (s *ResearchService) Load(ctx context.Context, term entities.Term) (*entities.ResearchBundle, error) {
	b := &entities.ResearchBundle{Term: term}
	targets := map[string]interface{}{
		entities.ResearchKeyword:   &b.Keyword,
		entities.ResearchRelated:   &b.Related,
		entities.ResearchSERP:      &b.SERP,
		entities.ResearchPAA:       &b.PAA,
		entities.ResearchExpansion: &b.Expansion,
	}
	for _, part := range entities.ResearchParts {
		artifact, err := storage.GetJSON(ctx, s.deps.Store, entities.ResearchPath(term.Slug, part), targets[part])
		switch {
		case err == nil:
			b.Cached = append(b.Cached, part)
			if artifact.Meta.Mock {
				b.Mocked = append(b.Mocked, part)
			}
		case apperrors.Is(err, apperrors.ErrorTypeNotFound):
			b.Missing = append(b.Missing, part)
		default:
			return nil, fmt.Errorf("failed to load research for %s: %w", term.Slug, err)
		}
	}
	if b.Keyword == nil {
		return nil, apperrors.NewNotFoundError("no keyword research stored for " + term.Slug)
	}
	return b, nil
}

var partOrder = func() map[string]int {
	m := make(map[string]int, len(entities.ResearchParts))
	for i, p := range entities.ResearchParts {
		m[p] = i
	}
	return m
}()

func sortParts(parts []string) {
	sort.Slice(parts, func(i, j int) bool { return partOrder[parts[i]] < partOrder[parts[j]] })
}
