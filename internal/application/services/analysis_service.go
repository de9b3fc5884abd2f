package services

import (
	"context"
	"fmt"

	"github.com/zatekoja/articleforge/internal/adapters/storage"
	"github.com/zatekoja/articleforge/internal/application/policy"
	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
	"github.com/zatekoja/articleforge/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/articleforge/pkg/errors"
	"github.com/zatekoja/articleforge/pkg/utils"
)

// BlurbWords is the exact length of the valuation descriptor
const BlurbWords = 10

// BlurbStrictKey flags in the blurb sidecar whether the descriptor passed validation
const BlurbStrictKey = "valuation_blurb_strict"

// DescriptionClampedKey records in the valuation sidecar the word count of a blurb
// that was cut to BlurbWords before reaching the provider
const DescriptionClampedKey = "description_clamped_from"

// AnalysisResult is the output of the analysis stage
type AnalysisResult struct {
	Plan        *entities.ArticlePlan
	Blurb       string
	BlurbStrict bool
	Cached      bool
	Mock        bool
}

// AnalysisService turns a research bundle into an article plan
type AnalysisService struct {
	deps Deps
}

// NewAnalysisService creates a new analyzer
func NewAnalysisService(deps Deps) *AnalysisService {
	return &AnalysisService{deps: deps}
}

// ValidBlurb reports whether s has exactly BlurbWords words after whitespace normalization
func ValidBlurb(s string) bool {
	return utils.WordCount(utils.NormalizeWhitespace(s)) == BlurbWords
}

func blurbDistance(s string) int {
	d := utils.WordCount(s) - BlurbWords
	if d < 0 {
		return -d
	}
	return d
}

// Analyze writes plan.json and valuation-blurb.txt. An invalid blurb triggers one
// tightened retry; if that also misses, the closest candidate is kept and flagged.
func (s *AnalysisService) Analyze(ctx context.Context, term entities.Term, bundle *entities.ResearchBundle, opts StageOptions) (*AnalysisResult, error) {
	ctx, span := observability.StartSpan(ctx, "services.analysis.analyze")
	defer span.End()
	logger := observability.LoggerFromContext(ctx).With().Str("slug", term.Slug).Logger()

	if cached, ok := s.loadCached(ctx, term, opts); ok {
		return cached, nil
	}
	if bundle == nil {
		return nil, apperrors.NewInternalError("analysis requires a research bundle", nil)
	}

	plan := func(tighten bool) (providers.Result[providers.PlanResponse], error) {
		return policy.Call(ctx, s.deps.Gateway, policy.PlanArticle,
			func(ctx context.Context, a providers.Adapters) providers.Result[providers.PlanResponse] {
				return a.Analytical.PlanArticle(ctx, providers.PlanRequest{
					Slug: term.Slug, Term: term.Raw, Bundle: bundle, Tighten: tighten,
				})
			})
	}

	chosen, err := plan(false)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("plan for %s: %w", term.Slug, err)
	}
	strict := ValidBlurb(chosen.Value.ValuationBlurb)
	if !strict {
		logger.Warn().
			Int("words", utils.WordCount(chosen.Value.ValuationBlurb)).
			Msg("valuation blurb failed validation, retrying with tightening instruction")
		tightened, err := plan(true)
		switch {
		case err != nil && apperrors.Is(err, apperrors.ErrorTypeCancelled):
			return nil, err
		case err != nil:
			logger.Warn().Err(err).Msg("tightened plan failed, keeping first candidate")
		case ValidBlurb(tightened.Value.ValuationBlurb):
			chosen, strict = tightened, true
		case blurbDistance(tightened.Value.ValuationBlurb) <= blurbDistance(chosen.Value.ValuationBlurb):
			chosen = tightened
		}
	}

	result := &AnalysisResult{
		Plan:        &chosen.Value.Plan,
		Blurb:       utils.NormalizeWhitespace(chosen.Value.ValuationBlurb),
		BlurbStrict: strict,
		Mock:        chosen.Meta.Mock,
	}
	result.Plan.Term = term.Raw
	result.Plan.Slug = term.Slug

	planMeta := artifactMeta(term, "analysis.plan", chosen.Meta)
	if err := storage.PutJSON(ctx, s.deps.Store, entities.PlanPath(term.Slug), result.Plan, planMeta); err != nil {
		return nil, fmt.Errorf("failed to store plan for %s: %w", term.Slug, err)
	}
	blurbMeta := artifactMeta(term, "analysis.valuation_blurb", chosen.Meta)
	if blurbMeta.Extra == nil {
		blurbMeta.Extra = map[string]interface{}{}
	}
	blurbMeta.Extra[BlurbStrictKey] = strict
	if err := storage.PutText(ctx, s.deps.Store, entities.BlurbPath(term.Slug), result.Blurb, entities.MediaTypeText, blurbMeta); err != nil {
		return nil, fmt.Errorf("failed to store valuation blurb for %s: %w", term.Slug, err)
	}

	if !strict {
		logger.Warn().Str("blurb", result.Blurb).Msg("emitting closest valuation blurb candidate")
	}
	return result, nil
}

func (s *AnalysisService) loadCached(ctx context.Context, term entities.Term, opts StageOptions) (*AnalysisResult, bool) {
	if !s.deps.Store.Exists(ctx, entities.BlurbPath(term.Slug)) {
		opts.Force = true
	}
	var plan entities.ArticlePlan
	planArtifact, ok := s.deps.loadCached(ctx, entities.StageAnalysis, entities.PlanPath(term.Slug), opts, &plan)
	if !ok {
		return nil, false
	}
	blurb, err := s.deps.Store.Get(ctx, entities.BlurbPath(term.Slug))
	if err != nil {
		return nil, false
	}
	strict := ValidBlurb(blurb.Text())
	if v, ok := blurb.Meta.Extra[BlurbStrictKey].(bool); ok {
		strict = v
	}
	return &AnalysisResult{
		Plan:        &plan,
		Blurb:       blurb.Text(),
		BlurbStrict: strict,
		Cached:      true,
		Mock:        planArtifact.Meta.Mock,
	}, true
}

// LoadPlan reads the stored plan for term
func (s *AnalysisService) LoadPlan(ctx context.Context, term entities.Term) (*entities.ArticlePlan, error) {
	var plan entities.ArticlePlan
	if _, err := storage.GetJSON(ctx, s.deps.Store, entities.PlanPath(term.Slug), &plan); err != nil {
		return nil, fmt.Errorf("failed to load plan for %s: %w", term.Slug, err)
	}
	return &plan, nil
}

// ValuationService maps the analysis blurb to a price range
type ValuationService struct {
	deps Deps
}

// NewValuationService creates a new valuation service
func NewValuationService(deps Deps) *ValuationService {
	return &ValuationService{deps: deps}
}

// Value writes analysis/valuation.json
func (s *ValuationService) Value(ctx context.Context, term entities.Term, opts StageOptions) (*entities.ValuationRange, bool, error) {
	ctx, span := observability.StartSpan(ctx, "services.valuation.value")
	defer span.End()

	path := entities.ValuationPath(term.Slug)
	var cached entities.ValuationRange
	if _, ok := s.deps.loadCached(ctx, entities.StageValuation, path, opts, &cached); ok {
		return &cached, true, nil
	}

	blurb, err := s.deps.Store.Get(ctx, entities.BlurbPath(term.Slug))
	if err != nil {
		return nil, false, fmt.Errorf("valuation needs the analysis blurb for %s: %w", term.Slug, err)
	}
	description := utils.FirstWords(blurb.Text(), BlurbWords)
	original := utils.WordCount(blurb.Text())

	res, err := policy.Call(ctx, s.deps.Gateway, policy.ValueRange,
		func(ctx context.Context, a providers.Adapters) providers.Result[entities.ValuationRange] {
			return a.Valuation.ValueRange(ctx, providers.ValuationRequest{Slug: term.Slug, Description: description})
		})
	if err != nil {
		observability.RecordError(span, err)
		return nil, false, fmt.Errorf("valuation for %s: %w", term.Slug, err)
	}

	v := res.Value
	v.Blurb = description
	if v.Source == "" {
		v.Source = res.Meta.Provider
	}
	meta := artifactMeta(term, "analysis.valuation", res.Meta)
	if original > BlurbWords {
		if meta.Extra == nil {
			meta.Extra = map[string]interface{}{}
		}
		meta.Extra[DescriptionClampedKey] = original
		observability.LoggerFromContext(ctx).Warn().
			Str("slug", term.Slug).
			Int("words", original).
			Msg("valuation description clamped")
	}
	if err := storage.PutJSON(ctx, s.deps.Store, path, v, meta); err != nil {
		return nil, false, fmt.Errorf("failed to store valuation for %s: %w", term.Slug, err)
	}
	return &v, false, nil
}

// Load reads the stored valuation, or returns NOT_FOUND
func (s *ValuationService) Load(ctx context.Context, term entities.Term) (*entities.ValuationRange, error) {
	var v entities.ValuationRange
	if _, err := storage.GetJSON(ctx, s.deps.Store, entities.ValuationPath(term.Slug), &v); err != nil {
		return nil, err
	}
	return &v, nil
}
