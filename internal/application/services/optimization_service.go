package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/zatekoja/articleforge/internal/adapters/storage"
	"github.com/zatekoja/articleforge/internal/application/policy"
	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
	"github.com/zatekoja/articleforge/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/articleforge/pkg/errors"
	"github.com/zatekoja/articleforge/pkg/utils"
)

// ReasonSEODensity marks a density band violation
const ReasonSEODensity = "seo_density"

// OptimizationConfig sets the SEO band
type OptimizationConfig struct {
	DensityMin float64
	DensityMax float64
	MaxLinks   int
}

// OptimizationService runs the SEO refinement pass
type OptimizationService struct {
	deps Deps
	cfg  OptimizationConfig
}

// NewOptimizationService creates a new optimizer
func NewOptimizationService(deps Deps, cfg OptimizationConfig) *OptimizationService {
	if cfg.DensityMin <= 0 {
		cfg.DensityMin = 0.01
	}
	if cfg.DensityMax <= cfg.DensityMin {
		cfg.DensityMax = 0.03
	}
	if cfg.MaxLinks <= 0 {
		cfg.MaxLinks = 3
	}
	return &OptimizationService{deps: deps, cfg: cfg}
}

// defaultCTA closes an article when the model did not supply one
func defaultCTA(keyword string) string {
	return fmt.Sprintf("Have a question about %s? Get in touch and we will help you take the next step.", keyword)
}

// Optimize writes optimized.json, or fails with POLICY_VIOLATION seo_density when the
// refined article leaves the density band.
func (s *OptimizationService) Optimize(ctx context.Context, term entities.Term, enhanced *entities.ArticleRecord, plan *entities.ArticlePlan, opts StageOptions) (*entities.ArticleRecord, bool, error) {
	ctx, span := observability.StartSpan(ctx, "services.optimization.optimize")
	defer span.End()

	path := entities.OptimizedPath(term.Slug)
	var cached entities.ArticleRecord
	if _, ok := s.deps.loadCached(ctx, entities.StageOptimization, path, opts, &cached); ok {
		return &cached, true, nil
	}
	if enhanced == nil {
		return nil, false, apperrors.NewInternalError("optimization requires the enhanced article", nil)
	}

	keyword := strings.ToLower(term.Raw)
	var secondary []string
	if plan != nil {
		if plan.SEO.PrimaryKeyword != "" {
			keyword = strings.ToLower(utils.NormalizeWhitespace(plan.SEO.PrimaryKeyword))
		}
		secondary = plan.SEO.SecondaryKeywords
	}
	candidates := linkCandidates(ctx, s.deps.Store, term.Slug, 20)

	res, err := policy.Call(ctx, s.deps.Gateway, policy.SEOPass,
		func(ctx context.Context, a providers.Adapters) providers.Result[entities.ArticleRecord] {
			return a.Generative.SEOPass(ctx, providers.SEORequest{
				Slug:              term.Slug,
				Article:           *enhanced,
				PrimaryKeyword:    keyword,
				SecondaryKeywords: secondary,
				DensityMin:        s.cfg.DensityMin,
				DensityMax:        s.cfg.DensityMax,
				LinkCandidates:    candidates,
			})
		})
	if err != nil {
		observability.RecordError(span, err)
		return nil, false, fmt.Errorf("seo pass for %s: %w", term.Slug, err)
	}

	article := res.Value
	s.enforce(&article, enhanced, keyword, candidates)
	article.Provenance = append(append([]entities.ProvenanceEntry(nil), enhanced.Provenance...),
		provenance(entities.StageOptimization, res.Meta))

	density := utils.KeywordDensity(article.BodyText(), keyword)
	if density < s.cfg.DensityMin || density > s.cfg.DensityMax {
		err := apperrors.NewPolicyViolationError(
			fmt.Sprintf("keyword %q density %.4f outside [%.2f, %.2f]", keyword, density, s.cfg.DensityMin, s.cfg.DensityMax),
			ReasonSEODensity,
		)
		observability.RecordError(span, err)
		return nil, false, err
	}

	meta := artifactMeta(term, "optimized", res.Meta)
	meta.Mock = anyMock(article.Provenance)
	if meta.Extra == nil {
		meta.Extra = map[string]interface{}{}
	}
	meta.Extra["density"] = density
	if err := storage.PutJSON(ctx, s.deps.Store, path, article, meta); err != nil {
		return nil, false, fmt.Errorf("failed to store optimized article for %s: %w", term.Slug, err)
	}
	observability.LoggerFromContext(ctx).Info().
		Str("slug", term.Slug).
		Float64("density", density).
		Int("internal_links", len(article.InternalLinks)).
		Msg("article optimized")
	return &article, false, nil
}

// enforce applies the structural rules the model may have missed
func (s *OptimizationService) enforce(a *entities.ArticleRecord, enhanced *entities.ArticleRecord, keyword string, candidates []entities.InternalLink) {
	a.Term = enhanced.Term
	a.Slug = enhanced.Slug
	if len(a.Images) == 0 {
		a.Images = enhanced.Images
	}
	if a.Valuation == nil {
		a.Valuation = enhanced.Valuation
	}

	display := utils.TitleCase(keyword)
	if !utils.ContainsPhrase(a.Title, keyword) {
		a.Title = display + ": " + a.Title
	}
	if !utils.ContainsPhrase(a.MetaDescription, keyword) {
		a.MetaDescription = strings.TrimSpace(display + ". " + a.MetaDescription)
	}
	a.CTA = utils.NormalizeWhitespace(a.CTA)
	if a.CTA == "" {
		a.CTA = defaultCTA(keyword)
	}

	allowed := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		allowed[c.Slug] = struct{}{}
	}
	var links []entities.InternalLink
	seen := map[string]struct{}{}
	for _, l := range a.InternalLinks {
		if _, ok := allowed[l.Slug]; !ok {
			continue
		}
		if _, dup := seen[l.Slug]; dup {
			continue
		}
		seen[l.Slug] = struct{}{}
		links = append(links, l)
		if len(links) == s.cfg.MaxLinks {
			break
		}
	}
	a.InternalLinks = links

	a.Keywords = utils.UniqueStrings(append([]string{keyword}, a.Keywords...))
}

// Load reads the stored optimized article
func (s *OptimizationService) Load(ctx context.Context, term entities.Term) (*entities.ArticleRecord, error) {
	var a entities.ArticleRecord
	if _, err := storage.GetJSON(ctx, s.deps.Store, entities.OptimizedPath(term.Slug), &a); err != nil {
		return nil, err
	}
	return &a, nil
}
