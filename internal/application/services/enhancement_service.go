package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/zatekoja/articleforge/internal/adapters/storage"
	"github.com/zatekoja/articleforge/internal/application/policy"
	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
	"github.com/zatekoja/articleforge/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/articleforge/pkg/errors"
	"github.com/zatekoja/articleforge/pkg/utils"
)

// EnhancementConfig bounds section expansion
type EnhancementConfig struct {
	MinWords    int
	MaxWords    int
	Concurrency int
	// Images enables the featured image call
	Images    bool
	ImageSize string
}

// EnhancementService expands a plan into long-form prose
type EnhancementService struct {
	deps Deps
	cfg  EnhancementConfig
}

// NewEnhancementService creates a new enhancer
func NewEnhancementService(deps Deps, cfg EnhancementConfig) *EnhancementService {
	if cfg.MinWords <= 0 {
		cfg.MinWords = 120
	}
	if cfg.MaxWords < cfg.MinWords {
		cfg.MaxWords = 400
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &EnhancementService{deps: deps, cfg: cfg}
}

// sectionJob is one write_sections call; index is the position in the final article
type sectionJob struct {
	index int
	req   providers.WriteRequest
}

type sectionOutput struct {
	section providers.WrittenSection
	meta    providers.ResultMeta
}

// Enhance writes enhanced.json. Sections are written concurrently and assembled in plan order.
func (s *EnhancementService) Enhance(ctx context.Context, term entities.Term, plan *entities.ArticlePlan, valuation *entities.ValuationRange, opts StageOptions) (*entities.ArticleRecord, bool, error) {
	ctx, span := observability.StartSpan(ctx, "services.enhancement.enhance")
	defer span.End()
	logger := observability.LoggerFromContext(ctx).With().Str("slug", term.Slug).Logger()

	path := entities.EnhancedPath(term.Slug)
	var cached entities.ArticleRecord
	if _, ok := s.deps.loadCached(ctx, entities.StageEnhancement, path, opts, &cached); ok {
		return &cached, true, nil
	}
	if plan == nil || len(plan.Sections) == 0 {
		return nil, false, apperrors.NewValidationError("plan for " + term.Slug + " has no sections")
	}

	keyword := plan.SEO.PrimaryKeyword
	if keyword == "" {
		keyword = strings.ToLower(term.Raw)
	}
	base := providers.WriteRequest{
		Slug:           term.Slug,
		Term:           term.Raw,
		PrimaryKeyword: keyword,
		MinWords:       s.cfg.MinWords,
		MaxWords:       s.cfg.MaxWords,
		Valuation:      valuation,
	}

	jobs := []sectionJob{}
	intro := base
	intro.Kind = providers.SectionKindIntro
	intro.Heading = "Introduction"
	intro.KeyPoints = plan.Audience
	jobs = append(jobs, sectionJob{index: 0, req: intro})
	for i, sec := range plan.Sections {
		req := base
		req.Kind = providers.SectionKindSection
		req.Heading = sec.Title
		req.KeyPoints = sec.KeyPoints
		req.Subsections = sec.Subsections
		jobs = append(jobs, sectionJob{index: i + 1, req: req})
	}
	if len(plan.FAQ) > 0 {
		faq := base
		faq.Kind = providers.SectionKindFAQ
		faq.Heading = "Frequently Asked Questions"
		faq.Questions = plan.FAQ
		faq.Valuation = nil
		jobs = append(jobs, sectionJob{index: len(plan.Sections) + 1, req: faq})
	}

	outputs := make([]*sectionOutput, len(jobs))
	var image *providers.Result[entities.ImageRef]

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			out, err := s.write(gctx, job.req)
			if err != nil {
				return fmt.Errorf("%s section %q: %w", job.req.Kind, job.req.Heading, err)
			}
			outputs[job.index] = out
			return nil
		})
	}
	if s.cfg.Images {
		g.Go(func() error {
			res, err := policy.Call(gctx, s.deps.Gateway, policy.GenerateImage,
				func(ctx context.Context, a providers.Adapters) providers.Result[entities.ImageRef] {
					return a.Images.GenerateImage(ctx, providers.ImageRequest{
						Slug:   term.Slug,
						Term:   term.Raw,
						Prompt: fmt.Sprintf("Editorial photograph illustrating %s", term.Raw),
						Size:   s.cfg.ImageSize,
					})
				})
			if err != nil {
				if apperrors.Is(err, apperrors.ErrorTypeCancelled) {
					return err
				}
				logger.Warn().Err(err).Msg("featured image unavailable, continuing without it")
				return nil
			}
			image = &res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		observability.RecordError(span, err)
		return nil, false, err
	}

	article := &entities.ArticleRecord{
		Term:            term.Raw,
		Slug:            term.Slug,
		Title:           plan.Title,
		MetaDescription: plan.SEO.MetaDescription,
		Keywords:        utils.UniqueStrings(append([]string{keyword}, plan.SEO.SecondaryKeywords...)),
		Categories:      plan.Categories,
		Tags:            plan.Tags,
		Valuation:       valuation,
		RelatedTerms:    plan.RelatedTerms,
	}
	if article.Title == "" {
		article.Title = term.DisplayTitle()
	}
	article.Provenance = s.upstreamProvenance(ctx, term)

	for i, out := range outputs {
		switch {
		case i == 0:
			article.Introduction = out.section.Body
		case jobs[i].req.Kind == providers.SectionKindFAQ:
			article.FAQ = out.section.FAQ
		default:
			article.Sections = append(article.Sections, entities.ArticleSection{
				Heading:     out.section.Heading,
				Body:        out.section.Body,
				Subsections: out.section.Subsections,
				FAQ:         out.section.FAQ,
			})
		}
	}
	article.Provenance = append(article.Provenance, provenance(entities.StageEnhancement, outputs[0].meta))
	if valuation != nil {
		article.Provenance = append(article.Provenance, entities.ProvenanceEntry{
			Stage: entities.StageValuation, Endpoint: providers.EndpointValueRange, Provider: valuation.Source,
		})
	}
	if image != nil {
		img := image.Value
		if img.Alt == "" {
			img.Alt = article.Title
		}
		article.Images = []entities.ImageRef{img}
		article.Provenance = append(article.Provenance, provenance(entities.StageEnhancement, image.Meta))
	}

	meta := entities.ArtifactMeta{
		Term:     term.Raw,
		Type:     "enhanced",
		Provider: outputs[0].meta.Provider,
		Mock:     anyMock(article.Provenance),
		Extra:    map[string]interface{}{"sections": len(article.Sections), "valuation": valuation != nil},
	}
	if err := storage.PutJSON(ctx, s.deps.Store, path, article, meta); err != nil {
		return nil, false, fmt.Errorf("failed to store enhanced article for %s: %w", term.Slug, err)
	}
	logger.Info().Int("sections", len(article.Sections)).Bool("valuation", valuation != nil).Msg("article enhanced")
	return article, false, nil
}

// write runs one write_sections call, asking once for a longer rewrite when the body is short
func (s *EnhancementService) write(ctx context.Context, req providers.WriteRequest) (*sectionOutput, error) {
	call := func(req providers.WriteRequest) (providers.Result[providers.WrittenSection], error) {
		return policy.Call(ctx, s.deps.Gateway, policy.WriteSections,
			func(ctx context.Context, a providers.Adapters) providers.Result[providers.WrittenSection] {
				return a.Generative.WriteSections(ctx, req)
			})
	}

	res, err := call(req)
	if err != nil {
		return nil, err
	}
	if req.Kind == providers.SectionKindFAQ {
		if len(res.Value.FAQ) == 0 {
			return nil, apperrors.NewValidationError("faq section came back without entries")
		}
		return &sectionOutput{section: res.Value, meta: res.Meta}, nil
	}

	if utils.WordCount(res.Value.Body) < req.MinWords {
		expand := req
		expand.Expand = true
		res, err = call(expand)
		if err != nil {
			return nil, err
		}
		if n := utils.WordCount(res.Value.Body); n < req.MinWords {
			return nil, (&apperrors.AppError{
				Type:    apperrors.ErrorTypeValidation,
				Message: fmt.Sprintf("section %q has %d words, minimum is %d", req.Heading, n, req.MinWords),
			}).WithReason("section_length")
		}
	}
	if utils.WordCount(res.Value.Body) > req.MaxWords {
		res.Value.Body = utils.TruncateWords(res.Value.Body, req.MaxWords)
	}
	if res.Value.Heading == "" {
		res.Value.Heading = req.Heading
	}
	return &sectionOutput{section: res.Value, meta: res.Meta}, nil
}

// upstreamProvenance reads the sidecars of the research and analysis artifacts
func (s *EnhancementService) upstreamProvenance(ctx context.Context, term entities.Term) []entities.ProvenanceEntry {
	sources := []struct {
		stage    entities.Stage
		endpoint string
		path     string
	}{
		{entities.StageResearch, providers.EndpointKeywordMetrics, entities.ResearchPath(term.Slug, entities.ResearchKeyword)},
		{entities.StageResearch, providers.EndpointRelatedKeywords, entities.ResearchPath(term.Slug, entities.ResearchRelated)},
		{entities.StageResearch, providers.EndpointSERPResults, entities.ResearchPath(term.Slug, entities.ResearchSERP)},
		{entities.StageResearch, providers.EndpointPAAQuestions, entities.ResearchPath(term.Slug, entities.ResearchPAA)},
		{entities.StageResearch, providers.EndpointTopicExpansion, entities.ResearchPath(term.Slug, entities.ResearchExpansion)},
		{entities.StageAnalysis, providers.EndpointPlanArticle, entities.PlanPath(term.Slug)},
	}
	var out []entities.ProvenanceEntry
	for _, src := range sources {
		artifact, err := s.deps.Store.Get(ctx, src.path)
		if err != nil {
			continue
		}
		out = append(out, entities.ProvenanceEntry{
			Stage:    src.stage,
			Endpoint: src.endpoint,
			Provider: artifact.Meta.Provider,
			Mock:     artifact.Meta.Mock,
		})
	}
	return out
}

// Load reads the stored enhanced article
func (s *EnhancementService) Load(ctx context.Context, term entities.Term) (*entities.ArticleRecord, error) {
	var a entities.ArticleRecord
	if _, err := storage.GetJSON(ctx, s.deps.Store, entities.EnhancedPath(term.Slug), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func anyMock(entries []entities.ProvenanceEntry) bool {
	for _, e := range entries {
		if e.Mock {
			return true
		}
	}
	return false
}
