package evaluation

import (
	"context"
	"fmt"
	"strings"

	"github.com/zatekoja/articleforge/internal/adapters/storage"
	"github.com/zatekoja/articleforge/internal/application/render"
	"github.com/zatekoja/articleforge/internal/application/services"
	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
	"github.com/zatekoja/articleforge/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/articleforge/pkg/errors"
	"github.com/zatekoja/articleforge/pkg/utils"
)

// relatedDepth caps how many related keywords are checked for coverage
const relatedDepth = 10

// Runner audits completed articles read back from the artifact store.
type Runner struct {
	store      providers.ArtifactStore
	guardrails *Guardrails
}

func NewRunner(store providers.ArtifactStore, guardrails *Guardrails) *Runner {
	if guardrails == nil {
		guardrails = NewGuardrails(GuardrailConfig{})
	}
	return &Runner{store: store, guardrails: guardrails}
}

// Run audits slugs, or every rendered article when slugs is empty
func (r *Runner) Run(ctx context.Context, slugs []string, expectations map[string]Expectation) (*AuditSummary, error) {
	if len(slugs) == 0 {
		all, err := services.ListArticles(ctx, r.store)
		if err != nil {
			return nil, fmt.Errorf("failed to list articles: %w", err)
		}
		slugs = all
	}

	summary := &AuditSummary{
		Total:     len(slugs),
		ByFinding: make(map[string]int),
		Results:   make([]AuditResult, 0, len(slugs)),
	}

	for _, slug := range slugs {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.NewCancelledError("audit interrupted", err)
		}
		res, err := r.audit(ctx, slug, expectations[slug])
		if err != nil {
			return nil, err
		}
		r.updateSummary(summary, res)
	}

	r.finalizeSummary(summary)
	return summary, nil
}

func (r *Runner) audit(ctx context.Context, slug string, expect Expectation) (AuditResult, error) {
	res := AuditResult{Slug: slug}

	var article entities.ArticleRecord
	if _, err := storage.GetJSON(ctx, r.store, entities.OptimizedPath(slug), &article); err != nil {
		if apperrors.Is(err, apperrors.ErrorTypeNotFound) {
			res.add(SeverityError, CodeMissingArticle, "no optimized article stored")
			return res, nil
		}
		return res, fmt.Errorf("failed to load article %s: %w", slug, err)
	}
	res.Term = article.Term

	r.checkFrontMatter(ctx, &res)

	body := article.BodyText()
	res.WordCount = utils.WordCount(body)
	res.SectionCount = len(article.Sections)
	res.FAQCount = len(article.FAQ)
	headings := make([]string, 0, len(article.Sections))
	for _, s := range article.Sections {
		headings = append(headings, s.Heading)
		for _, sub := range s.Subsections {
			headings = append(headings, sub.Heading)
		}
		res.FAQCount += len(s.FAQ)
	}
	res.HeadingCount = len(headings)
	res.Density = utils.KeywordDensity(body, article.Term)
	res.HeadingMRR = MRRAtK([]string{normalize(article.Term)}, mentions(headings, article.Term), len(headings))

	r.coverage(ctx, &res, &article, body)
	r.guardrails.Check(&res, &article)

	if expect.MinWords > 0 && res.WordCount < expect.MinWords {
		res.add(SeverityError, CodeThinContent,
			fmt.Sprintf("%d words, expected at least %d", res.WordCount, expect.MinWords))
	}
	for _, phrase := range expect.MustMention {
		if !utils.ContainsPhrase(body, phrase) {
			res.add(SeverityError, CodeMissingMention, fmt.Sprintf("body never mentions %q", phrase))
		}
	}

	observability.LoggerFromContext(ctx).Debug().
		Str("slug", slug).
		Int("words", res.WordCount).
		Int("findings", len(res.Findings)).
		Msg("article audited")
	return res, nil
}

func (r *Runner) checkFrontMatter(ctx context.Context, res *AuditResult) {
	doc, err := r.store.Get(ctx, entities.ArticlePath(res.Slug))
	if err != nil {
		res.add(SeverityError, CodeFrontMatter, "rendered article is unreadable: "+err.Error())
		return
	}
	header, _, err := render.ParseFrontMatter(doc.Payload)
	if err == nil {
		err = header.Validate()
	}
	if err != nil {
		res.add(SeverityError, CodeFrontMatter, err.Error())
	}
}

// coverage compares the article against the stored research, which may be partial
func (r *Runner) coverage(ctx context.Context, res *AuditResult, article *entities.ArticleRecord, body string) {
	var related entities.RelatedKeywords
	if _, err := storage.GetJSON(ctx, r.store, entities.ResearchPath(res.Slug, entities.ResearchRelated), &related); err == nil {
		var terms []string
		for _, item := range related.Items {
			terms = append(terms, normalize(item.Keyword))
		}
		if len(terms) > relatedDepth {
			terms = terms[:relatedDepth]
		}
		var found []string
		for _, t := range terms {
			if utils.ContainsPhrase(body, t) {
				found = append(found, t)
			}
		}
		res.RelatedCoverage = RecallAtK(terms, found, len(found))
	} else {
		res.add(SeverityWarning, CodeResearchMissing, "related keywords unavailable")
	}

	var paa entities.PAAQuestions
	if _, err := storage.GetJSON(ctx, r.store, entities.ResearchPath(res.Slug, entities.ResearchPAA), &paa); err == nil {
		questions := make([]string, 0, len(paa.Questions))
		for _, q := range paa.Questions {
			questions = append(questions, normalize(q.Question))
		}
		var answered []string
		for _, f := range article.FAQ {
			answered = append(answered, normalize(f.Question))
		}
		for _, s := range article.Sections {
			for _, f := range s.FAQ {
				answered = append(answered, normalize(f.Question))
			}
		}
		res.FAQCoverage = RecallAtK(questions, answered, len(answered))
	} else {
		res.add(SeverityWarning, CodeResearchMissing, "people-also-ask questions unavailable")
	}
}

func (r *Runner) updateSummary(s *AuditSummary, res AuditResult) {
	s.Results = append(s.Results, res)
	s.AvgWordCount += float64(res.WordCount)
	s.AvgDensity += res.Density
	s.AvgRelatedCoverage += res.RelatedCoverage
	s.AvgFAQCoverage += res.FAQCoverage
	s.AvgHeadingMRR += res.HeadingMRR
	if res.Passed() {
		s.Passed++
	}
	for _, f := range res.Findings {
		s.ByFinding[f.Code]++
	}
}

func (r *Runner) finalizeSummary(s *AuditSummary) {
	if s.Total == 0 {
		return
	}
	n := float64(s.Total)
	s.AvgWordCount /= n
	s.AvgDensity /= n
	s.AvgRelatedCoverage /= n
	s.AvgFAQCoverage /= n
	s.AvgHeadingMRR /= n
}

func normalize(s string) string {
	return strings.Join(utils.Tokens(s), " ")
}

// mentions maps each heading to the normalized term when it carries it
func mentions(headings []string, term string) []string {
	key := normalize(term)
	out := make([]string, len(headings))
	for i, h := range headings {
		if utils.ContainsPhrase(h, term) {
			out[i] = key
		} else {
			out[i] = normalize(h)
		}
	}
	return out
}
