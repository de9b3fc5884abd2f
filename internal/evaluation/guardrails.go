package evaluation

import (
	"fmt"
	"unicode/utf8"

	"github.com/zatekoja/articleforge/internal/domain/entities"
)

type GuardrailConfig struct {
	MinWords             int
	DensityMin           float64
	DensityMax           float64
	MinFAQ               int
	MaxTitleLength       int
	MaxDescriptionLength int
}

type Guardrails struct {
	config GuardrailConfig
}

func NewGuardrails(config GuardrailConfig) *Guardrails {
	if config.MinWords <= 0 {
		config.MinWords = 600
	}
	if config.DensityMin <= 0 {
		config.DensityMin = 0.01
	}
	if config.DensityMax <= config.DensityMin {
		config.DensityMax = 0.03
	}
	if config.MinFAQ <= 0 {
		config.MinFAQ = 3
	}
	if config.MaxTitleLength <= 0 {
		config.MaxTitleLength = 70
	}
	if config.MaxDescriptionLength <= 0 {
		config.MaxDescriptionLength = 160
	}
	return &Guardrails{config: config}
}

// Check appends findings for every threshold the article misses
func (g *Guardrails) Check(res *AuditResult, article *entities.ArticleRecord) {
	if res.WordCount < g.config.MinWords {
		res.add(SeverityWarning, CodeThinContent,
			fmt.Sprintf("%d words, want at least %d", res.WordCount, g.config.MinWords))
	}
	if res.Density < g.config.DensityMin {
		res.add(SeverityError, CodeDensityLow,
			fmt.Sprintf("keyword density %.4f below %.2f", res.Density, g.config.DensityMin))
	}
	if res.Density > g.config.DensityMax {
		res.add(SeverityError, CodeDensityHigh,
			fmt.Sprintf("keyword density %.4f above %.2f", res.Density, g.config.DensityMax))
	}
	if res.FAQCount < g.config.MinFAQ {
		res.add(SeverityWarning, CodeFewFAQ,
			fmt.Sprintf("%d FAQ entries, want at least %d", res.FAQCount, g.config.MinFAQ))
	}
	if n := utf8.RuneCountInString(article.Title); n > g.config.MaxTitleLength {
		res.add(SeverityWarning, CodeTitleLength,
			fmt.Sprintf("title is %d characters, limit %d", n, g.config.MaxTitleLength))
	}
	if n := utf8.RuneCountInString(article.MetaDescription); n == 0 || n > g.config.MaxDescriptionLength {
		res.add(SeverityWarning, CodeDescriptionLength,
			fmt.Sprintf("meta description is %d characters, limit %d", n, g.config.MaxDescriptionLength))
	}
}
