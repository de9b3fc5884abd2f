package evaluation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zatekoja/articleforge/internal/domain/entities"
)

func codes(findings []Finding) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.Code)
	}
	return out
}

func TestGuardrails_Defaults(t *testing.T) {
	g := NewGuardrails(GuardrailConfig{})

	assert.Equal(t, 600, g.config.MinWords)
	assert.Equal(t, 0.01, g.config.DensityMin)
	assert.Equal(t, 0.03, g.config.DensityMax)
	assert.Equal(t, 3, g.config.MinFAQ)
}

func TestGuardrails_CleanArticle(t *testing.T) {
	g := NewGuardrails(GuardrailConfig{MinWords: 100, MinFAQ: 1})
	res := &AuditResult{WordCount: 150, Density: 0.02, FAQCount: 2}
	article := &entities.ArticleRecord{Title: "Antique Lamps", MetaDescription: "A short guide."}

	g.Check(res, article)

	assert.Empty(t, res.Findings)
	assert.True(t, res.Passed())
}

func TestGuardrails_ReportsEveryViolation(t *testing.T) {
	g := NewGuardrails(GuardrailConfig{MinWords: 100, MinFAQ: 2, MaxTitleLength: 10})
	res := &AuditResult{WordCount: 40, Density: 0.2, FAQCount: 0}
	article := &entities.ArticleRecord{Title: "A title that is far too long", MetaDescription: strings.Repeat("x", 200)}

	g.Check(res, article)

	assert.ElementsMatch(t,
		[]string{CodeThinContent, CodeDensityHigh, CodeFewFAQ, CodeTitleLength, CodeDescriptionLength},
		codes(res.Findings))
	assert.False(t, res.Passed(), "density violations are errors")
}

func TestGuardrails_LowDensity(t *testing.T) {
	g := NewGuardrails(GuardrailConfig{MinWords: 1, MinFAQ: 1})
	res := &AuditResult{WordCount: 10, Density: 0.001, FAQCount: 1}

	g.Check(res, &entities.ArticleRecord{Title: "t", MetaDescription: "d"})

	assert.Equal(t, []string{CodeDensityLow}, codes(res.Findings))
}
