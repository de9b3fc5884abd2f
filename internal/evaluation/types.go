package evaluation

// Severity grades an audit finding
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Finding codes reported by the guardrails and the runner
const (
	CodeMissingArticle    = "missing_article"
	CodeFrontMatter       = "front_matter"
	CodeThinContent       = "thin_content"
	CodeDensityLow        = "density_low"
	CodeDensityHigh       = "density_high"
	CodeFewFAQ            = "few_faq"
	CodeTitleLength       = "title_length"
	CodeDescriptionLength = "description_length"
	CodeMissingMention    = "missing_mention"
	CodeResearchMissing   = "research_missing"
)

// Finding is one guardrail observation about an article
type Finding struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}

// AuditResult holds the analytic outcome for a single article.
type AuditResult struct {
	Slug         string `json:"slug"`
	Term         string `json:"term"`
	WordCount    int    `json:"word_count"`
	HeadingCount int    `json:"heading_count"`
	SectionCount int    `json:"section_count"`
	FAQCount     int    `json:"faq_count"`

	Density         float64 `json:"density"`
	RelatedCoverage float64 `json:"related_coverage"` // share of related keywords mentioned in the body
	FAQCoverage     float64 `json:"faq_coverage"`     // share of PAA questions answered in the FAQ
	HeadingMRR      float64 `json:"heading_mrr"`      // reciprocal rank of the first heading carrying the term

	Findings []Finding `json:"findings,omitempty"`
}

// Passed reports whether the article has no error-level findings
func (r AuditResult) Passed() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return false
		}
	}
	return true
}

func (r *AuditResult) add(sev Severity, code, msg string) {
	r.Findings = append(r.Findings, Finding{Severity: sev, Code: code, Message: msg})
}

// AuditSummary holds aggregate metrics across every audited article.
type AuditSummary struct {
	Total              int            `json:"total"`
	Passed             int            `json:"passed"`
	AvgWordCount       float64        `json:"avg_word_count"`
	AvgDensity         float64        `json:"avg_density"`
	AvgRelatedCoverage float64        `json:"avg_related_coverage"`
	AvgFAQCoverage     float64        `json:"avg_faq_coverage"`
	AvgHeadingMRR      float64        `json:"avg_heading_mrr"`
	ByFinding          map[string]int `json:"by_finding"`
	Results            []AuditResult  `json:"results"`
}
