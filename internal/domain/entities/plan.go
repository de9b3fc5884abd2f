package entities

import "strings"

// Intent is a search-intent tag from a closed set
type Intent string

const (
	IntentInformational Intent = "informational"
	IntentCommercial    Intent = "commercial"
	IntentTransactional Intent = "transactional"
	IntentNavigational  Intent = "navigational"
)

// ParseIntent normalizes s into a known intent
func ParseIntent(s string) (Intent, bool) {
	switch Intent(strings.ToLower(strings.TrimSpace(s))) {
	case IntentInformational:
		return IntentInformational, true
	case IntentCommercial:
		return IntentCommercial, true
	case IntentTransactional:
		return IntentTransactional, true
	case IntentNavigational:
		return IntentNavigational, true
	}
	return "", false
}

// SnippetForm is the featured-snippet target shape
type SnippetForm string

const (
	SnippetParagraph SnippetForm = "paragraph"
	SnippetList      SnippetForm = "list"
	SnippetTable     SnippetForm = "table"
)

// ParseSnippetForm normalizes s into a known snippet form
func ParseSnippetForm(s string) (SnippetForm, bool) {
	switch SnippetForm(strings.ToLower(strings.TrimSpace(s))) {
	case SnippetParagraph:
		return SnippetParagraph, true
	case SnippetList:
		return SnippetList, true
	case SnippetTable:
		return SnippetTable, true
	}
	return "", false
}

// PlanSection is one outline entry
type PlanSection struct {
	Title       string   `json:"title"`
	KeyPoints   []string `json:"key_points"`
	Subsections []string `json:"subsections,omitempty"`
}

// SEOMetadata is the keyword targeting of a plan
type SEOMetadata struct {
	PrimaryKeyword    string      `json:"primary_keyword"`
	SecondaryKeywords []string    `json:"secondary_keywords,omitempty"`
	SnippetForm       SnippetForm `json:"snippet_form"`
	MetaDescription   string      `json:"meta_description,omitempty"`
}

// ArticlePlan is the analysis output for one term
type ArticlePlan struct {
	Term             string        `json:"term"`
	Slug             string        `json:"slug"`
	Title            string        `json:"title"`
	PrimaryIntent    Intent        `json:"primary_intent"`
	SecondaryIntents []Intent      `json:"secondary_intents,omitempty"`
	Audience         []string      `json:"audience,omitempty"`
	Sections         []PlanSection `json:"sections"`
	FAQ              []string      `json:"faq,omitempty"`
	SEO              SEOMetadata   `json:"seo"`
	Categories       []string      `json:"categories,omitempty"`
	Tags             []string      `json:"tags,omitempty"`
	RelatedTerms     []string      `json:"related_terms,omitempty"`
}

// ValuationRange maps a short description to a price band
type ValuationRange struct {
	Low      float64 `json:"low"`
	High     float64 `json:"high"`
	Currency string  `json:"currency"`
	Blurb    string  `json:"blurb"`
	Source   string  `json:"source,omitempty"`
}
