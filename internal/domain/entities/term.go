package entities

import (
	"strings"

	apperrors "github.com/zatekoja/articleforge/pkg/errors"
	"github.com/zatekoja/articleforge/pkg/utils"
)

// Term is the unit of work: a human-entered search phrase and its canonical slug
type Term struct {
	Raw   string `json:"raw"`
	Slug  string `json:"slug"`
	Title string `json:"title,omitempty"`
}

// NewTerm normalizes raw text into a Term. The slug is a pure function of raw.
func NewTerm(raw string) (Term, error) {
	normalized := utils.NormalizeWhitespace(raw)
	slug := utils.Slugify(normalized)
	if slug == "" {
		return Term{}, apperrors.NewValidationError("term must contain at least one letter or digit")
	}
	return Term{
		Raw:   normalized,
		Slug:  slug,
		Title: utils.TitleCase(strings.ToLower(normalized)),
	}, nil
}

// DisplayTitle returns the title, falling back to the raw text
func (t Term) DisplayTitle() string {
	if t.Title != "" {
		return t.Title
	}
	return t.Raw
}
