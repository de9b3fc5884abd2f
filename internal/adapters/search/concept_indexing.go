package search

import (
	"sort"
	"strings"

	"github.com/zatekoja/articleforge/internal/domain/entities"
)

const MaxIndexedTerms = 100

// ConceptFields are the secondary search fields derived from an article
type ConceptFields struct {
	Concepts  []string
	Headings  []string
	Questions []string
}

func BuildConceptFields(article *entities.ArticleRecord) ConceptFields {
	if article == nil {
		return ConceptFields{}
	}

	headingSet := make(map[string]struct{})
	questionSet := make(map[string]struct{})
	conceptSet := make(map[string]struct{})

	for _, s := range article.Sections {
		add(headingSet, s.Heading)
		for _, sub := range s.Subsections {
			add(headingSet, sub.Heading)
		}
		for _, f := range s.FAQ {
			add(questionSet, f.Question)
		}
	}
	for _, f := range article.FAQ {
		add(questionSet, f.Question)
	}

	// Everything a reader might search for besides the body
	add(conceptSet, article.Term)
	add(conceptSet, article.Keywords...)
	add(conceptSet, article.RelatedTerms...)
	add(conceptSet, article.Categories...)
	add(conceptSet, article.Tags...)
	for _, l := range article.InternalLinks {
		add(conceptSet, l.Anchor)
	}

	return ConceptFields{
		Headings:  toSlice(headingSet, MaxIndexedTerms),
		Questions: toSlice(questionSet, MaxIndexedTerms),
		Concepts:  toSlice(conceptSet, MaxIndexedTerms*2), // Allow more for general bag
	}
}

func add(set map[string]struct{}, terms ...string) {
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			set[t] = struct{}{}
		}
	}
}

// toSlice returns the set sorted so documents are stable across re-indexing
func toSlice(set map[string]struct{}, limit int) []string {
	result := make([]string, 0, len(set))
	for k := range set {
		result = append(result, k)
	}
	sort.Strings(result)
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}
