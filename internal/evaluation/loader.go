package evaluation

import (
	"encoding/json"
	"fmt"
	"os"
)

// Expectation lists editorial requirements for one article
type Expectation struct {
	Slug        string   `json:"slug"`
	MustMention []string `json:"must_mention"`
	MinWords    int      `json:"min_words,omitempty"`
}

// LoadExpectations reads and parses an expectation set from a JSON file.
func LoadExpectations(path string) ([]Expectation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read expectations file: %w", err)
	}

	var items []Expectation
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse expectations: %w", err)
	}

	return items, nil
}

// ValidateExpectations checks that every entry names a unique slug and something to verify.
func ValidateExpectations(items []Expectation) error {
	seen := make(map[string]struct{}, len(items))

	for i, e := range items {
		if e.Slug == "" {
			return fmt.Errorf("expectation at index %d: missing slug", i)
		}
		if _, dup := seen[e.Slug]; dup {
			return fmt.Errorf("expectation at index %d: duplicate slug %q", i, e.Slug)
		}
		seen[e.Slug] = struct{}{}

		if e.MinWords < 0 {
			return fmt.Errorf("expectation %q: negative min_words", e.Slug)
		}
		if len(e.MustMention) == 0 && e.MinWords == 0 {
			return fmt.Errorf("expectation %q: nothing to check", e.Slug)
		}
	}

	return nil
}

// IndexExpectations keys items by slug
func IndexExpectations(items []Expectation) map[string]Expectation {
	out := make(map[string]Expectation, len(items))
	for _, e := range items {
		out[e.Slug] = e
	}
	return out
}
