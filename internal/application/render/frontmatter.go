package render

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/zatekoja/articleforge/pkg/errors"
)

// Header is the parsed front matter of a rendered article
type Header struct {
	Title         string    `yaml:"title"`
	Date          time.Time `yaml:"date"`
	LastMod       time.Time `yaml:"lastmod"`
	Draft         bool      `yaml:"draft"`
	Slug          string    `yaml:"slug"`
	Description   string    `yaml:"description"`
	Keywords      []string  `yaml:"keywords"`
	Categories    []string  `yaml:"categories"`
	Tags          []string  `yaml:"tags"`
	FeaturedImage string    `yaml:"featured_image"`

	// Order is the field order as it appeared in the document
	Order []string `yaml:"-"`
}

// ParseFrontMatter splits a document into its header and body
func ParseFrontMatter(doc []byte) (*Header, string, error) {
	doc = bytes.TrimPrefix(doc, []byte("\ufeff"))
	open := []byte(delimiter + "\n")
	if !bytes.HasPrefix(doc, open) {
		return nil, "", apperrors.NewValidationError("document does not start with a front-matter delimiter")
	}
	rest := doc[len(open):]
	end := bytes.Index(rest, []byte("\n"+delimiter+"\n"))
	if end < 0 {
		return nil, "", apperrors.NewValidationError("front matter is not terminated")
	}
	raw := rest[:end+1]
	body := rest[end+len(delimiter)+2:]

	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, "", apperrors.NewValidationError(fmt.Sprintf("front matter is not valid YAML: %v", err))
	}
	h := &Header{}
	if err := node.Decode(h); err != nil {
		return nil, "", apperrors.NewValidationError(fmt.Sprintf("front matter has unexpected shape: %v", err))
	}
	if len(node.Content) == 1 && node.Content[0].Kind == yaml.MappingNode {
		m := node.Content[0]
		for i := 0; i+1 < len(m.Content); i += 2 {
			h.Order = append(h.Order, m.Content[i].Value)
		}
	}
	return h, strings.TrimPrefix(string(body), "\n"), nil
}

// Validate checks that every field is present in the expected order
func (h *Header) Validate() error {
	if len(h.Order) != len(FrontMatterFields) {
		return apperrors.NewValidationError(fmt.Sprintf("front matter has %d fields, want %d", len(h.Order), len(FrontMatterFields)))
	}
	for i, name := range FrontMatterFields {
		if h.Order[i] != name {
			return apperrors.NewValidationError(fmt.Sprintf("front matter field %d is %q, want %q", i, h.Order[i], name))
		}
	}
	if h.Slug == "" || h.Title == "" {
		return apperrors.NewValidationError("front matter is missing title or slug")
	}
	return nil
}
