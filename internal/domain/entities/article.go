package entities

// ArticleSubsection is an H3 block under a section
type ArticleSubsection struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// FAQEntry is one question and answer
type FAQEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ArticleSection is an H2 block
type ArticleSection struct {
	Heading     string              `json:"heading"`
	Body        string              `json:"body"`
	Subsections []ArticleSubsection `json:"subsections,omitempty"`
	FAQ         []FAQEntry          `json:"faq,omitempty"`
}

// ImageRef references a generated image
type ImageRef struct {
	URL    string `json:"url"`
	Alt    string `json:"alt,omitempty"`
	Prompt string `json:"prompt,omitempty"`
}

// InternalLink is an anchor suggestion pointing at another article
type InternalLink struct {
	Anchor string `json:"anchor"`
	Slug   string `json:"slug"`
}

// ProvenanceEntry records which provider contributed to a stage
type ProvenanceEntry struct {
	Stage    Stage  `json:"stage"`
	Endpoint string `json:"endpoint"`
	Provider string `json:"provider,omitempty"`
	Mock     bool   `json:"mock,omitempty"`
}

// ArticleRecord is the composed article handed to the renderer
type ArticleRecord struct {
	Term            string            `json:"term"`
	Slug            string            `json:"slug"`
	Title           string            `json:"title"`
	MetaDescription string            `json:"meta_description"`
	Introduction    string            `json:"introduction"`
	Sections        []ArticleSection  `json:"sections"`
	FAQ             []FAQEntry        `json:"faq,omitempty"`
	Keywords        []string          `json:"keywords,omitempty"`
	Categories      []string          `json:"categories,omitempty"`
	Tags            []string          `json:"tags,omitempty"`
	Images          []ImageRef        `json:"images,omitempty"`
	Valuation       *ValuationRange   `json:"valuation,omitempty"`
	InternalLinks   []InternalLink    `json:"internal_links,omitempty"`
	RelatedTerms    []string          `json:"related_terms,omitempty"`
	CTA             string            `json:"cta,omitempty"`
	Provenance      []ProvenanceEntry `json:"provenance,omitempty"`
}

// FeaturedImage returns the first image URL, if any
func (a *ArticleRecord) FeaturedImage() string {
	if len(a.Images) == 0 {
		return ""
	}
	return a.Images[0].URL
}

// BodyText concatenates every text field that ends up in the rendered body
func (a *ArticleRecord) BodyText() string {
	parts := []string{a.Title, a.Introduction}
	for _, s := range a.Sections {
		parts = append(parts, s.Heading, s.Body)
		for _, sub := range s.Subsections {
			parts = append(parts, sub.Heading, sub.Body)
		}
		for _, f := range s.FAQ {
			parts = append(parts, f.Question, f.Answer)
		}
	}
	for _, f := range a.FAQ {
		parts = append(parts, f.Question, f.Answer)
	}
	parts = append(parts, a.CTA)
	parts = append(parts, a.RelatedTerms...)

	n := 0
	for _, p := range parts {
		n += len(p) + 1
	}
	buf := make([]byte, 0, n)
	for _, p := range parts {
		if p == "" {
			continue
		}
		buf = append(buf, p...)
		buf = append(buf, '\n')
	}
	return string(buf)
}
