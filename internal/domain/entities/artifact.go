package entities

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Media types understood by the artifact store
const (
	MediaTypeJSON     = "application/json"
	MediaTypeText     = "text/plain; charset=utf-8"
	MediaTypeMarkdown = "text/markdown; charset=utf-8"
)

// ArtifactMeta is the metadata sidecar stored next to every artifact
type ArtifactMeta struct {
	MediaType  string                 `json:"media_type"`
	Size       int64                  `json:"size"`
	SHA256     string                 `json:"sha256"`
	CreatedAt  time.Time              `json:"created_at"`
	Term       string                 `json:"term,omitempty"`
	Type       string                 `json:"type,omitempty"`
	Provider   string                 `json:"provider,omitempty"`
	Mock       bool                   `json:"mock,omitempty"`
	TimeFields []string               `json:"time_fields,omitempty"`
	Extra      map[string]interface{} `json:"extra,omitempty"`
}

// IsStructured reports whether the payload is JSON
func (m ArtifactMeta) IsStructured() bool {
	return strings.HasPrefix(m.MediaType, MediaTypeJSON)
}

// Expired reports whether the artifact is older than ttl. A zero ttl never expires.
func (m ArtifactMeta) Expired(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 || m.CreatedAt.IsZero() {
		return false
	}
	return now.Sub(m.CreatedAt) > ttl
}

// Artifact is a persisted stage output
type Artifact struct {
	Path    string       `json:"path"`
	Payload []byte       `json:"-"`
	Data    interface{}  `json:"data,omitempty"`
	Meta    ArtifactMeta `json:"metadata"`
}

// Decode unmarshals a structured payload into v
func (a *Artifact) Decode(v interface{}) error {
	if !a.Meta.IsStructured() {
		return fmt.Errorf("artifact %s is %s, not JSON", a.Path, a.Meta.MediaType)
	}
	return json.Unmarshal(a.Payload, v)
}

// Text returns the payload as a string
func (a *Artifact) Text() string {
	return string(a.Payload)
}

// MediaTypeForPath infers the media type from a path extension
func MediaTypeForPath(path string) string {
	switch {
	case strings.HasSuffix(path, ".json"), strings.HasSuffix(path, ".meta"):
		return MediaTypeJSON
	case strings.HasSuffix(path, ".md"):
		return MediaTypeMarkdown
	default:
		return MediaTypeText
	}
}

// Artifact paths relative to the store root
const (
	ResearchKeyword   = "keyword"
	ResearchRelated   = "related"
	ResearchSERP      = "serp"
	ResearchPAA       = "paa"
	ResearchExpansion = "expansion"
)

// ResearchParts lists the research sub-artifacts in a stable order
var ResearchParts = []string{ResearchKeyword, ResearchRelated, ResearchSERP, ResearchPAA, ResearchExpansion}

// RunPath is the checkpoint of the run for slug
func RunPath(slug string) string { return slug + "/run.json" }

// ResearchPath is the research sub-artifact for slug
func ResearchPath(slug, part string) string { return slug + "/research/" + part + ".json" }

// PlanPath is the analysis plan for slug
func PlanPath(slug string) string { return slug + "/analysis/plan.json" }

// BlurbPath is the ten-word valuation descriptor for slug
func BlurbPath(slug string) string { return slug + "/analysis/valuation-blurb.txt" }

// ValuationPath is the valuation range for slug
func ValuationPath(slug string) string { return slug + "/analysis/valuation.json" }

// EnhancedPath is the expanded article for slug
func EnhancedPath(slug string) string { return slug + "/enhanced.json" }

// OptimizedPath is the SEO-refined article for slug
func OptimizedPath(slug string) string { return slug + "/optimized.json" }

// ArticlePath is the rendered markdown for slug
func ArticlePath(slug string) string { return slug + "/article.md" }

// ExportReceiptPath records where the article was exported
func ExportReceiptPath(slug string) string { return slug + "/export.json" }

// SummaryPath is the batch summary for a day (YYYY-MM-DD)
func SummaryPath(day string) string { return "logs/" + day + "/workflow-summary.json" }
