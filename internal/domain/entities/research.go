package entities

// KeywordMetrics is the keyword_metrics payload
type KeywordMetrics struct {
	Keyword      string  `json:"keyword"`
	SearchVolume int     `json:"search_volume"`
	CPC          float64 `json:"cpc"`
	Competition  float64 `json:"competition"`
	Difficulty   int     `json:"difficulty"`
	Trend        []int   `json:"trend,omitempty"`
}

// RelatedKeyword is one related_keywords item
type RelatedKeyword struct {
	Keyword      string  `json:"keyword"`
	SearchVolume int     `json:"search_volume"`
	Relevance    float64 `json:"relevance,omitempty"`
}

// RelatedKeywords is the related_keywords payload
type RelatedKeywords struct {
	Keyword string           `json:"keyword"`
	Items   []RelatedKeyword `json:"items"`
}

// SERPResult is one organic result
type SERPResult struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Snippet  string `json:"snippet,omitempty"`
}

// SERPResults is the serp_results payload
type SERPResults struct {
	Keyword         string       `json:"keyword"`
	TotalResults    int64        `json:"total_results,omitempty"`
	FeaturedSnippet string       `json:"featured_snippet,omitempty"`
	Organic         []SERPResult `json:"organic"`
}

// Titles returns the organic result titles
func (s *SERPResults) Titles() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.Organic))
	for _, r := range s.Organic {
		out = append(out, r.Title)
	}
	return out
}

// PAAQuestion is one "people also ask" entry
type PAAQuestion struct {
	Question string `json:"question"`
	Answer   string `json:"answer,omitempty"`
	Source   string `json:"source,omitempty"`
}

// PAAQuestions is the paa_questions payload
type PAAQuestions struct {
	Keyword   string        `json:"keyword"`
	Questions []PAAQuestion `json:"questions"`
}

// Expansion aspects issued as independent topic_expansion sub-calls
const (
	AspectVariations = "variations"
	AspectIntent     = "intent"
	AspectTopics     = "topics"
	AspectContext    = "context"
	AspectComplement = "complement"
)

// ExpansionAspects lists the topic_expansion sub-calls in merge order
var ExpansionAspects = []string{AspectVariations, AspectIntent, AspectTopics, AspectContext, AspectComplement}

// ExpansionPart is the result of one topic_expansion sub-call
type ExpansionPart struct {
	Aspect  string   `json:"aspect"`
	Items   []string `json:"items,omitempty"`
	Summary string   `json:"summary,omitempty"`
}

// TopicExpansion merges the five expansion sub-calls
type TopicExpansion struct {
	Variations  []string `json:"variations,omitempty"`
	Intents     []string `json:"intents,omitempty"`
	Topics      []string `json:"topics,omitempty"`
	Context     string   `json:"context,omitempty"`
	Complements []string `json:"complements,omitempty"`
	Missing     []string `json:"missing,omitempty"`
}

// Merge folds a sub-call result into the expansion
func (e *TopicExpansion) Merge(part ExpansionPart) {
	switch part.Aspect {
	case AspectVariations:
		e.Variations = part.Items
	case AspectIntent:
		e.Intents = part.Items
	case AspectTopics:
		e.Topics = part.Items
	case AspectContext:
		e.Context = part.Summary
	case AspectComplement:
		e.Complements = part.Items
	}
}

// ResearchBundle merges the research sub-artifacts; absent parts are listed in Missing
type ResearchBundle struct {
	Term      Term             `json:"term"`
	Keyword   *KeywordMetrics  `json:"keyword,omitempty"`
	Related   *RelatedKeywords `json:"related,omitempty"`
	SERP      *SERPResults     `json:"serp,omitempty"`
	PAA       *PAAQuestions    `json:"paa,omitempty"`
	Expansion *TopicExpansion  `json:"expansion,omitempty"`
	Missing   []string         `json:"missing,omitempty"`
	Mocked    []string         `json:"mocked,omitempty"`
	Cached    []string         `json:"cached,omitempty"`
}

// Part returns the named sub-result
func (b *ResearchBundle) Part(name string) (interface{}, bool) {
	switch name {
	case ResearchKeyword:
		return b.Keyword, b.Keyword != nil
	case ResearchRelated:
		return b.Related, b.Related != nil
	case ResearchSERP:
		return b.SERP, b.SERP != nil
	case ResearchPAA:
		return b.PAA, b.PAA != nil
	case ResearchExpansion:
		return b.Expansion, b.Expansion != nil
	}
	return nil, false
}

// RelatedTerms returns related keywords followed by expansion variations
func (b *ResearchBundle) RelatedTerms(limit int) []string {
	var out []string
	if b.Related != nil {
		for _, item := range b.Related.Items {
			out = append(out, item.Keyword)
		}
	}
	if b.Expansion != nil {
		out = append(out, b.Expansion.Variations...)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Questions returns the PAA questions
func (b *ResearchBundle) Questions() []string {
	if b.PAA == nil {
		return nil
	}
	out := make([]string, 0, len(b.PAA.Questions))
	for _, q := range b.PAA.Questions {
		out = append(out, q.Question)
	}
	return out
}
