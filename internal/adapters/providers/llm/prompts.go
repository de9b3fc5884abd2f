package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
)

const expansionSystemPrompt = `You are a search research analyst. Return ONLY valid JSON with this schema:
{
  "items": string[] (3-10 short lowercase phrases),
  "summary": string (1-3 sentences, plain language)
}
Do not include commentary outside the JSON object.`

var aspectInstructions = map[string]string{
	entities.AspectVariations: "List common phrasing variations and synonyms people search for.",
	entities.AspectIntent:     "List the search intents behind the term, using only: informational, commercial, transactional, navigational.",
	entities.AspectTopics:     "List the subtopics a complete article about the term must cover.",
	entities.AspectContext:    "Summarize the background a reader needs: origin, market position, why it matters.",
	entities.AspectComplement: "List complementary products, services or concepts readers also look for.",
}

const planSystemPrompt = `You are a senior content strategist planning a long-form reference article. Return ONLY valid JSON with this schema:
{
  "title": string,
  "primary_intent": "informational" | "commercial" | "transactional" | "navigational",
  "secondary_intents": string[] (same closed set),
  "audience": string[] (1-4 short audience hints),
  "sections": [{"title": string, "key_points": string[] (2-5), "subsections": string[] (0-3)}] (5-8 entries),
  "faq": string[] (4-8 questions),
  "seo": {
    "primary_keyword": string,
    "secondary_keywords": string[] (3-8),
    "snippet_form": "paragraph" | "list" | "table",
    "meta_description": string (under 160 characters, must contain the primary keyword)
  },
  "categories": string[] (1-3),
  "tags": string[] (3-8),
  "valuation_blurb": string (EXACTLY ten words describing the item for a price lookup)
}`

const tightenInstruction = "\nThe previous valuation_blurb did not have exactly ten words. Count the words. It MUST be exactly ten words, no punctuation-only tokens."

const writeSystemPrompt = `You are an expert long-form writer. Return ONLY valid JSON with this schema:
{
  "heading": string,
  "body": string (markdown paragraphs, no headings),
  "subsections": [{"heading": string, "body": string}],
  "faq": [{"question": string, "answer": string}]
}
Write in a clear, factual, engaging register. Never invent prices unless a valuation range is given.`

const seoSystemPrompt = `You are an SEO editor. You receive an article as JSON and return the SAME JSON shape with revised text.
Rules:
- keep every section, in the same order, with the same headings unless the primary keyword is missing from the title
- the title and meta_description must contain the primary keyword
- primary keyword density must fall inside the requested band; rewrite sentences rather than stuffing
- set "cta" to exactly one closing call to action
- add "internal_links" only from the supplied candidates
Return ONLY the JSON article.`

func buildExpansionPrompt(req providers.ExpansionRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Term: %s\nTask: %s\n", req.Term, aspectInstructions[req.Aspect])
	if titles := req.SERP.Titles(); len(titles) > 0 {
		b.WriteString("Top search result titles:\n")
		for _, title := range titles {
			fmt.Fprintf(&b, "- %s\n", title)
		}
	}
	return b.String()
}

func buildPlanPrompt(req providers.PlanRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Term: %s\n", req.Term)
	if bundle := req.Bundle; bundle != nil {
		if bundle.Keyword != nil {
			fmt.Fprintf(&b, "Monthly search volume: %d, competition: %.2f\n", bundle.Keyword.SearchVolume, bundle.Keyword.Competition)
		}
		if related := bundle.RelatedTerms(15); len(related) > 0 {
			fmt.Fprintf(&b, "Related keywords: %s\n", strings.Join(related, ", "))
		}
		if titles := bundle.SERP.Titles(); len(titles) > 0 {
			fmt.Fprintf(&b, "Competing titles: %s\n", strings.Join(titles, " | "))
		}
		if questions := bundle.Questions(); len(questions) > 0 {
			fmt.Fprintf(&b, "People also ask: %s\n", strings.Join(questions, " | "))
		}
		if exp := bundle.Expansion; exp != nil {
			if len(exp.Topics) > 0 {
				fmt.Fprintf(&b, "Subtopics: %s\n", strings.Join(exp.Topics, ", "))
			}
			if exp.Context != "" {
				fmt.Fprintf(&b, "Context: %s\n", exp.Context)
			}
		}
		if len(bundle.Missing) > 0 {
			fmt.Fprintf(&b, "Research gaps: %s\n", strings.Join(bundle.Missing, ", "))
		}
	}
	if req.Tighten {
		b.WriteString(tightenInstruction)
	}
	return b.String()
}

func buildWritePrompt(req providers.WriteRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Article topic: %s\nPrimary keyword: %s\n", req.Term, req.PrimaryKeyword)
	switch req.Kind {
	case providers.SectionKindIntro:
		fmt.Fprintf(&b, "Write the introduction (no heading needed).\n")
	case providers.SectionKindFAQ:
		fmt.Fprintf(&b, "Answer each question in 40-80 words:\n")
		for _, q := range req.Questions {
			fmt.Fprintf(&b, "- %s\n", q)
		}
	default:
		fmt.Fprintf(&b, "Section heading: %s\n", req.Heading)
		if len(req.KeyPoints) > 0 {
			fmt.Fprintf(&b, "Cover: %s\n", strings.Join(req.KeyPoints, "; "))
		}
		if len(req.Subsections) > 0 {
			fmt.Fprintf(&b, "Subsections: %s\n", strings.Join(req.Subsections, "; "))
		}
	}
	if req.Kind != providers.SectionKindFAQ {
		fmt.Fprintf(&b, "Length: between %d and %d words in total.\n", req.MinWords, req.MaxWords)
	}
	if v := req.Valuation; v != nil {
		fmt.Fprintf(&b, "Indicative value: %.0f-%.0f %s.\n", v.Low, v.High, v.Currency)
	}
	if req.Expand {
		b.WriteString("The previous draft was too short. Expand with concrete detail.\n")
	}
	return b.String()
}

func buildSEOPrompt(req providers.SEORequest) (string, error) {
	article, err := json.Marshal(req.Article)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Primary keyword: %s\n", req.PrimaryKeyword)
	if len(req.SecondaryKeywords) > 0 {
		fmt.Fprintf(&b, "Secondary keywords: %s\n", strings.Join(req.SecondaryKeywords, ", "))
	}
	fmt.Fprintf(&b, "Density band: %.3f-%.3f of all words\n", req.DensityMin, req.DensityMax)
	if len(req.LinkCandidates) > 0 {
		links, _ := json.Marshal(req.LinkCandidates)
		fmt.Fprintf(&b, "Internal link candidates: %s\n", links)
	}
	fmt.Fprintf(&b, "Article:\n%s\n", article)
	return b.String(), nil
}
