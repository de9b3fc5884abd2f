package mock

import (
	"context"
	"fmt"
	"strings"

	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
	"github.com/zatekoja/articleforge/pkg/utils"
)

// Generative serves write_sections and seo_pass
type Generative struct{}

var sentencePatterns = []string{
	"Anyone researching %[1]s quickly learns that %[2]s matters more than most people expect.",
	"Specialists point out that %[2]s is usually the first thing worth checking.",
	"In practice, buyers weigh %[2]s against budget, availability and long-term satisfaction.",
	"The story of %[1]s shows how %[2]s has shaped expectations over the years.",
	"Careful comparison of listings helps separate genuine opportunities from overpriced offers.",
	"Documentation, service records and honest photographs make every decision easier.",
	"Owners who understand %[2]s tend to enjoy their purchase for much longer.",
	"Market data suggests that demand stays steady when supply is limited.",
	"A patient approach usually pays off, especially when prices move quickly.",
	"Independent advice can confirm details that a seller might overlook.",
}

// Paragraph writes deterministic prose about topic covering the given points, at least words long
func Paragraph(term, topic string, points []string, words int) string {
	if len(points) == 0 {
		points = []string{topic}
	}
	display := utils.TitleCase(term)
	start := int(hash(term, topic) % uint32(len(sentencePatterns)))

	var sentences []string
	count := 0
	for i := 0; count < words; i++ {
		s := sentencePatterns[(start+i)%len(sentencePatterns)]
		if strings.Contains(s, "%") {
			s = fmt.Sprintf(s, display, points[i%len(points)])
		}
		sentences = append(sentences, s)
		count += utils.WordCount(s)
	}
	return strings.Join(sentences, " ")
}

func targetWords(minWords, maxWords int) int {
	if minWords <= 0 {
		minWords = 120
	}
	if maxWords < minWords {
		maxWords = minWords
	}
	return minWords + (maxWords-minWords)/4
}

// WriteSections expands one outline entry within the requested word bounds
func (Generative) WriteSections(ctx context.Context, req providers.WriteRequest) providers.Result[providers.WrittenSection] {
	target := targetWords(req.MinWords, req.MaxWords)
	if req.Expand {
		target = targetWords(req.MinWords, req.MaxWords) + (req.MaxWords-req.MinWords)/4
	}

	out := providers.WrittenSection{Heading: req.Heading}
	switch req.Kind {
	case providers.SectionKindFAQ:
		for _, q := range req.Questions {
			out.FAQ = append(out.FAQ, entities.FAQEntry{
				Question: q,
				Answer:   Paragraph(req.Term, "the details behind "+q, []string{"condition", "provenance"}, 40),
			})
		}
	case providers.SectionKindIntro:
		out.Body = clampWords(Paragraph(req.Term, "its appeal", req.KeyPoints, target), req.MaxWords)
	default:
		body := Paragraph(req.Term, req.Heading, req.KeyPoints, target)
		if v := req.Valuation; v != nil {
			body += fmt.Sprintf(" Recent estimates place typical examples between %.0f and %.0f %s.", v.Low, v.High, v.Currency)
		}
		out.Body = clampWords(body, req.MaxWords)
		for _, sub := range req.Subsections {
			out.Subsections = append(out.Subsections, entities.ArticleSubsection{
				Heading: sub,
				Body:    Paragraph(req.Term, strings.ToLower(sub), nil, 50),
			})
		}
	}
	return providers.OK(out, meta(providers.EndpointWriteSections))
}

func clampWords(s string, maxWords int) string {
	if maxWords > 0 && utils.WordCount(s) > maxWords {
		return utils.TruncateWords(s, maxWords)
	}
	return s
}

// SEOPass places the keyword in title and description, sets one CTA and steers density into the band
func (Generative) SEOPass(ctx context.Context, req providers.SEORequest) providers.Result[entities.ArticleRecord] {
	a := cloneArticle(req.Article)
	kw := strings.ToLower(utils.NormalizeWhitespace(req.PrimaryKeyword))
	display := utils.TitleCase(kw)

	if !utils.ContainsPhrase(a.Title, kw) {
		a.Title = display + ": " + a.Title
	}
	if !utils.ContainsPhrase(a.MetaDescription, kw) {
		a.MetaDescription = fmt.Sprintf("A practical guide to %s: history, features, prices and buying advice.", kw)
	}
	a.CTA = fmt.Sprintf("Ready to take the next step? Compare current %s listings and prices before you decide.", kw)

	a.InternalLinks = nil
	for i, c := range req.LinkCandidates {
		if i == 3 {
			break
		}
		a.InternalLinks = append(a.InternalLinks, c)
	}
	if a.Keywords == nil {
		a.Keywords = utils.UniqueStrings(append([]string{kw}, req.SecondaryKeywords...))
	}

	Rebalance(&a, kw, display, req.DensityMin, req.DensityMax)
	return providers.OK(a, meta(providers.EndpointSEOPass))
}

const maxRebalanceSteps = 500

// Rebalance appends keyword or neutral sentences round-robin until the density sits in the middle half of the band
func Rebalance(a *entities.ArticleRecord, keyword, display string, minDensity, maxDensity float64) {
	if len(utils.Tokens(keyword)) == 0 || maxDensity <= minDensity {
		return
	}
	quarter := (maxDensity - minDensity) / 4
	low, high := minDensity+quarter, maxDensity-quarter

	booster := fmt.Sprintf("%s remains a useful reference point for comparison.", display)
	diluter := "Condition, provenance and documentation all shape the final decision."

	for step := 0; step < maxRebalanceSteps; step++ {
		d := utils.KeywordDensity(a.BodyText(), keyword)
		var sentence string
		switch {
		case d < low:
			sentence = booster
		case d > high:
			sentence = diluter
		default:
			return
		}
		if len(a.Sections) == 0 {
			a.Introduction = strings.TrimSpace(a.Introduction + " " + sentence)
			continue
		}
		i := step % len(a.Sections)
		a.Sections[i].Body = strings.TrimSpace(a.Sections[i].Body + " " + sentence)
	}
}

func cloneArticle(in entities.ArticleRecord) entities.ArticleRecord {
	out := in
	out.Sections = make([]entities.ArticleSection, len(in.Sections))
	copy(out.Sections, in.Sections)
	out.InternalLinks = append([]entities.InternalLink(nil), in.InternalLinks...)
	return out
}
