// Package render composes the final markdown document for an article.
// Everything here is pure: the same record and options always produce the same bytes.
package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/articleforge/internal/domain/entities"
)

// FrontMatterFields is the fixed field order of the header
var FrontMatterFields = []string{
	"title", "date", "lastmod", "draft", "slug", "description",
	"keywords", "categories", "tags", "featured_image",
}

const delimiter = "---"

// Options carries the values that do not live on the record
type Options struct {
	// Date is the creation time of the workflow run
	Date time.Time
	// LastMod is the creation time of the newest contributing artifact
	LastMod time.Time
	Draft   bool
}

// Render returns the front-matter block (delimiters included) and the body markdown
func Render(a entities.ArticleRecord, opts Options) (string, string) {
	return FrontMatter(a, opts), Body(a)
}

// Document joins front matter and body with a single blank line
func Document(a entities.ArticleRecord, opts Options) string {
	fm, body := Render(a, opts)
	return fm + "\n" + body
}

// FrontMatter renders the header in FrontMatterFields order
func FrontMatter(a entities.ArticleRecord, opts Options) string {
	lastmod := opts.LastMod
	if lastmod.IsZero() || lastmod.Before(opts.Date) {
		lastmod = opts.Date
	}

	var b strings.Builder
	b.WriteString(delimiter + "\n")
	field := func(name, value string) {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteByte('\n')
	}
	field("title", quote(a.Title))
	field("date", formatTime(opts.Date))
	field("lastmod", formatTime(lastmod))
	field("draft", strconv.FormatBool(opts.Draft))
	field("slug", quote(a.Slug))
	field("description", quote(a.MetaDescription))
	field("keywords", list(a.Keywords))
	field("categories", list(a.Categories))
	field("tags", list(a.Tags))
	field("featured_image", quote(a.FeaturedImage()))
	b.WriteString(delimiter + "\n")
	return b.String()
}

// Body renders the markdown body
func Body(a entities.ArticleRecord) string {
	var b strings.Builder
	para := func(text string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	heading := func(level int, text string) {
		b.WriteString(strings.Repeat("#", level))
		b.WriteByte(' ')
		b.WriteString(singleLine(text))
		b.WriteString("\n\n")
	}

	heading(1, a.Title)
	para(a.Introduction)
	if v := a.Valuation; v != nil {
		para(fmt.Sprintf("> Estimated value: %s to %s %s", formatAmount(v.Low), formatAmount(v.High), v.Currency))
	}

	for _, s := range a.Sections {
		heading(2, s.Heading)
		para(s.Body)
		for _, sub := range s.Subsections {
			heading(3, sub.Heading)
			para(sub.Body)
		}
		for _, f := range s.FAQ {
			heading(3, f.Question)
			para(f.Answer)
		}
	}

	if len(a.FAQ) > 0 {
		heading(2, "Frequently Asked Questions")
		for _, f := range a.FAQ {
			heading(3, f.Question)
			para(f.Answer)
		}
	}

	if len(a.InternalLinks) > 0 || len(a.RelatedTerms) > 0 {
		heading(2, "Related Terms")
		for _, l := range a.InternalLinks {
			fmt.Fprintf(&b, "- [%s](/%s/)\n", singleLine(l.Anchor), l.Slug)
		}
		for _, t := range a.RelatedTerms {
			fmt.Fprintf(&b, "- %s\n", singleLine(t))
		}
		b.WriteByte('\n')
	}

	para(a.CTA)
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func quote(s string) string {
	return strconv.Quote(s)
}

// list renders ["a", "b"]
func list(items []string) string {
	quoted := make([]string, 0, len(items))
	for _, it := range items {
		quoted = append(quoted, quote(it))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// formatAmount prints whole amounts with thousands separators
func formatAmount(v float64) string {
	n := int64(v + 0.5)
	if v < 0 {
		n = int64(v - 0.5)
	}
	neg := n < 0
	if neg {
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var out []byte
	for i := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, digits[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
