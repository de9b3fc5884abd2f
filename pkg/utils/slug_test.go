package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

var slugPattern = regexp.MustCompile(`^([a-z0-9]+(-[a-z0-9]+)*)?$`)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"art appraisal of antique lamps":      "art-appraisal-of-antique-lamps",
		"  Art   Appraisal of ANTIQUE lamps ": "art-appraisal-of-antique-lamps",
		"Crème brûlée -- 101!":                "creme-brulee-101",
		"---":                                 "",
		"a/b\\c":                              "a-b-c",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestSlugifyWhitespaceAndCaseShareSlug(t *testing.T) {
	assert.Equal(t, Slugify("Vintage  Rolex"), Slugify("vintage rolex"))
}

func TestSlugifyPurity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "s")
		slug := Slugify(s)

		if Slugify(slug) != slug {
			t.Fatalf("slug not idempotent: %q -> %q -> %q", s, slug, Slugify(slug))
		}
		if !slugPattern.MatchString(slug) {
			t.Fatalf("slug %q has characters outside [a-z0-9-] or bad hyphens", slug)
		}
	})
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Art Appraisal Of Antique Lamps", TitleCase(" art appraisal  of antique lamps"))
}
