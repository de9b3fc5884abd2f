package evaluation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "expectations.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadExpectations_ValidFile(t *testing.T) {
	path := writeTempFile(t, `[
		{"slug": "antique-lamps", "must_mention": ["brass", "tiffany"], "min_words": 800},
		{"slug": "vintage-clocks", "must_mention": ["movement"]}
	]`)

	items, err := LoadExpectations(path)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "antique-lamps", items[0].Slug)
	assert.Equal(t, []string{"brass", "tiffany"}, items[0].MustMention)
	assert.Equal(t, 800, items[0].MinWords)
	assert.Zero(t, items[1].MinWords)

	byslug := IndexExpectations(items)
	assert.Contains(t, byslug, "vintage-clocks")
}

func TestLoadExpectations_Errors(t *testing.T) {
	_, err := LoadExpectations("/nonexistent/path.json")
	assert.Error(t, err)

	_, err = LoadExpectations(writeTempFile(t, `not valid json`))
	assert.Error(t, err)
}

func TestLoadExpectations_EmptyArray(t *testing.T) {
	items, err := LoadExpectations(writeTempFile(t, `[]`))
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, ValidateExpectations(items))
}

func TestValidateExpectations(t *testing.T) {
	tests := []struct {
		name  string
		items []Expectation
		ok    bool
	}{
		{"valid", []Expectation{{Slug: "a", MustMention: []string{"x"}}, {Slug: "b", MinWords: 10}}, true},
		{"missing slug", []Expectation{{MustMention: []string{"x"}}}, false},
		{"duplicate slug", []Expectation{{Slug: "a", MinWords: 1}, {Slug: "a", MinWords: 2}}, false},
		{"negative words", []Expectation{{Slug: "a", MinWords: -1, MustMention: []string{"x"}}}, false},
		{"nothing to check", []Expectation{{Slug: "a"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExpectations(tt.items)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
