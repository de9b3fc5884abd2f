package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/articleforge/internal/adapters/providers/mock"
	"github.com/zatekoja/articleforge/internal/app"
	"github.com/zatekoja/articleforge/internal/domain/entities"
	apperrors "github.com/zatekoja/articleforge/pkg/errors"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, ExitOK},
		{"explicit code", &exitError{code: ExitPartial, err: errors.New("1 of 2 terms failed")}, ExitPartial},
		{"usage", usageError{errors.New("accepts 1 arg(s), received 0")}, ExitUsage},
		{"config", apperrors.NewConfigError("invalid configuration", errors.New("bad mode")), ExitConfig},
		{"wrapped config", fmt.Errorf("bootstrap: %w", apperrors.NewConfigError("redis unreachable", nil)), ExitConfig},
		{"invalid term", apperrors.NewValidationError("term is empty"), ExitUsage},
		{"unknown command", errors.New(`unknown command "bogus" for "articleforge"`), ExitUsage},
		{"missing required flag", errors.New(`required flag(s) "to" not set`), ExitUsage},
		{"anything else", errors.New("disk on fire"), ExitAllFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestBatchOutcome(t *testing.T) {
	assert.NoError(t, batchOutcome(&entities.BatchSummary{Total: 2, Successful: 2}))
	assert.Equal(t, ExitPartial, exitCode(batchOutcome(&entities.BatchSummary{Total: 3, Successful: 2, Failed: 1})))
	assert.Equal(t, ExitAllFailed, exitCode(batchOutcome(&entities.BatchSummary{Total: 1, Failed: 1})))
}

func TestExecute_UsageErrors(t *testing.T) {
	empty := filepath.Join(t.TempDir(), "seed.txt")
	require.NoError(t, os.WriteFile(empty, []byte("# nothing yet\n\n"), 0o644))

	tests := []struct {
		name string
		args []string
	}{
		{"missing term", []string{"process-term"}},
		{"too many terms", []string{"process-term", "a", "b"}},
		{"missing seed", []string{"process"}},
		{"unreadable seed", []string{"process", filepath.Join(t.TempDir(), "absent.txt")}},
		{"empty seed", []string{"process", empty}},
		{"missing destination", []string{"export"}},
		{"unknown flag", []string{"status", "--nope", "x"}},
		{"unknown command", []string{"bogus"}},
		{"blank term", []string{"status", "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, ExitUsage, execute(tt.args))
		})
	}
}

func TestExecute_RestoreDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "articleforge.yaml")

	assert.Equal(t, ExitOK, execute([]string{"restore-defaults", "--config", path}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "batch_size")
}

func TestExecute_InvalidConfiguration(t *testing.T) {
	t.Setenv("ROOT_DIR", t.TempDir())
	t.Setenv("MODE", "chaos")

	assert.Equal(t, ExitConfig, execute([]string{"status", "antique lamps"}))
}

func TestExecute_EndToEndWithCannedAdapters(t *testing.T) {
	root := t.TempDir()
	t.Setenv("ROOT_DIR", root)
	t.Setenv("MODE", "strict")

	adapters := mock.NewAdapters()
	adapters.Publisher = nil
	overrides = app.Overrides{Adapters: &adapters}
	t.Cleanup(func() { overrides = app.Overrides{} })

	require.Equal(t, ExitOK, execute([]string{"process-term", "Trail Running Shoes"}))
	_, err := os.Stat(filepath.Join(root, "trail-running-shoes", "article.md"))
	require.NoError(t, err)

	assert.Equal(t, ExitOK, execute([]string{"status", "trail running shoes", "--json"}))

	out := t.TempDir()
	assert.Equal(t, ExitOK, execute([]string{"export", "--to", out}))
	_, err = os.Stat(filepath.Join(out, "trail-running-shoes.md"))
	assert.NoError(t, err)

	assert.Equal(t, ExitOK, execute([]string{"audit", "--term", "Trail Running Shoes", "--json"}))

	seed := filepath.Join(t.TempDir(), "seed.txt")
	require.NoError(t, os.WriteFile(seed, []byte("Trail Running Shoes\n# comment\nHiking Poles\n"), 0o644))
	assert.Equal(t, ExitOK, execute([]string{"process", seed}))
	assert.Equal(t, ExitOK, execute([]string{"process", "--resume"}))
}

func TestExecute_StatusOfUnknownTerm(t *testing.T) {
	t.Setenv("ROOT_DIR", t.TempDir())
	t.Setenv("MODE", "strict")

	assert.Equal(t, ExitAllFailed, execute([]string{"status", "never processed"}))
}
