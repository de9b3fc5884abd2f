package main

import (
	"github.com/spf13/cobra"

	"github.com/zatekoja/articleforge/internal/domain/entities"
)

var (
	exportDir   string
	exportTerms []string
)

var exportCmd = &cobra.Command{
	Use:   "export --to <dir>",
	Short: "Copy rendered articles into a site content directory",
	Long: `Copy <slug>/article.md to <dir>/<slug>.md for each --term, or for every
rendered article when no term is given. Front matter is validated before copying.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "to", "", "destination directory")
	exportCmd.Flags().StringArrayVar(&exportTerms, "term", nil, "term to export (repeatable)")
	_ = exportCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	slugs, err := slugsFor(exportTerms)
	if err != nil {
		return err
	}

	rt, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	files, err := rt.container.Services.Export.Export(cmd.Context(), exportDir, slugs)
	if len(files) > 0 {
		renderExport(files)
	}
	return err
}

// slugsFor normalizes raw terms into slugs; bad terms are usage errors
func slugsFor(terms []string) ([]string, error) {
	slugs := make([]string, 0, len(terms))
	for _, raw := range terms {
		term, err := entities.NewTerm(raw)
		if err != nil {
			return nil, usageError{err}
		}
		slugs = append(slugs, term.Slug)
	}
	return slugs, nil
}
