package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zatekoja/articleforge/internal/domain/entities"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status <term>",
	Short: "Show the checkpointed run for a term",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the raw run document")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	term, err := entities.NewTerm(args[0])
	if err != nil {
		return usageError{err}
	}

	rt, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	run, err := rt.container.Engine.Status(cmd.Context(), term.Slug)
	if err != nil {
		return err
	}

	if statusJSON {
		out, err := json.MarshalIndent(run, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}
	renderRun(run)
	return nil
}
