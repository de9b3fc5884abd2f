package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zatekoja/articleforge/internal/evaluation"
)

var (
	auditTerms        []string
	auditExpectations string
	auditJSON         bool
	auditMinWords     int
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Report word counts, density and FAQ coverage for completed articles",
	Args:  usageArgs(cobra.NoArgs),
	RunE:  runAudit,
}

func init() {
	auditCmd.Flags().StringArrayVar(&auditTerms, "term", nil, "term to audit (repeatable); default every article")
	auditCmd.Flags().StringVar(&auditExpectations, "expectations", "", "JSON file of per-article editorial expectations")
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "print the audit summary as JSON")
	auditCmd.Flags().IntVar(&auditMinWords, "min-words", 600, "warn below this many words")

	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, _ []string) error {
	slugs, err := slugsFor(auditTerms)
	if err != nil {
		return err
	}

	var expectations map[string]evaluation.Expectation
	if auditExpectations != "" {
		items, err := evaluation.LoadExpectations(auditExpectations)
		if err == nil {
			err = evaluation.ValidateExpectations(items)
		}
		if err != nil {
			return usageError{err}
		}
		expectations = evaluation.IndexExpectations(items)
	}

	rt, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	guardrails := evaluation.NewGuardrails(evaluation.GuardrailConfig{
		MinWords:   auditMinWords,
		DensityMin: rt.cfg.Workflow.DensityMin,
		DensityMax: rt.cfg.Workflow.DensityMax,
	})
	summary, err := evaluation.NewRunner(rt.container.Store, guardrails).Run(cmd.Context(), slugs, expectations)
	if err != nil {
		return err
	}

	if auditJSON {
		out, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}
	renderAudit(summary)
	return nil
}
