package main

import (
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/zatekoja/articleforge/internal/application/workflow"
	"github.com/zatekoja/articleforge/internal/domain/entities"
)

var (
	force  bool
	resume bool
)

var processCmd = &cobra.Command{
	Use:   "process [seed-file]",
	Short: "Process every term listed in a seed file",
	Long: `Process every term in the seed file, one per line. Blank lines and lines
starting with # are ignored. With --resume the seed file is optional and every
unfinished run in the store is driven to completion instead.`,
	Args: usageArgs(cobra.MaximumNArgs(1)),
	RunE: runProcess,
}

var processTermCmd = &cobra.Command{
	Use:   "process-term <term>",
	Short: "Process a single term",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE:  runProcessTerm,
}

func init() {
	for _, c := range []*cobra.Command{processCmd, processTermCmd} {
		c.Flags().BoolVarP(&force, "force", "f", false, "ignore cached artifacts and start fresh runs")
	}
	processCmd.Flags().BoolVar(&resume, "resume", false, "resume unfinished runs from their checkpoints")

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(processTermCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	var terms []string
	switch {
	case len(args) == 1:
		seed, err := workflow.LoadSeedFile(args[0])
		if err != nil {
			return usageError{err}
		}
		if len(seed) == 0 {
			return usageError{fmt.Errorf("seed file %s contains no terms", args[0])}
		}
		terms = seed
	case !resume:
		return usageError{errors.New("a seed file is required unless --resume is set")}
	}

	rt, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	opts := workflow.ProcessOptions{Force: force}
	if terms == nil {
		return runBatch(cmd, "Resuming unfinished runs", func() (*entities.BatchSummary, error) {
			return rt.container.Engine.Resume(cmd.Context(), opts)
		})
	}
	return runBatch(cmd, fmt.Sprintf("Processing %d terms", len(terms)), func() (*entities.BatchSummary, error) {
		return rt.container.Engine.ProcessBatch(cmd.Context(), terms, opts)
	})
}

func runProcessTerm(cmd *cobra.Command, args []string) error {
	if _, err := entities.NewTerm(args[0]); err != nil {
		return usageError{err}
	}

	rt, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	return runBatch(cmd, "Processing "+args[0], func() (*entities.BatchSummary, error) {
		return rt.container.Engine.ProcessBatch(cmd.Context(), args, workflow.ProcessOptions{Force: force})
	})
}

func runBatch(cmd *cobra.Command, label string, fn func() (*entities.BatchSummary, error)) error {
	spinner, _ := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start(label)
	summary, err := fn()
	if spinner != nil {
		_ = spinner.Stop()
	}
	if summary == nil {
		return err
	}
	renderBatchSummary(summary)
	return batchOutcome(summary)
}
