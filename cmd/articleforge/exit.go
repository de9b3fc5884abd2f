package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zatekoja/articleforge/internal/domain/entities"
	apperrors "github.com/zatekoja/articleforge/pkg/errors"
)

// Process exit codes
const (
	ExitOK        = 0
	ExitConfig    = 2
	ExitPartial   = 3
	ExitAllFailed = 4
	ExitUsage     = 5
)

// usageError marks bad arguments, flags or input files
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// exitError carries an explicit exit code for batch outcomes
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// usageArgs tags positional argument failures as usage errors
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	var usage usageError
	if errors.As(err, &usage) {
		return ExitUsage
	}
	// cobra reports these without going through the flag error hook
	msg := err.Error()
	if strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "required flag") {
		return ExitUsage
	}

	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeConfig:
		return ExitConfig
	case apperrors.ErrorTypeValidation:
		return ExitUsage
	default:
		return ExitAllFailed
	}
}

// batchOutcome turns a batch summary into the command result
func batchOutcome(summary *entities.BatchSummary) error {
	switch {
	case summary.Failed == 0:
		return nil
	case summary.Successful == 0:
		return &exitError{code: ExitAllFailed, err: fmt.Errorf("all %d terms failed", summary.Total)}
	default:
		return &exitError{code: ExitPartial, err: fmt.Errorf("%d of %d terms failed", summary.Failed, summary.Total)}
	}
}
