package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/zatekoja/articleforge/pkg/config"
	apperrors "github.com/zatekoja/articleforge/pkg/errors"
)

const defaultConfigPath = "articleforge.yaml"

var restoreCmd = &cobra.Command{
	Use:   "restore-defaults",
	Short: "Write the default configuration file",
	Long: `Write every configuration key with its default value to the file named by
--config, or ./articleforge.yaml. An existing file is replaced. Nothing else is reset.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: runRestoreDefaults,
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}

func runRestoreDefaults(_ *cobra.Command, _ []string) error {
	path := cfgFile
	if path == "" {
		path = defaultConfigPath
	}
	if err := config.WriteDefaults(path); err != nil {
		return apperrors.NewConfigError("failed to restore defaults", err)
	}
	pterm.Success.Printf("wrote default configuration to %s\n", path)
	return nil
}
