package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	version  = "dev"
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "articleforge",
	Short: "Turn search terms into SEO-ready markdown articles",
	Long: `articleforge researches a search term, plans and writes an article around it,
optimizes it for the term and renders markdown with front matter for a static site.
Every stage checkpoints to the artifact store so interrupted runs resume where they stopped.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: $CONFIG_FILE)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level override (debug, info, warn, error)")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})
}

// Execute runs the CLI and returns the process exit code
func Execute() int {
	return execute(os.Args[1:])
}

func execute(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	code := exitCode(err)
	if err != nil {
		pterm.Error.Println(err.Error())
	}
	resetFlags(rootCmd)
	return code
}

// resetFlags restores flag defaults so execute can be called more than once per process
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}
