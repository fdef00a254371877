package commands

import (
	"github.com/simonhull/firebird-suite/roost"
	"github.com/simonhull/firebird-suite/roost/internal/output"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// logger receives compiler and watcher diagnostics. The root command
// replaces it before any subcommand runs.
var logger = zap.NewNop()

// RootCmd creates and returns the root command for the Roost CLI
func RootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "roost",
		Short: "YAML route compiler for Firebird applications",
		Long: `Roost compiles YAML route definitions into a single route snapshot.

It tracks every included file, so it knows when the snapshot is stale:
• Compile nested route files with includes into one flat list
• Watch route files and recompile on change
• Inspect what is compiled and what is out of date

Learn more: https://github.com/simonhull/firebird-suite`,
		Version:       roost.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			output.SetVerbose(verbose)
			l, err := newLogger(verbose)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			// Sync fails on terminals; nothing is lost.
			_ = logger.Sync()
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output for debugging")
	cmd.PersistentFlags().String("config", "", "Application config file (default config/app.yaml)")
	cmd.PersistentFlags().String("project", "", "Project root (default current directory)")

	return cmd
}

// newLogger builds the diagnostics logger. Without --verbose only warnings
// reach stderr.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = ""
	cfg.DisableStacktrace = true
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
