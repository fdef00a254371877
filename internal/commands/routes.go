package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/simonhull/firebird-suite/roost/internal/config"
	"github.com/simonhull/firebird-suite/roost/internal/output"
	"github.com/simonhull/firebird-suite/roost/internal/watch"
	"github.com/simonhull/firebird-suite/roost/pkg/compiler"
	"github.com/spf13/cobra"
)

// RoutesCmd creates the routes command with subcommands
func RoutesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Route compilation commands",
		Long: `Compile and inspect YAML route definitions.

Route files are read from router.routeFiles in config/app.yaml
(default config/routes.yaml) and compiled to router.compiledFile
(default config/routes.compiled.yaml).

Examples:
  roost routes compile             # Compile if any source file changed
  roost routes compile --force     # Compile unconditionally
  roost routes compile --watch     # Recompile on every change
  roost routes compile --report    # Show compilation status
  roost routes list                # Print the compiled route table`,
	}

	cmd.AddCommand(routesCompileCmd())
	cmd.AddCommand(routesListCmd())

	return cmd
}

// routesCompileCmd compiles route files into the snapshot
func routesCompileCmd() *cobra.Command {
	var watchMode, report, force bool

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile YAML route definitions",
		Long: `Compiles route files and their includes into a single snapshot.

Compilation is skipped when the snapshot is newer than every source
file, unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			c := compiler.New(compiler.WithLogger(logger))

			switch {
			case report:
				return showReport(c, cfg)
			case watchMode:
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return watchRoutes(ctx, c, cfg)
			default:
				return compileRoutes(c, cfg, force)
			}
		},
	}

	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "Watch for changes and recompile automatically")
	cmd.Flags().BoolVarP(&report, "report", "r", false, "Show compilation status without compiling")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Force recompilation even if files are up to date")
	cmd.MarkFlagsMutuallyExclusive("watch", "report")

	return cmd
}

func compileRoutes(c *compiler.Compiler, cfg *config.Config, force bool) error {
	if !force {
		stale, err := c.NeedsRecompilation(cfg.CompiledFile, cfg.RouteFiles)
		if err != nil {
			output.Warn(fmt.Sprintf("Cannot read compiled routes, recompiling: %v", err))
			stale = true
		}
		if !stale {
			output.Success("Routes are already up to date.")
			output.Step("Use --force to recompile anyway.")
			return nil
		}
	}

	if output.IsVerbose() {
		output.Info("Compiling routes...")
		listFiles("Source files:", cfg.ProjectRoot, cfg.RouteFiles)
	}

	snap, err := compileAndWrite(c, cfg)
	if err != nil {
		return fmt.Errorf("compilation failed: %w", err)
	}

	output.Success("Routes compiled successfully!")
	output.Step(fmt.Sprintf("Total routes: %d", len(snap.Routes)))
	output.Step("Output: " + cfg.CompiledFile)

	if output.IsVerbose() {
		output.Blank()
		output.Header("Routes by source file:")
		for _, sc := range routesBySource(snap.Routes) {
			output.Step(fmt.Sprintf("%s: %d routes", relPath(cfg.ProjectRoot, sc.File), sc.Routes))
		}
	}
	return nil
}

// watchRoutes compiles once, then recompiles whenever a discovered source
// file changes. It returns when ctx is cancelled.
func watchRoutes(ctx context.Context, c *compiler.Compiler, cfg *config.Config) error {
	output.Info("Starting watch mode...")
	output.Step("Press Ctrl+C to stop")
	output.Blank()

	output.Info("Initial compilation...")
	snap, err := compileAndWrite(c, cfg)
	if err != nil {
		output.Error("Initial compilation failed. Fix errors before watching.")
		return err
	}
	files := c.DiscoveredSourceFiles()
	output.Success(fmt.Sprintf("Routes compiled successfully! (%d routes)", len(snap.Routes)))
	output.Blank()
	if output.IsVerbose() {
		listFiles("Watching files:", cfg.ProjectRoot, files)
	}

	w, err := watch.New(files, cfg.WatchInterval, watch.WithLogger(logger))
	if err != nil {
		return err
	}
	defer w.Close()

	output.Success("Watching for changes...")
	output.Blank()

	err = w.Run(ctx, func(ctx context.Context, changed []string) {
		output.Info(fmt.Sprintf("[%s] Change detected in:", clock()))
		for _, f := range changed {
			output.Step("- " + relPath(cfg.ProjectRoot, f))
		}

		snap, err := compileAndWrite(c, cfg)
		if err != nil {
			output.Error(fmt.Sprintf("[%s] Compilation failed: %v", clock(), err))
			output.Blank()
			return
		}

		// Includes may have been added or removed.
		files := c.DiscoveredSourceFiles()
		w.SetFiles(files)

		output.Success(fmt.Sprintf("[%s] Routes recompiled successfully! (%d routes)", clock(), len(snap.Routes)))
		if output.IsVerbose() {
			listFiles("Updated watch list:", cfg.ProjectRoot, files)
		}
		output.Blank()
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	output.Info("Stopped watching.")
	return nil
}
