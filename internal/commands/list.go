package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/simonhull/firebird-suite/roost/internal/config"
	"github.com/simonhull/firebird-suite/roost/internal/output"
	"github.com/simonhull/firebird-suite/roost/pkg/compiler"
	"github.com/simonhull/firebird-suite/roost/pkg/loader"
	"github.com/simonhull/firebird-suite/roost/pkg/routes"
	"github.com/simonhull/firebird-suite/roost/pkg/routing"
	"github.com/spf13/cobra"
)

// routesListCmd prints the compiled route table
func routesListCmd() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List compiled routes",
		Long: `Loads the compiled routes into a routing table and prints it.

When the compiled file is missing or stale, the route files are compiled
in memory and nothing is written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			coll, err := loadRoutes(compiler.New(compiler.WithLogger(logger)), cfg)
			if err != nil {
				return err
			}

			table := routing.NewTable()
			if err := coll.InjectInto(table, prefix); err != nil {
				return err
			}

			if table.Len() == 0 {
				output.Info("No routes defined.")
				return nil
			}
			output.Table([]string{"Method", "Path", "Name", "Handler", "Middleware", "Domain"}, routeRows(table))
			output.Step(fmt.Sprintf("%d route(s)", table.Len()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&prefix, "prefix", "p", "", "Mount routes under a path prefix")

	return cmd
}

// loadRoutes reads the compiled file when it is current and compiles in
// memory otherwise.
func loadRoutes(c *compiler.Compiler, cfg *config.Config) (*routes.Collection, error) {
	stale, err := c.NeedsRecompilation(cfg.CompiledFile, cfg.RouteFiles)
	if err == nil && !stale {
		output.Verbose("Loading " + cfg.CompiledFile)
		return loader.LoadFile(cfg.CompiledFile)
	}

	switch {
	case err != nil:
		output.Warn(fmt.Sprintf("Cannot read compiled routes: %v", err))
	case fileMissing(cfg.CompiledFile):
		output.Warn("Routes not yet compiled, compiling in memory")
	default:
		output.Warn("Compiled routes are outdated, compiling in memory")
	}

	snap, err := c.Compile(cfg.RouteFiles)
	if err != nil {
		return nil, fmt.Errorf("compilation failed: %w", err)
	}
	return loader.FromSnapshot(snap), nil
}

func routeRows(t *routing.Table) [][]string {
	var rows [][]string
	for _, r := range t.Routes() {
		rows = append(rows, []string{
			r.Method,
			r.Path,
			r.Name,
			r.Handler,
			strings.Join(r.Middleware, ", "),
			r.Domain,
		})
	}
	return rows
}

func fileMissing(path string) bool {
	_, err := os.Stat(path)
	return errors.Is(err, fs.ErrNotExist)
}
