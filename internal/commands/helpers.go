package commands

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/simonhull/firebird-suite/roost/internal/config"
	"github.com/simonhull/firebird-suite/roost/internal/output"
	"github.com/simonhull/firebird-suite/roost/pkg/compiler"
	"github.com/simonhull/firebird-suite/roost/pkg/routes"
	"github.com/spf13/cobra"
)

// now is replaced in tests.
var now = time.Now

// loadConfig reads the router config using the persistent --project and
// --config flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	project, err := cmd.Flags().GetString("project")
	if err != nil {
		return nil, err
	}
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(config.Options{ProjectRoot: project, ConfigFile: configFile})
	if err != nil {
		return nil, err
	}
	if cfg.ConfigFile != "" {
		output.Verbose("Using config " + cfg.ConfigFile)
	}
	return cfg, nil
}

// compileAndWrite runs one compile pass and writes the snapshot.
func compileAndWrite(c *compiler.Compiler, cfg *config.Config) (*compiler.Snapshot, error) {
	snap, err := c.Compile(cfg.RouteFiles)
	if err != nil {
		return nil, err
	}
	if err := c.WriteToFile(snap, cfg.CompiledFile); err != nil {
		return nil, err
	}
	return snap, nil
}

// relPath shortens path relative to root when path lives below it.
func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

// listFiles prints a titled file list.
func listFiles(title string, root string, files []string) {
	output.Header(title)
	for _, f := range files {
		output.Step("- " + relPath(root, f))
	}
	output.Blank()
}

// sourceCount is the number of routes contributed by one source file.
type sourceCount struct {
	File   string
	Routes int
}

// routesBySource counts records per source file in first-seen order.
func routesBySource(recs []routes.Record) []sourceCount {
	var counts []sourceCount
	index := make(map[string]int)
	for _, r := range recs {
		src := r.Source
		if src == "" {
			src = "unknown"
		}
		i, ok := index[src]
		if !ok {
			i = len(counts)
			index[src] = i
			counts = append(counts, sourceCount{File: src})
		}
		counts[i].Routes++
	}
	return counts
}

// timeAgo formats the age of t in the largest whole unit.
func timeAgo(t, ref time.Time) string {
	diff := ref.Sub(t)
	if diff < 0 {
		diff = 0
	}
	switch {
	case diff < time.Minute:
		return fmt.Sprintf("%d second(s) ago", int(diff/time.Second))
	case diff < time.Hour:
		return fmt.Sprintf("%d minute(s) ago", int(diff/time.Minute))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%d hour(s) ago", int(diff/time.Hour))
	default:
		return fmt.Sprintf("%d day(s) ago", int(diff/(24*time.Hour)))
	}
}

// clock formats the current time for watch mode messages.
func clock() string {
	return now().Format("15:04:05")
}
