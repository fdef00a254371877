package commands

import (
	"fmt"

	"github.com/simonhull/firebird-suite/roost/internal/config"
	"github.com/simonhull/firebird-suite/roost/internal/output"
	"github.com/simonhull/firebird-suite/roost/pkg/compiler"
)

const timeLayout = "2006-01-02 15:04:05"

// showReport prints the compilation status without compiling.
func showReport(c *compiler.Compiler, cfg *config.Config) error {
	r, err := c.Report(cfg.CompiledFile, cfg.RouteFiles)
	if err != nil {
		return fmt.Errorf("building report: %w", err)
	}

	output.Header("Route Compilation Status")
	output.Blank()

	output.Header("Compiled File: " + cfg.CompiledFile)
	switch {
	case !r.Exists:
		output.Step("Status: NOT COMPILED")
	case r.NeedsRecompilation:
		output.Step("Status: OUTDATED (needs recompilation)")
	default:
		output.Step("Status: UP TO DATE")
	}
	if r.Exists {
		if !r.GeneratedAt.IsZero() {
			generated := r.GeneratedAt.Local()
			output.Step(fmt.Sprintf("Generated: %s (%s)", generated.Format(timeLayout), timeAgo(generated, now())))
		}
		output.Step(fmt.Sprintf("Total Routes: %d", r.TotalRoutes))
		if !r.ChecksumValid {
			output.Warn("Compiled routes were edited by hand (checksum mismatch)")
		}
	}
	output.Blank()

	output.Header("Source Files:")
	nodes := make([]*output.TreeNode, 0, len(r.SourceFiles))
	for _, f := range r.SourceFiles {
		nodes = append(nodes, fileTree(f, cfg.ProjectRoot))
	}
	output.Tree(nodes)
	output.Blank()

	output.Header("Summary:")
	output.Step(fmt.Sprintf("- %d source file(s)", countFiles(r.SourceFiles)))
	next := true
	switch {
	case len(r.OutdatedFiles) > 0:
		output.Warn(fmt.Sprintf("%d file(s) need recompilation", len(r.OutdatedFiles)))
	case r.NeedsRecompilation && r.Exists:
		output.Warn("Compiled file needs recompilation")
	case r.Exists:
		output.Success("Compiled file is current")
		next = false
	default:
		output.Warn("Routes not yet compiled")
	}
	if next {
		output.Blank()
		output.Info("Run: roost routes compile")
	}
	return nil
}

// fileTree converts a report node into a status tree node.
func fileTree(n *compiler.FileNode, root string) *output.TreeNode {
	t := &output.TreeNode{Label: relPath(root, n.File)}
	switch {
	case !n.Exists:
		t.Status = output.StatusMissing
	case n.Outdated:
		t.Status = output.StatusOutdated
	}

	if output.IsVerbose() && n.Exists {
		t.Detail = "modified " + n.Modified.Local().Format(timeLayout)
		if n.Outdated {
			t.Detail += ", newer than compiled"
		}
	}

	for _, child := range n.Children {
		t.Children = append(t.Children, fileTree(child, root))
	}
	return t
}

// countFiles counts distinct files across report trees.
func countFiles(trees []*compiler.FileNode) int {
	seen := make(map[string]bool)
	for _, t := range trees {
		t.Walk(func(n *compiler.FileNode) { seen[n.File] = true })
	}
	return len(seen)
}
