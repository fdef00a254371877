package compiler

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Report describes the state of a compiled snapshot relative to its
// source files.
type Report struct {
	CompiledFile       string
	Exists             bool
	NeedsRecompilation bool
	GeneratedAt        time.Time // Zero when the snapshot does not exist
	TotalRoutes        int
	ChecksumValid      bool
	SourceFiles        []*FileNode // One tree per entry file
	OutdatedFiles      []string
}

// FileNode is one source file in the report tree. Children are the files
// it includes, as recorded in the snapshot.
type FileNode struct {
	File     string
	Exists   bool
	Modified time.Time // Zero when the file does not exist
	Compiled time.Time // Zero when the file is not in the snapshot
	Outdated bool
	Level    int
	Children []*FileNode
}

// Report builds a status report for the snapshot at snapshotPath.
func (c *Compiler) Report(snapshotPath string, sourceFiles []string) (*Report, error) {
	r := &Report{CompiledFile: snapshotPath}

	snap, err := ReadSnapshot(snapshotPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		r.NeedsRecompilation = true
		for _, f := range sourceFiles {
			r.SourceFiles = append(r.SourceFiles, buildFileTree(f, Metadata{}, 0, nil))
		}
		return r, nil
	case err != nil:
		return nil, err
	}

	r.Exists = true
	r.GeneratedAt = snap.Meta.GeneratedAt
	r.TotalRoutes = len(snap.Routes)
	r.ChecksumValid = snap.ChecksumValid()

	for _, f := range sourceFiles {
		r.SourceFiles = append(r.SourceFiles, buildFileTree(f, snap.Meta, 0, nil))
	}

	r.NeedsRecompilation, err = c.NeedsRecompilation(snapshotPath, sourceFiles)
	if err != nil {
		return nil, err
	}
	if r.NeedsRecompilation && snap.Meta.SourceFiles != nil {
		r.OutdatedFiles, err = c.outdatedFiles(snap.Meta.SourceFiles, sourceFiles)
		if err != nil {
			return nil, err
		}
	}

	return r, nil
}

// buildFileTree follows the recorded dependencies of file. ancestors guards
// against recorded cycles.
func buildFileTree(file string, meta Metadata, level int, ancestors map[string]bool) *FileNode {
	if abs, err := canonicalPath(file); err == nil {
		file = abs
	} else if abs, err := filepath.Abs(file); err == nil {
		file = abs
	}

	node := &FileNode{File: file, Level: level}
	if info, err := os.Stat(file); err == nil {
		node.Exists = true
		node.Modified = info.ModTime()
	}
	if compiled, ok := meta.SourceFiles[file]; ok {
		node.Compiled = compiled
		node.Outdated = node.Exists && node.Modified.After(compiled)
	}

	if ancestors[file] {
		return node
	}
	path := make(map[string]bool, len(ancestors)+1)
	for k := range ancestors {
		path[k] = true
	}
	path[file] = true

	for _, child := range meta.Dependencies[file] {
		node.Children = append(node.Children, buildFileTree(child, meta, level+1, path))
	}
	return node
}

// Walk calls fn for n and every descendant, depth first.
func (n *FileNode) Walk(fn func(*FileNode)) {
	fn(n)
	for _, child := range n.Children {
		child.Walk(fn)
	}
}
