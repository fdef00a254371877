package compiler

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/simonhull/firebird-suite/roost/pkg/routedef"
	"go.uber.org/zap"
)

// NeedsRecompilation reports whether the snapshot at snapshotPath is out of
// date for the given entry files. It is true when the snapshot is missing,
// has no source file metadata, when any file reachable through includes is
// unrecorded or modified after the recorded time, or when a recorded file
// no longer exists.
//
// The include graph is walked from the source files on disk, not from the
// snapshot, so newly added includes are noticed. Files that do not exist are
// skipped during the walk. Errors come only from a snapshot or source file
// that cannot be decoded.
func (c *Compiler) NeedsRecompilation(snapshotPath string, sourceFiles []string) (bool, error) {
	snap, err := ReadSnapshot(snapshotPath)
	if errors.Is(err, fs.ErrNotExist) {
		c.logger.Debug("compiled routes missing", zap.String("file", snapshotPath))
		return true, nil
	}
	if err != nil {
		return false, err
	}

	recorded := snap.Meta.SourceFiles
	if recorded == nil {
		c.logger.Debug("compiled routes have no source metadata", zap.String("file", snapshotPath))
		return true, nil
	}

	outdated, err := c.outdatedFiles(recorded, sourceFiles)
	if err != nil {
		return false, err
	}
	if len(outdated) > 0 {
		return true, nil
	}

	for file := range recorded {
		if _, err := os.Stat(file); err != nil {
			c.logger.Debug("compiled source removed", zap.String("file", file))
			return true, nil
		}
	}

	return false, nil
}

// AllSourceFiles walks the include graph from the entry files and returns
// every reachable file that exists, in discovery order.
func AllSourceFiles(entries []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, entry := range entries {
		if err := collectSourceFiles(entry, seen, &out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func collectSourceFiles(path string, seen map[string]bool, out *[]string) error {
	abs, err := canonicalPath(path)
	if err != nil || seen[abs] {
		return nil
	}
	seen[abs] = true
	*out = append(*out, abs)

	refs, err := routedef.ScanIncludes(abs)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		if err := collectSourceFiles(includePath(ref.Path, abs), seen, out); err != nil {
			return err
		}
	}
	return nil
}

// outdatedFiles returns the reachable files that are unrecorded or newer
// than their recorded modification time.
func (c *Compiler) outdatedFiles(recorded map[string]time.Time, entries []string) ([]string, error) {
	files, err := AllSourceFiles(entries)
	if err != nil {
		return nil, err
	}

	var outdated []string
	for _, file := range files {
		compiledAt, ok := recorded[file]
		if !ok {
			c.logger.Debug("new source file", zap.String("file", file))
			outdated = append(outdated, file)
			continue
		}
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if info.ModTime().After(compiledAt) {
			c.logger.Debug("source file modified",
				zap.String("file", file),
				zap.Time("modified", info.ModTime()),
				zap.Time("compiled", compiledAt))
			outdated = append(outdated, file)
		}
	}
	return outdated, nil
}
