package compiler

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/simonhull/firebird-suite/roost/pkg/routes"
	"go.uber.org/zap"
)

// WriteToFile renders s and writes it to outputPath, creating missing
// parent directories. The file is replaced atomically, so a failed write
// leaves any previous snapshot untouched. Failures are *routes.WriteError.
func (c *Compiler) WriteToFile(s *Snapshot, outputPath string) error {
	data, err := Marshal(s)
	if err != nil {
		return &routes.WriteError{Path: outputPath, Err: err}
	}

	op := &writeFileOp{Path: outputPath, Content: data, Mode: 0o644}
	if err := op.Validate(); err != nil {
		return &routes.WriteError{Path: outputPath, Err: err}
	}
	if err := op.Execute(); err != nil {
		return &routes.WriteError{Path: outputPath, Err: err}
	}

	c.logger.Debug("wrote compiled routes",
		zap.String("file", outputPath),
		zap.Int("bytes", len(data)))
	return nil
}

// writeFileOp replaces a file through a temporary sibling and a rename.
type writeFileOp struct {
	Path    string
	Content []byte
	Mode    fs.FileMode
}

func (op *writeFileOp) Validate() error {
	dir := filepath.Dir(op.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", dir, err)
	}
	if info, err := os.Stat(op.Path); err == nil && info.IsDir() {
		return fmt.Errorf("%s is a directory", op.Path)
	}
	if op.Content == nil {
		return fmt.Errorf("content is nil for file: %s", op.Path)
	}
	return nil
}

func (op *writeFileOp) Execute() error {
	tmp, err := os.CreateTemp(filepath.Dir(op.Path), "."+filepath.Base(op.Path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(op.Content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, op.Mode); err != nil {
		return err
	}
	return os.Rename(tmpName, op.Path)
}
