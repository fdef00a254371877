package compiler

import (
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/simonhull/firebird-suite/roost/pkg/routedef"
	"github.com/simonhull/firebird-suite/roost/pkg/routes"
	"go.uber.org/zap"
)

// CompilationContext holds the state of one compile pass: which files were
// visited, their modification times, the include edges between them and
// the routes collected so far. It implements routedef.Includer so nested
// includes are expanded in place.
type CompilationContext struct {
	logger   *zap.Logger
	visited  map[string]bool
	order    []string
	modTimes map[string]time.Time
	deps     map[string][]string
	routes   []routes.Record
}

func newCompilationContext(logger *zap.Logger) *CompilationContext {
	return &CompilationContext{
		logger:   logger,
		visited:  make(map[string]bool),
		modTimes: make(map[string]time.Time),
		deps:     make(map[string][]string),
	}
}

// Include resolves ref relative to from, records the dependency edge and
// returns the routes of the included file under scope.
func (ctx *CompilationContext) Include(ref routedef.IncludeRef, from string, scope routedef.Scope) ([]routes.Record, error) {
	child, err := resolveInclude(ref, from)
	if err != nil {
		return nil, err
	}
	ctx.addEdge(from, child)
	return ctx.expand(child, scope)
}

// expand compiles one file under scope. A file already visited in this pass
// contributes nothing, which also terminates include cycles.
func (ctx *CompilationContext) expand(path string, scope routedef.Scope) ([]routes.Record, error) {
	if ctx.visited[path] {
		ctx.logger.Debug("skipping already compiled file", zap.String("file", path))
		return nil, nil
	}
	ctx.visited[path] = true

	doc, err := routedef.ParseFile(path)
	if err != nil {
		return nil, err
	}
	ctx.order = append(ctx.order, doc.Path)
	ctx.modTimes[doc.Path] = doc.ModTime.UTC()

	var out []routes.Record
	for _, ref := range doc.Includes {
		recs, err := ctx.Include(ref, doc.Path, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}

	f := &routedef.Flattener{Source: doc.Path, Includer: ctx}
	recs, err := f.Flatten(doc.Routes, scope)
	if err != nil {
		return nil, err
	}
	return append(out, recs...), nil
}

func (ctx *CompilationContext) addEdge(parent, child string) {
	if slices.Contains(ctx.deps[parent], child) {
		return
	}
	ctx.logger.Debug("include", zap.String("from", parent), zap.String("file", child))
	ctx.deps[parent] = append(ctx.deps[parent], child)
}

// resolveInclude turns an include entry into the absolute path of an
// existing file. Relative entries resolve against the including file's
// directory.
func resolveInclude(ref routedef.IncludeRef, from string) (string, error) {
	resolved := includePath(ref.Path, from)
	abs, err := canonicalPath(resolved)
	if err != nil {
		return "", &routes.IncludeNotFoundError{
			Include:  ref.Path,
			Resolved: resolved,
			File:     from,
			Line:     ref.Line,
		}
	}
	return abs, nil
}

func includePath(include, from string) string {
	if filepath.IsAbs(include) {
		return filepath.Clean(include)
	}
	return filepath.Join(filepath.Dir(from), include)
}

// canonicalPath returns the absolute, symlink-free path of an existing file.
func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		return "", err
	}
	if target, err := filepath.EvalSymlinks(abs); err == nil {
		abs = target
	}
	return abs, nil
}
