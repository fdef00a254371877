// Package compiler compiles YAML route files into a single route snapshot
// and decides when that snapshot is out of date.
//
// A compile pass starts from one or more entry files, expands every include
// (top-level and nested), flattens the route trees and records the
// modification time of every file it read. The result can be written to disk
// with WriteToFile and checked later with NeedsRecompilation.
//
// Basic usage:
//
//	c := compiler.New(compiler.WithLogger(logger))
//	if stale, err := c.NeedsRecompilation(out, files); err == nil && !stale {
//		return nil
//	}
//	snap, err := c.Compile(files)
//	if err != nil {
//		return err
//	}
//	return c.WriteToFile(snap, out)
package compiler

import (
	"fmt"
	"slices"
	"time"

	"github.com/simonhull/firebird-suite/roost/pkg/routedef"
	"go.uber.org/zap"
)

// Compiler compiles route files. A Compiler is not safe for concurrent use:
// DiscoveredSourceFiles reflects the most recent successful Compile call.
type Compiler struct {
	logger     *zap.Logger
	now        func() time.Time
	discovered []string
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for debug diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the time source used for generated_at.
func WithClock(now func() time.Time) Option {
	return func(c *Compiler) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile reads the entry files and everything they include and returns the
// compiled snapshot. Routes keep traversal order: entry files in argument
// order, each file's top-level includes before its own routes, nested
// includes at the position of their include key.
//
// Any error aborts the pass.
func (c *Compiler) Compile(paths []string) (*Snapshot, error) {
	ctx := newCompilationContext(c.logger)

	for _, path := range paths {
		abs, err := canonicalPath(path)
		if err != nil {
			return nil, fmt.Errorf("route file not found: %s: %w", path, err)
		}

		recs, err := ctx.expand(abs, routedef.Scope{})
		if err != nil {
			return nil, err
		}
		ctx.routes = append(ctx.routes, recs...)
	}

	c.discovered = slices.Clone(ctx.order)

	snap := &Snapshot{
		Meta: Metadata{
			GeneratedAt:  c.now().UTC(),
			SourceFiles:  ctx.modTimes,
			Dependencies: ctx.deps,
		},
		Files:  slices.Clone(ctx.order),
		Routes: ctx.routes,
	}
	snap.Meta.Checksum = Checksum(snap.Routes)

	c.logger.Debug("compiled routes",
		zap.Int("routes", len(snap.Routes)),
		zap.Int("files", len(snap.Files)))

	return snap, nil
}

// DiscoveredSourceFiles returns every file read by the last Compile call,
// in discovery order. A failed compile leaves the previous list in place.
func (c *Compiler) DiscoveredSourceFiles() []string {
	return slices.Clone(c.discovered)
}
