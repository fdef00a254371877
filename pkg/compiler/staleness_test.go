package compiler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func compileTo(t *testing.T, c *Compiler, out string, files ...string) *Snapshot {
	t.Helper()
	snap, err := c.Compile(files)
	require.NoError(t, err)
	require.NoError(t, c.WriteToFile(snap, out))
	return snap
}

func touch(t *testing.T, path string, d time.Duration) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	mod := info.ModTime().Add(d)
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestNeedsRecompilationMissingSnapshot(t *testing.T) {
	dir := tempDir(t)
	root := writeFile(t, dir, "routes.yaml", "routes:\n  /: Home@index\n")

	stale, err := New().NeedsRecompilation(filepath.Join(dir, "compiled.yaml"), []string{root})
	require.NoError(t, err)
	assert.True(t, stale)
}

func TestNeedsRecompilationFreshThenModified(t *testing.T) {
	dir := tempDir(t)
	root := writeFile(t, dir, "routes.yaml", "include: [sub/a.yaml]\n")
	a := writeFile(t, dir, "sub/a.yaml", "routes:\n  /a: A@index\n")
	out := filepath.Join(dir, "compiled.yaml")

	c := New()
	compileTo(t, c, out, root)

	stale, err := c.NeedsRecompilation(out, []string{root})
	require.NoError(t, err)
	assert.False(t, stale)

	touch(t, a, time.Hour)

	core, logs := observer.New(zap.DebugLevel)
	c = New(WithLogger(zap.New(core)))
	stale, err = c.NeedsRecompilation(out, []string{root})
	require.NoError(t, err)
	assert.True(t, stale)
	require.Equal(t, 1, logs.FilterMessage("source file modified").Len())
	assert.Equal(t, a, logs.FilterMessage("source file modified").All()[0].ContextMap()["file"])
}

func TestNeedsRecompilationNewInclude(t *testing.T) {
	dir := tempDir(t)
	root := writeFile(t, dir, "routes.yaml", "routes:\n  /: Home@index\n")
	out := filepath.Join(dir, "compiled.yaml")

	c := New()
	compileTo(t, c, out, root)

	// Add an include without bumping the root's recorded time.
	info, err := os.Stat(root)
	require.NoError(t, err)
	writeFile(t, dir, "routes.yaml", "routes:\n  /: Home@index\n  /x:\n    include: [extra.yaml]\n")
	require.NoError(t, os.Chtimes(root, info.ModTime(), info.ModTime()))
	writeFile(t, dir, "extra.yaml", "routes:\n  /y: Y@index\n")

	stale, err := c.NeedsRecompilation(out, []string{root})
	require.NoError(t, err)
	assert.True(t, stale)
}

func TestNeedsRecompilationRemovedFile(t *testing.T) {
	dir := tempDir(t)
	root := writeFile(t, dir, "routes.yaml", "include: [gone.yaml]\n")
	gone := writeFile(t, dir, "gone.yaml", "routes:\n  /: Home@index\n")
	out := filepath.Join(dir, "compiled.yaml")

	c := New()
	compileTo(t, c, out, root)
	require.NoError(t, os.Remove(gone))

	stale, err := c.NeedsRecompilation(out, []string{root})
	require.NoError(t, err)
	assert.True(t, stale)
}

func TestNeedsRecompilationWithoutMetadata(t *testing.T) {
	dir := tempDir(t)
	root := writeFile(t, dir, "routes.yaml", "routes:\n  /: Home@index\n")
	out := writeFile(t, dir, "compiled.yaml", "routes: []\n")

	stale, err := New().NeedsRecompilation(out, []string{root})
	require.NoError(t, err)
	assert.True(t, stale)
}

func TestNeedsRecompilationParseErrorDuringWalk(t *testing.T) {
	dir := tempDir(t)
	root := writeFile(t, dir, "routes.yaml", "routes:\n  /: Home@index\n")
	out := filepath.Join(dir, "compiled.yaml")

	c := New()
	compileTo(t, c, out, root)
	writeFile(t, dir, "routes.yaml", "routes: [\n")

	_, err := c.NeedsRecompilation(out, []string{root})
	assert.Error(t, err)
}

func TestNeedsRecompilationSkipsMissingEntries(t *testing.T) {
	dir := tempDir(t)
	root := writeFile(t, dir, "routes.yaml", "routes:\n  /: Home@index\n")
	out := filepath.Join(dir, "compiled.yaml")

	c := New()
	compileTo(t, c, out, root)

	stale, err := c.NeedsRecompilation(out, []string{root, filepath.Join(dir, "missing.yaml")})
	require.NoError(t, err)
	assert.False(t, stale)
}

func TestAllSourceFilesCycle(t *testing.T) {
	dir := tempDir(t)
	a := writeFile(t, dir, "a.yaml", "include: [b.yaml]\n")
	b := writeFile(t, dir, "b.yaml", "routes:\n  /b:\n    include: [a.yaml]\n")

	files, err := AllSourceFiles([]string{a})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, files)
}

func TestNeedsRecompilationIgnoresIncludeInsideOptions(t *testing.T) {
	dir := tempDir(t)
	root := writeFile(t, dir, "routes.yaml", `
routes:
  /docs:
    options:
      include: other.yaml
    domain: docs.example.com
    GET:
      handler: Docs@index
      options:
        nested:
          include: [other.yaml]
`)
	writeFile(t, dir, "other.yaml", "routes:\n  /other: Other@index\n")
	out := filepath.Join(dir, "compiled.yaml")

	c := New()
	snap := compileTo(t, c, out, root)
	require.Len(t, snap.Routes, 1)
	assert.Equal(t, map[string]any{
		"include": "other.yaml",
		"nested":  map[string]any{"include": []any{"other.yaml"}},
	}, snap.Routes[0].Options)
	assert.Equal(t, []string{root}, c.DiscoveredSourceFiles())

	stale, err := c.NeedsRecompilation(out, []string{root})
	require.NoError(t, err)
	assert.False(t, stale)

	files, err := AllSourceFiles([]string{root})
	require.NoError(t, err)
	assert.Equal(t, []string{root}, files)
}
