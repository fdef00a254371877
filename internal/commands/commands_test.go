package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/simonhull/firebird-suite/roost"
	"github.com/simonhull/firebird-suite/roost/internal/config"
	"github.com/simonhull/firebird-suite/roost/internal/output"
	"github.com/simonhull/firebird-suite/roost/pkg/compiler"
	"github.com/simonhull/firebird-suite/roost/pkg/routes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const routesYAML = `
include: [api.yaml]
routes:
  /: Home@index
`

const apiYAML = `
routes:
  /users:
    middleware: [auth]
    GET: Users@index
    /{id}:
      GET:
        handler: Users@show
        name: users.show
`

// newProject creates a project with the default route file layout.
func newProject(t *testing.T) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	writeProjectFile(t, root, "config/routes.yaml", routesYAML)
	writeProjectFile(t, root, "config/api.yaml", apiYAML)
	return root
}

func writeProjectFile(t *testing.T, root, name, content string) string {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the CLI with args and returns everything it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	prev := output.SetWriter(&buf)
	defer output.SetWriter(prev)
	defer output.SetVerbose(false)

	cmd := RootCmd()
	cmd.AddCommand(RoutesCmd())
	cmd.AddCommand(VersionCmd())
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestCompileCommand(t *testing.T) {
	root := newProject(t)
	compiled := filepath.Join(root, config.DefaultCompiledFile)

	out, err := run(t, "routes", "compile", "--project", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Routes compiled successfully!")
	assert.Contains(t, out, "Total routes: 3")

	snap, err := compiler.ReadSnapshot(compiled)
	require.NoError(t, err)
	assert.Len(t, snap.Routes, 3)

	out, err = run(t, "routes", "compile", "--project", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Routes are already up to date.")

	out, err = run(t, "routes", "compile", "--project", root, "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Routes compiled successfully!")
}

func TestCompileCommandVerbose(t *testing.T) {
	root := newProject(t)

	out, err := run(t, "routes", "compile", "--project", root, "-v")
	require.NoError(t, err)
	assert.Contains(t, out, "Source files:")
	assert.Contains(t, out, "Routes by source file:")
	assert.Contains(t, out, filepath.Join("config", "api.yaml")+": 2 routes")
	assert.Contains(t, out, filepath.Join("config", "routes.yaml")+": 1 routes")
}

func TestCompileCommandErrors(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	_, err = run(t, "routes", "compile", "--project", root)
	assert.True(t, errors.Is(err, config.ErrNoRouteFiles))

	writeProjectFile(t, root, "config/routes.yaml", "routes:\n  /x:\n    bogus: 1\n")
	_, err = run(t, "routes", "compile", "--project", root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compilation failed")
	var defErr *routes.InvalidRouteDefinitionError
	assert.True(t, errors.As(err, &defErr))

	_, statErr := os.Stat(filepath.Join(root, config.DefaultCompiledFile))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCompileCommandWithConfigFile(t *testing.T) {
	root := newProject(t)
	writeProjectFile(t, root, "config/app.yaml", `
router:
  routeFiles:
    - config/api.yaml
  compiledFile: var/routes.yaml
`)

	out, err := run(t, "routes", "compile", "--project", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Total routes: 2")

	snap, err := compiler.ReadSnapshot(filepath.Join(root, "var", "routes.yaml"))
	require.NoError(t, err)
	assert.Len(t, snap.Routes, 2)
}

func TestReportCommand(t *testing.T) {
	root := newProject(t)

	out, err := run(t, "routes", "compile", "--project", root, "--report")
	require.NoError(t, err)
	assert.Contains(t, out, "NOT COMPILED")
	assert.Contains(t, out, "Routes not yet compiled")
	assert.Contains(t, out, "Run: roost routes compile")

	_, err = run(t, "routes", "compile", "--project", root)
	require.NoError(t, err)

	out, err = run(t, "routes", "compile", "--project", root, "-r")
	require.NoError(t, err)
	assert.Contains(t, out, "UP TO DATE")
	assert.Contains(t, out, "Total Routes: 3")
	assert.Contains(t, out, "- 2 source file(s)")
	assert.Contains(t, out, "Compiled file is current")
	assert.Contains(t, out, filepath.Join("config", "api.yaml"))
	assert.NotContains(t, out, "Run: roost routes compile")

	api := filepath.Join(root, "config", "api.yaml")
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(api, later, later))

	out, err = run(t, "routes", "compile", "--project", root, "-r")
	require.NoError(t, err)
	assert.Contains(t, out, "OUTDATED")
	assert.Contains(t, out, "1 file(s) need recompilation")
}

func TestWatchAndReportAreExclusive(t *testing.T) {
	root := newProject(t)
	_, err := run(t, "routes", "compile", "--project", root, "-w", "-r")
	assert.Error(t, err)
}

func TestListCommand(t *testing.T) {
	root := newProject(t)

	out, err := run(t, "routes", "list", "--project", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Routes not yet compiled")
	assert.Contains(t, out, "/users/{id}")
	assert.Contains(t, out, "users.show")
	assert.Contains(t, out, "3 route(s)")

	_, err = run(t, "routes", "compile", "--project", root)
	require.NoError(t, err)

	out, err = run(t, "routes", "list", "--project", root, "--prefix", "/app")
	require.NoError(t, err)
	assert.NotContains(t, out, "Routes not yet compiled")
	assert.Contains(t, out, "/app/users/{id}")
}

func TestListCommandRejectsBadPrefix(t *testing.T) {
	root := newProject(t)
	_, err := run(t, "routes", "list", "--project", root, "--prefix", "app")
	assert.ErrorIs(t, err, routes.ErrInvalidPrefix)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "roost "+roost.Version+"\n", out)
}

func TestWatchRoutes(t *testing.T) {
	root := newProject(t)
	cfg, err := config.Load(config.Options{ProjectRoot: root})
	require.NoError(t, err)
	cfg.WatchInterval = 20 * time.Millisecond

	var buf bytes.Buffer
	prev := output.SetWriter(&buf)
	defer output.SetWriter(prev)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- watchRoutes(ctx, compiler.New(), cfg) }()

	routeCount := func() int {
		snap, err := compiler.ReadSnapshot(cfg.CompiledFile)
		if err != nil {
			return -1
		}
		return len(snap.Routes)
	}
	require.Eventually(t, func() bool { return routeCount() == 3 }, 5*time.Second, 10*time.Millisecond)

	// A newly included file joins the watch list after the recompile.
	writeProjectFile(t, root, "config/extra.yaml", "routes:\n  /extra: Extra@index\n")
	api := writeProjectFile(t, root, "config/api.yaml", apiYAML+"\ninclude: [extra.yaml]\n")
	require.Eventually(t, touchUntil(t, api, func() bool { return routeCount() == 4 }), 5*time.Second, 20*time.Millisecond)

	extra := writeProjectFile(t, root, "config/extra.yaml", "routes:\n  /extra: Extra@index\n  /more: Extra@more\n")
	require.Eventually(t, touchUntil(t, extra, func() bool { return routeCount() == 5 }), 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
	assert.Contains(t, buf.String(), "Watching for changes...")
	assert.Contains(t, buf.String(), "Stopped watching.")
}

// touchUntil returns a condition that bumps the modification time of path
// until done reports true, so a change made before the watcher took its
// baseline is still seen.
func touchUntil(t *testing.T, path string, done func() bool) func() bool {
	mod := time.Now()
	return func() bool {
		if done() {
			return true
		}
		mod = mod.Add(time.Second)
		assert.NoError(t, os.Chtimes(path, mod, mod))
		return false
	}
}

func TestWatchRoutesInitialFailure(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	writeProjectFile(t, root, "config/routes.yaml", "routes:\n  /x:\n    bogus: 1\n")
	cfg, err := config.Load(config.Options{ProjectRoot: root})
	require.NoError(t, err)

	var buf bytes.Buffer
	prev := output.SetWriter(&buf)
	defer output.SetWriter(prev)

	err = watchRoutes(context.Background(), compiler.New(), cfg)
	require.Error(t, err)
	assert.Contains(t, buf.String(), "Initial compilation failed")
}
