package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/simonhull/firebird-suite/roost/pkg/compiler"
	"github.com/simonhull/firebird-suite/roost/pkg/routes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nestedRoutes = `
routes:
  middleware: [session]
  options:
    layout: main
  /: HomeController@index
  /admin:
    middleware: [auth]
    domain: admin.example.com
    GET: AdminController@dashboard
    /users:
      GET: UserController@index
      POST:
        handler: UserController@store
        name: admin.users.store
        middleware: [-session, csrf]
  /api:
    - GET: ApiController@index
    - /status: ApiController@status
`

var ignoreSource = cmpopts.IgnoreFields(routes.Record{}, "Source")

func TestLoadNestedMatchesCompiled(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "routes.yaml")
	require.NoError(t, os.WriteFile(src, []byte(nestedRoutes), 0o644))
	out := filepath.Join(dir, "routes.compiled.yaml")

	c := compiler.New()
	snap, err := c.Compile([]string{src})
	require.NoError(t, err)
	require.NoError(t, c.WriteToFile(snap, out))

	nested, err := New().LoadBytes([]byte(nestedRoutes))
	require.NoError(t, err)

	flat, err := LoadFile(out)
	require.NoError(t, err)

	if diff := cmp.Diff(nested.Records(), flat.Records(), ignoreSource); diff != "" {
		t.Errorf("nested and compiled forms differ (-nested +flat):\n%s", diff)
	}
	if diff := cmp.Diff(snap.Routes, FromSnapshot(snap).Records()); diff != "" {
		t.Errorf("FromSnapshot mismatch:\n%s", diff)
	}
	assert.Equal(t, 6, flat.Len())
}

func TestLoadBareTree(t *testing.T) {
	c, err := New().LoadBytes([]byte("/: Home@index\n/about: Page@about\n"))
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
	assert.Equal(t, "/about", c.At(1).Path)
}

func TestLoadBareEntryList(t *testing.T) {
	c, err := New().LoadBytes([]byte(`
- method: POST
  path: /users/
  handler: Users@store
  middleware: [auth]
  name: users.store
  source: /somewhere/routes.yaml
`))
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	r := c.At(0)
	assert.Equal(t, routes.POST, r.Method)
	assert.Equal(t, "/users", r.Path)
	assert.Equal(t, []string{"auth"}, r.Middleware)
	assert.Equal(t, "users.store", r.Name)
	assert.Empty(t, r.Domain)
	assert.Empty(t, r.Source)
	assert.NotNil(t, r.Options)
}

func TestLoadEmpty(t *testing.T) {
	for _, input := range []string{"", "~\n", "[]\n", "_meta: {}\n"} {
		c, err := New().LoadBytes([]byte(input))
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, 0, c.Len(), "input %q", input)
	}
}

func TestLoadIndexedCompiledEntries(t *testing.T) {
	input := `
_meta:
  generated_at: 2026-01-02T03:04:05Z
  source_files: {}
0:
  method: GET
  path: /
  handler: Home@index
1:
  method: POST
  path: /users
  handler: Users@store
  name: users.store
`
	c, err := New().LoadBytes([]byte(input))
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
	assert.Equal(t, routes.GET, c.At(0).Method)
	assert.Equal(t, "/", c.At(0).Path)
	assert.Equal(t, routes.POST, c.At(1).Method)
	assert.Equal(t, "users.store", c.At(1).Name)
}

func TestLoadRejectsUnknownKeysNextToMeta(t *testing.T) {
	input := `_meta: {}
0: {method: GET, path: /, handler: H@i}
extra: {method: POST, path: /, handler: H@s}
`
	_, err := New().LoadBytes([]byte(input))
	var defErr *routes.InvalidRouteDefinitionError
	require.True(t, errors.As(err, &defErr), "got %v", err)
	assert.Equal(t, "root", defErr.PathHint)
	assert.Contains(t, defErr.Message, "extra")
}

func TestLoadRejectsInclude(t *testing.T) {
	tests := []string{
		"include: [x.yaml]\nroutes:\n  /: Home@index\n",
		"routes:\n  /admin:\n    include: [x.yaml]\n",
	}
	for _, input := range tests {
		_, err := New().LoadBytes([]byte(input))
		var defErr *routes.InvalidRouteDefinitionError
		require.True(t, errors.As(err, &defErr), "input %q: %v", input, err)
	}
}

func TestLoadInvalidEntry(t *testing.T) {
	_, err := New().LoadBytes([]byte("_meta: {}\nroutes:\n  - method: FETCH\n    path: /\n    handler: X@y\n"))
	var defErr *routes.InvalidRouteDefinitionError
	require.True(t, errors.As(err, &defErr))
	assert.Equal(t, "root[0]", defErr.PathHint)
}

func TestLoadScalarRoot(t *testing.T) {
	_, err := New().LoadBytes([]byte("just a string\n"))
	var defErr *routes.InvalidRouteDefinitionError
	assert.True(t, errors.As(err, &defErr))
}

func TestLoadBrokenYAML(t *testing.T) {
	_, err := New().LoadBytes([]byte("routes: [\n"))
	var parseErr *routes.ParseError
	assert.True(t, errors.As(err, &parseErr))
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

type recorded struct {
	method, path, handler, name, domain string
	middleware                          []string
}

type handle struct{ r *recorded }

func (h handle) Middleware(names ...string) { h.r.middleware = names }
func (h handle) SetName(name string)        { h.r.name = name }
func (h handle) SetDomain(domain string)    { h.r.domain = domain }

type registrar struct{ routes []*recorded }

func (g *registrar) Map(method, path, handler string) routes.RouteHandle {
	r := &recorded{method: method, path: path, handler: handler}
	g.routes = append(g.routes, r)
	return handle{r}
}

func TestLoadAndInject(t *testing.T) {
	c, err := New().LoadBytes([]byte(nestedRoutes))
	require.NoError(t, err)

	g := &registrar{}
	require.NoError(t, c.InjectInto(g, "/app/"))
	require.Len(t, g.routes, 6)

	assert.Equal(t, "/app", g.routes[0].path)
	assert.Equal(t, []string{"session"}, g.routes[0].middleware)

	store := g.routes[3]
	assert.Equal(t, "POST", store.method)
	assert.Equal(t, "/app/admin/users", store.path)
	assert.Equal(t, []string{"auth", "csrf"}, store.middleware)
	assert.Equal(t, "admin.users.store", store.name)
	assert.Equal(t, "admin.example.com", store.domain)
}
