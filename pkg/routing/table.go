// Package routing provides route tables that compiled routes can be injected
// into: an in-memory Table with reverse URL building, and an adapter that
// mounts a Table onto an echo server.
package routing

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/simonhull/firebird-suite/roost/pkg/routes"
)

var (
	// ErrRouteNotFound is returned by URL for an unknown route name.
	ErrRouteNotFound = errors.New("route not found")
	// ErrMissingParam is returned by URL when a path parameter has no value.
	ErrMissingParam = errors.New("missing route parameter")
)

// Route is one registered route.
type Route struct {
	Method     string
	Path       string
	Handler    string
	Middleware []string
	Name       string
	Domain     string
}

// Table is an in-memory routing table. It implements routes.Registrar.
type Table struct {
	routes []*Route
	named  map[string]*Route
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{named: make(map[string]*Route)}
}

// Map registers a route and returns a handle for attaching middleware, a
// name and a domain.
func (t *Table) Map(method, path, handler string) routes.RouteHandle {
	r := &Route{Method: method, Path: path, Handler: handler}
	t.routes = append(t.routes, r)
	return &handle{table: t, route: r}
}

// Len returns the number of registered routes.
func (t *Table) Len() int {
	return len(t.routes)
}

// Routes returns copies of the registered routes in registration order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	for i, r := range t.routes {
		out[i] = *r
		out[i].Middleware = slices.Clone(r.Middleware)
	}
	return out
}

// Lookup returns the route registered under name.
func (t *Table) Lookup(name string) (Route, bool) {
	r, ok := t.named[name]
	if !ok {
		return Route{}, false
	}
	return *r, true
}

// URL builds the path of a named route, substituting {param} placeholders
// from params and appending query when it is not empty.
func (t *Table) URL(name string, params map[string]string, query url.Values) (string, error) {
	r, ok := t.named[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrRouteNotFound, name)
	}

	segments := strings.Split(r.Path, "/")
	for i, seg := range segments {
		param, ok := placeholder(seg)
		if !ok {
			continue
		}
		value, ok := params[param]
		if !ok || value == "" {
			return "", fmt.Errorf("%w: %s for route %s", ErrMissingParam, param, name)
		}
		segments[i] = url.PathEscape(value)
	}

	u := strings.Join(segments, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u, nil
}

// placeholder returns the parameter name of a "{name}" or "{name:pattern}"
// path segment.
func placeholder(seg string) (string, bool) {
	if len(seg) < 3 || seg[0] != '{' || seg[len(seg)-1] != '}' {
		return "", false
	}
	name := seg[1 : len(seg)-1]
	if i := strings.IndexByte(name, ':'); i >= 0 {
		name = name[:i]
	}
	return name, name != ""
}

type handle struct {
	table *Table
	route *Route
}

func (h *handle) Middleware(names ...string) {
	h.route.Middleware = append(h.route.Middleware, names...)
}

func (h *handle) SetName(name string) {
	if h.route.Name != "" {
		delete(h.table.named, h.route.Name)
	}
	h.route.Name = name
	if name != "" {
		h.table.named[name] = h.route
	}
}

func (h *handle) SetDomain(domain string) {
	h.route.Domain = domain
}

var _ routes.Registrar = (*Table)(nil)
var _ routes.DomainSetter = (*handle)(nil)
