package routes

import (
	"slices"
	"strings"
)

// Record is one flattened route: a method and path bound to a handler,
// with the middleware, domain, name and options it inherited.
type Record struct {
	Method     Method
	Path       string
	Handler    string
	Middleware []string
	Domain     string         // Empty when the route is not bound to a host
	Name       string         // Empty when the route is unnamed
	Options    map[string]any // Free-form, never nil after flattening
	Source     string         // File the route came from (diagnostics only)
}

// Clone returns a deep-enough copy of r: slices and the options map are
// copied so callers can mutate the result freely.
func (r Record) Clone() Record {
	out := r
	out.Middleware = slices.Clone(r.Middleware)
	if out.Middleware == nil {
		out.Middleware = []string{}
	}
	out.Options = make(map[string]any, len(r.Options))
	for k, v := range r.Options {
		out.Options[k] = v
	}
	return out
}

// JoinPath appends a path segment to a prefix and normalizes the result.
//
// Examples:
//
//	JoinPath("", "/")          // "/"
//	JoinPath("/users", "/")    // "/users"
//	JoinPath("/users", "/{id}") // "/users/{id}"
func JoinPath(prefix, segment string) string {
	return NormalizePath(prefix + segment)
}

// NormalizePath returns p with exactly one leading slash and no trailing
// slash. The root path is "/".
func NormalizePath(p string) string {
	p = "/" + strings.TrimLeft(p, "/")
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}
