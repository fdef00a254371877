package routedef

import (
	"fmt"
	"maps"
	"strings"

	"dario.cat/mergo"
	"github.com/simonhull/firebird-suite/roost/pkg/routes"
)

// Scope is the context inherited by every route below a tree level.
type Scope struct {
	Prefix     string // Accumulated path, "" at the root
	Middleware []string
	Domain     string
	Options    map[string]any
}

// Includer expands an include directive found inside a route tree. The
// included routes inherit scope. from is the file holding the directive.
type Includer interface {
	Include(ref IncludeRef, from string, scope Scope) ([]routes.Record, error)
}

// Flattener turns a typed route tree into route records.
type Flattener struct {
	// Source is recorded on every record and used in error messages.
	Source string
	// Includer expands nested includes. When nil, an include entry is an
	// invalid route definition.
	Includer Includer
}

// Flatten is a shorthand for a Flattener with no source file.
func Flatten(b *Block, scope Scope, includer Includer) ([]routes.Record, error) {
	f := &Flattener{Includer: includer}
	return f.Flatten(b, scope)
}

// Flatten walks b in source order and returns its records. Directives
// declared on b apply to every entry of b regardless of their position.
func (f *Flattener) Flatten(b *Block, scope Scope) ([]routes.Record, error) {
	if b == nil {
		return nil, nil
	}

	scope, err := f.enter(b, scope)
	if err != nil {
		return nil, err
	}

	var out []routes.Record
	for _, entry := range b.Entries {
		recs, err := f.entry(entry, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

func (f *Flattener) entry(n Node, scope Scope) ([]routes.Record, error) {
	switch n := n.(type) {
	case *MethodLeaf:
		rec, err := f.leaf(n, scope)
		if err != nil {
			return nil, err
		}
		return []routes.Record{rec}, nil

	case *PathGroup:
		prefix := strings.TrimRight(scope.Prefix+n.Segment, "/")
		if n.Block == nil {
			return []routes.Record{f.record(routes.GET, prefix, n.Handler, scope)}, nil
		}
		child := scope
		child.Prefix = prefix
		return f.Flatten(n.Block, child)

	case *Grouping:
		return f.Flatten(n.Block, scope)

	case *Include:
		if f.Includer == nil {
			return nil, &routes.InvalidRouteDefinitionError{
				PathHint:   n.Hint(),
				Message:    "include is not supported here",
				Suggestion: "compile the route files first, includes are resolved by the compiler",
				File:       f.Source,
				Line:       n.Line(),
			}
		}
		var out []routes.Record
		for _, ref := range n.Refs {
			recs, err := f.Includer.Include(ref, f.Source, scope)
			if err != nil {
				return nil, err
			}
			out = append(out, recs...)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unexpected route node %T at %s", n, n.Hint())
	}
}

// enter applies the directives of b to scope.
func (f *Flattener) enter(b *Block, scope Scope) (Scope, error) {
	if len(b.Middleware) > 0 {
		mw, err := routes.MergeMiddleware(scope.Middleware, b.Middleware, b.Hint())
		if err != nil {
			return scope, f.locate(err, b.Line())
		}
		scope.Middleware = mw
	}
	if b.Domain != nil {
		scope.Domain = *b.Domain
	}
	if b.Options != nil {
		opts, err := MergeOptions(scope.Options, b.Options)
		if err != nil {
			return scope, fmt.Errorf("merging options at %s: %w", b.Hint(), err)
		}
		scope.Options = opts
	}
	return scope, nil
}

func (f *Flattener) leaf(n *MethodLeaf, scope Scope) (routes.Record, error) {
	if len(n.Middleware) > 0 {
		mw, err := routes.MergeMiddleware(scope.Middleware, n.Middleware, n.Hint())
		if err != nil {
			return routes.Record{}, f.locate(err, n.Line())
		}
		scope.Middleware = mw
	}
	if n.Domain != nil {
		scope.Domain = *n.Domain
	}
	if n.Options != nil {
		opts, err := MergeOptions(scope.Options, n.Options)
		if err != nil {
			return routes.Record{}, fmt.Errorf("merging options at %s: %w", n.Hint(), err)
		}
		scope.Options = opts
	}

	rec := f.record(n.Method, scope.Prefix, n.Handler, scope)
	rec.Name = n.Name
	return rec, nil
}

func (f *Flattener) record(method routes.Method, path, handler string, scope Scope) routes.Record {
	mw := make([]string, len(scope.Middleware))
	copy(mw, scope.Middleware)

	return routes.Record{
		Method:     method,
		Path:       routes.NormalizePath(path),
		Handler:    handler,
		Middleware: mw,
		Domain:     scope.Domain,
		Options:    deepCopyMap(scope.Options),
		Source:     f.Source,
	}
}

// locate fills in the file and line of middleware errors.
func (f *Flattener) locate(err error, line int) error {
	switch e := err.(type) {
	case *routes.DuplicateMiddlewareError:
		e.File, e.Line = f.Source, line
	case *routes.MiddlewareNotFoundError:
		e.File, e.Line = f.Source, line
	}
	return err
}

// MergeOptions returns inherited overridden by local. Neither argument is
// modified and the result shares no nested maps or slices with them.
func MergeOptions(inherited, local map[string]any) (map[string]any, error) {
	dst := deepCopyMap(inherited)
	if err := mergo.Merge(&dst, deepCopyMap(local), mergo.WithOverride); err != nil {
		return nil, err
	}
	return dst, nil
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return deepCopyMap(v)
	case map[any]any:
		out := maps.Clone(v)
		for k, inner := range out {
			out[k] = deepCopyValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, inner := range v {
			out[i] = deepCopyValue(inner)
		}
		return out
	default:
		return v
	}
}
