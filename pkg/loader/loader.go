// Package loader materializes route structures at runtime.
//
// Two shapes are accepted:
//
//   - the flat compiled form written by the compiler (a mapping with `_meta`
//     and a `routes` list of entries, a mapping with `_meta` and entries keyed
//     0, 1, ..., or a bare list of entries)
//   - the nested authoring form (a route tree, or a document with a `routes`
//     key), flattened with the same rules the compiler uses
//
// Includes are not available at runtime: an `include` key in the nested form
// is an invalid route definition.
package loader

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/simonhull/firebird-suite/roost/pkg/compiler"
	"github.com/simonhull/firebird-suite/roost/pkg/routedef"
	"github.com/simonhull/firebird-suite/roost/pkg/routes"
	"gopkg.in/yaml.v3"
)

// Loader converts route structures into route collections.
type Loader struct {
	// Source is recorded on records loaded from the nested form.
	Source string
}

// New creates a Loader.
func New() *Loader {
	return &Loader{}
}

// Load converts node into a route collection.
func (l *Loader) Load(node *yaml.Node) (*routes.Collection, error) {
	if node == nil || node.Kind == 0 {
		return routes.NewCollection(), nil
	}
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return routes.NewCollection(), nil
		}
		node = node.Content[0]
	}
	node = deref(node)

	switch node.Kind {
	case yaml.SequenceNode:
		if isFlat(node) {
			return l.loadEntries(node)
		}
		return l.loadTree(node)
	case yaml.MappingNode:
		if value := mappingValue(node, "_meta"); value != nil {
			if routesNode := mappingValue(node, "routes"); routesNode != nil {
				return l.loadEntries(deref(routesNode))
			}
			return l.loadIndexedEntries(node)
		}
		if value := mappingValue(node, "routes"); value != nil && onlyDocumentKeys(node) {
			if inc := mappingValue(node, "include"); inc != nil {
				return nil, &routes.InvalidRouteDefinitionError{
					PathHint:   routedef.RootHint + "[include]",
					Message:    "include is not supported here",
					Suggestion: "compile the route files first, includes are resolved by the compiler",
					File:       l.Source,
					Line:       inc.Line,
				}
			}
			return l.loadTree(deref(value))
		}
		return l.loadTree(node)
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return routes.NewCollection(), nil
		}
	}
	return nil, &routes.InvalidRouteDefinitionError{
		PathHint: routedef.RootHint,
		Message:  "route definitions must be a mapping or a list",
		File:     l.Source,
		Line:     node.Line,
	}
}

// LoadBytes decodes YAML and loads it.
func (l *Loader) LoadBytes(data []byte) (*routes.Collection, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &routes.ParseError{File: l.Source, Message: "failed to parse YAML", Err: err}
	}
	return l.Load(&doc)
}

// LoadFile reads a compiled snapshot or a nested route file.
func LoadFile(path string) (*routes.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading routes: %w", err)
	}
	l := &Loader{Source: path}
	return l.LoadBytes(data)
}

// FromSnapshot builds a collection from an in-memory snapshot.
func FromSnapshot(s *compiler.Snapshot) *routes.Collection {
	c := routes.NewCollection()
	for _, r := range s.Routes {
		c.Add(r.Clone())
	}
	return c
}

func (l *Loader) loadEntries(node *yaml.Node) (*routes.Collection, error) {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return routes.NewCollection(), nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, &routes.InvalidRouteDefinitionError{
			PathHint: routedef.RootHint + "[routes]",
			Message:  "compiled routes must be a list",
			File:     l.Source,
			Line:     node.Line,
		}
	}

	var entries []compiler.Entry
	if err := node.Decode(&entries); err != nil {
		return nil, &routes.ParseError{File: l.Source, Line: node.Line, Message: "cannot decode compiled routes", Err: err}
	}

	c := routes.NewCollection()
	for i, e := range entries {
		r, err := e.Record()
		if err != nil {
			return nil, &routes.InvalidRouteDefinitionError{
				PathHint: fmt.Sprintf("%s[%d]", routedef.RootHint, i),
				Message:  err.Error(),
				File:     l.Source,
				Line:     node.Content[i].Line,
			}
		}
		r.Source = ""
		c.Add(r)
	}
	return c, nil
}

// loadIndexedEntries loads a compiled mapping whose entries are keyed by
// position (0, 1, ...) next to `_meta`, in document order.
func (l *Loader) loadIndexedEntries(node *yaml.Node) (*routes.Collection, error) {
	entries := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Line: node.Line}
	var unexpected []string
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		switch {
		case key == "_meta":
		case isIndex(key):
			entries.Content = append(entries.Content, node.Content[i+1])
		default:
			unexpected = append(unexpected, key)
		}
	}
	if len(unexpected) > 0 {
		return nil, &routes.InvalidRouteDefinitionError{
			PathHint:   routedef.RootHint,
			Message:    fmt.Sprintf("unexpected keys next to _meta: %s", strings.Join(unexpected, ", ")),
			Suggestion: "put compiled entries under a 'routes' list",
			File:       l.Source,
			Line:       node.Line,
		}
	}
	return l.loadEntries(entries)
}

func isIndex(key string) bool {
	n, err := strconv.Atoi(key)
	return err == nil && n >= 0
}

func (l *Loader) loadTree(node *yaml.Node) (*routes.Collection, error) {
	block, err := routedef.ParseTree(node, l.Source)
	if err != nil {
		return nil, err
	}
	f := &routedef.Flattener{Source: l.Source}
	recs, err := f.Flatten(block, routedef.Scope{})
	if err != nil {
		return nil, err
	}
	return routes.NewCollection(recs...), nil
}

// isFlat reports whether a list holds compiled route entries rather than
// route groups. Compiled entries always carry method, path and handler keys.
func isFlat(node *yaml.Node) bool {
	if len(node.Content) == 0 {
		return true
	}
	first := deref(node.Content[0])
	if first.Kind != yaml.MappingNode {
		return false
	}
	return mappingValue(first, "method") != nil &&
		mappingValue(first, "path") != nil &&
		mappingValue(first, "handler") != nil
}

// onlyDocumentKeys reports whether node looks like a route file rather than
// a route tree.
func onlyDocumentKeys(node *yaml.Node) bool {
	for i := 0; i < len(node.Content); i += 2 {
		switch node.Content[i].Value {
		case "routes", "include":
		default:
			return false
		}
	}
	return true
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func deref(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}
