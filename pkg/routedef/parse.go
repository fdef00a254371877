package routedef

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/simonhull/firebird-suite/roost/pkg/routes"
	"gopkg.in/yaml.v3"
)

// RootHint is the breadcrumb of the top of a route tree.
const RootHint = "root"

// Directive and document keys.
const (
	keyInclude    = "include"
	keyRoutes     = "routes"
	keyMiddleware = "middleware"
	keyDomain     = "domain"
	keyOptions    = "options"
	keyHandler    = "handler"
	keyName       = "name"
)

// ParseFile reads and parses a route file. The returned Document carries
// the absolute path and modification time of the file.
func ParseFile(path string) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, &routes.ParseError{File: abs, Message: "cannot stat file", Err: err}
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, &routes.ParseError{File: abs, Message: "cannot read file", Err: err}
	}

	doc, err := ParseBytes(data, abs)
	if err != nil {
		return nil, err
	}
	doc.ModTime = info.ModTime()
	return doc, nil
}

// ParseBytes parses route file content. path is only used for error
// messages and Document.Path.
func ParseBytes(data []byte, path string) (*Document, error) {
	root, err := decodeRoot(data, path)
	if err != nil {
		return nil, err
	}
	if root.Kind != yaml.MappingNode {
		return nil, &routes.ParseError{
			File:    path,
			Line:    root.Line,
			Message: fmt.Sprintf("expected a mapping at the top level, got %s", kindName(root)),
		}
	}

	doc := &Document{Path: path}
	p := &parser{file: path}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], resolve(root.Content[i+1])

		switch key.Value {
		case keyInclude:
			refs, err := p.includeRefs(value, RootHint+"["+keyInclude+"]")
			if err != nil {
				return nil, err
			}
			doc.Includes = append(doc.Includes, refs...)
		case keyRoutes:
			if isNull(value) {
				continue
			}
			block, err := p.block(value, RootHint)
			if err != nil {
				return nil, err
			}
			doc.Routes = block
		default:
			return nil, &routes.ParseError{
				File:    path,
				Line:    key.Line,
				Message: fmt.Sprintf("unknown top-level key %q (expected %q or %q)", key.Value, keyInclude, keyRoutes),
			}
		}
	}

	return doc, nil
}

// ParseTree converts a route tree node (the value of a `routes` key, or a
// hand-authored tree) into a Block. file is used for error messages only.
func ParseTree(node *yaml.Node, file string) (*Block, error) {
	if node == nil {
		return &Block{pos: pos{hint: RootHint}}, nil
	}
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return &Block{pos: pos{hint: RootHint}}, nil
		}
		node = node.Content[0]
	}
	node = resolve(node)
	if isNull(node) {
		return &Block{pos: pos{hint: RootHint, line: node.Line}}, nil
	}
	p := &parser{file: file}
	return p.block(node, RootHint)
}

// decodeRoot decodes data into its top-level YAML node.
func decodeRoot(data []byte, path string) (*yaml.Node, error) {
	var doc yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &routes.ParseError{File: path, Message: "document is empty, expected a mapping"}
		}
		return nil, &routes.ParseError{File: path, Message: "failed to parse YAML", Err: err}
	}
	if len(doc.Content) == 0 {
		return nil, &routes.ParseError{File: path, Message: "document is empty, expected a mapping"}
	}
	root := resolve(doc.Content[0])
	if isNull(root) {
		return nil, &routes.ParseError{File: path, Line: root.Line, Message: "document is empty, expected a mapping"}
	}
	return root, nil
}

type parser struct {
	file string
}

func (p *parser) invalid(hint string, line int, format string, args ...any) error {
	return &routes.InvalidRouteDefinitionError{
		PathHint: hint,
		Message:  fmt.Sprintf(format, args...),
		File:     p.file,
		Line:     line,
	}
}

// block parses a mapping or sequence into one scope level.
func (p *parser) block(node *yaml.Node, hint string) (*Block, error) {
	b := &Block{pos: pos{hint: hint, line: node.Line}}

	switch node.Kind {
	case yaml.SequenceNode:
		for i, item := range node.Content {
			itemHint := fmt.Sprintf("%s[%d]", hint, i)
			group, err := p.grouping(resolve(item), itemHint, item.Line)
			if err != nil {
				return nil, err
			}
			b.Entries = append(b.Entries, group)
		}
		return b, nil
	case yaml.MappingNode:
	default:
		return nil, p.invalid(hint, node.Line, "was expecting a mapping or a list, got %s", kindName(node))
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], resolve(node.Content[i+1])
		if key.Kind != yaml.ScalarNode {
			return nil, p.invalid(hint, key.Line, "route keys must be scalars, got %s", kindName(key))
		}
		name := key.Value
		keyHint := hint + "[" + name + "]"

		switch {
		case name == keyMiddleware:
			directives, err := p.middleware(value, hint)
			if err != nil {
				return nil, err
			}
			b.Middleware = append(b.Middleware, directives...)
		case name == keyDomain:
			domain, err := p.domain(value, keyHint)
			if err != nil {
				return nil, err
			}
			b.Domain = &domain
		case name == keyOptions:
			opts, err := p.options(value, keyHint)
			if err != nil {
				return nil, err
			}
			b.Options = opts
		case name == keyInclude:
			refs, err := p.includeRefs(value, keyHint)
			if err != nil {
				return nil, err
			}
			b.Entries = append(b.Entries, &Include{pos: pos{hint: keyHint, line: key.Line}, Refs: refs})
		case routes.IsMethod(name):
			leaf, err := p.methodLeaf(routes.Method(name), value, keyHint, key.Line)
			if err != nil {
				return nil, err
			}
			b.Entries = append(b.Entries, leaf)
		case strings.HasPrefix(name, "/"):
			group, err := p.pathGroup(name, value, keyHint, key.Line)
			if err != nil {
				return nil, err
			}
			b.Entries = append(b.Entries, group)
		case isNumericKey(key):
			group, err := p.grouping(value, keyHint, key.Line)
			if err != nil {
				return nil, err
			}
			b.Entries = append(b.Entries, group)
		default:
			return nil, &routes.InvalidRouteDefinitionError{
				PathHint:   keyHint,
				Message:    fmt.Sprintf("invalid route mount point %q", name),
				Suggestion: "use an HTTP method (GET, POST, ...), a path starting with '/', a numeric group key, or one of middleware, domain, options, include",
				File:       p.file,
				Line:       key.Line,
			}
		}
	}

	return b, nil
}

func (p *parser) grouping(value *yaml.Node, hint string, line int) (*Grouping, error) {
	if value.Kind != yaml.MappingNode && value.Kind != yaml.SequenceNode {
		return nil, p.invalid(hint, line, "was expecting a mapping or a list, got %s", kindName(value))
	}
	block, err := p.block(value, hint)
	if err != nil {
		return nil, err
	}
	return &Grouping{pos: pos{hint: hint, line: line}, Block: block}, nil
}

func (p *parser) pathGroup(segment string, value *yaml.Node, hint string, line int) (*PathGroup, error) {
	group := &PathGroup{pos: pos{hint: hint, line: line}, Segment: segment}
	if isNull(value) {
		return nil, p.invalid(hint, line, "was expecting a handler or a mapping, got null")
	}

	switch value.Kind {
	case yaml.ScalarNode:
		handler, err := p.handler(value, hint)
		if err != nil {
			return nil, err
		}
		group.Handler = handler
	case yaml.MappingNode, yaml.SequenceNode:
		block, err := p.block(value, hint)
		if err != nil {
			return nil, err
		}
		group.Block = block
	default:
		return nil, p.invalid(hint, line, "was expecting a handler or a mapping, got %s", kindName(value))
	}

	return group, nil
}

func (p *parser) methodLeaf(method routes.Method, value *yaml.Node, hint string, line int) (*MethodLeaf, error) {
	leaf := &MethodLeaf{pos: pos{hint: hint, line: line}, Method: method}
	if isNull(value) {
		return nil, p.invalid(hint, line, "%s route has no handler", method)
	}

	switch value.Kind {
	case yaml.ScalarNode:
		handler, err := p.handler(value, hint)
		if err != nil {
			return nil, err
		}
		leaf.Handler = handler
		return leaf, nil
	case yaml.MappingNode:
	default:
		return nil, p.invalid(hint, line, "unsupported route definition for %s: expected a handler or a mapping, got %s", method, kindName(value))
	}

	hasHandler := false
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, v := value.Content[i], resolve(value.Content[i+1])
		keyHint := hint + "[" + key.Value + "]"

		switch key.Value {
		case keyHandler:
			handler, err := p.handler(v, keyHint)
			if err != nil {
				return nil, err
			}
			leaf.Handler = handler
			hasHandler = true
		case keyName:
			if !isNull(v) {
				if v.Kind != yaml.ScalarNode {
					return nil, p.invalid(keyHint, v.Line, "route name must be a string, got %s", kindName(v))
				}
				leaf.Name = v.Value
			}
		case keyMiddleware:
			directives, err := p.middleware(v, hint)
			if err != nil {
				return nil, err
			}
			leaf.Middleware = directives
		case keyDomain:
			domain, err := p.domain(v, keyHint)
			if err != nil {
				return nil, err
			}
			leaf.Domain = &domain
		case keyOptions:
			opts, err := p.options(v, keyHint)
			if err != nil {
				return nil, err
			}
			leaf.Options = opts
		default:
			return nil, &routes.InvalidRouteDefinitionError{
				PathHint:   keyHint,
				Message:    fmt.Sprintf("unknown route attribute %q", key.Value),
				Suggestion: "use handler, name, middleware, domain or options",
				File:       p.file,
				Line:       key.Line,
			}
		}
	}

	if !hasHandler {
		return nil, &routes.InvalidRouteDefinitionError{
			PathHint:   hint,
			Message:    fmt.Sprintf("%s route is missing a handler", method),
			Suggestion: "add 'handler: Controller@action'",
			File:       p.file,
			Line:       line,
		}
	}

	return leaf, nil
}

func (p *parser) handler(value *yaml.Node, hint string) (string, error) {
	if value.Kind != yaml.ScalarNode || isNull(value) {
		return "", p.invalid(hint, value.Line, "handler must be a string, got %s", kindName(value))
	}
	handler := strings.TrimSpace(value.Value)
	if handler == "" {
		return "", p.invalid(hint, value.Line, "handler is empty")
	}
	return handler, nil
}

func (p *parser) middleware(value *yaml.Node, hint string) ([]routes.MiddlewareDirective, error) {
	keyHint := hint + "[" + keyMiddleware + "]"
	items, err := p.stringList(value, keyHint)
	if err != nil {
		return nil, err
	}

	directives := make([]routes.MiddlewareDirective, 0, len(items))
	for _, item := range items {
		d, err := routes.ParseDirective(item.Path)
		if err != nil {
			return nil, p.invalid(keyHint, item.Line, "%v", err)
		}
		directives = append(directives, d)
	}
	return directives, nil
}

func (p *parser) domain(value *yaml.Node, hint string) (string, error) {
	if isNull(value) {
		return "", nil
	}
	if value.Kind != yaml.ScalarNode {
		return "", p.invalid(hint, value.Line, "domain must be a string, got %s", kindName(value))
	}
	return strings.TrimSpace(value.Value), nil
}

func (p *parser) options(value *yaml.Node, hint string) (map[string]any, error) {
	if isNull(value) {
		return map[string]any{}, nil
	}
	if value.Kind != yaml.MappingNode {
		return nil, p.invalid(hint, value.Line, "options must be a mapping, got %s", kindName(value))
	}
	opts := map[string]any{}
	if err := value.Decode(&opts); err != nil {
		return nil, p.invalid(hint, value.Line, "cannot decode options: %v", err)
	}
	return opts, nil
}

func (p *parser) includeRefs(value *yaml.Node, hint string) ([]IncludeRef, error) {
	refs, err := p.stringList(value, hint)
	if err != nil {
		return nil, err
	}
	for _, ref := range refs {
		if strings.TrimSpace(ref.Path) == "" {
			return nil, p.invalid(hint, ref.Line, "include path is empty")
		}
	}
	return refs, nil
}

// stringList accepts a sequence of scalars or a single scalar.
func (p *parser) stringList(value *yaml.Node, hint string) ([]IncludeRef, error) {
	switch {
	case isNull(value):
		return nil, nil
	case value.Kind == yaml.ScalarNode:
		return []IncludeRef{{Path: value.Value, Line: value.Line}}, nil
	case value.Kind == yaml.SequenceNode:
		out := make([]IncludeRef, 0, len(value.Content))
		for _, item := range value.Content {
			item = resolve(item)
			if item.Kind != yaml.ScalarNode || isNull(item) {
				return nil, p.invalid(hint, item.Line, "expected a list of strings, found %s", kindName(item))
			}
			out = append(out, IncludeRef{Path: item.Value, Line: item.Line})
		}
		return out, nil
	default:
		return nil, p.invalid(hint, value.Line, "expected a list of strings, got %s", kindName(value))
	}
}

// resolve follows YAML aliases to the anchored node.
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

func isNumericKey(key *yaml.Node) bool {
	if key.Tag == "!!int" {
		return true
	}
	_, err := strconv.Atoi(key.Value)
	return err == nil
}

func kindName(n *yaml.Node) string {
	if n == nil {
		return "nothing"
	}
	switch n.Kind {
	case yaml.MappingNode:
		return "a mapping"
	case yaml.SequenceNode:
		return "a list"
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return "null"
		}
		return fmt.Sprintf("scalar %q", n.Value)
	case yaml.DocumentNode:
		return "a document"
	case yaml.AliasNode:
		return "an alias"
	default:
		return "an unknown node"
	}
}
