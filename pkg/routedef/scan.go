package routedef

import (
	"os"
	"strings"

	"github.com/simonhull/firebird-suite/roost/pkg/routes"
	"gopkg.in/yaml.v3"
)

// ScanIncludes reads a route file and returns every include it references,
// top-level entries first, then nested ones in document order.
//
// Unlike ParseFile the walk is lenient: it only needs the include graph, so
// route shapes are not validated. Only path, numeric and sequence scopes
// are descended into, so method bodies and directive values such as
// options never contribute includes. YAML that
// cannot be decoded still fails with *routes.ParseError.
func ScanIncludes(path string) ([]IncludeRef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &routes.ParseError{File: path, Message: "cannot read file", Err: err}
	}

	root, err := decodeRoot(data, path)
	if err != nil {
		return nil, err
	}
	if root.Kind != yaml.MappingNode {
		return nil, nil
	}

	var refs []IncludeRef
	var nested *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		switch root.Content[i].Value {
		case keyInclude:
			refs = append(refs, scalarRefs(resolve(root.Content[i+1]))...)
		case keyRoutes:
			nested = resolve(root.Content[i+1])
		}
	}
	if nested != nil {
		refs = append(refs, nestedIncludes(nested)...)
	}
	return refs, nil
}

func nestedIncludes(n *yaml.Node) []IncludeRef {
	var refs []IncludeRef
	switch n.Kind {
	case yaml.SequenceNode:
		for _, item := range n.Content {
			refs = append(refs, nestedIncludes(resolve(item))...)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, value := n.Content[i], resolve(n.Content[i+1])
			switch {
			case key.Value == keyInclude:
				refs = append(refs, scalarRefs(value)...)
			case strings.HasPrefix(key.Value, "/"), isNumericKey(key):
				refs = append(refs, nestedIncludes(value)...)
			}
		}
	}
	return refs
}

func scalarRefs(n *yaml.Node) []IncludeRef {
	switch n.Kind {
	case yaml.ScalarNode:
		if isNull(n) || n.Value == "" {
			return nil
		}
		return []IncludeRef{{Path: n.Value, Line: n.Line}}
	case yaml.SequenceNode:
		var refs []IncludeRef
		for _, item := range n.Content {
			item = resolve(item)
			if item.Kind == yaml.ScalarNode && !isNull(item) && item.Value != "" {
				refs = append(refs, IncludeRef{Path: item.Value, Line: item.Line})
			}
		}
		return refs
	}
	return nil
}
