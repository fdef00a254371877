package routes

import (
	"fmt"
	"slices"
	"strings"
)

// DirectiveOp says whether a middleware directive adds or removes a name.
type DirectiveOp int

const (
	// Add appends a middleware to the inherited set.
	Add DirectiveOp = iota
	// Remove drops a middleware from the inherited set.
	Remove
)

// MiddlewareDirective is one entry of a `middleware:` list. A leading "-"
// in the source text becomes a Remove directive.
type MiddlewareDirective struct {
	Op   DirectiveOp
	Name string
}

// ParseDirective converts the raw list entry into a directive.
func ParseDirective(raw string) (MiddlewareDirective, error) {
	raw = strings.TrimSpace(raw)
	op := Add
	if strings.HasPrefix(raw, "-") {
		op = Remove
		raw = strings.TrimSpace(raw[1:])
	}
	if raw == "" {
		return MiddlewareDirective{}, fmt.Errorf("middleware name is empty")
	}
	return MiddlewareDirective{Op: op, Name: raw}, nil
}

// String renders the directive the way it is written in route files.
func (d MiddlewareDirective) String() string {
	if d.Op == Remove {
		return "-" + d.Name
	}
	return d.Name
}

// MergeMiddleware applies directives to the inherited middleware list and
// returns a new list. The inherited slice is never modified.
//
// The policy is strict: removing a name that is not inherited fails with
// *MiddlewareNotFoundError and adding a name that is already present fails
// with *DuplicateMiddlewareError.
func MergeMiddleware(inherited []string, directives []MiddlewareDirective, pathHint string) ([]string, error) {
	result := slices.Clone(inherited)
	if result == nil {
		result = []string{}
	}

	for _, d := range directives {
		idx := slices.Index(result, d.Name)
		switch d.Op {
		case Remove:
			if idx < 0 {
				return nil, &MiddlewareNotFoundError{Middleware: d.Name, PathHint: pathHint}
			}
			result = slices.Delete(result, idx, idx+1)
		default:
			if idx >= 0 {
				return nil, &DuplicateMiddlewareError{Middleware: d.Name, PathHint: pathHint}
			}
			result = append(result, d.Name)
		}
	}

	return result, nil
}
