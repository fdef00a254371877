package routes

import (
	"errors"
	"fmt"
)

// ErrInvalidPrefix is returned when a mount prefix does not start with "/".
var ErrInvalidPrefix = errors.New("path prefix must start with a forward slash")

// location formats "file:line" for error messages, omitting what is unknown.
func location(file string, line int) string {
	switch {
	case file != "" && line > 0:
		return fmt.Sprintf("%s:%d", file, line)
	case file != "":
		return file
	case line > 0:
		return fmt.Sprintf("line %d", line)
	default:
		return ""
	}
}

// ParseError reports a route source document that is not a well-formed
// route file (unreadable YAML, non-mapping root, unknown top-level keys).
type ParseError struct {
	File    string
	Line    int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	msg := "invalid route file"
	if loc := location(e.File, e.Line); loc != "" {
		msg += " " + loc
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// IncludeNotFoundError reports an include directive whose target does not
// exist on disk.
type IncludeNotFoundError struct {
	Include  string // The include as written in the route file
	Resolved string // Absolute path it resolved to
	File     string // File containing the include
	Line     int
}

func (e *IncludeNotFoundError) Error() string {
	msg := fmt.Sprintf("included file not found: %s (resolved to: %s)", e.Include, e.Resolved)
	if loc := location(e.File, e.Line); loc != "" {
		msg += " included from " + loc
	}
	return msg
}

// InvalidRouteDefinitionError reports a route tree entry whose shape is not
// recognized. PathHint is a breadcrumb such as "root[admin][/users]".
type InvalidRouteDefinitionError struct {
	PathHint   string
	Message    string
	Suggestion string
	File       string
	Line       int
}

func (e *InvalidRouteDefinitionError) Error() string {
	msg := fmt.Sprintf("invalid route definition at %s", e.PathHint)
	if loc := location(e.File, e.Line); loc != "" {
		msg += " (" + loc + ")"
	}
	msg += ": " + e.Message
	if e.Suggestion != "" {
		msg += ". Suggestion: " + e.Suggestion
	}
	return msg
}

// DuplicateMiddlewareError reports a middleware added at a scope that
// already inherits it.
type DuplicateMiddlewareError struct {
	Middleware string
	PathHint   string
	File       string
	Line       int
}

func (e *DuplicateMiddlewareError) Error() string {
	msg := fmt.Sprintf("adding middleware %s at %s[middleware], but %s was already added at a higher level",
		e.Middleware, e.PathHint, e.Middleware)
	if loc := location(e.File, e.Line); loc != "" {
		msg += " (" + loc + ")"
	}
	return msg
}

// MiddlewareNotFoundError reports a "-name" directive for a middleware that
// is not in the inherited set.
type MiddlewareNotFoundError struct {
	Middleware string
	PathHint   string
	File       string
	Line       int
}

func (e *MiddlewareNotFoundError) Error() string {
	msg := fmt.Sprintf("trying to remove middleware that does not exist at %s[middleware]: %s",
		e.PathHint, e.Middleware)
	if loc := location(e.File, e.Line); loc != "" {
		msg += " (" + loc + ")"
	}
	return msg
}

// WriteError reports a compiled snapshot that could not be persisted.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write compiled routes to %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
