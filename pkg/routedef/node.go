package routedef

import (
	"time"

	"github.com/simonhull/firebird-suite/roost/pkg/routes"
)

// Document is one parsed route source file.
type Document struct {
	Path     string       // Absolute, cleaned path
	ModTime  time.Time    // Modification time when the file was read
	Includes []IncludeRef // Top-level includes, in file order
	Routes   *Block       // Nil when the file has no routes
}

// IncludeRef is one include entry as written in a route file.
type IncludeRef struct {
	Path string
	Line int
}

// Node is one entry of a route Block.
//
// Implementations: *MethodLeaf, *PathGroup, *Grouping and *Include.
type Node interface {
	// Hint returns the breadcrumb locating the node, e.g. "root[/admin][GET]".
	Hint() string
	// Line returns the 1-based source line of the node's key.
	Line() int
}

// pos is embedded by every Node.
type pos struct {
	hint string
	line int
}

func (p pos) Hint() string { return p.hint }
func (p pos) Line() int    { return p.line }

// Block is one scope level: the directives declared at that level and the
// route entries that inherit them, in source order.
type Block struct {
	pos
	Middleware []routes.MiddlewareDirective
	Domain     *string        // Nil when the level does not set a domain
	Options    map[string]any // Nil when the level does not set options
	Entries    []Node
}

// MethodLeaf is a route bound to one HTTP method at the current path.
// Middleware, Domain and Options apply to this route only.
type MethodLeaf struct {
	pos
	Method     routes.Method
	Handler    string
	Name       string
	Middleware []routes.MiddlewareDirective
	Domain     *string
	Options    map[string]any
}

// PathGroup appends Segment to the current path. Exactly one of Handler
// (shorthand for a GET route) and Block is set.
type PathGroup struct {
	pos
	Segment string
	Handler string
	Block   *Block
}

// Grouping scopes directives to a subset of routes without adding a path
// segment.
type Grouping struct {
	pos
	Block *Block
}

// Include expands other route files at its position in the tree.
type Include struct {
	pos
	Refs []IncludeRef
}
