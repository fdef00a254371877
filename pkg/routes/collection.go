package routes

import (
	"fmt"
	"strings"
)

// RouteHandle is what a routing table hands back after registering a route.
// Middleware and a name are attached after registration.
type RouteHandle interface {
	Middleware(names ...string)
	SetName(name string)
}

// DomainSetter is implemented by route handles that can bind a route to a
// host. Handles without it silently ignore route domains.
type DomainSetter interface {
	SetDomain(domain string)
}

// Registrar is a routing table that routes can be injected into.
type Registrar interface {
	Map(method, path, handler string) RouteHandle
}

// Collection is an ordered list of route records.
type Collection struct {
	records []Record
}

// NewCollection creates a collection holding records in order.
func NewCollection(records ...Record) *Collection {
	c := &Collection{records: make([]Record, 0, len(records))}
	for _, r := range records {
		c.Add(r)
	}
	return c
}

// Add appends a record.
func (c *Collection) Add(r Record) {
	c.records = append(c.records, r)
}

// Len returns the number of records.
func (c *Collection) Len() int {
	return len(c.records)
}

// At returns the record at index i. It panics when i is out of range.
func (c *Collection) At(i int) Record {
	return c.records[i]
}

// Records returns a copy of the records in order.
func (c *Collection) Records() []Record {
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// InjectInto registers every record with r, mounted under pathPrefix.
//
// The prefix must be empty or start with "/". Trailing slashes are dropped
// from the prefix and from the joined path, so mounting "/" under "/admin"
// registers "/admin".
func (c *Collection) InjectInto(r Registrar, pathPrefix string) error {
	prefix, err := normalizePrefix(pathPrefix)
	if err != nil {
		return err
	}

	for _, rec := range c.records {
		path := strings.TrimRight(prefix+rec.Path, "/")
		if path == "" {
			path = "/"
		}

		handle := r.Map(string(rec.Method), path, rec.Handler)
		if handle == nil {
			return fmt.Errorf("registrar returned no route handle for %s %s", rec.Method, path)
		}
		if len(rec.Middleware) > 0 {
			handle.Middleware(rec.Middleware...)
		}
		if rec.Name != "" {
			handle.SetName(rec.Name)
		}
		if rec.Domain != "" {
			if ds, ok := handle.(DomainSetter); ok {
				ds.SetDomain(rec.Domain)
			}
		}
	}

	return nil
}

func normalizePrefix(prefix string) (string, error) {
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix)
	}
	return strings.TrimRight(prefix, "/"), nil
}
