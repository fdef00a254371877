package routing

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
)

// EchoResolvers turn handler and middleware names into echo functions.
type EchoResolvers struct {
	Handler    func(name string) (echo.HandlerFunc, error)
	Middleware func(name string) (echo.MiddlewareFunc, error)
}

// MountEcho registers every route of t on e. Routes with a domain are
// registered on the matching e.Host group, and named routes keep their name
// so e.Reverse works.
func MountEcho(e *echo.Echo, t *Table, res EchoResolvers) error {
	if res.Handler == nil {
		return fmt.Errorf("mounting routes on echo: handler resolver is required")
	}

	hosts := make(map[string]*echo.Group)
	for _, r := range t.routes {
		h, err := res.Handler(r.Handler)
		if err != nil {
			return fmt.Errorf("resolving handler %q for %s %s: %w", r.Handler, r.Method, r.Path, err)
		}

		mws := make([]echo.MiddlewareFunc, 0, len(r.Middleware))
		for _, name := range r.Middleware {
			if res.Middleware == nil {
				return fmt.Errorf("route %s %s uses middleware %q but no middleware resolver is set", r.Method, r.Path, name)
			}
			mw, err := res.Middleware(name)
			if err != nil {
				return fmt.Errorf("resolving middleware %q for %s %s: %w", name, r.Method, r.Path, err)
			}
			mws = append(mws, mw)
		}

		path := EchoPath(r.Path)
		var route *echo.Route
		if r.Domain != "" {
			g, ok := hosts[r.Domain]
			if !ok {
				g = e.Host(r.Domain)
				hosts[r.Domain] = g
			}
			route = g.Add(r.Method, path, h, mws...)
		} else {
			route = e.Add(r.Method, path, h, mws...)
		}
		if r.Name != "" {
			route.Name = r.Name
		}
	}
	return nil
}

// EchoPath converts "{param}" segments to echo's ":param" syntax. A
// "{name:pattern}" segment keeps only the name.
func EchoPath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if name, ok := placeholder(seg); ok {
			segments[i] = ":" + name
		}
	}
	return strings.Join(segments, "/")
}
