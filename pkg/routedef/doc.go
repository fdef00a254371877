// Package routedef parses YAML route definition files into a typed route
// tree and flattens that tree into route records.
//
// # File Format
//
// A route file is a YAML mapping with two optional keys:
//
//	include:
//	  - shared.yaml
//	routes:
//	  middleware: [session]
//	  /: HomeController@index
//	  /admin:
//	    middleware: [auth]
//	    domain: admin.example.com
//	    GET: AdminController@dashboard
//	    /users:
//	      include: [admin/users.yaml]
//	      POST:
//	        handler: UserController@store
//	        name: admin.users.store
//	        middleware: [-session, csrf]
//
// # Tree Shapes
//
// Inside `routes`, each key is interpreted by shape:
//
//   - GET, POST, PUT, DELETE, PATCH, OPTIONS, HEAD: a route at the current path
//   - "/segment": a path scope (or an implicit GET when the value is a string)
//   - integer keys and sequence items: a group with no path contribution
//   - middleware, domain, options: directives inherited by everything below
//   - include: route files expanded in place by the compiler
//
// Parsing converts the YAML once into Node values; flattening then walks the
// typed tree without re-inspecting YAML.
package routedef
