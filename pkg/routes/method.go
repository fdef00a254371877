package routes

// Method is an HTTP method a route can be registered for.
type Method string

// Supported HTTP methods.
const (
	GET     Method = "GET"
	POST    Method = "POST"
	PUT     Method = "PUT"
	DELETE  Method = "DELETE"
	PATCH   Method = "PATCH"
	OPTIONS Method = "OPTIONS"
	HEAD    Method = "HEAD"
)

// Methods lists every supported method in canonical order.
var Methods = []Method{GET, POST, PUT, DELETE, PATCH, OPTIONS, HEAD}

// ParseMethod reports whether s is a supported method key.
// Matching is case-sensitive: route files use upper-case method keys.
func ParseMethod(s string) (Method, bool) {
	for _, m := range Methods {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// IsMethod reports whether s is a supported method key.
func IsMethod(s string) bool {
	_, ok := ParseMethod(s)
	return ok
}
