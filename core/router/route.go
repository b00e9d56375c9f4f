package router

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/dmitrymomot/relay/core/handler"
)

// Methods lists the HTTP methods a route accepts.
var Methods = []string{
	http.MethodHead,
	http.MethodGet,
	http.MethodPatch,
	http.MethodPost,
	http.MethodPut,
	http.MethodDelete,
	http.MethodOptions,
}

// Endpoint is one method's handler chain on a route.
type Endpoint struct {
	Method string
	Chain  []handler.Middleware
}

// Route is an addressable path holding one handler chain per HTTP method.
type Route struct {
	path   string
	prefix string
	name   string

	// shared middleware captured from the router when the route was declared
	shared []handler.Middleware

	endpoints []Endpoint
	frozen    bool
}

// NewRoute creates a standalone route for path.
func NewRoute(path string) *Route {
	return &Route{path: normalize(path)}
}

// Path returns the effective path: prefix joined with the route path.
func (r *Route) Path() string {
	return joinPath(r.prefix, r.path)
}

// Pattern returns the effective path in the form the index understands.
func (r *Route) Pattern() string {
	return toPattern(r.Path())
}

// Name returns the route name, if any.
func (r *Route) Name() string {
	return r.name
}

// As sets the route name.
func (r *Route) As(name string) *Route {
	r.mustBeOpen()
	r.name = name
	return r
}

// Prefix sets the route prefix, replacing any previous one.
func (r *Route) Prefix(p string) *Route {
	r.mustBeOpen()
	if p == "" || p == "/" {
		r.prefix = ""
	} else {
		r.prefix = normalize(p)
	}
	return r
}

// Head registers h for HEAD requests.
func (r *Route) Head(h handler.HandlerFunc, mw ...handler.Middleware) *Route {
	return r.Any([]string{http.MethodHead}, h, mw...)
}

// Get registers h for GET and HEAD requests.
func (r *Route) Get(h handler.HandlerFunc, mw ...handler.Middleware) *Route {
	return r.Any([]string{http.MethodHead, http.MethodGet}, h, mw...)
}

// Post registers h for POST requests.
func (r *Route) Post(h handler.HandlerFunc, mw ...handler.Middleware) *Route {
	return r.Any([]string{http.MethodPost}, h, mw...)
}

// Put registers h for PUT requests.
func (r *Route) Put(h handler.HandlerFunc, mw ...handler.Middleware) *Route {
	return r.Any([]string{http.MethodPut}, h, mw...)
}

// Patch registers h for PATCH requests.
func (r *Route) Patch(h handler.HandlerFunc, mw ...handler.Middleware) *Route {
	return r.Any([]string{http.MethodPatch}, h, mw...)
}

// Delete registers h for DELETE requests.
func (r *Route) Delete(h handler.HandlerFunc, mw ...handler.Middleware) *Route {
	return r.Any([]string{http.MethodDelete}, h, mw...)
}

// Options registers h for OPTIONS requests.
func (r *Route) Options(h handler.HandlerFunc, mw ...handler.Middleware) *Route {
	return r.Any([]string{http.MethodOptions}, h, mw...)
}

// All registers h for every accepted method.
func (r *Route) All(h handler.HandlerFunc, mw ...handler.Middleware) *Route {
	return r.Any(Methods, h, mw...)
}

// Any registers the chain [shared..., mw..., h] for each of methods.
// It panics when h or a middleware is nil, when a method is not accepted,
// or when a method is already defined on this route.
func (r *Route) Any(methods []string, h handler.HandlerFunc, mw ...handler.Middleware) *Route {
	r.mustBeOpen()

	if h == nil {
		panic(fmt.Errorf("%w: '%s'", ErrNoHandler, r.Path()))
	}
	for _, fn := range mw {
		if fn == nil {
			panic(fmt.Errorf("%w: nil middleware on '%s'", ErrNilMiddleware, r.Path()))
		}
	}
	if len(methods) == 0 {
		panic(fmt.Errorf("%w: no methods provided for '%s'", ErrInvalidMethod, r.Path()))
	}

	// Validate everything first so a rejected call leaves the route untouched.
	upper := make([]string, 0, len(methods))
	for _, m := range methods {
		m = strings.ToUpper(m)
		if !slices.Contains(Methods, m) {
			panic(fmt.Errorf("%w: %s", ErrInvalidMethod, m))
		}
		if r.has(m) || slices.Contains(upper, m) {
			panic(fmt.Errorf("%w: '%s' on \"%s\"", ErrDuplicateMethod, m, r.Path()))
		}
		upper = append(upper, m)
	}

	chain := make([]handler.Middleware, 0, len(r.shared)+len(mw)+1)
	chain = append(chain, r.shared...)
	chain = append(chain, mw...)
	chain = append(chain, handler.Terminal(h))

	for _, m := range upper {
		r.endpoints = append(r.endpoints, Endpoint{Method: m, Chain: chain})
	}
	return r
}

// Handlers returns the method chains in registration order.
func (r *Route) Handlers() []Endpoint {
	return slices.Clone(r.endpoints)
}

func (r *Route) has(method string) bool {
	for _, ep := range r.endpoints {
		if ep.Method == method {
			return true
		}
	}
	return false
}

func (r *Route) freeze() {
	r.frozen = true
}

func (r *Route) mustBeOpen() {
	if r.frozen {
		panic(fmt.Errorf("%w: cannot modify '%s'", ErrFrozen, r.Path()))
	}
}
