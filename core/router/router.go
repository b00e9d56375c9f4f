package router

import (
	"fmt"
	"slices"

	"github.com/dmitrymomot/relay/core/handler"
)

// Router is a registry of routes sharing a prefix and a middleware stack.
// It is built during setup and frozen once the dispatch engine compiles it.
type Router struct {
	prefix      string
	middlewares []handler.Middleware
	routes      []*Route
	frozen      bool
}

// New creates a router with the given options.
func New(opts ...Option) *Router {
	r := &Router{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Prefix sets the router-wide prefix and re-prefixes the routes already declared.
func (r *Router) Prefix(value string) *Router {
	r.mustBeOpen()
	r.prefix = value
	for _, rt := range r.routes {
		rt.Prefix(value)
	}
	return r
}

// Use appends shared middleware. Only routes declared afterwards receive it.
func (r *Router) Use(middlewares ...handler.Middleware) *Router {
	r.mustBeOpen()
	for _, mw := range middlewares {
		if mw == nil {
			panic(fmt.Errorf("%w: nil middleware passed to Use", ErrNilMiddleware))
		}
	}
	r.middlewares = append(r.middlewares, middlewares...)
	return r
}

// Route creates, registers and returns a new route under the router's prefix.
func (r *Router) Route(path string) *Route {
	r.mustBeOpen()
	rt := NewRoute(path).Prefix(r.prefix)
	rt.shared = slices.Clone(r.middlewares)
	r.routes = append(r.routes, rt)
	return rt
}

// Routes returns every declared route in declaration order.
func (r *Router) Routes() []*Route {
	return slices.Clone(r.routes)
}

// Freeze marks the router and its routes as compiled; further changes panic.
func (r *Router) Freeze() {
	r.frozen = true
	for _, rt := range r.routes {
		rt.freeze()
	}
}

// Head declares a route at path handling HEAD.
func (r *Router) Head(path string, h handler.HandlerFunc, mw ...handler.Middleware) *Route {
	return r.Route(path).Head(h, mw...)
}

// Get declares a route at path handling GET and HEAD.
func (r *Router) Get(path string, h handler.HandlerFunc, mw ...handler.Middleware) *Route {
	return r.Route(path).Get(h, mw...)
}

// Post declares a route at path handling POST.
func (r *Router) Post(path string, h handler.HandlerFunc, mw ...handler.Middleware) *Route {
	return r.Route(path).Post(h, mw...)
}

// Put declares a route at path handling PUT.
func (r *Router) Put(path string, h handler.HandlerFunc, mw ...handler.Middleware) *Route {
	return r.Route(path).Put(h, mw...)
}

// Patch declares a route at path handling PATCH.
func (r *Router) Patch(path string, h handler.HandlerFunc, mw ...handler.Middleware) *Route {
	return r.Route(path).Patch(h, mw...)
}

// Delete declares a route at path handling DELETE.
func (r *Router) Delete(path string, h handler.HandlerFunc, mw ...handler.Middleware) *Route {
	return r.Route(path).Delete(h, mw...)
}

// Options declares a route at path handling OPTIONS.
func (r *Router) Options(path string, h handler.HandlerFunc, mw ...handler.Middleware) *Route {
	return r.Route(path).Options(h, mw...)
}

// All declares a route at path handling every accepted method.
func (r *Router) All(path string, h handler.HandlerFunc, mw ...handler.Middleware) *Route {
	return r.Route(path).All(h, mw...)
}

// Any declares a route at path handling the given methods.
func (r *Router) Any(methods []string, path string, h handler.HandlerFunc, mw ...handler.Middleware) *Route {
	return r.Route(path).Any(methods, h, mw...)
}

func (r *Router) mustBeOpen() {
	if r.frozen {
		panic(ErrFrozen)
	}
}
