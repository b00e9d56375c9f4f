package router

import "github.com/dmitrymomot/relay/core/handler"

// Option configures a Router during creation.
type Option func(*Router)

// WithPrefix sets the initial prefix applied to every declared route.
func WithPrefix(prefix string) Option {
	return func(r *Router) {
		r.prefix = prefix
	}
}

// WithMiddleware adds shared middleware to the router.
func WithMiddleware(middlewares ...handler.Middleware) Option {
	return func(r *Router) {
		r.Use(middlewares...)
	}
}
