// Package router declares routes and indexes them for lookup.
//
// A Route is one path with a handler chain per HTTP method. A Router groups
// routes under a shared prefix and middleware stack. The Tree is the radix
// index the dispatch engine compiles routers into.
//
// # Basic Usage
//
//	r := router.New(router.WithPrefix("/api"))
//	r.Use(auth)
//
//	r.Get("/users/:id", func(ctx *handler.Context) (any, error) {
//		return map[string]string{"id": ctx.Param("id")}, nil
//	})
//
//	r.Route("/health").As("health").Get(func(ctx *handler.Context) (any, error) {
//		return "ok", nil
//	})
//
// # Path Syntax
//
// Variables are written as ":name" or "{name}". A "{name:regexp}" segment
// constrains the value and a trailing "*" captures the rest of the path.
// Paths always gain a leading slash and lose a trailing one.
//
// # Shared Middleware
//
// Middleware added with Router.Use is captured when a route is declared, so it
// applies only to routes declared after the call:
//
//	r.Get("/public", public)   // no auth
//	r.Use(auth)
//	r.Get("/private", private) // auth runs first
//
// # Registration Errors
//
// Invalid registrations panic at setup time: nil handlers or middleware,
// unknown methods, a method declared twice on one route, and any change after
// the router was compiled. The panic value wraps one of the package's
// sentinel errors.
package router
