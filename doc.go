// Package relay is a small HTTP middleware framework. A request gets a fresh
// context, runs through an ordered chain of middleware, and ends with exactly
// one finalizer call. Any failure diverts the request to a catcher chain.
//
// # Basic Usage
//
//	app, err := relay.New(relay.WithAddr(":8080"))
//	if err != nil {
//		return err
//	}
//
//	app.Bind("user", func(ctx *handler.Context) any {
//		return loadUser(ctx)
//	})
//	app.Pre(middleware.RequestID())
//
//	r := router.New(router.WithPrefix("/api"))
//	r.Get("/users/:id", func(ctx *handler.Context) (any, error) {
//		return map[string]string{"id": ctx.Param("id")}, nil
//	})
//	app.Use(r)
//
//	return app.Start(ctx)
//
// # Chain Order
//
// For every route compiled by Use the chain is: pre middleware, router-level
// middleware, the route's own middleware and handler, then post middleware.
// Pre and post hooks only reach routers passed to Use after the hooks were
// registered.
//
// A middleware continues the chain by calling next(nil) and fails it by
// calling next(err), returning an error or panicking. The first failure moves
// the request to the catcher chain from its start; a failure inside the
// catcher chain is fatal and skips the finalizer. ServeHTTP answers 500 if
// nothing was written in that case.
//
// # Properties
//
// Set registers values shared by all requests. Bind registers factories
// evaluated at most once per request on first read. Values set on a context
// shadow both.
//
// # Configuration
//
// Config is loaded with core/config and covers logging, the server and the
// engine's stall timeout:
//
//	var cfg relay.Config
//	config.MustLoad(&cfg)
//	app, err := relay.NewFromConfig(cfg)
package relay
