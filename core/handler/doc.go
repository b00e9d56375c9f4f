// Package handler defines the request context and the handler vocabulary
// shared by the router and the dispatch engine.
//
// # Context Store
//
// A Store collects registrations during setup and produces one Context per
// request:
//
//	store := handler.NewStore()
//	store.Set("version", "1.4.2")
//	store.Bind("db", func(ctx *handler.Context) any {
//		return openSession(ctx)
//	})
//
//	ctx := store.Create(w, r)
//	v, _ := ctx.Get("version") // shared, returned verbatim
//	db, _ := ctx.Get("db")     // computed now, memoized for this ctx
//
// Set values are returned as registered. Bound factories run at most once per
// context, on first access, and each context keeps its own result. The first
// Create freezes the store; registering afterwards panics with ErrFrozen.
//
// # Handlers
//
// Every chain step is a Middleware:
//
//	func auth(ctx *handler.Context, next handler.Next) error {
//		if ctx.Request().Header.Get("Authorization") == "" {
//			return handler.ErrUnauthorized
//		}
//		next(nil)
//		return nil
//	}
//
// A route ends with a HandlerFunc whose result becomes the response body:
//
//	func show(ctx *handler.Context) (any, error) {
//		return map[string]string{"id": ctx.Param("id")}, nil
//	}
//
// # Errors
//
// Error carries a status, a machine-readable code and an Expose flag.
// StatusOf and IsExposed inspect any error chain for those properties.
package handler
