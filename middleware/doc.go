// Package middleware provides optional chain entries for the dispatch engine:
// request IDs, request logging, response timing, body size limits and
// security headers.
//
// Every constructor returns a handler.Middleware. Most are meant for the
// engine's pre stage so they apply to every route compiled afterwards:
//
//	engine := dispatch.New()
//	engine.Pre(
//		middleware.Timing(),
//		middleware.RequestID(),
//		middleware.Logging(),
//		middleware.SecurityHeaders(),
//		middleware.BodyLimitWithSize(middleware.MB),
//	)
//	engine.Post(middleware.TimingHeader())
//	engine.Catch(middleware.TimingHeader(), dispatch.DefaultCatcher)
//
// Values produced by a middleware are stored as context properties and read
// back with helpers such as GetRequestID and Elapsed.
//
// Logging writes its response record from a context cleanup, after the
// finalizer has sent the response, so status and size are final.
//
// # Unmatched Requests
//
// Pre and post middleware are compiled into each route's chain. A request
// that matches no route runs the catcher chain alone, so none of the pre
// middleware above sees it: there is no request ID, no access log record
// and no start time for TimingHeader, which then leaves the header unset.
// To observe 404s, add a catcher that records them:
//
//	engine.Catch(func(ctx *handler.Context, next handler.Next) error {
//		if handler.StatusOf(ctx.Error()) == http.StatusNotFound {
//			log.InfoContext(ctx, "route not found", logger.Path(ctx.Request().URL.Path))
//		}
//		next(nil)
//		return nil
//	}, dispatch.DefaultCatcher)
package middleware
