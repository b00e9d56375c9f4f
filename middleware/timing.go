package middleware

import (
	"time"

	"github.com/dmitrymomot/relay/core/handler"
)

// TimingKey is the context property holding the time the request entered the chain.
const TimingKey = "request_start"

// Timing records when the request entered the chain. Register it as the first
// pre middleware so Elapsed and TimingHeader measure the whole dispatch.
func Timing() handler.Middleware {
	return func(ctx *handler.Context, next handler.Next) error {
		if !ctx.Has(TimingKey) {
			ctx.Set(TimingKey, time.Now())
		}
		next(nil)
		return nil
	}
}

// TimingHeader writes the elapsed time since Timing ran as a response header
// (default "X-Response-Time"). Register it as a post middleware and as a
// catcher ahead of dispatch.DefaultCatcher so failed requests carry it too.
func TimingHeader(headerName ...string) handler.Middleware {
	name := "X-Response-Time"
	if len(headerName) > 0 && headerName[0] != "" {
		name = headerName[0]
	}

	return func(ctx *handler.Context, next handler.Next) error {
		if d, ok := Elapsed(ctx); ok {
			ctx.Response().Header().Set(name, d.String())
		}
		next(nil)
		return nil
	}
}

// Elapsed reports the time since Timing ran for this request.
func Elapsed(ctx *handler.Context) (time.Duration, bool) {
	start, ok := handler.Lookup[time.Time](ctx, TimingKey)
	if !ok {
		return 0, false
	}
	return time.Since(start), true
}
