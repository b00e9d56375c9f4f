package handler

// Next hands control back to the dispatcher.
// A nil error advances to the following handler; a non-nil error diverts
// the request to the catcher chain. Only the first call per step counts.
type Next func(err error)

// Middleware is a single step of a handler chain.
// Returning a non-nil error is equivalent to calling next with that error.
type Middleware func(ctx *Context, next Next) error

// HandlerFunc is a terminal route handler.
// Its result becomes the response body unless a body was already set.
type HandlerFunc func(ctx *Context) (any, error)

// FinalHandler runs exactly once per request, after the active chain is exhausted.
type FinalHandler func(ctx *Context) error

// Factory computes a bound context property. It is invoked at most once per context.
type Factory func(ctx *Context) any

// Terminal adapts h to the end of a handler chain.
// An error, returned or produced as the result, is forwarded to the error path.
// Otherwise a non-empty result is assigned to the response body when none is
// set yet, and the chain continues so post middleware and the finalizer still
// run. nil, "" and zero-length byte slices count as empty.
func Terminal(h HandlerFunc) Middleware {
	return func(ctx *Context, next Next) error {
		body, err := h(ctx)
		if err != nil {
			return err
		}
		if e, ok := body.(error); ok {
			return e
		}
		if !isEmpty(body) && !ctx.Response().HasBody() {
			ctx.Response().SetBody(body)
		}
		next(nil)
		return nil
	}
}

func isEmpty(body any) bool {
	switch v := body.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []byte:
		return len(v) == 0
	}
	return false
}
