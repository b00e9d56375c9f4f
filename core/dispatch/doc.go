// Package dispatch runs requests through compiled handler chains.
//
// An Engine owns the method+path index and four global hooks: pre and post
// middleware that wrap every route chain, the catcher chain entered on the
// first error, and a finalizer that runs exactly once per request.
//
//	e := dispatch.New(dispatch.WithLogger(log))
//	e.Pre(requestID)
//	e.Post(timing)
//	e.Catch(renderError)
//	e.Use(api)
//
//	store := handler.NewStore()
//	err := e.Dispatch(store.Create(w, r))
//
// # Execution
//
// Handlers run one at a time. The engine waits for each step to call next,
// which may happen synchronously or later from another goroutine; only the
// first call per step counts. Returning an error or panicking is the same as
// calling next with that error; if the step already called next, the error
// can no longer be routed and is logged at error level.
//
// The first error is recorded on the context and the catcher chain starts
// from its beginning. Without catchers the default catcher writes the error
// status and, for exposed errors, the message. An error raised inside the
// catcher chain is not caught again: Dispatch stops and returns it wrapped in
// ErrUnhandled without running the finalizer.
//
// Hooks apply to routers used after them. Post middleware run in the order
// they were declared. Registering anything after the first Dispatch panics.
package dispatch
