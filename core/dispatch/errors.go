package dispatch

import "errors"

var (
	// ErrFrozen is raised when hooks or routers are registered after the first dispatch.
	ErrFrozen = errors.New("dispatch engine is running")
	// ErrNilHook is raised when a nil middleware or finalizer is registered.
	ErrNilHook = errors.New("hook must be a function")
	// ErrNilRouter is raised when Use receives a nil router.
	ErrNilRouter = errors.New("router is nil")
	// ErrNilContext is returned when Dispatch is called without a context.
	ErrNilContext = errors.New("context is nil")

	// ErrUnhandled wraps an error raised inside the catcher chain.
	ErrUnhandled = errors.New("unhandled error in catcher chain")
	// ErrFinalize wraps an error raised by the finalizer.
	ErrFinalize = errors.New("finalizer failed")
	// ErrStalled is returned when a handler does not continue within the stall timeout.
	ErrStalled = errors.New("handler did not call next")
)
