package dispatch

import (
	"log/slog"
	"time"
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithLogger sets the logger used for registration and failure events.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithStallTimeout makes a step that has not continued within d fatal.
// Zero disables the timeout.
//
// When the timeout fires Dispatch detaches the response, runs the context
// cleanups and returns ErrStalled while the stalled handler may still be
// running. From then on the handler must stop using the context and its
// bound values: pooled resources released by cleanups are gone, and writes
// to the response fail with response.ErrDetached.
func WithStallTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.stallTimeout = d
	}
}
