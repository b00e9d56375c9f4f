package relay

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/relay/core/dispatch"
	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/server"
)

// Option configures an App.
type Option func(*App) error

// WithLogger sets the logger shared by the engine and the default server.
func WithLogger(logger *slog.Logger) Option {
	return func(app *App) error {
		if logger == nil {
			return ErrNilLogger
		}
		app.logger = logger
		return nil
	}
}

// WithServer replaces the default server.
func WithServer(srv *server.Server) Option {
	return func(app *App) error {
		if srv == nil {
			return ErrNilServer
		}
		app.server = srv
		return nil
	}
}

// WithAddr sets the listen address of the default server.
func WithAddr(addr string) Option {
	return func(app *App) error {
		if addr == "" {
			return server.ErrMissingAddress
		}
		app.addr = addr
		return nil
	}
}

// WithStore uses a pre-populated context store.
func WithStore(store *handler.Store) Option {
	return func(app *App) error {
		if store == nil {
			return ErrNilStore
		}
		app.store = store
		return nil
	}
}

// WithStallTimeout makes a chain step that never calls next fail after d.
func WithStallTimeout(d time.Duration) Option {
	return WithEngineOptions(dispatch.WithStallTimeout(d))
}

// WithEngineOptions passes options through to the dispatch engine.
func WithEngineOptions(opts ...dispatch.Option) Option {
	return func(app *App) error {
		app.engineOpts = append(app.engineOpts, opts...)
		return nil
	}
}
