package relay

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/relay/core/dispatch"
	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/router"
	"github.com/dmitrymomot/relay/core/server"
)

// DefaultAddr is the listen address of the server created when none is supplied.
const DefaultAddr = server.DefaultAddr

// App ties a context store, a dispatch engine and an HTTP server together.
// Configure it completely before serving the first request: registrations
// after that point panic.
type App struct {
	store      *handler.Store
	engine     *dispatch.Engine
	server     *server.Server
	logger     *slog.Logger
	addr       string
	engineOpts []dispatch.Option
}

// New creates an App. Without options it logs nowhere and listens on DefaultAddr.
func New(opts ...Option) (*App, error) {
	app := &App{
		logger: logger.Discard(),
		addr:   DefaultAddr,
	}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	if app.store == nil {
		app.store = handler.NewStore()
	}

	engineOpts := append([]dispatch.Option{dispatch.WithLogger(app.logger)}, app.engineOpts...)
	app.engine = dispatch.New(engineOpts...)

	if app.server == nil {
		app.server = server.New(app.addr, server.WithLogger(app.logger))
	}

	return app, nil
}

// Set registers a shared property available on every context.
func (a *App) Set(name string, value any) *App {
	a.store.Set(name, value)
	return a
}

// Bind registers a property computed by fn at most once per request.
func (a *App) Bind(name string, fn handler.Factory) *App {
	a.store.Bind(name, fn)
	return a
}

// Get returns a shared property. Bound properties are only resolvable on a context.
func (a *App) Get(name string) (any, bool) {
	return a.store.Get(name)
}

// Has reports whether name is registered, shared or bound.
func (a *App) Has(name string) bool {
	return a.store.Has(name)
}

// Pre adds middleware run before the route chain of every router used afterwards.
func (a *App) Pre(middlewares ...handler.Middleware) *App {
	a.engine.Pre(middlewares...)
	return a
}

// Post adds middleware run after the route chain of every router used afterwards.
func (a *App) Post(middlewares ...handler.Middleware) *App {
	a.engine.Post(middlewares...)
	return a
}

// Catch adds middleware to the catcher chain.
func (a *App) Catch(middlewares ...handler.Middleware) *App {
	a.engine.Catch(middlewares...)
	return a
}

// Finally replaces the finalizer.
func (a *App) Finally(fn handler.FinalHandler) *App {
	a.engine.Finally(fn)
	return a
}

// Use compiles the routes of each router with the hooks registered so far.
func (a *App) Use(routers ...*router.Router) *App {
	a.engine.Use(routers...)
	return a
}

// Routes lists the compiled routes.
func (a *App) Routes() []router.Info {
	return a.engine.Routes()
}

// Store returns the context store.
func (a *App) Store() *handler.Store {
	return a.store
}

// Server returns the HTTP server.
func (a *App) Server() *server.Server {
	return a.server
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Handle dispatches one request and returns the engine's fatal error, if any.
func (a *App) Handle(w http.ResponseWriter, r *http.Request) error {
	_, err := a.dispatch(w, r)
	return err
}

// ServeHTTP implements http.Handler. When dispatch fails fatally before
// anything was written, the client gets a bare 500. The response is detached
// first, so a handler still running after a stall cannot write concurrently.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, err := a.dispatch(w, r)
	if err == nil {
		return
	}
	res := ctx.Response()
	res.Detach()
	if !res.Written() {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (a *App) dispatch(w http.ResponseWriter, r *http.Request) (*handler.Context, error) {
	ctx := a.store.Create(w, r)
	return ctx, a.engine.Dispatch(ctx)
}

// Start serves the app until ctx is done or the listener fails. When ctx is
// done the server is shut down gracefully before Start returns.
func (a *App) Start(ctx context.Context) error {
	err := a.server.Start(ctx, a)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return a.server.Stop()
	}
	return err
}

// Stop shuts the server down gracefully.
func (a *App) Stop() error {
	return a.server.Stop()
}

// Run returns a function for errgroup that serves until ctx is canceled.
func (a *App) Run(ctx context.Context) func() error {
	return a.server.Run(ctx, a)
}
