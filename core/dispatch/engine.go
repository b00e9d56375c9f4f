package dispatch

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/router"
)

// Engine runs requests through compiled handler chains.
// Hooks and routers are registered during setup; the engine freezes on the
// first Dispatch and is safe for concurrent dispatches from then on.
type Engine struct {
	mu       sync.RWMutex
	tree     *router.Tree
	pre      []handler.Middleware
	post     []handler.Middleware
	catchers []handler.Middleware
	final    handler.FinalHandler

	logger       *slog.Logger
	stallTimeout time.Duration
	frozen       atomic.Bool
}

// New creates an engine with the default catcher and finalizer.
func New(opts ...Option) *Engine {
	e := &Engine{
		tree:   router.NewTree(),
		final:  DefaultFinalizer,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Pre appends middleware that runs before the route chain of every router used afterwards.
func (e *Engine) Pre(middlewares ...handler.Middleware) *Engine {
	e.register("pre", &e.pre, middlewares)
	return e
}

// Post appends middleware that runs after the route chain of every router used afterwards.
// Post middleware run in declaration order.
func (e *Engine) Post(middlewares ...handler.Middleware) *Engine {
	e.register("post", &e.post, middlewares)
	return e
}

// Catch appends middleware to the catcher chain entered on the first error.
func (e *Engine) Catch(middlewares ...handler.Middleware) *Engine {
	e.register("catch", &e.catchers, middlewares)
	return e
}

// Finally replaces the finalizer.
func (e *Engine) Finally(fn handler.FinalHandler) *Engine {
	if fn == nil {
		panic(fmt.Errorf("%w: nil finalizer", ErrNilHook))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.mustBeOpen()
	e.final = fn
	e.logger.Debug("set finalizer", logger.Component("dispatch"))
	return e
}

// Use compiles the routes of each router into the index as
// [pre..., route chain..., post...] using the hooks registered so far,
// then freezes the router.
func (e *Engine) Use(routers ...*router.Router) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mustBeOpen()

	for _, r := range routers {
		if r == nil {
			panic(ErrNilRouter)
		}

		n := 0
		for _, route := range r.Routes() {
			for _, ep := range route.Handlers() {
				chain := make([]handler.Middleware, 0, len(e.pre)+len(ep.Chain)+len(e.post))
				chain = append(chain, e.pre...)
				chain = append(chain, ep.Chain...)
				chain = append(chain, e.post...)

				e.tree.Insert(ep.Method, route.Pattern(), route.Name(), chain)
				n++
			}
		}
		r.Freeze()

		e.logger.Debug("use router",
			logger.Component("dispatch"),
			logger.Count("routes", n),
		)
	}
	return e
}

// Routes returns the compiled method and pattern pairs.
func (e *Engine) Routes() []router.Info {
	return e.tree.Routes()
}

// Dispatch runs ctx through the chain matching its request.
// It returns nil once the finalizer has run, or an error wrapping ErrUnhandled,
// ErrFinalize or ErrStalled when the request could not be finalized normally.
// Functions registered with ctx.Defer run before Dispatch returns.
func (e *Engine) Dispatch(ctx *handler.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	e.frozen.Store(true)
	defer ctx.Cleanup()

	e.mu.RLock()
	r := &run{
		ctx:      ctx,
		catchers: e.catchers,
		final:    e.final,
		logger:   e.logger,
		timeout:  e.stallTimeout,
		signals:  make(chan signal, 1),
	}
	e.mu.RUnlock()

	if len(r.catchers) == 0 {
		r.catchers = []handler.Middleware{DefaultCatcher}
	}

	method, path := target(ctx.Request())
	if m, ok := e.tree.Find(method, path); ok {
		ctx.SetParams(m.Params)
		r.chain = m.Chain
	} else {
		ctx.SetParams(nil)
		ctx.SetError(handler.RouteNotFound(method, path))
		r.chain = r.catchers
	}

	err := r.loop()
	if errors.Is(err, ErrStalled) {
		// The stalled step may still hold the context; detach before the
		// deferred cleanups release its bindings.
		ctx.Response().Detach()
	}
	if err != nil {
		e.logger.ErrorContext(ctx, "request dispatch failed",
			logger.Component("dispatch"),
			logger.Method(method),
			logger.Path(path),
			logger.Error(err),
		)
	}
	return err
}

func (e *Engine) register(stage string, dst *[]handler.Middleware, middlewares []handler.Middleware) {
	for _, mw := range middlewares {
		if mw == nil {
			panic(fmt.Errorf("%w: nil %s middleware", ErrNilHook, stage))
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.mustBeOpen()
	*dst = append(*dst, middlewares...)

	e.logger.Debug("use middleware",
		logger.Component("dispatch"),
		logger.Stage(stage),
		logger.Count("count", len(middlewares)),
	)
}

func (e *Engine) mustBeOpen() {
	if e.frozen.Load() {
		panic(ErrFrozen)
	}
}

// target extracts the lookup key from r.
func target(r *http.Request) (method, path string) {
	if r == nil {
		return http.MethodGet, "/"
	}
	method = strings.ToUpper(r.Method)
	if method == "" {
		method = http.MethodGet
	}
	if r.URL != nil {
		path = r.URL.Path
	}
	return method, router.NormalizePath(path)
}

// signal is the continuation sent by a step's next.
type signal struct {
	err error
}

// run is the dispatch state of one request.
type run struct {
	ctx      *handler.Context
	chain    []handler.Middleware
	catchers []handler.Middleware
	final    handler.FinalHandler
	logger   *slog.Logger
	timeout  time.Duration
	signals  chan signal
}

func (r *run) loop() error {
	for i := 0; ; {
		if i >= len(r.chain) {
			return r.finalize()
		}

		s, ok := r.step(r.chain[i])
		if !ok {
			return fmt.Errorf("%w: step %d after %s", ErrStalled, i, r.timeout)
		}
		if s.err == nil {
			i++
			continue
		}

		if !r.ctx.SetError(s.err) {
			return fmt.Errorf("%w: %w", ErrUnhandled, s.err)
		}
		r.chain = r.catchers
		i = 0
	}
}

// step runs mw and waits for its continuation. Only the first next call of a
// step is delivered; later ones are dropped, so the channel never holds more
// than one signal. An error returned or panicked after the step continued
// cannot be routed anymore and is logged instead.
func (r *run) step(mw handler.Middleware) (signal, bool) {
	var sent atomic.Bool
	next := func(err error) {
		if sent.CompareAndSwap(false, true) {
			r.signals <- signal{err: err}
		}
	}

	if err := r.call(mw, next); err != nil {
		if sent.CompareAndSwap(false, true) {
			r.signals <- signal{err: err}
		} else {
			r.logger.ErrorContext(r.ctx, "handler failed after calling next",
				logger.Component("dispatch"),
				logger.Error(err),
			)
		}
	}
	return r.wait()
}

func (r *run) call(mw handler.Middleware, next handler.Next) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = handler.NewPanicError(rec, debug.Stack())
		}
	}()
	return mw(r.ctx, next)
}

func (r *run) wait() (signal, bool) {
	if r.timeout <= 0 {
		return <-r.signals, true
	}

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case s := <-r.signals:
		return s, true
	case <-timer.C:
		return signal{}, false
	}
}

func (r *run) finalize() (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %w", ErrFinalize, handler.NewPanicError(rec, debug.Stack()))
		}
	}()

	if ferr := r.final(r.ctx); ferr != nil {
		return fmt.Errorf("%w: %w", ErrFinalize, ferr)
	}
	return nil
}

// DefaultCatcher writes the request error as the response. It is used when no
// catcher is registered and can be appended to a custom catcher chain.
// The message is only exposed for errors that allow it.
func DefaultCatcher(ctx *handler.Context, next handler.Next) error {
	err := ctx.Error()
	res := ctx.Response()

	res.SetStatus(handler.StatusOf(err))
	if err != nil && handler.IsExposed(err) {
		res.SetBody(err.Error())
	} else {
		res.SetBody(http.StatusText(http.StatusInternalServerError))
	}

	next(nil)
	return nil
}

// DefaultFinalizer sends the response as it stands.
func DefaultFinalizer(ctx *handler.Context) error {
	return ctx.Response().Send()
}
