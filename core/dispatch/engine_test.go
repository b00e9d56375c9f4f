package dispatch_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/core/dispatch"
	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/response"
	"github.com/dmitrymomot/relay/core/router"
)

func request(store *handler.Store, method, target string) (*handler.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	return store.Create(w, httptest.NewRequest(method, target, nil)), w
}

func record(order *[]string, mu *sync.Mutex, name string) handler.Middleware {
	return func(ctx *handler.Context, next handler.Next) error {
		mu.Lock()
		*order = append(*order, name)
		mu.Unlock()
		next(nil)
		return nil
	}
}

func TestEngine_RouteParams(t *testing.T) {
	t.Parallel()

	r := router.New()
	r.Get("/users/:id", func(ctx *handler.Context) (any, error) {
		return map[string]string{"id": ctx.Param("id")}, nil
	})

	e := dispatch.New().Use(r)
	store := handler.NewStore()

	for _, target := range []string{"/users/42", "/users/42/", "/users/42?tab=posts"} {
		t.Run(target, func(t *testing.T) {
			t.Parallel()

			ctx, w := request(store, http.MethodGet, target)
			require.NoError(t, e.Dispatch(ctx))

			assert.NoError(t, ctx.Error())
			assert.Equal(t, map[string]string{"id": "42"}, ctx.Params())
			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"id":"42"}`, w.Body.String())
			assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
		})
	}
}

func TestEngine_NotFound(t *testing.T) {
	t.Parallel()

	var finals atomic.Int32
	e := dispatch.New().Finally(func(ctx *handler.Context) error {
		finals.Add(1)
		return ctx.Response().Send()
	})

	ctx, w := request(handler.NewStore(), http.MethodDelete, "/unknown")
	require.NoError(t, e.Dispatch(ctx))

	var herr handler.Error
	require.ErrorAs(t, ctx.Error(), &herr)
	assert.Equal(t, "NOT_FOUND", herr.Code)
	assert.Equal(t, http.StatusNotFound, handler.StatusOf(ctx.Error()))
	assert.True(t, herr.Expose)
	assert.Empty(t, ctx.Params())

	assert.Equal(t, int32(1), finals.Load())
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Route not found for DELETE /unknown", w.Body.String())
}

func TestEngine_MethodMismatchIsNotFound(t *testing.T) {
	t.Parallel()

	r := router.New()
	r.Post("/items", func(ctx *handler.Context) (any, error) { return "created", nil })
	e := dispatch.New().Use(r)

	ctx, w := request(handler.NewStore(), http.MethodPut, "/items")
	require.NoError(t, e.Dispatch(ctx))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEngine_PreErrorSkipsRoute(t *testing.T) {
	t.Parallel()

	var handled, caught atomic.Int32

	e := dispatch.New()
	e.Pre(func(ctx *handler.Context, next handler.Next) error {
		next(errors.New("unauthorized"))
		return nil
	})
	e.Catch(func(ctx *handler.Context, next handler.Next) error {
		caught.Add(1)
		assert.Equal(t, "unauthorized", ctx.Error().Error())
		ctx.Response().SetStatus(http.StatusUnauthorized).SetBody("denied")
		next(nil)
		return nil
	})

	r := router.New()
	r.Get("/secret", func(ctx *handler.Context) (any, error) {
		handled.Add(1)
		return "secret", nil
	})
	e.Use(r)

	ctx, w := request(handler.NewStore(), http.MethodGet, "/secret")
	require.NoError(t, e.Dispatch(ctx))

	assert.Equal(t, int32(0), handled.Load())
	assert.Equal(t, int32(1), caught.Load())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "denied", w.Body.String())
}

func TestEngine_BoundPropertyResolvedOnce(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	store := handler.NewStore()
	store.Bind("db", func(ctx *handler.Context) any {
		return fmt.Sprintf("conn-%d", calls.Add(1))
	})
	store.Set("version", "1.0")

	read := func(ctx *handler.Context, next handler.Next) error {
		assert.Equal(t, "conn-1", ctx.MustGet("db"))
		next(nil)
		return nil
	}

	r := router.New()
	r.Get("/", func(ctx *handler.Context) (any, error) {
		v, _ := ctx.Get("db")
		version, _ := handler.Lookup[string](ctx, "version")
		return fmt.Sprintf("%v@%s", v, version), nil
	}, read, read)

	e := dispatch.New().Use(r)
	ctx, w := request(store, http.MethodGet, "/")
	require.NoError(t, e.Dispatch(ctx))

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "conn-1@1.0", w.Body.String())
}

func TestEngine_IsolatedContexts(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	r := router.New()
	r.Get("/users/:id", func(ctx *handler.Context) (any, error) {
		<-release
		if ctx.Param("id") == "bad" {
			return nil, handler.ErrBadRequest
		}
		return ctx.Param("id"), nil
	})
	e := dispatch.New().Use(r)
	store := handler.NewStore()

	ctxA, wA := request(store, http.MethodGet, "/users/a")
	ctxB, wB := request(store, http.MethodGet, "/users/bad")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); assert.NoError(t, e.Dispatch(ctxA)) }()
	go func() { defer wg.Done(); assert.NoError(t, e.Dispatch(ctxB)) }()
	close(release)
	wg.Wait()

	assert.Equal(t, "a", ctxA.Param("id"))
	assert.NoError(t, ctxA.Error())
	assert.Equal(t, "a", wA.Body.String())

	assert.Equal(t, "bad", ctxB.Param("id"))
	assert.Equal(t, http.StatusBadRequest, handler.StatusOf(ctxB.Error()))
	assert.Equal(t, http.StatusBadRequest, wB.Code)
}

func TestEngine_DuplicateNextIsIgnored(t *testing.T) {
	t.Parallel()

	var handled, finals atomic.Int32

	e := dispatch.New()
	e.Pre(func(ctx *handler.Context, next handler.Next) error {
		next(nil)
		next(nil)
		go next(nil)
		return nil
	})
	e.Finally(func(ctx *handler.Context) error {
		finals.Add(1)
		return ctx.Response().Send()
	})

	r := router.New()
	r.Get("/", func(ctx *handler.Context) (any, error) {
		handled.Add(1)
		return "ok", nil
	})
	e.Use(r)

	ctx, w := request(handler.NewStore(), http.MethodGet, "/")
	require.NoError(t, e.Dispatch(ctx))

	// Let the stray goroutine fire before asserting.
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), handled.Load())
	assert.Equal(t, int32(1), finals.Load())
	assert.Equal(t, "ok", w.Body.String())
}

func TestEngine_AsyncNext(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var order []string

	e := dispatch.New()
	e.Pre(func(ctx *handler.Context, next handler.Next) error {
		go func() {
			time.Sleep(5 * time.Millisecond)
			mu.Lock()
			order = append(order, "async")
			mu.Unlock()
			next(nil)
		}()
		return nil
	})

	r := router.New()
	r.Get("/", func(ctx *handler.Context) (any, error) {
		mu.Lock()
		order = append(order, "handler")
		mu.Unlock()
		return "done", nil
	})
	e.Use(r)

	ctx, w := request(handler.NewStore(), http.MethodGet, "/")
	require.NoError(t, e.Dispatch(ctx))

	assert.Equal(t, []string{"async", "handler"}, order)
	assert.Equal(t, "done", w.Body.String())
}

func TestEngine_StageOrder(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var order []string

	e := dispatch.New()
	e.Pre(record(&order, &mu, "pre1"), record(&order, &mu, "pre2"))
	e.Post(record(&order, &mu, "post1"), record(&order, &mu, "post2"))

	r := router.New()
	r.Use(record(&order, &mu, "shared"))
	r.Get("/", func(ctx *handler.Context) (any, error) {
		mu.Lock()
		order = append(order, "handler")
		mu.Unlock()
		return nil, nil
	}, record(&order, &mu, "route"))
	e.Use(r)

	ctx, _ := request(handler.NewStore(), http.MethodGet, "/")
	require.NoError(t, e.Dispatch(ctx))

	assert.Equal(t, []string{"pre1", "pre2", "shared", "route", "handler", "post1", "post2"}, order)
}

func TestEngine_PostRunsInDeclaredOrder(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var order []string

	e := dispatch.New()
	e.Post(record(&order, &mu, "first"))
	e.Post(record(&order, &mu, "second"), record(&order, &mu, "third"))

	r := router.New()
	r.Post("/", func(ctx *handler.Context) (any, error) { return nil, nil })
	e.Use(r)

	ctx, _ := request(handler.NewStore(), http.MethodPost, "/")
	require.NoError(t, e.Dispatch(ctx))

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestEngine_HooksApplyToLaterRoutersOnly(t *testing.T) {
	t.Parallel()

	var pre atomic.Int32
	e := dispatch.New()

	early := router.New()
	early.Get("/early", func(ctx *handler.Context) (any, error) { return "early", nil })
	e.Use(early)

	e.Pre(func(ctx *handler.Context, next handler.Next) error {
		pre.Add(1)
		next(nil)
		return nil
	})

	late := router.New()
	late.Get("/late", func(ctx *handler.Context) (any, error) { return "late", nil })
	e.Use(late)

	store := handler.NewStore()
	ctx, _ := request(store, http.MethodGet, "/early")
	require.NoError(t, e.Dispatch(ctx))
	assert.Equal(t, int32(0), pre.Load())

	ctx, _ = request(store, http.MethodGet, "/late")
	require.NoError(t, e.Dispatch(ctx))
	assert.Equal(t, int32(1), pre.Load())
}

func TestEngine_ErrorInsideCatcherIsFatal(t *testing.T) {
	t.Parallel()

	var finals, second atomic.Int32
	errCatcher := errors.New("catcher failed")

	e := dispatch.New()
	e.Catch(func(ctx *handler.Context, next handler.Next) error {
		return errCatcher
	})
	e.Catch(func(ctx *handler.Context, next handler.Next) error {
		second.Add(1)
		next(nil)
		return nil
	})
	e.Finally(func(ctx *handler.Context) error {
		finals.Add(1)
		return nil
	})

	r := router.New()
	r.Get("/", func(ctx *handler.Context) (any, error) {
		return nil, errors.New("handler failed")
	})
	e.Use(r)

	ctx, w := request(handler.NewStore(), http.MethodGet, "/")
	err := e.Dispatch(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, dispatch.ErrUnhandled)
	assert.ErrorIs(t, err, errCatcher)
	assert.Equal(t, "handler failed", ctx.Error().Error())
	assert.Equal(t, int32(0), second.Load())
	assert.Equal(t, int32(0), finals.Load())
	assert.False(t, ctx.Response().Written())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEngine_CatcherChainRewinds(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var order []string

	e := dispatch.New()
	e.Catch(record(&order, &mu, "catch1"), record(&order, &mu, "catch2"))
	e.Pre(record(&order, &mu, "pre"))

	r := router.New()
	r.Get("/", func(ctx *handler.Context) (any, error) {
		mu.Lock()
		order = append(order, "handler")
		mu.Unlock()
		return nil, handler.ErrConflict
	})
	e.Use(r)

	ctx, w := request(handler.NewStore(), http.MethodGet, "/")
	require.NoError(t, e.Dispatch(ctx))

	assert.Equal(t, []string{"pre", "handler", "catch1", "catch2"}, order)
	// Catchers that do not set a response leave the default status.
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestEngine_DefaultCatcherHidesInternalErrors(t *testing.T) {
	t.Parallel()

	r := router.New()
	r.Get("/plain", func(ctx *handler.Context) (any, error) {
		return nil, errors.New("db password leaked")
	})
	r.Get("/exposed", func(ctx *handler.Context) (any, error) {
		return nil, handler.ErrForbidden.WithMessage("not yours")
	})
	r.Get("/result", func(ctx *handler.Context) (any, error) {
		return handler.ErrUnprocessableEntity, nil
	})
	e := dispatch.New().Use(r)
	store := handler.NewStore()

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/plain", http.StatusInternalServerError, "Internal Server Error"},
		{"/exposed", http.StatusForbidden, "not yours"},
		{"/result", http.StatusUnprocessableEntity, http.StatusText(http.StatusUnprocessableEntity)},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			ctx, w := request(store, http.MethodGet, tt.path)
			require.NoError(t, e.Dispatch(ctx))
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.body, w.Body.String())
		})
	}
}

func TestEngine_PanicIsRecovered(t *testing.T) {
	t.Parallel()

	var caught error
	e := dispatch.New()
	e.Catch(func(ctx *handler.Context, next handler.Next) error {
		caught = ctx.Error()
		next(nil)
		return nil
	})

	r := router.New()
	r.Get("/", func(ctx *handler.Context) (any, error) {
		panic("boom")
	})
	e.Use(r)

	ctx, _ := request(handler.NewStore(), http.MethodGet, "/")
	require.NoError(t, e.Dispatch(ctx))

	var perr handler.PanicError
	require.ErrorAs(t, caught, &perr)
	assert.Equal(t, "boom", perr.Value())
	assert.Equal(t, "panic: boom", perr.Error())
	assert.NotEmpty(t, perr.Stack())
}

func TestEngine_HandlerResultDoesNotOverrideBody(t *testing.T) {
	t.Parallel()

	r := router.New()
	r.Get("/", func(ctx *handler.Context) (any, error) {
		return "ignored", nil
	}, func(ctx *handler.Context, next handler.Next) error {
		ctx.Response().SetBody("preset")
		next(nil)
		return nil
	})
	e := dispatch.New().Use(r)

	ctx, w := request(handler.NewStore(), http.MethodGet, "/")
	require.NoError(t, e.Dispatch(ctx))
	assert.Equal(t, "preset", w.Body.String())
}

func TestEngine_FinalizerFailure(t *testing.T) {
	t.Parallel()

	errSend := errors.New("send failed")
	e := dispatch.New().Finally(func(ctx *handler.Context) error {
		return errSend
	})

	ctx, _ := request(handler.NewStore(), http.MethodGet, "/")
	err := e.Dispatch(ctx)
	assert.ErrorIs(t, err, dispatch.ErrFinalize)
	assert.ErrorIs(t, err, errSend)
}

func TestEngine_StallTimeout(t *testing.T) {
	t.Parallel()

	e := dispatch.New(dispatch.WithStallTimeout(20 * time.Millisecond))
	e.Pre(func(ctx *handler.Context, next handler.Next) error {
		return nil
	})
	r := router.New()
	r.Get("/", func(ctx *handler.Context) (any, error) { return "never", nil })
	e.Use(r)

	ctx, _ := request(handler.NewStore(), http.MethodGet, "/")
	err := e.Dispatch(ctx)
	assert.ErrorIs(t, err, dispatch.ErrStalled)
}

func TestEngine_StallDetachesBeforeCleanup(t *testing.T) {
	t.Parallel()

	released := make(chan struct{})
	lateWrite := make(chan error, 1)

	store := handler.NewStore()
	store.Bind("conn", func(ctx *handler.Context) any {
		ctx.Defer(func() { close(released) })
		return "conn-1"
	})

	e := dispatch.New(dispatch.WithStallTimeout(20 * time.Millisecond))
	r := router.New()
	r.Get("/", func(ctx *handler.Context) (any, error) { return "never", nil })
	e.Pre(func(ctx *handler.Context, next handler.Next) error {
		_ = ctx.MustGet("conn")
		go func() {
			<-released
			_, err := io.WriteString(ctx.Response().Writer(), "late")
			lateWrite <- err
		}()
		return nil
	})
	e.Use(r)

	ctx, w := request(store, http.MethodGet, "/")
	err := e.Dispatch(ctx)
	require.ErrorIs(t, err, dispatch.ErrStalled)

	select {
	case err := <-lateWrite:
		assert.ErrorIs(t, err, response.ErrDetached)
	case <-time.After(time.Second):
		t.Fatal("stalled handler never resumed")
	}
	assert.Empty(t, w.Body.String())
	assert.False(t, ctx.Response().Written())
}

func TestEngine_LateFailureIsLogged(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithJSONFormatter(), logger.WithOutput(&buf))

	var caught atomic.Int32
	e := dispatch.New(dispatch.WithLogger(log))
	e.Pre(func(ctx *handler.Context, next handler.Next) error {
		next(nil)
		panic("boom after next")
	})
	e.Catch(func(ctx *handler.Context, next handler.Next) error {
		caught.Add(1)
		next(nil)
		return nil
	})
	r := router.New()
	r.Get("/", func(ctx *handler.Context) (any, error) { return "ok", nil })
	e.Use(r)

	ctx, w := request(handler.NewStore(), http.MethodGet, "/")
	require.NoError(t, e.Dispatch(ctx))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.Zero(t, caught.Load())
	assert.NoError(t, ctx.Error())

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, "handler failed after calling next", rec["msg"])
	assert.Contains(t, rec["error"], "boom after next")
}

func TestEngine_DeferRunsAfterFinalizer(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var order []string
	add := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	e := dispatch.New()
	e.Pre(func(ctx *handler.Context, next handler.Next) error {
		ctx.Defer(func() { add("cleanup1") })
		ctx.Defer(func() { add("cleanup2") })
		next(nil)
		return nil
	})
	e.Finally(func(ctx *handler.Context) error {
		add("final")
		return ctx.Response().Send()
	})
	r := router.New()
	r.Get("/", func(ctx *handler.Context) (any, error) { return nil, nil })
	e.Use(r)

	ctx, _ := request(handler.NewStore(), http.MethodGet, "/")
	require.NoError(t, e.Dispatch(ctx))
	assert.Equal(t, []string{"final", "cleanup2", "cleanup1"}, order)
}

func TestEngine_Registration(t *testing.T) {
	t.Parallel()

	t.Run("frozen after dispatch", func(t *testing.T) {
		t.Parallel()

		e := dispatch.New()
		ctx, _ := request(handler.NewStore(), http.MethodGet, "/")
		require.NoError(t, e.Dispatch(ctx))

		assert.PanicsWithValue(t, dispatch.ErrFrozen, func() {
			e.Pre(func(ctx *handler.Context, next handler.Next) error { return nil })
		})
		assert.PanicsWithValue(t, dispatch.ErrFrozen, func() { e.Use(router.New()) })
	})

	t.Run("nil hooks", func(t *testing.T) {
		t.Parallel()

		e := dispatch.New()
		assert.Panics(t, func() { e.Pre(nil) })
		assert.Panics(t, func() { e.Catch(nil) })
		assert.Panics(t, func() { e.Finally(nil) })
		assert.PanicsWithValue(t, dispatch.ErrNilRouter, func() { e.Use(nil) })
	})

	t.Run("duplicate route across routers", func(t *testing.T) {
		t.Parallel()

		a := router.New()
		a.Post("/x", func(ctx *handler.Context) (any, error) { return nil, nil })
		b := router.New()
		b.Post("/x", func(ctx *handler.Context) (any, error) { return nil, nil })

		e := dispatch.New().Use(a)
		assert.Panics(t, func() { e.Use(b) })
	})

	t.Run("nil context", func(t *testing.T) {
		t.Parallel()

		assert.ErrorIs(t, dispatch.New().Dispatch(nil), dispatch.ErrNilContext)
	})
}

func TestEngine_Routes(t *testing.T) {
	t.Parallel()

	r := router.New(router.WithPrefix("/api"))
	r.Route("/users/:id").As("user").Get(func(ctx *handler.Context) (any, error) { return nil, nil })
	e := dispatch.New().Use(r)

	assert.Equal(t, []router.Info{
		{Method: http.MethodGet, Pattern: "/api/users/{id}", Name: "user"},
		{Method: http.MethodHead, Pattern: "/api/users/{id}", Name: "user"},
	}, e.Routes())
}
