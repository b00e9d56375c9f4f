package handler

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/relay/core/response"
)

// slot memoizes one bound property for one context.
type slot struct {
	once  sync.Once
	value any
}

// Context is the per-request property bag.
// Request-scoped fields live on the context itself; shared and bound properties
// are resolved through the store that created it. A Context must not be reused
// across requests.
type Context struct {
	request  *http.Request
	response *response.Response
	params   map[string]string
	err      error

	store *Store
	slots []slot

	mu       sync.Mutex
	values   map[string]any
	cleanups []func()
}

// Deadline delegates to the request's context.
func (c *Context) Deadline() (deadline time.Time, ok bool) {
	return c.base().Deadline()
}

// Done delegates to the request's context.
func (c *Context) Done() <-chan struct{} {
	return c.base().Done()
}

// Err delegates to the request's context.
func (c *Context) Err() error {
	return c.base().Err()
}

// Value delegates to the request's context.
func (c *Context) Value(key any) any {
	return c.base().Value(key)
}

func (c *Context) base() context.Context {
	if c.request == nil {
		return context.Background()
	}
	return c.request.Context()
}

// Request returns the incoming request. It may be nil for synthetic contexts.
func (c *Context) Request() *http.Request {
	return c.request
}

// Response returns the response being built for this request.
func (c *Context) Response() *response.Response {
	return c.response
}

// Param returns the value of the route variable name, or "".
func (c *Context) Param(name string) string {
	return c.params[name]
}

// Params returns the route variables extracted by the router.
func (c *Context) Params() map[string]string {
	return c.params
}

// SetParams replaces the route variables. A nil map is stored as empty.
func (c *Context) SetParams(params map[string]string) {
	if params == nil {
		params = map[string]string{}
	}
	c.params = params
}

// Error returns the error recorded for this request, if any.
func (c *Context) Error() error {
	return c.err
}

// SetError records err as the request error.
// It reports false and leaves the context unchanged when an error is already recorded.
func (c *Context) SetError(err error) bool {
	if err == nil || c.err != nil {
		return false
	}
	c.err = err
	return true
}

// Set stores a request-scoped value that shadows any store registration for name.
func (c *Context) Set(name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values == nil {
		c.values = make(map[string]any)
	}
	c.values[name] = value
}

// Get resolves name: request-scoped values first, then shared values,
// then bound factories, which are computed on first read and memoized.
func (c *Context) Get(name string) (any, bool) {
	c.mu.Lock()
	v, ok := c.values[name]
	c.mu.Unlock()
	if ok {
		return v, true
	}

	if c.store == nil {
		return nil, false
	}
	e, ok := c.store.lookup(name)
	if !ok {
		return nil, false
	}
	if e.factory == nil {
		return e.value, true
	}

	s := &c.slots[e.slot]
	s.once.Do(func() {
		s.value = e.factory(c)
	})
	return s.value, true
}

// MustGet is like Get but panics when name is not registered.
func (c *Context) MustGet(name string) any {
	v, ok := c.Get(name)
	if !ok {
		panic(fmt.Errorf("%w: '%s'", ErrNotBound, name))
	}
	return v
}

// Has reports whether name resolves on this context.
func (c *Context) Has(name string) bool {
	c.mu.Lock()
	_, ok := c.values[name]
	c.mu.Unlock()
	if ok {
		return true
	}
	return c.store != nil && c.store.Has(name)
}

// Defer registers fn to run once the request has been finalized.
// Deferred functions run in reverse registration order.
func (c *Context) Defer(fn func()) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.cleanups = append(c.cleanups, fn)
	c.mu.Unlock()
}

// Cleanup runs and clears the functions registered with Defer.
func (c *Context) Cleanup() {
	c.mu.Lock()
	fns := c.cleanups
	c.cleanups = nil
	c.mu.Unlock()

	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

// Lookup resolves name on ctx and asserts it to T.
func Lookup[T any](ctx *Context, name string) (T, bool) {
	var zero T
	v, ok := ctx.Get(name)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
