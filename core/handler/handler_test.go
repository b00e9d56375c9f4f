package handler_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/core/handler"
)

func TestTerminal(t *testing.T) {
	t.Parallel()

	run := func(h handler.HandlerFunc, preset any) (*handler.Context, []error, error) {
		ctx := handler.NewStore().Create(newRequest())
		if preset != nil {
			ctx.Response().SetBody(preset)
		}
		var calls []error
		err := handler.Terminal(h)(ctx, func(err error) { calls = append(calls, err) })
		return ctx, calls, err
	}

	t.Run("result becomes body", func(t *testing.T) {
		t.Parallel()

		ctx, calls, err := run(func(*handler.Context) (any, error) { return "hello", nil }, nil)
		require.NoError(t, err)
		assert.Equal(t, []error{nil}, calls)
		assert.Equal(t, "hello", ctx.Response().Body())
	})

	t.Run("existing body is kept", func(t *testing.T) {
		t.Parallel()

		ctx, _, err := run(func(*handler.Context) (any, error) { return "hello", nil }, "preset")
		require.NoError(t, err)
		assert.Equal(t, "preset", ctx.Response().Body())
	})

	t.Run("nil result leaves body empty", func(t *testing.T) {
		t.Parallel()

		ctx, calls, err := run(func(*handler.Context) (any, error) { return nil, nil }, nil)
		require.NoError(t, err)
		assert.Len(t, calls, 1)
		assert.False(t, ctx.Response().HasBody())
	})

	t.Run("empty results leave body unset", func(t *testing.T) {
		t.Parallel()

		for _, result := range []any{"", []byte{}, []byte(nil)} {
			ctx, calls, err := run(func(*handler.Context) (any, error) { return result, nil }, nil)
			require.NoError(t, err)
			assert.Equal(t, []error{nil}, calls)
			assert.False(t, ctx.Response().HasBody(), "%#v", result)
			assert.Equal(t, http.StatusNoContent, ctx.Response().Status())
		}
	})

	t.Run("zero numbers are bodies", func(t *testing.T) {
		t.Parallel()

		ctx, _, err := run(func(*handler.Context) (any, error) { return 0, nil }, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, ctx.Response().Body())
	})

	t.Run("returned error is forwarded", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		ctx, calls, err := run(func(*handler.Context) (any, error) { return "ignored", boom }, nil)
		assert.Same(t, boom, err)
		assert.Empty(t, calls)
		assert.False(t, ctx.Response().HasBody())
	})

	t.Run("error result is forwarded", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		ctx, calls, err := run(func(*handler.Context) (any, error) { return boom, nil }, nil)
		assert.Same(t, boom, err)
		assert.Empty(t, calls)
		assert.False(t, ctx.Response().HasBody())
	})
}

func TestError(t *testing.T) {
	t.Parallel()

	t.Run("route not found", func(t *testing.T) {
		t.Parallel()

		err := handler.RouteNotFound("DELETE", "/unknown")
		assert.Equal(t, "NOT_FOUND", err.Code)
		assert.Equal(t, http.StatusNotFound, err.StatusCode())
		assert.True(t, err.Exposed())
		assert.Equal(t, "Route not found for DELETE /unknown", err.Error())
	})

	t.Run("server errors are hidden", func(t *testing.T) {
		t.Parallel()

		assert.False(t, handler.IsExposed(handler.ErrInternalServerError))
		assert.True(t, handler.IsExposed(handler.ErrBadRequest))
		assert.False(t, handler.IsExposed(errors.New("plain")))
	})

	t.Run("status through wrapping", func(t *testing.T) {
		t.Parallel()

		err := fmt.Errorf("load user: %w", handler.ErrForbidden)
		assert.Equal(t, http.StatusForbidden, handler.StatusOf(err))
		assert.Equal(t, http.StatusInternalServerError, handler.StatusOf(errors.New("plain")))
		assert.Equal(t, http.StatusInternalServerError, handler.Error{}.StatusCode())
	})

	t.Run("cause and details", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("constraint violated")
		err := handler.ErrConflict.WithErr(cause).WithDetails(map[string]any{"field": "email"})
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "email", err.Details["field"])
		assert.Nil(t, handler.ErrConflict.Details)
	})
}

func TestPanicError(t *testing.T) {
	t.Parallel()

	cause := errors.New("inner")
	err := handler.NewPanicError(cause, []byte("stack"))

	var perr handler.PanicError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, cause, perr.Value())
	assert.Equal(t, []byte("stack"), perr.Stack())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "panic: inner", err.Error())
}

func TestToError(t *testing.T) {
	t.Parallel()

	cause := errors.New("x")
	assert.NoError(t, handler.ToError(nil))
	assert.Same(t, cause, handler.ToError(cause))
	assert.EqualError(t, handler.ToError("text"), "text")
	assert.EqualError(t, handler.ToError(42), "non-error thrown: 42")
}
