package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/core/dispatch"
	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/router"
)

// serve compiles r behind the given pre middleware and dispatches req.
func serve(t *testing.T, pre []handler.Middleware, r *router.Router, req *http.Request) (*handler.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := dispatch.New()
	if len(pre) > 0 {
		e.Pre(pre...)
	}
	e.Use(r)

	w := httptest.NewRecorder()
	ctx := handler.NewStore().Create(w, req)
	require.NoError(t, e.Dispatch(ctx))
	return ctx, w
}

func echo(value any) handler.HandlerFunc {
	return func(*handler.Context) (any, error) {
		return value, nil
	}
}
