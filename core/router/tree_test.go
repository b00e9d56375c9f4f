package router_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/router"
)

func noop(ctx *handler.Context, next handler.Next) error {
	next(nil)
	return nil
}

func chain() []handler.Middleware {
	return []handler.Middleware{noop}
}

func TestTreeStaticRoutes(t *testing.T) {
	t.Parallel()

	tree := router.NewTree()
	routes := []string{
		"/",
		"/users",
		"/users/profile",
		"/admin",
		"/admin/users",
		"/api/v1/posts",
		"/api/v2/posts",
	}
	for _, p := range routes {
		tree.Insert(http.MethodGet, p, "", chain())
	}

	for _, p := range routes {
		t.Run("route_"+p, func(t *testing.T) {
			t.Parallel()

			m, ok := tree.Find(http.MethodGet, p)
			require.True(t, ok)
			assert.Equal(t, p, m.Pattern)
			assert.Empty(t, m.Params)
			assert.Len(t, m.Chain, 1)
		})
	}

	_, ok := tree.Find(http.MethodGet, "/users/unknown")
	assert.False(t, ok)
}

func TestTreeParameterRoutes(t *testing.T) {
	t.Parallel()

	tree := router.NewTree()
	tree.Insert(http.MethodGet, "/users/{id}", "user", chain())
	tree.Insert(http.MethodGet, "/users/{id}/posts/{postId}", "", chain())
	tree.Insert(http.MethodGet, "/products/{category}/{id}", "", chain())

	tests := []struct {
		path    string
		pattern string
		params  map[string]string
	}{
		{"/users/42", "/users/{id}", map[string]string{"id": "42"}},
		{"/users/7/posts/99", "/users/{id}/posts/{postId}", map[string]string{"id": "7", "postId": "99"}},
		{"/products/books/1", "/products/{category}/{id}", map[string]string{"category": "books", "id": "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			m, ok := tree.Find(http.MethodGet, tt.path)
			require.True(t, ok)
			assert.Equal(t, tt.pattern, m.Pattern)
			assert.Equal(t, tt.params, m.Params)
		})
	}

	m, ok := tree.Find(http.MethodGet, "/users/42")
	require.True(t, ok)
	assert.Equal(t, "user", m.Name)

	t.Run("param does not span segments", func(t *testing.T) {
		t.Parallel()

		_, ok := tree.Find(http.MethodGet, "/users/1/2")
		assert.False(t, ok)
	})
}

func TestTreeRegexpAndWildcard(t *testing.T) {
	t.Parallel()

	tree := router.NewTree()
	tree.Insert(http.MethodGet, "/items/{id:[0-9]+}", "", chain())
	tree.Insert(http.MethodGet, "/files/*", "", chain())

	m, ok := tree.Find(http.MethodGet, "/items/123")
	require.True(t, ok)
	assert.Equal(t, "123", m.Params["id"])

	_, ok = tree.Find(http.MethodGet, "/items/abc")
	assert.False(t, ok)

	m, ok = tree.Find(http.MethodGet, "/files/a/b/c.txt")
	require.True(t, ok)
	assert.Equal(t, "a/b/c.txt", m.Params["*"])
}

func TestTreeMethodSeparation(t *testing.T) {
	t.Parallel()

	tree := router.NewTree()
	tree.Insert(http.MethodGet, "/users", "", chain())

	_, ok := tree.Find(http.MethodPost, "/users")
	assert.False(t, ok)

	_, ok = tree.Find("TRACE", "/users")
	assert.False(t, ok)

	_, ok = tree.Find("get", "/users")
	assert.True(t, ok)
}

func TestTreeInsertPanics(t *testing.T) {
	t.Parallel()

	t.Run("invalid method", func(t *testing.T) {
		t.Parallel()

		tree := router.NewTree()
		assert.PanicsWithError(t, "invalid http method: TRACE", func() {
			tree.Insert("TRACE", "/x", "", chain())
		})
	})

	t.Run("invalid pattern", func(t *testing.T) {
		t.Parallel()

		tree := router.NewTree()
		assert.Panics(t, func() {
			tree.Insert(http.MethodGet, "x", "", chain())
		})
	})

	t.Run("duplicate route", func(t *testing.T) {
		t.Parallel()

		tree := router.NewTree()
		tree.Insert(http.MethodGet, "/x", "", chain())
		assert.PanicsWithError(t, "route already registered: GET /x", func() {
			tree.Insert(http.MethodGet, "/x", "", chain())
		})
	})

	t.Run("duplicate param key", func(t *testing.T) {
		t.Parallel()

		tree := router.NewTree()
		assert.Panics(t, func() {
			tree.Insert(http.MethodGet, "/{id}/{id}", "", chain())
		})
	})

	t.Run("wildcard not last", func(t *testing.T) {
		t.Parallel()

		tree := router.NewTree()
		assert.PanicsWithValue(t, router.ErrWildcardPosition, func() {
			tree.Insert(http.MethodGet, "/a/*/b", "", chain())
		})
	})
}

func TestTreeRoutes(t *testing.T) {
	t.Parallel()

	tree := router.NewTree()
	tree.Insert(http.MethodPost, "/b", "", chain())
	tree.Insert(http.MethodGet, "/b", "", chain())
	tree.Insert(http.MethodGet, "/a", "home", chain())

	assert.Equal(t, []router.Info{
		{Method: http.MethodGet, Pattern: "/a", Name: "home"},
		{Method: http.MethodGet, Pattern: "/b"},
		{Method: http.MethodPost, Pattern: "/b"},
	}, tree.Routes())
}
