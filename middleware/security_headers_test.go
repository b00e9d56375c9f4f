package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/router"
	"github.com/dmitrymomot/relay/middleware"
)

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	routes := func() *router.Router {
		r := router.New()
		r.Get("/", echo("ok"))
		r.Get("/forbidden", func(*handler.Context) (any, error) {
			return nil, handler.ErrForbidden
		})
		return r
	}

	t.Run("balanced", func(t *testing.T) {
		t.Parallel()

		_, w := serve(t, []handler.Middleware{middleware.SecurityHeaders()}, routes(), httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "SAMEORIGIN", w.Header().Get("X-Frame-Options"))
		assert.Equal(t, middleware.BalancedSecurity.StrictTransportSecurity, w.Header().Get("Strict-Transport-Security"))
		assert.Empty(t, w.Header().Get("Cross-Origin-Embedder-Policy"))
	})

	t.Run("strict", func(t *testing.T) {
		t.Parallel()

		_, w := serve(t, []handler.Middleware{middleware.SecurityHeadersStrict()}, routes(), httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		assert.Equal(t, "require-corp", w.Header().Get("Cross-Origin-Embedder-Policy"))
	})

	t.Run("applied to error responses", func(t *testing.T) {
		t.Parallel()

		_, w := serve(t, []handler.Middleware{middleware.SecurityHeadersRelaxed()}, routes(), httptest.NewRequest(http.MethodGet, "/forbidden", nil))

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	})

	t.Run("development drops hsts and adds custom headers", func(t *testing.T) {
		t.Parallel()

		cfg := middleware.StrictSecurity
		cfg.IsDevelopment = true
		cfg.CustomHeaders = map[string]string{"X-App": "relay"}
		_, w := serve(t, []handler.Middleware{middleware.SecurityHeadersWithConfig(cfg)}, routes(), httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
		assert.Equal(t, "relay", w.Header().Get("X-App"))
	})

	t.Run("hsts only over tls", func(t *testing.T) {
		t.Parallel()

		cfg := middleware.BalancedSecurity
		cfg.HSTSRequireTLS = true
		mw := []handler.Middleware{middleware.SecurityHeadersWithConfig(cfg)}

		_, w := serve(t, mw, routes(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-Proto", "https")
		_, w = serve(t, mw, routes(), req)
		assert.Equal(t, cfg.StrictTransportSecurity, w.Header().Get("Strict-Transport-Security"))
	})

	t.Run("custom header overrides preset", func(t *testing.T) {
		t.Parallel()

		cfg := middleware.BalancedSecurity
		cfg.CustomHeaders = map[string]string{"X-Frame-Options": "DENY"}
		_, w := serve(t, []handler.Middleware{middleware.SecurityHeadersWithConfig(cfg)}, routes(), httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	})

	t.Run("skip", func(t *testing.T) {
		t.Parallel()

		cfg := middleware.BalancedSecurity
		cfg.Skip = func(*handler.Context) bool { return true }
		_, w := serve(t, []handler.Middleware{middleware.SecurityHeadersWithConfig(cfg)}, routes(), httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-Content-Type-Options"))
	})
}
