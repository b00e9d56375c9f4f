package middleware

import (
	"github.com/google/uuid"

	"github.com/dmitrymomot/relay/core/handler"
)

// RequestIDKey is the context property holding the request ID.
const RequestIDKey = "request_id"

// RequestIDConfig configures the request ID middleware.
type RequestIDConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx *handler.Context) bool
	// Generator creates new request IDs (default: UUID v4)
	Generator func() string
	// HeaderName specifies the header name for the request ID (default: "X-Request-ID")
	HeaderName string
	// UseExisting determines whether to use an existing request ID from the incoming request
	UseExisting bool
}

// RequestID creates a request ID middleware with default configuration.
// It generates a new UUID for each request and exposes it as a context
// property and a response header.
func RequestID() handler.Middleware {
	return RequestIDWithConfig(RequestIDConfig{})
}

// RequestIDWithConfig creates a request ID middleware with custom configuration.
func RequestIDWithConfig(cfg RequestIDConfig) handler.Middleware {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-Request-ID"
	}

	if cfg.Generator == nil {
		cfg.Generator = func() string {
			return uuid.New().String()
		}
	}

	return func(ctx *handler.Context, next handler.Next) error {
		if cfg.Skip != nil && cfg.Skip(ctx) {
			next(nil)
			return nil
		}

		var requestID string

		if cfg.UseExisting && ctx.Request() != nil {
			requestID = ctx.Request().Header.Get(cfg.HeaderName)
		}

		if requestID == "" {
			requestID = cfg.Generator()
		}

		ctx.Set(RequestIDKey, requestID)
		ctx.Response().Header().Set(cfg.HeaderName, requestID)

		next(nil)
		return nil
	}
}

// GetRequestID retrieves the request ID stored by the RequestID middleware.
func GetRequestID(ctx *handler.Context) (string, bool) {
	return handler.Lookup[string](ctx, RequestIDKey)
}
