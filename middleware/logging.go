package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/logger"
)

// LoggingConfig controls what the logging middleware records. Zero values
// select the defaults noted per field.
type LoggingConfig struct {
	Skip func(ctx *handler.Context) bool

	Logger    *slog.Logger // slog.Default()
	LogLevel  slog.Level   // level of successful requests
	Component string       // "http"

	// With both false, both records are written.
	LogRequest  bool
	LogResponse bool

	// Bodies and headers are off unless enabled. Sensitive headers are
	// replaced with [REDACTED].
	LogRequestBody   bool
	LogHeaders       bool
	MaxBodyLogSize   int      // 4KB
	SensitiveHeaders []string // Authorization, Cookie, Set-Cookie, X-Api-Key, X-Auth-Token

	// Successful requests slower than this are logged at warn. Default 5s.
	SlowRequestThreshold time.Duration
}

// Logging logs through slog.Default.
func Logging() handler.Middleware {
	return LoggingWithConfig(LoggingConfig{})
}

// LoggingWithLogger logs through log with the default configuration.
func LoggingWithLogger(log *slog.Logger) handler.Middleware {
	return LoggingWithConfig(LoggingConfig{Logger: log})
}

// LoggingWithConfig writes a start record when the request enters the chain
// and a completion record from a context cleanup, so the latter reflects the
// final status and size even when the request went through the catcher chain.
func LoggingWithConfig(cfg LoggingConfig) handler.Middleware {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if !cfg.LogRequest && !cfg.LogResponse {
		cfg.LogRequest = true
		cfg.LogResponse = true
	}
	if cfg.MaxBodyLogSize <= 0 {
		cfg.MaxBodyLogSize = 4 * 1024
	}
	if cfg.SensitiveHeaders == nil {
		cfg.SensitiveHeaders = []string{
			"Authorization",
			"Cookie",
			"Set-Cookie",
			"X-Api-Key",
			"X-Auth-Token",
		}
	}
	if cfg.SlowRequestThreshold <= 0 {
		cfg.SlowRequestThreshold = 5 * time.Second
	}
	if cfg.Component == "" {
		cfg.Component = "http"
	}

	return func(ctx *handler.Context, next handler.Next) error {
		req := ctx.Request()
		if req == nil || (cfg.Skip != nil && cfg.Skip(ctx)) {
			next(nil)
			return nil
		}

		start := time.Now()
		requestID, _ := GetRequestID(ctx)

		if cfg.LogRequest {
			attrs := []slog.Attr{
				logger.Component(cfg.Component),
				logger.Event("request"),
				logger.Method(req.Method),
				logger.Path(req.URL.Path),
				slog.String("remote_addr", req.RemoteAddr),
				logger.RequestID(requestID),
			}
			if req.URL.RawQuery != "" {
				attrs = append(attrs, slog.String("query", req.URL.RawQuery))
			}

			if cfg.LogRequestBody && req.Body != nil {
				body, _ := io.ReadAll(req.Body)
				req.Body = io.NopCloser(bytes.NewReader(body))

				if len(body) > 0 {
					if len(body) > cfg.MaxBodyLogSize {
						body = body[:cfg.MaxBodyLogSize]
						attrs = append(attrs, slog.Bool("request_body_truncated", true))
					}
					attrs = append(attrs, slog.String("request_body", string(body)))
				}
			}

			if cfg.LogHeaders {
				if headers := redact(req.Header, cfg.SensitiveHeaders); len(headers) > 0 {
					attrs = append(attrs, slog.Any("request_headers", headers))
				}
			}

			cfg.Logger.LogAttrs(ctx, cfg.LogLevel, "HTTP request started", attrs...)
		}

		if cfg.LogResponse {
			ctx.Defer(func() {
				duration := time.Since(start)
				resp := ctx.Response()
				status := resp.Status()

				attrs := []slog.Attr{
					logger.Component(cfg.Component),
					logger.Event("response"),
					logger.Method(req.Method),
					logger.Path(req.URL.Path),
					logger.StatusCode(status),
					logger.BytesOut(int64(resp.Size())),
					logger.Duration(duration),
					logger.RequestID(requestID),
				}

				if cfg.LogHeaders {
					if headers := redact(resp.Header(), cfg.SensitiveHeaders); len(headers) > 0 {
						attrs = append(attrs, slog.Any("response_headers", headers))
					}
				}

				level := cfg.LogLevel
				switch {
				case status >= http.StatusInternalServerError:
					level = slog.LevelError
					attrs = append(attrs, logger.Error(ctx.Error()))
				case status >= http.StatusBadRequest:
					level = slog.LevelWarn
					attrs = append(attrs, logger.Error(ctx.Error()))
				case duration > cfg.SlowRequestThreshold:
					level = slog.LevelWarn
					attrs = append(attrs, slog.Bool("slow_request", true))
				}

				cfg.Logger.LogAttrs(ctx, level, "HTTP request completed", attrs...)
			})
		}

		next(nil)
		return nil
	}
}

// redact flattens headers for logging, replacing sensitive values.
func redact(h http.Header, sensitive []string) map[string]any {
	headers := make(map[string]any, len(h))
	for key, values := range h {
		switch {
		case slices.Contains(sensitive, key):
			headers[key] = "[REDACTED]"
		case len(values) == 1:
			headers[key] = values[0]
		default:
			headers[key] = values
		}
	}
	return headers
}
