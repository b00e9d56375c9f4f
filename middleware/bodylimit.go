package middleware

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"strconv"

	"github.com/dmitrymomot/relay/core/handler"
)

// ErrBodyTooLarge is returned by request body reads past the configured limit.
var ErrBodyTooLarge = errors.New("request body too large")

// Common size constants for convenience
const (
	// KB represents 1 kilobyte
	KB int64 = 1024
	// MB represents 1 megabyte
	MB = 1024 * KB
	// GB represents 1 gigabyte
	GB = 1024 * MB
)

// BodyLimitConfig configures the request body limit middleware.
type BodyLimitConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx *handler.Context) bool

	// MaxSize is the maximum allowed size in bytes (default: 4MB)
	MaxSize int64

	// ContentTypeLimit allows setting different limits per content type
	// Example: {"application/json": 1MB, "multipart/form-data": 10MB}
	ContentTypeLimit map[string]int64

	// ErrorHandler builds the error thrown for requests declaring a body over the limit
	ErrorHandler func(ctx *handler.Context, contentLength int64, maxSize int64) error

	// DisableContentLengthCheck skips the Content-Length header check
	// and only enforces the limit during body reading
	DisableContentLengthCheck bool
}

// BodyLimit creates a body limit middleware with default configuration (4MB limit).
func BodyLimit() handler.Middleware {
	return BodyLimitWithConfig(BodyLimitConfig{})
}

// BodyLimitWithSize creates a body limit middleware with a specified size limit.
func BodyLimitWithSize(maxSize int64) handler.Middleware {
	return BodyLimitWithConfig(BodyLimitConfig{MaxSize: maxSize})
}

// BodyLimitWithConfig creates a body limit middleware with custom configuration.
// Requests whose Content-Length exceeds the limit are diverted to the catcher
// chain with a 413 error; bodies without a trustworthy length fail on read
// with ErrBodyTooLarge.
func BodyLimitWithConfig(cfg BodyLimitConfig) handler.Middleware {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 4 * MB
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(_ *handler.Context, contentLength int64, maxSize int64) error {
			message := fmt.Sprintf("Request body too large. Maximum allowed: %s", formatBytes(maxSize))
			details := map[string]any{
				"limit": maxSize,
			}
			if contentLength > 0 {
				message = fmt.Sprintf("Request body too large. Size: %s, Maximum allowed: %s",
					formatBytes(contentLength), formatBytes(maxSize))
				details["size"] = contentLength
			}
			return handler.ErrRequestEntityTooLarge.WithMessage(message).WithDetails(details)
		}
	}

	return func(ctx *handler.Context, next handler.Next) error {
		req := ctx.Request()
		if req == nil || (cfg.Skip != nil && cfg.Skip(ctx)) {
			next(nil)
			return nil
		}

		maxSize := cfg.MaxSize
		if cfg.ContentTypeLimit != nil {
			if mediaType, _, err := mime.ParseMediaType(req.Header.Get("Content-Type")); err == nil {
				if limit, ok := cfg.ContentTypeLimit[mediaType]; ok {
					maxSize = limit
				}
			}
		}

		if !cfg.DisableContentLengthCheck {
			if raw := req.Header.Get("Content-Length"); raw != "" {
				contentLength, err := strconv.ParseInt(raw, 10, 64)
				if err == nil && contentLength > maxSize {
					return cfg.ErrorHandler(ctx, contentLength, maxSize)
				}
			}
		}

		if req.Body != nil {
			req.Body = &limitedReader{reader: req.Body, limit: maxSize}
		}

		next(nil)
		return nil
	}
}

// limitedReader wraps an io.ReadCloser to enforce a size limit.
type limitedReader struct {
	reader io.ReadCloser
	limit  int64
	read   int64
}

func (lr *limitedReader) Read(p []byte) (int, error) {
	if lr.read >= lr.limit {
		// Read one more byte so a body of exactly limit bytes still ends with io.EOF.
		var extra [1]byte
		n, err := lr.reader.Read(extra[:])
		if n == 0 {
			return 0, err
		}
		return 0, fmt.Errorf("%w: limit of %d bytes", ErrBodyTooLarge, lr.limit)
	}

	if remaining := lr.limit - lr.read; int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err := lr.reader.Read(p)
	lr.read += int64(n)
	return n, err
}

func (lr *limitedReader) Close() error {
	return lr.reader.Close()
}

// formatBytes formats bytes into a human-readable string
func formatBytes(bytes int64) string {
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
