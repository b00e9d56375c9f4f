package logger

import (
	"log/slog"
	"time"
)

// Attribute helpers used across the framework. Helpers that can receive an
// absent value return the zero Attr, which slog drops, so call sites never
// need a guard.

func Component(name string) slog.Attr { return slog.String("component", name) }
func Event(name string) slog.Attr { return slog.String("event", name) }
func Method(method string) slog.Attr { return slog.String("method", method) }
func Path(path string) slog.Attr { return slog.String("path", path) }

// Stage names the dispatch hook a registration belongs to: pre, post or catch.
func Stage(stage string) slog.Attr { return slog.String("stage", stage) }

// Error is keyed "error"; a nil error yields nothing.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// Route is the matched pattern, not the raw path.
func Route(pattern string) slog.Attr {
	if pattern == "" {
		return slog.Attr{}
	}
	return slog.String("route", pattern)
}

func StatusCode(code int) slog.Attr { return slog.Int("status_code", code) }
func BytesOut(n int64) slog.Attr { return slog.Int64("bytes_out", n) }
func Duration(d time.Duration) slog.Attr { return slog.Duration("duration", d) }
func Count(key string, n int) slog.Attr { return slog.Int(key, n) }
