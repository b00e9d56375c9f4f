package health

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/logger"
)

// Check verifies one dependency.
type Check func(context.Context) error

// DefaultTimeout bounds each readiness check.
const DefaultTimeout = 2 * time.Second

// Readiness runs every check in order and answers "READY", or diverts the
// request to the catcher chain with a 503 on the first failure.
func Readiness(log *slog.Logger, checks ...Check) handler.HandlerFunc {
	if log == nil {
		log = logger.Discard()
	}

	return func(ctx *handler.Context) (any, error) {
		for i, check := range checks {
			checkCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
			err := check(checkCtx)
			cancel()
			if err != nil {
				log.ErrorContext(ctx, "readiness check failed",
					logger.Component("health"),
					logger.Count("check", i),
					logger.Error(err),
				)
				return nil, handler.ErrServiceUnavailable.WithErr(fmt.Errorf("check %d: %w", i, err))
			}
		}
		return "READY", nil
	}
}
