package health

import (
	"net/http"

	"github.com/dmitrymomot/relay/core/handler"
)

// Liveness reports that the process is running. It performs no checks.
func Liveness(*handler.Context) (any, error) {
	return "ALIVE", nil
}

// NoContent answers 204 without a body.
func NoContent(ctx *handler.Context) (any, error) {
	ctx.Response().SetStatus(http.StatusNoContent)
	return nil, nil
}
