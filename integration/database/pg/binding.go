package pg

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/relay/core/handler"
)

// ConnKey is the conventional property name for the request connection.
const ConnKey = "db"

// Binding returns a property factory that acquires one pooled connection the
// first time a request reads the property and releases it after the request
// is finalized. Register it with the store:
//
//	app.Bind(pg.ConnKey, pg.Binding(pool))
//
// A failed acquire is memoized as the property value; Conn returns it.
func Binding(pool *pgxpool.Pool) handler.Factory {
	return func(ctx *handler.Context) any {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrFailedToAcquireConn, err)
		}
		ctx.Defer(conn.Release)
		return conn
	}
}

// Conn returns the connection bound under name, acquiring it on first use.
func Conn(ctx *handler.Context, name string) (*pgxpool.Conn, error) {
	v, ok := ctx.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrConnNotBound, name)
	}
	switch c := v.(type) {
	case *pgxpool.Conn:
		return c, nil
	case error:
		return nil, c
	default:
		return nil, fmt.Errorf("%w: %q holds %T", ErrConnNotBound, name, v)
	}
}
