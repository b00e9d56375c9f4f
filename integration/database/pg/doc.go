// Package pg connects to PostgreSQL through a pgx pool and exposes a pooled
// connection to request handlers as a bound context property.
//
// # Connecting
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
// Connect retries with exponential backoff (RetryAttempts, RetryInterval) and
// pings the pool before returning it. Migrate applies goose migrations from
// cfg.MigrationsPath through a database/sql wrapper around the same pool.
//
// # Request Binding
//
// Binding acquires a connection the first time a request reads the property
// and releases it once the request is finalized. Requests that never read it
// never touch the pool:
//
//	app.Bind(pg.ConnKey, pg.Binding(pool))
//
//	r.Get("/users/:id", func(ctx *handler.Context) (any, error) {
//		conn, err := pg.Conn(ctx, pg.ConnKey)
//		if err != nil {
//			return nil, err
//		}
//		var name string
//		err = conn.QueryRow(ctx, "SELECT name FROM users WHERE id = $1", ctx.Param("id")).Scan(&name)
//		if pg.IsNotFoundError(err) {
//			return nil, handler.ErrNotFound
//		}
//		return map[string]string{"name": name}, err
//	})
//
// # Transactions
//
// WithTx and TxFromContext carry a pgx.Tx through a context.Context;
// QuerierFromContext picks the transaction when present:
//
//	q := pg.QuerierFromContext(ctx, conn)
//	_, err := q.Exec(ctx, "UPDATE users SET name = $1 WHERE id = $2", name, id)
//
// # Errors
//
// IsNotFoundError, IsDuplicateKeyError, IsForeignKeyViolationError and
// IsTxClosedError classify driver errors.
package pg
