// Package health provides terminal handlers for liveness and readiness probes.
//
//	r := router.New(router.WithPrefix("/health"))
//	r.Get("/live", health.Liveness)
//	r.Get("/ready", health.Readiness(log, pg.Healthcheck(pool), redis.Healthcheck(client)))
//	r.Get("/ping", health.NoContent)
//
// Checks have the func(context.Context) error signature used by the database
// integrations' Healthcheck helpers.
package health
