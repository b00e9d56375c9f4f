package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/relay"
	"github.com/dmitrymomot/relay/core/config"
	"github.com/dmitrymomot/relay/core/dispatch"
	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/health"
	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/router"
	"github.com/dmitrymomot/relay/integration/database/pg"
	"github.com/dmitrymomot/relay/integration/database/redis"
	"github.com/dmitrymomot/relay/middleware"
)

type Config struct {
	relay.Config
	DB    pg.Config
	Redis redis.Config
}

func main() {
	var cfg Config
	config.MustLoad(&cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("relay stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config) error {
	app, err := relay.NewFromConfig(cfg.Config)
	if err != nil {
		return err
	}
	log := app.Logger()
	logger.SetAsDefault(log)

	var checks []health.Check

	if cfg.DB.Enabled() {
		pool, err := pg.Connect(ctx, cfg.DB)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := pg.Migrate(ctx, pool, cfg.DB, log); err != nil && !errors.Is(err, pg.ErrMigrationsDirNotFound) {
			return err
		}

		app.Bind(pg.ConnKey, pg.Binding(pool))
		checks = append(checks, pg.Healthcheck(pool))
	}

	if cfg.Redis.Enabled() {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()

		app.Set(redis.ClientKey, client)
		checks = append(checks, redis.Healthcheck(client))
	}

	app.Pre(
		middleware.Timing(),
		middleware.RequestID(),
		middleware.LoggingWithLogger(log),
		middleware.SecurityHeaders(),
		middleware.BodyLimitWithSize(middleware.MB),
	)
	app.Post(middleware.TimingHeader())
	app.Catch(middleware.TimingHeader(), dispatch.DefaultCatcher)

	app.Use(healthRoutes(log, checks), apiRoutes(cfg))

	for _, rt := range app.Routes() {
		log.Debug("route", logger.Method(rt.Method), logger.Route(rt.Pattern))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(app.Run(gctx))
	return g.Wait()
}

func healthRoutes(log *slog.Logger, checks []health.Check) *router.Router {
	r := router.New(router.WithPrefix("/health"))
	r.Get("/live", health.Liveness)
	r.Get("/ready", health.Readiness(log, checks...))
	r.Get("/ping", health.NoContent)
	return r
}

func apiRoutes(cfg Config) *router.Router {
	r := router.New(router.WithPrefix("/api"))

	r.Get("/hello/:name", func(ctx *handler.Context) (any, error) {
		id, _ := middleware.GetRequestID(ctx)
		return map[string]string{
			"message":    "hello, " + ctx.Param("name"),
			"request_id": id,
		}, nil
	})

	if cfg.DB.Enabled() {
		r.Get("/db/now", func(ctx *handler.Context) (any, error) {
			conn, err := pg.Conn(ctx, pg.ConnKey)
			if err != nil {
				return nil, handler.ErrServiceUnavailable.WithErr(err)
			}
			var now time.Time
			err = pg.WithinTx(ctx, conn, func(ctx context.Context) error {
				return pg.QuerierFromContext(ctx, conn).QueryRow(ctx, "SELECT now()").Scan(&now)
			})
			if err != nil {
				return nil, err
			}
			return map[string]time.Time{"now": now}, nil
		})
	}

	if cfg.Redis.Enabled() {
		r.Post("/visits", func(ctx *handler.Context) (any, error) {
			rdb, err := redis.Client(ctx, redis.ClientKey)
			if err != nil {
				return nil, handler.ErrServiceUnavailable.WithErr(err)
			}
			n, err := rdb.Incr(ctx, "relay:visits").Result()
			if err != nil {
				return nil, err
			}
			return map[string]int64{"visits": n}, nil
		})
	}

	return r
}
