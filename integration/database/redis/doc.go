// Package redis creates go-redis clients with URL validation, retrying
// connection checks and a health check, and exposes the client to request
// handlers as a shared context property.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	app.Set(redis.ClientKey, client)
//
//	r.Post("/visits", func(ctx *handler.Context) (any, error) {
//		rdb, err := redis.Client(ctx, redis.ClientKey)
//		if err != nil {
//			return nil, handler.ErrServiceUnavailable.WithErr(err)
//		}
//		return rdb.Incr(ctx, "visits").Result()
//	})
//
// Only redis:// and rediss:// URLs are accepted. Errors wrap the sentinels in
// errors.go so callers can use errors.Is.
package redis
