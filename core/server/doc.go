// Package server runs an http.Handler with production timeouts and graceful
// shutdown.
//
// # Basic Usage
//
//	srv := server.New(":8080",
//		server.WithShutdownTimeout(10*time.Second),
//		server.WithLogger(log),
//	)
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, app))
//	if err := g.Wait(); err != nil {
//		log.Error("server failed", logger.Error(err))
//	}
//
// Start blocks until the context is canceled or the listener fails; Stop
// drains in-flight requests within the shutdown timeout. Run combines both
// for use with errgroup.
//
// # Configuration
//
// Config is loaded from SERVER_* environment variables and converted with
// NewFromConfig. When SERVER_TLS_CERT_FILE and SERVER_TLS_KEY_FILE are set
// the server terminates TLS itself.
package server
