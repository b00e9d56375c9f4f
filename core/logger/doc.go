// Package logger builds slog loggers and provides attribute helpers with
// consistent key names.
//
// # Basic Usage
//
//	log := logger.New(
//		logger.WithProduction("relay"),
//		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
//	)
//
//	log.Info("server starting",
//		logger.Component("server"),
//		logger.Event("startup"),
//	)
//
// # Environment Configurations
//
//	logger.New(logger.WithDevelopment("relay")) // text, debug
//	logger.New(logger.WithStaging("relay"))     // JSON, info
//	logger.New(logger.WithProduction("relay"))  // JSON, info
//
// # Context Values
//
// Extractors copy request-scoped values into every record logged with a
// *Context method:
//
//	log := logger.New(
//		logger.WithContextValue("request_id", requestIDKey{}),
//	)
//	log.InfoContext(ctx, "handled")
//
// # Attribute Helpers
//
// Helpers such as Error, RequestID and Key return an empty attribute for zero
// values so they can be passed without nil checks:
//
//	log.Error("query failed", logger.Error(err), logger.Component("pg"))
//
// # Testing
//
// Discard returns a logger that drops everything; WithOutput captures records:
//
//	var buf bytes.Buffer
//	log := logger.New(logger.WithJSONFormatter(), logger.WithOutput(&buf))
package logger
