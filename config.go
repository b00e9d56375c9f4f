package relay

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/server"
)

// Config holds application settings loaded from the environment.
// An empty LogLevel or LogFormat falls back to the environment's default.
type Config struct {
	AppName      string        `env:"APP_NAME" envDefault:"relay"`
	Env          string        `env:"APP_ENV" envDefault:"development"`
	LogLevel     string        `env:"LOG_LEVEL"`
	LogFormat    string        `env:"LOG_FORMAT"`
	StallTimeout time.Duration `env:"DISPATCH_STALL_TIMEOUT" envDefault:"0s"`

	Server server.Config
}

// Logger builds the logger described by the config.
func (c Config) Logger() (*slog.Logger, error) {
	var opts []logger.Option
	switch strings.ToLower(c.Env) {
	case "", "development", "dev", "local":
		opts = append(opts, logger.WithDevelopment(c.AppName))
	case "staging":
		opts = append(opts, logger.WithStaging(c.AppName))
	case "production", "prod":
		opts = append(opts, logger.WithProduction(c.AppName))
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidEnv, c.Env)
	}

	if c.LogLevel != "" {
		opts = append(opts, logger.WithLevel(logger.ParseLevel(c.LogLevel)))
	}
	switch strings.ToLower(c.LogFormat) {
	case "json":
		opts = append(opts, logger.WithJSONFormatter())
	case "text":
		opts = append(opts, logger.WithTextFormatter())
	}

	return logger.New(opts...), nil
}

// NewFromConfig creates an App from configuration. Options are applied after
// the config-derived ones and can override them.
func NewFromConfig(cfg Config, opts ...Option) (*App, error) {
	log, err := cfg.Logger()
	if err != nil {
		return nil, err
	}

	srv, err := server.NewFromConfig(cfg.Server, server.WithLogger(log))
	if err != nil {
		return nil, err
	}

	configOpts := []Option{
		WithLogger(log),
		WithServer(srv),
	}
	if cfg.StallTimeout > 0 {
		configOpts = append(configOpts, WithStallTimeout(cfg.StallTimeout))
	}

	return New(append(configOpts, opts...)...)
}
