package redis

import "errors"

var (
	ErrFailedToParseRedisConnString = errors.New("failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("redis did not answer ping before the connect timeout")
	ErrEmptyConnectionURL           = errors.New("empty redis connection URL")
	ErrHealthcheckFailed            = errors.New("redis healthcheck failed")

	// ErrClientNotRegistered means no client is stored under the requested property name.
	ErrClientNotRegistered = errors.New("redis client is not registered")
)
