// Package config loads environment sections into structs.
//
// Each section is a struct tagged for caarlos0/env. A .env file in the
// working directory is read once, before the first load, without overriding
// variables already set:
//
//	type Config struct {
//		relay.Config
//		DB pg.Config
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
//
// The first successful load of a type is cached; later loads of the same
// type copy the cached value instead of parsing again, so every package that
// asks for server.Config sees the same values. Distinct types are cached
// separately. Parse failures wrap ErrParse.
package config
