// Package config loads typed configuration structs from environment
// variables, with optional dotenv file support.
//
// Each configuration type is parsed once and cached, so packages can call
// Load for their own config without coordinating startup order:
//
//	var cfg billingapi.Config
//	config.MustLoad(&cfg)
//
// Struct fields use caarlos0/env tags:
//
//	type RedisConfig struct {
//		URL string `env:"REDIS_URL,required"`
//	}
//
// LoadEnv loads explicit dotenv files (for tests or non-standard layouts);
// otherwise the default .env file in the working directory is applied on
// first use when present.
package config
