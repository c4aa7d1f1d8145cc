// Package config loads typed configuration from environment variables.
//
// Configuration structs declare their variables with caarlos0/env tags.
// Load parses a struct once per type and caches the result; Reload and Parse
// bypass the cache. LoadEnv reads dotenv files through godotenv so local
// development can keep settings in a file.
//
// # Usage
//
//	import "github.com/dmitrymomot/sessionkit/pkg/config"
//
//	var cfg session.Config
//	config.MustLoad(&cfg)
//
//	mgr, err := session.NewFromConfig(cfg, session.WithStore(store))
package config
