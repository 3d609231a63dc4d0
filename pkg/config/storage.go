package config

import "time"

type Storage struct {
	TTL time.Duration `mapstructure:"CACHE_TTL"`
	// ServeStale makes the cache answer with an expired snapshot when a refresh fails.
	// Disabled by default: the failure is propagated and the cache is left as it was.
	ServeStale bool `mapstructure:"SERVE_STALE"`
}
