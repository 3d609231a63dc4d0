package config

import "time"

type Upstream struct {
	// UpstreamURL is the base of the items API, "/newstories.json" and "/item/{id}.json" are appended to it.
	UpstreamURL    string        `mapstructure:"UPSTREAM_URL"`
	RequestTimeout time.Duration `mapstructure:"UPSTREAM_REQUEST_TIMEOUT"`
	// RateLimit is the number of upstream requests per second (0 disables limiting).
	RateLimit float64 `mapstructure:"UPSTREAM_RATE_LIMIT"`
	RateBurst int     `mapstructure:"UPSTREAM_RATE_BURST"`
	MaxConns  int     `mapstructure:"UPSTREAM_MAX_CONNS"`
}
