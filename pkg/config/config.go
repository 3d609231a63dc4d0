package config

import (
	"errors"
	"net/url"
	"time"
)

const (
	DefaultUpstreamURL      = "https://hacker-news.firebaseio.com/v0"
	DefaultTopLimit         = 200
	DefaultTTL              = 10 * time.Minute
	DefaultRequestTimeout   = 10 * time.Second
	DefaultRefreshTimeout   = 30 * time.Second
	DefaultUpstreamMaxConns = 256
)

const prodEnv = "prod"

// Stories is the configuration of the newest stories kernel (upstream client,
// refresher and TTL storage). Values are usually read from env by viper.
type Stories struct {
	AppEnv    string `mapstructure:"APP_ENV"`
	AppDebug  bool   `mapstructure:"APP_DEBUG"`
	Upstream  `mapstructure:",squash"`
	Refresher `mapstructure:",squash"`
	Storage   `mapstructure:",squash"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Stories {
	return Stories{
		AppEnv: prodEnv,
		Upstream: Upstream{
			UpstreamURL:    DefaultUpstreamURL,
			RequestTimeout: DefaultRequestTimeout,
			MaxConns:       DefaultUpstreamMaxConns,
		},
		Refresher: Refresher{
			TopLimit:       DefaultTopLimit,
			RefreshTimeout: DefaultRefreshTimeout,
		},
		Storage: Storage{
			TTL: DefaultTTL,
		},
	}
}

func (c *Stories) IsDebugOn() bool {
	return c.AppDebug
}

func (c *Stories) IsProd() bool {
	return c.AppEnv == prodEnv
}

// Validate checks the values which cannot be defaulted silently.
func (c *Stories) Validate() error {
	u, err := url.Parse(c.UpstreamURL)
	if err != nil {
		return errors.New("invalid UPSTREAM_URL: " + err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("UPSTREAM_URL must have http or https scheme: " + c.UpstreamURL)
	}
	if c.TopLimit <= 0 {
		return errors.New("TOP_STORIES_LIMIT must be positive")
	}
	if c.TTL <= 0 {
		return errors.New("CACHE_TTL must be positive")
	}
	if c.FetchParallelism < 0 {
		return errors.New("FETCH_PARALLELISM must not be negative (0 means unbounded)")
	}
	if c.RateLimit < 0 {
		return errors.New("UPSTREAM_RATE_LIMIT must not be negative (0 means unlimited)")
	}
	return nil
}
