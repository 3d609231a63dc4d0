package config

import "time"

type Refresher struct {
	// TopLimit is the number of newest identifiers taken from the upstream list.
	TopLimit int `mapstructure:"TOP_STORIES_LIMIT"`
	// FetchParallelism caps concurrent item fetches within one refresh, 0 means one goroutine per item.
	FetchParallelism int           `mapstructure:"FETCH_PARALLELISM"`
	RefreshTimeout   time.Duration `mapstructure:"REFRESH_TIMEOUT"`
	// Preload runs one refresh while the app is starting.
	Preload bool `mapstructure:"PRELOAD"`
}
