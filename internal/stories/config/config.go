package config

import (
	storiesconfig "github.com/Borislavv/newest-stories-cache/pkg/config"
	serverconfig "github.com/Borislavv/newest-stories-cache/pkg/server/config"
)

type Config struct {
	serverconfig.HttpServer `mapstructure:",squash"`
	storiesconfig.Stories   `mapstructure:",squash"`
}

func Default() *Config {
	return &Config{
		HttpServer: serverconfig.Default(),
		Stories:    storiesconfig.Default(),
	}
}
