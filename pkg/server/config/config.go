package config

import (
	"time"
)

const (
	DefaultServerName            = "newest-stories-cache"
	DefaultServerPort            = ":8020"
	DefaultServerShutDownTimeout = 5 * time.Second
	DefaultServerRequestTimeout  = time.Minute
)

type Configurator interface {
	GetHttpServerName() string
	GetHttpServerPort() string
	GetHttpServerShutDownTimeout() time.Duration
	GetHttpServerRequestTimeout() time.Duration
	IsPrometheusMetricsEnabled() bool
}

type HttpServer struct {
	// ServerName is sent back in the X-Server-Name header.
	ServerName string `mapstructure:"SERVER_NAME"`
	// ServerPort is the listen address, e.g. ":8020".
	ServerPort string `mapstructure:"SERVER_PORT"`
	// ServerShutDownTimeout is a duration value before the server will be closed forcefully.
	ServerShutDownTimeout time.Duration `mapstructure:"SERVER_SHUTDOWN_TIMEOUT"`
	// ServerRequestTimeout bounds reading a request and writing its response.
	ServerRequestTimeout time.Duration `mapstructure:"SERVER_REQUEST_TIMEOUT"`
	// IsEnabledPrometheusMetrics exposes /metrics and instruments every request.
	IsEnabledPrometheusMetrics bool `mapstructure:"IS_PROMETHEUS_METRICS_ENABLED"`
}

func Default() HttpServer {
	return HttpServer{
		ServerName:                 DefaultServerName,
		ServerPort:                 DefaultServerPort,
		ServerShutDownTimeout:      DefaultServerShutDownTimeout,
		ServerRequestTimeout:       DefaultServerRequestTimeout,
		IsEnabledPrometheusMetrics: true,
	}
}

func (c HttpServer) GetHttpServerName() string {
	return c.ServerName
}

func (c HttpServer) GetHttpServerPort() string {
	return c.ServerPort
}

func (c HttpServer) GetHttpServerShutDownTimeout() time.Duration {
	return c.ServerShutDownTimeout
}

func (c HttpServer) GetHttpServerRequestTimeout() time.Duration {
	return c.ServerRequestTimeout
}

func (c HttpServer) IsPrometheusMetricsEnabled() bool {
	return c.IsEnabledPrometheusMetrics
}
