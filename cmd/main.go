package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/Borislavv/newest-stories-cache/internal/stories"
	"github.com/Borislavv/newest-stories-cache/internal/stories/config"
	"github.com/Borislavv/newest-stories-cache/pkg/k8s/probe/liveness"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.uber.org/automaxprocs/maxprocs"
)

const gracefulTimeout = 10 * time.Second

// Initializes environment variables from .env files and binds them using Viper.
// This allows overriding any value via environment variables.
func init() {
	// Load .env and .env.local files for configuration overrides, both are optional.
	for _, file := range []string{".env", ".env.local"} {
		if err := godotenv.Overload(file); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Msgf("[main] failed to load %s", file)
		}
	}

	// Bind all relevant environment variables using Viper, defaults come from the config packages.
	def := config.Default()
	viper.AutomaticEnv()
	bind := func(key string, value any) {
		_ = viper.BindEnv(key)
		viper.SetDefault(key, value)
	}
	bind("APP_ENV", def.AppEnv)
	bind("APP_DEBUG", def.AppDebug)
	bind("UPSTREAM_URL", def.UpstreamURL)
	bind("UPSTREAM_REQUEST_TIMEOUT", def.RequestTimeout)
	bind("UPSTREAM_RATE_LIMIT", def.RateLimit)
	bind("UPSTREAM_RATE_BURST", def.RateBurst)
	bind("UPSTREAM_MAX_CONNS", def.MaxConns)
	bind("TOP_STORIES_LIMIT", def.TopLimit)
	bind("FETCH_PARALLELISM", def.FetchParallelism)
	bind("REFRESH_TIMEOUT", def.RefreshTimeout)
	bind("PRELOAD", def.Preload)
	bind("CACHE_TTL", def.TTL)
	bind("SERVE_STALE", def.ServeStale)
	bind("SERVER_NAME", def.ServerName)
	bind("SERVER_PORT", def.ServerPort)
	bind("SERVER_SHUTDOWN_TIMEOUT", def.ServerShutDownTimeout)
	bind("SERVER_REQUEST_TIMEOUT", def.ServerRequestTimeout)
	bind("IS_PROMETHEUS_METRICS_ENABLED", def.IsEnabledPrometheusMetrics)
	bind("LIVENESS_PROBE_TIMEOUT", liveness.DefaultTimeout)
}

// setMaxProcs automatically sets the optimal GOMAXPROCS value (CPU parallelism)
// based on the available CPUs and cgroup/docker CPU quotas (uses automaxprocs).
func setMaxProcs() {
	if _, err := maxprocs.Set(); err != nil {
		log.Err(err).Msg("[main] setting up GOMAXPROCS value failed")
		panic(err)
	}
	log.Info().Msgf("[main] optimized GOMAXPROCS=%d was set up", runtime.GOMAXPROCS(0))
}

// loadCfg loads the configuration struct from environment variables.
func loadCfg() *config.Config {
	cfg := &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		log.Err(err).Msg("[main] failed to unmarshal config from envs")
		panic(err)
	}
	return cfg
}

// setupLogger switches to a human-readable output outside prod and to debug level when APP_DEBUG is on.
func setupLogger(cfg *config.Config) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.IsDebugOn() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if !cfg.IsProd() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// newRegistry returns a registry with the process and runtime collectors.
func newRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

// Main entrypoint: configures and starts the newest stories application.
func main() {
	// Root context is cancelled by SIGINT/SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load the application configuration from env vars.
	cfg := loadCfg()
	setupLogger(cfg)

	// Optimize GOMAXPROCS for the current environment.
	setMaxProcs()

	// Initialize liveness probe for Kubernetes/Cloud health checks.
	probe := liveness.NewProbe(viper.GetDuration("LIVENESS_PROBE_TIMEOUT"))

	app, err := stories.NewApp(ctx, cfg, probe, newRegistry())
	if err != nil {
		log.Err(err).Msg("[main] failed to init newest stories app")
		os.Exit(1)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		app.Start()
	}()

	select {
	case <-done:
		// The server went away on its own (e.g. the port is busy).
		log.Error().Msg("[main] app stopped unexpectedly")
		os.Exit(1)
	case <-ctx.Done():
	}

	log.Info().Msg("[main] shutdown signal received")
	select {
	case <-done:
		log.Info().Msg("[main] gracefully shut down")
	case <-time.After(gracefulTimeout):
		log.Warn().Msgf("[main] graceful shutdown took longer than %s, exiting", gracefulTimeout)
	}
}
