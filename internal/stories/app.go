package stories

import (
	"context"
	"time"

	"github.com/Borislavv/newest-stories-cache/internal/stories/config"
	"github.com/Borislavv/newest-stories-cache/internal/stories/server"
	"github.com/Borislavv/newest-stories-cache/pkg/k8s/probe/liveness"
	"github.com/Borislavv/newest-stories-cache/pkg/prometheus/metrics"
	"github.com/Borislavv/newest-stories-cache/pkg/repository"
	"github.com/Borislavv/newest-stories-cache/pkg/service"
	"github.com/Borislavv/newest-stories-cache/pkg/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// App defines the stories application lifecycle interface.
type App interface {
	Start()
}

// Stories encapsulates the entire application state: the kernel (upstream, refresher, cache) and the HTTP server.
type Stories struct {
	cfg     *config.Config     // Application configuration
	ctx     context.Context    // Application context for cancellation and shutdown
	cancel  context.CancelFunc // Cancel function for ctx
	probe   liveness.Prober    // Liveness probe integration
	cache   storage.Storage    // Current snapshot
	service *service.Stories   // Newest stories surface
	server  server.Http        // HTTP server (API, probe and metrics)
}

// NewApp wires the application together. Collectors are registered in registry
// when metrics are enabled, registry also backs the /metrics endpoint.
func NewApp(ctx context.Context, cfg *config.Config, probe liveness.Prober, registry *prometheus.Registry) (*Stories, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)

	var (
		meter    *metrics.Metrics
		recorder metrics.Recorder = metrics.Noop{}
		gatherer prometheus.Gatherer
	)
	if cfg.IsPrometheusMetricsEnabled() && registry != nil {
		m, err := metrics.New(registry)
		if err != nil {
			cancel()
			return nil, err
		}
		meter, recorder, gatherer = m, m, registry
	}

	upstream := repository.NewHackerNews(&cfg.Upstream, recorder)
	aggregator := service.NewAggregator(upstream, cfg.FetchParallelism, recorder)
	refresher := service.NewRefresher(ctx, &cfg.Refresher, upstream, aggregator, recorder)
	cache := storage.New(&cfg.Storage, refresher, recorder)
	stories := service.NewStories(cache)

	srv, err := server.New(ctx, cfg, stories, probe, meter, gatherer)
	if err != nil {
		cancel()
		return nil, err
	}

	return &Stories{
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
		probe:   probe,
		cache:   cache,
		service: stories,
		server:  srv,
	}, nil
}

// Start runs the HTTP server and blocks until it is stopped.
func (s *Stories) Start() {
	defer s.stop()

	log.Info().Msg("[app] starting newest stories app")

	if s.cfg.Preload {
		s.preload()
	}

	s.probe.Watch(s)
	log.Info().Msg("[app] newest stories app has been started")
	s.server.Start() // Blocks until shutdown
}

// preload fills the cache before serving, a failure is only logged and the first request retries.
func (s *Stories) preload() {
	ctx := s.ctx
	if timeout := s.cfg.RefreshTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	from := time.Now()
	newest, err := s.service.GetNewestStories(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("[app] preload failed")
		return
	}
	log.Info().Msgf("[app] preloaded %d stories in %s", len(newest), time.Since(from))
}

// stop cancels the main application context and logs shutdown.
func (s *Stories) stop() {
	log.Info().Msg("[app] stopping newest stories app")
	s.cancel()
	log.Info().Msg("[app] newest stories app has been stopped")
}

// IsAlive is called by liveness probes to check app health.
// Returns false if the HTTP server is not alive.
func (s *Stories) IsAlive(_ context.Context) bool {
	if !s.server.IsAlive() {
		log.Info().Msg("[app] http server has gone away")
		return false
	}
	return true
}
