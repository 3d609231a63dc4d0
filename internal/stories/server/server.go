package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/Borislavv/newest-stories-cache/internal/stories/api"
	"github.com/Borislavv/newest-stories-cache/internal/stories/config"
	"github.com/Borislavv/newest-stories-cache/pkg/k8s/probe/liveness"
	"github.com/Borislavv/newest-stories-cache/pkg/prometheus/metrics"
	metricscontroller "github.com/Borislavv/newest-stories-cache/pkg/prometheus/metrics/controller"
	prometheusrequestmiddleware "github.com/Borislavv/newest-stories-cache/pkg/prometheus/metrics/middleware"
	httpserver "github.com/Borislavv/newest-stories-cache/pkg/server"
	"github.com/Borislavv/newest-stories-cache/pkg/server/controller"
	"github.com/Borislavv/newest-stories-cache/pkg/server/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Error messages used for server initialization.
var (
	InitFailedErrorMessage = "[server] init. failed"
)

// Http interface exposes methods for starting and liveness probing.
type Http interface {
	Start()
	IsAlive() bool
}

// HttpServer implements Http, wraps all dependencies required for running the HTTP server.
type HttpServer struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg           *config.Config
	metrics       *metrics.Metrics    // nil when metrics are disabled
	gatherer      prometheus.Gatherer // source of /metrics
	server        *httpserver.HTTP
	isServerAlive *atomic.Bool
}

// New creates a new HttpServer. Pass nil meter to run without request metrics and /metrics.
func New(
	ctx context.Context,
	cfg *config.Config,
	stories api.Snapshotter,
	probe liveness.Prober,
	meter *metrics.Metrics,
	gatherer prometheus.Gatherer,
) (*HttpServer, error) {
	ctx, cancel := context.WithCancel(ctx)

	srv := &HttpServer{
		ctx:           ctx,
		cancel:        cancel,
		cfg:           cfg,
		metrics:       meter,
		gatherer:      gatherer,
		isServerAlive: &atomic.Bool{},
	}

	if err := srv.initServer(stories, probe); err != nil {
		cancel()
		return nil, err
	}

	return srv, nil
}

// Start runs the HTTP server and blocks until it is stopped.
func (s *HttpServer) Start() {
	defer s.stop()

	wg := &sync.WaitGroup{}
	defer wg.Wait()
	s.spawnServer(wg)
}

// stop cancels the context, signaling shutdown to all server goroutines.
func (s *HttpServer) stop() {
	s.cancel()
}

// IsAlive returns true if the server is marked as alive.
func (s *HttpServer) IsAlive() bool {
	return s.isServerAlive.Load()
}

// spawnServer starts the HTTP server in a new goroutine and sets server liveness flags.
func (s *HttpServer) spawnServer(wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer func() {
			s.isServerAlive.Store(false)
			wg.Done()
		}()
		s.isServerAlive.Store(true)
		s.server.ListenAndServe()
	}()
}

// initServer creates the HTTP server instance with its controllers and middlewares.
func (s *HttpServer) initServer(stories api.Snapshotter, probe liveness.Prober) error {
	server, err := httpserver.New(s.ctx, s.cfg, s.controllers(stories, probe), s.middlewares())
	if err != nil {
		log.Err(err).Msg(InitFailedErrorMessage)
		return errors.New(InitFailedErrorMessage)
	}
	s.server = server
	return nil
}

// controllers returns all HTTP controllers for the server (endpoints/handlers).
func (s *HttpServer) controllers(stories api.Snapshotter, probe liveness.Prober) []controller.HttpController {
	controllers := []controller.HttpController{
		liveness.NewController(probe),                   // Liveness/healthcheck endpoint
		api.NewStoriesController(s.ctx, s.cfg, stories), // Newest stories endpoint
	}
	if s.metricsEnabled() {
		controllers = append(controllers, metricscontroller.NewPrometheusMetrics(s.gatherer))
	}
	return controllers
}

// middlewares returns the request middlewares for the server, the first one is the outermost.
func (s *HttpServer) middlewares() []middleware.HttpMiddleware {
	middlewares := []middleware.HttpMiddleware{
		/** exec 1st. */ middleware.NewApplicationJsonMiddleware(),
		/** exec 2nd. */ middleware.NewWatermarkMiddleware(s.cfg),
		/** exec 3rd. */ middleware.NewDuration(),
	}
	if s.metricsEnabled() {
		middlewares = append(middlewares, prometheusrequestmiddleware.NewPrometheusMetrics(s.metrics))
	}
	return middlewares
}

func (s *HttpServer) metricsEnabled() bool {
	return s.cfg.IsPrometheusMetricsEnabled() && s.metrics != nil && s.gatherer != nil
}
