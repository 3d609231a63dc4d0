package httpserver

import (
	"context"
	"errors"
	"sync"

	"github.com/Borislavv/newest-stories-cache/pkg/server/config"
	"github.com/Borislavv/newest-stories-cache/pkg/server/controller"
	"github.com/Borislavv/newest-stories-cache/pkg/server/middleware"
	"github.com/fasthttp/router"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

// HTTP is a fasthttp server which lives until its context is done.
type HTTP struct {
	ctx    context.Context
	cancel context.CancelFunc
	server *fasthttp.Server
	config config.Configurator
}

func New(
	ctx context.Context,
	config config.Configurator,
	controllers []controller.HttpController,
	middlewares []middleware.HttpMiddleware,
) (*HTTP, error) {
	if config.GetHttpServerPort() == "" {
		return nil, errors.New("[fasthttp] listen port is not set")
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &HTTP{ctx: ctx, cancel: cancel, config: config}
	s.initServer(s.buildRouter(controllers), middlewares)
	return s, nil
}

// ListenAndServe blocks until the server is shut down or fails to listen.
func (s *HTTP) ListenAndServe() {
	wg := &sync.WaitGroup{}
	defer wg.Wait()

	wg.Add(1)
	go s.serve(wg)

	wg.Add(1)
	go s.shutdown(wg)
}

// Handler returns the router wrapped in all middlewares.
func (s *HTTP) Handler() fasthttp.RequestHandler {
	return s.server.Handler
}

func (s *HTTP) serve(wg *sync.WaitGroup) {
	defer wg.Done()
	defer s.cancel() // releases the shutdown goroutine if listening failed

	name := s.config.GetHttpServerName()
	port := s.config.GetHttpServerPort()

	log.Info().Msgf("[fasthttp] %v was started (port: %v)", name, port)
	defer log.Info().Msgf("[fasthttp] %v was stopped (port: %v)", name, port)

	if err := s.server.ListenAndServe(port); err != nil {
		log.Err(err).Msgf("[fasthttp] %v failed to listen and serve port %v", name, port)
	}
}

func (s *HTTP) shutdown(wg *sync.WaitGroup) {
	defer wg.Done()

	<-s.ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.config.GetHttpServerShutDownTimeout())
	defer cancel()

	if err := s.server.ShutdownWithContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Warn().Msgf("[fasthttp] %v shutdown failed: %v", s.config.GetHttpServerName(), err.Error())
		}
		return
	}
}

func (s *HTTP) buildRouter(controllers []controller.HttpController) *router.Router {
	r := router.New()
	r.SaveMatchedRoutePath = true
	for _, contr := range controllers {
		contr.AddRoute(r)
	}
	return r
}

func (s *HTTP) mergeMiddlewares(
	handler fasthttp.RequestHandler,
	middlewares []middleware.HttpMiddleware,
) fasthttp.RequestHandler {
	// the first middleware must be the outermost one,
	// so wrapping starts from the end of slice
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i].Middleware(handler)
	}
	return handler
}

func (s *HTTP) initServer(r *router.Router, middlewares []middleware.HttpMiddleware) {
	s.server = &fasthttp.Server{
		Name:                  s.config.GetHttpServerName(),
		Handler:               s.mergeMiddlewares(r.Handler, middlewares),
		ReadTimeout:           s.config.GetHttpServerRequestTimeout(),
		WriteTimeout:          s.config.GetHttpServerRequestTimeout(),
		CloseOnShutdown:       true,
		NoDefaultServerHeader: true,
	}
}
