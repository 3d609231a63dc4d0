package middleware_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Borislavv/newest-stories-cache/pkg/prometheus/metrics/middleware"
	httpserver "github.com/Borislavv/newest-stories-cache/pkg/server"
	"github.com/Borislavv/newest-stories-cache/pkg/server/config"
	"github.com/Borislavv/newest-stories-cache/pkg/server/controller"
	servermiddleware "github.com/Borislavv/newest-stories-cache/pkg/server/middleware"
	"github.com/fasthttp/router"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

type itemController struct{}

func (itemController) AddRoute(r *router.Router) {
	r.GET("/api/v1/items/{id}", func(ctx *fasthttp.RequestCtx) {
		_, _ = ctx.WriteString(`{}`)
	})
}

// meter records the labels of every observed response.
type meter struct {
	mu       sync.Mutex
	statuses []string
	observed []string
}

func (m *meter) IncTotal(string, string, string) {}

func (m *meter) IncStatus(path string, method string, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, method+" "+path+" "+status)
}

func (m *meter) ObserveResponseTime(path string, method string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observed = append(m.observed, method+" "+path)
}

func serve(t *testing.T, handler fasthttp.RequestHandler, uri string) {
	t.Helper()
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetRequestURI(uri)
	ctx.Request.Header.SetMethod(fasthttp.MethodGet)
	handler(ctx)
}

func TestMiddlewareLabelsByMatchedRoute(t *testing.T) {
	m := &meter{}
	srv, err := httpserver.New(
		context.Background(),
		config.Default(),
		[]controller.HttpController{itemController{}},
		[]servermiddleware.HttpMiddleware{middleware.NewPrometheusMetrics(m)},
	)
	require.NoError(t, err)

	handler := srv.Handler()
	serve(t, handler, "/api/v1/items/1")
	serve(t, handler, "/api/v1/items/2")
	serve(t, handler, "/random/a8f3c1")
	serve(t, handler, "/random/77e0d2")

	require.Equal(t, []string{
		"GET /api/v1/items/{id} 200",
		"GET /api/v1/items/{id} 200",
		"GET " + middleware.UnknownRoute + " 404",
		"GET " + middleware.UnknownRoute + " 404",
	}, m.statuses)
	require.Equal(t, []string{
		"GET /api/v1/items/{id}",
		"GET /api/v1/items/{id}",
		"GET " + middleware.UnknownRoute,
		"GET " + middleware.UnknownRoute,
	}, m.observed)
}
