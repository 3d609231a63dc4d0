package httpserver

import (
	"context"
	"testing"

	"github.com/Borislavv/newest-stories-cache/pkg/server/config"
	"github.com/Borislavv/newest-stories-cache/pkg/server/controller"
	"github.com/Borislavv/newest-stories-cache/pkg/server/middleware"
	"github.com/fasthttp/router"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

type echoController struct{}

func (echoController) AddRoute(r *router.Router) {
	r.GET("/echo", func(ctx *fasthttp.RequestCtx) {
		_, _ = ctx.WriteString(`{"ok":true}`)
	})
}

type orderMiddleware struct {
	name  string
	trace *[]string
}

func (m orderMiddleware) Middleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		*m.trace = append(*m.trace, m.name)
		next(ctx)
	}
}

func TestHandlerAppliesMiddlewaresInOrder(t *testing.T) {
	var trace []string
	cfg := config.Default()

	srv, err := New(context.Background(), cfg, []controller.HttpController{echoController{}}, []middleware.HttpMiddleware{
		orderMiddleware{name: "first", trace: &trace},
		middleware.NewApplicationJsonMiddleware(),
		middleware.NewWatermarkMiddleware(cfg),
		middleware.NewDuration(),
		orderMiddleware{name: "last", trace: &trace},
	})
	require.NoError(t, err)

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetRequestURI("/echo")
	ctx.Request.Header.SetMethod(fasthttp.MethodGet)
	srv.Handler()(ctx)

	require.Equal(t, []string{"first", "last"}, trace)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	require.Equal(t, `{"ok":true}`, string(ctx.Response.Body()))
	require.Equal(t, "application/json; charset=utf-8", string(ctx.Response.Header.ContentType()))
	require.Equal(t, config.DefaultServerName, string(ctx.Response.Header.Peek("X-Server-Name")))
	require.Contains(t, string(ctx.Response.Header.Peek("Server-Timing")), "app;dur=")
}

func TestNewRequiresPort(t *testing.T) {
	cfg := config.Default()
	cfg.ServerPort = ""

	_, err := New(context.Background(), cfg, nil, nil)
	require.Error(t, err)
}
