package middleware

import (
	"github.com/Borislavv/newest-stories-cache/pkg/server/config"
	"github.com/valyala/fasthttp"
)

const watermarkHeader = "X-Server-Name"

type WatermarkMiddleware struct {
	config config.Configurator
}

func NewWatermarkMiddleware(config config.Configurator) *WatermarkMiddleware {
	return &WatermarkMiddleware{config: config}
}

func (m *WatermarkMiddleware) Middleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		ctx.Response.Header.Set(watermarkHeader, m.config.GetHttpServerName())

		next(ctx)
	}
}
