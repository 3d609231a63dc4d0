package middleware

import "github.com/valyala/fasthttp"

const applicationJsonContentType = "application/json; charset=utf-8"

type ApplicationJsonMiddleware struct{}

func NewApplicationJsonMiddleware() *ApplicationJsonMiddleware {
	return &ApplicationJsonMiddleware{}
}

func (m *ApplicationJsonMiddleware) Middleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		ctx.Response.Header.SetContentType(applicationJsonContentType)

		next(ctx)
	}
}
