package middleware

import "github.com/valyala/fasthttp"

// HttpMiddleware wraps a handler, middlewares are applied in the order they are passed to the server.
type HttpMiddleware interface {
	Middleware(next fasthttp.RequestHandler) fasthttp.RequestHandler
}
