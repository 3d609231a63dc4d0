package controller

import "github.com/fasthttp/router"

// HttpController registers its own routes.
type HttpController interface {
	AddRoute(router *router.Router)
}
