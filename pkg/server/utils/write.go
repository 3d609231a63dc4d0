package serverutils

import "github.com/valyala/fasthttp"

// Write sets the body of the response, replacing anything written before.
func Write(body []byte, ctx *fasthttp.RequestCtx) (int, error) {
	ctx.Response.ResetBody()
	return ctx.Write(body)
}
