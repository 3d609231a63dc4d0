package liveness

import (
	"github.com/fasthttp/router"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

const K8SProbeGetPath = "/k8s/probe"

type response struct {
	Data struct {
		Success bool `json:"success"`
	} `json:"data"`
}

type Controller struct {
	prober Prober
}

func NewController(prober Prober) *Controller {
	return &Controller{prober: prober}
}

func (c *Controller) Probe(ctx *fasthttp.RequestCtx) {
	var resp response
	resp.Data.Success = c.prober.IsAlive()

	b, err := jsoniter.ConfigFastest.Marshal(resp)
	if err != nil {
		log.Err(err).Msg("[probe-controller] unable to marshal response")
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}

	if !resp.Data.Success {
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
	}
	if _, err = ctx.Write(b); err != nil {
		log.Err(err).Msg("[probe-controller] failed to write response into *fasthttp.RequestCtx")
	}
}

func (c *Controller) AddRoute(router *router.Router) {
	router.GET(K8SProbeGetPath, c.Probe)
}
