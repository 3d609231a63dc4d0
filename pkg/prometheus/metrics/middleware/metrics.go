package middleware

import (
	"strconv"
	"time"

	"github.com/Borislavv/newest-stories-cache/pkg/prometheus/metrics"
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
)

// UnknownRoute labels requests which matched no route, so arbitrary paths never become label values.
const UnknownRoute = "unknown"

type PrometheusMetrics struct {
	metrics metrics.Meter
}

func NewPrometheusMetrics(metrics metrics.Meter) *PrometheusMetrics {
	return &PrometheusMetrics{metrics: metrics}
}

// Middleware labels metrics by the matched route pattern.
// The router must be built with SaveMatchedRoutePath enabled.
func (m *PrometheusMetrics) Middleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		from := time.Now()

		next(ctx)

		path, method := route(ctx), string(ctx.Method())
		status := strconv.Itoa(ctx.Response.StatusCode())

		m.metrics.IncTotal(path, method, "")
		m.metrics.IncStatus(path, method, status)
		m.metrics.IncTotal(path, method, status)
		m.metrics.ObserveResponseTime(path, method, time.Since(from))
	}
}

func route(ctx *fasthttp.RequestCtx) string {
	if path, ok := ctx.UserValue(router.MatchedRoutePathParam).(string); ok && path != "" {
		return path
	}
	return UnknownRoute
}
