package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Borislavv/newest-stories-cache/pkg/config"
	"github.com/Borislavv/newest-stories-cache/pkg/prometheus/metrics"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

const (
	clientName   = "newest-stories-cache"
	acceptHeader = "application/json"
)

// Backend performs raw GET requests against the upstream and maps transport
// level failures onto the package error taxonomy.
type Backend struct {
	cfg     *config.Upstream
	client  *fasthttp.Client
	limiter *rate.Limiter // nil means unlimited
	meter   metrics.Recorder
}

// NewBackend creates a pooled fasthttp client for the configured upstream.
func NewBackend(cfg *config.Upstream, meter metrics.Recorder) *Backend {
	if meter == nil {
		meter = metrics.Noop{}
	}

	b := &Backend{
		cfg:   cfg,
		meter: meter,
		client: &fasthttp.Client{
			Name:                clientName,
			MaxConnsPerHost:     cfg.MaxConns,
			MaxConnWaitTimeout:  cfg.RequestTimeout,
			ReadTimeout:         cfg.RequestTimeout,
			WriteTimeout:        cfg.RequestTimeout,
			MaxIdleConnDuration: time.Minute,
		},
	}

	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		b.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return b
}

// URL joins the upstream base with the given path.
func (b *Backend) URL(path string) string {
	return strings.TrimRight(b.cfg.UpstreamURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// Get requests url and returns a copy of the response body on 200.
// A 404 of the item endpoint is reported as ErrNotFound, any other failure as ErrUpstreamUnavailable.
func (b *Backend) Get(ctx context.Context, endpoint, url string) (body []byte, err error) {
	from := time.Now()
	defer func() {
		b.meter.ObserveUpstreamRequest(endpoint, resultOf(err), time.Since(from))
	}()

	if b.limiter != nil {
		if err = b.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %w", ErrUpstreamUnavailable, err)
		}
	}
	if err = ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	if b.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.RequestTimeout)
		defer cancel()
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, acceptHeader)

	if deadline, ok := ctx.Deadline(); ok {
		err = b.client.DoDeadline(req, resp, deadline)
	} else {
		err = b.client.Do(req, resp)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrUpstreamUnavailable, url, err)
	}

	switch code := resp.StatusCode(); {
	case code == fasthttp.StatusOK:
	case code == fasthttp.StatusNotFound && endpoint == itemEndpoint:
		// Only a record can be missing, a missing list is an upstream outage.
		return nil, fmt.Errorf("%w: GET %s: status 404", ErrNotFound, url)
	default:
		return nil, fmt.Errorf("%w: GET %s: status %s", ErrUpstreamUnavailable, url, strconv.Itoa(code))
	}

	// The response is returned into the pool, the body must be copied.
	return append([]byte(nil), resp.Body()...), nil
}
