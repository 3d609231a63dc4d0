package api

import (
	"bytes"
	"context"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/Borislavv/newest-stories-cache/internal/stories/config"
	"github.com/Borislavv/newest-stories-cache/pkg/model"
	serverutils "github.com/Borislavv/newest-stories-cache/pkg/server/utils"
	"github.com/Borislavv/newest-stories-cache/pkg/utils"
	"github.com/fasthttp/router"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	gotilsstrconv "github.com/savsgio/gotils/strconv"
	"github.com/valyala/fasthttp"
)

// NewestStoriesPath serves the cached newest stories.
const NewestStoriesPath = "/api/v1/stories/newest"

// Predefined HTTP response templates for error handling (503)
var (
	serviceUnavailableResponseBytes = []byte(`{
	  "status": 503,
	  "error": "Service Unavailable",
	  "message": "` + string(messagePlaceholder) + `"
	}`)
	messagePlaceholder = []byte("${message}")
	zeroLiteral        = "0"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Snapshotter returns the current snapshot, refreshing it if needed.
type Snapshotter interface {
	Snapshot(ctx context.Context) (*model.Snapshot, error)
}

// encoded is the response body of one snapshot, reused until the snapshot changes.
type encoded struct {
	seq  uint64
	etag string
	body []byte
}

// StoriesController serves the newest stories with conditional GET support.
type StoriesController struct {
	cfg     *config.Config
	ctx     context.Context
	stories Snapshotter
	last    atomic.Pointer[encoded]
	durCh   chan time.Duration // nil unless debug is on
}

// NewStoriesController builds the controller.
// If debug is enabled, launches internal stats logger goroutine.
func NewStoriesController(ctx context.Context, cfg *config.Config, stories Snapshotter) *StoriesController {
	c := &StoriesController{
		cfg:     cfg,
		ctx:     ctx,
		stories: stories,
	}
	if c.cfg.IsDebugOn() {
		c.runLogger(ctx)
	}
	return c
}

// Index is the HTTP handler for /api/v1/stories/newest.
func (c *StoriesController) Index(r *fasthttp.RequestCtx) {
	f := time.Now()

	ctx := c.ctx
	if timeout := c.cfg.GetHttpServerRequestTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	snapshot, err := c.stories.Snapshot(ctx)
	if err != nil {
		c.respondThatServiceIsTemporaryUnavailable(err, r)
		return
	}

	enc, err := c.encode(snapshot)
	if err != nil {
		c.respondThatServiceIsTemporaryUnavailable(err, r)
		return
	}

	r.Response.Header.Set(fasthttp.HeaderETag, enc.etag)
	r.Response.Header.SetLastModified(snapshot.FetchedAt())

	if gotilsstrconv.B2S(r.Request.Header.Peek(fasthttp.HeaderIfNoneMatch)) == enc.etag {
		r.SetStatusCode(fasthttp.StatusNotModified)
		r.Response.SkipBody = true
	} else {
		r.SetStatusCode(fasthttp.StatusOK)
		if _, err = serverutils.Write(enc.body, r); err != nil {
			c.respondThatServiceIsTemporaryUnavailable(err, r)
			return
		}
	}

	// Record the duration in debug mode for metrics.
	if c.durCh != nil {
		select {
		case c.durCh <- time.Since(f):
		default:
		}
	}
}

// encode returns the cached body of snapshot or encodes it once.
func (c *StoriesController) encode(snapshot *model.Snapshot) (*encoded, error) {
	if last := c.last.Load(); last != nil && last.seq == snapshot.Seq() {
		return last, nil
	}

	body, err := json.Marshal(snapshot.Stories())
	if err != nil {
		return nil, err
	}
	enc := &encoded{
		seq:  snapshot.Seq(),
		etag: `"` + strconv.FormatUint(snapshot.Checksum(), 16) + `"`,
		body: body,
	}
	c.last.Store(enc)
	return enc, nil
}

// respondThatServiceIsTemporaryUnavailable returns 503 and logs the error.
func (c *StoriesController) respondThatServiceIsTemporaryUnavailable(err error, ctx *fasthttp.RequestCtx) {
	log.Error().Err(err).Msg("[stories-controller] handle request error")

	ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
	if _, err = serverutils.Write(c.resolveMessagePlaceholder(serviceUnavailableResponseBytes, err), ctx); err != nil {
		log.Err(err).Msg("[stories-controller] failed to write into *fasthttp.RequestCtx")
	}
}

// resolveMessagePlaceholder substitutes ${message} in template with escaped error message.
func (c *StoriesController) resolveMessagePlaceholder(msg []byte, err error) []byte {
	escaped, _ := json.Marshal(err.Error())
	return bytes.ReplaceAll(msg, messagePlaceholder, escaped[1:len(escaped)-1])
}

// AddRoute attaches controller's route(s) to the provided router.
func (c *StoriesController) AddRoute(router *router.Router) {
	router.GET(NewestStoriesPath, c.Index)
}

// stat is an internal structure for windowed request statistics (for debug logging).
type stat struct {
	label    string
	divider  int // window size in seconds
	tickerCh <-chan time.Time
	count    int
	total    time.Duration
}

// runLogger runs a goroutine to periodically log RPS and avg duration per window.
func (c *StoriesController) runLogger(ctx context.Context) {
	c.durCh = make(chan time.Duration, runtime.GOMAXPROCS(0))

	go func() {
		stats := []*stat{
			{label: "5s", divider: 5, tickerCh: utils.NewTicker(ctx, 5*time.Second)},
			{label: "1m", divider: 60, tickerCh: utils.NewTicker(ctx, time.Minute)},
			{label: "5m", divider: 300, tickerCh: utils.NewTicker(ctx, 5*time.Minute)},
			{label: "1h", divider: 3600, tickerCh: utils.NewTicker(ctx, time.Hour)},
		}

		for {
			select {
			case <-ctx.Done():
				return
			case dur := <-c.durCh:
				for _, s := range stats {
					s.count++
					s.total += dur
				}
			case <-stats[0].tickerCh:
				c.logAndReset(stats[0])
			case <-stats[1].tickerCh:
				c.logAndReset(stats[1])
			case <-stats[2].tickerCh:
				c.logAndReset(stats[2])
			case <-stats[3].tickerCh:
				c.logAndReset(stats[3])
			}
		}
	}()
}

// logAndReset prints and resets stat counters for a given window (5s, 1m, etc).
func (c *StoriesController) logAndReset(s *stat) {
	var avg string
	if s.count > 0 {
		avg = (s.total / time.Duration(s.count)).String()
	} else {
		avg = zeroLiteral
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	log.Info().Msgf(
		"[stories-controller][%s] served %d requests (rps: %d, avgDuration: %s, heap: %s)",
		s.label, s.count, s.count/s.divider, avg, utils.FmtMemory(uintptr(mem.HeapAlloc)),
	)
	s.count = 0
	s.total = 0
}
