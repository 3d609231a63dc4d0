package storage

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Borislavv/newest-stories-cache/pkg/config"
	"github.com/Borislavv/newest-stories-cache/pkg/model"
	"github.com/Borislavv/newest-stories-cache/pkg/prometheus/metrics"
	"github.com/Borislavv/newest-stories-cache/pkg/prometheus/metrics/keyword"
	"github.com/Borislavv/newest-stories-cache/pkg/service"
	"github.com/rs/zerolog/log"
)

// Storage serves the current snapshot.
type Storage interface {
	// Get returns the cached snapshot or refreshes it if missing or expired (may block).
	Get(ctx context.Context) (*model.Snapshot, error)
	// Peek returns the cached snapshot without refreshing it, even an expired one.
	Peek() (snapshot *model.Snapshot, found bool)
}

// Refresher produces new snapshots and commits them into the given store.
type Refresher interface {
	Refresh(ctx context.Context, store service.Store) (*model.Snapshot, error)
}

var _ Storage = (*TTLCache)(nil)

// entry is replaced wholesale, never mutated.
type entry struct {
	snapshot  *model.Snapshot
	expiresAt time.Time
}

// TTLCache keeps the last successful snapshot for a fixed time-to-live.
// Reads of a fresh entry are lock-free; misses are delegated to the refresher,
// which collapses concurrent misses into a single upstream refresh.
type TTLCache struct {
	cfg       *config.Storage
	refresher Refresher
	meter     metrics.Recorder
	entry     atomic.Pointer[entry]
	now       func() time.Time
}

// New creates an empty cache. Nothing is fetched until the first Get.
func New(cfg *config.Storage, refresher Refresher, meter metrics.Recorder) *TTLCache {
	if meter == nil {
		meter = metrics.Noop{}
	}
	return &TTLCache{
		cfg:       cfg,
		refresher: refresher,
		meter:     meter,
		now:       time.Now,
	}
}

// Get implements Storage.
func (c *TTLCache) Get(ctx context.Context) (*model.Snapshot, error) {
	if e := c.entry.Load(); e != nil && c.now().Before(e.expiresAt) {
		c.meter.IncCacheLookup(keyword.LookupHit)
		return e.snapshot, nil
	}
	c.meter.IncCacheLookup(keyword.LookupMiss)

	snapshot, err := c.refresher.Refresh(ctx, c)
	if err != nil {
		if stale, ok := c.stale(); ok {
			c.meter.IncCacheLookup(keyword.LookupStale)
			log.Warn().Err(err).Msgf("[ttl-cache] refresh failed, serving stale snapshot #%d of cycle %s", stale.Seq(), stale.Cycle())
			return stale, nil
		}
		return nil, err
	}

	return snapshot, nil
}

// Peek implements Storage.
func (c *TTLCache) Peek() (*model.Snapshot, bool) {
	if e := c.entry.Load(); e != nil {
		return e.snapshot, true
	}
	return nil, false
}

// Current implements service.Store.
func (c *TTLCache) Current() (*model.Snapshot, bool) {
	e := c.entry.Load()
	if e == nil {
		return nil, false
	}
	return e.snapshot, c.now().Before(e.expiresAt)
}

// Commit implements service.Store. The new entry expires TTL after the commit.
func (c *TTLCache) Commit(snapshot *model.Snapshot) bool {
	next := &entry{snapshot: snapshot, expiresAt: c.now().Add(c.cfg.TTL)}
	for {
		prev := c.entry.Load()
		if prev != nil && prev.snapshot.Seq() >= snapshot.Seq() {
			return false
		}
		if c.entry.CompareAndSwap(prev, next) {
			return true
		}
	}
}

// ExpiresAt returns the expiry of the current entry (zero time if empty).
func (c *TTLCache) ExpiresAt() time.Time {
	if e := c.entry.Load(); e != nil {
		return e.expiresAt
	}
	return time.Time{}
}

func (c *TTLCache) stale() (*model.Snapshot, bool) {
	if !c.cfg.ServeStale {
		return nil, false
	}
	return c.Peek()
}
