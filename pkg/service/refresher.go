package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Borislavv/newest-stories-cache/pkg/config"
	"github.com/Borislavv/newest-stories-cache/pkg/model"
	"github.com/Borislavv/newest-stories-cache/pkg/prometheus/metrics"
	"github.com/Borislavv/newest-stories-cache/pkg/prometheus/metrics/keyword"
	"github.com/Borislavv/newest-stories-cache/pkg/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// refreshKey is the single flight key: there is only one kind of refresh.
const refreshKey = "newest-stories"

// State of the refresher.
type State int32

const (
	Idle State = iota
	InFlight
)

func (s State) String() string {
	if s == InFlight {
		return "in-flight"
	}
	return "idle"
}

// Store holds the current snapshot, a refresh cycle reads from and commits into it.
type Store interface {
	// Current returns the last committed snapshot (nil if none) and whether it has not expired yet.
	Current() (snapshot *model.Snapshot, fresh bool)
	// Commit installs snapshot unless a snapshot with the same or a greater sequence is already installed.
	Commit(snapshot *model.Snapshot) bool
}

// Refresher runs refresh cycles (identifiers, then aggregation) with at most
// one cycle in flight. Callers arriving during a cycle join it and receive
// its outcome.
type Refresher struct {
	ctx        context.Context // process lifetime, cancels in-flight cycles on shutdown
	cfg        *config.Refresher
	source     repository.IdentifierSource
	aggregator *Aggregator
	meter      metrics.Recorder

	group singleflight.Group
	seq   atomic.Uint64
	state atomic.Int32
}

// NewRefresher creates a refresher bound to ctx. Cancelling ctx aborts the cycle in flight.
func NewRefresher(
	ctx context.Context,
	cfg *config.Refresher,
	source repository.IdentifierSource,
	aggregator *Aggregator,
	meter metrics.Recorder,
) *Refresher {
	if meter == nil {
		meter = metrics.Noop{}
	}
	return &Refresher{
		ctx:        ctx,
		cfg:        cfg,
		source:     source,
		aggregator: aggregator,
		meter:      meter,
	}
}

// State reports whether a cycle is currently in flight.
func (r *Refresher) State() State {
	return State(r.state.Load())
}

// Refresh starts a cycle or joins the one in flight and waits for its outcome.
// On success the snapshot is already committed into store when Refresh returns.
//
// The cycle runs on the refresher context, not on ctx: if ctx is done first,
// Refresh returns ctx.Err() while the cycle keeps running for the other waiters.
func (r *Refresher) Refresh(ctx context.Context, store Store) (*model.Snapshot, error) {
	ch := r.group.DoChan(refreshKey, func() (any, error) {
		return r.refresh(store)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.Snapshot), nil
	}
}

// refresh is executed by the leader only.
func (r *Refresher) refresh(store Store) (*model.Snapshot, error) {
	// A caller may have seen an expired entry just before the previous flight committed.
	prev, fresh := store.Current()
	if fresh {
		r.meter.IncRefresh(keyword.RefreshSkipped)
		return prev, nil
	}

	r.state.Store(int32(InFlight))
	defer r.state.Store(int32(Idle))

	ctx := r.ctx
	if r.cfg.RefreshTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.RefreshTimeout)
		defer cancel()
	}

	cycle := uuid.New()
	from := time.Now()
	log.Debug().Msgf("[refresher][%s] refresh started", cycle)

	snapshot, err := r.cycle(ctx, cycle)
	if err != nil {
		r.meter.IncRefresh(keyword.RefreshFailure)
		log.Error().Err(err).Msgf("[refresher][%s] refresh failed", cycle)
		return nil, err
	}

	store.Commit(snapshot)

	r.meter.IncRefresh(keyword.RefreshSuccess)
	r.meter.ObserveRefreshDuration(time.Since(from))
	r.meter.SetSnapshotStories(snapshot.Len())

	changed := prev == nil || prev.Checksum() != snapshot.Checksum()
	log.Info().Msgf("[refresher][%s] refresh #%d done in %s (stories: %d, changed: %t)",
		cycle, snapshot.Seq(), time.Since(from), snapshot.Len(), changed)

	return snapshot, nil
}

func (r *Refresher) cycle(ctx context.Context, cycle uuid.UUID) (*model.Snapshot, error) {
	ids, err := r.source.FetchTopIdentifiers(ctx, r.cfg.TopLimit)
	if err != nil {
		return nil, fmt.Errorf("refresh %s: %w", cycle, err)
	}

	agg, err := r.aggregator.Aggregate(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("refresh %s: %w", cycle, err)
	}
	if agg.Err != nil {
		log.Warn().Err(agg.Err).Msgf("[refresher][%s] %d of %d items dropped %v", cycle, len(agg.Failed), len(ids), agg.Failed)
	}

	return model.NewSnapshot(r.seq.Add(1), cycle, time.Now(), agg.Stories), nil
}
