package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Borislavv/newest-stories-cache/pkg/model"
	"github.com/Borislavv/newest-stories-cache/pkg/prometheus/metrics"
	"github.com/Borislavv/newest-stories-cache/pkg/repository"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Aggregate is the fan-in result of one aggregation pass.
type Aggregate struct {
	// Stories are ordered as the identifiers passed to Aggregate; failed items are absent.
	Stories []*model.Story
	// Failed lists the identifiers which were dropped, in input order.
	Failed []model.Identifier
	// Err holds every per-item failure (*multierror.Error), nil when all items were fetched.
	Err error
}

// Aggregator fetches records concurrently and tolerates per-item failures.
type Aggregator struct {
	fetcher     repository.RecordFetcher
	parallelism int // max concurrent fetches, 0 means one goroutine per identifier
	meter       metrics.Recorder
}

// NewAggregator creates an aggregator over fetcher.
func NewAggregator(fetcher repository.RecordFetcher, parallelism int, meter metrics.Recorder) *Aggregator {
	if meter == nil {
		meter = metrics.Noop{}
	}
	return &Aggregator{
		fetcher:     fetcher,
		parallelism: parallelism,
		meter:       meter,
	}
}

// Aggregate fetches every identifier and waits for all fetches to finish.
// A failed item is dropped without affecting its siblings, so the pass succeeds
// even when every item fails (the result is then empty). The only error is the
// cancellation of ctx itself, because then the result says nothing about the upstream.
func (a *Aggregator) Aggregate(ctx context.Context, ids []model.Identifier) (*Aggregate, error) {
	ids = dedupe(ids)

	var (
		stories = make([]*model.Story, len(ids))
		errs    = make([]error, len(ids))
	)

	// A plain group: the first failure must not cancel the sibling fetches.
	g := new(errgroup.Group)
	if a.parallelism > 0 {
		g.SetLimit(a.parallelism)
	}
	for i, id := range ids {
		g.Go(func() error {
			story, err := a.fetcher.FetchRecord(ctx, id)
			if err == nil && story == nil {
				err = fmt.Errorf("fetch item %d: %w", id, repository.ErrNotFound)
			}
			if err != nil {
				errs[i] = err
				return nil
			}
			stories[i] = story
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("aggregate %d items: %w", len(ids), err)
	}

	agg := &Aggregate{Stories: make([]*model.Story, 0, len(ids))}
	seen := make(map[model.Identifier]struct{}, len(ids))

	var merr *multierror.Error
	for i, id := range ids {
		if errs[i] != nil {
			agg.Failed = append(agg.Failed, id)
			merr = multierror.Append(merr, errs[i])
			if !errors.Is(errs[i], repository.ErrNotFound) {
				log.Debug().Err(errs[i]).Msgf("[aggregator] item %d dropped", id)
			}
			continue
		}
		story := stories[i]
		if _, ok := seen[story.ID]; ok {
			continue
		}
		seen[story.ID] = struct{}{}
		agg.Stories = append(agg.Stories, story)
	}
	agg.Err = merr.ErrorOrNil()

	a.meter.AddItemFailures(len(agg.Failed))

	return agg, nil
}

// dedupe keeps the first occurrence of every identifier.
func dedupe(ids []model.Identifier) []model.Identifier {
	seen := make(map[model.Identifier]struct{}, len(ids))
	out := make([]model.Identifier, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
