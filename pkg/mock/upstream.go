package mock

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Borislavv/newest-stories-cache/pkg/model"
	"github.com/Borislavv/newest-stories-cache/pkg/repository"
)

// Upstream is an in-memory repository.Upstreamer which counts its calls.
type Upstream struct {
	mu       sync.RWMutex
	ids      []model.Identifier
	stories  map[model.Identifier]*model.Story
	itemErrs map[model.Identifier]error
	listErr  error
	delay    time.Duration
	gate     chan struct{}

	ListCalls atomic.Int32
	ItemCalls atomic.Int32
}

var _ repository.Upstreamer = (*Upstream)(nil)

// NewUpstream lists the given stories in the given order.
func NewUpstream(stories ...*model.Story) *Upstream {
	u := &Upstream{
		stories:  make(map[model.Identifier]*model.Story, len(stories)),
		itemErrs: make(map[model.Identifier]error),
	}
	for _, s := range stories {
		u.ids = append(u.ids, s.ID)
		u.stories[s.ID] = s
	}
	return u
}

// SetIDs overrides the identifier list (it may reference unknown items).
func (u *Upstream) SetIDs(ids ...model.Identifier) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ids = ids
}

// SetStory adds or replaces a record without touching the identifier list.
func (u *Upstream) SetStory(s *model.Story) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.stories[s.ID] = s
}

// SetItemError makes FetchRecord(id) fail with err (nil clears it).
func (u *Upstream) SetItemError(id model.Identifier, err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err == nil {
		delete(u.itemErrs, id)
		return
	}
	u.itemErrs[id] = err
}

// SetListError makes FetchTopIdentifiers fail with err (nil clears it).
func (u *Upstream) SetListError(err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.listErr = err
}

// SetDelay delays every item fetch.
func (u *Upstream) SetDelay(d time.Duration) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.delay = d
}

// Block makes FetchTopIdentifiers wait until the returned func is called.
func (u *Upstream) Block() (release func()) {
	gate := make(chan struct{})
	u.mu.Lock()
	u.gate = gate
	u.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			u.mu.Lock()
			u.gate = nil
			u.mu.Unlock()
			close(gate)
		})
	}
}

func (u *Upstream) FetchTopIdentifiers(ctx context.Context, limit int) ([]model.Identifier, error) {
	u.ListCalls.Add(1)

	u.mu.RLock()
	gate := u.gate
	u.mu.RUnlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", repository.ErrUpstreamUnavailable, ctx.Err())
		}
	}

	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.listErr != nil {
		return nil, u.listErr
	}
	ids := slices.Clone(u.ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (u *Upstream) FetchRecord(ctx context.Context, id model.Identifier) (*model.Story, error) {
	u.ItemCalls.Add(1)

	u.mu.RLock()
	delay := u.delay
	u.mu.RUnlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", repository.ErrUpstreamUnavailable, ctx.Err())
		}
	}

	u.mu.RLock()
	defer u.mu.RUnlock()
	if err := u.itemErrs[id]; err != nil {
		return nil, err
	}
	s, ok := u.stories[id]
	if !ok {
		return nil, fmt.Errorf("fetch item %d: %w", id, repository.ErrNotFound)
	}
	return s, nil
}
