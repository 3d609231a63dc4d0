package storage

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Borislavv/newest-stories-cache/pkg/config"
	"github.com/Borislavv/newest-stories-cache/pkg/mock"
	"github.com/Borislavv/newest-stories-cache/pkg/model"
	"github.com/Borislavv/newest-stories-cache/pkg/repository"
	"github.com/Borislavv/newest-stories-cache/pkg/service"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

// clock is a manually advanced time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(t testing.TB, upstream *mock.Upstream, serveStale bool) (*TTLCache, *clock) {
	t.Helper()

	cfg := config.Default()
	cfg.ServeStale = serveStale
	cfg.RefreshTimeout = 5 * time.Second

	refresher := service.NewRefresher(
		context.Background(),
		&cfg.Refresher,
		upstream,
		service.NewAggregator(upstream, 0, nil),
		nil,
	)

	clk := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := New(&cfg.Storage, refresher, nil)
	c.now = clk.Now
	return c, clk
}

func TestGetWithinTTLHitsCache(t *testing.T) {
	upstream := mock.NewUpstream(mock.GenerateRandomStories(10)...)
	c, clk := newTestCache(t, upstream, false)

	first, err := c.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 10, first.Len())

	clk.Advance(config.DefaultTTL - time.Second)

	second, err := c.Get(context.Background())
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, int32(1), upstream.ListCalls.Load())
	require.Equal(t, int32(10), upstream.ItemCalls.Load())
}

func TestGetAfterTTLRefreshes(t *testing.T) {
	stories := mock.GenerateRandomStories(3)
	upstream := mock.NewUpstream(stories...)
	c, clk := newTestCache(t, upstream, false)

	first, err := c.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, []model.Identifier{1, 2, 3}, first.IDs())

	fresh := model.NewStory(4, "new one", "someone", 1, clk.Now(), "story", "")
	upstream.SetStory(fresh)
	upstream.SetIDs(4, 1, 2)

	// A story already in the cache gets a new score upstream.
	rescored := *stories[0]
	rescored.Score += 100
	upstream.SetStory(&rescored)

	// The entry expires exactly at TTL.
	clk.Advance(config.DefaultTTL)

	second, err := c.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, []model.Identifier{4, 1, 2}, second.IDs())
	require.Greater(t, second.Seq(), first.Seq())
	require.NotEqual(t, first.Checksum(), second.Checksum())
	require.Equal(t, clk.Now().Add(config.DefaultTTL), c.ExpiresAt())

	require.Equal(t, stories[0].Score, first.Stories()[0].Score)
	require.Equal(t, stories[0].Score+100, second.Stories()[1].Score)
}

func TestFailedRefreshKeepsPreviousEntry(t *testing.T) {
	upstream := mock.NewUpstream(mock.GenerateRandomStories(3)...)
	c, clk := newTestCache(t, upstream, false)

	first, err := c.Get(context.Background())
	require.NoError(t, err)
	expiresAt := c.ExpiresAt()

	upstream.SetListError(repository.ErrUpstreamUnavailable)
	clk.Advance(config.DefaultTTL + time.Minute)

	_, err = c.Get(context.Background())
	require.ErrorIs(t, err, repository.ErrUpstreamUnavailable)

	prev, found := c.Peek()
	require.True(t, found)
	require.Same(t, first, prev)
	require.Equal(t, expiresAt, c.ExpiresAt())

	// The next read tries again instead of caching the failure.
	upstream.SetListError(nil)
	third, err := c.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(3), upstream.ListCalls.Load())
	require.Equal(t, 3, third.Len())
}

func TestFailedRefreshServesStaleWhenEnabled(t *testing.T) {
	upstream := mock.NewUpstream(mock.GenerateRandomStories(3)...)
	c, clk := newTestCache(t, upstream, true)

	first, err := c.Get(context.Background())
	require.NoError(t, err)

	upstream.SetListError(repository.ErrMalformedResponse)
	clk.Advance(config.DefaultTTL)

	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	stale, err := c.Get(context.Background())
	require.NoError(t, err)
	require.Same(t, first, stale)
	require.Contains(t, buf.String(), "serving stale snapshot #1 of cycle "+first.Cycle().String())
}

func TestFailedFirstRefreshIsAnError(t *testing.T) {
	upstream := mock.NewUpstream()
	upstream.SetListError(repository.ErrUpstreamUnavailable)
	c, _ := newTestCache(t, upstream, true)

	snapshot, err := c.Get(context.Background())
	require.ErrorIs(t, err, repository.ErrUpstreamUnavailable)
	require.Nil(t, snapshot)

	_, found := c.Peek()
	require.False(t, found)
}

func TestAllItemsFailedIsCachedAsEmpty(t *testing.T) {
	upstream := mock.NewUpstream()
	upstream.SetIDs(1, 2, 3)
	c, _ := newTestCache(t, upstream, false)

	first, err := c.Get(context.Background())
	require.NoError(t, err)
	require.Zero(t, first.Len())

	second, err := c.Get(context.Background())
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, int32(1), upstream.ListCalls.Load())
}

func TestConcurrentMissesShareOneRefresh(t *testing.T) {
	upstream := mock.NewUpstream(mock.GenerateRandomStories(25)...)
	release := upstream.Block()
	c, _ := newTestCache(t, upstream, false)

	var (
		wg     sync.WaitGroup
		failed atomic.Int32
		seqs   sync.Map
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snapshot, err := c.Get(context.Background())
			if err != nil {
				failed.Add(1)
				return
			}
			seqs.Store(snapshot.Seq(), struct{}{})
		}()
	}

	time.Sleep(50 * time.Millisecond)
	release()
	wg.Wait()

	require.Zero(t, failed.Load())
	require.Equal(t, int32(1), upstream.ListCalls.Load())

	var distinct int
	seqs.Range(func(_, _ any) bool {
		distinct++
		return true
	})
	require.Equal(t, 1, distinct)
}

func TestGetCanceledWhileWaiting(t *testing.T) {
	upstream := mock.NewUpstream(mock.GenerateRandomStories(3)...)
	release := upstream.Block()
	c, _ := newTestCache(t, upstream, false)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Get(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// The abandoned refresh still lands in the cache.
	release()
	require.Eventually(t, func() bool {
		_, found := c.Peek()
		return found
	}, time.Second, time.Millisecond)
}

func TestCommitRejectsOlderSnapshots(t *testing.T) {
	c, _ := newTestCache(t, mock.NewUpstream(), false)

	newer := model.NewSnapshot(2, uuid.New(), time.Now(), mock.GenerateRandomStories(2))
	older := model.NewSnapshot(1, uuid.New(), time.Now(), mock.GenerateRandomStories(1))

	require.True(t, c.Commit(newer))
	require.False(t, c.Commit(older))
	require.False(t, c.Commit(newer))

	current, fresh := c.Current()
	require.True(t, fresh)
	require.Same(t, newer, current)
}

func TestSnapshotHasNoDuplicates(t *testing.T) {
	stories := mock.GenerateRandomStories(5)
	upstream := mock.NewUpstream(stories...)
	upstream.SetIDs(1, 2, 2, 3, 1, 4, 5, 5)
	c, _ := newTestCache(t, upstream, false)

	snapshot, err := c.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, []model.Identifier{1, 2, 3, 4, 5}, snapshot.IDs())
}

// BenchmarkGetParallel measures lock-free reads of a fresh entry.
func BenchmarkGetParallel(b *testing.B) {
	upstream := mock.NewUpstream(mock.GenerateRandomStories(200)...)
	c, _ := newTestCache(b, upstream, false)

	ctx := context.Background()
	if _, err := c.Get(ctx); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := c.Get(ctx); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
