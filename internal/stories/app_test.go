package stories

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Borislavv/newest-stories-cache/internal/stories/config"
	"github.com/Borislavv/newest-stories-cache/pkg/k8s/probe/liveness"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func newHackerNews(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v0/newstories.json":
			_, _ = w.Write([]byte(`[3, 2, 1]`))
		case "/v0/item/1.json":
			_, _ = w.Write([]byte(`{"id":1,"title":"one","by":"a","score":1,"time":1700000000,"type":"story"}`))
		case "/v0/item/2.json":
			_, _ = w.Write([]byte(`null`))
		case "/v0/item/3.json":
			_, _ = w.Write([]byte(`{"id":3,"title":"three","by":"c","score":3,"time":1700000100,"type":"story"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAppPreloadsAndStops(t *testing.T) {
	upstream := newHackerNews(t)

	cfg := config.Default()
	cfg.UpstreamURL = upstream.URL + "/v0"
	cfg.ServerPort = "127.0.0.1:0"
	cfg.Preload = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	probe := liveness.NewProbe(time.Second)
	app, err := NewApp(ctx, cfg, probe, prometheus.NewRegistry())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		app.Start()
	}()

	require.Eventually(t, func() bool {
		_, found := app.cache.Peek()
		return found && app.IsAlive(context.Background())
	}, 5*time.Second, 10*time.Millisecond)
	require.True(t, probe.IsAlive())
	// let the listener come up before shutting it down
	time.Sleep(100 * time.Millisecond)

	snapshot, _ := app.cache.Peek()
	require.Equal(t, 2, snapshot.Len())

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
	require.False(t, app.IsAlive(context.Background()))
}

func TestNewAppRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.UpstreamURL = "ftp://example.com"

	_, err := NewApp(context.Background(), cfg, liveness.NewProbe(time.Second), nil)
	require.Error(t, err)
}
