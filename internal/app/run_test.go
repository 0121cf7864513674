package app

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gat-college/faqbot/internal/aicache"
	"github.com/gat-college/faqbot/internal/logger"
	"github.com/gat-college/faqbot/internal/metrics"
	"github.com/gat-college/faqbot/internal/pipeline"
	"github.com/gat-college/faqbot/internal/storage"
)

// slowStore delays every FAQ listing.
type slowStore struct {
	*storage.Memory
	delay time.Duration
	lists atomic.Int32
}

func (s *slowStore) ListFAQs(ctx context.Context) ([]storage.FAQ, error) {
	s.lists.Add(1)
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.Memory.ListFAQs(ctx)
}

func freePort(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	require.NoError(t, ln.Close())
	return port
}

func TestServe_FirstChatSeesLoadedFAQs(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Port = freePort(t)
	store := &slowStore{
		Memory: storage.NewMemory(
			storage.FAQ{Question: "Is there a canteen on campus?", Answer: "Yes, the canteen is open 8am to 6pm."},
		),
		delay: 500 * time.Millisecond,
	}
	gen := &fakeGenerator{generateFn: func(context.Context, string) (string, error) {
		return "generated", nil
	}}

	log := logger.NewWithWriter("error", io.Discard)
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	lru, err := aicache.NewLRU(cfg.AICacheSize, m)
	require.NoError(t, err)
	app := newApplication(cfg, log, components{
		store:     store,
		memo:      aicache.NewTiered(lru, nil, log, m),
		generator: gen,
		registry:  registry,
		metrics:   m,
	})

	stop := make(chan os.Signal, 1)
	done := make(chan error, 1)
	started := time.Now()
	go func() { done <- app.serve(stop) }()

	url := "http://127.0.0.1:" + cfg.Port + "/chat"
	client := &http.Client{Timeout: 2 * time.Second}
	var resp *http.Response
	require.Eventually(t, func() bool {
		r, err := client.Post(url, "application/json",
			strings.NewReader(`{"user_message": "is there canteen in campus"}`))
		if err != nil {
			return false
		}
		resp = r
		return true
	}, 5*time.Second, 10*time.Millisecond)
	defer resp.Body.Close()

	assert.GreaterOrEqual(t, time.Since(started), store.delay)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"source":"`+string(pipeline.SourceFAQ)+`"`)
	assert.Contains(t, string(body), "8am to 6pm")
	assert.Zero(t, gen.calls.Load())
	assert.GreaterOrEqual(t, store.lists.Load(), int32(1))

	stop <- syscall.SIGTERM
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not return after stop signal")
	}
}
