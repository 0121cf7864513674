package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/gat-college/faqbot/internal/metrics"
)

func newTestKeyed(t *testing.T, cfg KeyedConfig, clock *fakeClock) *KeyedLimiter {
	t.Helper()
	if cfg.CleanupPeriod == 0 {
		cfg.CleanupPeriod = time.Hour
	}
	kl := NewKeyedLimiter(cfg)
	kl.now = clock.Now
	t.Cleanup(kl.Stop)
	return kl
}

func TestKeyedLimiter_Basic(t *testing.T) {
	t.Parallel()

	kl := newTestKeyed(t, KeyedConfig{Name: "chat", Burst: 1, RefillRate: 1}, newFakeClock())

	assert.True(t, kl.Allow("10.0.0.1"))
	assert.False(t, kl.Allow("10.0.0.1"), "burst of 1")
	assert.True(t, kl.Allow("10.0.0.2"), "keys are independent")
	assert.Equal(t, 2, kl.ActiveCount())
}

func TestKeyedLimiter_EmptyKeyNeverLimited(t *testing.T) {
	t.Parallel()

	kl := newTestKeyed(t, KeyedConfig{Name: "chat", Burst: 0, RefillRate: 0}, newFakeClock())
	for range 10 {
		assert.True(t, kl.Allow(""))
	}
	assert.Zero(t, kl.ActiveCount())
}

func TestKeyedLimiter_Refill(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	kl := newTestKeyed(t, KeyedConfig{Name: "chat", Burst: 2, RefillRate: 1}, clock)

	kl.Allow("ip")
	kl.Allow("ip")
	assert.False(t, kl.Allow("ip"))
	assert.Equal(t, time.Second, kl.RetryAfter("ip"))
	assert.Zero(t, kl.RetryAfter("unknown"))

	clock.Advance(time.Second)
	assert.True(t, kl.Allow("ip"))
}

func TestKeyedLimiter_Cleanup(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	m := metrics.New(prometheus.NewRegistry())
	kl := newTestKeyed(t, KeyedConfig{Name: "chat", Burst: 10, RefillRate: 1, Metrics: m}, clock)

	kl.Allow("idle")
	clock.Advance(500 * time.Millisecond)
	kl.Allow("busy")

	// idle has refilled by now, busy has not
	clock.Advance(600 * time.Millisecond)
	assert.Equal(t, 1, kl.cleanup())
	assert.InDelta(t, 10, kl.Available("idle"), 0, "forgotten key reports a full bucket")
	assert.InDelta(t, 1, testutil.ToFloat64(m.RateLimiterKeys.WithLabelValues("chat")), 0)
}

func TestKeyedLimiter_CleanupLoop(t *testing.T) {
	t.Parallel()

	kl := NewKeyedLimiter(KeyedConfig{Name: "chat", Burst: 10, RefillRate: 1000, CleanupPeriod: 10 * time.Millisecond})
	defer kl.Stop()

	kl.Allow("u1")
	assert.Eventually(t, func() bool { return kl.ActiveCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestKeyedLimiter_DropMetric(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	kl := newTestKeyed(t, KeyedConfig{Name: "chat", Burst: 1, RefillRate: 0, Metrics: m}, newFakeClock())

	kl.Allow("ip")
	kl.Allow("ip")
	kl.Allow("ip")
	assert.InDelta(t, 2, testutil.ToFloat64(m.RateLimiterDropped.WithLabelValues("chat")), 0)
}

func TestKeyedLimiter_DefaultCleanupPeriod(t *testing.T) {
	t.Parallel()

	kl := NewKeyedLimiter(KeyedConfig{Name: "chat", Burst: 1, RefillRate: 1})
	defer kl.Stop()
	assert.Equal(t, DefaultCleanupPeriod, kl.config.CleanupPeriod)
	assert.NotPanics(t, kl.Stop)
}

func TestKeyedLimiter_ThreadSafety(t *testing.T) {
	t.Parallel()

	kl := NewKeyedLimiter(KeyedConfig{Name: "chat", Burst: 1000, RefillRate: 1, CleanupPeriod: time.Millisecond})
	defer kl.Stop()

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Go(func() {
			key := fmt.Sprintf("user%d", i%10)
			kl.Allow(key)
			kl.Available(key)
			kl.RetryAfter(key)
		})
	}
	wg.Wait()
}
