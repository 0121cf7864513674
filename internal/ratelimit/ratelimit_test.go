package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestNew(t *testing.T) {
	t.Parallel()

	l := New(10, 5)
	assert.InDelta(t, 10, l.maxTokens, 0)
	assert.InDelta(t, 5, l.refillRate, 0)
	assert.InDelta(t, 10, l.tokens, 0)
}

func TestAllow(t *testing.T) {
	t.Parallel()

	t.Run("allows burst", func(t *testing.T) {
		t.Parallel()
		l := newWithClock(5, 1, newFakeClock().Now)
		for i := range 5 {
			assert.True(t, l.Allow(), "attempt %d", i+1)
		}
		assert.False(t, l.Allow())
	})

	t.Run("no refill", func(t *testing.T) {
		t.Parallel()
		l := newWithClock(2, 0, newFakeClock().Now)
		l.Allow()
		l.Allow()
		assert.False(t, l.Allow())
	})

	t.Run("refills over time", func(t *testing.T) {
		t.Parallel()
		clock := newFakeClock()
		l := newWithClock(1, 2, clock.Now)
		assert.True(t, l.Allow())
		assert.False(t, l.Allow())

		clock.Advance(500 * time.Millisecond)
		assert.True(t, l.Allow())
	})

	t.Run("refill capped at burst", func(t *testing.T) {
		t.Parallel()
		clock := newFakeClock()
		l := newWithClock(3, 1, clock.Now)
		clock.Advance(time.Hour)
		assert.InDelta(t, 3, l.Available(), 1e-9)
	})
}

func TestRetryAfter(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	l := newWithClock(1, 0.5, clock.Now)
	assert.Zero(t, l.RetryAfter())

	l.Allow()
	assert.Equal(t, 2*time.Second, l.RetryAfter())

	clock.Advance(1500 * time.Millisecond)
	assert.Equal(t, 500*time.Millisecond, l.RetryAfter())

	assert.Zero(t, newWithClock(0, 0, clock.Now).RetryAfter())
}

func TestAvailable(t *testing.T) {
	t.Parallel()

	l := newWithClock(10, 1, newFakeClock().Now)
	l.Allow()
	l.Allow()
	assert.InDelta(t, 8, l.Available(), 1e-9)
}

func TestIsFull(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	l := newWithClock(2, 1, clock.Now)
	assert.True(t, l.IsFull())

	l.Allow()
	assert.False(t, l.IsFull())

	clock.Advance(time.Second)
	assert.True(t, l.IsFull())
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()

	l := New(100, 0)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	// 50 goroutines each trying to get 2 tokens
	for range 50 {
		wg.Go(func() {
			for range 2 {
				if l.Allow() {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}
		})
	}
	wg.Wait()

	assert.Equal(t, 100, allowed)
	assert.False(t, l.Allow())
}
