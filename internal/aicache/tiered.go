package aicache

import (
	"context"

	"github.com/gat-college/faqbot/internal/logger"
)

// Remote is a shared answer store such as Redis.
type Remote interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Tiered looks answers up in L1, then L2. L2 hits are promoted into L1.
// L2 failures are logged and treated as misses.
type Tiered struct {
	l1      *LRU
	l2      Remote
	log     *logger.Logger
	metrics Recorder
}

// NewTiered combines l1 with an optional l2 (nil disables it).
func NewTiered(l1 *LRU, l2 Remote, log *logger.Logger, metrics Recorder) *Tiered {
	return &Tiered{l1: l1, l2: l2, log: log.WithModule("aicache"), metrics: metrics}
}

// Get returns the memoized answer for key.
func (t *Tiered) Get(ctx context.Context, key string) (string, bool) {
	if v, ok := t.l1.Get(key); ok {
		t.hit(TierMemory)
		return v, true
	}

	if t.l2 != nil {
		v, ok, err := t.l2.Get(ctx, key)
		if err != nil {
			t.log.WithError(err).Warn("L2 lookup failed")
		} else if ok {
			t.l1.Add(key, v)
			t.hit(TierRedis)
			return v, true
		}
	}

	if t.metrics != nil {
		t.metrics.RecordAICacheMiss()
	}
	return "", false
}

// Set stores value in both tiers.
func (t *Tiered) Set(ctx context.Context, key, value string) {
	t.l1.Add(key, value)
	if t.l2 == nil {
		return
	}
	if err := t.l2.Set(ctx, key, value); err != nil {
		t.log.WithError(err).Warn("L2 store failed")
	}
}

// Len returns the L1 size.
func (t *Tiered) Len() int {
	return t.l1.Len()
}

// Evictions returns the L1 eviction count.
func (t *Tiered) Evictions() int64 {
	return t.l1.Evictions()
}

// HasRemote reports whether an L2 tier is attached.
func (t *Tiered) HasRemote() bool {
	return t.l2 != nil
}

// Close releases the L2 connection.
func (t *Tiered) Close() error {
	if t.l2 == nil {
		return nil
	}
	return t.l2.Close()
}

func (t *Tiered) hit(tier string) {
	if t.metrics != nil {
		t.metrics.RecordAICacheHit(tier)
	}
}
