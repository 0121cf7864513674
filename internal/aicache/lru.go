// Package aicache memoizes AI answers: a bounded in-process LRU (L1) in
// front of an optional shared Redis tier (L2).
package aicache

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Recorder receives cache metrics.
type Recorder interface {
	RecordAICacheHit(tier string)
	RecordAICacheMiss()
	RecordAICacheEviction()
}

// Tier labels.
const (
	TierMemory = "memory"
	TierRedis  = "redis"
)

// LRU is a fixed-capacity, concurrency-safe answer memo.
type LRU struct {
	cache     *lru.Cache[string, string]
	evictions atomic.Int64
	metrics   Recorder
}

// NewLRU returns a memo holding at most size answers. metrics may be nil.
func NewLRU(size int, metrics Recorder) (*LRU, error) {
	l := &LRU{metrics: metrics}
	c, err := lru.NewWithEvict(size, func(string, string) {
		l.evictions.Add(1)
		if l.metrics != nil {
			l.metrics.RecordAICacheEviction()
		}
	})
	if err != nil {
		return nil, fmt.Errorf("ai lru: %w", err)
	}
	l.cache = c
	return l, nil
}

// Get returns the memoized answer and marks it recently used.
func (l *LRU) Get(key string) (string, bool) {
	return l.cache.Get(key)
}

// Add stores an answer, evicting the least recently used one when full.
func (l *LRU) Add(key, value string) {
	l.cache.Add(key, value)
}

// Len returns the number of memoized answers.
func (l *LRU) Len() int {
	return l.cache.Len()
}

// Evictions returns how many answers have been evicted.
func (l *LRU) Evictions() int64 {
	return l.evictions.Load()
}
