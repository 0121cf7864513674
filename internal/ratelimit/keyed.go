package ratelimit

import (
	"sync"
	"time"
)

// DefaultCleanupPeriod is used when KeyedConfig.CleanupPeriod is unset.
const DefaultCleanupPeriod = 5 * time.Minute

// Recorder receives limiter metrics.
type Recorder interface {
	RecordRateLimiterDrop(limiter string)
	SetRateLimiterKeys(limiter string, n int)
}

// KeyedConfig configures a KeyedLimiter.
type KeyedConfig struct {
	// Name labels metrics, e.g. "chat".
	Name string

	Burst      float64 // bucket capacity
	RefillRate float64 // tokens per second

	// CleanupPeriod is how often idle keys are dropped.
	CleanupPeriod time.Duration

	// Metrics is optional.
	Metrics Recorder
}

// KeyedLimiter keeps one bucket per key (the client IP for /chat) and
// periodically forgets keys whose bucket is full again.
type KeyedLimiter struct {
	mu      sync.RWMutex
	entries map[string]*Limiter
	config  KeyedConfig
	now     func() time.Time
	stopCh  chan struct{}
	stopped sync.Once
}

// NewKeyedLimiter starts the cleanup goroutine; call Stop when done.
//
//	limiter := NewKeyedLimiter(KeyedConfig{Name: "chat", Burst: 20, RefillRate: 1})
//	defer limiter.Stop()
//
//	if !limiter.Allow(clientIP) {
//	    // reject
//	}
func NewKeyedLimiter(cfg KeyedConfig) *KeyedLimiter {
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = DefaultCleanupPeriod
	}
	kl := &KeyedLimiter{
		entries: make(map[string]*Limiter),
		config:  cfg,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	go kl.cleanupLoop()

	return kl
}

// Allow reports whether a request for key may proceed and consumes a token
// if so. An empty key is never limited.
func (kl *KeyedLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}

	if kl.getOrCreate(key).Allow() {
		return true
	}
	if kl.config.Metrics != nil {
		kl.config.Metrics.RecordRateLimiterDrop(kl.config.Name)
	}
	return false
}

// RetryAfter returns how long key must wait for its next token.
func (kl *KeyedLimiter) RetryAfter(key string) time.Duration {
	kl.mu.RLock()
	l, ok := kl.entries[key]
	kl.mu.RUnlock()
	if !ok {
		return 0
	}
	return l.RetryAfter()
}

func (kl *KeyedLimiter) getOrCreate(key string) *Limiter {
	kl.mu.RLock()
	l, ok := kl.entries[key]
	kl.mu.RUnlock()
	if ok {
		return l
	}

	kl.mu.Lock()
	defer kl.mu.Unlock()

	// double-check after acquiring write lock
	if l, ok = kl.entries[key]; ok {
		return l
	}
	l = newWithClock(kl.config.Burst, kl.config.RefillRate, kl.now)
	kl.entries[key] = l
	return l
}

// Available returns the tokens left for key, Burst for an unseen key.
func (kl *KeyedLimiter) Available(key string) float64 {
	kl.mu.RLock()
	l, ok := kl.entries[key]
	kl.mu.RUnlock()
	if !ok {
		return kl.config.Burst
	}
	return l.Available()
}

// ActiveCount returns the number of tracked keys.
func (kl *KeyedLimiter) ActiveCount() int {
	kl.mu.RLock()
	defer kl.mu.RUnlock()
	return len(kl.entries)
}

func (kl *KeyedLimiter) cleanupLoop() {
	ticker := time.NewTicker(kl.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-kl.stopCh:
			return
		case <-ticker.C:
			kl.cleanup()
		}
	}
}

// cleanup drops idle keys and returns how many remain.
func (kl *KeyedLimiter) cleanup() int {
	kl.mu.Lock()
	for key, l := range kl.entries {
		if l.IsFull() {
			delete(kl.entries, key)
		}
	}
	active := len(kl.entries)
	kl.mu.Unlock()

	if kl.config.Metrics != nil {
		kl.config.Metrics.SetRateLimiterKeys(kl.config.Name, active)
	}
	return active
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (kl *KeyedLimiter) Stop() {
	kl.stopped.Do(func() { close(kl.stopCh) })
}
