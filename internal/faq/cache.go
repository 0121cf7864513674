// Package faq holds the in-memory FAQ snapshot and the fuzzy matcher that
// searches it.
package faq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gat-college/faqbot/internal/config"
	apperrors "github.com/gat-college/faqbot/internal/errors"
	"github.com/gat-college/faqbot/internal/logger"
	"github.com/gat-college/faqbot/internal/storage"
	"github.com/gat-college/faqbot/internal/textnorm"
)

// Entry is one FAQ as served. Normalized is textnorm.Query(Question).
type Entry struct {
	Question   string
	Answer     string
	Normalized string
}

// Snapshot is an immutable view of the FAQ collection.
type Snapshot struct {
	Entries  []Entry
	LoadedAt time.Time
}

// Len returns the number of entries; nil-safe.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Entries)
}

// Recorder receives refresh metrics.
type Recorder interface {
	RecordFAQRefresh(status string, seconds float64)
	SetFAQSnapshotSize(n int)
}

// Cache serves the current snapshot lock-free and replaces it wholesale on
// every refresh. Readers see either the old or the new snapshot.
type Cache struct {
	reader  storage.FAQReader
	log     *logger.Logger
	metrics Recorder

	current   atomic.Pointer[Snapshot]
	refreshMu sync.Mutex
	failures  atomic.Int64
	lastErr   atomic.Pointer[error]
}

var refreshErr = apperrors.NewWrapper("faq", "refresh")

// NewCache returns a cache holding an empty snapshot. metrics may be nil.
func NewCache(reader storage.FAQReader, log *logger.Logger, metrics Recorder) *Cache {
	c := &Cache{
		reader:  reader,
		log:     log.WithModule("faq"),
		metrics: metrics,
	}
	c.current.Store(&Snapshot{})
	return c
}

// Current returns the live snapshot. It never returns nil.
func (c *Cache) Current() *Snapshot {
	return c.current.Load()
}

// Failures returns how many refreshes have failed since start.
func (c *Cache) Failures() int64 {
	return c.failures.Load()
}

// LastError returns the error of the latest refresh, or nil after a
// successful one. Its user message is safe to expose.
func (c *Cache) LastError() error {
	if p := c.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// Refresh loads every FAQ from the store and swaps the snapshot. On error
// the previous snapshot stays in place.
func (c *Cache) Refresh(ctx context.Context) error {
	// serialized so a slow refresh cannot overwrite a newer one
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	start := time.Now()
	faqs, err := c.reader.ListFAQs(ctx)
	if err != nil {
		c.failures.Add(1)
		c.record("error", start)
		c.log.WithError(err).
			WithField("kept_entries", c.Current().Len()).
			Warn("FAQ refresh failed, keeping previous snapshot")
		msg := "FAQ store unreachable, serving the previous snapshot"
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", apperrors.ErrTimeout, err)
			msg = "FAQ store too slow, serving the previous snapshot"
		}
		err = refreshErr.Wrap(err, msg)
		c.lastErr.Store(&err)
		return err
	}

	entries := make([]Entry, len(faqs))
	for i, f := range faqs {
		entries[i] = Entry{
			Question:   f.Question,
			Answer:     f.Answer,
			Normalized: textnorm.Query(f.Question),
		}
	}
	c.current.Store(&Snapshot{Entries: entries, LoadedAt: time.Now()})
	c.lastErr.Store(nil)

	c.record("success", start)
	if c.metrics != nil {
		c.metrics.SetFAQSnapshotSize(len(entries))
	}
	c.log.WithField("entries", len(entries)).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Debug("FAQ snapshot refreshed")
	return nil
}

func (c *Cache) record(status string, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordFAQRefresh(status, time.Since(start).Seconds())
	}
}

// Run refreshes every interval until ctx is cancelled. Failures are
// logged by Refresh and never stop the loop.
func (c *Cache) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refreshCtx, cancel := context.WithTimeout(ctx, config.FAQRefresh)
			_ = c.Refresh(refreshCtx)
			cancel()
		}
	}
}
