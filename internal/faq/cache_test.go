package faq

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/gat-college/faqbot/internal/errors"
	"github.com/gat-college/faqbot/internal/logger"
	"github.com/gat-college/faqbot/internal/storage"
)

type fakeReader struct {
	listFn func(ctx context.Context) ([]storage.FAQ, error)
}

func (f *fakeReader) ListFAQs(ctx context.Context) ([]storage.FAQ, error) {
	return f.listFn(ctx)
}

type fakeRecorder struct {
	mu       sync.Mutex
	statuses []string
	size     int
}

func (r *fakeRecorder) RecordFAQRefresh(status string, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func (r *fakeRecorder) SetFAQSnapshotSize(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.size = n
}

func testLogger() *logger.Logger {
	return logger.NewWithWriter("error", io.Discard)
}

func TestCache_StartsEmpty(t *testing.T) {
	t.Parallel()

	c := NewCache(storage.NewMemory(), testLogger(), nil)
	require.NotNil(t, c.Current())
	assert.Zero(t, c.Current().Len())
}

func TestCache_Refresh(t *testing.T) {
	t.Parallel()

	store := storage.NewMemory(
		storage.FAQ{Question: "Is there a canteen on campus?", Answer: "Yes."},
		storage.FAQ{Question: "Hostel (boys) fee?", Answer: "Contact the office."},
	)
	rec := &fakeRecorder{}
	c := NewCache(store, testLogger(), rec)

	require.NoError(t, c.Refresh(context.Background()))

	snap := c.Current()
	require.Equal(t, 2, snap.Len())
	assert.Equal(t, "is there a canteen on campus", snap.Entries[0].Normalized)
	assert.Equal(t, "hostel fee", snap.Entries[1].Normalized)
	assert.False(t, snap.LoadedAt.IsZero())
	assert.Equal(t, []string{"success"}, rec.statuses)
	assert.Equal(t, 2, rec.size)
}

func TestCache_FailedRefreshKeepsSnapshot(t *testing.T) {
	t.Parallel()

	fail := atomic.Bool{}
	reader := &fakeReader{listFn: func(context.Context) ([]storage.FAQ, error) {
		if fail.Load() {
			return nil, errors.New("connection reset")
		}
		return []storage.FAQ{{Question: "Where is GAT located?", Answer: "Bengaluru."}}, nil
	}}
	rec := &fakeRecorder{}
	c := NewCache(reader, testLogger(), rec)

	require.NoError(t, c.Refresh(context.Background()))
	before := c.Current()

	fail.Store(true)
	err := c.Refresh(context.Background())
	require.Error(t, err)
	assert.Same(t, before, c.Current())
	assert.EqualValues(t, 1, c.Failures())
	assert.Equal(t, []string{"success", "error"}, rec.statuses)
}

func TestCache_LastError(t *testing.T) {
	t.Parallel()

	var mode atomic.Int32
	reader := &fakeReader{listFn: func(context.Context) ([]storage.FAQ, error) {
		switch mode.Load() {
		case 1:
			return nil, errors.New("connection reset")
		case 2:
			return nil, context.DeadlineExceeded
		}
		return []storage.FAQ{{Question: "Where is GAT located?", Answer: "Bengaluru."}}, nil
	}}
	c := NewCache(reader, testLogger(), nil)
	assert.NoError(t, c.LastError())

	mode.Store(1)
	require.Error(t, c.Refresh(context.Background()))
	err := c.LastError()
	require.Error(t, err)
	var we *apperrors.WrappedError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, "faq", we.Module)
	assert.Equal(t, "refresh", we.Operation)
	assert.Equal(t, "FAQ store unreachable, serving the previous snapshot", apperrors.GetUserMessage(err))
	assert.NotErrorIs(t, err, apperrors.ErrTimeout)

	mode.Store(2)
	require.Error(t, c.Refresh(context.Background()))
	assert.ErrorIs(t, c.LastError(), apperrors.ErrTimeout)
	assert.ErrorIs(t, c.LastError(), context.DeadlineExceeded)

	mode.Store(0)
	require.NoError(t, c.Refresh(context.Background()))
	assert.NoError(t, c.LastError())
}

func TestCache_InitialFailureYieldsEmptySnapshot(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{listFn: func(context.Context) ([]storage.FAQ, error) {
		return nil, storage.ErrNoPersistentStore
	}}
	c := NewCache(reader, testLogger(), nil)

	require.Error(t, c.Refresh(context.Background()))
	assert.Zero(t, c.Current().Len())
}

// Readers racing a stream of refreshes must only ever see complete
// snapshots: every entry of a snapshot comes from the same generation.
func TestCache_ConcurrentRefreshIsAtomic(t *testing.T) {
	t.Parallel()

	const size = 50
	var gen atomic.Int64
	reader := &fakeReader{listFn: func(context.Context) ([]storage.FAQ, error) {
		g := gen.Add(1)
		out := make([]storage.FAQ, size)
		for i := range out {
			out[i] = storage.FAQ{Question: "question", Answer: time.Duration(g).String()}
		}
		return out, nil
	}}
	c := NewCache(reader, testLogger(), nil)
	require.NoError(t, c.Refresh(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for range 4 {
		wg.Go(func() {
			for ctx.Err() == nil {
				_ = c.Refresh(ctx)
			}
		})
	}

	for range 2000 {
		snap := c.Current()
		require.Equal(t, size, snap.Len())
		first := snap.Entries[0].Answer
		for _, e := range snap.Entries {
			require.Equal(t, first, e.Answer)
		}
	}
	cancel()
	wg.Wait()
}

func TestCache_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	reader := &fakeReader{listFn: func(context.Context) ([]storage.FAQ, error) {
		calls.Add(1)
		return nil, errors.New("down")
	}}
	c := NewCache(reader, testLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
