package warmup

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

	"github.com/gat-college/faqbot/internal/logger"
)

type fakeRecorder struct {
	mu        sync.Mutex
	tasks     map[string]string
	durations int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{tasks: map[string]string{}}
}

func (r *fakeRecorder) RecordWarmupTask(step, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[step] = status
}

func (r *fakeRecorder) RecordWarmupDuration(float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.durations++
}

func testLogger() *logger.Logger {
	return logger.NewWithWriter("error", io.Discard)
}

func TestRun_AllSucceed(t *testing.T) {
	t.Parallel()

	var ran atomic.Int32
	step := func(name string) Step {
		return Step{Name: name, Run: func(context.Context) error {
			ran.Add(1)
			return nil
		}}
	}
	rec := newFakeRecorder()

	err := Run(context.Background(), testLogger(), rec, step("faq_snapshot"), step("admin_contact"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, ran.Load())
	assert.Equal(t, map[string]string{"faq_snapshot": "success", "admin_contact": "success"}, rec.tasks)
	assert.Equal(t, 1, rec.durations)
}

func TestRun_FailureDoesNotCancelOthers(t *testing.T) {
	t.Parallel()

	boom := errors.New("store unreachable")
	var slowDone atomic.Bool
	rec := newFakeRecorder()

	err := Run(context.Background(), testLogger(), rec,
		Step{Name: "faq_snapshot", Run: func(context.Context) error { return boom }},
		Step{Name: "admin_contact", Run: func(ctx context.Context) error {
			select {
			case <-time.After(20 * time.Millisecond):
				slowDone.Store(true)
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}},
	)

	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "faq_snapshot")
	assert.True(t, slowDone.Load())
	assert.Equal(t, "error", rec.tasks["faq_snapshot"])
	assert.Equal(t, "success", rec.tasks["admin_contact"])
}

func TestRun_RecoversPanic(t *testing.T) {
	t.Parallel()

	rec := newFakeRecorder()
	err := Run(context.Background(), testLogger(), rec,
		Step{Name: "boom", Run: func(context.Context) error { panic("nil map") }},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic: nil map")
	assert.Equal(t, "error", rec.tasks["boom"])
}

func TestRun_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := Run(ctx, testLogger(), nil, Step{Name: "faq_snapshot", Run: func(context.Context) error {
		called = true
		return nil
	}})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestRun_NoSteps(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Run(context.Background(), testLogger(), nil))
}
