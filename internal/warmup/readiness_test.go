package warmup

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReadinessState_Initial(t *testing.T) {
	t.Parallel()

	state := NewReadinessState(10 * time.Minute)
	assert.False(t, state.IsReady())
	assert.False(t, state.WarmupCompleted())

	status := state.Status()
	assert.False(t, status.Ready)
	assert.Equal(t, "warmup in progress", status.Reason)
	assert.Equal(t, 600, status.TimeoutSeconds)
}

func TestReadinessState_MarkReady(t *testing.T) {
	t.Parallel()

	state := NewReadinessState(10 * time.Minute)
	state.MarkReady()

	assert.True(t, state.IsReady())
	assert.True(t, state.WarmupCompleted())
	assert.Equal(t, ReadinessStatus{Ready: true, TimeoutSeconds: 600}, state.Status())
}

func TestReadinessState_Timeout(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	state := NewReadinessState(30 * time.Second)
	state.startTime = now
	state.now = func() time.Time { return now.Add(31 * time.Second) }

	assert.True(t, state.IsReady())
	assert.False(t, state.WarmupCompleted())

	status := state.Status()
	assert.True(t, status.Ready)
	assert.Equal(t, "timeout reached (warmup may still be running)", status.Reason)
	assert.Equal(t, 31, status.ElapsedSeconds)
}

func TestReadinessState_Draining(t *testing.T) {
	t.Parallel()

	state := NewReadinessState(time.Minute)
	state.MarkReady()
	state.MarkDraining()

	assert.False(t, state.IsReady())
	assert.True(t, state.IsDraining())
	assert.True(t, state.WarmupCompleted())
	assert.Equal(t, "shutting down", state.Status().Reason)

	// draining is final
	state.MarkReady()
	assert.False(t, state.IsReady())
}

func TestReadinessState_Concurrent(t *testing.T) {
	t.Parallel()

	state := NewReadinessState(time.Minute)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Go(func() {
			if i == 25 {
				state.MarkReady()
			}
			state.IsReady()
			state.Status()
		})
	}
	wg.Wait()

	assert.True(t, state.IsReady())
}
