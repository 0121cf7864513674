package warmup

import (
	"sync/atomic"
	"time"
)

// ReadinessState tracks whether the service should receive traffic.
//
// It becomes ready when MarkReady is called or the timeout since creation
// elapses, and stops being ready for good once MarkDraining is called.
// startTime and timeout are immutable after construction.
type ReadinessState struct {
	ready     atomic.Bool
	draining  atomic.Bool
	startTime time.Time
	timeout   time.Duration
	now       func() time.Time
}

// ReadinessStatus is the /readyz view of the state.
type ReadinessStatus struct {
	Ready          bool   `json:"ready"`
	Reason         string `json:"reason,omitempty"`
	ElapsedSeconds int    `json:"elapsed_seconds,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// NewReadinessState starts not ready.
func NewReadinessState(timeout time.Duration) *ReadinessState {
	return &ReadinessState{
		startTime: time.Now(),
		timeout:   timeout,
		now:       time.Now,
	}
}

// IsReady reports whether the service accepts traffic.
func (s *ReadinessState) IsReady() bool {
	if s.draining.Load() {
		return false
	}
	return s.ready.Load() || s.now().Sub(s.startTime) >= s.timeout
}

// MarkReady is called when warmup finishes.
func (s *ReadinessState) MarkReady() {
	s.ready.Store(true)
}

// MarkDraining is called at shutdown so load balancers stop routing here
// while in-flight requests finish.
func (s *ReadinessState) MarkDraining() {
	s.draining.Store(true)
}

// IsDraining reports whether shutdown has begun.
func (s *ReadinessState) IsDraining() bool {
	return s.draining.Load()
}

// WarmupCompleted reports whether MarkReady was called, unlike IsReady which
// also accepts an elapsed timeout.
func (s *ReadinessState) WarmupCompleted() bool {
	return s.ready.Load()
}

// Status returns the current state for API responses.
func (s *ReadinessState) Status() ReadinessStatus {
	status := ReadinessStatus{
		Ready:          s.IsReady(),
		ElapsedSeconds: int(s.now().Sub(s.startTime).Seconds()),
		TimeoutSeconds: int(s.timeout.Seconds()),
	}

	switch {
	case s.draining.Load():
		status.Reason = "shutting down"
	case !status.Ready:
		status.Reason = "warmup in progress"
	case !s.ready.Load():
		status.Reason = "timeout reached (warmup may still be running)"
	}
	return status
}
