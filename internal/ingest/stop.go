package ingest

import (
	"context"
	"sync/atomic"
	"time"
)

// Check interval bounds. A worker never waits longer than the check interval
// before re-reading the stop flag.
const (
	MinCheckInterval     = 20 * time.Millisecond
	MaxCheckInterval     = 50 * time.Millisecond
	DefaultCheckInterval = 25 * time.Millisecond
)

// Stop is the shared stop signal. It is set once from the event loop and
// observed by every worker and by adapters that wait internally.
type Stop struct {
	flag   atomic.Bool
	ctx    context.Context
	cancel context.CancelFunc
	check  time.Duration
}

// NewStop creates an unset signal whose waits re-check the flag at least
// every check interval. The interval is clamped to
// [MinCheckInterval, MaxCheckInterval].
func NewStop(check time.Duration) *Stop {
	ctx, cancel := context.WithCancel(context.Background())
	return &Stop{ctx: ctx, cancel: cancel, check: ClampCheckInterval(check)}
}

// ClampCheckInterval bounds d to the supported check interval range. Zero
// selects DefaultCheckInterval.
func ClampCheckInterval(d time.Duration) time.Duration {
	switch {
	case d == 0:
		return DefaultCheckInterval
	case d < MinCheckInterval:
		return MinCheckInterval
	case d > MaxCheckInterval:
		return MaxCheckInterval
	default:
		return d
	}
}

// Request sets the signal. It is safe to call more than once.
func (s *Stop) Request() {
	s.flag.Store(true)
	s.cancel()
}

// Requested reports whether the signal is set.
func (s *Stop) Requested() bool { return s.flag.Load() }

// Done is closed once the signal is set.
func (s *Stop) Done() <-chan struct{} { return s.ctx.Done() }

// Context is cancelled once the signal is set. Adapters use it for
// exec.CommandContext and similar.
func (s *Stop) Context() context.Context { return s.ctx }

// CheckInterval returns the slice length used by Sleep.
func (s *Stop) CheckInterval() time.Duration { return s.check }

// Sleep waits for d in slices no longer than the check interval, re-checking
// the flag after each slice. It returns false if the wait was cut short by
// the signal. Adapters must use it for any retry or backoff delay.
func (s *Stop) Sleep(d time.Duration) bool {
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for d > 0 {
		if s.Requested() {
			return false
		}
		slice := min(d, s.check)
		timer.Reset(slice)
		select {
		case <-timer.C:
		case <-s.ctx.Done():
			return false
		}
		d -= slice
	}
	return !s.Requested()
}
