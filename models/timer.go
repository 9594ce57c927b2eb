package models

import "time"

// TimerState is the lifecycle state of an EvictionTimer
type TimerState int

// Possible timer states
const (
	TimerArmed TimerState = iota
	TimerCanceled
	TimerFired
)

func (s TimerState) String() string {
	switch s {
	case TimerArmed:
		return "armed"
	case TimerCanceled:
		return "canceled"
	case TimerFired:
		return "fired"
	default:
		return "unknown"
	}
}

// EvictionTimer is a one-shot timer that schedules the removal of an offline member.
//
// The expiry callback runs on its own goroutine and must only hand work over to
// the goroutine that owns the room. Cancel and Fire are meant to be called from
// that owning goroutine; the first one to run wins and every later call is a no-op.
type EvictionTimer struct {
	timer *time.Timer
	state TimerState
}

// NewEvictionTimer arms a timer that calls onExpire with itself after d
func NewEvictionTimer(d time.Duration, onExpire func(*EvictionTimer)) *EvictionTimer {
	t := &EvictionTimer{state: TimerArmed}
	t.timer = time.AfterFunc(d, func() {
		onExpire(t)
	})
	return t
}

// Cancel disarms the timer. It returns false if the timer already fired or was canceled.
func (t *EvictionTimer) Cancel() bool {
	if t == nil || t.state != TimerArmed {
		return false
	}
	t.state = TimerCanceled
	t.timer.Stop()
	return true
}

// Fire marks the timer as fired. It returns false if the timer is no longer armed,
// in which case the caller must not act on the expiry.
func (t *EvictionTimer) Fire() bool {
	if t == nil || t.state != TimerArmed {
		return false
	}
	t.state = TimerFired
	return true
}

// State returns the current timer state
func (t *EvictionTimer) State() TimerState {
	return t.state
}
