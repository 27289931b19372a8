// Package scheduler implements the start/stop/countdown state machine that
// decides when a mirror cycle runs. It holds no clock and starts no
// goroutines; callers feed it the current time and act on its answers.
package scheduler

import (
	"errors"
	"math"
	"time"
)

// ErrAlreadyRunning is returned by Start when the recurrence is already running.
var ErrAlreadyRunning = errors.New("copying is already running")

// Phase is the externally visible state of a Recurrence
type Phase int

const (
	// Idle means no countdown is armed and no cycle is running.
	Idle Phase = iota
	// Armed means a countdown is running towards the next cycle.
	Armed
	// Executing means a mirror cycle is in progress.
	Executing
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Executing:
		return "executing"
	default:
		return "unknown"
	}
}

// Recurrence tracks the running flag and the countdown deadline.
// The zero value is Idle.
type Recurrence struct {
	running bool
	phase   Phase
	endTime time.Time
}

// Running reports whether the user has copying switched on
func (r *Recurrence) Running() bool {
	return r.running
}

// Phase returns the current phase
func (r *Recurrence) Phase() Phase {
	return r.phase
}

// EndTime returns the deadline of the armed countdown, or the zero time
func (r *Recurrence) EndTime() time.Time {
	return r.endTime
}

// Start switches copying on. With immediate set, it returns true and the
// caller must run a cycle right away; otherwise the countdown is armed.
// Starting while a previously stopped cycle is still executing only sets the
// running flag, and the countdown is armed once that cycle finishes.
func (r *Recurrence) Start(now time.Time, interval time.Duration, immediate bool) (bool, error) {
	if r.running {
		return false, ErrAlreadyRunning
	}
	r.running = true

	if r.phase == Executing {
		return false, nil
	}
	if immediate {
		r.execute()
		return true, nil
	}
	r.arm(now, interval)
	return false, nil
}

// Stop switches copying off. An armed countdown is dropped immediately; an
// executing cycle is left to finish.
func (r *Recurrence) Stop() {
	r.running = false
	if r.phase == Armed {
		r.idle()
	}
}

// Tick reports whether the countdown expired at now, in which case the
// recurrence moves to Executing and the caller must run a cycle.
func (r *Recurrence) Tick(now time.Time) bool {
	if !r.running || r.phase != Armed || now.Before(r.endTime) {
		return false
	}
	r.execute()
	return true
}

// Finish records the end of a cycle and re-arms the countdown if copying is
// still switched on.
func (r *Recurrence) Finish(now time.Time, interval time.Duration) {
	if r.phase != Executing {
		return
	}
	if !r.running {
		r.idle()
		return
	}
	r.arm(now, interval)
}

// Abort switches copying off and forces the recurrence Idle
func (r *Recurrence) Abort() {
	r.running = false
	r.idle()
}

// Remaining returns the time left on the countdown, rounded up to whole
// seconds. It is zero unless the recurrence is Armed.
func (r *Recurrence) Remaining(now time.Time) time.Duration {
	if r.phase != Armed {
		return 0
	}
	left := r.endTime.Sub(now)
	if left <= 0 {
		return 0
	}
	return time.Duration(math.Ceil(left.Seconds())) * time.Second
}

func (r *Recurrence) arm(now time.Time, interval time.Duration) {
	r.phase = Armed
	r.endTime = now.Add(interval)
}

func (r *Recurrence) execute() {
	r.phase = Executing
	r.endTime = time.Time{}
}

func (r *Recurrence) idle() {
	r.phase = Idle
	r.endTime = time.Time{}
}
