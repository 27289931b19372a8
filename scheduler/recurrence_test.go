package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

// assertInvariant checks that a deadline exists exactly when running and armed.
func assertInvariant(t *testing.T, r *Recurrence) {
	t.Helper()
	armed := r.Running() && r.Phase() == Armed
	assert.Equal(t, armed, !r.EndTime().IsZero(), "phase=%s running=%v", r.Phase(), r.Running())
}

func TestZeroValueIsIdle(t *testing.T) {
	var r Recurrence
	assert.Equal(t, Idle, r.Phase())
	assert.False(t, r.Running())
	assert.False(t, r.Tick(epoch))
	assert.Zero(t, r.Remaining(epoch))
	assertInvariant(t, &r)
}

func TestStartArmsCountdown(t *testing.T) {
	var r Recurrence
	execute, err := r.Start(epoch, 5*time.Second, false)
	require.NoError(t, err)
	assert.False(t, execute)
	assert.Equal(t, Armed, r.Phase())
	assert.Equal(t, epoch.Add(5*time.Second), r.EndTime())
	assertInvariant(t, &r)

	_, err = r.Start(epoch, time.Second, false)
	assert.Equal(t, ErrAlreadyRunning, err)
}

func TestCountdownExpiry(t *testing.T) {
	var r Recurrence
	_, err := r.Start(epoch, 5*time.Second, false)
	require.NoError(t, err)

	for i := 1; i < 5; i++ {
		now := epoch.Add(time.Duration(i) * time.Second)
		assert.False(t, r.Tick(now))
		assert.Equal(t, time.Duration(5-i)*time.Second, r.Remaining(now))
	}

	assert.True(t, r.Tick(epoch.Add(5*time.Second)))
	assert.Equal(t, Executing, r.Phase())
	assert.False(t, r.Tick(epoch.Add(6*time.Second)), "an executing cycle is never started twice")
	assertInvariant(t, &r)

	finished := epoch.Add(8 * time.Second)
	r.Finish(finished, 60*time.Second)
	assert.Equal(t, Armed, r.Phase())
	assert.Equal(t, finished.Add(60*time.Second), r.EndTime(), "re-arms from the end of the cycle with the current interval")
	assertInvariant(t, &r)
}

func TestRemainingRoundsUp(t *testing.T) {
	var r Recurrence
	_, err := r.Start(epoch, 5*time.Second, false)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, r.Remaining(epoch.Add(100*time.Millisecond)))
	assert.Equal(t, time.Second, r.Remaining(epoch.Add(4500*time.Millisecond)))
	assert.Zero(t, r.Remaining(epoch.Add(10*time.Second)))
}

func TestImmediateStart(t *testing.T) {
	var r Recurrence
	execute, err := r.Start(epoch, 5*time.Second, true)
	require.NoError(t, err)
	assert.True(t, execute)
	assert.Equal(t, Executing, r.Phase())
	assertInvariant(t, &r)

	r.Finish(epoch.Add(time.Second), 5*time.Second)
	assert.Equal(t, Armed, r.Phase())
	assert.Equal(t, epoch.Add(6*time.Second), r.EndTime())
}

func TestStopWhileArmed(t *testing.T) {
	var r Recurrence
	_, err := r.Start(epoch, 5*time.Second, false)
	require.NoError(t, err)

	r.Stop()
	assert.Equal(t, Idle, r.Phase())
	assert.False(t, r.Running())
	assertInvariant(t, &r)
	assert.False(t, r.Tick(epoch.Add(time.Hour)), "no cycle runs after a stop")
}

func TestStopWhileExecuting(t *testing.T) {
	var r Recurrence
	_, err := r.Start(epoch, 5*time.Second, true)
	require.NoError(t, err)

	r.Stop()
	assert.Equal(t, Executing, r.Phase(), "the in-flight cycle is not canceled")
	assertInvariant(t, &r)

	r.Finish(epoch.Add(time.Second), 5*time.Second)
	assert.Equal(t, Idle, r.Phase())
	assertInvariant(t, &r)
}

func TestRestartWhileStoppedCycleExecutes(t *testing.T) {
	var r Recurrence
	_, err := r.Start(epoch, 5*time.Second, true)
	require.NoError(t, err)
	r.Stop()

	execute, err := r.Start(epoch, 5*time.Second, true)
	require.NoError(t, err)
	assert.False(t, execute, "cycles never overlap")
	assert.Equal(t, Executing, r.Phase())

	r.Finish(epoch.Add(2*time.Second), 5*time.Second)
	assert.Equal(t, Armed, r.Phase())
	assert.Equal(t, epoch.Add(7*time.Second), r.EndTime())
}

func TestAbort(t *testing.T) {
	var r Recurrence
	_, err := r.Start(epoch, 5*time.Second, true)
	require.NoError(t, err)

	r.Abort()
	assert.Equal(t, Idle, r.Phase())
	assert.False(t, r.Running())
	assertInvariant(t, &r)

	r.Finish(epoch, 5*time.Second)
	assert.Equal(t, Idle, r.Phase(), "finishing an aborted cycle is a no-op")
}

func TestNonPositiveIntervalExpiresImmediately(t *testing.T) {
	var r Recurrence
	_, err := r.Start(epoch, 0, false)
	require.NoError(t, err)
	assert.True(t, r.Tick(epoch))
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "armed", Armed.String())
	assert.Equal(t, "executing", Executing.String())
	assert.Equal(t, "unknown", Phase(42).String())
}
