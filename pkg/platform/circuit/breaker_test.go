package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestBreaker_StartsClosed(t *testing.T) {
	b := New("kafka")
	assert.Equal(t, "kafka", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreaker_OpensOnConsecutiveFailures(t *testing.T) {
	b := New("kafka", WithFailureThreshold(3))

	for range 2 {
		fallback, change := b.RecordFailure()
		assert.False(t, fallback)
		assert.False(t, change.Opened)
	}
	fallback, change := b.RecordFailure()
	assert.True(t, fallback)
	assert.True(t, change.Opened)
	assert.True(t, b.IsOpen())

	fallback, change = b.RecordFailure()
	assert.True(t, fallback)
	assert.False(t, change.Opened, "already open")
}

func TestBreaker_SuccessResetsFailureStreak(t *testing.T) {
	b := New("kafka", WithFailureThreshold(2))

	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	assert.False(t, b.IsOpen())

	b.RecordFailure()
	assert.True(t, b.IsOpen())
}

func TestBreaker_ClosesAfterSuccessfulProbes(t *testing.T) {
	b := New("kafka", WithFailureThreshold(1), WithSuccessThreshold(2))
	b.RecordFailure()

	primary, change := b.RecordSuccess()
	assert.False(t, primary)
	assert.False(t, change.Closed)

	b.RecordFailure()
	primary, _ = b.RecordSuccess()
	assert.False(t, primary, "failure restarts the success streak")

	primary, change = b.RecordSuccess()
	assert.True(t, primary)
	assert.True(t, change.Closed)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_AllowsOneProbePerCooldown(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := New("kafka", WithFailureThreshold(1), WithCooldown(time.Minute), WithClock(clock.now))

	b.RecordFailure()
	require.True(t, b.IsOpen())
	assert.False(t, b.Allow())

	clock.advance(time.Minute)
	assert.True(t, b.Allow())
	assert.False(t, b.Allow(), "second trial call waits for the next cooldown")

	b.RecordFailure()
	clock.advance(30 * time.Second)
	assert.False(t, b.Allow())
	clock.advance(30 * time.Second)
	assert.True(t, b.Allow())
}

func TestBreaker_Reset(t *testing.T) {
	b := New("kafka", WithFailureThreshold(1))
	b.RecordFailure()

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}
