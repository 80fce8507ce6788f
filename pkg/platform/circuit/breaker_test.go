package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker() (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := New("registry",
		WithFailureThreshold(3),
		WithSuccessThreshold(2),
		WithCooldown(5*time.Second),
		WithClock(clock.now),
	)
	return b, clock
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	b, _ := newTestBreaker()

	assert.Equal(t, StateChange{}, b.RecordFailure())
	assert.Equal(t, StateChange{}, b.RecordFailure())
	assert.True(t, b.Allow())

	assert.Equal(t, StateChange{Opened: true}, b.RecordFailure())
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker()

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()

	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_AdmitsTrialAfterCooldown(t *testing.T) {
	b, clock := newTestBreaker()
	for range 3 {
		b.RecordFailure()
	}

	clock.advance(4 * time.Second)
	assert.False(t, b.Allow())

	clock.advance(time.Second)
	assert.True(t, b.Allow(), "first trial after cooldown")
	assert.False(t, b.Allow(), "only one trial per window")

	t.Run("failed trial restarts the cooldown", func(t *testing.T) {
		b.RecordFailure()
		assert.False(t, b.Allow())
		clock.advance(5 * time.Second)
		assert.True(t, b.Allow())
	})

	t.Run("consecutive trial successes close the circuit", func(t *testing.T) {
		assert.Equal(t, StateChange{}, b.RecordSuccess())
		assert.True(t, b.Allow())
		assert.Equal(t, StateChange{Closed: true}, b.RecordSuccess())
		assert.Equal(t, StateClosed, b.State())
	})
}

func TestBreaker_Reset(t *testing.T) {
	b, _ := newTestBreaker()
	for range 3 {
		b.RecordFailure()
	}
	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
	assert.Equal(t, "closed", b.State().String())
}
