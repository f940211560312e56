package timer

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	ticks   chan int
	expired chan struct{}
}

func newRecorder() *recorder {
	return &recorder{ticks: make(chan int, 16), expired: make(chan struct{}, 4)}
}

func (r *recorder) Tick(timeLeft int) { r.ticks <- timeLeft }
func (r *recorder) Expire()           { r.expired <- struct{}{} }

func (r *recorder) nextTick(t *testing.T) int {
	t.Helper()
	select {
	case v := <-r.ticks:
		return v
	case <-time.After(time.Second):
		t.Fatal("no tick emitted")
		return 0
	}
}

func (r *recorder) noTick(t *testing.T) {
	t.Helper()
	select {
	case v := <-r.ticks:
		t.Fatalf("unexpected tick %d", v)
	case <-r.expired:
		t.Fatal("unexpected expiry")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAuthority_CountsDownAndExpires(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := newRecorder()
	a := New(clock, rec)

	a.Start(3)
	require.True(t, a.Running())

	clock.Advance(Interval)
	assert.Equal(t, 2, rec.nextTick(t))
	clock.Advance(Interval)
	assert.Equal(t, 1, rec.nextTick(t))
	clock.Advance(Interval)

	select {
	case <-rec.expired:
	case <-time.After(time.Second):
		t.Fatal("countdown did not expire")
	}
	assert.Empty(t, rec.ticks)
	assert.False(t, a.Running())
	assert.Equal(t, 0, a.TimeLeft())
}

func TestAuthority_PausePreservesTimeLeft(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := newRecorder()
	a := New(clock, rec)

	a.Start(10)
	clock.Advance(Interval)
	assert.Equal(t, 9, rec.nextTick(t))

	left := a.Stop()
	assert.Equal(t, 9, left)
	assert.False(t, a.Running())

	clock.Advance(5 * Interval)
	rec.noTick(t)

	a.Start(left)
	clock.Advance(Interval)
	assert.Equal(t, 8, rec.nextTick(t))
	a.Stop()
}

func TestAuthority_RestartReplacesCountdown(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := newRecorder()
	a := New(clock, rec)

	a.Start(4)
	clock.Advance(Interval)
	assert.Equal(t, 3, rec.nextTick(t))

	a.Start(15)
	clock.Advance(Interval)
	assert.Equal(t, 14, rec.nextTick(t))
	rec.noTick(t)
	a.Stop()
}

func TestAuthority_StartAtZeroExpiresOnFirstTick(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := newRecorder()
	a := New(clock, rec)

	a.Start(0)
	clock.Advance(Interval)

	select {
	case <-rec.expired:
	case <-time.After(time.Second):
		t.Fatal("countdown did not expire")
	}
}
