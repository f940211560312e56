// Package timer implements the host-side countdown for the lot under the hammer.
//
// Only the room host runs an Authority. Every second it decrements its local
// time_left and reports the new value through Emitter.Tick; when the count
// reaches zero it calls Emitter.Expire once instead of ticking again.
package timer

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Interval is the cadence of the countdown.
const Interval = time.Second

// Emitter receives the countdown's output.
type Emitter interface {
	Tick(timeLeft int)
	Expire()
}

// Authority owns one countdown. The zero value is not usable; use New.
type Authority struct {
	clock   clockwork.Clock
	emitter Emitter

	mu       sync.Mutex
	ticker   clockwork.Ticker
	stop     chan struct{}
	timeLeft int
	gen      uint64
}

// New creates a stopped Authority.
func New(clock clockwork.Clock, emitter Emitter) *Authority {
	return &Authority{clock: clock, emitter: emitter}
}

// Start (re)starts the cadence from timeLeft, replacing any running countdown.
func (a *Authority) Start(timeLeft int) {
	if timeLeft < 0 {
		timeLeft = 0
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopLocked()
	a.gen++
	a.timeLeft = timeLeft
	a.ticker = a.clock.NewTicker(Interval)
	a.stop = make(chan struct{})

	go a.run(a.gen, a.ticker, a.stop)

	log.Debug().Int("time_left", timeLeft).Msg("countdown started")
}

// Stop halts the cadence and returns the preserved time_left.
func (a *Authority) Stop() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
	return a.timeLeft
}

// Running reports whether a countdown is in progress.
func (a *Authority) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ticker != nil
}

// TimeLeft returns the local countdown value.
func (a *Authority) TimeLeft() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timeLeft
}

func (a *Authority) stopLocked() {
	if a.ticker == nil {
		return
	}
	a.ticker.Stop()
	close(a.stop)
	a.ticker = nil
	a.stop = nil
	a.gen++
}

func (a *Authority) run(gen uint64, ticker clockwork.Ticker, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
		}

		a.mu.Lock()
		if a.gen != gen {
			a.mu.Unlock()
			return
		}
		a.timeLeft--
		if a.timeLeft > 0 {
			left := a.timeLeft
			a.mu.Unlock()
			a.emitter.Tick(left)
			continue
		}

		a.timeLeft = 0
		ticker.Stop()
		a.ticker = nil
		a.stop = nil
		a.gen++
		a.mu.Unlock()

		log.Debug().Msg("countdown expired")
		a.emitter.Expire()
		return
	}
}
