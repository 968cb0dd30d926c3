// Package timer tracks how long an answer has been recording.
package timer

import (
	"fmt"
	"sync"
	"time"
)

const (
	// DefaultWarningAfter is when the "time almost up" warning fires.
	DefaultWarningAfter = 150 * time.Second
	// DefaultMaxDuration is when recording is stopped automatically.
	DefaultMaxDuration = 180 * time.Second
	// PollInterval is how often elapsed time is recomputed.
	PollInterval = time.Second
)

// Options configures a Timer. Zero values select the defaults.
type Options struct {
	WarningAfter time.Duration
	MaxDuration  time.Duration
	// OnTick runs after every poll with the recomputed elapsed time.
	OnTick func(elapsed time.Duration)
	// OnWarning runs once when elapsed first reaches WarningAfter.
	OnWarning func()
	// OnTimeUp runs once when elapsed reaches MaxDuration; the timer is
	// already stopped when it runs.
	OnTimeUp func()
	Clock    Clock
}

// Timer measures elapsed time from the instant Start is called. Elapsed time
// is derived from the clock on each poll rather than by counting ticks, so a
// late or skipped tick never makes it drift.
type Timer struct {
	opts  Options
	clock Clock

	mu        sync.Mutex
	running   bool
	startedAt time.Time
	elapsed   time.Duration
	warned    bool
	timeUp    bool
	ticker    Ticker
	done      chan struct{}
}

// New creates a stopped timer.
func New(opts Options) *Timer {
	if opts.WarningAfter <= 0 {
		opts.WarningAfter = DefaultWarningAfter
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = DefaultMaxDuration
	}
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock
	}
	return &Timer{opts: opts, clock: clock}
}

// Start begins counting from now. Calling Start on a running timer does nothing.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return
	}

	t.running = true
	t.startedAt = t.clock.Now()
	t.elapsed = 0
	t.warned = false
	t.timeUp = false
	t.ticker = t.clock.NewTicker(PollInterval)
	t.done = make(chan struct{})

	go t.loop(t.ticker, t.done)
}

// Stop halts counting. The last elapsed value is kept until Reset.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Timer) stopLocked() {
	if !t.running {
		return
	}
	t.running = false
	t.ticker.Stop()
	close(t.done)
}

// Reset sets elapsed back to zero. A running timer keeps running from now.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.elapsed = 0
	t.warned = false
	t.timeUp = false
	if t.running {
		t.startedAt = t.clock.Now()
	}
}

// Elapsed returns the elapsed time as of the last poll.
func (t *Timer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed
}

// Seconds returns the whole seconds elapsed as of the last poll.
func (t *Timer) Seconds() int {
	return int(t.Elapsed() / time.Second)
}

// Running reports whether the timer is counting.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// StartedAt returns the instant of the last Start.
func (t *Timer) StartedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.startedAt
}

func (t *Timer) loop(ticker Ticker, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ticker.C():
			t.poll(done)
		}
	}
}

func (t *Timer) poll(done chan struct{}) {
	t.mu.Lock()
	if !t.running || t.done != done {
		t.mu.Unlock()
		return
	}

	t.elapsed = t.clock.Now().Sub(t.startedAt)
	elapsed := t.elapsed
	seconds := int(elapsed / time.Second)

	fireWarning := !t.warned && seconds >= int(t.opts.WarningAfter/time.Second)
	if fireWarning {
		t.warned = true
	}
	fireTimeUp := !t.timeUp && seconds >= int(t.opts.MaxDuration/time.Second)
	if fireTimeUp {
		t.timeUp = true
		t.stopLocked()
	}
	t.mu.Unlock()

	// Callbacks run unlocked so they may call back into the timer.
	if t.opts.OnTick != nil {
		t.opts.OnTick(elapsed)
	}
	if fireWarning && t.opts.OnWarning != nil {
		t.opts.OnWarning()
	}
	if fireTimeUp && t.opts.OnTimeUp != nil {
		t.opts.OnTimeUp()
	}
}

// Format renders a duration as MM:SS.
func Format(d time.Duration) string {
	seconds := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
