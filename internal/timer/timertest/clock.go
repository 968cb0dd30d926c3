// Package timertest provides a manually advanced clock for timer tests.
package timertest

import (
	"sync"
	"time"

	"mockai/internal/timer"
)

// Clock is a fake timer.Clock. Time only moves when Advance is called.
type Clock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*Ticker
}

// NewClock returns a clock frozen at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NewTicker registers a ticker that fires every d of fake time.
func (c *Clock) NewTicker(d time.Duration) timer.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &Ticker{
		interval: d,
		next:     c.now.Add(d),
		ch:       make(chan time.Time),
		stopped:  make(chan struct{}),
	}
	c.tickers = append(c.tickers, t)
	return t
}

// Advance moves time forward by d, delivering every tick that falls due in
// order. Each delivery blocks until the ticker's reader receives it or the
// ticker is stopped.
func (c *Clock) Advance(d time.Duration) {
	end := c.Now().Add(d)
	for {
		c.mu.Lock()
		t := c.nextDue(end)
		if t == nil {
			c.now = end
			c.mu.Unlock()
			return
		}
		at := t.next
		c.now = at
		t.next = at.Add(t.interval)
		c.mu.Unlock()

		t.fire(at)
	}
}

// ActiveTickers counts tickers that have not been stopped.
func (c *Clock) ActiveTickers() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, t := range c.tickers {
		if !t.isStopped() {
			n++
		}
	}
	return n
}

func (c *Clock) nextDue(end time.Time) *Ticker {
	var due *Ticker
	for _, t := range c.tickers {
		if t.isStopped() || t.next.After(end) {
			continue
		}
		if due == nil || t.next.Before(due.next) {
			due = t
		}
	}
	return due
}

// Ticker is a fake timer.Ticker.
type Ticker struct {
	interval time.Duration
	next     time.Time
	ch       chan time.Time
	stopped  chan struct{}
	once     sync.Once
}

// C returns the tick channel.
func (t *Ticker) C() <-chan time.Time { return t.ch }

// Stop stops future deliveries.
func (t *Ticker) Stop() {
	t.once.Do(func() { close(t.stopped) })
}

func (t *Ticker) isStopped() bool {
	select {
	case <-t.stopped:
		return true
	default:
		return false
	}
}

func (t *Ticker) fire(at time.Time) {
	select {
	case t.ch <- at:
	case <-t.stopped:
	}
}
