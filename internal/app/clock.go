package app

import "time"

// Clock paces the gesture loop. One receive from Ticks is one frame tick.
// Implementations must drop ticks the loop is too slow to take rather than
// queue them.
type Clock interface {
	Ticks() <-chan time.Time
	Stop()
}

// TickerClock ticks at a fixed rate. time.Ticker already drops ticks for
// slow receivers.
type TickerClock struct {
	ticker *time.Ticker
}

// NewTickerClock returns a clock ticking fps times per second.
// Non-positive fps falls back to 30.
func NewTickerClock(fps int) *TickerClock {
	if fps <= 0 {
		fps = 30
	}
	return &TickerClock{ticker: time.NewTicker(time.Second / time.Duration(fps))}
}

// Ticks implements Clock.
func (c *TickerClock) Ticks() <-chan time.Time {
	return c.ticker.C
}

// Stop implements Clock.
func (c *TickerClock) Stop() {
	c.ticker.Stop()
}

// FrameClock is ticked by a host surface on each of its visual updates, so
// the loop runs at the surface's refresh rate.
type FrameClock struct {
	ch chan time.Time
}

// NewFrameClock returns an untriggered FrameClock.
func NewFrameClock() *FrameClock {
	return &FrameClock{ch: make(chan time.Time, 1)}
}

// Tick offers one tick. If the previous tick has not been taken yet the
// new one is dropped.
func (c *FrameClock) Tick() {
	select {
	case c.ch <- time.Now():
	default:
	}
}

// Ticks implements Clock.
func (c *FrameClock) Ticks() <-chan time.Time {
	return c.ch
}

// Stop implements Clock.
func (c *FrameClock) Stop() {}
