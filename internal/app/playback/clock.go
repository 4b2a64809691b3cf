package playback

import (
	"context"
	"time"
)

// DefaultTickInterval is the nominal progress clock period.
const DefaultTickInterval = 50 * time.Millisecond

// Ticker is the part of *time.Ticker the progress clock uses.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) Chan() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()                  { t.t.Stop() }

// NewTimeTicker returns a Ticker backed by time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// progressClock owns the single live ticking goroutine of an engine.
// All methods must be called with the engine lock held.
type progressClock struct {
	ticker Ticker
	cancel context.CancelFunc
	gen    uint64 // Bumped on every start/stop; ticks carrying an older value are stale
}

// start releases the previous ticker, if any, before creating a new one.
func (c *progressClock) start(newTicker TickerFunc, period time.Duration, onTick func(gen uint64)) {
	c.stop()

	c.gen++
	gen := c.gen

	ctx, cancel := context.WithCancel(context.Background())
	ticker := newTicker(period)
	c.ticker = ticker
	c.cancel = cancel

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				onTick(gen)
			}
		}
	}()
}

// stop cancels the goroutine and stops the ticker synchronously.
func (c *progressClock) stop() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
	c.gen++
}

func (c *progressClock) running() bool {
	return c.ticker != nil
}

// live reports whether a tick of generation gen belongs to the running clock.
func (c *progressClock) live(gen uint64) bool {
	return c.ticker != nil && gen == c.gen
}
