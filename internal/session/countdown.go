package session

import (
	"sync"
	"time"
)

// Countdown decrements once per second and signals time-up exactly once.
// It never finishes the session on its own; the owner reacts to onTimeUp.
type Countdown struct {
	mu        sync.Mutex
	remaining int
	started   bool
	stopped   bool
	stop      chan struct{}

	newTicker TickerFunc
	onTick    func(remaining int)
	onTimeUp  func()
}

func NewCountdown(seconds int, newTicker TickerFunc, onTick func(int), onTimeUp func()) *Countdown {
	if newTicker == nil {
		newTicker = SystemTicker
	}
	if onTick == nil {
		onTick = func(int) {}
	}
	if onTimeUp == nil {
		onTimeUp = func() {}
	}
	return &Countdown{
		remaining: seconds,
		stop:      make(chan struct{}),
		newTicker: newTicker,
		onTick:    onTick,
		onTimeUp:  onTimeUp,
	}
}

// Start begins ticking. Calling it again, or after Stop, does nothing.
func (c *Countdown) Start() {
	c.mu.Lock()
	if c.started || c.stopped || c.remaining <= 0 {
		c.mu.Unlock()
		return
	}
	c.started = true
	ticker := c.newTicker(time.Second)
	c.mu.Unlock()

	go c.run(ticker)
}

func (c *Countdown) run(ticker Ticker) {
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C():
			c.mu.Lock()
			if c.stopped {
				c.mu.Unlock()
				return
			}
			c.remaining--
			remaining := c.remaining
			expired := remaining <= 0
			if expired {
				c.stopped = true
			}
			c.mu.Unlock()

			c.onTick(remaining)
			if expired {
				c.onTimeUp()
				return
			}
		}
	}
}

// Stop halts the countdown. It does not wait for an in-flight callback, so it
// is safe to call from onTick or onTimeUp.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	close(c.stop)
}

func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started && !c.stopped
}
