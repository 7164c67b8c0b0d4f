package countdown

import (
	"sync"
	"time"
)

// Countdown ticks down from a fixed duration at one-second granularity and
// fires its expiry callback exactly once when it reaches zero. It can be
// paused and resumed without losing remaining time, and Stop tears it down
// from any state. Stop and repeated expiry are idempotent.
type Countdown struct {
	mu        sync.Mutex
	total     time.Duration
	remaining time.Duration
	onExpire  func()
	ticker    *time.Ticker
	done      chan struct{}
	running   bool
	paused    bool
	expired   bool
	stopped   bool
}

func New(total time.Duration, onExpire func()) *Countdown {
	return &Countdown{
		total:     total,
		remaining: total,
		onExpire:  onExpire,
		done:      make(chan struct{}),
	}
}

// Start begins ticking. Calling Start on a running or stopped countdown is a
// no-op.
func (c *Countdown) Start() {
	c.mu.Lock()
	if c.running || c.stopped || c.expired {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.ticker = time.NewTicker(time.Second)
	c.mu.Unlock()

	go c.loop()
}

func (c *Countdown) loop() {
	for {
		select {
		case <-c.done:
			return
		case <-c.ticker.C:
			c.mu.Lock()
			if c.paused || c.stopped {
				c.mu.Unlock()
				continue
			}
			c.remaining -= time.Second
			if c.remaining > 0 {
				c.mu.Unlock()
				continue
			}
			c.remaining = 0
			shouldFire := !c.expired
			c.expired = true
			c.ticker.Stop()
			callback := c.onExpire
			c.mu.Unlock()

			// Fired outside the lock so the callback can call back
			// into Stop without deadlocking.
			if shouldFire && callback != nil {
				callback()
			}
			return
		}
	}
}

func (c *Countdown) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = true
}

func (c *Countdown) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = false
}

// Stop tears the countdown down without firing the expiry callback. Safe to
// call more than once and from the expiry callback itself.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	if c.ticker != nil {
		c.ticker.Stop()
	}
	close(c.done)
}

func (c *Countdown) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Progress reports elapsed time as a ratio in [0, 1].
func (c *Countdown) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.total <= 0 {
		return 1
	}
	return float64(c.total-c.remaining) / float64(c.total)
}

func (c *Countdown) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired
}
