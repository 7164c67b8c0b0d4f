package countdown

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountdownExpiresExactlyOnce(t *testing.T) {
	var fired int32
	c := New(1*time.Second, func() {
		atomic.AddInt32(&fired, 1)
	})
	c.Start()

	require.Eventually(t, func() bool {
		return c.Expired()
	}, 3*time.Second, 50*time.Millisecond, "countdown should expire")

	// A second Start after expiry must not rearm the ticker.
	c.Start()
	time.Sleep(1500 * time.Millisecond)

	assert.Equal(t, int32(1), atomic.LoadInt32(&fired), "expiry callback should fire exactly once")
	assert.Equal(t, time.Duration(0), c.Remaining())
	assert.Equal(t, float64(1), c.Progress())
}

func TestCountdownStopPreventsExpiry(t *testing.T) {
	var fired int32
	c := New(1*time.Second, func() {
		atomic.AddInt32(&fired, 1)
	})
	c.Start()
	c.Stop()
	c.Stop() // idempotent

	time.Sleep(1500 * time.Millisecond)

	assert.Equal(t, int32(0), atomic.LoadInt32(&fired), "stopped countdown must not fire")
	assert.False(t, c.Expired())
}

func TestCountdownPauseKeepsRemaining(t *testing.T) {
	c := New(10*time.Second, nil)
	c.Start()
	c.Pause()

	before := c.Remaining()
	time.Sleep(2100 * time.Millisecond)
	after := c.Remaining()

	assert.Equal(t, before, after, "remaining time must not move while paused")

	c.Resume()
	require.Eventually(t, func() bool {
		return c.Remaining() < before
	}, 3*time.Second, 50*time.Millisecond, "remaining time should move after resume")

	c.Stop()
}

func TestCountdownProgressRatio(t *testing.T) {
	c := New(4*time.Second, nil)
	assert.Equal(t, float64(0), c.Progress())

	c.Start()
	require.Eventually(t, func() bool {
		return c.Progress() >= 0.25
	}, 3*time.Second, 50*time.Millisecond)
	c.Stop()
}
