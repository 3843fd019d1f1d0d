package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLimiter(burst int, interval time.Duration) (*rateLimiter, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	rl := newRateLimiter(RateLimitConfig{Burst: burst, RefillInterval: interval})
	rl.now = clock.Now
	rl.lastCheck = clock.now
	return rl, clock
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{})
	require.Nil(t, rl)

	for range 100 {
		require.True(t, rl.allow())
	}
}

func TestRateLimiter_BurstThenRefill(t *testing.T) {
	rl, clock := newTestLimiter(2, time.Second)

	require.True(t, rl.allow())
	require.True(t, rl.allow())
	require.False(t, rl.allow(), "burst exhausted")

	clock.Advance(500 * time.Millisecond)
	require.True(t, rl.allow(), "one token refilled after half the interval")
	require.False(t, rl.allow())

	clock.Advance(time.Hour)
	require.True(t, rl.allow())
	require.True(t, rl.allow())
	require.False(t, rl.allow(), "tokens never exceed the burst")
}

func TestRateLimiter_DefaultInterval(t *testing.T) {
	rl, clock := newTestLimiter(1, 0)

	require.True(t, rl.allow())
	require.False(t, rl.allow())

	clock.Advance(time.Second)
	require.True(t, rl.allow())
}
