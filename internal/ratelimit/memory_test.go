package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedClock lets tests advance time without sleeping.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(rate float64, burst int) (*MemoryLimiter, *fixedClock) {
	clock := &fixedClock{t: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	m := NewMemoryLimiter(rate, burst)
	m.now = clock.now
	return m, clock
}

func TestMemoryLimiterBurst(t *testing.T) {
	m, _ := newTestLimiter(10, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := m.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d should be within burst", i)
	}

	ok, err := m.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok, "request past burst should be denied")
}

func TestMemoryLimiterRefill(t *testing.T) {
	m, clock := newTestLimiter(10, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _ = m.Allow(ctx, "10.0.0.1")
	}
	ok, _ := m.Allow(ctx, "10.0.0.1")
	require.False(t, ok)

	// 10 tokens/s means 100ms buys one token back.
	clock.advance(100 * time.Millisecond)
	ok, err := m.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = m.Allow(ctx, "10.0.0.1")
	assert.False(t, ok, "only one token should have refilled")
}

func TestMemoryLimiterLevelCapsAtBurst(t *testing.T) {
	m, clock := newTestLimiter(10, 3)
	ctx := context.Background()

	_, _ = m.Allow(ctx, "10.0.0.1")
	clock.advance(time.Hour)

	allowed := 0
	for i := 0; i < 5; i++ {
		if ok, _ := m.Allow(ctx, "10.0.0.1"); ok {
			allowed++
		}
	}
	assert.Equal(t, 3, allowed, "an idle key refills to burst, no further")
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	m, _ := newTestLimiter(10, 1)
	ctx := context.Background()

	ok, _ := m.Allow(ctx, "10.0.0.1")
	require.True(t, ok)
	ok, _ = m.Allow(ctx, "10.0.0.1")
	require.False(t, ok)

	ok, _ = m.Allow(ctx, "10.0.0.2")
	assert.True(t, ok, "a fresh key has its own bucket")
}

func TestMemoryLimiterSweepsIdleKeys(t *testing.T) {
	m, clock := newTestLimiter(10, 5)
	ctx := context.Background()

	_, _ = m.Allow(ctx, "idle")
	clock.advance(idleEviction + sweepInterval + time.Second)
	_, _ = m.Allow(ctx, "active")

	m.mu.Lock()
	_, idleExists := m.clients["idle"]
	_, activeExists := m.clients["active"]
	m.mu.Unlock()

	assert.False(t, idleExists, "idle key should have been swept")
	assert.True(t, activeExists)
}

func TestMemoryLimiterConcurrent(t *testing.T) {
	m := NewMemoryLimiter(100, 50)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				ok, err := m.Allow(ctx, "shared")
				assert.NoError(t, err)
				if ok {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	// 100 requests against a burst of 50, plus a little refill headroom in
	// case the goroutines run slowly.
	assert.GreaterOrEqual(t, allowed, 1)
	assert.LessOrEqual(t, allowed, 60)
}

func TestMemoryLimiterClose(t *testing.T) {
	m := NewMemoryLimiter(10, 5)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}

func TestNoopLimiterAlwaysAllows(t *testing.T) {
	var l NoopLimiter
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		ok, err := l.Allow(ctx, "anything")
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.NoError(t, l.Close())
}
