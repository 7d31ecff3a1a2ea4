package ratelimit

import (
	"context"
	"sync"
	"time"
)

// clientBucket tracks the token level for one client key.
type clientBucket struct {
	level    float64
	lastSeen time.Time
}

// MemoryLimiter is a per-key token bucket held in process memory. The
// dashboard runs as a single instance, so one map covers every viewer; keys
// are client IPs. Idle entries are swept opportunistically during Allow, so
// there is no background goroutine to manage.
type MemoryLimiter struct {
	rate  float64
	burst float64
	now   func() time.Time

	mu        sync.Mutex
	clients   map[string]*clientBucket
	nextSweep time.Time
}

const (
	idleEviction  = 10 * time.Minute
	sweepInterval = time.Minute
)

// NewMemoryLimiter creates a limiter allowing a sustained rate of requests
// per second per key, with bursts up to burst.
func NewMemoryLimiter(rate float64, burst int) *MemoryLimiter {
	return &MemoryLimiter{
		rate:    rate,
		burst:   float64(burst),
		now:     time.Now,
		clients: make(map[string]*clientBucket),
	}
}

// Allow consumes one token for key, reporting whether the request may
// proceed. The error return exists to satisfy Limiter; it is always nil
// here.
func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.After(m.nextSweep) {
		m.sweep(now)
		m.nextSweep = now.Add(sweepInterval)
	}

	b, ok := m.clients[key]
	if !ok {
		m.clients[key] = &clientBucket{level: m.burst - 1, lastSeen: now}
		return true, nil
	}

	b.level += now.Sub(b.lastSeen).Seconds() * m.rate
	if b.level > m.burst {
		b.level = m.burst
	}
	b.lastSeen = now

	if b.level < 1 {
		return false, nil
	}
	b.level--
	return true, nil
}

// Close releases nothing; eviction piggybacks on Allow. Present to satisfy
// Limiter.
func (m *MemoryLimiter) Close() error { return nil }

// sweep drops keys idle past the eviction window. Caller holds mu.
func (m *MemoryLimiter) sweep(now time.Time) {
	cutoff := now.Add(-idleEviction)
	for key, b := range m.clients {
		if b.lastSeen.Before(cutoff) {
			delete(m.clients, key)
		}
	}
}
