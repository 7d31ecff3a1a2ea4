package processing

import (
	"sync"
	"time"
)

// Gate serializes processing triggers: one site at a time, and a fixed
// cooldown window after each trigger before another is accepted.
type Gate struct {
	cooldown time.Duration

	mu       sync.Mutex
	siteID   string
	acquired time.Time

	now func() time.Time
}

// GateStatus describes the current gate state.
type GateStatus struct {
	Active    bool          `json:"active"`
	SiteID    string        `json:"site_id,omitempty"`
	Remaining time.Duration `json:"-"`
}

// NewGate creates a gate with the given cooldown window.
func NewGate(cooldown time.Duration) *Gate {
	return &Gate{cooldown: cooldown, now: time.Now}
}

// Acquire claims the gate for siteID. Returns false with the blocking
// status when another trigger is still inside its cooldown window.
func (g *Gate) Acquire(siteID string) (bool, GateStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.siteID != "" {
		remaining := g.cooldown - g.now().Sub(g.acquired)
		if remaining > 0 {
			return false, GateStatus{Active: true, SiteID: g.siteID, Remaining: remaining}
		}
		// Window elapsed; the previous hold expires lazily.
		g.siteID = ""
	}

	g.siteID = siteID
	g.acquired = g.now()
	return true, GateStatus{Active: true, SiteID: siteID, Remaining: g.cooldown}
}

// Release frees the gate early. Only the holder for siteID releases it;
// a stale release after expiry is a no-op.
func (g *Gate) Release(siteID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.siteID == siteID {
		g.siteID = ""
	}
}

// Status reports the active site and remaining cooldown, if any.
func (g *Gate) Status() GateStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.siteID == "" {
		return GateStatus{}
	}
	remaining := g.cooldown - g.now().Sub(g.acquired)
	if remaining <= 0 {
		return GateStatus{}
	}
	return GateStatus{Active: true, SiteID: g.siteID, Remaining: remaining}
}
