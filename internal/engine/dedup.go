package engine

import (
	"sync"
	"time"
)

type dedupKey struct {
	plate  string
	camera string
}

// DedupGate suppresses repeated sightings of the same plate at the same
// camera inside the cooldown window. Comparisons use the event
// timestamp, not wall clock, so replaying a sighting stream is
// deterministic.
type DedupGate struct {
	mu     sync.Mutex
	window time.Duration
	expiry map[dedupKey]time.Time
}

func NewDedupGate(window time.Duration) *DedupGate {
	return &DedupGate{
		window: window,
		expiry: make(map[dedupKey]time.Time),
	}
}

// Admit reports whether the sighting passes the gate. On accept the
// cooldown for the (plate, camera) pair restarts.
func (g *DedupGate) Admit(plate, camera string, at time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := dedupKey{plate: plate, camera: camera}
	if expiry, ok := g.expiry[key]; ok && at.Before(expiry) {
		return false
	}
	g.expiry[key] = at.Add(g.window)
	return true
}

// Prune drops expired cooldown entries. Called from the session sweep.
func (g *DedupGate) Prune(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for key, expiry := range g.expiry {
		if now.After(expiry) {
			delete(g.expiry, key)
		}
	}
}
