package mission

import (
	"sync"

	"github.com/skyhive-io/skyhive/pkg/log"
)

// LandingLock binds the landing location to the first confirmed marker
// identity. Once locked, only re-detections of the same identity may refresh
// the stored location; other identities are dropped. The lock is never
// cleared during a mission. This is a deliberate best-effort single-marker
// policy, not multi-marker fusion.
type LandingLock struct {
	mu sync.Mutex

	locked   bool
	identity string
	location Waypoint

	fallback Waypoint
}

// NewLandingLock creates a lock whose target defaults to the takeoff
// location until a marker is observed.
func NewLandingLock(takeoffLocation Waypoint) *LandingLock {
	return &LandingLock{fallback: takeoffLocation}
}

// Observe records a marker detection. The first identity seen locks the
// target; matching re-detections refresh the stored location (the vehicle may
// get a better fix later in the lap). Foreign identities are ignored.
// It reports whether the observation was accepted.
func (l *LandingLock) Observe(identity string, location Waypoint) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.locked {
		l.locked = true
		l.identity = identity
		l.location = location
		log.Info("Landing target locked", "identity", identity, "location", location)
		return true
	}

	if identity != l.identity {
		log.Debug("Ignoring marker with foreign identity", "identity", identity, "locked", l.identity)
		return false
	}

	l.location = location
	return true
}

// Target returns the landing location and whether a marker identity has been
// locked. Without a lock it returns the takeoff location.
func (l *LandingLock) Target() (Waypoint, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.locked {
		return l.fallback, false
	}
	return l.location, true
}

// Identity returns the locked marker identity, or "" if none.
func (l *LandingLock) Identity() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.identity
}
