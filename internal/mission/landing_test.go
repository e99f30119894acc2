package mission

import "testing"

func TestLandingLockFirstDetectionWins(t *testing.T) {
	lock := NewLandingLock(Waypoint{X: 0, Y: 0})

	if !lock.Observe("marker-7", Waypoint{X: 3, Y: 1}) {
		t.Fatal("first observation should be accepted")
	}
	if lock.Observe("marker-9", Waypoint{X: -5, Y: -5}) {
		t.Error("foreign identity should be rejected")
	}

	target, locked := lock.Target()
	if !locked {
		t.Fatal("lock should be held")
	}
	if target.X != 3 || target.Y != 1 {
		t.Errorf("target moved to foreign detection: %v", target)
	}
	if lock.Identity() != "marker-7" {
		t.Errorf("identity = %q, want marker-7", lock.Identity())
	}
}

func TestLandingLockSameIdentityRefreshes(t *testing.T) {
	lock := NewLandingLock(Waypoint{})

	lock.Observe("marker-7", Waypoint{X: 3, Y: 1})
	if !lock.Observe("marker-7", Waypoint{X: 3.2, Y: 0.9}) {
		t.Fatal("re-detection of the locked identity should be accepted")
	}

	target, _ := lock.Target()
	if target.X != 3.2 || target.Y != 0.9 {
		t.Errorf("location not refreshed: %v", target)
	}
}

func TestLandingLockFallbackBeforeLock(t *testing.T) {
	takeoff := Waypoint{X: 1.5, Y: -2}
	lock := NewLandingLock(takeoff)

	target, locked := lock.Target()
	if locked {
		t.Error("lock should not be held before any observation")
	}
	if target != takeoff {
		t.Errorf("unlocked target = %v, want takeoff location %v", target, takeoff)
	}
	if lock.Identity() != "" {
		t.Errorf("identity should be empty before lock, got %q", lock.Identity())
	}
}
