package ratelimit

import (
	"testing"
	"time"
)

func TestAllowUnderLimit(t *testing.T) {
	l := NewKeyLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !l.Allow("reaction") {
			t.Fatalf("event %d should be allowed", i+1)
		}
	}
}

func TestDenyOverLimit(t *testing.T) {
	l := NewKeyLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		l.Allow("reaction")
	}
	if l.Allow("reaction") {
		t.Fatal("4th event should be denied")
	}
}

func TestDifferentKeysIndependent(t *testing.T) {
	l := NewKeyLimiter(2, time.Hour)

	l.Allow("reaction")
	l.Allow("reaction")

	if l.Allow("reaction") {
		t.Fatal("reaction should be denied")
	}
	if !l.Allow("typing") {
		t.Fatal("typing should be allowed")
	}
}

func TestExpiredEntriesPruned(t *testing.T) {
	l := NewKeyLimiter(2, 50*time.Millisecond)

	l.Allow("reaction")
	l.Allow("reaction")

	if l.Allow("reaction") {
		t.Fatal("should be denied before window expires")
	}

	time.Sleep(60 * time.Millisecond)

	if !l.Allow("reaction") {
		t.Fatal("should be allowed after window expires")
	}
}
