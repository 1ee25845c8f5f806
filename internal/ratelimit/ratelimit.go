package ratelimit

import (
	"sync"
	"time"
)

// KeyLimiter tracks event counts per key within a sliding window. The
// client uses it to cap outbound frame bursts per frame kind so a
// misbehaving UI cannot flood the server.
type KeyLimiter struct {
	mu      sync.Mutex
	entries map[string][]time.Time
	max     int
	window  time.Duration
}

// NewKeyLimiter creates a KeyLimiter allowing max events per window.
func NewKeyLimiter(max int, window time.Duration) *KeyLimiter {
	return &KeyLimiter{
		entries: make(map[string][]time.Time),
		max:     max,
		window:  window,
	}
}

// Allow returns true if the key has not exceeded the rate limit.
// If allowed, the event is recorded.
func (l *KeyLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-l.window)

	timestamps := l.entries[key]
	// Remove expired entries
	valid := timestamps[:0]
	for _, t := range timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= l.max {
		l.entries[key] = valid
		return false
	}

	l.entries[key] = append(valid, now)
	return true
}
