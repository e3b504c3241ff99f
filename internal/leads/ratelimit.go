package leads

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of a rate limit check.
type Decision struct {
	Allowed bool
	// Count is the number of accepted submissions in the window, including
	// this one when allowed.
	Count int
	Limit int
	// RetryAfter is how long until the oldest entry leaves the window. Zero
	// when allowed.
	RetryAfter time.Duration
}

// RateLimiter bounds accepted submissions per client key within a trailing
// window. Allow checks and records in one step: a denied attempt never
// consumes a slot.
type RateLimiter interface {
	Allow(ctx context.Context, key string, now time.Time) (Decision, error)
}

// MemoryRateLimiter is a process-local sliding window log. Timestamps for a
// key are pruned only when that key is checked again.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	max     int
	window  time.Duration
}

// NewMemoryRateLimiter allows max submissions per key in any trailing window.
func NewMemoryRateLimiter(max int, window time.Duration) *MemoryRateLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &MemoryRateLimiter{
		windows: make(map[string][]time.Time),
		max:     max,
		window:  window,
	}
}

// Allow implements RateLimiter. It never returns an error.
func (rl *MemoryRateLimiter) Allow(_ context.Context, key string, now time.Time) (Decision, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := now.Add(-rl.window)
	stamps := rl.windows[key]
	keep := 0
	// An entry exactly one window old has expired.
	for keep < len(stamps) && !stamps[keep].After(cutoff) {
		keep++
	}
	stamps = stamps[keep:]

	if len(stamps) >= rl.max {
		rl.windows[key] = stamps
		return Decision{
			Allowed:    false,
			Count:      len(stamps),
			Limit:      rl.max,
			RetryAfter: stamps[0].Sub(cutoff),
		}, nil
	}

	stamps = append(stamps, now)
	rl.windows[key] = stamps
	return Decision{Allowed: true, Count: len(stamps), Limit: rl.max}, nil
}

// Keys returns the number of tracked client keys.
func (rl *MemoryRateLimiter) Keys() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}
