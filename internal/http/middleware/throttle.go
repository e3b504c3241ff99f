package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyFunc derives the throttle key for a request.
type KeyFunc func(r *http.Request) string

// Throttler provides coarse per-client flood protection in front of every
// route using a token bucket per key. Form-level submission limits live in
// the leads package; this only stops floods.
type Throttler struct {
	mu      sync.Mutex
	entries map[string]*throttleEntry
	rps     rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time
}

type throttleEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewThrottler creates a throttler allowing rps requests/sec with the given
// burst size per key.
func NewThrottler(rps float64, burst int) *Throttler {
	if burst < 1 {
		burst = 1
	}
	return &Throttler{
		entries: make(map[string]*throttleEntry),
		rps:     rate.Limit(rps),
		burst:   burst,
		idleTTL: 10 * time.Minute,
		now:     time.Now,
	}
}

// Allow returns true if the request from key is within the rate limit.
func (t *Throttler) Allow(key string) bool {
	now := t.now()

	t.mu.Lock()
	ent, ok := t.entries[key]
	if !ok {
		ent = &throttleEntry{lim: rate.NewLimiter(t.rps, t.burst)}
		t.entries[key] = ent
	}
	ent.lastSeen = now
	t.mu.Unlock()

	return ent.lim.AllowN(now, 1)
}

// Cleanup evicts keys idle for longer than the idle TTL.
func (t *Throttler) Cleanup() {
	cutoff := t.now().Add(-t.idleTTL)

	t.mu.Lock()
	defer t.mu.Unlock()
	for k, ent := range t.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(t.entries, k)
		}
	}
}

// StartJanitor periodically evicts stale entries until ctx is done.
func (t *Throttler) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.Cleanup()
			}
		}
	}()
}

// Throttle returns an HTTP middleware that rejects requests exceeding the
// configured rate with 429 Too Many Requests. onReject may be nil.
func Throttle(t *Throttler, keyFn KeyFunc, onReject func()) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if keyFn != nil {
				key = keyFn(r)
			}
			if !t.Allow(key) {
				if onReject != nil {
					onReject()
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(t.rps)))
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func retryAfterSeconds(rps rate.Limit) int {
	if rps <= 0 {
		return 60
	}
	secs := int(1 / float64(rps))
	if secs < 1 {
		return 1
	}
	return secs
}
