package server

import (
	"sync"
	"time"
)

const (
	defaultRateLimit  = 120
	defaultRateWindow = time.Minute
)

// rateLimiter counts requests per caller key over a fixed window. Keys whose
// window has lapsed are pruned whenever a fresh window starts, so idle API
// keys do not accumulate.
type rateLimiter struct {
	limit  int
	window time.Duration
	mu     sync.Mutex
	counts map[string]*windowCount
}

type windowCount struct {
	start time.Time
	seen  int
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	if limit <= 0 {
		limit = defaultRateLimit
	}
	if window <= 0 {
		window = defaultRateWindow
	}
	return &rateLimiter{
		limit:  limit,
		window: window,
		counts: make(map[string]*windowCount),
	}
}

func (r *rateLimiter) Allow(key string) bool {
	if key == "" {
		return false
	}

	now := time.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.counts[key]
	if entry == nil || now.Sub(entry.start) > r.window {
		r.prune(now)
		entry = &windowCount{start: now}
		r.counts[key] = entry
	}

	if entry.seen >= r.limit {
		return false
	}

	entry.seen++
	return true
}

func (r *rateLimiter) prune(now time.Time) {
	for key, entry := range r.counts {
		if now.Sub(entry.start) > r.window {
			delete(r.counts, key)
		}
	}
}
