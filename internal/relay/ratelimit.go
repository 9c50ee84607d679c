package relay

import (
	"sync"

	"golang.org/x/time/rate"
)

// limiterRegistry keeps one token bucket per client key. Buckets are created
// lazily and never evicted; the key space is the configured allow-list plus
// one bucket per anonymous client IP.
type limiterRegistry struct {
	mu       sync.Mutex
	perMin   int
	limiters map[string]*rate.Limiter
}

func newLimiterRegistry(perMinute int) *limiterRegistry {
	return &limiterRegistry{
		perMin:   perMinute,
		limiters: make(map[string]*rate.Limiter),
	}
}

// allow reports whether the client identified by key may proceed.
func (r *limiterRegistry) allow(key string) bool {
	r.mu.Lock()
	lim, ok := r.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(float64(r.perMin)/60.0), r.perMin)
		r.limiters[key] = lim
	}
	r.mu.Unlock()
	return lim.Allow()
}
