package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Fallbacks when rate limiting is left unset in config.
const (
	defaultRPS   = 5.0
	defaultBurst = 10
)

// limiterIdleTTL is how long an untouched caller entry survives before
// the next sweep drops it. Keeps one-off anonymous IPs from growing the
// pool without bound.
const limiterIdleTTL = 10 * time.Minute

// limiterPool hands out one token bucket per caller key: the user id for
// authenticated requests, the client ip for anonymous ones.
type limiterPool struct {
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	rps       rate.Limit
	burst     int
	lastSweep time.Time
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newLimiterPool(cfg SecConfig) *limiterPool {
	rps := cfg.RPS
	if rps <= 0 {
		rps = defaultRPS
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}
	return &limiterPool{
		entries:   make(map[string]*limiterEntry),
		rps:       rate.Limit(rps),
		burst:     burst,
		lastSweep: time.Now(),
	}
}

// Allow reports whether the caller identified by key is within its rate.
func (p *limiterPool) Allow(key string) bool {
	now := time.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	if now.Sub(p.lastSweep) > limiterIdleTTL {
		for k, e := range p.entries {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(p.entries, k)
			}
		}
		p.lastSweep = now
	}
	e, ok := p.entries[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(p.rps, p.burst)}
		p.entries[key] = e
	}
	e.lastSeen = now
	return e.lim.Allow()
}
