package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"hu-tracker/internal/config"
)

// Limiter decides whether one more request for key fits the window
type Limiter interface {
	Allow(key string, limit int, window time.Duration) bool
}

// RateLimiter limits requests per client IP. Without a shared Limiter the
// counts are kept in memory for this instance only.
type RateLimiter struct {
	enabled  bool
	requests int
	duration time.Duration
	limiter  Limiter
}

// NewRateLimiter creates a new rate limiter. shared may be nil.
func NewRateLimiter(cfg *config.RateLimitConfig, shared Limiter) *RateLimiter {
	rl := &RateLimiter{
		enabled:  cfg.Enabled,
		requests: cfg.Requests,
		duration: cfg.Duration,
		limiter:  shared,
	}
	if rl.limiter == nil {
		mem := newMemoryLimiter()
		if rl.enabled {
			go mem.cleanupVisitors(3 * rl.duration)
		}
		rl.limiter = mem
	}
	return rl
}

// Limit rate limits requests based on IP address
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.enabled || rl.limiter.Allow("ratelimit:"+getIP(r), rl.requests, rl.duration) {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Retry-After", retryAfter(rl.duration))
		respondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
	})
}

func retryAfter(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// memoryLimiter is a token bucket per key refilled once per window
type memoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

type visitor struct {
	lastSeen time.Time
	tokens   int
}

func newMemoryLimiter() *memoryLimiter {
	return &memoryLimiter{visitors: make(map[string]*visitor), now: time.Now}
}

func (m *memoryLimiter) Allow(key string, limit int, window time.Duration) bool {
	if limit <= 0 {
		return true
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	v, exists := m.visitors[key]
	if !exists || now.Sub(v.lastSeen) >= window {
		m.visitors[key] = &visitor{lastSeen: now, tokens: limit - 1}
		return true
	}
	if v.tokens > 0 {
		v.tokens--
		v.lastSeen = now
		return true
	}
	return false
}

// cleanupVisitors removes visitors idle for longer than idle
func (m *memoryLimiter) cleanupVisitors(idle time.Duration) {
	if idle < time.Minute {
		idle = time.Minute
	}
	for {
		time.Sleep(time.Minute)

		m.mu.Lock()
		for key, v := range m.visitors {
			if m.now().Sub(v.lastSeen) > idle {
				delete(m.visitors, key)
			}
		}
		m.mu.Unlock()
	}
}

// getIP returns the client address, preferring the first X-Forwarded-For hop
func getIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
