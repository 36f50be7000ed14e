package middleware

import (
	"net/http"
	"strconv"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimitMiddleware provides per-client rate limiting. Limiters are
// kept in memory keyed by client IP; a fill pass drives a headless
// browser, so the request volume this protects against is small and a
// distributed limiter would be overkill.
type RateLimitMiddleware struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rpm      int
	burst    int
	enabled  bool
}

// NewRateLimitMiddleware creates a new rate limit middleware
func NewRateLimitMiddleware(rpm, burst int, enabled bool) *RateLimitMiddleware {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitMiddleware{
		limiters: make(map[string]*rate.Limiter),
		rpm:      rpm,
		burst:    burst,
		enabled:  enabled,
	}
}

// Handler returns the middleware handler
func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip if rate limiting is disabled
		if !m.enabled || m.rpm <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		// Skip for health checks
		if r.URL.Path == "/health" || r.URL.Path == "/ready" {
			next.ServeHTTP(w, r)
			return
		}

		limiter := m.limiterFor(m.getRateLimitKey(r))

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.rpm))

		if !limiter.Allow() {
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// limiterFor returns the limiter for a key, creating it on first use
func (m *RateLimitMiddleware) limiterFor(key string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l, ok := m.limiters[key]; ok {
		return l
	}

	l := rate.NewLimiter(rate.Limit(float64(m.rpm)/60.0), m.burst)
	m.limiters[key] = l
	return l
}

// getRateLimitKey determines the key for rate limiting
func (m *RateLimitMiddleware) getRateLimitKey(r *http.Request) string {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = r.Header.Get("X-Real-IP")
	}
	if ip == "" {
		ip = r.RemoteAddr
	}

	return "ip:" + ip
}
