package api

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientLimiter pairs a token bucket with its last access time so that idle
// entries can be evicted.
type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter enforces a per-client request rate, keyed by remote IP.
type RateLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*clientLimiter
}

// NewRateLimiter creates a RateLimiter allowing requestsPerMinute sustained
// requests per client, with a burst of the same size.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	return &RateLimiter{
		limit:    rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:    requestsPerMinute,
		limiters: make(map[string]*clientLimiter),
	}
}

// Middleware returns an HTTP middleware rejecting over-limit requests with
// 429 Too Many Requests.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientIP(r)

		if !rl.allow(client) {
			slog.Warn("rate limit exceeded", "client", client, "path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allow consumes one token for the client, creating its bucket on first
// sight and evicting buckets idle for over an hour.
func (rl *RateLimiter) allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, cl := range rl.limiters {
		if now.Sub(cl.lastAccess) > time.Hour {
			delete(rl.limiters, key)
		}
	}

	cl, ok := rl.limiters[client]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[client] = cl
	}
	cl.lastAccess = now

	return cl.limiter.Allow()
}

// clientIP extracts the client host from the request's remote address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
