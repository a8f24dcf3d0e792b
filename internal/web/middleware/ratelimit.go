package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultCleanupInterval is how often idle client limiters are dropped.
const DefaultCleanupInterval = 5 * time.Minute

// clientLimiter pairs a token bucket with its last use.
type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter applies a per-client-IP token bucket. Run TrustedRealIP
// before it so RemoteAddr is the real client.
type RateLimiter struct {
	name      string
	perMinute int
	limit     rate.Limit
	cleanup   time.Duration

	mu      sync.Mutex
	clients map[string]*clientLimiter

	stopCh chan struct{}
	once   sync.Once
}

// NewRateLimiter allows perMinute requests per client per minute, with a
// burst of the same size. name labels log entries.
func NewRateLimiter(name string, perMinute int, cleanup time.Duration) *RateLimiter {
	if cleanup <= 0 {
		cleanup = DefaultCleanupInterval
	}
	if perMinute <= 0 {
		perMinute = 1
	}

	rl := &RateLimiter{
		name:      name,
		perMinute: perMinute,
		limit:     rate.Limit(float64(perMinute) / 60.0),
		cleanup:   cleanup,
		clients:   make(map[string]*clientLimiter),
		stopCh:    make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop ends the background cleanup.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stopCh) })
}

// Middleware rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		if !rl.get(ip).Allow() {
			slog.Warn("rate limit exceeded", "client_ip", ip, "limit", rl.name, "path", r.URL.Path)
			writeRateLimitResponse(w, rl.perMinute)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientCount returns the number of tracked clients.
func (rl *RateLimiter) ClientCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

func (rl *RateLimiter) get(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if cl, ok := rl.clients[ip]; ok {
		cl.lastAccess = time.Now()
		return cl.limiter
	}

	cl := &clientLimiter{
		limiter:    rate.NewLimiter(rl.limit, rl.perMinute),
		lastAccess: time.Now(),
	}
	rl.clients[ip] = cl
	return cl.limiter
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evict(time.Now().Add(-2 * rl.cleanup))
		case <-rl.stopCh:
			return
		}
	}
}

// evict drops clients not seen since cutoff.
func (rl *RateLimiter) evict(cutoff time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, cl := range rl.clients {
		if cl.lastAccess.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// writeRateLimitResponse writes 429 with Retry-After set to the seconds one
// token takes to refill.
func writeRateLimitResponse(w http.ResponseWriter, perMinute int) {
	retryAfter := (60 + perMinute - 1) / perMinute

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(map[string]string{
		"error":  "Too many requests",
		"code":   "RATE001",
		"action": "Please wait a moment before trying again",
	})
}
