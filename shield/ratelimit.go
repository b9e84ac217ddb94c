package shield

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limit defines the rate limit for a single endpoint, keyed by
// "METHOD /path".
type Limit struct {
	MaxRequests int
	Window      time.Duration
}

// DefaultLimits returns the per-endpoint limits for the public chat API.
// Chat is the expensive path (embedding + model call); lead submission is
// tightened against form spam.
func DefaultLimits() map[string]Limit {
	return map[string]Limit{
		"POST /api/chat":  {MaxRequests: 30, Window: time.Minute},
		"POST /api/leads": {MaxRequests: 10, Window: time.Minute},
	}
}

type bucket struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
}

// RateLimiter provides per-IP, per-endpoint rate limiting with in-memory
// buckets. Endpoints without a configured limit pass through.
type RateLimiter struct {
	limits  map[string]Limit
	buckets sync.Map
}

// NewRateLimiter creates a limiter with the given per-endpoint limits.
func NewRateLimiter(limits map[string]Limit) *RateLimiter {
	return &RateLimiter{limits: limits}
}

// StartGC evicts expired buckets every interval until done is closed.
func (rl *RateLimiter) StartGC(done <-chan struct{}, interval time.Duration) {
	tick := time.NewTicker(interval)
	go func() {
		defer tick.Stop()
		for {
			select {
			case <-done:
				return
			case <-tick.C:
				rl.gc()
			}
		}
	}()
}

func (rl *RateLimiter) gc() {
	now := time.Now()
	rl.buckets.Range(func(key, value any) bool {
		b := value.(*bucket)
		b.mu.Lock()
		expired := now.After(b.resetAt)
		b.mu.Unlock()
		if expired {
			rl.buckets.Delete(key)
		}
		return true
	})
}

func (rl *RateLimiter) allow(ip, endpoint string) bool {
	cfg, ok := rl.limits[endpoint]
	if !ok {
		return true
	}

	key := ip + ":" + endpoint
	now := time.Now()

	val, _ := rl.buckets.LoadOrStore(key, &bucket{})
	b := val.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()
	if now.After(b.resetAt) {
		b.count = 0
		b.resetAt = now.Add(cfg.Window)
	}
	b.count++
	return b.count <= cfg.MaxRequests
}

// Middleware enforces the configured limits, answering 429 with a JSON
// body and a Retry-After hint.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := r.Method + " " + r.URL.Path
		ip := ExtractIP(r)

		if rl.allow(ip, endpoint) {
			next.ServeHTTP(w, r)
			return
		}

		slog.Warn("ratelimit: request blocked", "ip", ip, "endpoint", endpoint)
		w.Header().Set("Retry-After", "60")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
	})
}

// ExtractIP returns the client IP from X-Forwarded-For or RemoteAddr.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
