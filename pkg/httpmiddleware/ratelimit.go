package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig sets the request budget of each client.
type RateLimitConfig struct {
	// Max requests are allowed per sliding Window.
	Max    int
	Window time.Duration
	// Key identifies the client of a request. Defaults to ClientIP.
	Key func(*http.Request) string
}

// counter holds the counts of the current fixed window and the one before
// it. The sliding count weights prev by how much of it is still in range.
type counter struct {
	start      time.Time
	prev, curr float64
}

type limiter struct {
	max    float64
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	counters map[string]*counter
}

func newLimiter(cfg RateLimitConfig) *limiter {
	return &limiter{
		max:      float64(cfg.Max),
		window:   cfg.Window,
		now:      time.Now,
		counters: make(map[string]*counter),
	}
}

// take spends one request of key's budget if there is one left.
func (l *limiter) take(key string) (remaining int, reset time.Time, ok bool) {
	now := l.now()
	start := now.Truncate(l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	c, found := l.counters[key]
	switch {
	case !found:
		c = &counter{start: start}
		l.counters[key] = c
	case c.start.Equal(start):
	case c.start.Add(l.window).Equal(start):
		c.start, c.prev, c.curr = start, c.curr, 0
	default:
		c.start, c.prev, c.curr = start, 0, 0
	}

	weight := 1 - float64(now.Sub(start))/float64(l.window)
	used := c.prev*weight + c.curr
	reset = start.Add(l.window)
	if used+1 > l.max {
		return 0, reset, false
	}
	c.curr++
	return int(l.max - used - 1), reset, true
}

// evict forgets clients idle for two windows; their counts no longer matter.
func (l *limiter) evict() {
	cutoff := l.now().Add(-2 * l.window)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, c := range l.counters {
		if c.start.Before(cutoff) {
			delete(l.counters, key)
		}
	}
}

// RateLimit answers 429 once a client exceeds its budget. Every response
// carries the X-RateLimit-* headers. Idle clients are evicted in the
// background until ctx is done.
func RateLimit(ctx context.Context, cfg RateLimitConfig) Middleware {
	l := newLimiter(cfg)
	key := cfg.Key
	if key == nil {
		key = ClientIP
	}

	go func() {
		ticker := time.NewTicker(2 * cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.evict()
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, reset, ok := l.take(key(r))

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Max))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
			if !ok {
				wait := max(reset.Sub(l.now()), 0)
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				WriteError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionOrIP keys requests by the session of a valid bearer token, so
// shoppers behind one address get their own budgets. Requests with a
// missing or forged token share the budget of their address.
func SessionOrIP(verify func(ctx context.Context, token string) (sessionID string, err error)) func(*http.Request) string {
	return func(r *http.Request) string {
		if token := BearerToken(r); token != "" {
			if id, err := verify(r.Context(), token); err == nil {
				return "session:" + id
			}
		}
		return "ip:" + ClientIP(r)
	}
}

// BearerToken returns the token of an "Authorization: Bearer" header, or "".
func BearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) < len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// ClientIP is the first X-Forwarded-For hop, then X-Real-IP, then the peer
// address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
