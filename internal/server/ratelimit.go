package server

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/HerbHall/moodwatch/internal/auth"
)

// RateLimitPolicy configures per-client request limits. Requests matching
// AlertRoutes reach a paid SMS provider and a real person's phone, so they
// draw from a separate, much smaller bucket keyed by user.
type RateLimitPolicy struct {
	RPS   float64
	Burst int
	// AlertPerHour is the number of alert sends allowed per user per hour.
	AlertPerHour int
	// AlertRoutes are "METHOD /path" patterns matched exactly.
	AlertRoutes []string
	SkipPaths   []string
	// TrustProxy keys clients on the first X-Forwarded-For hop. Enable only
	// behind a proxy that overwrites the header.
	TrustProxy bool
}

// DefaultRateLimitPolicy is the policy the server uses.
func DefaultRateLimitPolicy() RateLimitPolicy {
	return RateLimitPolicy{
		RPS:          50,
		Burst:        100,
		AlertPerHour: 10,
		AlertRoutes: []string{
			"POST /api/v1/emergency/test",
			"POST /api/v1/emergency/trigger",
		},
		SkipPaths: unlimitedPaths,
	}
}

// RateLimitMiddleware enforces the general budget of p per client IP.
func RateLimitMiddleware(p RateLimitPolicy) Middleware {
	general := newLimiterSet(rate.Limit(p.RPS), p.Burst)
	skip := make(map[string]bool, len(p.SkipPaths))
	for _, path := range p.SkipPaths {
		skip[path] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			if ok, wait := general.allow(clientIP(r, p.TrustProxy)); !ok {
				w.Header().Set("Retry-After", retryAfter(wait))
				RateLimited(w, "rate limit exceeded", r.URL.Path)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AlertLimitMiddleware enforces the alert budget of p. It must run after
// authentication: buckets are keyed by user id so that changing address
// does not buy more alerts. Unauthenticated requests fall back to the
// client IP.
func AlertLimitMiddleware(p RateLimitPolicy) Middleware {
	if p.AlertPerHour <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	alerts := newLimiterSet(rate.Every(time.Hour/time.Duration(p.AlertPerHour)), p.AlertPerHour)
	alertRoute := make(map[string]bool, len(p.AlertRoutes))
	for _, route := range p.AlertRoutes {
		alertRoute[route] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !alertRoute[r.Method+" "+r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			key := "ip:" + clientIP(r, p.TrustProxy)
			if userID := auth.UserIDFromContext(r.Context()); userID != "" {
				key = "user:" + userID
			}
			if ok, wait := alerts.allow(key); !ok {
				w.Header().Set("Retry-After", retryAfter(wait))
				RateLimited(w, "too many alert requests, try again later", r.URL.Path)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// limiterSet tracks one token bucket per client.
type limiterSet struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// maxTrackedClients bounds memory before idle entries are evicted.
const maxTrackedClients = 10000

func newLimiterSet(limit rate.Limit, burst int) *limiterSet {
	return &limiterSet{
		entries: make(map[string]*limiterEntry),
		limit:   limit,
		burst:   burst,
		now:     time.Now,
	}
}

// allow consumes a token for key. When denied it also returns how long
// until the next token is available.
func (l *limiterSet) allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok {
		if len(l.entries) >= maxTrackedClients {
			l.evictIdle(now)
		}
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now

	res := e.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Hour
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// evictIdle drops buckets unused for an hour. Must be called with l.mu held.
func (l *limiterSet) evictIdle(now time.Time) {
	cutoff := now.Add(-time.Hour)
	for key, e := range l.entries {
		if e.lastSeen.Before(cutoff) {
			delete(l.entries, key)
		}
	}
}

func retryAfter(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// clientIP extracts the client IP. X-Forwarded-For is client-controlled and
// only read when trustProxy is set.
func clientIP(r *http.Request, trustProxy bool) string {
	if xff := r.Header.Get("X-Forwarded-For"); trustProxy && xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
