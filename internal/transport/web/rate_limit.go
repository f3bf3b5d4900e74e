package web

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Rate limit scopes, also used as the metrics label / Portées du limiteur
const (
	scopeGlobal = "global"
	scopeWrites = "writes"
)

const (
	visitorIdleTTL  = 3 * time.Minute
	visitorSweepGap = time.Minute
)

// RateLimiter keeps one token bucket per client key. Keys idle for longer
// than visitorIdleTTL are forgotten by a background sweep.
// RateLimiter garde un seau de jetons par clé client.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int

	stop     chan struct{}
	stopOnce sync.Once
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter starts a limiter allowing rps requests per second per key,
// with bursts of up to burst. Stop must be called to end the sweep.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(rps),
		burst:    burst,
		stop:     make(chan struct{}),
	}
	go rl.sweep(visitorSweepGap, visitorIdleTTL)
	return rl
}

// Allow reports whether key may make one more request now.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = time.Now()
	rl.mu.Unlock()

	return v.limiter.Allow()
}

// Len returns the number of tracked keys.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// Stop ends the background sweep. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) sweep(every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.forgetIdle(time.Now().Add(-idle))
		case <-rl.stop:
			return
		}
	}
}

// forgetIdle drops the keys last seen before cutoff.
func (rl *RateLimiter) forgetIdle(cutoff time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, key)
		}
	}
}

// parseTrustedProxies turns security.trusted_proxies entries (single
// addresses or CIDR ranges) into prefixes. Invalid entries are skipped.
func parseTrustedProxies(entries []string) []netip.Prefix {
	var out []netip.Prefix
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if p, err := netip.ParsePrefix(e); err == nil {
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(e)
		if err != nil {
			slog.Warn("ignoring invalid trusted proxy", "entry", e)
			continue
		}
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out
}

func trusted(ip string, proxies []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// clientIP returns the requester address. Forwarding headers are read only
// when the direct peer is a trusted proxy; the first X-Forwarded-For entry
// wins over X-Real-IP.
func clientIP(r *http.Request, proxies []netip.Prefix) string {
	remote, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		remote = r.RemoteAddr
	}

	if !trusted(remote, proxies) {
		return remote
	}

	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(ip) != nil {
		return ip
	}
	return remote
}

// hashIP keeps raw addresses out of the limiter keys.
func hashIP(ip string) string {
	h := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(h[:])
}

// RateLimit applies the global per-IP limit to every request.
// RateLimit applique la limite globale par IP.
func (mw *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if mw.globalLimiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		if !mw.globalLimiter.Allow(hashIP(clientIP(r, mw.trustedProxies))) {
			mw.rejectRateLimited(w, r, scopeGlobal, "Too many requests. Please try again later.", 60)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimitWrites applies the stricter limit to requests that write to the
// record backend. Clients with a session are keyed by session, others by IP.
// RateLimitWrites applique la limite stricte aux requêtes qui écrivent.
func (mw *Middleware) RateLimitWrites(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if mw.writeLimiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := "ip_" + hashIP(clientIP(r, mw.trustedProxies))
		if s, ok := SessionFromContext(r.Context()); ok {
			key = "session_" + s.ID
		}

		if !mw.writeLimiter.Allow(key) {
			mw.rejectRateLimited(w, r, scopeWrites, "Too many changes. Please wait a moment.", 10)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rejectRateLimited answers 429. API clients get JSON, browsers plain text.
func (mw *Middleware) rejectRateLimited(w http.ResponseWriter, r *http.Request, scope, message string, retryAfter int) {
	mw.metrics.RecordRateLimitHit(scope)
	slog.Warn("rate limit exceeded", "scope", scope, "path", r.URL.Path, "request_id", GetRequestID(r.Context()))

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":               message,
			"retry_after_seconds": retryAfter,
		})
		return
	}
	http.Error(w, message, http.StatusTooManyRequests)
}
