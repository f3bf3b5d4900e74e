package web

import (
	"context"
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/Olprog59/go-deliverables/internal/config"
	"github.com/Olprog59/go-deliverables/internal/metrics"
	"github.com/Olprog59/go-deliverables/internal/view"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	CSRFHeader      = "X-CSRF-Token"
	CSRFField       = "csrf_token"
	CSRFCookie      = "csrf_token"
)

// RequestID generates unique request ID / Génère un ID unique pour la requête
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), requestIDContextKey, requestID)
		w.Header().Set(RequestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID extracts request ID from context / Extrait l'ID de la requête du contexte
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDContextKey).(string); ok {
		return requestID
	}
	return ""
}

// Logging logs HTTP requests / Enregistre les requêtes HTTP
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		slog.Info("request",
			"request_id", GetRequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"remote", r.RemoteAddr,
			"duration", time.Since(start),
		)
	})
}

// MetricsMiddleware tracks HTTP request metrics / Suit les métriques des requêtes HTTP
func (m *Middleware) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		m.metrics.IncrementActiveConnections()
		defer m.metrics.DecrementActiveConnections()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		m.metrics.RecordHTTPRequest(r.Method, path, rw.statusCode)
		m.metrics.RecordHTTPDuration(r.Method, path, time.Since(start))
	})
}

// Timeout adds request timeout / Ajoute un timeout aux requêtes
func Timeout(duration time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, duration, `{"error":"request timeout"}`)
	}
}

// Middleware holds middleware configuration and dependencies / Contient la configuration middleware
type Middleware struct {
	conf           *config.Config
	globalLimiter  *RateLimiter
	writeLimiter   *RateLimiter
	trustedProxies []netip.Prefix
	metrics        *metrics.Metrics
	sessions       *view.SessionStore
}

// responseWriter wraps ResponseWriter to capture status / Encapsule ResponseWriter pour capturer le statut
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures status code / Capture le code de statut
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// NewMiddleware creates middleware with rate limiters / Crée le middleware avec limiteurs
func NewMiddleware(conf *config.Config, metrics *metrics.Metrics, sessions *view.SessionStore) *Middleware {
	mw := &Middleware{
		conf:           conf,
		trustedProxies: parseTrustedProxies(conf.Security.TrustedProxies),
		metrics:        metrics,
		sessions:       sessions,
	}

	if conf.RateLimiter.Enabled {
		mw.globalLimiter = NewRateLimiter(conf.RateLimiter.RPS, conf.RateLimiter.Burst)

		// Writes hit the remote backend: half the global budget
		writeBurst := conf.RateLimiter.Burst
		if writeBurst > 2 {
			writeBurst /= 2
		}
		mw.writeLimiter = NewRateLimiter(conf.RateLimiter.RPS/2, writeBurst)
	}

	return mw
}

// Close stops the rate limiters' cleanup goroutines.
func (m *Middleware) Close() {
	if m.globalLimiter != nil {
		m.globalLimiter.Stop()
	}
	if m.writeLimiter != nil {
		m.writeLimiter.Stop()
	}
}

// Session attaches the browser session, creating one when the cookie is
// missing or expired. The CSRF token is mirrored in a readable cookie for
// script clients (double submit).
// Session attache la session du navigateur et la crée si besoin.
func (m *Middleware) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if cookie, err := r.Cookie(m.conf.Session.CookieName); err == nil {
			id = cookie.Value
		}

		s, created := m.sessions.GetOrCreate(id)
		if created {
			slog.Debug("session created", "request_id", GetRequestID(r.Context()))
			m.setSessionCookies(w, s)
		}

		ctx := context.WithValue(r.Context(), SessionContextKey, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) setSessionCookies(w http.ResponseWriter, s *view.Session) {
	maxAge := int(m.conf.Session.IdleTimeout.Seconds())

	http.SetCookie(w, &http.Cookie{
		Name:     m.conf.Session.CookieName,
		Value:    s.ID,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.conf.Session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookie,
		Value:    s.CSRFToken,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: false, // Must be false so JavaScript can read it
		Secure:   m.conf.Session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Cors handles CORS headers / Gère les en-têtes CORS
func (m *Middleware) Cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		for _, allowed := range m.conf.Cors.AllowedOrigins {
			if allowed == "*" || allowed == origin {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				break
			}
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-CSRF-Token")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// SecurityHeaders adds security headers / Ajoute les en-têtes de sécurité
func (m *Middleware) SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The UI is server-rendered: inline styles only, no scripts
		cspValue := "default-src 'self'; frame-ancestors 'none'; object-src 'none'; script-src 'none'"
		if m.conf.IsProduction() {
			cspValue += "; style-src 'self'"
		} else {
			cspValue += "; style-src 'self' 'unsafe-inline'"
		}
		cspValue += "; img-src 'self' data:; form-action 'self'"
		w.Header().Set("Content-Security-Policy", cspValue)

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")

		// Strict Transport Security - Enforce HTTPS (only in production)
		if m.conf.IsProduction() {
			w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
		}

		next.ServeHTTP(w, r)
	})
}

// CSRF checks the session's token on state-changing requests. Forms send it
// in the csrf_token field, script clients in the X-CSRF-Token header.
// CSRF vérifie le token de la session sur les requêtes qui modifient l'état.
func (m *Middleware) CSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := SessionFromContext(r.Context())
		if !ok {
			slog.Error("CSRF middleware: no session in context - Session middleware not applied?")
			ErrorResponse(w, "Forbidden", http.StatusForbidden)
			return
		}

		token := r.Header.Get(CSRFHeader)
		if token == "" {
			token = r.PostFormValue(CSRFField)
		}

		if token == "" || token != s.CSRFToken {
			m.metrics.RecordCSRFFailure()
			slog.Warn("CSRF token mismatch", "request_id", GetRequestID(r.Context()), "token_len", len(token))
			ErrorResponse(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
