package web

import (
	"net/http"
	"time"

	"github.com/Olprog59/go-deliverables/internal/app"
	"github.com/Olprog59/go-deliverables/internal/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewMux creates and configures the HTTP router / Crée et configure le routeur HTTP
// The returned Middleware owns the rate limiters; Close it on shutdown.
func NewMux(h *Handler, conf *config.Config, container *app.Container) (http.Handler, *Middleware) {
	mux := http.NewServeMux()
	mw := NewMiddleware(conf, container.Metrics, container.Sessions)

	// Health check endpoints (no session, no rate limiting for load balancers)
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /readiness", h.ReadinessCheck)

	if conf.Metrics.Enabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	// Web UI
	mux.Handle("GET /{$}", chain(h.Index, mw.Session))
	mux.Handle("POST /ui/event", chain(h.UIEvent, mw.Session, mw.CSRF, mw.RateLimitWrites))

	// JSON API
	mux.Handle("GET /api/deliverables", chain(h.ListDeliverables, mw.Session))
	mux.Handle("GET /api/deliverables/{id}", chain(h.GetDeliverable, mw.Session))
	mux.Handle("POST /api/deliverables", chain(h.CreateDeliverable, mw.Session, mw.CSRF, mw.RateLimitWrites))
	mux.Handle("PUT /api/deliverables/{id}", chain(h.UpdateDeliverable, mw.Session, mw.CSRF, mw.RateLimitWrites))
	mux.Handle("DELETE /api/deliverables/{id}", chain(h.DeleteDeliverable, mw.Session, mw.CSRF, mw.RateLimitWrites))
	mux.Handle("POST /api/deliverables/refresh", chain(h.RefreshDeliverables, mw.Session, mw.CSRF, mw.RateLimitWrites))

	// Global middlewares - applied in reverse order / Middlewares globaux appliqués en ordre inverse
	var handler http.Handler = mux
	handler = mw.MetricsMiddleware(handler) // Metrics first to capture everything
	handler = mw.RateLimit(handler)
	handler = mw.SecurityHeaders(handler)
	handler = mw.Cors(handler)
	handler = Timeout(30 * time.Second)(handler)
	handler = Logging(handler)   // Logging includes request ID
	handler = RequestID(handler) // RequestID first - generates ID for all middleware

	return handler, mw
}

// chain applies middleware to HTTP handler / Applique les middlewares au gestionnaire HTTP
func chain(f http.HandlerFunc, middlewares ...func(http.Handler) http.Handler) http.Handler {
	var handler http.Handler = f

	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}

	return handler
}
