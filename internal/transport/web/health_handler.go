package web

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HealthResponse represents the response structure for health check endpoints.
type HealthResponse struct {
	Status    string            `json:"status"`           // "ok" or "error"
	Timestamp time.Time         `json:"timestamp"`        // Current server time
	Checks    map[string]string `json:"checks,omitempty"` // Individual component health
	Backend   string            `json:"backend,omitempty"`
	Uptime    string            `json:"uptime,omitempty"`
}

var startTime = time.Now()

// HealthCheck handles /health. It always answers 200 while the process runs
// and does not touch the record backend; use /readiness for that.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Uptime:    formatUptime(time.Since(startTime)),
	}

	writeJSON(w, http.StatusOK, response)
}

// ReadinessCheck handles /readiness: 200 when the record backend answers, 503 otherwise.
// ReadinessCheck vérifie que le backend répond.
func (h *Handler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"backend": h.checkBackend(r.Context()),
	}

	status, httpStatus := "ok", http.StatusOK
	if checks["backend"] != "ok" {
		status, httpStatus = "error", http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
		Backend:   h.container.Config.BackendName(),
	})
}

// checkBackend pings the record backend with a short deadline.
func (h *Handler) checkBackend(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := h.container.Ping(ctx); err != nil {
		slog.Warn("readiness check failed", "request_id", GetRequestID(ctx), "err", err)
		return "error"
	}
	return "ok"
}

// formatUptime renders a duration with its three most significant units.
// Examples: "2h 15m 30s", "1d 5h 23m", "45s".
func formatUptime(d time.Duration) string {
	total := int(d.Seconds())
	units := []struct {
		value  int
		suffix string
	}{
		{total / 86400, "d"},
		{total / 3600 % 24, "h"},
		{total / 60 % 60, "m"},
		{total % 60, "s"},
	}

	// Skip leading zero units, keep at most three
	first := 0
	for first < len(units)-1 && units[first].value == 0 {
		first++
	}
	last := min(first+3, len(units))

	parts := make([]string, 0, 3)
	for _, u := range units[first:last] {
		if u.value > 0 {
			parts = append(parts, strconv.Itoa(u.value)+u.suffix)
		}
	}
	if len(parts) == 0 {
		return "0s"
	}
	return strings.Join(parts, " ")
}
