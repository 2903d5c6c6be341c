// Package handlers implements the admin API endpoints.
package handlers

import (
	"net/http"
	"time"

	"github.com/srdjan/ns-http-server/pkg/httpd"
)

// LoopReporter is the view of the serving loop the admin API reads from.
// It is satisfied by *httpd.Server; everything it returns is an immutable
// published snapshot, so reading it never touches loop-owned state.
type LoopReporter interface {
	// Snapshot returns the most recently published loop state.
	Snapshot() *httpd.Snapshot

	// BoundPort returns the serving port, or 0 before the listener is up.
	BoundPort() int
}

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: Is the process running?
//   - Readiness probe: Is the serving loop accepting connections?
type HealthHandler struct {
	loop      LoopReporter
	startedAt time.Time
}

// NewHealthHandler creates a new health handler.
//
// The loop parameter may be nil, in which case readiness reports
// unhealthy.
func NewHealthHandler(loop LoopReporter, startedAt time.Time) *HealthHandler {
	return &HealthHandler{loop: loop, startedAt: startedAt}
}

// Liveness handles GET /health - simple liveness probe.
//
// Returns 200 OK as long as the process is running and the admin API is
// responsive. Designed for Kubernetes liveness probes.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startedAt)
	writeJSON(w, http.StatusOK, healthyResponse(map[string]any{
		"service":    "nshttpd",
		"started_at": h.startedAt.UTC().Format(time.RFC3339),
		"uptime":     uptime.Round(time.Second).String(),
		"uptime_sec": int64(uptime.Seconds()),
	}))
}

// Readiness handles GET /health/ready - readiness probe.
//
// Returns 200 OK when the serving loop has bound its listener and is not
// draining; 503 Service Unavailable otherwise.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.loop == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("serving loop not running"))
		return
	}

	if h.loop.BoundPort() == 0 {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("listener not bound"))
		return
	}

	snap := h.loop.Snapshot()
	if snap.Draining {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("draining before shutdown"))
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(map[string]any{
		"port":        h.loop.BoundPort(),
		"connections": snap.Active,
		"capacity":    snap.Capacity,
	}))
}
