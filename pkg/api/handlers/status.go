package handlers

import (
	"net/http"
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/srdjan/ns-http-server/internal/logger"
	"github.com/srdjan/ns-http-server/pkg/httpd"
)

// Instance identifies one running nshttpd process.
type Instance struct {
	// ID is the per-process UUID assigned at startup.
	ID string `json:"id"`

	// Version, Commit and Date are the build stamps injected via ldflags.
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`

	// StartedAt is when the process came up.
	StartedAt time.Time `json:"started_at"`
}

// ProcessStats are point-in-time OS-level stats for the server process.
type ProcessStats struct {
	PID        int     `json:"pid"`
	RSSBytes   uint64  `json:"rss_bytes"`
	CPUPercent float64 `json:"cpu_percent"`
	OpenFds    int32   `json:"open_fds"`
}

// StatusHandler serves the full server status: instance identity, loop
// snapshot, and process stats.
type StatusHandler struct {
	loop     LoopReporter
	instance Instance
	proc     *process.Process
}

// NewStatusHandler creates a status handler for the given loop and
// instance identity.
func NewStatusHandler(loop LoopReporter, instance Instance) *StatusHandler {
	// Process handle creation only fails for a PID that does not exist;
	// our own PID always does, but stay nil-safe anyway.
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		logger.Warn("Failed to open process stats handle", logger.Err(err))
		proc = nil
	}
	return &StatusHandler{loop: loop, instance: instance, proc: proc}
}

// StatusResponse is the payload of GET /api/v1/status.
type StatusResponse struct {
	Instance Instance        `json:"instance"`
	Uptime   string          `json:"uptime"`
	Port     int             `json:"port"`
	Loop     *httpd.Snapshot `json:"loop"`
	Process  *ProcessStats   `json:"process,omitempty"`
}

// Status handles GET /api/v1/status.
//
// The loop state comes from the snapshot the event loop publishes each
// tick; this handler never blocks on or synchronizes with the loop.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	if h.loop == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("serving loop not running"))
		return
	}

	resp := StatusResponse{
		Instance: h.instance,
		Uptime:   time.Since(h.instance.StartedAt).Round(time.Second).String(),
		Port:     h.loop.BoundPort(),
		Loop:     h.loop.Snapshot(),
		Process:  h.processStats(),
	}

	writeJSON(w, http.StatusOK, okResponse(resp))
}

// processStats collects OS-level stats for the current process.
// Any individual probe failure degrades to a zero value rather than
// failing the whole status response.
func (h *StatusHandler) processStats() *ProcessStats {
	if h.proc == nil {
		return nil
	}

	stats := &ProcessStats{PID: os.Getpid()}

	if mem, err := h.proc.MemoryInfo(); err == nil && mem != nil {
		stats.RSSBytes = mem.RSS
	}
	if cpu, err := h.proc.CPUPercent(); err == nil {
		stats.CPUPercent = cpu
	}
	if fds, err := h.proc.NumFDs(); err == nil {
		stats.OpenFds = fds
	}

	return stats
}
