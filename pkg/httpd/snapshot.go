package httpd

import (
	"time"
)

// ConnInfo is a point-in-time view of one non-idle connection slot.
type ConnInfo struct {
	ID       uint64  `json:"id"`
	State    string  `json:"state"`
	Remote   string  `json:"remote"`
	Path     string  `json:"path,omitempty"`
	Position int64   `json:"position,omitempty"`
	Size     int64   `json:"size,omitempty"`
	AgeMs    float64 `json:"age_ms"`
}

// Snapshot is an immutable copy of the loop's observable state. The loop
// publishes one every tick; readers on other goroutines (admin API, CLI
// status) load the pointer and never see a slot mid-mutation.
type Snapshot struct {
	Time        time.Time  `json:"time"`
	StartTime   time.Time  `json:"start_time"`
	Draining    bool       `json:"draining"`
	Active      int        `json:"active"`
	Capacity    int        `json:"capacity"`
	Accepted    uint64     `json:"accepted"`
	Requests    uint64     `json:"requests"`
	Evicted     uint64     `json:"evicted"`
	Rejected    uint64     `json:"rejected"`
	ForceClosed uint64     `json:"force_closed"`
	BytesSent   uint64     `json:"bytes_sent"`
	Conns       []ConnInfo `json:"connections"`
}

// Snapshot returns the most recently published loop state. Before the
// first tick it returns an empty snapshot rather than nil.
func (s *Server) Snapshot() *Snapshot {
	if snap := s.snapshot.Load(); snap != nil {
		return snap
	}
	return &Snapshot{Capacity: s.cfg.MaxConnections, StartTime: s.startTime}
}

// publishSnapshot copies the observable loop state into a fresh snapshot
// and swaps it in for concurrent readers.
func (s *Server) publishSnapshot(now time.Time) {
	snap := &Snapshot{
		Time:        now,
		StartTime:   s.startTime,
		Draining:    s.draining,
		Active:      s.active,
		Capacity:    s.cfg.MaxConnections,
		Accepted:    s.accepted,
		Requests:    s.requests,
		Evicted:     s.evicted,
		Rejected:    s.rejected,
		ForceClosed: s.forceClosed,
		BytesSent:   s.bytesSent,
	}
	for i := range s.conns {
		c := &s.conns[i]
		if c.state == stateIdle {
			continue
		}
		info := ConnInfo{
			ID:     c.id,
			State:  c.state.String(),
			Remote: c.remote,
			AgeMs:  float64(now.Sub(c.startedAt).Microseconds()) / 1000.0,
		}
		if c.state == stateSending {
			info.Path = c.path
			info.Position = c.pos
			info.Size = c.fileSize
		}
		snap.Conns = append(snap.Conns, info)
	}
	s.snapshot.Store(snap)
}
