// Package health holds the wire shapes of the admin API health endpoints,
// decoded by CLI commands that query a running server.
package health

// Response is the body of GET /health.
type Response struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Data      struct {
		Service   string `json:"service"`
		StartedAt string `json:"started_at"`
		Uptime    string `json:"uptime"`
		UptimeSec int64  `json:"uptime_sec"`
	} `json:"data"`
	Error string `json:"error,omitempty"`
}

// Healthy reports whether the response indicates a live server.
func (r *Response) Healthy() bool {
	return r.Status == "healthy"
}

// ReadyResponse is the body of GET /health/ready.
type ReadyResponse struct {
	Status string `json:"status"`
	Data   struct {
		Port        int `json:"port"`
		Connections int `json:"connections"`
		Capacity    int `json:"capacity"`
	} `json:"data"`
	Error string `json:"error,omitempty"`
}

// Ready reports whether the serving loop is accepting connections.
func (r *ReadyResponse) Ready() bool {
	return r.Status == "healthy"
}
