package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// response mirrors api.Response. Handlers carry their own copy so the
// handlers package does not import its parent.
type response struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"status":"error","error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

func healthyResponse(data any) response {
	return response{Status: "healthy", Timestamp: time.Now().UTC(), Data: data}
}

func unhealthyResponse(errMsg string) response {
	return response{Status: "unhealthy", Timestamp: time.Now().UTC(), Error: errMsg}
}

func okResponse(data any) response {
	return response{Status: "ok", Timestamp: time.Now().UTC(), Data: data}
}
