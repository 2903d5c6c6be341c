package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/srdjan/ns-http-server/pkg/httpd"
)

func TestStatus_NoLoop_Returns503(t *testing.T) {
	handler := NewStatusHandler(nil, Instance{ID: "test", StartedAt: time.Now()})
	req := httptest.NewRequest("GET", "/api/v1/status", nil)
	w := httptest.NewRecorder()

	handler.Status(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
}

func TestStatus_ReturnsLoopAndProcess(t *testing.T) {
	loop := &fakeLoop{
		snap: &httpd.Snapshot{
			Active:    2,
			Capacity:  64,
			Accepted:  10,
			Requests:  8,
			BytesSent: 4096,
			Conns: []httpd.ConnInfo{
				{ID: 7, State: "sending", Remote: "127.0.0.1:5000", Path: "/srv/index.html"},
			},
		},
		port: 8080,
	}
	instance := Instance{
		ID:        "0f6a2c1e-test",
		Version:   "1.2.3",
		Commit:    "abcdef0",
		Date:      "2026-01-01",
		StartedAt: time.Now().Add(-90 * time.Second),
	}
	handler := NewStatusHandler(loop, instance)

	req := httptest.NewRequest("GET", "/api/v1/status", nil)
	w := httptest.NewRecorder()

	handler.Status(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp struct {
		Status string         `json:"status"`
		Data   StatusResponse `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Status != "ok" {
		t.Errorf("Expected status 'ok', got '%s'", resp.Status)
	}
	if resp.Data.Instance.ID != "0f6a2c1e-test" {
		t.Errorf("Expected instance ID to round-trip, got '%s'", resp.Data.Instance.ID)
	}
	if resp.Data.Instance.Version != "1.2.3" {
		t.Errorf("Expected version '1.2.3', got '%s'", resp.Data.Instance.Version)
	}
	if resp.Data.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", resp.Data.Port)
	}
	if resp.Data.Loop == nil {
		t.Fatal("Expected loop snapshot in response")
	}
	if resp.Data.Loop.Active != 2 {
		t.Errorf("Expected 2 active connections, got %d", resp.Data.Loop.Active)
	}
	if len(resp.Data.Loop.Conns) != 1 || resp.Data.Loop.Conns[0].ID != 7 {
		t.Errorf("Expected connection 7 in snapshot, got %+v", resp.Data.Loop.Conns)
	}

	// Process stats come from our own PID, so they must be present
	if resp.Data.Process == nil {
		t.Fatal("Expected process stats in response")
	}
	if resp.Data.Process.PID != os.Getpid() {
		t.Errorf("Expected PID %d, got %d", os.Getpid(), resp.Data.Process.PID)
	}
}
