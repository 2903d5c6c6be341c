package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/srdjan/ns-http-server/pkg/api/auth"
	"github.com/srdjan/ns-http-server/pkg/api/handlers"
	"github.com/srdjan/ns-http-server/pkg/httpd"
)

type fakeLoop struct {
	snap *httpd.Snapshot
	port int
}

func (f *fakeLoop) Snapshot() *httpd.Snapshot { return f.snap }
func (f *fakeLoop) BoundPort() int            { return f.port }

func testInstance() handlers.Instance {
	return handlers.Instance{
		ID:        "router-test",
		Version:   "dev",
		StartedAt: time.Now(),
	}
}

func TestRouter_HealthRoutes(t *testing.T) {
	loop := &fakeLoop{snap: &httpd.Snapshot{Capacity: 64}, port: 8080}
	router := NewRouter(Config{}, loop, testInstance())

	for _, path := range []string{"/health", "/health/ready"} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("GET %s: expected status %d, got %d", path, http.StatusOK, w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("GET %s: expected JSON content type, got %q", path, ct)
		}
	}
}

func TestRouter_RootRedirectsToHealth(t *testing.T) {
	loop := &fakeLoop{snap: &httpd.Snapshot{}, port: 8080}
	router := NewRouter(Config{}, loop, testInstance())

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("Expected status %d, got %d", http.StatusTemporaryRedirect, w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/health" {
		t.Errorf("Expected redirect to /health, got %q", loc)
	}
}

func TestRouter_StatusOpenWithoutSecret(t *testing.T) {
	loop := &fakeLoop{snap: &httpd.Snapshot{Capacity: 64}, port: 8080}
	router := NewRouter(Config{}, loop, testInstance())

	req := httptest.NewRequest("GET", "/api/v1/status", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestRouter_StatusRequiresAuthWithSecret(t *testing.T) {
	secret := "router-test-secret-32-chars-long!!"
	loop := &fakeLoop{snap: &httpd.Snapshot{Capacity: 64}, port: 8080}
	router := NewRouter(Config{AuthSecret: secret}, loop, testInstance())

	// No token: rejected
	req := httptest.NewRequest("GET", "/api/v1/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d without token, got %d", http.StatusUnauthorized, w.Code)
	}

	// With a valid token: allowed
	token, err := auth.NewTokenService(secret).IssueToken("admin", time.Minute)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	req = httptest.NewRequest("GET", "/api/v1/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d with token, got %d", http.StatusOK, w.Code)
	}
}

func TestRouter_MetricsAbsentWhenDisabled(t *testing.T) {
	loop := &fakeLoop{snap: &httpd.Snapshot{}, port: 8080}
	router := NewRouter(Config{}, loop, testInstance())

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d when metrics are disabled, got %d", http.StatusNotFound, w.Code)
	}
}
