package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/srdjan/ns-http-server/pkg/api/auth"
)

func TestGetClaimsFromContext(t *testing.T) {
	t.Run("no claims in context", func(t *testing.T) {
		ctx := context.Background()
		claims := GetClaimsFromContext(ctx)
		if claims != nil {
			t.Error("expected nil claims for empty context")
		}
	})

	t.Run("claims present in context", func(t *testing.T) {
		expected := &auth.Claims{}
		expected.Subject = "admin"
		ctx := context.WithValue(context.Background(), claimsContextKey, expected)
		claims := GetClaimsFromContext(ctx)
		if claims == nil {
			t.Fatal("expected claims to be present")
		}
		if claims.Subject != "admin" {
			t.Errorf("expected subject 'admin', got %q", claims.Subject)
		}
	})

	t.Run("wrong type in context", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), claimsContextKey, "not-claims")
		claims := GetClaimsFromContext(ctx)
		if claims != nil {
			t.Error("expected nil claims for wrong type")
		}
	})
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantToken string
		wantOK    bool
	}{
		{name: "valid bearer", header: "Bearer abc123", wantToken: "abc123", wantOK: true},
		{name: "lowercase scheme", header: "bearer abc123", wantToken: "abc123", wantOK: true},
		{name: "missing header", header: "", wantOK: false},
		{name: "wrong scheme", header: "Basic abc123", wantOK: false},
		{name: "no token", header: "Bearer", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			token, ok := extractBearerToken(req)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if ok && token != tt.wantToken {
				t.Errorf("expected token %q, got %q", tt.wantToken, token)
			}
		})
	}
}

func TestBearerAuth(t *testing.T) {
	tokens := auth.NewTokenService("test-secret-key-that-is-long-enough")
	mw := BearerAuth(tokens)

	var gotClaims *auth.Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims = GetClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	t.Run("valid token passes with claims", func(t *testing.T) {
		gotClaims = nil
		token, err := tokens.IssueToken("admin", time.Minute)
		if err != nil {
			t.Fatalf("failed to issue token: %v", err)
		}

		req := httptest.NewRequest("GET", "/api/v1/status", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		mw(next).ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
		}
		if gotClaims == nil || gotClaims.Subject != "admin" {
			t.Errorf("expected claims for subject 'admin', got %+v", gotClaims)
		}
	})

	t.Run("missing header rejected", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/status", nil)
		w := httptest.NewRecorder()

		mw(next).ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
		}
	})

	t.Run("invalid token rejected", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/status", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		w := httptest.NewRecorder()

		mw(next).ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
		}
	})
}
