package api

import (
	"testing"
	"time"
)

func TestConfig_IsEnabled(t *testing.T) {
	var cfg Config
	if !cfg.IsEnabled() {
		t.Error("Expected API enabled by default")
	}

	disabled := false
	cfg.Enabled = &disabled
	if cfg.IsEnabled() {
		t.Error("Expected API disabled when explicitly set to false")
	}

	enabled := true
	cfg.Enabled = &enabled
	if !cfg.IsEnabled() {
		t.Error("Expected API enabled when explicitly set to true")
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.applyDefaults()

	if cfg.Port != 9090 {
		t.Errorf("Expected default port 9090, got %d", cfg.Port)
	}
	if cfg.ReadTimeout != 10*time.Second {
		t.Errorf("Expected default read timeout 10s, got %v", cfg.ReadTimeout)
	}
	if cfg.WriteTimeout != 10*time.Second {
		t.Errorf("Expected default write timeout 10s, got %v", cfg.WriteTimeout)
	}
	if cfg.IdleTimeout != 60*time.Second {
		t.Errorf("Expected default idle timeout 60s, got %v", cfg.IdleTimeout)
	}

	// Explicit values survive
	cfg = Config{Port: 8088, ReadTimeout: time.Second}
	cfg.applyDefaults()
	if cfg.Port != 8088 {
		t.Errorf("Expected explicit port to survive, got %d", cfg.Port)
	}
	if cfg.ReadTimeout != time.Second {
		t.Errorf("Expected explicit read timeout to survive, got %v", cfg.ReadTimeout)
	}
}
