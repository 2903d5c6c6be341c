// Package api implements the nshttpd admin API: health probes, the
// Prometheus scrape endpoint, and a status view over the serving loop's
// published snapshots. It runs on its own goroutine and never touches
// loop-owned state.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/srdjan/ns-http-server/internal/logger"
	"github.com/srdjan/ns-http-server/pkg/api/handlers"
)

// Server provides the admin API HTTP server.
//
// Endpoints:
//   - GET /health: Liveness probe
//   - GET /health/ready: Readiness probe
//   - GET /metrics: Prometheus metrics (when enabled)
//   - GET /api/v1/status: Full server status
//
// The server supports graceful shutdown with a bounded timeout.
type Server struct {
	server       *http.Server
	config       Config
	shutdownOnce sync.Once
}

// NewServer creates a new admin API server.
//
// The server is created in a stopped state. Call Start() to begin serving
// requests.
//
// Defaults are applied here so the server works correctly even when
// created directly (e.g., in tests). This is idempotent with the defaults
// applied during config loading.
//
// Parameters:
//   - config: Server configuration (port, timeouts, auth secret)
//   - loop: The serving loop to report on (may be nil for basic health only)
//   - instance: Build and identity stamps for the status endpoint
func NewServer(config Config, loop handlers.LoopReporter, instance handlers.Instance) *Server {
	config.applyDefaults()

	router := NewRouter(config, loop, instance)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{
		server: server,
		config: config,
	}
}

// Start starts the admin API server and blocks until the context is
// cancelled or an error occurs.
//
// When the context is cancelled, Start initiates graceful shutdown and
// returns.
//
// Returns:
//   - nil on graceful shutdown
//   - error if the server fails to start or shutdown encounters an error
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("Admin API listening", logger.Port(s.config.Port))
		logger.Debug("Admin API endpoints available",
			"health", fmt.Sprintf("http://localhost:%d/health", s.config.Port),
			"ready", fmt.Sprintf("http://localhost:%d/health/ready", s.config.Port),
			"status", fmt.Sprintf("http://localhost:%d/api/v1/status", s.config.Port),
		)

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
				// Context was cancelled, error is not needed
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Admin API shutdown signal received")
		// A fresh context: the cancelled one would abort the graceful
		// shutdown immediately.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("admin API server failed: %w", err)
	}
}

// Stop initiates graceful shutdown of the admin API server.
//
// Stop is safe to call multiple times and safe to call concurrently with
// Start().
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("Admin API shutdown initiated")

		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("admin API shutdown error: %w", err)
			logger.Error("Admin API shutdown error", logger.Err(err))
		} else {
			logger.Info("Admin API stopped gracefully")
		}
	})
	return shutdownErr
}

// Port returns the TCP port the server is listening on.
func (s *Server) Port() int {
	return s.config.Port
}
