package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/srdjan/ns-http-server/internal/logger"
	"github.com/srdjan/ns-http-server/pkg/api/auth"
	"github.com/srdjan/ns-http-server/pkg/api/handlers"
	mw "github.com/srdjan/ns-http-server/pkg/api/middleware"
	"github.com/srdjan/ns-http-server/pkg/metrics"
)

// NewRouter creates and configures the chi router with all middleware and
// routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe
//   - GET /metrics - Prometheus metrics (when metrics are enabled)
//   - GET /api/v1/status - Full server status (bearer auth when configured)
func NewRouter(cfg Config, loop handlers.LoopReporter, instance handlers.Instance) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	healthHandler := handlers.NewHealthHandler(loop, instance.StartedAt)
	statusHandler := handlers.NewStatusHandler(loop, instance)

	// Health routes - unauthenticated
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	// Prometheus scrape endpoint, only when the registry exists
	if metrics.IsEnabled() {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(
			metrics.GetRegistry(),
			promhttp.HandlerOpts{},
		))
	}

	// Versioned API, optionally behind bearer auth
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.AuthSecret != "" {
			tokens := auth.NewTokenService(cfg.AuthSecret)
			r.Use(mw.BearerAuth(tokens))
		}
		r.Get("/status", statusHandler.Status)
	})

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}

// requestLogger is a custom middleware that logs requests using the
// internal logger.
//
// It logs:
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := chimw.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			logger.Method(r.Method),
			"path", r.URL.Path,
			logger.Remote(r.RemoteAddr),
		)

		// Wrap response writer to capture status code
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.Info("API request completed",
			"request_id", requestID,
			logger.Method(r.Method),
			"path", r.URL.Path,
			logger.Status(ww.Status()),
			logger.BytesSent(int64(ww.BytesWritten())),
			logger.Since(start),
		)
	})
}
