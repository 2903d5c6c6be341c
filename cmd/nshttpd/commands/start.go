package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/srdjan/ns-http-server/internal/logger"
	"github.com/srdjan/ns-http-server/internal/telemetry"
	"github.com/srdjan/ns-http-server/pkg/api"
	"github.com/srdjan/ns-http-server/pkg/api/handlers"
	"github.com/srdjan/ns-http-server/pkg/config"
	"github.com/srdjan/ns-http-server/pkg/httpd"
	"github.com/srdjan/ns-http-server/pkg/metrics"
	prommetrics "github.com/srdjan/ns-http-server/pkg/metrics/prometheus"
)

var (
	foreground bool
	pidFile    string
	logFile    string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the nshttpd server",
	Long: `Start the nshttpd server with the specified configuration.

By default, the server runs in the background (daemon mode). Use --foreground
to run in the foreground for debugging or when managed by a process supervisor.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/nshttpd/config.yaml.

Examples:
  # Start in background (default)
  nshttpd start

  # Start in foreground
  nshttpd start --foreground

  # Start with custom config file
  nshttpd start --config /etc/nshttpd/config.yaml

  # Start with environment variable overrides
  NSHTTPD_LOGGING_LEVEL=DEBUG nshttpd start --foreground`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "Run in foreground (default: background/daemon mode)")
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/nshttpd/nshttpd.pid)")
	startCmd.Flags().StringVar(&logFile, "log-file", "", "Path to log file for daemon mode (default: $XDG_STATE_HOME/nshttpd/nshttpd.log)")
}

func runStart(cmd *cobra.Command, args []string) error {
	// Handle daemon mode (background)
	if !foreground {
		return startDaemon()
	}

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	// Initialize the structured logger
	if err := InitLogger(cfg); err != nil {
		return err
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry (if enabled)
	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "nshttpd",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}()

	// Initialize Pyroscope profiling (if enabled)
	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "nshttpd",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.Err(err))
		}
	}()

	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint)
	}

	// Initialize metrics before creating the loop so it records from the
	// first accepted connection
	var httpMetrics metrics.HTTPMetrics
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		httpMetrics = prommetrics.NewHTTPMetrics()
		logger.Info("Metrics enabled", "endpoint", "/metrics on admin API")
	} else {
		logger.Info("Metrics collection disabled")
	}

	// The serving loop itself
	server := httpd.New(cfg.Server, httpMetrics)

	instance := handlers.Instance{
		ID:        uuid.NewString(),
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		StartedAt: time.Now(),
	}

	// Write PID file if specified
	if pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	// Start the serving loop in background
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Serve(ctx)
	}()

	// Admin API server (if enabled - defaults to true)
	apiDone := make(chan error, 1)
	if cfg.API.IsEnabled() {
		apiServer := api.NewServer(cfg.API, server, instance)
		go func() {
			apiDone <- apiServer.Start(ctx)
		}()
		logger.Info("Admin API enabled", logger.Port(cfg.API.Port))
	} else {
		logger.Info("Admin API disabled")
	}

	// Watch the config file for live-tunable settings
	if source := getConfigSource(GetConfigFile()); source != "defaults" {
		go func() {
			err := config.Watch(ctx, source, func(s config.LiveSettings) {
				server.SetChunkSize(s.ChunkSize)
				server.SetThrottleRate(s.ThrottleRate)
				logger.SetLevel(s.LogLevel)
			})
			if err != nil {
				logger.Warn("Config watcher stopped", logger.Err(err))
			}
		}()
	}

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		server.Shutdown()
		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error", logger.Err(err))
			return err
		}
		cancel()
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		cancel()
		if err != nil {
			logger.Error("Server error", logger.Err(err))
			return err
		}
		logger.Info("Server stopped")

	case err := <-apiDone:
		signal.Stop(sigChan)
		logger.Error("Admin API failed, shutting down", logger.Err(err))
		server.Shutdown()
		<-serverDone
		cancel()
		return err
	}

	return nil
}
