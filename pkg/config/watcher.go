package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/srdjan/ns-http-server/internal/bytesize"
	"github.com/srdjan/ns-http-server/internal/logger"
)

// LiveSettings is the subset of the configuration that can change while
// the server is running. Everything else requires a restart.
type LiveSettings struct {
	// ChunkSize is the per-tick transfer chunk size.
	ChunkSize bytesize.ByteSize

	// ThrottleRate is the global send ceiling in bytes per second.
	// Zero means unthrottled.
	ThrottleRate bytesize.ByteSize

	// LogLevel is the minimum log level (DEBUG, INFO, WARN, ERROR).
	LogLevel string
}

// liveSettingsFrom extracts the live-tunable subset from a full config.
func liveSettingsFrom(cfg *Config) LiveSettings {
	return LiveSettings{
		ChunkSize:    cfg.Server.ChunkSize,
		ThrottleRate: cfg.Server.ThrottleRate,
		LogLevel:     cfg.Logging.Level,
	}
}

// Watch watches the config file at path and calls apply with the
// live-tunable settings whenever the file changes and still parses. A
// malformed edit is logged and skipped; the last good settings stay in
// effect. Watch blocks until ctx is cancelled.
//
// Editors that write via rename (vim, sed -i) replace the watched inode,
// so the watch is placed on the parent directory and filtered by name.
func Watch(ctx context.Context, path string, apply func(LiveSettings)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch config directory %s: %w", dir, err)
	}

	logger.Info("Watching config file for live settings", logger.Path(path))

	last := LiveSettings{}
	if cfg, err := Load(path); err == nil {
		last = liveSettingsFrom(cfg)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			cfg, err := Load(path)
			if err != nil {
				logger.Warn("Ignoring config change: reload failed",
					logger.Path(path),
					logger.Err(err))
				continue
			}

			settings := liveSettingsFrom(cfg)
			if settings == last {
				continue
			}
			last = settings

			logger.Info("Applying live settings from config change",
				"chunk_size", settings.ChunkSize.String(),
				"throttle_rate", settings.ThrottleRate.String(),
				"log_level", settings.LogLevel)
			apply(settings)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Config watcher error", logger.Err(err))
		}
	}
}
