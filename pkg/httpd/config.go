package httpd

import (
	"fmt"
	"net"
	"time"

	"github.com/srdjan/ns-http-server/internal/bytesize"
)

// Config holds the HTTP server configuration.
//
// All fields have sensible defaults applied by New, so a zero Config with
// only Root set is a working server. Validation happens in New, which
// panics on an invalid configuration; config-file validation errors are
// caught earlier, with friendlier messages, by the config package.
type Config struct {
	// Address is the IP address the listener binds to.
	// Default: "0.0.0.0" (all interfaces)
	Address string `json:"address" mapstructure:"address" yaml:"address"`

	// Port is the TCP port to listen on. Port 0 binds an ephemeral port;
	// BoundPort reports the actual port once the listener is up. The
	// shipped configuration defaults this to 8080.
	Port int `json:"port" mapstructure:"port" validate:"gte=0,lte=65535" yaml:"port"`

	// Root is the directory static files are served from. Every request
	// path resolves inside this directory; requests that escape it are
	// answered 404.
	// Default: "./public"
	Root string `json:"root" mapstructure:"root" validate:"required" yaml:"root"`

	// MaxConnections is the capacity of the connection table and therefore
	// the number of simultaneously tracked sockets. Connections accepted
	// while the table is full are closed immediately.
	// Default: 64
	MaxConnections int `json:"max_connections" mapstructure:"max_connections" validate:"gt=0" yaml:"max_connections"`

	// ChunkSize is the number of file bytes sent per connection per tick
	// while draining a transfer. Larger chunks raise throughput per
	// connection, smaller chunks keep the loop fairer under load. This
	// setting is live-reloadable.
	// Default: 64KiB
	ChunkSize bytesize.ByteSize `json:"chunk_size" mapstructure:"chunk_size" yaml:"chunk_size"`

	// ShutdownSecret gates POST /exit. A request whose decimal body equals
	// this value stops the server gracefully. Zero disables the endpoint;
	// every exit request is then answered 400.
	// Default: 0 (disabled)
	ShutdownSecret uint64 `json:"shutdown_secret" mapstructure:"shutdown_secret" yaml:"shutdown_secret"`

	// TickInterval is the multiplexer wait ceiling and therefore the worst
	// case latency for noticing a new readiness edge, a timeout, or a
	// shutdown signal. The loop wakes earlier whenever a socket is ready.
	// Default: 50ms
	TickInterval time.Duration `json:"tick_interval" mapstructure:"tick_interval" yaml:"tick_interval"`

	// ShutdownGrace is how long in-flight connections may keep draining
	// after shutdown begins before the loop force-closes them.
	// Default: 10s
	ShutdownGrace time.Duration `json:"shutdown_grace" mapstructure:"shutdown_grace" yaml:"shutdown_grace"`

	// ThrottleRate is a global ceiling on payload bytes sent per second,
	// shared by all connections. Zero means unthrottled. This setting is
	// live-reloadable.
	// Default: 0 (unthrottled)
	ThrottleRate bytesize.ByteSize `json:"throttle_rate" mapstructure:"throttle_rate" yaml:"throttle_rate"`

	// MetricsInterval is how often the loop logs a one-line throughput
	// summary. Zero disables the summary.
	// Default: 1m
	MetricsInterval time.Duration `json:"metrics_interval" mapstructure:"metrics_interval" yaml:"metrics_interval"`
}

// applyDefaults fills in default values for unset fields.
func (c *Config) applyDefaults() {
	if c.Address == "" {
		c.Address = "0.0.0.0"
	}
	if c.Root == "" {
		c.Root = "./public"
	}
	if c.MaxConnections == 0 {
		c.MaxConnections = 64
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = 64 * bytesize.KiB
	}
	if c.TickInterval == 0 {
		c.TickInterval = 50 * time.Millisecond
	}
	if c.ShutdownGrace == 0 {
		c.ShutdownGrace = 10 * time.Second
	}
	if c.MetricsInterval == 0 {
		c.MetricsInterval = time.Minute
	}
}

// validate checks the configuration for errors.
func (c *Config) validate() error {
	if net.ParseIP(c.Address) == nil {
		return fmt.Errorf("address %q is not a valid IP address", c.Address)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port must be 0-65535, got %d", c.Port)
	}
	if c.Root == "" {
		return fmt.Errorf("root directory is required")
	}
	if c.MaxConnections <= 0 {
		return fmt.Errorf("max_connections must be positive, got %d", c.MaxConnections)
	}
	if c.ChunkSize == 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	}
	if c.ShutdownGrace < 0 {
		return fmt.Errorf("shutdown_grace must not be negative, got %s", c.ShutdownGrace)
	}
	return nil
}
