package logger

import (
	"log/slog"
	"time"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so transfers,
// evictions and classified errors aggregate under the same names.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Request & Wire
	// ========================================================================
	KeyMethod   = "method"   // HTTP method token: GET, POST
	KeyResource = "resource" // Raw resource from the request line
	KeyVersion  = "version"  // HTTP version token
	KeyStatus   = "status"   // Response status code sent on the wire
	KeyEtag     = "etag"     // Decimal etag derived from file mtime

	// ========================================================================
	// File Serving
	// ========================================================================
	KeyPath     = "path"     // Resolved filesystem path under the root
	KeySize     = "size"     // File size in bytes
	KeyPosition = "position" // Current transfer position
	KeyChunk    = "chunk"    // Chunk size for this transfer

	// ========================================================================
	// Connection
	// ========================================================================
	KeyConnID     = "conn_id"     // Accept sequence number for this connection
	KeyFd         = "fd"          // Socket file descriptor
	KeyRemote     = "remote"      // Remote address (ip:port)
	KeyClientIP   = "client_ip"   // Client IP address without port
	KeyState      = "state"       // Connection state: idle, receiving, sending
	KeyConns      = "connections" // Number of live connections
	KeyRequestID  = "request_id"  // Admin API request ID
	KeyInstanceID = "instance_id" // Server instance UUID

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyBytesSent  = "bytes_sent"  // Bytes written to the socket
	KeyBytesRead  = "bytes_read"  // Bytes read from the socket
	KeyError      = "error"       // Error message
	KeyErrorKind  = "error_kind"  // Taxonomy kind for classified errors
	KeyEvicted    = "evicted"     // Receive timeout evictions
	KeyAccepted   = "accepted"    // Connections accepted

	// ========================================================================
	// Configuration & Lifecycle
	// ========================================================================
	KeyAddress   = "address"   // Listen address
	KeyPort      = "port"      // Listen port
	KeyRoot      = "root"      // Serving root directory
	KeyComponent = "component" // Subsystem name: httpd, api, watcher
	KeySignal    = "signal"    // OS signal that triggered shutdown
)

// ============================================================================
// Field constructors for type safety
// These functions provide type-safe construction of slog.Attr values.
// ============================================================================

// ----------------------------------------------------------------------------
// Distributed Tracing
// ----------------------------------------------------------------------------

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// ----------------------------------------------------------------------------
// Request & Wire
// ----------------------------------------------------------------------------

// Method returns a slog.Attr for the HTTP method token
func Method(m string) slog.Attr {
	return slog.String(KeyMethod, m)
}

// Resource returns a slog.Attr for the raw resource from the request line
func Resource(r string) slog.Attr {
	return slog.String(KeyResource, r)
}

// Status returns a slog.Attr for the wire status code
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// Etag returns a slog.Attr for the decimal etag
func Etag(tag uint32) slog.Attr {
	return slog.Uint64(KeyEtag, uint64(tag))
}

// ----------------------------------------------------------------------------
// File Serving
// ----------------------------------------------------------------------------

// Path returns a slog.Attr for a resolved filesystem path
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Size returns a slog.Attr for a file size
func Size(s int64) slog.Attr {
	return slog.Int64(KeySize, s)
}

// Position returns a slog.Attr for the current transfer position
func Position(pos int64) slog.Attr {
	return slog.Int64(KeyPosition, pos)
}

// ----------------------------------------------------------------------------
// Connection
// ----------------------------------------------------------------------------

// ConnID returns a slog.Attr for the accept sequence number
func ConnID(id uint64) slog.Attr {
	return slog.Uint64(KeyConnID, id)
}

// Fd returns a slog.Attr for a socket file descriptor
func Fd(fd int) slog.Attr {
	return slog.Int(KeyFd, fd)
}

// Remote returns a slog.Attr for the remote address
func Remote(addr string) slog.Attr {
	return slog.String(KeyRemote, addr)
}

// ClientIP returns a slog.Attr for the client IP without port
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// State returns a slog.Attr for a connection state name
func State(s string) slog.Attr {
	return slog.String(KeyState, s)
}

// Conns returns a slog.Attr for the live connection count
func Conns(n int) slog.Attr {
	return slog.Int(KeyConns, n)
}

// ----------------------------------------------------------------------------
// Operation Metadata
// ----------------------------------------------------------------------------

// DurationMs returns a slog.Attr for operation duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Since returns a slog.Attr for the elapsed milliseconds since start
func Since(start time.Time) slog.Attr {
	return slog.Float64(KeyDurationMs, Duration(start))
}

// BytesSent returns a slog.Attr for bytes written to the socket
func BytesSent(n int64) slog.Attr {
	return slog.Int64(KeyBytesSent, n)
}

// BytesRead returns a slog.Attr for bytes read from the socket
func BytesRead(n int) slog.Attr {
	return slog.Int(KeyBytesRead, n)
}

// Err returns a slog.Attr for an error, handling nil gracefully
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// ErrorKind returns a slog.Attr for a taxonomy kind name
func ErrorKind(kind string) slog.Attr {
	return slog.String(KeyErrorKind, kind)
}

// ----------------------------------------------------------------------------
// Server
// ----------------------------------------------------------------------------

// Address returns a slog.Attr for a listen address
func Address(addr string) slog.Attr {
	return slog.String(KeyAddress, addr)
}

// Port returns a slog.Attr for a listen port
func Port(port int) slog.Attr {
	return slog.Int(KeyPort, port)
}

// Root returns a slog.Attr for the document root
func Root(root string) slog.Attr {
	return slog.String(KeyRoot, root)
}
