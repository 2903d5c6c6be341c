package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context
type LogContext struct {
	TraceID   string    // OpenTelemetry trace ID
	SpanID    string    // OpenTelemetry span ID
	Method    string    // HTTP method token (GET, POST)
	Resource  string    // Raw resource from the request line
	ClientIP  string    // Client IP address (without port)
	ConnID    uint64    // Accept sequence number
	StartTime time.Time // For duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext with the given client IP
func NewLogContext(clientIP string) *LogContext {
	return &LogContext{
		ClientIP:  clientIP,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	out := *lc
	return &out
}

// WithRequest returns a copy with the request line tokens set
func (lc *LogContext) WithRequest(method, resource string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Method = method
		clone.Resource = resource
	}
	return clone
}

// WithConnID returns a copy with the accept sequence number set
func (lc *LogContext) WithConnID(id uint64) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.ConnID = id
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// ElapsedMs returns the duration since StartTime in milliseconds
func (lc *LogContext) ElapsedMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
