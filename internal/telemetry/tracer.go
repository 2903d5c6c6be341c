package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute key constants for request spans. Keeping them here gives the
// trace backend one consistent vocabulary across the loop and the admin
// API.
const (
	AttrHTTPMethod   = "http.method"
	AttrHTTPResource = "http.resource"
	AttrHTTPStatus   = "http.status_code"
	AttrPeerAddr     = "net.peer"
	AttrFilePath     = "file.path"
	AttrFileSize     = "file.size"
	AttrBytesSent    = "net.bytes_sent"
	AttrConnID       = "conn.id"
)

// HTTPMethod returns the span attribute for the request method token.
func HTTPMethod(m string) attribute.KeyValue {
	return attribute.String(AttrHTTPMethod, m)
}

// HTTPResource returns the span attribute for the raw request resource.
func HTTPResource(r string) attribute.KeyValue {
	return attribute.String(AttrHTTPResource, r)
}

// HTTPStatus returns the span attribute for the wire status code.
func HTTPStatus(code int) attribute.KeyValue {
	return attribute.Int(AttrHTTPStatus, code)
}

// PeerAddr returns the span attribute for the remote address.
func PeerAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrPeerAddr, addr)
}

// FilePath returns the span attribute for the resolved file path.
func FilePath(path string) attribute.KeyValue {
	return attribute.String(AttrFilePath, path)
}

// FileSize returns the span attribute for the served file size.
func FileSize(size int64) attribute.KeyValue {
	return attribute.Int64(AttrFileSize, size)
}

// BytesSent returns the span attribute for bytes written to the socket.
func BytesSent(n int64) attribute.KeyValue {
	return attribute.Int64(AttrBytesSent, n)
}

// ConnID returns the span attribute for the accept sequence number.
func ConnID(id uint64) attribute.KeyValue {
	return attribute.Int64(AttrConnID, int64(id))
}

// StartRequestSpan starts a span covering one HTTP request, from parse to
// teardown.
func StartRequestSpan(ctx context.Context, method, resource, remote string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{
		HTTPMethod(method),
		HTTPResource(resource),
		PeerAddr(remote),
	}, attrs...)
	return Tracer().Start(ctx, "http.request", trace.WithAttributes(all...))
}
