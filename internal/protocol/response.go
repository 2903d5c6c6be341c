package protocol

import (
	"fmt"
	"strconv"
)

// Wire status codes the server emits. Nothing else ever goes out.
const (
	StatusOK               = 200
	StatusNotModified      = 304
	StatusBadRequest       = 400
	StatusNotFound         = 404
	StatusMethodNotAllowed = 405
	StatusInternalError    = 500
	StatusOverloaded       = 503
)

// terminal builds a complete close-delimited plain-text response.
func terminal(statusLine, body string) []byte {
	return fmt.Appendf(nil, "%s\r\nContent-type: text/plain\r\nContent-length: %d\r\n\r\n%s",
		statusLine, len(body), body)
}

// Fixed terminal responses. These are sent verbatim, best effort, right
// before teardown. The bodies are part of the wire contract.
var (
	RespBadRequest       = terminal("HTTP/1.1 400 Bad Request", "Bad request")
	RespNotFound         = terminal("HTTP/1.1 404 Not Found", "File not found")
	RespMethodNotAllowed = terminal("HTTP/1.1 405 Method Not Allowed", "Method not allowed")
	RespInternalError    = terminal("HTTP/1.1 500 Internal Server Error", "Internal Server Error")
	RespOverloaded       = terminal("HTTP/1.1 503 Service Unavailable", "Load too high")

	// RespNotModified carries no body; the client already holds the bytes.
	RespNotModified = []byte("HTTP/1.1 304 Not Modified\r\n\r\n")

	// RespExitAccepted answers an authorized shutdown request.
	RespExitAccepted = []byte("HTTP/1.1 200 OK\r\nContent-length: 0\r\n\r\n")
)

// AppendFileHead appends the response head for a successful file transfer.
// The head goes out exactly once, before any body byte; the body length is
// unannounced because the connection closes when the file is drained.
func AppendFileHead(dst []byte, etag uint32, contentType string) []byte {
	dst = append(dst, "HTTP/1.1 200 OK\r\nETag: "...)
	dst = strconv.AppendUint(dst, uint64(etag), 10)
	dst = append(dst, "\r\nContent-type: "...)
	dst = append(dst, contentType...)
	dst = append(dst, "\r\n\r\n"...)
	return dst
}

// AppendTextHead appends the response head for a sized plain-text body,
// used by the diagnostics report.
func AppendTextHead(dst []byte, contentLength int) []byte {
	dst = append(dst, "HTTP/1.1 200 OK\r\nContent-type: text/plain\r\nContent-length: "...)
	dst = strconv.AppendInt(dst, int64(contentLength), 10)
	dst = append(dst, "\r\n\r\n"...)
	return dst
}
