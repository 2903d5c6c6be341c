package metrics

import (
	"time"
)

// HTTPMetrics provides observability for the HTTP server loop.
//
// Implementations can collect metrics about connection lifecycle, request
// outcomes, throughput, and error classes. This interface is optional - pass
// nil to disable metrics collection with zero overhead.
//
// Example usage:
//
//	// With metrics enabled
//	m := prometheus.NewHTTPMetrics()
//	srv := httpd.New(cfg, m)
//
//	// Without metrics (pass nil for zero overhead)
//	srv := httpd.New(cfg, nil)
//
// All methods are called from the single event-loop goroutine, so
// implementations do not need to be re-entrant, but the Prometheus
// implementation is safe for concurrent use anyway.
type HTTPMetrics interface {
	// RecordConnectionAccepted increments the total accepted connections counter.
	RecordConnectionAccepted()

	// RecordConnectionRejected increments the rejected connections counter.
	// Called when a connection is accepted and immediately closed because
	// every slot in the connection table is busy.
	RecordConnectionRejected()

	// RecordConnectionEvicted increments the evicted connections counter.
	// Called when a connection is torn down for exceeding the receive timeout
	// without delivering a request.
	RecordConnectionEvicted()

	// RecordConnectionClosed increments the total closed connections counter.
	// Every accepted connection is eventually recorded here exactly once,
	// whatever path ended it.
	RecordConnectionClosed()

	// SetActiveConnections updates the current non-idle connection count.
	//
	// Parameters:
	//   - count: Current number of slots in Receiving or Sending state
	SetActiveConnections(count int32)

	// RecordRequest records a completed request with its method, the status
	// code that went out on the wire, and the time from accept to terminal
	// response.
	//
	// Parameters:
	//   - method: HTTP method token (e.g., "GET", "POST")
	//   - status: Response status code (e.g., 200, 404)
	//   - duration: Time from accept to the terminal response
	RecordRequest(method string, status int, duration time.Duration)

	// RecordBytesSent records payload bytes written to a client socket.
	//
	// Parameters:
	//   - bytes: Number of bytes written, headers included
	RecordBytesSent(bytes uint64)

	// RecordTransfer records a fully drained file transfer.
	//
	// Parameters:
	//   - bytes: Total file bytes sent
	//   - duration: Time from entering the Sending state to the final chunk
	RecordTransfer(bytes uint64, duration time.Duration)

	// RecordError records a handled error by taxonomy kind.
	//
	// Parameters:
	//   - kind: Error class label (e.g., "peer", "overload", "malformed")
	RecordError(kind string)
}
