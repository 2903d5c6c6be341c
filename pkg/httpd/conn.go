package httpd

import (
	"os"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/srdjan/ns-http-server/internal/protocol"
	"github.com/srdjan/ns-http-server/pkg/arena"
)

// connState is the protocol state of one connection slot.
type connState uint8

const (
	// stateIdle marks a free slot. An idle slot holds no resources and
	// stepping it is a no-op.
	stateIdle connState = iota

	// stateReceiving means the socket is accepted and registered for read
	// readiness, waiting for the request to arrive in a single read.
	stateReceiving

	// stateSending means the request resolved to an open file that is being
	// drained one chunk per tick under write readiness.
	stateSending
)

func (s connState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateReceiving:
		return "receiving"
	case stateSending:
		return "sending"
	default:
		return "unknown"
	}
}

// Conn is one slot in the connection table. The zero value is an idle slot.
//
// A slot in stateReceiving owns its socket and its multiplexer registration.
// A slot in stateSending additionally owns an open file, an arena, and the
// parsed request whose memory the arena backs. Ownership ends only in
// teardown, which releases everything together; no other code closes or
// frees any of these.
type Conn struct {
	id     uint64
	fd     int
	remote string
	state  connState

	// startedAt is the accept timestamp. It drives receive-timeout eviction
	// and is the base for the request duration on every terminal path.
	startedAt time.Time

	// Populated on the Receiving -> Sending transition.
	req       *protocol.Request
	arena     *arena.Arena
	path      string
	file      *os.File
	fileSize  int64
	pos       int64
	etag      uint32
	sendStart time.Time

	// headersSent flips to true after the response head goes out and never
	// resets; no body byte is written before it and the head is never
	// written twice.
	headersSent bool

	// status is the code sent on the wire for this request, recorded for
	// the access log, metrics, and the request span.
	status int

	span trace.Span
}

// reset returns the slot to idle. Callers must have released the slot's
// resources first; reset itself only clears the value.
func (c *Conn) reset() {
	*c = Conn{}
}
