package httpd

import (
	"errors"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"

	"github.com/srdjan/ns-http-server/internal/logger"
	"github.com/srdjan/ns-http-server/internal/protocol"
	"github.com/srdjan/ns-http-server/pkg/arena"
)

// errorKind is the handling class of a failure seen by the loop. Every
// error path funnels into one of these kinds and from there into the
// taxonomy table, so the policy lives in exactly one place.
type errorKind int

const (
	// errPeer covers transport failures the client caused: reset, broken
	// pipe, timed out, aborted. Normal churn for a public server.
	errPeer errorKind = iota

	// errOverload covers allocation failures: arena budget exhausted,
	// kernel out of memory or socket buffers.
	errOverload

	// errMalformed covers request parse failures.
	errMalformed

	// errNotFound covers missing files and permission-denied opens.
	errNotFound

	// errNameTooLong covers resource paths the filesystem rejects outright.
	errNameTooLong

	// errFilesystem covers every other open/stat/read failure.
	errFilesystem

	// errUnexpected covers conditions that break a loop invariant, such as
	// EAGAIN on a socket the multiplexer reported ready. These abort the
	// process after a teardown attempt.
	errUnexpected
)

func (k errorKind) String() string {
	switch k {
	case errPeer:
		return "peer"
	case errOverload:
		return "overload"
	case errMalformed:
		return "malformed"
	case errNotFound:
		return "not_found"
	case errNameTooLong:
		return "name_too_long"
	case errFilesystem:
		return "filesystem"
	case errUnexpected:
		return "unexpected"
	default:
		return "unknown"
	}
}

// wireAction is what the loop does about a classified failure: the line it
// logs, the response it attempts when one can still go out, and whether the
// failure is fatal to the process.
type wireAction struct {
	level  logger.Level
	msg    string
	status int
	resp   []byte
	fatal  bool
}

// taxonomy maps every error kind to its handling.
var taxonomy = map[errorKind]wireAction{
	errPeer:        {level: logger.LevelDebug, msg: "Peer dropped connection"},
	errOverload:    {level: logger.LevelWarn, msg: "Load too high", status: protocol.StatusOverloaded, resp: protocol.RespOverloaded},
	errMalformed:   {level: logger.LevelDebug, msg: "Malformed request", status: protocol.StatusBadRequest, resp: protocol.RespBadRequest},
	errNotFound:    {level: logger.LevelDebug, msg: "File not found", status: protocol.StatusNotFound, resp: protocol.RespNotFound},
	errNameTooLong: {level: logger.LevelDebug, msg: "Resource name too long", status: protocol.StatusBadRequest, resp: protocol.RespBadRequest},
	errFilesystem:  {level: logger.LevelError, msg: "Filesystem error", status: protocol.StatusInternalError, resp: protocol.RespInternalError},
	errUnexpected:  {level: logger.LevelError, msg: "Invariant violated, aborting", fatal: true},
}

// classifyTransport classifies a send or receive errno. Anything outside
// the recognized peer and overload sets means the readiness contract or
// another assumption broke, which is fatal.
func classifyTransport(err error) errorKind {
	switch {
	case errors.Is(err, unix.ECONNRESET),
		errors.Is(err, unix.EPIPE),
		errors.Is(err, unix.ETIMEDOUT),
		errors.Is(err, unix.ECONNABORTED):
		return errPeer
	case errors.Is(err, unix.ENOMEM), errors.Is(err, unix.ENOBUFS):
		return errOverload
	default:
		return errUnexpected
	}
}

// classifyRequest classifies a failure while turning raw bytes into a
// routed request: parse errors and arena exhaustion.
func classifyRequest(err error) errorKind {
	var pe *protocol.ParseError
	switch {
	case errors.As(err, &pe):
		return errMalformed
	case errors.Is(err, arena.ErrExhausted):
		return errOverload
	default:
		return errUnexpected
	}
}

// classifyOpen classifies an open or stat failure on a resolved static
// path.
func classifyOpen(err error) errorKind {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return errNotFound
	case errors.Is(err, unix.ENAMETOOLONG):
		return errNameTooLong
	default:
		return errFilesystem
	}
}

// dispatchError applies the taxonomy to a classified failure on a live
// connection: log, best-effort response when the head has not gone out,
// teardown, and for fatal kinds a process abort.
func (s *Server) dispatchError(c *Conn, kind errorKind, err error) {
	act := taxonomy[kind]

	fields := []any{
		logger.ConnID(c.id),
		logger.Remote(c.remote),
		logger.ErrorKind(kind.String()),
		logger.Err(err),
	}
	switch act.level {
	case logger.LevelError:
		logger.Error(act.msg, fields...)
	case logger.LevelWarn:
		logger.Warn(act.msg, fields...)
	default:
		logger.Debug(act.msg, fields...)
	}

	if s.metrics != nil {
		s.metrics.RecordError(kind.String())
	}

	resp := act.resp
	if c.headersSent {
		resp = nil
	}
	s.finish(c, act.status, resp)

	if act.fatal {
		logger.Error("Shutting down on unrecoverable error", logger.Err(err))
		os.Exit(1)
	}
}
