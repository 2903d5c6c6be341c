package httpd

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/srdjan/ns-http-server/internal/logger"
	"github.com/srdjan/ns-http-server/internal/protocol"
	"github.com/srdjan/ns-http-server/internal/telemetry"
	"github.com/srdjan/ns-http-server/pkg/arena"

	"golang.org/x/sys/unix"
)

const (
	// receiveTimeout bounds how long an accepted socket may sit without
	// delivering a request before it is evicted.
	receiveTimeout = 30 * time.Second

	// receiveBufSize is the size of the single read a request must fit in.
	receiveBufSize = 2056
)

// stepReceiving advances a connection waiting for its request.
//
// The request must arrive within one read: reads are not accumulated
// across ticks, so a request split across two reads fails to parse. This
// mirrors the non-buffering receive path the protocol package documents
// and keeps per-connection state to a single fixed-size read.
func (s *Server) stepReceiving(c *Conn, now time.Time) {
	// Timeout is checked before readiness so a slow client is evicted on
	// the next tick even if its socket never becomes readable.
	if now.Sub(c.startedAt) > receiveTimeout {
		logger.Info("Receive timeout, evicting connection",
			logger.ConnID(c.id),
			logger.Remote(c.remote),
			logger.Since(c.startedAt))
		s.evicted++
		if s.metrics != nil {
			s.metrics.RecordConnectionEvicted()
		}
		s.finish(c, 0, nil)
		return
	}

	if !s.poller.Readable(c.fd) {
		return
	}

	buf := s.pool.Get(receiveBufSize)
	defer s.pool.Put(buf)

	n, err := unix.Read(c.fd, buf)
	if err != nil {
		kind := classifyTransport(err)
		logger.Debug("Receive failed",
			logger.ConnID(c.id),
			logger.Remote(c.remote),
			logger.ErrorKind(kind.String()),
			logger.Err(err))
		if s.metrics != nil {
			s.metrics.RecordError(kind.String())
		}
		s.finish(c, 0, nil)
		return
	}
	if n == 0 {
		logger.Debug("Peer closed before sending a request",
			logger.ConnID(c.id),
			logger.Remote(c.remote))
		s.finish(c, 0, nil)
		return
	}

	// Fresh arena per request. It owns every byte of the parsed request
	// and is released in teardown with the rest of the connection.
	c.arena = arena.NewWithPool(s.pool, arena.DefaultBudget)

	req, err := protocol.Parse(buf[:n], c.arena)
	if err != nil {
		s.dispatchError(c, classifyRequest(err), err)
		return
	}
	c.req = req

	_, c.span = telemetry.StartRequestSpan(s.baseCtx,
		string(req.Method), string(req.Resource), c.remote,
		telemetry.ConnID(c.id))

	logger.Debug("Request received",
		logger.ConnID(c.id),
		logger.Method(string(req.Method)),
		logger.Resource(string(req.Resource)),
		logger.BytesRead(n))

	s.route(c)
}

// route dispatches a parsed request to its handler. The resource is the
// request path without the leading slash; an empty resource means the site
// index.
func (s *Server) route(c *Conn) {
	resource := strings.TrimPrefix(string(c.req.Resource), "/")

	switch {
	case c.req.MethodIs("GET") && resource == "diagnostics":
		s.serveDiagnostics(c)
	case c.req.MethodIs("GET"):
		s.serveStatic(c, resource)
	case c.req.MethodIs("POST") && resource == "exit":
		s.serveExit(c)
	default:
		logger.Debug("Method not allowed",
			logger.ConnID(c.id),
			logger.Method(string(c.req.Method)),
			logger.Resource(string(c.req.Resource)))
		s.finish(c, protocol.StatusMethodNotAllowed, protocol.RespMethodNotAllowed)
	}
}

// serveExit handles the shutdown endpoint. The request body must be the
// configured shutdown secret in decimal; anything else, including a
// disabled (zero) secret, is answered 400 without revealing which check
// failed.
func (s *Server) serveExit(c *Conn) {
	body := bytes.TrimSpace(c.req.Body)
	value, err := strconv.ParseUint(string(body), 10, 64)
	if err != nil {
		logger.Debug("Exit request with malformed body", logger.ConnID(c.id), logger.Remote(c.remote))
		s.finish(c, protocol.StatusBadRequest, protocol.RespBadRequest)
		return
	}

	if s.cfg.ShutdownSecret == 0 || value != s.cfg.ShutdownSecret {
		logger.Warn("Exit request rejected", logger.ConnID(c.id), logger.Remote(c.remote))
		s.finish(c, protocol.StatusBadRequest, protocol.RespBadRequest)
		return
	}

	logger.Info("Shutdown requested via exit endpoint", logger.ConnID(c.id), logger.Remote(c.remote))
	s.keepRunning.Store(false)
	s.finish(c, protocol.StatusOK, protocol.RespExitAccepted)
}
