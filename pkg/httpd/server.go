// Package httpd implements a single-threaded, non-blocking static-file
// HTTP server.
//
// One goroutine owns everything: the listener, the readiness multiplexer,
// and a fixed-capacity table of connection slots. Each slot is a small
// state machine (idle, receiving, sending) stepped once per tick; a step
// either makes bounded progress or returns with the state unchanged, so
// the loop never blocks on any one client. Files are drained one chunk
// per tick per connection under write readiness, which is the whole
// backpressure story.
//
// Cross-goroutine traffic is one-way in each direction: the loop
// publishes an immutable state snapshot every tick (Snapshot), and live
// settings arrive through atomics the loop samples every tick
// (SetChunkSize, SetThrottleRate). Nothing outside the loop ever touches
// a connection slot.
package httpd

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/time/rate"

	"github.com/srdjan/ns-http-server/internal/logger"
	"github.com/srdjan/ns-http-server/internal/telemetry"
	"github.com/srdjan/ns-http-server/pkg/bufpool"
	"github.com/srdjan/ns-http-server/pkg/metrics"
	"github.com/srdjan/ns-http-server/pkg/poller"
)

// Server is the event loop and its owned state. Create with New, run with
// Serve. All fields except the documented atomics belong to the loop
// goroutine exclusively.
type Server struct {
	cfg     Config
	root    string
	metrics metrics.HTTPMetrics
	pool    *bufpool.Pool
	poller  *poller.Poller
	conns   []Conn
	baseCtx context.Context

	listenFd      int
	draining      bool
	drainDeadline time.Time
	startTime     time.Time

	// Loop-owned counters, exported via Snapshot.
	active      int
	accepted    uint64
	requests    uint64
	evicted     uint64
	rejected    uint64
	forceClosed uint64
	bytesSent   uint64

	// Crossing goroutine boundaries.
	keepRunning atomic.Bool
	boundPort   atomic.Int32
	nextConnID  atomic.Uint64
	chunkSize   atomic.Int64
	throttleBps atomic.Int64
	limiter     *rate.Limiter
	snapshot    atomic.Pointer[Snapshot]
}

// New creates a server from the configuration. Panics if the
// configuration is invalid after defaults are applied. Pass nil metrics
// to disable collection.
func New(cfg Config, m metrics.HTTPMetrics) *Server {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		panic(fmt.Sprintf("invalid HTTP server config: %v", err))
	}

	s := &Server{
		cfg:      cfg,
		root:     mustCleanRoot(cfg.Root),
		metrics:  m,
		pool:     bufpool.NewPool(nil),
		poller:   poller.New(),
		conns:    make([]Conn, cfg.MaxConnections),
		baseCtx:  context.Background(),
		listenFd: -1,
		limiter:  rate.NewLimiter(rate.Inf, 0),
	}
	s.keepRunning.Store(true)
	s.chunkSize.Store(int64(cfg.ChunkSize))
	if cfg.ThrottleRate > 0 {
		s.SetThrottleRate(cfg.ThrottleRate)
	}
	return s
}

// BoundPort returns the port the listener is actually bound to, or 0
// before Serve has opened it. Useful when configured with port 0.
func (s *Server) BoundPort() int {
	return int(s.boundPort.Load())
}

// Shutdown asks the loop to stop. The listener closes, in-flight
// connections drain within the configured grace, then Serve returns.
// Safe to call from any goroutine.
func (s *Server) Shutdown() {
	s.keepRunning.Store(false)
}

// Serve opens the listener and runs the event loop until the keep-running
// flag clears (Shutdown, an authorized exit request, or ctx cancellation)
// and in-flight connections have drained. It returns nil on a clean stop.
func (s *Server) Serve(ctx context.Context) error {
	fd, port, err := listenSocket(s.cfg.Address, s.cfg.Port)
	if err != nil {
		return fmt.Errorf("failed to open listener: %w", err)
	}
	s.listenFd = fd
	s.boundPort.Store(int32(port))
	s.poller.Add(fd, poller.Read)
	s.startTime = time.Now()
	s.baseCtx = ctx

	logger.Info("HTTP server listening",
		logger.Address(s.cfg.Address),
		logger.Port(port),
		logger.Root(s.root),
		logger.Conns(s.cfg.MaxConnections))

	lastSummary := time.Now()
	for {
		if ctx.Err() != nil {
			s.keepRunning.Store(false)
		}
		if !s.keepRunning.Load() && !s.draining {
			s.startDrain()
		}
		if s.draining {
			if s.active == 0 {
				break
			}
			if time.Now().After(s.drainDeadline) {
				s.forceCloseAll()
				break
			}
		}

		if _, err := s.poller.Wait(s.cfg.TickInterval); err != nil {
			return fmt.Errorf("poll failed: %w", err)
		}

		if s.listenFd >= 0 && s.poller.Readable(s.listenFd) {
			s.acceptPending()
		}

		now := time.Now()
		for i := range s.conns {
			s.step(&s.conns[i], now)
		}
		s.publishSnapshot(now)

		if s.cfg.MetricsInterval > 0 && now.Sub(lastSummary) >= s.cfg.MetricsInterval {
			s.logSummary()
			lastSummary = now
		}
	}

	s.publishSnapshot(time.Now())
	logger.Info("HTTP server stopped",
		"accepted", s.accepted,
		"requests", s.requests,
		"evicted", s.evicted,
		"force_closed", s.forceClosed,
		logger.BytesSent(int64(s.bytesSent)))
	return nil
}

// step advances one slot. The fault check runs first, whatever the state:
// a faulted socket is torn down without ever being read or written again.
func (s *Server) step(c *Conn, now time.Time) {
	if c.state == stateIdle {
		return
	}

	if s.poller.Faulted(c.fd) {
		logger.Debug("Socket faulted",
			logger.ConnID(c.id),
			logger.Remote(c.remote),
			logger.State(c.state.String()))
		if s.metrics != nil {
			s.metrics.RecordError(errPeer.String())
		}
		s.finish(c, 0, nil)
		return
	}

	switch c.state {
	case stateReceiving:
		s.stepReceiving(c, now)
	case stateSending:
		s.stepSending(c)
	default:
		s.dispatchError(c, errUnexpected,
			fmt.Errorf("connection %d in impossible state %d", c.id, c.state))
	}
}

// acceptPending drains the accept queue. Connections beyond the table
// capacity are closed on the spot; nothing else is safe to do without a
// slot to track them in.
func (s *Server) acceptPending() {
	for {
		fd, remote, err := acceptConn(s.listenFd)
		if err != nil {
			switch err {
			case unix.EAGAIN:
				return
			case unix.ECONNABORTED, unix.EINTR:
				continue
			default:
				logger.Warn("Accept failed", logger.Err(err))
				return
			}
		}

		slot := s.freeSlot()
		if slot == nil {
			logger.Warn("Connection rejected: table full",
				logger.Remote(remote),
				logger.Conns(s.active))
			s.rejected++
			if s.metrics != nil {
				s.metrics.RecordConnectionRejected()
			}
			unix.Close(fd)
			continue
		}

		*slot = Conn{
			id:        s.nextConnID.Add(1),
			fd:        fd,
			remote:    remote,
			state:     stateReceiving,
			startedAt: time.Now(),
		}
		s.poller.Add(fd, poller.Read)
		s.active++
		s.accepted++
		if s.metrics != nil {
			s.metrics.RecordConnectionAccepted()
			s.metrics.SetActiveConnections(int32(s.active))
		}

		logger.Debug("Connection accepted",
			logger.ConnID(slot.id),
			logger.Fd(fd),
			logger.Remote(remote),
			logger.Conns(s.active))
	}
}

// freeSlot returns the first idle slot, or nil when the table is full.
func (s *Server) freeSlot() *Conn {
	for i := range s.conns {
		if s.conns[i].state == stateIdle {
			return &s.conns[i]
		}
	}
	return nil
}

// respond writes a terminal response, best effort. A failure to deliver
// it is logged and forgotten; the connection is coming down either way.
func (s *Server) respond(c *Conn, resp []byte) {
	n, err := unix.Write(c.fd, resp)
	if err != nil {
		logger.Debug("Failed to send response",
			logger.ConnID(c.id),
			logger.Remote(c.remote),
			logger.Err(err))
		return
	}
	if n < len(resp) {
		logger.Debug("Short response write",
			logger.ConnID(c.id),
			logger.BytesSent(int64(n)),
			logger.Size(int64(len(resp))))
	}
	s.bytesSent += uint64(n)
	if s.metrics != nil {
		s.metrics.RecordBytesSent(uint64(n))
	}
}

// finish closes out a connection: records the outcome, sends the given
// terminal response if one applies, and tears the slot down. A zero
// status keeps whatever status was already recorded (200 once the head of
// a transfer has gone out, or none at all).
func (s *Server) finish(c *Conn, status int, resp []byte) {
	if status != 0 {
		c.status = status
	}
	if resp != nil {
		s.respond(c, resp)
	}

	if c.req != nil {
		logger.Info("Request completed",
			logger.ConnID(c.id),
			logger.Method(string(c.req.Method)),
			logger.Resource(string(c.req.Resource)),
			logger.Status(c.status),
			logger.Since(c.startedAt),
			logger.Remote(c.remote))
		s.requests++
		if s.metrics != nil {
			s.metrics.RecordRequest(string(c.req.Method), c.status, time.Since(c.startedAt))
		}
	}

	s.teardown(c)
}

// teardown releases everything a slot owns, together and exactly once:
// the multiplexer registration, the socket, the file if one is open, and
// the arena. Every terminal path funnels through here; callers must not
// release any of these individually.
func (s *Server) teardown(c *Conn) {
	if c.state == stateIdle {
		return
	}

	s.poller.Remove(c.fd)
	if err := unix.Close(c.fd); err != nil {
		logger.Warn("Socket close failed", logger.Fd(c.fd), logger.Err(err))
	}
	if c.file != nil {
		if err := c.file.Close(); err != nil {
			logger.Warn("File close failed", logger.Path(c.path), logger.Err(err))
		}
	}
	c.arena.Release()

	if c.span != nil {
		c.span.SetAttributes(telemetry.HTTPStatus(c.status), telemetry.BytesSent(c.pos))
		c.span.End()
	}

	s.active--
	if s.metrics != nil {
		s.metrics.RecordConnectionClosed()
		s.metrics.SetActiveConnections(int32(s.active))
	}

	c.reset()
}

// startDrain begins shutdown: close the listener so nothing new arrives,
// then let in-flight connections run out the grace period.
func (s *Server) startDrain() {
	s.draining = true
	s.drainDeadline = time.Now().Add(s.cfg.ShutdownGrace)
	if s.listenFd >= 0 {
		s.poller.Remove(s.listenFd)
		unix.Close(s.listenFd)
		s.listenFd = -1
	}
	logger.Info("Draining connections before shutdown",
		logger.Conns(s.active),
		"shutdown_grace", s.cfg.ShutdownGrace.String())
}

// forceCloseAll tears down every connection still alive when the drain
// grace expires.
func (s *Server) forceCloseAll() {
	for i := range s.conns {
		c := &s.conns[i]
		if c.state == stateIdle {
			continue
		}
		logger.Warn("Force closing connection at shutdown",
			logger.ConnID(c.id),
			logger.Remote(c.remote),
			logger.State(c.state.String()))
		s.forceClosed++
		s.teardown(c)
	}
}

// logSummary emits the periodic one-line throughput report.
func (s *Server) logSummary() {
	logger.Info("Throughput summary",
		logger.Conns(s.active),
		"accepted", s.accepted,
		"requests", s.requests,
		"evicted", s.evicted,
		"rejected", s.rejected,
		logger.BytesSent(int64(s.bytesSent)))
}

// mustCleanRoot normalizes the document root once so per-request
// containment checks compare against a stable prefix.
func mustCleanRoot(root string) string {
	cleaned, err := cleanRoot(root)
	if err != nil {
		panic(fmt.Sprintf("invalid document root: %v", err))
	}
	return cleaned
}
