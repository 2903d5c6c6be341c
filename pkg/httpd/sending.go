package httpd

import (
	"errors"
	"io"
	"time"

	"golang.org/x/sys/unix"

	"github.com/srdjan/ns-http-server/internal/logger"
	"github.com/srdjan/ns-http-server/internal/protocol"
)

// stepSending advances a transfer by at most one chunk. Progress requires
// write readiness and, when a throttle is configured, available send
// quota; otherwise the state is returned unchanged and retried next tick.
func (s *Server) stepSending(c *Conn) {
	if !s.poller.Writable(c.fd) {
		return
	}

	quota := s.sendQuota(int(s.chunkSize.Load()))
	if !s.limiter.AllowN(time.Now(), quota) {
		return
	}

	if !c.headersSent {
		if !s.sendHead(c) {
			return
		}
	}

	buf := s.pool.Get(quota)
	defer s.pool.Put(buf)

	n, rerr := c.file.ReadAt(buf, c.pos)
	if rerr != nil && !errors.Is(rerr, io.EOF) {
		logger.Error("File read failed mid-transfer",
			logger.ConnID(c.id),
			logger.Path(c.path),
			logger.Position(c.pos),
			logger.Err(rerr))
		if s.metrics != nil {
			s.metrics.RecordError(errFilesystem.String())
		}
		s.finish(c, 0, nil)
		return
	}

	if n > 0 {
		sent, werr := unix.Write(c.fd, buf[:n])
		if werr != nil {
			s.dispatchError(c, classifyTransport(werr), werr)
			return
		}
		c.pos += int64(sent)
		s.bytesSent += uint64(sent)
		if s.metrics != nil {
			s.metrics.RecordBytesSent(uint64(sent))
		}
		if sent < n {
			// Kernel send buffer filled mid-chunk. The unsent tail is
			// re-read from the file at the advanced position next tick.
			return
		}
	}

	if n < quota {
		s.completeTransfer(c)
	}
}

// sendHead writes the response head exactly once. Returns false when the
// connection died on the attempt.
func (s *Server) sendHead(c *Conn) bool {
	head := protocol.AppendFileHead(nil, c.etag, protocol.ContentTypeFor(c.path))

	n, err := unix.Write(c.fd, head)
	if err != nil {
		s.dispatchError(c, classifyTransport(err), err)
		return false
	}
	if n < len(head) {
		// A freshly writable socket that cannot take a ~70 byte head is
		// not worth nursing; the stream would be corrupt anyway.
		logger.Warn("Short write sending response head",
			logger.ConnID(c.id),
			logger.Remote(c.remote),
			logger.BytesSent(int64(n)))
		s.finish(c, 0, nil)
		return false
	}

	c.headersSent = true
	c.status = protocol.StatusOK
	s.bytesSent += uint64(n)
	if s.metrics != nil {
		s.metrics.RecordBytesSent(uint64(n))
	}
	return true
}

// completeTransfer closes out a fully drained file.
func (s *Server) completeTransfer(c *Conn) {
	logger.Info("Transfer complete",
		logger.ConnID(c.id),
		logger.Path(c.path),
		logger.BytesSent(c.pos),
		logger.Since(c.sendStart),
		logger.Remote(c.remote))
	if s.metrics != nil {
		s.metrics.RecordTransfer(uint64(c.pos), time.Since(c.sendStart))
	}
	s.finish(c, protocol.StatusOK, nil)
}
