package httpd

import (
	"fmt"

	"github.com/srdjan/ns-http-server/internal/logger"
	"github.com/srdjan/ns-http-server/internal/protocol"
)

// diagMaxBytes caps the diagnostics report body. A table full of sending
// connections with large request bodies could otherwise grow without
// bound; past the cap the report is truncated, not failed.
const diagMaxBytes = 1 << 20

// serveDiagnostics renders the connection report and answers it as
// sized plain text. The report is built purely from in-memory state and
// never touches the filesystem.
func (s *Server) serveDiagnostics(c *Conn) {
	scratch := s.pool.Get(diagMaxBytes)
	defer s.pool.Put(scratch)

	body, truncated := appendConnReport(scratch[:0], s.conns, s.active)
	if truncated {
		logger.Warn("Diagnostics report truncated", logger.Size(int64(len(body))))
	}

	resp := protocol.AppendTextHead(nil, len(body))
	resp = append(resp, body...)

	logger.Debug("Diagnostics served",
		logger.ConnID(c.id),
		logger.Conns(s.active),
		logger.Size(int64(len(body))))
	s.finish(c, protocol.StatusOK, resp)
}

// appendConnReport renders one line per slot plus the request echo for
// transfers in flight. It reports whether the cap cut the report short.
func appendConnReport(dst []byte, conns []Conn, active int) ([]byte, bool) {
	dst = fmt.Appendf(dst, "connections: %d/%d\n", active, len(conns))

	for i := range conns {
		if len(dst) >= diagMaxBytes {
			dst = append(dst, "...truncated\n"...)
			return dst, true
		}
		c := &conns[i]
		switch c.state {
		case stateReceiving:
			dst = fmt.Appendf(dst, "[%d] receiving %s\n", i, c.remote)
		case stateSending:
			dst = fmt.Appendf(dst, "[%d] sending %s -> %s\n", i, c.path, c.remote)
			dst = appendRequestEcho(dst, c.req)
		default:
			dst = fmt.Appendf(dst, "[%d] idle\n", i)
		}
	}
	return dst, false
}

// appendRequestEcho renders the parsed request a sending connection
// carries: request line, headers in arrival order, then the body.
func appendRequestEcho(dst []byte, req *protocol.Request) []byte {
	if req == nil {
		return dst
	}
	dst = fmt.Appendf(dst, "    %s %s %s\n", req.Method, req.Resource, req.Version)
	for _, h := range req.Headers {
		dst = fmt.Appendf(dst, "    %s: %s\n", h.Name, h.Value)
	}
	if len(req.Body) > 0 {
		dst = fmt.Appendf(dst, "    %s\n", req.Body)
	}
	return dst
}
