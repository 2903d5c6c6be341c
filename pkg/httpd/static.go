package httpd

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/srdjan/ns-http-server/internal/logger"
	"github.com/srdjan/ns-http-server/internal/protocol"
	"github.com/srdjan/ns-http-server/internal/telemetry"
	"github.com/srdjan/ns-http-server/pkg/poller"
)

// indexFile is what an empty resource path resolves to.
const indexFile = "index.html"

// cleanRoot normalizes the document root to an absolute, clean path so
// every resolved request path can be containment-checked against a stable
// prefix.
func cleanRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// resolve joins a request resource to the document root and reports
// whether the result stays inside it. Join cleans the path, so traversal
// sequences collapse before the containment check.
func (s *Server) resolve(resource string) (string, bool) {
	path := filepath.Join(s.root, resource)
	if path != s.root && !strings.HasPrefix(path, s.root+string(filepath.Separator)) {
		return "", false
	}
	return path, true
}

// serveStatic resolves a GET to a file under the document root and either
// answers it directly (404/400/500, or 304 on an etag match) or moves the
// connection to the Sending state with the file opened and the etag
// computed. No payload byte is written here.
func (s *Server) serveStatic(c *Conn, resource string) {
	if resource == "" {
		resource = indexFile
	}

	path, ok := s.resolve(resource)
	if !ok {
		logger.Debug("Resource escapes document root",
			logger.ConnID(c.id),
			logger.Resource(string(c.req.Resource)))
		s.finish(c, protocol.StatusNotFound, protocol.RespNotFound)
		return
	}
	c.path = path

	f, err := os.Open(path)
	if err != nil {
		s.dispatchError(c, classifyOpen(err), err)
		return
	}
	c.file = f

	st, err := f.Stat()
	if err != nil {
		s.dispatchError(c, classifyOpen(err), err)
		return
	}
	if st.IsDir() {
		logger.Debug("Resource is a directory", logger.ConnID(c.id), logger.Path(path))
		s.finish(c, protocol.StatusNotFound, protocol.RespNotFound)
		return
	}

	// The etag is computed exactly once, here, from the modification time
	// the transfer will serve. It is never recomputed mid-transfer.
	etag := protocol.EtagFromModTime(st.ModTime())

	if c.req.HasEtag && c.req.Etag == etag && !c.req.Cache.NoCache {
		logger.Debug("Etag match",
			logger.ConnID(c.id),
			logger.Path(path),
			logger.Etag(etag))
		s.finish(c, protocol.StatusNotModified, protocol.RespNotModified)
		return
	}

	c.etag = etag
	c.fileSize = st.Size()
	c.pos = 0
	c.headersSent = false
	c.sendStart = time.Now()
	c.state = stateSending
	s.poller.Modify(c.fd, poller.Write)
	if c.span != nil {
		c.span.SetAttributes(telemetry.FilePath(path), telemetry.FileSize(c.fileSize))
	}

	logger.Debug("Transfer starting",
		logger.ConnID(c.id),
		logger.Path(path),
		logger.Size(c.fileSize),
		logger.Etag(etag))
}
