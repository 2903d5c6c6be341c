package httpd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/srdjan/ns-http-server/internal/protocol"
	"github.com/srdjan/ns-http-server/pkg/poller"
)

// newTestServer builds a server over a fresh temp root without opening a
// listener. Steps are driven by hand.
func newTestServer(t *testing.T, mutate func(*Config)) *Server {
	t.Helper()
	cfg := Config{
		Root:           t.TempDir(),
		MaxConnections: 4,
		ChunkSize:      4096,
		TickInterval:   5 * time.Millisecond,
		ShutdownGrace:  500 * time.Millisecond,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg, nil)
}

// pairInSlot wires one end of a socketpair into the given slot as a
// freshly accepted connection and returns the slot and the peer fd.
func pairInSlot(t *testing.T, s *Server, slot int) (*Conn, int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}

	c := &s.conns[slot]
	*c = Conn{
		id:        s.nextConnID.Add(1),
		fd:        fds[0],
		remote:    fmt.Sprintf("peer-%d", slot),
		state:     stateReceiving,
		startedAt: time.Now(),
	}
	s.poller.Add(fds[0], poller.Read)
	s.active++
	s.accepted++

	t.Cleanup(func() {
		if c.state != stateIdle {
			s.teardown(c)
		}
		unix.Close(fds[1])
	})
	return c, fds[1]
}

// tick refreshes readiness and steps one connection, like one pass of the
// event loop restricted to that slot.
func tick(t *testing.T, s *Server, c *Conn) {
	t.Helper()
	if _, err := s.poller.Wait(50 * time.Millisecond); err != nil {
		t.Fatalf("poller wait: %v", err)
	}
	s.step(c, time.Now())
}

// send writes a raw request from the peer side.
func send(t *testing.T, peer int, raw string) {
	t.Helper()
	if _, err := unix.Write(peer, []byte(raw)); err != nil {
		t.Fatalf("peer write: %v", err)
	}
}

// readAll drains the peer side until the server closes the socket.
func readAll(t *testing.T, peer int) []byte {
	t.Helper()
	var out []byte
	buf := make([]byte, 8192)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		n, err := unix.Read(peer, buf)
		if n > 0 {
			out = append(out, buf[:n]...)
			continue
		}
		switch err {
		case nil:
			return out
		case unix.EAGAIN:
			time.Sleep(time.Millisecond)
		case unix.ECONNRESET:
			return out
		default:
			t.Fatalf("peer read: %v", err)
		}
	}
	t.Fatalf("timed out waiting for close, got %d bytes", len(out))
	return nil
}

// readAvailable drains whatever is buffered right now without waiting for
// a close.
func readAvailable(peer int) []byte {
	var out []byte
	buf := make([]byte, 8192)
	for {
		n, err := unix.Read(peer, buf)
		if n > 0 {
			out = append(out, buf[:n]...)
			continue
		}
		if err == unix.EAGAIN || n == 0 {
			return out
		}
		return out
	}
}

func writeFile(t *testing.T, root, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestReceiveTimeoutPrecedesReadiness(t *testing.T) {
	s := newTestServer(t, nil)
	c, peer := pairInSlot(t, s, 0)

	// Data is waiting, but the deadline has passed: eviction must win.
	send(t, peer, "GET / HTTP/1.1\r\n\r\n")
	c.startedAt = time.Now().Add(-receiveTimeout - time.Second)

	tick(t, s, c)

	if c.state != stateIdle {
		t.Fatalf("state = %v, want idle", c.state)
	}
	if s.poller.Len() != 0 {
		t.Fatalf("poller still tracks %d fds after eviction", s.poller.Len())
	}
	if s.evicted != 1 {
		t.Fatalf("evicted = %d, want 1", s.evicted)
	}
	if got := readAll(t, peer); len(got) != 0 {
		t.Fatalf("evicted connection received %q, want nothing", got)
	}
}

func TestReceivingUnchangedWhenNotReadable(t *testing.T) {
	s := newTestServer(t, nil)
	c, _ := pairInSlot(t, s, 0)
	started := c.startedAt

	tick(t, s, c)

	if c.state != stateReceiving {
		t.Fatalf("state = %v, want receiving", c.state)
	}
	if !c.startedAt.Equal(started) {
		t.Fatal("start timestamp changed on a no-progress tick")
	}
}

func TestPeerHalfCloseTearsDown(t *testing.T) {
	s := newTestServer(t, nil)
	c, peer := pairInSlot(t, s, 0)

	// Shut down only the peer's write side: the server observes a clean
	// zero-byte read rather than a socket fault.
	if err := unix.Shutdown(peer, unix.SHUT_WR); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	tick(t, s, c)

	if c.state != stateIdle {
		t.Fatalf("state = %v, want idle", c.state)
	}
	if s.active != 0 {
		t.Fatalf("active = %d, want 0", s.active)
	}
}

func TestFaultCheckPrecedesStateLogic(t *testing.T) {
	s := newTestServer(t, nil)
	writeFile(t, s.root, "big.bin", bytes.Repeat([]byte{0xAB}, 64*1024))
	c, peer := pairInSlot(t, s, 0)

	send(t, peer, "GET /big.bin HTTP/1.1\r\n\r\n")
	tick(t, s, c)
	if c.state != stateSending {
		t.Fatalf("state = %v, want sending", c.state)
	}

	// Kill the peer in both directions. The next step must take the fault
	// path and tear down without touching the transfer again.
	if err := unix.Shutdown(peer, unix.SHUT_RDWR); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	tick(t, s, c)

	if c.state != stateIdle {
		t.Fatalf("state = %v, want idle after fault", c.state)
	}
	if s.poller.Len() != 0 {
		t.Fatalf("poller still tracks %d fds after fault teardown", s.poller.Len())
	}
}

func TestMissingFileAnswers404Wire(t *testing.T) {
	s := newTestServer(t, nil)
	c, peer := pairInSlot(t, s, 0)

	send(t, peer, "GET /missing.txt HTTP/1.1\r\n\r\n")
	tick(t, s, c)

	if c.state != stateIdle {
		t.Fatalf("state = %v, want idle", c.state)
	}
	got := readAll(t, peer)
	if !bytes.Equal(got, protocol.RespNotFound) {
		t.Fatalf("wire bytes = %q, want %q", got, protocol.RespNotFound)
	}
}

func TestParseFailureAnswers400(t *testing.T) {
	s := newTestServer(t, nil)
	c, peer := pairInSlot(t, s, 0)

	send(t, peer, "\r\n\r\n")
	tick(t, s, c)

	if c.state != stateIdle {
		t.Fatalf("state = %v, want idle", c.state)
	}
	if got := readAll(t, peer); !bytes.Equal(got, protocol.RespBadRequest) {
		t.Fatalf("wire bytes = %q, want %q", got, protocol.RespBadRequest)
	}
}

func TestUnknownMethodAnswers405(t *testing.T) {
	s := newTestServer(t, nil)
	c, peer := pairInSlot(t, s, 0)

	send(t, peer, "DELETE /index.html HTTP/1.1\r\n\r\n")
	tick(t, s, c)

	if got := readAll(t, peer); !bytes.Equal(got, protocol.RespMethodNotAllowed) {
		t.Fatalf("wire bytes = %q, want %q", got, protocol.RespMethodNotAllowed)
	}
}

func TestTraversalEscapeAnswers404(t *testing.T) {
	s := newTestServer(t, nil)
	c, peer := pairInSlot(t, s, 0)

	send(t, peer, "GET /../../etc/passwd HTTP/1.1\r\n\r\n")
	tick(t, s, c)

	if got := readAll(t, peer); !bytes.Equal(got, protocol.RespNotFound) {
		t.Fatalf("wire bytes = %q, want %q", got, protocol.RespNotFound)
	}
}

func TestDirectoryAnswers404(t *testing.T) {
	s := newTestServer(t, nil)
	if err := os.Mkdir(filepath.Join(s.root, "assets"), 0o755); err != nil {
		t.Fatal(err)
	}
	c, peer := pairInSlot(t, s, 0)

	send(t, peer, "GET /assets HTTP/1.1\r\n\r\n")
	tick(t, s, c)

	if got := readAll(t, peer); !bytes.Equal(got, protocol.RespNotFound) {
		t.Fatalf("wire bytes = %q, want %q", got, protocol.RespNotFound)
	}
}

func TestEmptyResourceServesIndex(t *testing.T) {
	s := newTestServer(t, nil)
	body := []byte("<h1>hello</h1>\n")
	writeFile(t, s.root, "index.html", body)
	c, peer := pairInSlot(t, s, 0)

	send(t, peer, "GET / HTTP/1.1\r\n\r\n")
	tick(t, s, c)

	if c.state != stateSending {
		t.Fatalf("state = %v, want sending", c.state)
	}
	if want := filepath.Join(s.root, "index.html"); c.path != want {
		t.Fatalf("resolved path = %q, want %q", c.path, want)
	}
	if c.headersSent {
		t.Fatal("headers marked sent before any sending step")
	}
	if got := readAvailable(peer); len(got) != 0 {
		t.Fatalf("bytes on wire before first sending step: %q", got)
	}

	for i := 0; c.state != stateIdle && i < 50; i++ {
		tick(t, s, c)
	}
	if c.state != stateIdle {
		t.Fatal("transfer did not finish")
	}

	got := readAll(t, peer)
	head, payload, ok := splitHead(got)
	if !ok {
		t.Fatalf("no header terminator in %q", got)
	}
	if !strings.HasPrefix(head, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("status line = %q", head)
	}
	if !strings.Contains(head, "Content-type: text/html\r\n") {
		t.Fatalf("missing content type in %q", head)
	}
	if !strings.Contains(head, "ETag: ") {
		t.Fatalf("missing etag in %q", head)
	}
	if !bytes.Equal(payload, body) {
		t.Fatalf("payload = %q, want %q", payload, body)
	}
}

func TestChunkedDrainMonotonicPosition(t *testing.T) {
	s := newTestServer(t, nil)
	data := bytes.Repeat([]byte{0x5A}, 10000)
	writeFile(t, s.root, "file.bin", data)
	c, peer := pairInSlot(t, s, 0)

	send(t, peer, "GET /file.bin HTTP/1.1\r\n\r\n")
	tick(t, s, c)
	if c.state != stateSending {
		t.Fatalf("state = %v, want sending", c.state)
	}

	var wire []byte
	wantPositions := []int64{4096, 8192, 10000}
	for i, want := range wantPositions {
		tick(t, s, c)
		wire = append(wire, readAvailable(peer)...)
		if c.state == stateIdle {
			if i != len(wantPositions)-1 {
				t.Fatalf("transfer ended after step %d", i+1)
			}
			break
		}
		if c.pos != want {
			t.Fatalf("position after step %d = %d, want %d", i+1, c.pos, want)
		}
		if !c.headersSent {
			t.Fatalf("headers not marked sent after step %d", i+1)
		}
	}
	if c.state != stateIdle {
		t.Fatalf("state = %v, want idle after final chunk", c.state)
	}

	wire = append(wire, readAll(t, peer)...)
	if n := bytes.Count(wire, []byte("HTTP/1.1 200 OK")); n != 1 {
		t.Fatalf("header block sent %d times, want exactly once", n)
	}
	_, payload, ok := splitHead(wire)
	if !ok {
		t.Fatalf("no header terminator in wire bytes")
	}
	if !bytes.Equal(payload, data) {
		t.Fatalf("payload length %d, want %d", len(payload), len(data))
	}
}

func TestEtagMatchAnswers304(t *testing.T) {
	s := newTestServer(t, nil)
	path := writeFile(t, s.root, "page.html", []byte("cached content"))
	mtime := time.Unix(1700000000, 0)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
	etag := protocol.EtagFromModTime(mtime)

	c, peer := pairInSlot(t, s, 0)
	send(t, peer, fmt.Sprintf("GET /page.html HTTP/1.1\r\nIf-None-Match: %d\r\n\r\n", etag))
	tick(t, s, c)

	if c.state != stateIdle {
		t.Fatalf("state = %v, want idle", c.state)
	}
	if got := readAll(t, peer); !bytes.Equal(got, protocol.RespNotModified) {
		t.Fatalf("wire bytes = %q, want %q", got, protocol.RespNotModified)
	}
}

func TestStaleEtagStartsTransfer(t *testing.T) {
	s := newTestServer(t, nil)
	path := writeFile(t, s.root, "page.html", []byte("fresh content"))
	mtime := time.Unix(1700000000, 0)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
	stale := protocol.EtagFromModTime(mtime) - 1

	c, peer := pairInSlot(t, s, 0)
	send(t, peer, fmt.Sprintf("GET /page.html HTTP/1.1\r\nIf-None-Match: %d\r\n\r\n", stale))
	tick(t, s, c)

	if c.state != stateSending {
		t.Fatalf("state = %v, want sending on etag mismatch", c.state)
	}
	if c.etag != protocol.EtagFromModTime(mtime) {
		t.Fatalf("etag = %d, want %d", c.etag, protocol.EtagFromModTime(mtime))
	}
}

func TestNoCacheBypassesEtagMatch(t *testing.T) {
	s := newTestServer(t, nil)
	path := writeFile(t, s.root, "page.html", []byte("content"))
	mtime := time.Unix(1700000000, 0)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
	etag := protocol.EtagFromModTime(mtime)

	c, peer := pairInSlot(t, s, 0)
	send(t, peer, fmt.Sprintf("GET /page.html HTTP/1.1\r\nIf-None-Match: %d\r\nCache-Control: no-cache\r\n\r\n", etag))
	tick(t, s, c)

	if c.state != stateSending {
		t.Fatalf("state = %v, want sending when client forbids cached validation", c.state)
	}
}

func TestShutdownGate(t *testing.T) {
	s := newTestServer(t, func(cfg *Config) { cfg.ShutdownSecret = 12345 })

	c, peer := pairInSlot(t, s, 0)
	send(t, peer, "POST /exit HTTP/1.1\r\n\r\n99999")
	tick(t, s, c)
	if !s.keepRunning.Load() {
		t.Fatal("wrong secret cleared the keep-running flag")
	}
	if got := readAll(t, peer); !bytes.Equal(got, protocol.RespBadRequest) {
		t.Fatalf("wire bytes = %q, want %q", got, protocol.RespBadRequest)
	}

	c2, peer2 := pairInSlot(t, s, 1)
	send(t, peer2, "POST /exit HTTP/1.1\r\n\r\n12345")
	tick(t, s, c2)
	if s.keepRunning.Load() {
		t.Fatal("matching secret did not clear the keep-running flag")
	}
	if got := readAll(t, peer2); !bytes.Equal(got, protocol.RespExitAccepted) {
		t.Fatalf("wire bytes = %q, want %q", got, protocol.RespExitAccepted)
	}
}

func TestExitMalformedBodyAnswers400(t *testing.T) {
	s := newTestServer(t, func(cfg *Config) { cfg.ShutdownSecret = 12345 })
	c, peer := pairInSlot(t, s, 0)

	send(t, peer, "POST /exit HTTP/1.1\r\n\r\nnot-a-number")
	tick(t, s, c)

	if !s.keepRunning.Load() {
		t.Fatal("malformed body cleared the keep-running flag")
	}
	if got := readAll(t, peer); !bytes.Equal(got, protocol.RespBadRequest) {
		t.Fatalf("wire bytes = %q, want %q", got, protocol.RespBadRequest)
	}
}

func TestExitDisabledWhenNoSecret(t *testing.T) {
	s := newTestServer(t, nil)
	c, peer := pairInSlot(t, s, 0)

	send(t, peer, "POST /exit HTTP/1.1\r\n\r\n0")
	tick(t, s, c)

	if !s.keepRunning.Load() {
		t.Fatal("disabled exit endpoint cleared the keep-running flag")
	}
	if got := readAll(t, peer); !bytes.Equal(got, protocol.RespBadRequest) {
		t.Fatalf("wire bytes = %q, want %q", got, protocol.RespBadRequest)
	}
}

func TestDiagnosticsReportsConnections(t *testing.T) {
	s := newTestServer(t, nil)
	writeFile(t, s.root, "big.bin", bytes.Repeat([]byte{1}, 64*1024))

	// Slot 0: a transfer parked mid-drain.
	c0, peer0 := pairInSlot(t, s, 0)
	send(t, peer0, "GET /big.bin HTTP/1.1\r\nHost: example\r\n\r\n")
	tick(t, s, c0)
	if c0.state != stateSending {
		t.Fatalf("slot 0 state = %v, want sending", c0.state)
	}

	// Slot 1: the diagnostics requester itself.
	c1, peer1 := pairInSlot(t, s, 1)
	send(t, peer1, "GET /diagnostics HTTP/1.1\r\n\r\n")
	tick(t, s, c1)

	if c1.state != stateIdle {
		t.Fatalf("requester state = %v, want idle", c1.state)
	}
	raw := readAll(t, peer1)
	head, payload, ok := splitHead(raw)
	if !ok {
		t.Fatalf("no header terminator in %q", raw)
	}
	body := string(payload)
	if !strings.HasPrefix(head, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("status line = %q", head)
	}
	wantLen := fmt.Sprintf("Content-length: %d\r\n", len(body))
	if !strings.Contains(head, wantLen) {
		t.Fatalf("head %q does not carry %q", head, wantLen)
	}

	if !strings.Contains(body, "connections: 2/4\n") {
		t.Fatalf("report %q missing count line", body)
	}
	wantSending := fmt.Sprintf("[0] sending %s -> peer-0\n", filepath.Join(s.root, "big.bin"))
	if !strings.Contains(body, wantSending) {
		t.Fatalf("report %q missing %q", body, wantSending)
	}
	if !strings.Contains(body, "    GET /big.bin HTTP/1.1\n") {
		t.Fatalf("report %q missing request echo", body)
	}
	if !strings.Contains(body, "    Host: example\n") {
		t.Fatalf("report %q missing header echo", body)
	}
	if !strings.Contains(body, "[1] receiving peer-1\n") {
		t.Fatalf("report %q missing requester line", body)
	}
	if !strings.Contains(body, "[2] idle\n") {
		t.Fatalf("report %q missing idle line", body)
	}
}

// splitHead cuts a wire response at the header terminator.
func splitHead(wire []byte) (head string, payload []byte, ok bool) {
	i := bytes.Index(wire, []byte("\r\n\r\n"))
	if i < 0 {
		return "", nil, false
	}
	return string(wire[:i+2]), wire[i+4:], true
}
