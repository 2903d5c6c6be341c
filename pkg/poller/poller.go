// Package poller wraps poll(2) as a level-triggered readiness multiplexer.
//
// The event loop registers every socket it owns, waits once per tick, then
// asks per descriptor whether it was read-ready, write-ready or faulted in
// that wait. Level-triggered means a socket that stays ready keeps reporting
// ready on every wait until the condition drains, so a connection skipped on
// one tick loses nothing.
//
// A Poller is not safe for concurrent use. The event loop goroutine owns it
// exclusively.
package poller

import (
	"time"

	"golang.org/x/sys/unix"
)

// Interest selects which readiness conditions a descriptor is watched for.
// Errors, hangups and invalid descriptors are always reported regardless of
// interest.
type Interest int16

const (
	// Read watches for readable data (or a peer close).
	Read Interest = unix.POLLIN
	// Write watches for writable buffer space.
	Write Interest = unix.POLLOUT
)

// faultMask covers the conditions that terminate a connection before its
// state logic runs.
const faultMask = unix.POLLERR | unix.POLLHUP | unix.POLLNVAL

// Poller multiplexes readiness over a set of registered descriptors.
type Poller struct {
	fds   []unix.PollFd
	index map[int]int
}

// New creates an empty poller.
func New() *Poller {
	return &Poller{
		index: make(map[int]int),
	}
}

// Add registers a descriptor with the given interest. Adding an already
// registered descriptor updates its interest.
func (p *Poller) Add(fd int, interest Interest) {
	if i, ok := p.index[fd]; ok {
		p.fds[i].Events = int16(interest)
		return
	}
	p.index[fd] = len(p.fds)
	p.fds = append(p.fds, unix.PollFd{Fd: int32(fd), Events: int16(interest)})
}

// Modify changes the interest of a registered descriptor. The readiness
// reported for the last wait is cleared; the new interest takes effect on
// the next wait. Unknown descriptors are ignored.
func (p *Poller) Modify(fd int, interest Interest) {
	i, ok := p.index[fd]
	if !ok {
		return
	}
	p.fds[i].Events = int16(interest)
	p.fds[i].Revents = 0
}

// Remove unregisters a descriptor. Unknown descriptors are ignored, which
// keeps teardown idempotent.
func (p *Poller) Remove(fd int) {
	i, ok := p.index[fd]
	if !ok {
		return
	}
	last := len(p.fds) - 1
	if i != last {
		p.fds[i] = p.fds[last]
		p.index[int(p.fds[i].Fd)] = i
	}
	p.fds = p.fds[:last]
	delete(p.index, fd)
}

// Len reports how many descriptors are registered.
func (p *Poller) Len() int {
	return len(p.fds)
}

// Wait polls all registered descriptors, blocking up to timeout. A negative
// timeout blocks until something is ready. Returns the number of ready
// descriptors; an interrupted wait counts as zero ready, not an error, so
// the loop simply ticks.
func (p *Poller) Wait(timeout time.Duration) (int, error) {
	ms := int(timeout / time.Millisecond)
	if timeout < 0 {
		ms = -1
	}

	for {
		n, err := unix.Poll(p.fds, ms)
		if err == unix.EINTR {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		return n, nil
	}
}

// Readable reports whether the descriptor was read-ready in the last wait.
func (p *Poller) Readable(fd int) bool {
	return p.revents(fd)&unix.POLLIN != 0
}

// Writable reports whether the descriptor was write-ready in the last wait.
func (p *Poller) Writable(fd int) bool {
	return p.revents(fd)&unix.POLLOUT != 0
}

// Faulted reports whether the descriptor raised an error, hangup or
// invalid-descriptor condition in the last wait.
func (p *Poller) Faulted(fd int) bool {
	return p.revents(fd)&faultMask != 0
}

func (p *Poller) revents(fd int) int16 {
	i, ok := p.index[fd]
	if !ok {
		return 0
	}
	return p.fds[i].Revents
}
