package httpd

import (
	"fmt"
	"net"
	"strconv"

	"golang.org/x/sys/unix"
)

// listenSocket opens a non-blocking TCP listener on addr:port and returns
// the descriptor together with the actual bound port (which differs from
// the requested one when port is 0).
func listenSocket(addr string, port int) (int, int, error) {
	ip := net.ParseIP(addr)
	if ip == nil {
		return -1, 0, fmt.Errorf("invalid listen address %q", addr)
	}

	family := unix.AF_INET6
	if ip.To4() != nil {
		family = unix.AF_INET
	}

	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, 0, fmt.Errorf("socket: %w", err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, 0, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}

	var sa unix.Sockaddr
	if family == unix.AF_INET {
		sa4 := &unix.SockaddrInet4{Port: port}
		copy(sa4.Addr[:], ip.To4())
		sa = sa4
	} else {
		sa6 := &unix.SockaddrInet6{Port: port}
		copy(sa6.Addr[:], ip.To16())
		sa = sa6
	}

	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return -1, 0, fmt.Errorf("bind %s:%d: %w", addr, port, err)
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		unix.Close(fd)
		return -1, 0, fmt.Errorf("listen: %w", err)
	}

	bound, err := unix.Getsockname(fd)
	if err != nil {
		unix.Close(fd)
		return -1, 0, fmt.Errorf("getsockname: %w", err)
	}
	switch b := bound.(type) {
	case *unix.SockaddrInet4:
		port = b.Port
	case *unix.SockaddrInet6:
		port = b.Port
	}

	return fd, port, nil
}

// acceptConn accepts one pending connection in non-blocking mode. The
// returned descriptor is itself non-blocking. A unix.EAGAIN error means the
// accept queue is drained.
func acceptConn(listenFd int) (int, string, error) {
	fd, sa, err := unix.Accept4(listenFd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		return -1, "", err
	}
	return fd, sockaddrString(sa), nil
}

// sockaddrString renders a socket address as host:port for logs and the
// diagnostics report.
func sockaddrString(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return net.JoinHostPort(net.IP(a.Addr[:]).String(), strconv.Itoa(a.Port))
	case *unix.SockaddrInet6:
		return net.JoinHostPort(net.IP(a.Addr[:]).String(), strconv.Itoa(a.Port))
	default:
		return "unknown"
	}
}
