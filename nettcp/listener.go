//go:build linux

// Package nettcp implements a TCP listener actor that accepts connections
// and spawns a fresh actor for each one, grounded on the original crate's
// net::tcp::Server (see original_source/src/net/tcp/server.rs): create a
// non-blocking listening socket with SO_REUSEADDR/SO_REUSEPORT set by hand,
// register its fd with the worker's poller, and on every readiness wakeup
// accept every connection currently queued, non-blocking, until EAGAIN.
package nettcp

import (
	"net"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// newListener creates a non-blocking, SO_REUSEADDR/SO_REUSEPORT TCP
// listening socket bound to address, mirroring the raw socket setup the
// original implementation does by hand (mio doesn't let it set socket
// options before bind). backlog of 0 means the caller intends to register
// the fd with a poller and drain it immediately rather than let the
// kernel queue connections.
func newListener(address string, backlog int) (fd int, bound *net.TCPAddr, err error) {
	addr, err := net.ResolveTCPAddr("tcp", address)
	if err != nil {
		return -1, nil, errors.Wrap(err, "nettcp: resolve address")
	}

	domain := unix.AF_INET
	if addr.IP.To4() == nil {
		domain = unix.AF_INET6
	}

	fd, err = unix.Socket(domain, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, nil, errors.Wrap(err, "nettcp: socket")
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, nil, errors.Wrap(err, "nettcp: SO_REUSEADDR")
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
		unix.Close(fd)
		return -1, nil, errors.Wrap(err, "nettcp: SO_REUSEPORT")
	}

	sa, err := sockaddr(addr, domain)
	if err != nil {
		unix.Close(fd)
		return -1, nil, err
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return -1, nil, errors.Wrap(err, "nettcp: bind")
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return -1, nil, errors.Wrap(err, "nettcp: listen")
	}

	bound, err = resolveBoundAddr(fd, addr)
	if err != nil {
		unix.Close(fd)
		return -1, nil, err
	}
	return fd, bound, nil
}

func sockaddr(addr *net.TCPAddr, domain int) (unix.Sockaddr, error) {
	if domain == unix.AF_INET {
		var ip [4]byte
		copy(ip[:], addr.IP.To4())
		return &unix.SockaddrInet4{Port: addr.Port, Addr: ip}, nil
	}
	var ip [16]byte
	copy(ip[:], addr.IP.To16())
	return &unix.SockaddrInet6{Port: addr.Port, Addr: ip}, nil
}

// resolveBoundAddr reads back the address the kernel actually bound, so a
// caller that asked to listen on port 0 can discover the assigned port.
func resolveBoundAddr(fd int, requested *net.TCPAddr) (*net.TCPAddr, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return nil, errors.Wrap(err, "nettcp: getsockname")
	}
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.TCPAddr{IP: net.IP(sa.Addr[:]), Port: sa.Port}, nil
	case *unix.SockaddrInet6:
		return &net.TCPAddr{IP: net.IP(sa.Addr[:]), Port: sa.Port, Zone: requested.Zone}, nil
	default:
		return requested, nil
	}
}

// acceptAll drains every connection currently queued on fd, non-blocking,
// calling onAccept for each until the kernel reports EAGAIN/EWOULDBLOCK.
func acceptAll(fd int, onAccept func(connFD int, remote unix.Sockaddr)) error {
	for {
		connFD, sa, err := unix.Accept4(fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return nil
			}
			if err == unix.EINTR {
				continue
			}
			return errors.Wrap(err, "nettcp: accept4")
		}
		onAccept(connFD, sa)
	}
}

func sockaddrToTCPAddr(sa unix.Sockaddr) *net.TCPAddr {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		ip := make(net.IP, 4)
		copy(ip, sa.Addr[:])
		return &net.TCPAddr{IP: ip, Port: sa.Port}
	case *unix.SockaddrInet6:
		ip := make(net.IP, 16)
		copy(ip, sa.Addr[:])
		return &net.TCPAddr{IP: ip, Port: sa.Port}
	default:
		return &net.TCPAddr{}
	}
}
