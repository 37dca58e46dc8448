//go:build linux

// Package poller binds the runtime's schedule phase to the OS's readiness
// notification facility. On Linux that is epoll, plus two eventfd
// descriptors: one the waker subsystem writes to when it wants a blocked
// worker to stop polling, one the coordinator writes to for the same
// reason.
package poller

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// WakerToken and CoordinatorToken are reserved readiness tokens that never
// collide with an ordinary pid token: pid.ID values are built by shifting a
// counter left by two and ORing in a scope bit, so they never reach these
// top two uint64 values this side of 2^62 spawned processes.
const (
	WakerToken       uint64 = ^uint64(0)
	CoordinatorToken uint64 = ^uint64(0) - 1
)

// Event is one readiness notification returned from Poll.
type Event struct {
	Token uint64
}

// Poller wraps one epoll instance plus the waker and coordinator eventfds
// every worker registers with it at construction.
type Poller struct {
	epfd int

	mu     sync.RWMutex
	tokens map[int32]uint64

	wakerFD       int
	coordinatorFD int

	// IsPolling is read by waker.VTable.IsPolling and flipped by Poll
	// immediately around the blocking EpollWait call, so Wake only pays for
	// a Nudge while this worker is actually parked.
	IsPolling atomic.Bool
}

// New creates a Poller with its waker and coordinator eventfds already
// registered.
func New() (*Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, errors.Wrap(err, "poller: epoll_create1")
	}

	p := &Poller{
		epfd:   epfd,
		tokens: make(map[int32]uint64),
	}

	wakerFD, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		unix.Close(epfd)
		return nil, errors.Wrap(err, "poller: eventfd for waker")
	}
	p.wakerFD = wakerFD
	if err := p.register(wakerFD, WakerToken); err != nil {
		unix.Close(epfd)
		unix.Close(wakerFD)
		return nil, err
	}

	coordinatorFD, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		p.Close()
		return nil, errors.Wrap(err, "poller: eventfd for coordinator")
	}
	p.coordinatorFD = coordinatorFD
	if err := p.register(coordinatorFD, CoordinatorToken); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// Register starts monitoring fd for readability under token, delivered
// back from Poll's Event.Token.
func (p *Poller) Register(fd int, token uint64) error {
	return p.register(fd, token)
}

func (p *Poller) register(fd int, token uint64) error {
	p.mu.Lock()
	p.tokens[int32(fd)] = token
	p.mu.Unlock()

	ev := &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, ev); err != nil {
		p.mu.Lock()
		delete(p.tokens, int32(fd))
		p.mu.Unlock()
		return errors.Wrap(err, "poller: epoll_ctl add")
	}
	return nil
}

// Reregister changes the token associated with an already-registered fd
// without touching the kernel's interest list.
func (p *Poller) Reregister(fd int, token uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.tokens[int32(fd)]; !ok {
		return errors.New("poller: reregister of unknown fd")
	}
	p.tokens[int32(fd)] = token
	return nil
}

// Deregister stops monitoring fd.
func (p *Poller) Deregister(fd int) error {
	p.mu.Lock()
	delete(p.tokens, int32(fd))
	p.mu.Unlock()
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return errors.Wrap(err, "poller: epoll_ctl del")
	}
	return nil
}

// NudgeWaker unblocks a worker currently parked in Poll via the waker
// subsystem. Safe to call from any goroutine.
func (p *Poller) NudgeWaker() {
	nudge(p.wakerFD)
}

// NudgeCoordinator unblocks a worker currently parked in Poll because the
// coordinator has a message for it.
func (p *Poller) NudgeCoordinator() {
	nudge(p.coordinatorFD)
}

func nudge(fd int) {
	var buf [8]byte
	buf[0] = 1
	// EAGAIN means the eventfd counter is already non-zero (someone else
	// nudged first); the worker will still wake, so the write's purpose is
	// already satisfied.
	_, _ = unix.Write(fd, buf[:])
}

func drain(fd int) {
	var buf [8]byte
	for {
		_, err := unix.Read(fd, buf[:])
		if err != nil {
			return
		}
	}
}

// Poll blocks until an event is ready or timeout elapses (a negative
// timeout blocks indefinitely), returning every ready token. WakerToken and
// CoordinatorToken events have their eventfd drained before being
// returned, matching level-triggered epoll's requirement that the fd's
// counter be reset or it will report ready again immediately.
func (p *Poller) Poll(timeout time.Duration) ([]Event, error) {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}

	var raw [64]unix.EpollEvent
	p.IsPolling.Store(true)
	n, err := unix.EpollWait(p.epfd, raw[:], ms)
	p.IsPolling.Store(false)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, errors.Wrap(err, "poller: epoll_wait")
	}

	out := make([]Event, 0, n)
	p.mu.RLock()
	for i := 0; i < n; i++ {
		fd := raw[i].Fd
		token, ok := p.tokens[fd]
		if !ok {
			continue
		}
		if token == WakerToken {
			drain(p.wakerFD)
		} else if token == CoordinatorToken {
			drain(p.coordinatorFD)
		}
		out = append(out, Event{Token: token})
	}
	p.mu.RUnlock()
	return out, nil
}

// Close releases the epoll instance and both eventfds.
func (p *Poller) Close() error {
	var err error
	if p.wakerFD != 0 {
		err = unix.Close(p.wakerFD)
	}
	if p.coordinatorFD != 0 {
		if e := unix.Close(p.coordinatorFD); err == nil {
			err = e
		}
	}
	if e := unix.Close(p.epfd); err == nil {
		err = e
	}
	return err
}
