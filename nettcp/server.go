//go:build linux

package nettcp

import (
	"net"
	"os"

	"github.com/heph-rt/heph/actor"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Terminate asks a running Server to stop accepting new connections and
// wind down.
type Terminate struct{}

// errTerminated is the sentinel error Receive returns on Terminate. Spawn a
// Server with ServerSupervisor (or any supervisor that maps this error to
// actor.Stop) so a graceful Terminate always stops the actor instead of
// being restarted like an ordinary accept(2) failure would be.
var errTerminated = errors.New("nettcp: terminated")

// ServerSupervisor is the Supervisor to pass to actor.SpawnLocal when
// spawning a Server: every error that reaches the top-level Receiver — a
// Terminate having closed the listener, or an accept(2) failure the
// ServerOptions.AcceptSupervisor decided to escalate rather than just log —
// stops the actor outright rather than restarting it with a closed or
// stale file descriptor.
var ServerSupervisor actor.Supervisor = actor.AlwaysStop

// NewConn builds the Producer for a freshly accepted connection; addr is
// the remote peer's address.
type NewConn[M any] func(conn net.Conn, addr net.Addr) actor.Producer[M]

// Spawn starts an actor for one accepted connection. Implementations
// typically close over an actor.ThreadLocal/Shared scheduler pair and call
// actor.SpawnLocal or actor.SpawnShared.
type Spawn[M any] func(produce actor.Producer[M], opts actor.Options)

// ServerOptions configures a Server: opts for each spawned connection actor
// plus a supervisor specifically for accept(2) failures (separate from the
// connection actor's own supervisor, matching the original's Server
// split between ServerError::Accept and ServerError::NewActor).
type ServerOptions[M any] struct {
	ConnOptions      actor.Options
	AcceptSupervisor actor.Supervisor
}

// DefaultServerOptions returns default connection options and a supervisor
// that stops the server on any accept error.
func DefaultServerOptions[M any]() ServerOptions[M] {
	return ServerOptions[M]{
		ConnOptions:      actor.DefaultOptions(),
		AcceptSupervisor: actor.AlwaysStop,
	}
}

// Server is the WakeAware[Terminate] actor that accepts TCP connections and
// spawns a new actor for each one. It must run as a ThreadLocal actor: fd
// registration is only exposed through actor.FDRegistrar, which only
// ThreadLocal implements, since an epoll instance belongs to one worker.
type Server[M any] struct {
	fd      int
	addr    *net.TCPAddr
	newConn NewConn[M]
	spawn   Spawn[M]
	opts    ServerOptions[M]

	// registered is shared across every Receiver a Restart produces (via
	// the producer closure below), since the fd's epoll registration
	// outlives any one Restart: only Terminate (stop) deregisters it.
	registered *bool
}

// NewServer creates a listening socket bound to address and returns a
// Producer that accepts connections and hands each one to newConn/spawn
// once spawned on a worker via actor.SpawnLocal. The returned *net.TCPAddr
// reports the address actually bound (useful when address requests an
// ephemeral port).
func NewServer[M any](address string, newConn NewConn[M], spawn Spawn[M], opts ServerOptions[M]) (actor.Producer[Terminate], *net.TCPAddr, error) {
	fd, bound, err := newListener(address, 1024)
	if err != nil {
		return nil, nil, err
	}
	if opts.AcceptSupervisor == nil {
		opts.AcceptSupervisor = actor.AlwaysStop
	}

	registered := new(bool)
	producer := func() actor.Receiver[Terminate] {
		return &Server[M]{fd: fd, addr: bound, newConn: newConn, spawn: spawn, opts: opts, registered: registered}
	}
	return producer, bound, nil
}

// Addr returns the address this server is bound to.
func (s *Server[M]) Addr() *net.TCPAddr { return s.addr }

func (s *Server[M]) Receive(ctx *actor.Context[Terminate], _ Terminate) error {
	return s.stop(ctx)
}

// OnWake fires every time the worker schedules this actor with an empty
// mailbox: either the listener fd became readable, or (on the very first
// turn) the actor was just spawned and needs to register its fd.
func (s *Server[M]) OnWake(ctx *actor.Context[Terminate]) error {
	reg, ok := ctx.Access.(actor.FDRegistrar)
	if !ok {
		return errors.New("nettcp: Server must be spawned as a ThreadLocal actor")
	}
	if !*s.registered {
		if err := reg.RegisterFD(s.fd); err != nil {
			return err
		}
		*s.registered = true
	}

	err := acceptAll(s.fd, func(connFD int, remote unix.Sockaddr) {
		s.accept(connFD, remote)
	})
	if err != nil {
		if dir := s.opts.AcceptSupervisor(err); dir == actor.Stop {
			return s.stop(ctx)
		}
		return err
	}
	return nil
}

func (s *Server[M]) accept(connFD int, remote unix.Sockaddr) {
	f := os.NewFile(uintptr(connFD), "")
	conn, err := net.FileConn(f)
	_ = f.Close()
	if err != nil {
		unix.Close(connFD)
		return
	}
	addr := sockaddrToTCPAddr(remote)
	s.spawn(s.newConn(conn, addr), s.opts.ConnOptions)
}

func (s *Server[M]) stop(ctx *actor.Context[Terminate]) error {
	if *s.registered {
		if reg, ok := ctx.Access.(actor.FDRegistrar); ok {
			_ = reg.DeregisterFD(s.fd)
		}
		*s.registered = false
	}
	_ = unix.Close(s.fd)
	return errTerminated
}
