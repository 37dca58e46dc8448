package actor

import (
	"time"

	"github.com/heph-rt/heph/pid"
	"github.com/heph-rt/heph/poller"
	"github.com/heph-rt/heph/scheduler"
	"github.com/heph-rt/heph/timer"
	"github.com/heph-rt/heph/waker"
)

// FDRegistrar is the capability to bind an OS file descriptor to this
// actor's own pid as an epoll readiness token, so the worker's schedule
// phase marks this actor ready the moment the descriptor becomes readable —
// the same mechanism nettcp.Server uses to notice a pending Accept without
// a dedicated goroutine per listener. Only ThreadLocal implements it: a
// descriptor is owned by one worker's poller, so only an actor pinned to
// that worker can safely register against it.
type FDRegistrar interface {
	RegisterFD(fd int) error
	DeregisterFD(fd int) error
}

// ThreadLocal is the Access flavor for actors spawned on a worker's local
// scheduler. It can spawn further actors on either the local scheduler
// (cheap, same worker) or the shared one (for actors other workers may
// later steal), matching the original design's PrivateSpawn split.
type ThreadLocal struct {
	pid          pid.ID
	local        *scheduler.Local
	shared       *scheduler.Shared
	localTimers  *timer.Local
	sharedTimers *timer.Shared
	wakerTable   *waker.Table
	wakerID      waker.ID
	poller       *poller.Poller
}

func newThreadLocal(id pid.ID, local *scheduler.Local, shared *scheduler.Shared, localTimers *timer.Local, sharedTimers *timer.Shared, table *waker.Table, wakerID waker.ID, p *poller.Poller) *ThreadLocal {
	return &ThreadLocal{pid: id, local: local, shared: shared, localTimers: localTimers, sharedTimers: sharedTimers, wakerTable: table, wakerID: wakerID, poller: p}
}

func (a *ThreadLocal) Pid() pid.ID          { return a.pid }
func (a *ThreadLocal) NewWaker() waker.Waker { return waker.New(a.wakerTable, a.wakerID, a.pid) }
func (a *ThreadLocal) AddDeadline(at time.Time) { a.localTimers.Add(at, a.pid) }
func (a *ThreadLocal) RemoveDeadline() bool      { return a.localTimers.Remove(a.pid) }
func (a *ThreadLocal) ChangeDeadline(newPid pid.ID) bool {
	return a.localTimers.Change(a.pid, newPid)
}

// Local returns the worker-local scheduler this access can spawn onto.
func (a *ThreadLocal) Local() *scheduler.Local { return a.local }

// Shared returns the work-stealable scheduler this access can also spawn
// onto.
func (a *ThreadLocal) Shared() *scheduler.Shared { return a.shared }

// RegisterFD registers fd with this worker's poller, using this actor's own
// pid as the readiness token. A later Poll reporting that token marks this
// actor's process ready exactly the way a waker or timer would.
func (a *ThreadLocal) RegisterFD(fd int) error {
	return a.poller.Register(fd, uint64(a.pid))
}

// DeregisterFD stops monitoring fd, typically called when the actor holding
// it is about to stop.
func (a *ThreadLocal) DeregisterFD(fd int) error {
	return a.poller.Deregister(fd)
}

// ThreadSafe is the Access flavor for actors spawned on the shared
// scheduler: every method, and the scheduler it spawns onto, is safe to
// call from any worker.
type ThreadSafe struct {
	pid          pid.ID
	shared       *scheduler.Shared
	sharedTimers *timer.Shared
	wakerTable   *waker.Table
	wakerID      waker.ID
}

func newThreadSafe(id pid.ID, shared *scheduler.Shared, sharedTimers *timer.Shared, table *waker.Table, wakerID waker.ID) *ThreadSafe {
	return &ThreadSafe{pid: id, shared: shared, sharedTimers: sharedTimers, wakerTable: table, wakerID: wakerID}
}

func (a *ThreadSafe) Pid() pid.ID           { return a.pid }
func (a *ThreadSafe) NewWaker() waker.Waker { return waker.New(a.wakerTable, a.wakerID, a.pid) }
func (a *ThreadSafe) AddDeadline(at time.Time) { a.sharedTimers.Add(at, a.pid) }
func (a *ThreadSafe) RemoveDeadline() bool      { return a.sharedTimers.Remove(a.pid) }
func (a *ThreadSafe) ChangeDeadline(newPid pid.ID) bool {
	return a.sharedTimers.Change(a.pid, newPid)
}

// Shared returns the scheduler this access spawns further actors onto.
func (a *ThreadSafe) Shared() *scheduler.Shared { return a.shared }

// Sync is the Access flavor for actors driven synchronously from outside
// the scheduler loop — a blocking entry point (a CLI command, a test) that
// still needs to spawn thread-safe actors and arm deadlines against the
// shared scheduler's timer set. It carries no pid of its own worth
// exposing to other actors: spec.md's synchronous-actor addition is a
// caller-side capability handle, not a scheduled process.
type Sync struct {
	shared       *scheduler.Shared
	sharedTimers *timer.Shared
}

// NewSync returns a Sync access bound to the given shared scheduler and
// timer set.
func NewSync(shared *scheduler.Shared, sharedTimers *timer.Shared) *Sync {
	return &Sync{shared: shared, sharedTimers: sharedTimers}
}

// Shared returns the scheduler Sync spawns actors onto.
func (s *Sync) Shared() *scheduler.Shared { return s.shared }

// Timers returns the shared deadline set Sync can arm against.
func (s *Sync) Timers() *timer.Shared { return s.sharedTimers }
