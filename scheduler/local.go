// Package scheduler combines a pid counter, a run queue and an inactive
// set into the two scheduler flavors a worker runs: Local, owned by and
// only ever touched from a single worker goroutine, and Shared, safe for
// every worker to add to and steal from.
package scheduler

import (
	"github.com/heph-rt/heph/pid"
	"github.com/heph-rt/heph/process"
)

// Local is the thread-local scheduler: every method is only ever called
// from the worker that owns it, so nothing here takes a lock.
type Local struct {
	counter  *pid.Counter
	rq       *process.RunQueue
	inactive *process.LocalInactiveSet
}

// NewLocal returns an empty local scheduler.
func NewLocal() *Local {
	return &Local{
		counter:  pid.NewCounter(pid.Local),
		rq:       process.NewRunQueue(),
		inactive: process.NewLocalInactiveSet(),
	}
}

// AddActor registers a freshly spawned process, either placing it directly
// in the run queue (ready) or parking it in the inactive set awaiting its
// first wake. build receives the assigned pid before the process is
// published to any other goroutine, so callers that need their own pid to
// construct their Runnable (an actor closing over its own ActorRef) can do
// so without a chicken-and-egg ordering problem.
func (l *Local) AddActor(priority process.Priority, build func(pid.ID) process.Runnable, ready bool) *process.Data {
	id := l.counter.Next()
	d := process.New(id, priority, build(id))
	if ready {
		l.rq.Push(d)
	} else {
		l.inactive.Insert(d)
	}
	return d
}

// MarkReady moves id from the inactive set into the run queue. It reports
// false if id was not parked — either it is already runnable (a duplicate
// wake, which must be a harmless no-op per spec.md's idempotent-wakeup
// property) or it does not exist.
func (l *Local) MarkReady(id pid.ID) bool {
	d, ok := l.inactive.Remove(id)
	if !ok {
		return false
	}
	l.rq.Push(d)
	return true
}

// Next pops the next process to run, or nil if the run queue is empty.
func (l *Local) Next() *process.Data {
	return l.rq.Next()
}

// Park moves d (just returned Pending from a run) into the inactive set to
// await a future wake or timer.
func (l *Local) Park(d *process.Data) {
	l.inactive.Insert(d)
}

// Forget removes id entirely, called once a process returns Complete. It
// checks the inactive set only; a completed process is never in the run
// queue, since Next already removed it before the worker ran it.
func (l *Local) Forget(id pid.ID) {
	l.inactive.Remove(id)
}

// HasProcess reports whether id is currently parked (inactive).
func (l *Local) HasProcess(id pid.ID) bool {
	_, ok := l.inactive.Get(id)
	return ok
}

// HasReadyProcess reports whether the run queue has anything to run.
func (l *Local) HasReadyProcess() bool {
	return !l.rq.Empty()
}

// Len reports the total number of processes this scheduler is tracking,
// runnable or parked.
func (l *Local) Len() int {
	return l.rq.Len() + l.inactive.Len()
}
