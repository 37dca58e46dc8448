package scheduler

import (
	"github.com/heph-rt/heph/pid"
	"github.com/heph-rt/heph/process"
)

// Shared is the work-stealable scheduler: any worker may add to it, mark a
// process ready on it, or steal from its run queue, so every method here
// is safe for concurrent use.
type Shared struct {
	counter  *pid.Counter
	rq       *process.RunQueue
	inactive *process.SharedInactiveSet
}

// NewShared returns an empty shared scheduler.
func NewShared() *Shared {
	return &Shared{
		counter:  pid.NewCounter(pid.Shared),
		rq:       process.NewRunQueue(),
		inactive: process.NewSharedInactiveSet(),
	}
}

// AddActor registers a freshly spawned process with the shared scheduler.
// build receives the assigned pid before the process is published, so
// callers needing their own pid to build their Runnable can do so safely.
func (s *Shared) AddActor(priority process.Priority, build func(pid.ID) process.Runnable, ready bool) *process.Data {
	id := s.counter.Next()
	d := process.New(id, priority, build(id))
	if ready {
		s.rq.Push(d)
	} else {
		s.inactive.Insert(d)
	}
	return d
}

// MarkReady moves id from the inactive set into the run queue, reporting
// false if id was not parked.
func (s *Shared) MarkReady(id pid.ID) bool {
	d, ok := s.inactive.Remove(id)
	if !ok {
		return false
	}
	s.rq.Push(d)
	return true
}

// Steal pops the next process any worker may run. Despite the name this
// is the same call a worker makes to run its own share of the shared
// scheduler's work; "steal" names the cross-worker case, the common one in
// a work-stealing design.
func (s *Shared) Steal() *process.Data {
	return s.rq.Next()
}

// Park moves d into the inactive set after a Pending result.
func (s *Shared) Park(d *process.Data) {
	s.inactive.Insert(d)
}

// Forget removes id entirely after a Complete result.
func (s *Shared) Forget(id pid.ID) {
	s.inactive.Remove(id)
}

// HasProcess reports whether id is currently parked (inactive).
func (s *Shared) HasProcess(id pid.ID) bool {
	_, ok := s.inactive.Get(id)
	return ok
}

// HasReadyProcess reports whether the run queue has anything to steal.
func (s *Shared) HasReadyProcess() bool {
	return !s.rq.Empty()
}

// Len reports the total number of processes this scheduler is tracking,
// runnable or parked.
func (s *Shared) Len() int {
	return s.rq.Len() + s.inactive.Len()
}
