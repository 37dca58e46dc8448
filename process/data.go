// Package process holds the scheduler's view of a running actor: its
// identity, priority, accumulated runtime and run queue membership. It knows
// nothing about messages, mailboxes or actor state — that belongs to the
// actor package, which is built on top of this one.
package process

import (
	"sync/atomic"

	"github.com/heph-rt/heph/pid"
)

// Result is returned by a single invocation of Runnable.Run.
type Result int

const (
	// Pending means the process made progress (or none) but is not done; it
	// should be returned to the inactive set until something wakes it.
	Pending Result = iota
	// Complete means the process has finished and must never run again.
	Complete
)

func (r Result) String() string {
	if r == Complete {
		return "complete"
	}
	return "pending"
}

// Runnable is one scheduler turn of a process.
//
// Unlike the originating design, where run takes a runtime-reference
// argument on every call, Go's Runnable takes none: whatever capability a
// process needs (its ActorRef, the mailbox, a handle back into the runtime)
// is captured as a closure upvalue at construction time by the caller (the
// actor package), not re-supplied on every turn. That sidesteps a package
// cycle between process and the actor/rt packages that would otherwise both
// want to define what "runtime reference" means, and is the ordinary Go way
// to thread capability state through a callback.
type Runnable interface {
	Run() Result
}

// RunnableFunc adapts a plain function to Runnable.
type RunnableFunc func() Result

// Run implements Runnable.
func (f RunnableFunc) Run() Result { return f() }

// Data is the scheduler-owned record for one live process. It is always
// referenced through a pointer; the pointer identity, not Pid, is what the
// run queue heap compares by Swap.
type Data struct {
	Pid      pid.ID
	Priority Priority
	Runnable Runnable

	// runtimeNanos is the process's accumulated scheduled runtime, used as
	// the primary ordering key. It only ever increases.
	runtimeNanos uint64

	// runnable reports whether this process is currently sitting in a run
	// queue (true) or the inactive set (false). It is read by mark_ready
	// style callers to avoid double-enqueueing a process that is already
	// scheduled.
	runnable atomic.Bool

	// heapIndex is maintained by container/heap's Swap so Remove can locate
	// an element in O(log n) instead of a linear scan.
	heapIndex int
}

// New creates process data for a freshly spawned process. It starts with
// zero accumulated runtime and is not runnable until AddActor enqueues it
// or spec.md's "ready" spawn option is set.
func New(id pid.ID, priority Priority, runnable Runnable) *Data {
	return &Data{
		Pid:      id,
		Priority: priority,
		Runnable: runnable,
	}
}

// Runtime returns the accumulated scheduled runtime.
func (d *Data) Runtime() uint64 {
	return atomic.LoadUint64(&d.runtimeNanos)
}

// AddRuntime accrues n nanoseconds of scheduled runtime, called by the
// worker loop after every Run invocation regardless of the result.
func (d *Data) AddRuntime(n uint64) {
	atomic.AddUint64(&d.runtimeNanos, n)
}

// Key returns the run queue ordering key: accumulated runtime scaled by the
// process's priority weight. Ascending key runs first; ties break toward
// the higher Priority value, which RunQueue's Less implements directly
// rather than folding into this single uint64 (a tie-break baked into the
// key would need more bits than a uint64 multiply leaves headroom for).
func (d *Data) Key() uint64 {
	return d.Runtime() * d.Priority.weight()
}

// IsRunnable reports whether this process is currently enqueued in a run
// queue rather than sitting in an inactive set.
func (d *Data) IsRunnable() bool {
	return d.runnable.Load()
}

func (d *Data) setRunnable(v bool) {
	d.runnable.Store(v)
}
