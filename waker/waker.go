package waker

import "github.com/heph-rt/heph/pid"

// Waker is a cloneable handle that wakes one specific process on one
// specific worker. Actor code receives a Waker (indirectly, through
// whatever async primitive it awaits) and calls Wake when the awaited
// condition becomes true.
type Waker struct {
	table *Table
	id    ID
	pid   pid.ID
}

// New returns a Waker for pid on the worker registered at id in table.
func New(table *Table, id ID, target pid.ID) Waker {
	return Waker{table: table, id: id, pid: target}
}

// Wake pushes the target pid onto its worker's wake queue and, if that
// worker is currently blocked in its OS poller, nudges it awake. Waking
// through an id with no registered worker (Get returns nil) is a silent
// no-op.
func (w Waker) Wake() {
	vt := w.table.Get(w.id)
	if vt == nil {
		return
	}
	vt.Queue.Push(w.pid)
	if vt.IsPolling.Load() {
		vt.Nudge()
	}
}

// Pid returns the process this waker targets.
func (w Waker) Pid() pid.ID { return w.pid }
