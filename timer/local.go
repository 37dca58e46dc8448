package timer

import (
	"time"

	"container/heap"

	"github.com/heph-rt/heph/pid"
)

// Local is a worker-owned deadline set. It is never locked: only the
// worker that owns it calls into it, from the schedule phase.
type Local struct {
	h entryHeap
}

// NewLocal returns an empty local deadline set.
func NewLocal() *Local {
	return &Local{}
}

// Add arms a deadline for pid.
func (l *Local) Add(deadline time.Time, id pid.ID) {
	heap.Push(&l.h, entry{deadline: deadline, pid: id})
}

// Remove disarms one armed deadline for id, reporting whether one was
// found. If id has several, the first found scanning the heap's backing
// slice is removed, which is not necessarily the earliest.
func (l *Local) Remove(id pid.ID) bool {
	return removeMatching(&l.h, func(e entry) bool { return e.pid == id })
}

// Change remaps one armed deadline from oldID to newID (the first found,
// as in Remove), used when
// a process is restarted and reassigned a fresh pid but keeps its pending
// timer.
func (l *Local) Change(oldID, newID pid.ID) bool {
	for i, e := range l.h {
		if e.pid == oldID {
			l.h[i].pid = newID
			return true
		}
	}
	return false
}

// ExpiredUntil pops and returns every pid whose deadline is at or before
// now, earliest first.
func (l *Local) ExpiredUntil(now time.Time) []pid.ID {
	return expiredUntil(&l.h, now)
}

// NextDeadline returns the earliest armed deadline, if any.
func (l *Local) NextDeadline() (time.Time, bool) {
	return nextDeadline(&l.h)
}

// Len reports the number of armed deadlines.
func (l *Local) Len() int { return l.h.Len() }
