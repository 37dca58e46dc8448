// Package timer implements heph's two deadline sets: the thread-local set
// each worker drains without locking, and the shared set workers across the
// runtime contend on when an actor on one worker sets a deadline relevant
// to the shared scheduler.
package timer

import (
	"container/heap"
	"time"

	"github.com/heph-rt/heph/pid"
)

// entry is one (deadline, pid) pair. A single pid may appear more than
// once: spec.md treats the deadline set as a multiset, since an actor can
// arm more than one timer.
type entry struct {
	deadline time.Time
	pid      pid.ID
}

type entryHeap []entry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)         { *h = append(*h, x.(entry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// removeMatching removes the first entry satisfying match and reports
// whether one was found. Deadline sets in a single worker are small (one
// or a handful of pending timers per actor), so a linear scan plus
// container/heap.Fix is simpler than threading heap indices through pid
// lookups for a structure this size; see DESIGN.md.
func removeMatching(h *entryHeap, match func(entry) bool) bool {
	for i, e := range *h {
		if match(e) {
			heap.Remove(h, i)
			return true
		}
	}
	return false
}

func expiredUntil(h *entryHeap, now time.Time) []pid.ID {
	var out []pid.ID
	for h.Len() > 0 && !(*h)[0].deadline.After(now) {
		e := heap.Pop(h).(entry)
		out = append(out, e.pid)
	}
	return out
}

func nextDeadline(h *entryHeap) (time.Time, bool) {
	if h.Len() == 0 {
		return time.Time{}, false
	}
	return (*h)[0].deadline, true
}
