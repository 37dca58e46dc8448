package timer

import (
	"container/heap"
	"sync"
	"time"

	"github.com/heph-rt/heph/pid"
)

// Shared is the work-stealable scheduler's deadline set: mutex-guarded,
// since any worker may arm or read a deadline that feeds the coordinator's
// shared-scheduler timeout.
type Shared struct {
	mu      sync.Mutex
	h       entryHeap
	onArmed func()
}

// NewShared returns an empty shared deadline set. onArmed, if non-nil, is
// called after every successful Add — the coordinator's nudge, since a
// newly armed shared deadline may be sooner than whatever timeout the
// coordinator last computed.
func NewShared(onArmed func()) *Shared {
	return &Shared{onArmed: onArmed}
}

// SetOnArmed replaces the callback invoked after every successful Add. It
// exists for callers that must build a Shared set before the thing it
// needs to notify (a pool of worker pollers) exists yet.
func (s *Shared) SetOnArmed(onArmed func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onArmed = onArmed
}

// Add arms a deadline for pid.
func (s *Shared) Add(deadline time.Time, id pid.ID) {
	s.mu.Lock()
	heap.Push(&s.h, entry{deadline: deadline, pid: id})
	onArmed := s.onArmed
	s.mu.Unlock()
	if onArmed != nil {
		onArmed()
	}
}

// Remove disarms one armed deadline for id; see Local.Remove for which.
func (s *Shared) Remove(id pid.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeMatching(&s.h, func(e entry) bool { return e.pid == id })
}

// Change remaps one armed deadline from oldID to newID; see Local.Change.
func (s *Shared) Change(oldID, newID pid.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.h {
		if e.pid == oldID {
			s.h[i].pid = newID
			return true
		}
	}
	return false
}

// ExpiredUntil pops and returns every pid whose deadline is at or before
// now, earliest first.
func (s *Shared) ExpiredUntil(now time.Time) []pid.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return expiredUntil(&s.h, now)
}

// NextDeadline returns the earliest armed deadline, if any.
func (s *Shared) NextDeadline() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return nextDeadline(&s.h)
}

// Len reports the number of armed deadlines.
func (s *Shared) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.Len()
}
