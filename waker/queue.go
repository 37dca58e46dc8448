package waker

import (
	"sync"

	"github.com/heph-rt/heph/pid"
)

// Queue is a multi-producer, single-consumer queue of woken pids. Many
// wakers across many goroutines push into it; only the worker that owns it
// ever drains it, from Schedule's "drain waker queue" phase.
//
// A genuinely lock-free MPSC ring would avoid the mutex below, but a
// single uncontended sync.Mutex around an append/drain slice is already
// cheap in Go and keeps this queue's correctness obvious; see DESIGN.md.
type Queue struct {
	mu    sync.Mutex
	items []pid.ID
}

// NewQueue returns an empty wake queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push enqueues id. Safe to call from any goroutine.
func (q *Queue) Push(id pid.ID) {
	q.mu.Lock()
	q.items = append(q.items, id)
	q.mu.Unlock()
}

// DrainInto appends every currently queued pid to dst and returns the
// extended slice, leaving the queue empty. Only the owning worker should
// call this.
func (q *Queue) DrainInto(dst []pid.ID) []pid.ID {
	q.mu.Lock()
	dst = append(dst, q.items...)
	q.items = q.items[:0]
	q.mu.Unlock()
	return dst
}

// Len reports the number of currently queued wakeups. Advisory under
// concurrent Push.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
