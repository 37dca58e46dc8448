package process

import (
	"container/heap"
	"sync"
)

// RunQueue holds every runnable process owned by one scheduler, ordered so
// that Next always returns the process with the smallest (runtime * weight)
// key, breaking ties toward the higher Priority.
//
// A local scheduler's RunQueue is only ever touched by its own worker; a
// shared scheduler's RunQueue is pushed to and popped from by every worker.
// Every Push, Next, Remove and Len call takes the same mutex, so a caller
// blocks while another goroutine holds it.
type RunQueue struct {
	mu   sync.Mutex
	heap dataHeap
}

// NewRunQueue returns an empty run queue.
func NewRunQueue() *RunQueue {
	return &RunQueue{}
}

// dataHeap implements container/heap.Interface over *Data, ordered by Key
// ascending with a Priority tie-break (higher Priority first).
type dataHeap []*Data

func (h dataHeap) Len() int { return len(h) }

func (h dataHeap) Less(i, j int) bool {
	ki, kj := h[i].Key(), h[j].Key()
	if ki != kj {
		return ki < kj
	}
	return h[i].Priority > h[j].Priority
}

func (h dataHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}

func (h *dataHeap) Push(x any) {
	d := x.(*Data)
	d.heapIndex = len(*h)
	*h = append(*h, d)
}

func (h *dataHeap) Pop() any {
	old := *h
	n := len(old)
	d := old[n-1]
	old[n-1] = nil
	d.heapIndex = -1
	*h = old[:n-1]
	return d
}

// Push enqueues d, marking it runnable. Pushing an already-runnable process
// is a caller bug and panics, matching the invariant in spec.md §3 that a
// process is runnable in exactly one run queue at a time.
func (rq *RunQueue) Push(d *Data) {
	if d.IsRunnable() {
		panic("process: Push of an already-runnable process")
	}
	d.setRunnable(true)
	rq.mu.Lock()
	heap.Push(&rq.heap, d)
	rq.mu.Unlock()
}

// Next removes and returns the highest-priority, lowest-key process, or nil
// if the queue is empty.
func (rq *RunQueue) Next() *Data {
	rq.mu.Lock()
	defer rq.mu.Unlock()
	if rq.heap.Len() == 0 {
		return nil
	}
	d := heap.Pop(&rq.heap).(*Data)
	d.setRunnable(false)
	return d
}

// Remove takes d out of the queue if it is present, for the "change" path
// of a restarted process being remapped to a new Data. It is a no-op if d
// is not currently enqueued.
func (rq *RunQueue) Remove(d *Data) {
	rq.mu.Lock()
	defer rq.mu.Unlock()
	if d.heapIndex < 0 || d.heapIndex >= rq.heap.Len() || rq.heap[d.heapIndex] != d {
		return
	}
	heap.Remove(&rq.heap, d.heapIndex)
	d.setRunnable(false)
}

// Len reports the number of currently enqueued processes.
func (rq *RunQueue) Len() int {
	rq.mu.Lock()
	defer rq.mu.Unlock()
	return rq.heap.Len()
}

// Empty reports whether the queue has no runnable processes. The answer is
// advisory under concurrent access: by the time the caller acts on it, a
// concurrent Push or Next from another goroutine may have changed it.
func (rq *RunQueue) Empty() bool {
	return rq.Len() == 0
}
