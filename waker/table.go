// Package waker implements the user-space wake path: turning "this pid is
// ready to run again" into a pushed queue entry plus, if the target
// worker's OS poller is currently blocked, a nudge to unblock it.
package waker

import "sync/atomic"

// ID identifies one worker's entry in the process-wide Table. It is handed
// out once per worker at startup and never reused.
type ID uint32

// VTable is everything Wake needs to reach into a specific worker: its wake
// queue, whether it is currently parked in the OS poller, and how to kick
// it awake if so.
type VTable struct {
	Queue *Queue

	// IsPolling is toggled by the owning worker itself immediately before
	// and after a blocking poll call. Wake only pays for a Nudge when it
	// observes this set, matching spec.md's "nudge only if is_polling".
	IsPolling *atomic.Bool

	// Nudge unblocks a blocked poll call, typically by writing to an
	// eventfd the poller also watches.
	Nudge func()
}

// maxWorkers bounds the Table's fixed array. Heph-sized deployments run at
// most one worker per CPU core; a few hundred is a generous ceiling without
// resorting to a growable, lock-requiring structure for what spec.md
// describes as an append-only table.
const maxWorkers = 256

// Table is a process-global, append-only directory of worker VTables.
// Entries are written exactly once, at worker startup, and never cleared
// or replaced while the runtime lives: readers never need to coordinate
// with a concurrent removal.
type Table struct {
	entries [maxWorkers]atomic.Pointer[VTable]
}

// NewTable returns an empty waker table.
func NewTable() *Table {
	return &Table{}
}

// Register installs vt at id. It panics if id is already registered or out
// of range: both are programmer errors, since worker ids are assigned once
// at startup by the coordinator.
func (t *Table) Register(id ID, vt *VTable) {
	if int(id) >= len(t.entries) {
		panic("waker: worker id out of range")
	}
	if !t.entries[id].CompareAndSwap(nil, vt) {
		panic("waker: worker id already registered")
	}
}

// Get returns the VTable registered at id, or nil if no worker was ever
// registered there or id is out of range. Entries are never cleared, so a
// registered id keeps returning its VTable.
func (t *Table) Get(id ID) *VTable {
	if int(id) >= len(t.entries) {
		return nil
	}
	return t.entries[id].Load()
}
