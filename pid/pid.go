// Package pid defines the process identifier used throughout the runtime.
package pid

import "sync/atomic"

// Scope records which scheduler a ID belongs to, encoded in its low bit so
// an OS readiness token can be routed back to the right scheduler without a
// second lookup.
type Scope uint64

const (
	// Local identifies a process owned by a single worker's thread-local
	// scheduler.
	Local Scope = 0
	// Shared identifies a process owned by the work-stealable scheduler.
	Shared Scope = 1
)

// reservedBits is the number of low-order bits reserved to encode Scope plus
// one bit of allocator alignment slack (mirroring spec.md's "mask of two
// bits" for the readiness token).
const reservedBits = 2

// ID is an opaque, unique handle for a live process. It is also used
// directly as the OS-poller readiness token and as the waker key.
//
// Invalid is never issued by a counter and is safe to compare against.
type ID uint64

// Invalid is the zero ID; no live process is ever assigned it.
const Invalid ID = 0

// Scope reports which scheduler issued id.
func (id ID) Scope() Scope {
	return Scope(uint64(id) & 0b1)
}

// Valid reports whether id could have been issued by a counter (nonzero).
func (id ID) Valid() bool {
	return id != Invalid
}

// Counter issues unique, monotonically increasing IDs for one scope.
//
// spec.md's "Pid-as-pointer" design note permits substituting an atomic
// counter plus a pid-to-data map when the host language forbids
// pointer-to-integer casts, and names this as an acceptable Go realization;
// see SPEC_FULL.md's PID representation resolution for the rationale.
type Counter struct {
	next atomic.Uint64
	scope Scope
}

// NewCounter creates a Counter that issues IDs tagged with scope.
func NewCounter(scope Scope) *Counter {
	c := &Counter{scope: scope}
	// Start at 1 (after shifting) so ID zero (Invalid) is never issued.
	c.next.Store(1)
	return c
}

// Next returns the next unique ID for this counter's scope.
func (c *Counter) Next() ID {
	n := c.next.Add(1) - 1
	return ID(n<<reservedBits | uint64(c.scope))
}
