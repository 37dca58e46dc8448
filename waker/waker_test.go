package waker

import (
	"sync/atomic"
	"testing"

	"github.com/heph-rt/heph/pid"
	"github.com/stretchr/testify/require"
)

func TestWakeQueuesAndNudgesWhenPolling(t *testing.T) {
	table := NewTable()
	var polling atomic.Bool
	var nudges int

	polling.Store(true)
	table.Register(ID(0), &VTable{
		Queue:     NewQueue(),
		IsPolling: &polling,
		Nudge:     func() { nudges++ },
	})

	w := New(table, ID(0), pid.ID(4))
	w.Wake()

	vt := table.Get(ID(0))
	drained := vt.Queue.DrainInto(nil)
	require.Equal(t, []pid.ID{pid.ID(4)}, drained)
	require.Equal(t, 1, nudges)
}

func TestWakeSkipsNudgeWhenNotPolling(t *testing.T) {
	table := NewTable()
	var polling atomic.Bool
	var nudges int

	table.Register(ID(1), &VTable{
		Queue:     NewQueue(),
		IsPolling: &polling,
		Nudge:     func() { nudges++ },
	})

	New(table, ID(1), pid.ID(9)).Wake()
	require.Equal(t, 0, nudges)
}

func TestWakeOnUnregisteredWorkerIsNoop(t *testing.T) {
	table := NewTable()
	require.NotPanics(t, func() {
		New(table, ID(7), pid.ID(1)).Wake()
	})
}

func TestRegisterTwiceOnSameIDPanics(t *testing.T) {
	table := NewTable()
	var polling atomic.Bool
	table.Register(ID(2), &VTable{Queue: NewQueue(), IsPolling: &polling, Nudge: func() {}})
	require.Panics(t, func() {
		table.Register(ID(2), &VTable{Queue: NewQueue(), IsPolling: &polling, Nudge: func() {}})
	})
}

func TestWakeIsIdempotentToQueue(t *testing.T) {
	// Property 8 (idempotent wakeup): waking the same pid repeatedly before
	// it is drained must not panic or corrupt the queue; duplicate entries
	// are fine since the scheduler's mark_ready is itself idempotent.
	table := NewTable()
	var polling atomic.Bool
	table.Register(ID(3), &VTable{Queue: NewQueue(), IsPolling: &polling, Nudge: func() {}})

	w := New(table, ID(3), pid.ID(5))
	w.Wake()
	w.Wake()
	w.Wake()

	drained := table.Get(ID(3)).Queue.DrainInto(nil)
	require.Len(t, drained, 3)
}
