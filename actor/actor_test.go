package actor

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/heph-rt/heph/actorref"
	"github.com/heph-rt/heph/poller"
	"github.com/heph-rt/heph/process"
	"github.com/heph-rt/heph/scheduler"
	"github.com/heph-rt/heph/timer"
	"github.com/heph-rt/heph/waker"
	"github.com/stretchr/testify/require"
)

func newTestRig() (*scheduler.Local, *scheduler.Shared, *timer.Local, *timer.Shared, *waker.Table, waker.ID, *poller.Poller) {
	local := scheduler.NewLocal()
	shared := scheduler.NewShared()
	localTimers := timer.NewLocal()
	sharedTimers := timer.NewShared(nil)

	table := waker.NewTable()
	var polling atomic.Bool
	queue := waker.NewQueue()
	table.Register(waker.ID(0), &waker.VTable{Queue: queue, IsPolling: &polling, Nudge: func() {}})

	p, err := poller.New()
	if err != nil {
		panic(err)
	}

	return local, shared, localTimers, sharedTimers, table, waker.ID(0), p
}

type echoReceiver struct {
	received *[]string
}

func (r echoReceiver) Receive(ctx *Context[string], msg string) error {
	*r.received = append(*r.received, msg)
	return nil
}

func TestSpawnLocalProcessesQueuedMessages(t *testing.T) {
	local, shared, lt, st, table, wid, p := newTestRig()

	var received []string
	ref := SpawnLocal[string](local, shared, lt, st, table, wid, p, func() Receiver[string] {
		return echoReceiver{received: &received}
	}, DefaultOptions())

	require.NoError(t, ref.Send("a"))
	require.NoError(t, ref.Send("b"))

	d := local.Next()
	require.NotNil(t, d)
	result := d.Runnable.Run()
	require.Equal(t, process.Pending, result)
	require.Equal(t, []string{"a", "b"}, received)
}

var errBoom = errors.New("boom")

type failingOnce struct {
	failed *bool
}

func (r *failingOnce) Receive(ctx *Context[int], msg int) error {
	if !*r.failed {
		*r.failed = true
		return errBoom
	}
	return nil
}

func TestSupervisorRestartReplacesReceiver(t *testing.T) {
	local, shared, lt, st, table, wid, p := newTestRig()

	restarts := 0
	opts := DefaultOptions()
	opts.Supervisor = func(err error) Directive {
		restarts++
		return Restart
	}

	ref := SpawnLocal[int](local, shared, lt, st, table, wid, p, func() Receiver[int] {
		failed := false
		return &failingOnce{failed: &failed}
	}, opts)

	require.NoError(t, ref.Send(1))
	require.NoError(t, ref.Send(2))

	d := local.Next()
	d.Runnable.Run()
	require.Equal(t, 1, restarts)
}

func TestSupervisorStopClosesMailbox(t *testing.T) {
	local, shared, lt, st, table, wid, p := newTestRig()

	opts := DefaultOptions()
	opts.Supervisor = AlwaysStop

	ref := SpawnLocal[int](local, shared, lt, st, table, wid, p, func() Receiver[int] {
		return ReceiverFunc[int](func(ctx *Context[int], msg int) error { return errBoom })
	}, opts)

	require.NoError(t, ref.Send(1))

	d := local.Next()
	result := d.Runnable.Run()
	require.Equal(t, process.Complete, result)

	require.ErrorIs(t, ref.Send(2), actorref.ErrNoReceiver)
}

type wakeCounter struct {
	receives int
	wakes    int
}

func (r *wakeCounter) Receive(ctx *Context[int], msg int) error {
	r.receives++
	return nil
}

func (r *wakeCounter) OnWake(ctx *Context[int]) error {
	r.wakes++
	return nil
}

func TestWakeAwareCalledOnlyOnEmptyTurn(t *testing.T) {
	local, shared, lt, st, table, wid, p := newTestRig()

	counter := &wakeCounter{}
	ref := SpawnLocal[int](local, shared, lt, st, table, wid, p, func() Receiver[int] {
		return counter
	}, DefaultOptions())

	require.NoError(t, ref.Send(1))
	d := local.Next()
	result := d.Runnable.Run()
	require.Equal(t, process.Pending, result)
	require.Equal(t, 1, counter.receives)
	require.Equal(t, 0, counter.wakes, "a turn with a message must not also call OnWake")

	// Simulate what the worker loop does with a Pending result: park it,
	// then mark it ready again (as a timer or waker firing would).
	local.Park(d)
	require.True(t, local.MarkReady(d.Pid))

	d2 := local.Next()
	require.Same(t, d, d2)
	d2.Runnable.Run()
	require.Equal(t, 1, counter.wakes, "a turn with an empty mailbox calls OnWake once")
}
