package actorref

import (
	"sync/atomic"
	"testing"

	"github.com/heph-rt/heph/pid"
	hwaker "github.com/heph-rt/heph/waker"
	"github.com/stretchr/testify/require"
)

func testWaker() (hwaker.Waker, *int32) {
	table := hwaker.NewTable()
	var polling atomic.Bool
	var nudges int32
	polling.Store(true)
	table.Register(hwaker.ID(0), &hwaker.VTable{
		Queue:     hwaker.NewQueue(),
		IsPolling: &polling,
		Nudge:     func() { atomic.AddInt32(&nudges, 1) },
	})
	return hwaker.New(table, hwaker.ID(0), pid.ID(1)), &nudges
}

func TestActorRefSendWakesTarget(t *testing.T) {
	inbox := NewInbox[string](4)
	w, nudges := testWaker()
	ref := New[string](pid.ID(1), inbox, w)

	require.NoError(t, ref.Send("hello"))
	require.Equal(t, int32(1), atomic.LoadInt32(nudges))

	msg, ok := inbox.TryReceive()
	require.True(t, ok)
	require.Equal(t, "hello", msg)
}

func TestActorRefSendFullMailbox(t *testing.T) {
	inbox := NewInbox[int](1)
	w, _ := testWaker()
	ref := New[int](pid.ID(1), inbox, w)

	require.NoError(t, ref.Send(1))
	require.ErrorIs(t, ref.Send(2), ErrMailboxFull)
}

func TestActorRefSendAfterClose(t *testing.T) {
	inbox := NewInbox[int](1)
	w, _ := testWaker()
	ref := New[int](pid.ID(1), inbox, w)

	inbox.Close()
	require.ErrorIs(t, ref.Send(1), ErrNoReceiver)
}
