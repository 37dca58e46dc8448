package process

import (
	"testing"

	"github.com/heph-rt/heph/pid"
	"github.com/stretchr/testify/require"
)

func noopRunnable() Result { return Pending }

func TestRunQueueOrdersByKeyThenPriority(t *testing.T) {
	rq := NewRunQueue()

	low := New(pid.ID(2), Low, RunnableFunc(noopRunnable))
	low.AddRuntime(10)

	high := New(pid.ID(4), High, RunnableFunc(noopRunnable))
	high.AddRuntime(10)

	rq.Push(low)
	rq.Push(high)

	first := rq.Next()
	require.Same(t, high, first, "equal runtime should break ties toward higher priority")

	second := rq.Next()
	require.Same(t, low, second)

	require.Nil(t, rq.Next())
}

func TestRunQueuePushMarksRunnable(t *testing.T) {
	rq := NewRunQueue()
	d := New(pid.ID(6), Normal, RunnableFunc(noopRunnable))
	require.False(t, d.IsRunnable())

	rq.Push(d)
	require.True(t, d.IsRunnable())

	require.Panics(t, func() { rq.Push(d) }, "pushing an already-runnable process is a bug")

	out := rq.Next()
	require.Same(t, d, out)
	require.False(t, d.IsRunnable())
}

func TestRunQueueRemove(t *testing.T) {
	rq := NewRunQueue()
	a := New(pid.ID(8), Normal, RunnableFunc(noopRunnable))
	b := New(pid.ID(10), Normal, RunnableFunc(noopRunnable))
	rq.Push(a)
	rq.Push(b)
	require.Equal(t, 2, rq.Len())

	rq.Remove(a)
	require.Equal(t, 1, rq.Len())
	require.False(t, a.IsRunnable())

	// removing twice is a no-op, not a panic
	rq.Remove(a)

	out := rq.Next()
	require.Same(t, b, out)
}

func TestRunQueueEmpty(t *testing.T) {
	rq := NewRunQueue()
	require.True(t, rq.Empty())
	rq.Push(New(pid.ID(12), Normal, RunnableFunc(noopRunnable)))
	require.False(t, rq.Empty())
}
