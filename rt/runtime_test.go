package rt

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/heph-rt/heph/actor"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// errStopOnShutdown is what a signal subscriber returns from Receive on
// SignalShutdown so its own process completes instead of sitting parked
// forever: worker.run only returns once its local scheduler has nothing
// left tracked, runnable or parked, so a subscriber that never stops
// itself would keep Shutdown from ever returning.
var errStopOnShutdown = errors.New("rt: stopping on shutdown signal")

// errActorDone is returned by a test actor once it has nothing left to do,
// for the same reason: left parked, it would keep Shutdown from returning.
var errActorDone = errors.New("rt: test actor done")

func TestRuntimeDeliversMessagesAndShutsDown(t *testing.T) {
	r, err := New(Config{NumWorkers: 1, Logger: zap.NewNop()})
	require.NoError(t, err)

	var mu sync.Mutex
	var received []string

	ref := SpawnLocal[string](r, 0, func() actor.Receiver[string] {
		return actor.ReceiverFunc[string](func(ctx *actor.Context[string], msg string) error {
			mu.Lock()
			received = append(received, msg)
			done := len(received) == 2
			mu.Unlock()
			if done {
				return errActorDone
			}
			return nil
		})
	}, actor.DefaultOptions())

	sigRef := SpawnLocal[Signal](r, 0, func() actor.Receiver[Signal] {
		return actor.ReceiverFunc[Signal](func(ctx *actor.Context[Signal], msg Signal) error {
			if msg.Kind == SignalShutdown {
				return errStopOnShutdown
			}
			return nil
		})
	}, actor.DefaultOptions())
	r.Subscribe(sigRef)

	r.Start()

	require.NoError(t, ref.Send("hello"))
	require.NoError(t, ref.Send("world"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	require.Equal(t, []string{"hello", "world"}, received)
	mu.Unlock()

	require.NoError(t, r.Shutdown("test complete"))
}

func TestRuntimeShutdownWithNoSubscriberIsFatal(t *testing.T) {
	r, err := New(Config{NumWorkers: 1, Logger: zap.NewNop()})
	require.NoError(t, err)

	r.Start()
	err = r.Shutdown("no one is listening")
	require.Error(t, err)
}

func TestRuntimeTimerDeadlineWakesActor(t *testing.T) {
	r, err := New(Config{NumWorkers: 1, Logger: zap.NewNop()})
	require.NoError(t, err)

	fired := make(chan struct{}, 1)
	ref := SpawnLocal[struct{}](r, 0, func() actor.Receiver[struct{}] {
		return &deadlineOnceActor{fired: fired}
	}, actor.DefaultOptions())

	sigRef := SpawnLocal[Signal](r, 0, func() actor.Receiver[Signal] {
		return actor.ReceiverFunc[Signal](func(ctx *actor.Context[Signal], msg Signal) error {
			if msg.Kind == SignalShutdown {
				return errStopOnShutdown
			}
			return nil
		})
	}, actor.DefaultOptions())
	r.Subscribe(sigRef)

	r.Start()
	require.NoError(t, ref.Send(struct{}{}))

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("actor was never woken by its deadline")
	}

	require.NoError(t, r.Shutdown("done"))
}

// deadlineOnceActor arms a deadline the first time it is run (triggered by
// receiving its one kick-off message) and reports on fired the first time
// it is woken again with nothing in its mailbox.
type deadlineOnceActor struct {
	armed bool
	fired chan struct{}
}

func (a *deadlineOnceActor) Receive(ctx *actor.Context[struct{}], _ struct{}) error {
	a.armed = true
	ctx.AddDeadline(time.Now().Add(20 * time.Millisecond))
	return nil
}

func (a *deadlineOnceActor) OnWake(ctx *actor.Context[struct{}]) error {
	if !a.armed {
		return nil
	}
	select {
	case a.fired <- struct{}{}:
	default:
	}
	return errActorDone
}
