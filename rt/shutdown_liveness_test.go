package rt

import (
	"errors"
	"testing"
	"time"

	"github.com/heph-rt/heph/actor"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errQuickStop = errors.New("rt: quick stop")

// quickStopActor completes the instant the scheduler ever runs it: on a
// message via Receive, or on an empty mailbox via OnWake.
type quickStopActor struct{}

func (quickStopActor) Receive(*actor.Context[struct{}], struct{}) error { return errQuickStop }
func (quickStopActor) OnWake(*actor.Context[struct{}]) error            { return errQuickStop }

// TestShutdownReturnsPromptlyAfterActorCompletesBeforeStart ports the
// original's issue_323 regression: a short-lived actor whose work is
// already done before the runtime ever runs a schedule loop must not keep
// the coordinator's stop/wait path from returning.
func TestShutdownReturnsPromptlyAfterActorCompletesBeforeStart(t *testing.T) {
	r, err := New(Config{NumWorkers: 2, Logger: zap.NewNop()})
	require.NoError(t, err)

	// Spawned before Start, ready immediately: by the time any worker
	// goroutine exists, this process is already sitting in the shared run
	// queue waiting to complete on its very first turn.
	SpawnShared[struct{}](r, func() actor.Receiver[struct{}] {
		return quickStopActor{}
	}, actor.DefaultOptions())

	sigRef := SpawnLocal[Signal](r, 0, func() actor.Receiver[Signal] {
		return actor.ReceiverFunc[Signal](func(_ *actor.Context[Signal], msg Signal) error {
			if msg.Kind == SignalShutdown {
				return errActorDone
			}
			return nil
		})
	}, actor.DefaultOptions())
	r.Subscribe(sigRef)

	done := make(chan error, 1)
	go func() {
		r.Start()
		done <- r.Shutdown("regression complete")
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runtime did not shut down promptly after an actor completed before Start")
	}
}
