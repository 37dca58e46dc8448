//go:build linux

package poller

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestPollerNudgeWakerUnblocksPoll(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	defer p.Close()

	done := make(chan []Event, 1)
	go func() {
		events, err := p.Poll(5 * time.Second)
		require.NoError(t, err)
		done <- events
	}()

	time.Sleep(20 * time.Millisecond)
	p.NudgeWaker()

	select {
	case events := <-done:
		require.Contains(t, events, Event{Token: WakerToken})
	case <-time.After(2 * time.Second):
		t.Fatal("poll did not unblock after nudge")
	}
}

func TestPollerRegistersArbitraryFD(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	defer p.Close()

	r, w, err := pipe(t)
	require.NoError(t, err)
	defer unix.Close(r)
	defer unix.Close(w)

	require.NoError(t, p.Register(r, 123))

	_, err = unix.Write(w, []byte("x"))
	require.NoError(t, err)

	events, err := p.Poll(2 * time.Second)
	require.NoError(t, err)
	require.Contains(t, events, Event{Token: 123})

	require.NoError(t, p.Deregister(r))
}

func pipe(t *testing.T) (r, w int, err error) {
	t.Helper()
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return 0, 0, err
	}
	return fds[0], fds[1], nil
}
