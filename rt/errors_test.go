package rt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("epoll_wait: bad file descriptor")
	err := newError(KindPolling, 3, cause)

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "worker 3")
	require.Contains(t, err.Error(), "polling")
}

func TestErrorKindString(t *testing.T) {
	require.Equal(t, "process_interrupted", KindProcessInterrupted.String())
	require.Equal(t, "worker_panic", KindWorkerPanic.String())
}

func TestPanicToError(t *testing.T) {
	require.EqualError(t, panicToError("boom"), "rt: panic: boom")

	cause := errors.New("already an error")
	require.Same(t, cause, panicToErrorUnwrap(t, cause))
}

func panicToErrorUnwrap(t *testing.T, err error) error {
	t.Helper()
	got := panicToError(err)
	require.Equal(t, err, got)
	return got
}
