package rt

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies a runtime-level failure, mirroring the closed set of
// fatal error kinds a worker can surface to the coordinator.
type ErrorKind int

const (
	// KindPolling is a failure from the OS poller itself (epoll_wait).
	KindPolling ErrorKind = iota
	// KindRecvMsg is a failure receiving from the coordinator channel.
	KindRecvMsg
	// KindProcessInterrupted means a signal was relayed to an actor with no
	// subscribed receivers and the signal demanded one (ShouldStop).
	KindProcessInterrupted
	// KindUserFunction names a failure in user code. No path in the runtime
	// returns it: a panic inside an actor's Run is logged by the worker and
	// that process is treated as Complete, and a panic inside a function
	// passed to RunOnWorker surfaces as KindWorkerPanic.
	KindUserFunction
	// KindNewActor is a failure constructing an actor's initial state (a
	// Producer panic or error at spawn time).
	KindNewActor
	// KindSetupError is a failure during worker or coordinator startup,
	// before the schedule loop begins.
	KindSetupError
	// KindWorkerPanic is a panic recovered from the worker's own schedule
	// loop, outside of any single actor's Run call.
	KindWorkerPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindPolling:
		return "polling"
	case KindRecvMsg:
		return "recv_msg"
	case KindProcessInterrupted:
		return "process_interrupted"
	case KindUserFunction:
		return "user_function"
	case KindNewActor:
		return "new_actor"
	case KindSetupError:
		return "setup_error"
	case KindWorkerPanic:
		return "worker_panic"
	default:
		return "unknown"
	}
}

// Error is the runtime's closed error type. It wraps an underlying cause
// and records which worker and which kind of failure produced it.
type Error struct {
	Kind   ErrorKind
	Worker int
	Err    error
}

// newError wraps err with pkg/errors so a %+v format verb carries a stack
// trace during development, per SPEC_FULL.md's error handling section.
func newError(kind ErrorKind, worker int, err error) *Error {
	return &Error{Kind: kind, Worker: worker, Err: errors.WithStack(err)}
}

func (e *Error) Error() string {
	return fmt.Sprintf("rt: worker %d: %s: %v", e.Worker, e.Kind, e.Err)
}

// Unwrap exposes the underlying cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Err }
