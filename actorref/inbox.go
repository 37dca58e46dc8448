// Package actorref implements the mailbox and send-side handle actors use
// to talk to each other: a bounded, non-blocking inbox and the cloneable
// ActorRef that wraps it.
package actorref

import (
	"errors"
	"sync/atomic"
)

// ErrMailboxFull is returned by TrySend when the inbox is at capacity. The
// sender is never blocked to make room; per spec.md, a full mailbox is a
// delivery failure the sender observes immediately, not a reason to stall
// the worker that is trying to send.
var ErrMailboxFull = errors.New("actorref: mailbox full")

// ErrNoReceiver is returned once the receiving process has stopped and
// closed its inbox.
var ErrNoReceiver = errors.New("actorref: no receiver")

// Inbox is a bounded multi-producer, single-consumer mailbox. Any number of
// senders call TrySend concurrently; only the owning process calls
// TryReceive, from inside its own Run.
type Inbox[M any] struct {
	ch     chan M
	closed atomic.Bool
}

// NewInbox returns an empty inbox with room for capacity pending messages.
func NewInbox[M any](capacity int) *Inbox[M] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Inbox[M]{ch: make(chan M, capacity)}
}

// TrySend enqueues m without blocking.
func (ib *Inbox[M]) TrySend(m M) error {
	if ib.closed.Load() {
		return ErrNoReceiver
	}
	select {
	case ib.ch <- m:
		return nil
	default:
		return ErrMailboxFull
	}
}

// TryReceive dequeues the next message without blocking, reporting false if
// the inbox is currently empty.
func (ib *Inbox[M]) TryReceive() (M, bool) {
	select {
	case m := <-ib.ch:
		return m, true
	default:
		var zero M
		return zero, false
	}
}

// Len reports the number of currently queued messages.
func (ib *Inbox[M]) Len() int { return len(ib.ch) }

// Close marks the inbox closed: further TrySend calls fail with
// ErrNoReceiver. Already-queued messages remain readable via TryReceive so
// a process can drain its mailbox one last time while stopping.
func (ib *Inbox[M]) Close() {
	ib.closed.Store(true)
}
