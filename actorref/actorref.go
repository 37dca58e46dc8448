package actorref

import (
	"github.com/heph-rt/heph/pid"
	"github.com/heph-rt/heph/waker"
)

// ActorRef is a cloneable, send-capable handle to a running process. Many
// goroutines may hold and use the same ActorRef concurrently.
type ActorRef[M any] struct {
	pid   pid.ID
	inbox *Inbox[M]
	waker waker.Waker
}

// New wraps inbox and waker into an ActorRef for the process identified by
// id. Callers are the actor package's spawn path, which owns the inbox and
// waker construction.
func New[M any](id pid.ID, inbox *Inbox[M], w waker.Waker) ActorRef[M] {
	return ActorRef[M]{pid: id, inbox: inbox, waker: w}
}

// Pid returns the target process's id.
func (r ActorRef[M]) Pid() pid.ID { return r.pid }

// Send delivers m to the target's mailbox and, on success, wakes the
// target so its next scheduler turn observes the message. It never blocks:
// a full mailbox or a stopped target surfaces as an error instead.
func (r ActorRef[M]) Send(m M) error {
	if err := r.inbox.TrySend(m); err != nil {
		return err
	}
	r.waker.Wake()
	return nil
}
