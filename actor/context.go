package actor

import (
	"time"

	"github.com/heph-rt/heph/actorref"
	"github.com/heph-rt/heph/pid"
	"github.com/heph-rt/heph/waker"
)

// Access is the capability surface every actor gets regardless of which
// scheduler it runs on: its own identity, a waker for itself, and deadline
// management for whatever timer set its runtime flavor owns.
type Access interface {
	Pid() pid.ID
	NewWaker() waker.Waker
	AddDeadline(at time.Time)
	RemoveDeadline() bool
	ChangeDeadline(newPid pid.ID) bool
}

// Context is what a Receiver's Receive method is given on every call: its
// own ActorRef (to hand out to other actors) plus whichever Access flavor
// it was spawned with.
type Context[M any] struct {
	Access
	self actorref.ActorRef[M]
}

// Self returns this actor's own ActorRef.
func (c *Context[M]) Self() actorref.ActorRef[M] {
	return c.self
}
