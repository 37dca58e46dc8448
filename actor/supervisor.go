// Package actor builds the actor abstraction (message receiver, mailbox,
// supervision) on top of process and scheduler: it is what turns a bare
// schedulable process.Runnable into something with a typed mailbox and a
// restart policy.
package actor

// Directive is what a Supervisor decides to do after a Receiver returns an
// error.
type Directive int

const (
	// Restart replaces the actor's state by calling its Producer again,
	// keeping the same pid, mailbox and ActorRef so existing senders are
	// unaffected.
	Restart Directive = iota
	// Stop removes the actor permanently; its mailbox is closed and future
	// sends fail with actorref.ErrNoReceiver.
	Stop
	// RestartError is handled exactly like Restart: the Producer is called
	// again and the actor keeps its pid, mailbox and ActorRef. Nothing is
	// reported to the runtime and the actor is not stopped.
	RestartError
)

// Supervisor decides what happens after a Receiver returns a non-nil
// error. A nil Supervisor is equivalent to always returning Stop.
type Supervisor func(err error) Directive

// AlwaysRestart is a Supervisor that never gives up.
func AlwaysRestart(error) Directive { return Restart }

// AlwaysStop is a Supervisor that stops on the first error.
func AlwaysStop(error) Directive { return Stop }
