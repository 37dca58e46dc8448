package actor

import (
	"github.com/heph-rt/heph/actorref"
	"github.com/heph-rt/heph/pid"
	"github.com/heph-rt/heph/poller"
	"github.com/heph-rt/heph/process"
	"github.com/heph-rt/heph/scheduler"
	"github.com/heph-rt/heph/timer"
	"github.com/heph-rt/heph/waker"
)

// Receiver is actor code: one call per queued message. Returning a non-nil
// error hands control to the Supervisor to decide whether to Restart, Stop
// or RestartError.
type Receiver[M any] interface {
	Receive(ctx *Context[M], msg M) error
}

// ReceiverFunc adapts a plain function to Receiver.
type ReceiverFunc[M any] func(ctx *Context[M], msg M) error

func (f ReceiverFunc[M]) Receive(ctx *Context[M], msg M) error { return f(ctx, msg) }

// Producer builds a fresh Receiver, called once at spawn and again on
// every Restart.
type Producer[M any] func() Receiver[M]

// Options configures a spawn.
type Options struct {
	Priority        process.Priority
	Ready           bool
	MailboxCapacity int
	Supervisor      Supervisor
}

// DefaultOptions returns sane defaults: Normal priority, runnable
// immediately, a small mailbox, and a supervisor that stops on error.
func DefaultOptions() Options {
	return Options{
		Priority:        process.Normal,
		Ready:           true,
		MailboxCapacity: 16,
		Supervisor:      AlwaysStop,
	}
}

// maxMessagesPerTurn bounds how many queued messages a single Run call
// drains before yielding Pending back to the scheduler, so one chatty
// actor's mailbox cannot starve every other runnable process sharing the
// worker.
const maxMessagesPerTurn = 32

// WakeAware is an optional Receiver extension for actors that arm
// deadlines or otherwise need to act on a turn where the scheduler ran
// them but their mailbox is empty — a timer firing or a waker firing with
// no accompanying message. Most actors don't need it: a Receiver that
// doesn't implement it simply yields Pending on an empty turn.
type WakeAware[M any] interface {
	Receiver[M]
	OnWake(ctx *Context[M]) error
}

func runTurn[M any](ctx *Context[M], inbox *actorref.Inbox[M], receiverPtr *Receiver[M], supervisor Supervisor, producer Producer[M]) process.Result {
	if supervisor == nil {
		supervisor = AlwaysStop
	}
	for i := 0; i < maxMessagesPerTurn; i++ {
		msg, ok := inbox.TryReceive()
		if !ok {
			if i == 0 {
				if err := handleWake(ctx, receiverPtr, producer); err != nil {
					return applySupervision(err, supervisor, inbox, receiverPtr, producer)
				}
			}
			return process.Pending
		}

		err := (*receiverPtr).Receive(ctx, msg)
		if err == nil {
			continue
		}

		if result, stop := applySupervisionResult(err, supervisor, inbox, receiverPtr, producer); stop {
			return result
		}
	}
	return process.Pending
}

func handleWake[M any](ctx *Context[M], receiverPtr *Receiver[M], producer Producer[M]) error {
	wa, ok := (*receiverPtr).(WakeAware[M])
	if !ok {
		return nil
	}
	return wa.OnWake(ctx)
}

func applySupervision[M any](err error, supervisor Supervisor, inbox *actorref.Inbox[M], receiverPtr *Receiver[M], producer Producer[M]) process.Result {
	result, _ := applySupervisionResult(err, supervisor, inbox, receiverPtr, producer)
	return result
}

func applySupervisionResult[M any](err error, supervisor Supervisor, inbox *actorref.Inbox[M], receiverPtr *Receiver[M], producer Producer[M]) (process.Result, bool) {
	switch supervisor(err) {
	case Stop:
		inbox.Close()
		return process.Complete, true
	case Restart, RestartError:
		*receiverPtr = producer()
		return process.Pending, false
	}
	return process.Pending, false
}

// SpawnLocal creates a process on the local scheduler and returns an
// ActorRef any goroutine (including actors on other workers) can send to.
func SpawnLocal[M any](
	local *scheduler.Local,
	shared *scheduler.Shared,
	localTimers *timer.Local,
	sharedTimers *timer.Shared,
	table *waker.Table,
	wakerID waker.ID,
	p *poller.Poller,
	produce Producer[M],
	opts Options,
) actorref.ActorRef[M] {
	inbox := actorref.NewInbox[M](opts.MailboxCapacity)

	var ref actorref.ActorRef[M]
	local.AddActor(opts.Priority, func(id pid.ID) process.Runnable {
		w := waker.New(table, wakerID, id)
		ref = actorref.New[M](id, inbox, w)
		access := newThreadLocal(id, local, shared, localTimers, sharedTimers, table, wakerID, p)
		ctx := &Context[M]{Access: access, self: ref}
		receiver := produce()
		return process.RunnableFunc(func() process.Result {
			return runTurn(ctx, inbox, &receiver, opts.Supervisor, produce)
		})
	}, opts.Ready)

	return ref
}

// SpawnShared creates a process on the shared scheduler.
func SpawnShared[M any](
	shared *scheduler.Shared,
	sharedTimers *timer.Shared,
	table *waker.Table,
	wakerID waker.ID,
	produce Producer[M],
	opts Options,
) actorref.ActorRef[M] {
	inbox := actorref.NewInbox[M](opts.MailboxCapacity)

	var ref actorref.ActorRef[M]
	shared.AddActor(opts.Priority, func(id pid.ID) process.Runnable {
		w := waker.New(table, wakerID, id)
		ref = actorref.New[M](id, inbox, w)
		access := newThreadSafe(id, shared, sharedTimers, table, wakerID)
		ctx := &Context[M]{Access: access, self: ref}
		receiver := produce()
		return process.RunnableFunc(func() process.Result {
			return runTurn(ctx, inbox, &receiver, opts.Supervisor, produce)
		})
	}, opts.Ready)

	return ref
}
