package rt

import (
	"time"

	"github.com/heph-rt/heph/actorref"
	"github.com/heph-rt/heph/pid"
	"github.com/heph-rt/heph/poller"
	"github.com/heph-rt/heph/process"
	"github.com/heph-rt/heph/scheduler"
	"github.com/heph-rt/heph/timer"
	"github.com/heph-rt/heph/waker"
	"go.uber.org/zap"
)

// worker owns one local scheduler and drives the schedule loop: a bounded
// run burst followed by a schedule phase that
// drains the wake queue, expired timers, the coordinator mailbox and the
// OS poller, in that order.
type worker struct {
	id int

	local  *scheduler.Local
	shared *scheduler.Shared

	localTimers  *timer.Local
	sharedTimers *timer.Shared

	wakerTable *waker.Table
	wakerID    waker.ID
	wakeQueue  *waker.Queue

	poller *poller.Poller

	runPollRatio int
	logger       *zap.Logger
	tracer       Tracer

	toWorker   chan toWorker
	fromWorker chan<- fromWorker

	signalReceivers []actorref.ActorRef[Signal]
	stopRequested   bool
}

// run enters the schedule loop and blocks until the worker has been asked
// to stop and has no more locally-owned work, or a fatal error occurs.
func (w *worker) run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newError(KindWorkerPanic, w.id, panicToError(r))
		}
	}()

	select {
	case w.fromWorker <- startedMsg{worker: w.id}:
	default:
	}

	for {
		w.tracer.Span("run_burst", w.runBurst)

		if w.stopRequested && w.local.Len() == 0 {
			return nil
		}

		var fatalErr error
		w.tracer.Span("schedule_phase", func() { fatalErr = w.schedulePhase() })
		if fatalErr != nil {
			return fatalErr
		}
	}
}

func (w *worker) runBurst() {
	for i := 0; i < w.runPollRatio; i++ {
		d := w.local.Next()
		if d == nil {
			d = w.shared.Steal()
		}
		if d == nil {
			return
		}
		w.runOne(d)
	}
}

func (w *worker) runOne(d *process.Data) {
	start := time.Now()
	result := w.runRecovered(d)
	d.AddRuntime(uint64(time.Since(start)))

	switch result {
	case process.Complete:
		w.localTimers.Remove(d.Pid)
		w.sharedTimers.Remove(d.Pid)
	case process.Pending:
		if d.Pid.Scope() == pid.Local {
			w.local.Park(d)
		} else {
			w.shared.Park(d)
		}
	}
}

// runRecovered isolates a panic inside one actor's Run from the rest of
// the worker: the offending process is treated as Complete (it panicked,
// it does not get to run again) and the panic is logged. No runtime Error
// is produced for it and the worker keeps running.
func (w *worker) runRecovered(d *process.Data) (result process.Result) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("actor panicked",
				zap.Int("worker", w.id),
				zap.Any("pid", d.Pid),
				zap.Any("recover", r),
			)
			result = process.Complete
		}
	}()
	return d.Runnable.Run()
}

func (w *worker) schedulePhase() error {
	now := time.Now()

	w.drainWakeQueue()
	w.drainTimers(now)

	if err := w.drainCoordinator(); err != nil {
		return err
	}

	timeout := w.determineTimeout(now)
	events, err := w.poller.Poll(timeout)
	if err != nil {
		return newError(KindPolling, w.id, err)
	}
	for _, ev := range events {
		if ev.Token == poller.WakerToken || ev.Token == poller.CoordinatorToken {
			continue
		}
		w.markReady(pid.ID(ev.Token))
	}
	return nil
}

func (w *worker) drainWakeQueue() {
	ids := w.wakeQueue.DrainInto(nil)
	for _, id := range ids {
		w.markReady(id)
	}
}

func (w *worker) drainTimers(now time.Time) {
	for _, id := range w.localTimers.ExpiredUntil(now) {
		w.local.MarkReady(id)
	}
	for _, id := range w.sharedTimers.ExpiredUntil(now) {
		w.shared.MarkReady(id)
	}
}

func (w *worker) markReady(id pid.ID) {
	if id.Scope() == pid.Local {
		w.local.MarkReady(id)
	} else {
		w.shared.MarkReady(id)
	}
}

func (w *worker) drainCoordinator() error {
	for {
		select {
		case msg := <-w.toWorker:
			if err := w.handleCoordinatorMsg(msg); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (w *worker) handleCoordinatorMsg(msg toWorker) error {
	switch m := msg.(type) {
	case signalMsg:
		return w.relaySignal(m.signal)
	case runMsg:
		m.fn()
	}
	return nil
}

// relaySignal forwards sig to every subscribed actor. If nothing is
// subscribed and the signal demands a stop, that is a fatal
// ProcessInterrupted condition: a shutdown nobody can observe is a bug,
// not a silent success.
func (w *worker) relaySignal(sig Signal) error {
	if len(w.signalReceivers) == 0 {
		if sig.ShouldStop() {
			return newError(KindProcessInterrupted, w.id, errNoSignalReceivers)
		}
		return nil
	}
	for _, ref := range w.signalReceivers {
		_ = ref.Send(sig)
	}
	if sig.Kind == SignalShutdown {
		w.stopRequested = true
	}
	return nil
}

// determineTimeout decides how long Poll may block: zero if there is
// already runnable work or a wakeup still sitting in the wake queue, the
// time until the soonest timer if one is armed, or indefinitely (-1) if
// nothing is pending — a worker parked indefinitely still wakes on a wake
// queue push made while it polls, or on any coordinator message, via their
// eventfds.
func (w *worker) determineTimeout(now time.Time) time.Duration {
	if w.local.HasReadyProcess() || w.shared.HasReadyProcess() || w.wakeQueue.Len() > 0 {
		return 0
	}

	var soonest time.Time
	have := false
	if t, ok := w.localTimers.NextDeadline(); ok {
		soonest, have = t, true
	}
	if t, ok := w.sharedTimers.NextDeadline(); ok && (!have || t.Before(soonest)) {
		soonest, have = t, true
	}
	if !have {
		return -1
	}
	if d := soonest.Sub(now); d > 0 {
		return d
	}
	return 0
}
