package rt

import (
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/heph-rt/heph/actor"
	"github.com/heph-rt/heph/actorref"
	"github.com/heph-rt/heph/poller"
	"github.com/heph-rt/heph/scheduler"
	"github.com/heph-rt/heph/timer"
	"github.com/heph-rt/heph/waker"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Runtime owns the worker pool and plays the coordinator's role from
// SPEC_FULL.md: it builds the shared scheduler, shared timer set and waker
// table every worker shares, starts each worker's schedule loop, and
// relays signals and shutdown to them.
type Runtime struct {
	cfg Config

	workers      []*worker
	shared       *scheduler.Shared
	sharedTimers *timer.Shared
	wakerTable   *waker.Table
	tracer       Tracer
	logger       *zap.Logger

	g *errgroup.Group

	mu    sync.Mutex
	fatal *multierror.Error
}

// New builds a Runtime from cfg: one poller and local scheduler per
// worker, one shared scheduler, shared timer set and waker table across
// all of them. It does not start the schedule loops; call Start for that.
func New(cfg Config) (*Runtime, error) {
	logger := cfg.logger()

	var tracer Tracer = NopTracer{}
	if cfg.TracingOutput != "" {
		ft, err := NewFileTracer(cfg.TracingOutput)
		if err != nil {
			return nil, newError(KindSetupError, -1, err)
		}
		tracer = ft
	}

	numWorkers := cfg.numWorkers()
	shared := scheduler.NewShared()
	sharedTimers := timer.NewShared(nil)
	wakerTable := waker.NewTable()
	fromWorkers := make(chan fromWorker, numWorkers*4)

	workers := make([]*worker, numWorkers)
	for i := 0; i < numWorkers; i++ {
		p, err := poller.New()
		if err != nil {
			return nil, newError(KindSetupError, i, err)
		}
		q := waker.NewQueue()
		wakerTable.Register(waker.ID(i), &waker.VTable{
			Queue:     q,
			IsPolling: &p.IsPolling,
			Nudge:     p.NudgeWaker,
		})

		workers[i] = &worker{
			id:           i,
			local:        scheduler.NewLocal(),
			shared:       shared,
			localTimers:  timer.NewLocal(),
			sharedTimers: sharedTimers,
			wakerTable:   wakerTable,
			wakerID:      waker.ID(i),
			wakeQueue:    q,
			poller:       p,
			runPollRatio: runPollRatio,
			logger:       logger.With(zap.Int("worker", i)),
			tracer:       tracer,
			toWorker:     make(chan toWorker, 8),
			fromWorker:   fromWorkers,
		}
	}

	// A deadline armed on the shared timer set may be sooner than whatever
	// timeout any given worker last computed before it started blocking in
	// Poll; nudge every worker's coordinator eventfd so none of them
	// oversleeps past it.
	sharedTimers.SetOnArmed(func() {
		for _, w := range workers {
			w.poller.NudgeCoordinator()
		}
	})

	return &Runtime{
		cfg:          cfg,
		workers:      workers,
		shared:       shared,
		sharedTimers: sharedTimers,
		wakerTable:   wakerTable,
		tracer:       tracer,
		logger:       logger,
	}, nil
}

// Subscribe registers ref to receive every Signal relayed through the
// runtime (including SignalShutdown). Call it before Start; workers read
// their receiver list without a lock.
func (r *Runtime) Subscribe(ref actorref.ActorRef[Signal]) {
	for _, w := range r.workers {
		w.signalReceivers = append(w.signalReceivers, ref)
	}
}

// Start launches every worker's schedule loop on its own goroutine.
func (r *Runtime) Start() {
	r.g = &errgroup.Group{}
	for _, w := range r.workers {
		w := w
		r.g.Go(func() error {
			err := w.run()
			if err != nil {
				r.recordFatal(err)
			}
			return err
		})
	}
}

func (r *Runtime) recordFatal(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fatal = multierror.Append(r.fatal, err)
}

// Wait blocks until every worker's schedule loop has returned and reports
// the aggregate of every worker's fatal error, if any, as a
// *multierror.Error rather than just the first one errgroup happened to
// observe.
func (r *Runtime) Wait() error {
	_ = r.g.Wait()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fatal == nil {
		return nil
	}
	return r.fatal.ErrorOrNil()
}

// Shutdown relays SignalShutdown to every worker and blocks until they
// have all wound down, returning the aggregated error from Wait.
func (r *Runtime) Shutdown(reason string) error {
	sig := Signal{Kind: SignalShutdown, Reason: reason}
	for _, w := range r.workers {
		w.toWorker <- signalMsg{signal: sig}
		w.poller.NudgeCoordinator()
	}
	return r.Wait()
}

// NumWorkers returns the number of workers this runtime started.
func (r *Runtime) NumWorkers() int { return len(r.workers) }

// RunOnWorker asks worker index to execute fn on its own schedule-loop
// goroutine at its next coordinator check, the escape hatch for touching
// worker-owned state (spawning the first local actor) from outside the
// loop.
func (r *Runtime) RunOnWorker(index int, fn func()) {
	w := r.workers[index]
	w.toWorker <- runMsg{fn: fn}
	w.poller.NudgeCoordinator()
}

// SpawnLocal spawns an actor on the given worker's local scheduler.
// Generic methods on a non-generic receiver aren't expressible in Go, so
// this is a free function taking the Runtime rather than Runtime.SpawnLocal.
//
// The local scheduler it touches is unlocked and single-owner: call this
// only before Start, or from inside that worker's own goroutine (for
// example a fn passed to RunOnWorker). Calling it concurrently with that
// worker's own schedule loop from any other goroutine is a data race.
func SpawnLocal[M any](r *Runtime, worker int, produce actor.Producer[M], opts actor.Options) actorref.ActorRef[M] {
	w := r.workers[worker]
	return actor.SpawnLocal[M](w.local, r.shared, w.localTimers, r.sharedTimers, r.wakerTable, w.wakerID, w.poller, produce, opts)
}

// SpawnShared spawns an actor on the runtime-wide shared scheduler, using
// worker 0's waker table entry as its owning worker for wake delivery.
func SpawnShared[M any](r *Runtime, produce actor.Producer[M], opts actor.Options) actorref.ActorRef[M] {
	w := r.workers[0]
	return actor.SpawnShared[M](r.shared, r.sharedTimers, r.wakerTable, w.wakerID, produce, opts)
}
