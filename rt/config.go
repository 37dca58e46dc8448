// Package rt assembles the runtime: a coordinator and its pool of workers,
// each running the dual local/shared schedulers, waker, timers and poller
// from the sibling packages through one schedule loop per worker.
package rt

import (
	"runtime"

	"go.uber.org/zap"
)

// runPollRatio is how many processes a worker runs from its queues before
// returning to the schedule phase (poll OS events, drain wakers, drain
// timers, check the coordinator). A worker that never paused to reschedule
// could starve timers and signals indefinitely on a saturated queue; a
// worker that rescheduled after every single process would pay the
// schedule phase's overhead far more often than it needs to.
const runPollRatio = 32

// Config configures a Runtime.
type Config struct {
	// NumWorkers is how many worker goroutines the coordinator starts, each
	// pinned for the runtime's lifetime to its own local scheduler. Zero
	// means runtime.GOMAXPROCS(0).
	NumWorkers int

	// TracingOutput, if non-empty, is a file path that receives
	// newline-delimited JSON spans from the runtime's Tracer around every
	// run burst and schedule phase. Coordinator messages are handled inside
	// the schedule phase and get no span of their own. Empty disables
	// tracing.
	TracingOutput string

	// Signals lists signal kinds for the runtime. The workers do not read
	// it: worker.relaySignal forwards every Signal it is given to every
	// subscribed actor, whatever its kind.
	Signals []SignalKind

	// Logger receives the runtime's structured logs. The only line the
	// workers emit is for a panic recovered from an actor's Run; worker
	// lifecycle, poll errors and supervised restarts are not logged. A nil
	// Logger gets zap.NewNop().
	Logger *zap.Logger
}

// DefaultConfig returns a Config sized to the host and logging through a
// production zap logger.
func DefaultConfig() Config {
	logger, _ := zap.NewProduction()
	return Config{
		NumWorkers: runtime.GOMAXPROCS(0),
		Signals:    []SignalKind{SignalShutdown},
		Logger:     logger,
	}
}

func (c Config) numWorkers() int {
	if c.NumWorkers > 0 {
		return c.NumWorkers
	}
	return runtime.GOMAXPROCS(0)
}

func (c Config) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}
