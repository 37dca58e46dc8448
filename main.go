//go:build linux

// File: main.go
package main

import (
	"errors"
	"flag"
	"net"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/heph-rt/heph/actor"
	"github.com/heph-rt/heph/actorref"
	"github.com/heph-rt/heph/nettcp"
	"github.com/heph-rt/heph/rt"
	"go.uber.org/zap"
)

// defaultPort mirrors the teacher's own fallback when PORT isn't set.
const defaultPort = "8080"

// echoConn is spawned once per accepted connection. This is the production
// entrypoint's own connection actor, kept deliberately small: a real
// deployment swaps it for its own domain Receiver without touching rt or
// nettcp.
type echoConn struct {
	conn    net.Conn
	bridge  *nettcp.ReadBridge
	started bool
}

func (e *echoConn) Receive(_ *actor.Context[nettcp.Chunk], msg nettcp.Chunk) error {
	if msg.Err != nil {
		return msg.Err
	}
	_, err := e.conn.Write(msg.Data)
	return err
}

func (e *echoConn) OnWake(ctx *actor.Context[nettcp.Chunk]) error {
	if !e.started {
		e.bridge = nettcp.StartReadBridge(e.conn, ctx.Self(), 4096)
		e.started = true
	}
	return nil
}

var errStop = errors.New("heph: stopping on shutdown signal")

func main() {
	// 0. Load configuration.
	numWorkers := flag.Int("workers", runtime.GOMAXPROCS(0), "worker goroutines (local schedulers)")
	tracingOutput := flag.String("trace-output", "", "file path for newline-delimited JSON schedule-loop traces, empty disables")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	logger.Info("configuration loaded", zap.Int("workers", *numWorkers), zap.String("trace_output", *tracingOutput))

	// 1. Initialize the runtime.
	r, err := rt.New(rt.Config{
		NumWorkers:    *numWorkers,
		TracingOutput: *tracingOutput,
		Signals:       []rt.SignalKind{rt.SignalShutdown},
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal("failed to build runtime", zap.Error(err))
	}
	logger.Info("heph runtime created")

	sigRef := rt.SpawnLocal[rt.Signal](r, 0, func() actor.Receiver[rt.Signal] {
		return actor.ReceiverFunc[rt.Signal](func(_ *actor.Context[rt.Signal], msg rt.Signal) error {
			if msg.Kind == rt.SignalShutdown {
				return errStop
			}
			return nil
		})
	}, actor.DefaultOptions())
	r.Subscribe(sigRef)

	// 2. Determine the listen address, defaulting the way the teacher did.
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
		logger.Info("PORT environment variable not set, defaulting", zap.String("port", port))
	}
	listenAddr := ":" + port

	// 3. Spawn the TCP server actor: the heph analogue of the teacher's
	// RoomManagerActor plus its websocket server, generalized to a plain
	// TCP echo connection per accepted client.
	type spawnResult struct {
		server actorref.ActorRef[nettcp.Terminate]
		err    error
	}
	spawned := make(chan spawnResult, 1)
	r.RunOnWorker(0, func() {
		newConn := func(conn net.Conn, _ net.Addr) actor.Producer[nettcp.Chunk] {
			return func() actor.Receiver[nettcp.Chunk] {
				return &echoConn{conn: conn}
			}
		}
		spawn := func(produce actor.Producer[nettcp.Chunk], opts actor.Options) {
			rt.SpawnLocal[nettcp.Chunk](r, 0, produce, opts)
		}

		produce, bound, err := nettcp.NewServer[nettcp.Chunk](listenAddr, newConn, spawn, nettcp.DefaultServerOptions[nettcp.Chunk]())
		if err != nil {
			spawned <- spawnResult{err: err}
			return
		}

		opts := actor.DefaultOptions()
		opts.Supervisor = nettcp.ServerSupervisor
		serverRef := rt.SpawnLocal[nettcp.Terminate](r, 0, produce, opts)
		logger.Info("server starting", zap.Stringer("addr", bound))
		spawned <- spawnResult{server: serverRef}
	})

	// 4. Start the runtime and wait for the server to come up.
	r.Start()
	result := <-spawned
	if result.err != nil {
		logger.Fatal("failed to start server", zap.Error(result.err))
	}

	// 5. Block until interrupted, then shut down gracefully: stop accepting
	// new connections first, then ask the runtime to wind down, the same
	// two-step the teacher's main did with engine.Shutdown.
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt

	logger.Info("shutting down")
	_ = result.server.Send(nettcp.Terminate{})
	shutdownStart := time.Now()
	if err := r.Shutdown("interrupt"); err != nil {
		logger.Fatal("shutdown reported an error", zap.Error(err))
	}
	logger.Info("shutdown complete", zap.Duration("elapsed", time.Since(shutdownStart)))
}
