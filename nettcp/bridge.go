package nettcp

import (
	"net"

	"github.com/heph-rt/heph/actorref"
)

// Chunk is a message a ReadBridge delivers to a connection actor's mailbox:
// either a slice of freshly read bytes, or (at most once, as the final
// Chunk) a non-nil Err reporting why the connection stopped producing data
// (io.EOF on a graceful close). No Err Chunk is sent after Stop, or after a
// Send of data has failed.
type Chunk struct {
	Data []byte
	Err  error
}

// ReadBridge drives blocking reads on a net.Conn from a dedicated goroutine
// and forwards each read as a Chunk to ref's mailbox, waking the actor the
// same way any other Send does. This is the same shape as the teacher's
// ConnectionHandlerActor.readLoop: a connection actor's own Run never blocks
// on socket I/O, since the worker thread must stay free to run every other
// process it owns — only this bridge goroutine blocks, on the OS thread
// parking that Go's runtime (not our scheduler) manages for it.
type ReadBridge struct {
	stop chan struct{}
	done chan struct{}
}

// StartReadBridge starts the bridge goroutine and returns immediately.
// bufSize sizes the read buffer; a Chunk's Data is always a fresh copy, safe
// to retain past the next Read call.
func StartReadBridge(conn net.Conn, ref actorref.ActorRef[Chunk], bufSize int) *ReadBridge {
	b := &ReadBridge{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go b.run(conn, ref, bufSize)
	return b
}

func (b *ReadBridge) run(conn net.Conn, ref actorref.ActorRef[Chunk], bufSize int) {
	defer close(b.done)

	buf := make([]byte, bufSize)
	for {
		select {
		case <-b.stop:
			return
		default:
		}

		n, err := conn.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			if sendErr := ref.Send(Chunk{Data: data}); sendErr != nil {
				return
			}
		}
		if err != nil {
			select {
			case <-b.stop:
			default:
				_ = ref.Send(Chunk{Err: err})
			}
			return
		}
	}
}

// Stop asks the bridge goroutine to exit, closing conn to unblock a read
// already in progress, and waits for it to confirm.
func (b *ReadBridge) Stop(conn net.Conn) {
	select {
	case <-b.stop:
		return
	default:
		close(b.stop)
	}
	_ = conn.Close()
	<-b.done
}
