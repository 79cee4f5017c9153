package face

import (
	"fmt"
	"net"

	"github.com/gonfd/gonfd/core"
	"github.com/gonfd/gonfd/defn"
	"github.com/gonfd/gonfd/fw/face/impl"
	ndn_io "github.com/gonfd/gonfd/std/utils/io"
)

// UnixStreamTransport is the Local-scope Connection a co-resident
// application gets over a Unix domain socket, per spec.md §4.2's "local
// applications talk over a trusted, unauthenticated transport" note.
type UnixStreamTransport struct {
	conn   *net.UnixConn
	writer *ndn_io.TimedWriter
	transportBase
}

func MakeUnixStreamTransport(remoteURI *defn.URI, localURI *defn.URI, conn net.Conn) (*UnixStreamTransport, error) {
	if !remoteURI.IsCanonical() || remoteURI.Scheme() != "fd" || !localURI.IsCanonical() || localURI.Scheme() != "unix" {
		return nil, defn.ErrNotCanonical
	}

	t := new(UnixStreamTransport)
	t.makeTransportBase(remoteURI, localURI, defn.PersistencyPersistent, defn.Local, defn.PointToPoint, defn.MaxNDNPacketSize)
	t.conn = conn.(*net.UnixConn)
	t.writer = ndn_io.NewTimedWriter(t.conn, defn.MaxNDNPacketSize)
	t.running.Store(true)

	return t, nil
}

func (t *UnixStreamTransport) String() string {
	return fmt.Sprintf("unix-stream-transport (faceid=%d remote=%s local=%s)", t.faceID, t.remoteURI, t.localURI)
}

// SetPersistency only ever accepts Persistent: a Unix socket Connection has
// no notion of an idle lease to expire.
func (t *UnixStreamTransport) SetPersistency(persistency defn.Persistency) bool {
	if persistency == t.persistency {
		return true
	}
	if persistency == defn.PersistencyPersistent {
		t.persistency = persistency
		return true
	}
	return false
}

func (t *UnixStreamTransport) GetSendQueueSize() uint64 {
	rawConn, err := t.conn.SyscallConn()
	if err != nil {
		core.Log.Warn(t, "Unable to get raw connection to get socket length", "err", err)
	}
	return impl.SyscallGetSocketSendQueueSize(rawConn)
}

// sendFrame hands frame to a TimedWriter rather than writing straight to
// the socket: a local application's Interest/Data traffic tends to arrive
// in bursts (a consumer's retransmission window, a producer's batch of
// segments), and coalescing those into fewer syscalls costs at most one
// write deadline (ndn_io.NewTimedWriter's default 1ms) of added latency.
func (t *UnixStreamTransport) sendFrame(frame []byte) {
	if !t.running.Load() {
		return
	}
	if len(frame) > t.MTU() {
		core.Log.Warn(t, "Attempted to send frame larger than MTU")
		return
	}

	if _, err := t.writer.Write(frame); err != nil {
		core.Log.Warn(t, "Unable to send on socket - Face DOWN")
		t.Close()
		return
	}

	t.nOutBytes += uint64(len(frame))
}

func (t *UnixStreamTransport) runReceive() {
	defer t.Close()

	err := ndn_io.ReadTlvStream(t.conn, func(b []byte) bool {
		t.nInBytes += uint64(len(b))
		t.linkService.handleIncomingFrame(b)
		return true
	}, nil)
	if err != nil && t.running.Load() {
		core.Log.Warn(t, "Unable to read from socket - Face DOWN", "err", err)
	}
}

func (t *UnixStreamTransport) Close() {
	if t.running.Swap(false) {
		t.writer.Flush()
		t.conn.Close()
	}
}
