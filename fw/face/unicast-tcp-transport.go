package face

import (
	"fmt"
	"net"

	"github.com/gonfd/gonfd/core"
	"github.com/gonfd/gonfd/defn"
	"github.com/gonfd/gonfd/fw/face/impl"
	ndn_io "github.com/gonfd/gonfd/std/utils/io"
)

// UnicastTCPTransport is a unicast, reliable-stream TCP face, accepted by
// TCPListener (spec.md §4.2's "TCP" row). It only wraps already-accepted
// sockets and is up from construction; it has no separate Connecting state.
type UnicastTCPTransport struct {
	conn net.Conn
	transportBase
}

// AcceptUnicastTCPTransport wraps an already-accepted TCP connection as a
// UnicastTCPTransport, deriving its remote/local URIs from the socket.
func AcceptUnicastTCPTransport(conn net.Conn, localURI *defn.URI, persistency defn.Persistency) (*UnicastTCPTransport, error) {
	remoteAddr, ok := conn.RemoteAddr().(*net.TCPAddr)
	if !ok {
		return nil, fmt.Errorf("unexpected remote address type %T", conn.RemoteAddr())
	}

	scheme := "tcp4"
	if remoteAddr.IP.To4() == nil {
		scheme = "tcp6"
	}
	remoteURI := defn.DecodeURIString(fmt.Sprintf("%s://%s:%d", scheme, remoteAddr.IP.String(), remoteAddr.Port))
	remoteURI.Canonize()
	if !remoteURI.IsCanonical() {
		return nil, defn.ErrNotCanonical
	}

	t := &UnicastTCPTransport{conn: conn}
	scope := defn.NonLocal
	if remoteAddr.IP.IsLoopback() {
		scope = defn.Local
	}
	t.makeTransportBase(remoteURI, localURI, persistency, scope, defn.PointToPoint, int(core.C.Faces.Tcp.DefaultMtu))
	t.running.Store(true)
	return t, nil
}

// Returns a string representation of the TCP transport including its face ID, remote URI, and local URI.
func (t *UnicastTCPTransport) String() string {
	return fmt.Sprintf("unicast-tcp-transport (faceid=%d remote=%s local=%s)", t.faceID, t.remoteURI, t.localURI)
}

// SetPersistency changes the persistency of the face.
func (t *UnicastTCPTransport) SetPersistency(persistency defn.Persistency) bool {
	t.persistency = persistency
	return true
}

// GetSendQueueSize returns the current size of the kernel send queue.
func (t *UnicastTCPTransport) GetSendQueueSize() uint64 {
	tcpConn, ok := t.conn.(*net.TCPConn)
	if !ok {
		return 0
	}
	rawConn, err := tcpConn.SyscallConn()
	if err != nil {
		core.Log.Warn(t, "Unable to get raw connection to get socket length", "err", err)
		return 0
	}
	return impl.SyscallGetSocketSendQueueSize(rawConn)
}

// Sends a frame over the stream, closing the face on any write error.
func (t *UnicastTCPTransport) sendFrame(frame []byte) {
	if !t.running.Load() {
		return
	}
	if len(frame) > t.MTU() {
		core.Log.Warn(t, "Attempted to send frame larger than MTU")
		return
	}

	_, err := t.conn.Write(frame)
	if err != nil {
		core.Log.Warn(t, "Unable to send on socket - Face DOWN", "err", err)
		t.Close()
		return
	}
	t.nOutBytes += uint64(len(frame))
}

// runReceive reads length-delimited NDN packets off the stream until EOF
// or error, handing each to the link service (spec.md §4.2's "TCP: a
// length-delimited stream" framing).
func (t *UnicastTCPTransport) runReceive() {
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

// Close shuts down the underlying TCP connection.
func (t *UnicastTCPTransport) Close() {
	if t.running.Swap(false) {
		t.conn.Close()
	}
}
