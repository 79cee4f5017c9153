package face

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/gonfd/gonfd/core"
	"github.com/gonfd/gonfd/defn"
	"github.com/gonfd/gonfd/fw/face/impl"
	ndn_io "github.com/gonfd/gonfd/std/utils/io"
)

// UnicastUDPTransport carries NDNLP frames to exactly one peer over UDP -
// the common on-demand or permanent unicast Connection spec.md §4.2
// describes for links where the far side's address is known up front.
type UnicastUDPTransport struct {
	dialer     *net.Dialer
	conn       *net.UDPConn
	localAddr  net.UDPAddr
	remoteAddr net.UDPAddr
	transportBase
}

// MakeUnicastUDPTransport dials remoteURI and returns a ready-to-receive
// transport, or an error if either URI is malformed or the dial fails.
func MakeUnicastUDPTransport(
	remoteURI *defn.URI,
	localURI *defn.URI,
	persistency defn.Persistency,
) (*UnicastUDPTransport, error) {
	if remoteURI == nil || !remoteURI.IsCanonical() || (remoteURI.Scheme() != "udp4" && remoteURI.Scheme() != "udp6") {
		return nil, defn.ErrNotCanonical
	}
	if localURI != nil && (!localURI.IsCanonical() || remoteURI.Scheme() != localURI.Scheme()) {
		return nil, defn.ErrNotCanonical
	}

	t := new(UnicastUDPTransport)
	t.makeTransportBase(
		remoteURI, localURI, persistency,
		defn.NonLocal, defn.PointToPoint,
		int(core.C.Faces.Udp.DefaultMtu))
	t.expirationTime = new(time.Time)
	t.renewLease()

	if ip := net.ParseIP(remoteURI.Path()); ip.IsLoopback() {
		t.scope = defn.Local
	} else {
		t.scope = defn.NonLocal
	}

	if localURI != nil {
		t.localAddr.IP = net.ParseIP(localURI.Path())
		t.localAddr.Port = int(localURI.Port())
	} else {
		t.localAddr.Port = CfgUDPUnicastPort()
	}
	t.remoteAddr.IP = net.ParseIP(remoteURI.Path())
	t.remoteAddr.Port = int(remoteURI.Port())

	// A Dialer with SO_REUSEADDR lets multiple unicast transports
	// bind the same local port; the dial itself is synchronous, unlike the
	// TCP listener's accept loop, since there's no handshake to wait out.
	t.dialer = &net.Dialer{LocalAddr: &t.localAddr, Control: impl.SyscallReuseAddr}
	remote := net.JoinHostPort(t.remoteURI.Path(), strconv.Itoa(int(t.remoteURI.Port())))
	conn, err := t.dialer.Dial(t.remoteURI.Scheme(), remote)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to remote endpoint: %w", err)
	}

	t.conn = conn.(*net.UDPConn)
	t.running.Store(true)

	if localURI == nil {
		t.localAddr = *t.conn.LocalAddr().(*net.UDPAddr)
		t.localURI = defn.DecodeURIString("udp://" + t.localAddr.String())
	}

	return t, nil
}

// renewLease pushes the on-demand expiration deadline out by the
// configured UDP lifetime; a no-op in effect for Permanent connections
// since ExpirationPeriod ignores expirationTime unless persistency is
// on-demand.
func (t *UnicastUDPTransport) renewLease() {
	*t.expirationTime = time.Now().Add(CfgUDPLifetime())
}

func (t *UnicastUDPTransport) String() string {
	return fmt.Sprintf("unicast-udp-transport (face=%d remote=%s local=%s)", t.faceID, t.remoteURI, t.localURI)
}

func (t *UnicastUDPTransport) SetPersistency(persistency defn.Persistency) bool {
	t.persistency = persistency
	return true
}

func (t *UnicastUDPTransport) GetSendQueueSize() uint64 {
	rawConn, err := t.conn.SyscallConn()
	if err != nil {
		core.Log.Warn(t, "Unable to get raw connection to get socket length", "err", err)
	}
	return impl.SyscallGetSocketSendQueueSize(rawConn)
}

func (t *UnicastUDPTransport) sendFrame(frame []byte) {
	if !t.running.Load() {
		return
	}
	if len(frame) > t.MTU() {
		core.Log.Error(t, "Attempted to send frame larger than MTU",
			"size", len(frame), "MTU", t.MTU())
		return
	}

	if _, err := t.conn.Write(frame); err != nil {
		core.Log.Warn(t, "Unable to send on socket - Face DOWN")
		t.Close()
		return
	}

	t.nOutBytes += uint64(len(frame))
	t.renewLease()
}

func (t *UnicastUDPTransport) runReceive() {
	defer t.Close()

	err := ndn_io.ReadTlvStream(t.conn, func(b []byte) bool {
		t.nInBytes += uint64(len(b))
		t.renewLease()
		t.linkService.handleIncomingFrame(b)
		return true
	}, func(err error) bool {
		// UDP is connectionless; a peer not listening surfaces here as an
		// ICMP-triggered "connection refused" that doesn't mean this Face
		// is down.
		return strings.Contains(err.Error(), "connection refused")
	})
	if err != nil && t.running.Load() {
		core.Log.Warn(t, "Unable to read from socket - Face DOWN", "err", err)
	}
}

func (t *UnicastUDPTransport) Close() {
	if t.running.Swap(false) {
		t.conn.Close()
	}
}
