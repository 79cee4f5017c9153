package face

import (
	"fmt"
	"net"
	"strings"

	"github.com/gonfd/gonfd/core"
	"github.com/gonfd/gonfd/defn"
	"github.com/gonfd/gonfd/fw/face/impl"
	ndn_io "github.com/gonfd/gonfd/std/utils/io"
)

// MulticastUDPTransport is the always-up MultiAccess Connection every
// interface configured for UDP multicast discovery gets at startup
// (spec.md §4.2): one send socket dialed to the configured group, one
// receive socket joined to it, both bound to a single local interface.
type MulticastUDPTransport struct {
	dialer    *net.Dialer
	sendConn  *net.UDPConn
	recvConn  *net.UDPConn
	groupAddr net.UDPAddr
	localAddr net.UDPAddr
	transportBase
}

// MakeMulticastUDPTransport joins the configured multicast group on the
// interface owning localURI's address.
func MakeMulticastUDPTransport(localURI *defn.URI) (*MulticastUDPTransport, error) {
	localURI.Canonize()
	if !localURI.IsCanonical() || (localURI.Scheme() != "udp4" && localURI.Scheme() != "udp6") {
		return nil, defn.ErrNotCanonical
	}

	var remote string
	switch localURI.Scheme() {
	case "udp4":
		remote = fmt.Sprintf("udp4://%s:%d", CfgUDP4MulticastAddress(), CfgUDPMulticastPort())
	case "udp6":
		remote = fmt.Sprintf("udp6://[%s]:%d", CfgUDP6MulticastAddress(), CfgUDPMulticastPort())
	}

	t := &MulticastUDPTransport{}
	t.makeTransportBase(
		defn.DecodeURIString(remote),
		localURI, defn.PersistencyPermanent,
		defn.NonLocal, defn.MultiAccess,
		int(core.C.Faces.Udp.DefaultMtu))

	t.groupAddr.IP = net.ParseIP(t.remoteURI.PathHost())
	t.groupAddr.Port = int(t.remoteURI.Port())
	t.groupAddr.Zone = t.remoteURI.PathZone()
	t.localAddr.IP = net.ParseIP(t.localURI.PathHost())
	t.localAddr.Zone = t.localURI.PathZone()

	t.dialer = &net.Dialer{LocalAddr: &t.localAddr, Control: impl.SyscallReuseAddr}
	t.running.Store(true)

	if err := t.connectSend(); err != nil {
		t.Close()
		return nil, err
	}
	if err := t.connectRecv(); err != nil {
		t.Close()
		return nil, err
	}

	return t, nil
}

// connectSend (re)dials the socket this transport writes group-addressed
// frames through.
func (t *MulticastUDPTransport) connectSend() error {
	sendConn, err := t.dialer.Dial(t.remoteURI.Scheme(), t.groupAddr.String())
	if err != nil {
		return fmt.Errorf("unable to create send connection to group address: %w", err)
	}
	t.sendConn = sendConn.(*net.UDPConn)
	return nil
}

// connectRecv (re)joins the multicast group on the interface owning this
// transport's local address.
func (t *MulticastUDPTransport) connectRecv() error {
	localIf, err := InterfaceByIP(net.ParseIP(t.localURI.PathHost()))
	if err != nil || localIf == nil {
		return fmt.Errorf("unable to get interface for local URI %s: %s", t.localURI, err.Error())
	}

	t.recvConn, err = net.ListenMulticastUDP(t.remoteURI.Scheme(), localIf, &t.groupAddr)
	if err != nil {
		return fmt.Errorf("unable to create receive conn for group %s: %s", localIf.Name, err.Error())
	}
	return nil
}

func (t *MulticastUDPTransport) String() string {
	return fmt.Sprintf("multicast-udp-transport (faceid=%d remote=%s local=%s)", t.faceID, t.remoteURI, t.localURI)
}

// SetPersistency only ever accepts Permanent: a multicast group membership
// isn't something a single peer's on-demand lease can govern.
func (t *MulticastUDPTransport) SetPersistency(persistency defn.Persistency) bool {
	if persistency == t.persistency {
		return true
	}
	if persistency == defn.PersistencyPermanent {
		t.persistency = persistency
		return true
	}
	return false
}

func (t *MulticastUDPTransport) GetSendQueueSize() uint64 {
	rawConn, err := t.recvConn.SyscallConn()
	if err != nil {
		core.Log.Warn(t, "Unable to get raw connection to get socket length", "err", err)
	}
	return impl.SyscallGetSocketSendQueueSize(rawConn)
}

func (t *MulticastUDPTransport) sendFrame(frame []byte) {
	if !t.running.Load() {
		return
	}
	if len(frame) > t.MTU() {
		core.Log.Warn(t, "Attempted to send frame larger than MTU")
		return
	}

	if _, err := t.sendConn.Write(frame); err != nil {
		core.Log.Warn(t, "Unable to send on socket")
		if t.running.Load() {
			if err := t.connectSend(); err != nil {
				core.Log.Error(t, "Unable to re-create send connection", "err", err)
				return
			}
		}
	}

	t.nOutBytes += uint64(len(frame))
}

func (t *MulticastUDPTransport) runReceive() {
	defer t.Close()

	for t.running.Load() {
		err := ndn_io.ReadTlvStream(t.recvConn, func(b []byte) bool {
			t.nInBytes += uint64(len(b))
			t.linkService.handleIncomingFrame(b)
			return true
		}, func(err error) bool {
			return strings.Contains(err.Error(), "connection refused")
		})
		if err != nil && t.running.Load() {
			core.Log.Warn(t, "Unable to read from socket - Face DOWN", "err", err)
			if err := t.connectRecv(); err != nil {
				core.Log.Error(t, "Unable to re-create receive connection", "err", err)
				return
			}
		}
	}
}

func (t *MulticastUDPTransport) Close() {
	if t.running.Swap(false) {
		if t.sendConn != nil {
			t.sendConn.Close()
		}
		if t.recvConn != nil {
			t.recvConn.Close()
		}
	}
}
