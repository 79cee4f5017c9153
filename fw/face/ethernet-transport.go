package face

import (
	"fmt"
	"net"
	"os"

	"github.com/gonfd/gonfd/core"
	"github.com/gonfd/gonfd/defn"
)

// ethernetHeaderLen is the size of a bare (untagged) Ethernet II header:
// 6 bytes destination MAC, 6 bytes source MAC, 2 bytes ethertype.
const ethernetHeaderLen = 14

// EthernetTransport is a raw-Ethernet face (spec.md §6 "Ethernet. Raw
// frames with a configured ethertype"). One EthernetTransport exists per
// peer MAC the listener has seen, all sharing the listener's underlying
// socket for send (spec.md §4.2's EtherConnection variant).
type EthernetTransport struct {
	f          *os.File
	iface      *net.Interface
	ethertype  uint16
	srcMAC     net.HardwareAddr
	dstMAC     net.HardwareAddr
	closeCh    chan struct{}
	transportBase
}

// MakeEthernetTransport constructs a transport that sends to dstMAC over
// iface/f (the listener's shared raw socket) and is fed received frames
// sent from dstMAC by the listener's dispatch loop.
func MakeEthernetTransport(f *os.File, iface *net.Interface, ethertype uint16, dstMAC net.HardwareAddr) *EthernetTransport {
	t := &EthernetTransport{
		f:         f,
		iface:     iface,
		ethertype: ethertype,
		srcMAC:    iface.HardwareAddr,
		dstMAC:    dstMAC,
		closeCh:   make(chan struct{}),
	}

	local := defn.DecodeURIString(fmt.Sprintf("ether://%s", iface.HardwareAddr.String()))
	local.Canonize()
	remote := defn.DecodeURIString(fmt.Sprintf("ether://%s", dstMAC.String()))
	remote.Canonize()

	persistency := defn.PersistencyOnDemand
	if dstMAC.String() == core.C.Faces.Ethernet.Multicast {
		persistency = defn.PersistencyPermanent
	}
	t.makeTransportBase(remote, local, persistency, defn.NonLocal, defn.MultiAccess, int(core.C.Faces.Ethernet.DefaultMtu))
	t.running.Store(true)
	return t
}

// Returns a string representation of the Ethernet transport.
func (t *EthernetTransport) String() string {
	return fmt.Sprintf("ethernet-transport (faceid=%d remote=%s local=%s)", t.faceID, t.remoteURI, t.localURI)
}

// SetPersistency permits OnDemand and Permanent (the only two spec.md §4.2
// assigns to link-layer faces).
func (t *EthernetTransport) SetPersistency(persistency defn.Persistency) bool {
	if persistency == defn.PersistencyOnDemand || persistency == defn.PersistencyPermanent {
		t.persistency = persistency
		return true
	}
	return false
}

// GetSendQueueSize is not observable over a raw socket; always 0.
func (t *EthernetTransport) GetSendQueueSize() uint64 {
	return 0
}

// sendFrame prepends an Ethernet II header addressed to this transport's
// peer MAC and writes it to the shared raw socket.
func (t *EthernetTransport) sendFrame(frame []byte) {
	if !t.running.Load() {
		return
	}
	if len(frame) > t.MTU() {
		core.Log.Warn(t, "Attempted to send frame larger than MTU")
		return
	}

	out := make([]byte, ethernetHeaderLen+len(frame))
	copy(out[0:6], t.dstMAC)
	copy(out[6:12], t.srcMAC)
	out[12] = byte(t.ethertype >> 8)
	out[13] = byte(t.ethertype)
	copy(out[ethernetHeaderLen:], frame)

	if _, err := t.f.Write(out); err != nil {
		core.Log.Warn(t, "Unable to send on raw socket - Face DOWN", "err", err)
		t.Close()
		return
	}
	t.nOutBytes += uint64(len(frame))
}

// runReceive is a no-op loop: EthernetListener owns the single raw socket
// read loop and demultiplexes frames to the right EthernetTransport by
// source MAC (spec.md §4.2: one Listener, many Connections sharing its
// socket), feeding them straight to this transport's linkService. This
// only parks the per-face goroutine NDNLPLinkService.Run spawns until the
// face is closed.
func (t *EthernetTransport) runReceive() {
	<-t.closeCh
}

// Close marks this peer's transport down. The shared raw socket itself is
// only closed by the owning EthernetListener.
func (t *EthernetTransport) Close() {
	if t.running.Swap(false) {
		close(t.closeCh)
	}
}
