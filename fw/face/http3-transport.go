//go:build !tinygo

package face

import (
	"fmt"
	"net/netip"

	"github.com/gonfd/gonfd/core"
	"github.com/gonfd/gonfd/defn"
	"github.com/quic-go/webtransport-go"
)

// http3DatagramMTU is conservative enough to stay under the smallest
// QUIC datagram payload a path is likely to support without path-MTU
// discovery, since HTTP3ListenerConfig disables it.
const http3DatagramMTU = 1000

// HTTP3Transport carries NDNLP frames as unreliable QUIC datagrams over one
// WebTransport session - always OnDemand, since a browser tab's session
// has no persistent identity to reattach to.
type HTTP3Transport struct {
	transportBase
	c *webtransport.Session
}

func NewHTTP3Transport(remote, local netip.AddrPort, c *webtransport.Session) *HTTP3Transport {
	t := &HTTP3Transport{c: c}
	t.makeTransportBase(defn.MakeQuicFaceURI(remote), defn.MakeQuicFaceURI(local), defn.PersistencyOnDemand, defn.NonLocal, defn.PointToPoint, http3DatagramMTU)
	t.running.Store(true)
	return t
}

func (t *HTTP3Transport) String() string {
	return fmt.Sprintf("http3-transport (faceid=%d remote=%s local=%s)", t.faceID, t.remoteURI, t.localURI)
}

func (t *HTTP3Transport) SetPersistency(persistency defn.Persistency) bool {
	return persistency == defn.PersistencyOnDemand
}

// GetSendQueueSize is always 0: webtransport.Session exposes no queue
// depth for outstanding datagrams.
func (t *HTTP3Transport) GetSendQueueSize() uint64 { return 0 }

func (t *HTTP3Transport) sendFrame(frame []byte) {
	if !t.running.Load() {
		return
	}
	if len(frame) > t.MTU() {
		core.Log.Warn(t, "Attempted to send frame larger than MTU")
		return
	}

	if err := t.c.SendDatagram(frame); err != nil {
		core.Log.Warn(t, "Unable to send on socket - Face DOWN", "err", err)
		t.Close()
		return
	}

	t.nOutBytes += uint64(len(frame))
}

func (t *HTTP3Transport) runReceive() {
	defer t.Close()

	for {
		message, err := t.c.ReceiveDatagram(t.c.Context())
		if err != nil {
			core.Log.Warn(t, "Unable to read from WebTransport - DROP and Face DOWN", "err", err)
			return
		}
		if len(message) > defn.MaxNDNPacketSize {
			core.Log.Warn(t, "Received too much data without valid TLV block")
			continue
		}

		t.nInBytes += uint64(len(message))
		t.linkService.handleIncomingFrame(message)
	}
}

func (t *HTTP3Transport) Close() {
	t.running.Store(false)
	t.c.CloseWithError(0, "")
}
