package face

import (
	"fmt"

	"github.com/gonfd/gonfd/defn"
)

// NullTransport discards every frame handed to it, for a face that needs a
// valid Connection with nothing on the other end. The Content Store's
// faceid 0 (spec.md §4.7) is not backed by one: registering a face always
// assigns an id of 1 or more.
type NullTransport struct {
	transportBase
	close chan bool
}

func MakeNullTransport() *NullTransport {
	t := &NullTransport{close: make(chan bool)}
	t.makeTransportBase(
		defn.MakeNullFaceURI(),
		defn.MakeNullFaceURI(),
		defn.PersistencyPermanent,
		defn.NonLocal,
		defn.PointToPoint,
		defn.MaxNDNPacketSize)
	return t
}

func (t *NullTransport) String() string {
	return fmt.Sprintf("null-transport (faceid=%d remote=%s local=%s)", t.faceID, t.remoteURI, t.localURI)
}

// SetPersistency only ever accepts Permanent: a null connection has no
// underlying link to drop, so on-demand expiry makes no sense for it.
func (t *NullTransport) SetPersistency(persistency defn.Persistency) bool {
	if persistency == t.persistency {
		return true
	}
	if persistency == defn.PersistencyPermanent {
		t.persistency = persistency
		return true
	}
	return false
}

func (t *NullTransport) GetSendQueueSize() uint64 { return 0 }

func (t *NullTransport) sendFrame([]byte) {}

func (t *NullTransport) runReceive() {
	t.running.Store(true)
	<-t.close
}

func (t *NullTransport) Close() {
	if t.running.Swap(false) {
		t.close <- true
	}
}
