package face

import (
	"fmt"
	"testing"

	"github.com/gonfd/gonfd/defn"
	"github.com/stretchr/testify/assert"
)

// fakeTransport is a minimal transport double, shaped like NullTransport
// but with a caller-chosen remote path so distinct instances register under
// distinct AddressPairs (spec.md §4.2's ConnectionTable is keyed on that
// pair, not on the transport itself).
type fakeTransport struct {
	transportBase
}

func newFakeTransport(remotePath string) *fakeTransport {
	t := &fakeTransport{}
	t.makeTransportBase(
		defn.DecodeURIString("udp4://"+remotePath+":6363"),
		defn.MakeNullFaceURI(),
		defn.PersistencyOnDemand,
		defn.NonLocal,
		defn.PointToPoint,
		defn.MaxNDNPacketSize)
	return t
}

func (t *fakeTransport) String() string                           { return fmt.Sprintf("fake(%s)", t.remoteURI) }
func (t *fakeTransport) SetPersistency(defn.Persistency) bool     { return true }
func (t *fakeTransport) GetSendQueueSize() uint64                 { return 0 }
func (t *fakeTransport) sendFrame([]byte)                         {}
func (t *fakeTransport) runReceive()                              {}
func (t *fakeTransport) Close()                                   {}

// A freshly registered face must be found by both of its indexes, and by
// All(), and must never collide on id 0 (reserved for "from the Content
// Store", per the doc comment on NewConnectionTable).
func TestConnectionTable_RegisterAndLookup(t *testing.T) {
	table := NewConnectionTable()
	ls := &NDNLPLinkService{transport: newFakeTransport("198.51.100.1")}
	ls.addr = defn.AddressPair{Local: addressOfURI(ls.transport.LocalURI()), Remote: addressOfURI(ls.transport.RemoteURI())}

	id := table.register(ls, ls.addr)
	assert.NotZero(t, id)

	byID, ok := table.Get(id)
	assert.True(t, ok)
	assert.Same(t, ls, byID)

	byAddr, ok := table.Lookup(ls.addr)
	assert.True(t, ok)
	assert.Same(t, ls, byAddr)

	assert.Len(t, table.All(), 1)
}

// Two distinct peers must be assigned distinct, monotonically increasing
// connection-ids (spec.md §3's "connection-ids are never reused").
func TestConnectionTable_DistinctIDs(t *testing.T) {
	table := NewConnectionTable()

	ls1 := &NDNLPLinkService{transport: newFakeTransport("198.51.100.1")}
	ls1.addr = defn.AddressPair{Local: addressOfURI(ls1.transport.LocalURI()), Remote: addressOfURI(ls1.transport.RemoteURI())}
	id1 := table.register(ls1, ls1.addr)

	ls2 := &NDNLPLinkService{transport: newFakeTransport("198.51.100.2")}
	ls2.addr = defn.AddressPair{Local: addressOfURI(ls2.transport.LocalURI()), Remote: addressOfURI(ls2.transport.RemoteURI())}
	id2 := table.register(ls2, ls2.addr)

	assert.NotEqual(t, id1, id2)
	assert.Len(t, table.All(), 2)
}

// remove deletes a face from both indexes together.
func TestConnectionTable_Remove(t *testing.T) {
	table := NewConnectionTable()
	ls := &NDNLPLinkService{transport: newFakeTransport("198.51.100.1")}
	ls.addr = defn.AddressPair{Local: addressOfURI(ls.transport.LocalURI()), Remote: addressOfURI(ls.transport.RemoteURI())}
	id := table.register(ls, ls.addr)

	table.remove(id, ls.addr)

	_, ok := table.Get(id)
	assert.False(t, ok)
	_, ok = table.Lookup(ls.addr)
	assert.False(t, ok)
	assert.Empty(t, table.All())
}

// A lookup for a face that was never registered must report absent, not
// panic or return a zero-valued LinkService.
func TestConnectionTable_LookupMiss(t *testing.T) {
	table := NewConnectionTable()
	_, ok := table.Get(999)
	assert.False(t, ok)

	_, ok = table.Lookup(defn.AddressPair{})
	assert.False(t, ok)
}
