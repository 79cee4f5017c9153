package face

import (
	"sync"
	"sync/atomic"

	"github.com/gonfd/gonfd/defn"
)

// ConnectionTable is the process-wide registry of live faces, keyed two
// ways: by connection-id and by the (local, remote) AddressPair a Listener
// uses to deduplicate an already-known peer (spec.md §4.2 "ConnectionTable.
// Two indexes over the same owning storage"). The invariant both indexes
// quote - present in both or neither - is enforced by routing every insert
// and remove through this type instead of touching the maps directly.
type ConnectionTable struct {
	mu     sync.RWMutex
	nextID atomic.Uint64

	byID   map[uint64]*NDNLPLinkService
	byAddr map[defn.AddressPair]*NDNLPLinkService
}

// NewConnectionTable constructs an empty ConnectionTable. The id counter
// starts at 1, so 0 remains available as a sentinel "no connection"/"from
// the Content Store" value (used by the strategies' AfterContentStoreHit).
func NewConnectionTable() *ConnectionTable {
	return &ConnectionTable{
		byID:   make(map[uint64]*NDNLPLinkService),
		byAddr: make(map[defn.AddressPair]*NDNLPLinkService),
	}
}

// Faces is the single process-wide ConnectionTable, matching spec.md §9's
// guidance that the id counter and the owning index live on one struct
// rather than a process-wide singleton of their own.
var Faces = NewConnectionTable()

// Lookup returns the already-registered face for pair, if one is up.
func (c *ConnectionTable) Lookup(pair defn.AddressPair) (*NDNLPLinkService, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ls, ok := c.byAddr[pair]
	return ls, ok
}

// Get returns the face registered under faceID.
func (c *ConnectionTable) Get(faceID uint64) (*NDNLPLinkService, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ls, ok := c.byID[faceID]
	return ls, ok
}

// All returns every currently registered face, for diagnostics and for
// Ethernet/multicast-style fan-out listeners.
func (c *ConnectionTable) All() []*NDNLPLinkService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*NDNLPLinkService, 0, len(c.byID))
	for _, ls := range c.byID {
		out = append(out, ls)
	}
	return out
}

// register assigns a fresh, never-reused connection-id to ls and inserts
// it into both indexes atomically. Called only from NDNLPLinkService's own
// constructor, so a LinkService is never observable half-registered.
func (c *ConnectionTable) register(ls *NDNLPLinkService, pair defn.AddressPair) uint64 {
	id := c.nextID.Add(1)
	ls.transport.setFaceID(id)

	c.mu.Lock()
	c.byID[id] = ls
	c.byAddr[pair] = ls
	c.mu.Unlock()

	return id
}

// remove deletes ls from both indexes. Called when a LinkService's
// transport goes down for good (spec.md §4.2's "destroyed only when the
// last strong reference is dropped").
func (c *ConnectionTable) remove(faceID uint64, pair defn.AddressPair) {
	c.mu.Lock()
	delete(c.byID, faceID)
	delete(c.byAddr, pair)
	c.mu.Unlock()
}
