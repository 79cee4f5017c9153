package table

import (
	"time"

	"github.com/gonfd/gonfd/defn"
	enc "github.com/gonfd/gonfd/std/encoding"
	"github.com/gonfd/gonfd/std/types/optional"
)

// baseCsEntry is one cached Content Object: its Content Store index
// (insertion-order key, used to break match ties toward the
// most-recently-inserted per spec.md §4.7), its staleness deadline, and
// its raw wire bytes (re-served byte-for-byte on a hit). name/digest cache
// the values ContentStore would otherwise have to re-decode from wire on
// every index operation.
type baseCsEntry struct {
	index     uint64
	staleTime time.Time
	wire      enc.Wire
	name      enc.Name
	digest    optional.Optional[[]byte]

	lruPrev, lruNext *baseCsEntry // intrusive LRU list links, owned by ContentStore
}

// mustName returns this entry's Name, decoding it from the stored wire if
// it was not supplied at construction (as the unit tests' bare literals do
// not).
func (e *baseCsEntry) mustName() enc.Name {
	if e.name != nil {
		return e.name
	}
	if data, err := defn.DecodeDataWire(e.wire); err == nil {
		e.name = data.NameV
	}
	return e.name
}

func (e *baseCsEntry) Index() uint64        { return e.index }
func (e *baseCsEntry) StaleTime() time.Time { return e.staleTime }

// Copy decodes this entry's stored wire bytes back into a Content Object
// view, alongside the raw wire itself (for re-serving unmodified).
func (e *baseCsEntry) Copy() (*defn.FwData, enc.Wire, error) {
	data, err := defn.DecodeDataWire(e.wire)
	if err != nil {
		return nil, nil, err
	}
	return data, e.wire, nil
}

func (e *baseCsEntry) isStale(now time.Time) bool {
	return !e.staleTime.IsZero() && !e.staleTime.After(now)
}
