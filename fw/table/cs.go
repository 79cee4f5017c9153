package table

import (
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gonfd/gonfd/defn"
	enc "github.com/gonfd/gonfd/std/encoding"
)

// ContentStore is the RAM-resident, name-indexed cache of Content Objects
// spec.md §4.7 describes: lazy-expire-then-LRU eviction, matching-rule
// precedence at lookup, at most one match per interest.
type ContentStore struct {
	capacity int
	nextIdx  uint64

	byName   map[uint64][]*baseCsEntry // exact-name index (table1)
	byDigest map[uint64][]*baseCsEntry // name+digest index (table3)
	prefixed []*baseCsEntry            // entries reachable via CanBePrefix, scanned linearly

	lruHead, lruTail *baseCsEntry // sentinels; lruHead.lruNext is MRU
	size             int
}

// NewContentStore constructs an empty ContentStore with room for capacity
// entries.
func NewContentStore(capacity int) *ContentStore {
	head := &baseCsEntry{}
	tail := &baseCsEntry{}
	head.lruNext = tail
	tail.lruPrev = head
	return &ContentStore{
		capacity: capacity,
		byName:   make(map[uint64][]*baseCsEntry),
		byDigest: make(map[uint64][]*baseCsEntry),
		lruHead:  head,
		lruTail:  tail,
	}
}

func (cs *ContentStore) String() string { return "content-store" }

// Capacity returns the configured maximum entry count.
func (cs *ContentStore) Capacity() int { return cs.capacity }

// Size returns the current entry count.
func (cs *ContentStore) Size() int { return cs.size }

func (cs *ContentStore) unlink(e *baseCsEntry) {
	e.lruPrev.lruNext = e.lruNext
	e.lruNext.lruPrev = e.lruPrev
	e.lruPrev, e.lruNext = nil, nil
}

func (cs *ContentStore) pushFront(e *baseCsEntry) {
	e.lruNext = cs.lruHead.lruNext
	e.lruPrev = cs.lruHead
	cs.lruHead.lruNext.lruPrev = e
	cs.lruHead.lruNext = e
}

func (cs *ContentStore) touch(e *baseCsEntry) {
	cs.unlink(e)
	cs.pushFront(e)
}

func (cs *ContentStore) removeEntry(e *baseCsEntry) {
	cs.unlink(e)
	cs.size--
	nameKey := xxhash.Sum64(e.mustName().Bytes())
	cs.byName[nameKey] = removeFromSlice(cs.byName[nameKey], e)
	if len(cs.byName[nameKey]) == 0 {
		delete(cs.byName, nameKey)
	}
	if digest, ok := e.digest.Get(); ok {
		dkey := hashNameAndBytesKey(e.mustName(), digest)
		cs.byDigest[dkey] = removeFromSlice(cs.byDigest[dkey], e)
		if len(cs.byDigest[dkey]) == 0 {
			delete(cs.byDigest, dkey)
		}
	}
	for i, p := range cs.prefixed {
		if p == e {
			cs.prefixed = append(cs.prefixed[:i], cs.prefixed[i+1:]...)
			break
		}
	}
}

func removeFromSlice(s []*baseCsEntry, e *baseCsEntry) []*baseCsEntry {
	for i, cand := range s {
		if cand == e {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// evictExpired removes every entry whose staleTime has passed.
func (cs *ContentStore) evictExpired(now time.Time) {
	for e := cs.lruTail.lruPrev; e != cs.lruHead; {
		prev := e.lruPrev
		if e.isStale(now) {
			cs.removeEntry(e)
		}
		e = prev
	}
}

// evictLRU removes the single least-recently-used entry.
func (cs *ContentStore) evictLRU() {
	victim := cs.lruTail.lruPrev
	if victim == cs.lruHead {
		return
	}
	cs.removeEntry(victim)
}

// Put inserts data, caching it under its Name (and digest, if known).
// Expired entries are evicted first; if the store is still at capacity,
// the LRU entry is evicted to make room (spec.md §4.7's ordering
// contract). Data without ExpiryTime/RCT is still cached, just immediately
// eligible for LRU eviction.
func (cs *ContentStore) Put(data *defn.FwData, wire enc.Wire, now time.Time) bool {
	if cs.capacity <= 0 {
		return false
	}
	cs.evictExpired(now)
	if cs.size >= cs.capacity {
		cs.evictLRU()
	}

	cs.nextIdx++
	var stale time.Time // zero: never stale, left to LRU eviction
	if fresh, ok := data.FreshnessPeriodV.Get(); ok {
		stale = now.Add(fresh)
	}
	e := &baseCsEntry{index: cs.nextIdx, staleTime: stale, wire: wire, name: data.NameV, digest: data.DigestV}

	nameKey := xxhash.Sum64(data.NameV.Bytes())
	cs.byName[nameKey] = append(cs.byName[nameKey], e)
	if digest, ok := data.DigestV.Get(); ok {
		dkey := hashNameAndBytesKey(data.NameV, digest)
		cs.byDigest[dkey] = append(cs.byDigest[dkey], e)
	}
	cs.prefixed = append(cs.prefixed, e)

	cs.pushFront(e)
	cs.size++
	return true
}

// Match looks up the best entry for interest, by matching-rule precedence
// (hash, then name), evicting expired entries first. A hit updates the
// entry's LRU position; ties are broken toward the most-recently-inserted
// entry (highest index).
func (cs *ContentStore) Match(interest *defn.FwInterest, now time.Time) (*defn.FwData, enc.Wire, bool) {
	cs.evictExpired(now)

	if hash, ok := interest.ContentObjectHashV.Get(); ok {
		if e := bestByIndex(cs.byDigest[hashNameAndBytesKey(interest.NameV, hash)]); e != nil {
			cs.touch(e)
			data, wire, err := e.Copy()
			if err == nil {
				return data, wire, true
			}
		}
		return nil, nil, false
	}

	if interest.CanBePrefixV {
		var best *baseCsEntry
		for _, e := range cs.prefixed {
			n := e.mustName()
			if interest.NameV.IsPrefix(n) && (best == nil || e.index > best.index) {
				best = e
			}
		}
		if best != nil {
			cs.touch(best)
			data, wire, err := best.Copy()
			if err == nil {
				return data, wire, true
			}
		}
		return nil, nil, false
	}

	if e := bestByIndex(cs.byName[xxhash.Sum64(interest.NameV.Bytes())]); e != nil {
		// exact-name candidates may differ in length if a hash collision
		// occurred; confirm equality before trusting the hit.
		if e.mustName().Equal(interest.NameV) {
			cs.touch(e)
			data, wire, err := e.Copy()
			if err == nil {
				return data, wire, true
			}
		}
	}
	return nil, nil, false
}

// Remove deletes every cached entry under name.
func (cs *ContentStore) Remove(name enc.Name) bool {
	key := xxhash.Sum64(name.Bytes())
	bucket := cs.byName[key]
	if len(bucket) == 0 {
		return false
	}
	for _, e := range append([]*baseCsEntry(nil), bucket...) {
		if e.mustName().Equal(name) {
			cs.removeEntry(e)
		}
	}
	return true
}

func bestByIndex(bucket []*baseCsEntry) *baseCsEntry {
	var best *baseCsEntry
	for _, e := range bucket {
		if best == nil || e.index > best.index {
			best = e
		}
	}
	return best
}
