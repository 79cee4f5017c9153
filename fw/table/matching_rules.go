package table

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/gonfd/gonfd/defn"
	enc "github.com/gonfd/gonfd/std/encoding"
)

// MatchingRulesTable indexes the same set of basePitEntry values under
// three keys, matching the three ways an Interest can restrict what
// satisfies it (spec.md §4.5):
//
//   - table1: Name alone (the common case - CanBePrefix/MustBeFresh apply
//     at lookup time, not at hash-key time)
//   - table2: Name + KeyId
//   - table3: Name + ContentObjectHash
//
// An entry is always reachable from exactly one table, chosen by which
// restriction its Interest carried; FindOrInsert picks the most specific table
// an Interest's restrictions allow.
type MatchingRulesTable struct {
	table1 map[uint64][]*basePitEntry
	table2 map[uint64][]*basePitEntry
	table3 map[uint64][]*basePitEntry
}

// NewMatchingRulesTable constructs an empty MatchingRulesTable.
func NewMatchingRulesTable() *MatchingRulesTable {
	return &MatchingRulesTable{
		table1: make(map[uint64][]*basePitEntry),
		table2: make(map[uint64][]*basePitEntry),
		table3: make(map[uint64][]*basePitEntry),
	}
}

func hashNameKey(name enc.Name) uint64 {
	return xxhash.Sum64(name.Bytes())
}

func hashNameAndBytesKey(name enc.Name, extra []byte) uint64 {
	h := xxhash.New()
	h.Write(name.Bytes())
	h.Write(extra)
	return h.Sum64()
}

// keyForInterest returns which table an Interest belongs in, and its hash
// key in that table: table3 (ContentObjectHash) takes precedence over
// table2 (KeyId) over table1 (Name only), mirroring NDN's restriction
// precedence.
func keyForInterest(interest *defn.FwInterest) (tableNum int, key uint64) {
	if hash, ok := interest.ContentObjectHashV.Get(); ok {
		return 3, hashNameAndBytesKey(interest.NameV, hash)
	}
	if keyId, ok := interest.KeyIdV.Get(); ok {
		return 2, hashNameAndBytesKey(interest.NameV, keyId)
	}
	return 1, hashNameKey(interest.NameV)
}

func (m *MatchingRulesTable) tableFor(n int) map[uint64][]*basePitEntry {
	switch n {
	case 2:
		return m.table2
	case 3:
		return m.table3
	default:
		return m.table1
	}
}

// FindOrInsert returns the existing basePitEntry for interest's matching
// rule and key, aggregating with it, or inserts and returns a new one.
// The bool return reports whether an existing entry was reused.
func (m *MatchingRulesTable) FindOrInsert(interest *defn.FwInterest, token uint32) (*basePitEntry, bool) {
	tableNum, key := keyForInterest(interest)
	table := m.tableFor(tableNum)

	for _, e := range table[key] {
		if e.encname.Equal(interest.NameV) &&
			e.canBePrefix == interest.CanBePrefixV &&
			e.mustBeFresh == interest.MustBeFreshV {
			return e, true
		}
	}

	e := newBasePitEntry(interest, token)
	e.ruleTable, e.ruleKey = tableNum, key
	table[key] = append(table[key], e)
	return e, false
}

// FindByData returns every basePitEntry across all three tables whose
// restriction the Content Object in pkt satisfies, probed most-specific to
// least-specific per spec.md §4.4: (name, hash-of-this-object) ->
// (name, keyid-of-this-object) -> (name alone).
//
// table2 is probed using pkt.KeyId(), the Content Object's own KeyId as
// recovered by the external parser (defn.FwData.KeyIdV) - this forwarder
// never parses SignatureInfo itself, but a KeyId surfaced to it by the
// parser is used here exactly like the digest is for table3. An Interest
// with a KeyId restriction can therefore be satisfied whenever the arriving
// Data actually carries a matching KeyId; see DESIGN.md for the one
// remaining gap (a Data packet the parser hands us with no KeyId at all).
func (m *MatchingRulesTable) FindByData(pkt *defn.Pkt) []*basePitEntry {
	var out []*basePitEntry

	if digest, ok := pkt.Digest().Get(); ok {
		for _, e := range m.table3[hashNameAndBytesKey(pkt.Name, digest)] {
			out = append(out, e)
		}
	}

	if keyId, ok := pkt.DataKeyId().Get(); ok {
		for _, e := range m.table2[hashNameAndBytesKey(pkt.Name, keyId)] {
			out = append(out, e)
		}
	}

	// table1: exact name, and every ancestor prefix for CanBePrefix entries.
	for i := len(pkt.Name); i >= 0; i-- {
		prefix := pkt.Name.Prefix(i)
		for _, e := range m.table1[hashNameKey(prefix)] {
			if !e.encname.Equal(prefix) {
				continue
			}
			if i == len(pkt.Name) || e.canBePrefix {
				out = append(out, e)
			}
		}
	}

	return out
}

// Remove deletes e from whichever table it was inserted into, using the
// table/key it recorded at insertion time (not recomputed from an
// Interest, which may no longer carry the same restrictions).
func (m *MatchingRulesTable) Remove(e *basePitEntry) {
	table := m.tableFor(e.ruleTable)
	bucket := table[e.ruleKey]
	for i, cand := range bucket {
		if cand == e {
			table[e.ruleKey] = append(bucket[:i], bucket[i+1:]...)
			if len(table[e.ruleKey]) == 0 {
				delete(table, e.ruleKey)
			}
			return
		}
	}
}

// All returns every entry across all three tables, for expiry sweeps and
// diagnostics.
func (m *MatchingRulesTable) All() []*basePitEntry {
	var out []*basePitEntry
	for _, t := range []map[uint64][]*basePitEntry{m.table1, m.table2, m.table3} {
		for _, bucket := range t {
			out = append(out, bucket...)
		}
	}
	return out
}

// Count returns the total number of entries across all three tables.
func (m *MatchingRulesTable) Count() int {
	n := 0
	for _, t := range []map[uint64][]*basePitEntry{m.table1, m.table2, m.table3} {
		for _, bucket := range t {
			n += len(bucket)
		}
	}
	return n
}

func tokenBytes(tok uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, tok)
	return b
}
