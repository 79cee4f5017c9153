package table

import (
	"time"

	"github.com/gonfd/gonfd/defn"
	enc "github.com/gonfd/gonfd/std/encoding"
)

// PitInRecord tracks one face that has sent this Interest, so the PIT can
// multiplex a returning Data to every still-pending downstream (spec.md
// §4.5).
type PitInRecord struct {
	Face          uint64
	LatestNonce   uint32
	LatestTimestamp time.Time
	LatestEncodedInterest enc.Wire
	ExpirationTime time.Time
	PitToken      defn.PitToken
}

// PitOutRecord tracks one face this Interest was forwarded out of, so a
// returning Data or NACK can be matched back to the upstream attempt that
// caused it (spec.md §4.5).
type PitOutRecord struct {
	Face            uint64
	LatestNonce     uint32
	LatestTimestamp time.Time
	LatestEncodedInterest enc.Wire
	ExpirationTime  time.Time
	PitToken        defn.PitToken
}

// basePitEntry is the common state every PIT matching rule (Name-only,
// Name+KeyId, Name+ContentObjectHash) shares. The three matching-rule
// tables in matching_rules.go each hold these keyed differently; the entry
// records which table and key it was inserted under in ruleTable/ruleKey.
type basePitEntry struct {
	encname           enc.Name
	canBePrefix       bool
	mustBeFresh       bool
	forwardingHintNew enc.Name
	expirationTime    time.Time
	satisfied         bool
	token             uint32

	inRecords  map[uint64]*PitInRecord
	outRecords map[uint64]*PitOutRecord

	ruleTable int    // which of MatchingRulesTable's 3 tables this entry lives in
	ruleKey   uint64 // this entry's hash key within that table
}

// newBasePitEntry constructs a basePitEntry for an arriving Interest that
// did not already have one in its matching rule's table.
func newBasePitEntry(interest *defn.FwInterest, token uint32) *basePitEntry {
	return &basePitEntry{
		encname:           interest.NameV,
		canBePrefix:       interest.CanBePrefixV,
		mustBeFresh:       interest.MustBeFreshV,
		forwardingHintNew: interest.ForwardingHintNewV,
		token:             token,
		inRecords:         make(map[uint64]*PitInRecord),
		outRecords:        make(map[uint64]*PitOutRecord),
	}
}

func (bpe *basePitEntry) EncName() enc.Name            { return bpe.encname }
func (bpe *basePitEntry) CanBePrefix() bool             { return bpe.canBePrefix }
func (bpe *basePitEntry) MustBeFresh() bool             { return bpe.mustBeFresh }
func (bpe *basePitEntry) ForwardingHintNew() enc.Name   { return bpe.forwardingHintNew }
func (bpe *basePitEntry) ExpirationTime() time.Time     { return bpe.expirationTime }
func (bpe *basePitEntry) Satisfied() bool               { return bpe.satisfied }
func (bpe *basePitEntry) Token() uint32                 { return bpe.token }

func (bpe *basePitEntry) setExpirationTime(t time.Time) { bpe.expirationTime = t }
func (bpe *basePitEntry) SetSatisfied(s bool)           { bpe.satisfied = s }

func (bpe *basePitEntry) InRecords() map[uint64]*PitInRecord   { return bpe.inRecords }
func (bpe *basePitEntry) OutRecords() map[uint64]*PitOutRecord { return bpe.outRecords }

func (bpe *basePitEntry) ClearInRecords()  { bpe.inRecords = make(map[uint64]*PitInRecord) }
func (bpe *basePitEntry) ClearOutRecords() { bpe.outRecords = make(map[uint64]*PitOutRecord) }

// InsertInRecord records that interest arrived on faceID, aggregating with
// any existing record for that face (spec.md §4.5 "aggregation"). It
// returns the record, whether a record already existed for this face, and
// (when one did) the nonce that record carried before being overwritten.
func (bpe *basePitEntry) InsertInRecord(
	interest *defn.FwInterest, faceID uint64, pitToken defn.PitToken,
) (record *PitInRecord, alreadyExists bool, prevNonce uint32) {
	now := clockNow()
	record, alreadyExists = bpe.inRecords[faceID]
	if !alreadyExists {
		record = &PitInRecord{Face: faceID}
		bpe.inRecords[faceID] = record
	} else {
		prevNonce = record.LatestNonce
	}

	record.LatestNonce = interest.NonceV.Unwrap()
	record.LatestTimestamp = now
	record.PitToken = pitToken
	if lifetime, ok := interest.LifetimeV.Get(); ok {
		record.ExpirationTime = now.Add(lifetime)
	} else {
		record.ExpirationTime = now.Add(defaultInterestLifetime())
	}
	return record, alreadyExists, prevNonce
}

// InsertOutRecord records that interest was forwarded out faceID.
func (bpe *basePitEntry) InsertOutRecord(
	interest *defn.FwInterest, faceID uint64, pitToken defn.PitToken,
) *PitOutRecord {
	now := clockNow()
	record, exists := bpe.outRecords[faceID]
	if !exists {
		record = &PitOutRecord{Face: faceID}
		bpe.outRecords[faceID] = record
	}

	record.LatestNonce = interest.NonceV.Unwrap()
	record.LatestTimestamp = now
	record.PitToken = pitToken
	if lifetime, ok := interest.LifetimeV.Get(); ok {
		record.ExpirationTime = now.Add(lifetime)
	} else {
		record.ExpirationTime = now.Add(defaultInterestLifetime())
	}
	return record
}
