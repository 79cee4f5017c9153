package table

import (
	"time"

	enc "github.com/gonfd/gonfd/std/encoding"
)

// PitEntry is the view of a PIT entry exposed outside this package: a
// forwarding strategy reads restrictions and in/out records off it, but
// never touches the matching-rule bookkeeping (ruleTable/ruleKey) that is
// internal to how the Pit indexes entries (spec.md §9's "single owner plus
// handles" guidance).
type PitEntry interface {
	EncName() enc.Name
	CanBePrefix() bool
	MustBeFresh() bool
	ForwardingHintNew() enc.Name
	ExpirationTime() time.Time
	Satisfied() bool
	Token() uint32
	InRecords() map[uint64]*PitInRecord
	OutRecords() map[uint64]*PitOutRecord
}
