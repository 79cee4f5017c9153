package defn

import (
	"time"

	enc "github.com/gonfd/gonfd/std/encoding"
	"github.com/gonfd/gonfd/std/types/optional"
)

// PacketKind tags the wire-level packet kinds this forwarder recognizes
// (spec.md §6 "packet kinds observed at the wire").
type PacketKind int

const (
	KindInvalid PacketKind = iota
	KindInterest
	KindData
	KindControl
	KindInterestReturn
	KindProbeRequest
	KindProbeReply
)

// String returns the packet kind's name, for logs.
func (k PacketKind) String() string {
	switch k {
	case KindInterest:
		return "Interest"
	case KindData:
		return "Data"
	case KindControl:
		return "Control"
	case KindInterestReturn:
		return "InterestReturn"
	case KindProbeRequest:
		return "ProbeRequest"
	case KindProbeReply:
		return "ProbeReply"
	default:
		return "Invalid"
	}
}

// PitToken is an opaque correlation tag a PIT implementation may stamp on
// an outgoing Interest to recognize its own return traffic without a table
// lookup. Carried as an uninterpreted byte string, per spec.md §3.
type PitToken []byte

// FwInterest is the parsed, read-only view of an Interest this forwarder's
// core treats as primitive (spec.md §3). Fields ending in V mirror the
// on-wire optionality directly: a zero-value Optional means the field was
// absent on the wire, not that it was zero.
type FwInterest struct {
	NameV             enc.Name
	CanBePrefixV      bool
	MustBeFreshV      bool
	ForwardingHintNewV enc.Name
	NonceV            optional.Optional[uint32]
	LifetimeV         optional.Optional[time.Duration]
	HopLimitV         optional.Optional[uint8]
	KeyIdV            optional.Optional[[]byte]
	ContentObjectHashV optional.Optional[[]byte]
}

// FwData is the parsed, read-only view of a Content Object this forwarder's
// core treats as primitive (spec.md §3).
type FwData struct {
	NameV            enc.Name
	FreshnessPeriodV optional.Optional[time.Duration]
	FinalBlockIDV    optional.Optional[enc.Component]
	// DigestV is the implicit content-object hash (sha256 of the wire
	// encoding), computed by the external parser at ingress - this
	// forwarder never hashes packet bytes itself.
	DigestV optional.Optional[[]byte]
	// KeyIdV is the Content Object's KeyId, when the external parser was
	// able to recover one from SignatureInfo - this module's own wire codec
	// (defn/wiredata.go) never parses SignatureInfo, so this field is only
	// ever populated by an upstream parser handing this forwarder an
	// already-decoded FwData, exactly like DigestV above.
	KeyIdV optional.Optional[[]byte]
}

// L3Packet holds the parsed layer-3 view for whichever PacketKind this Pkt
// carries; exactly one of Interest/Data is non-nil for KindInterest/KindData.
type L3Packet struct {
	Interest *FwInterest
	Data     *FwData
}

// PathLabel is a per-hop loop-detection accumulator (spec.md §3): every
// forwarding hop XOR-folds its connection-id modulo 256 into the label.
type PathLabel uint8

// Stamp XOR-folds connID into the label. It is not idempotent: a second
// stamp with the same connID cancels the first (XOR), which is why spec.md
// §8 has retransmission not re-stamp: callers must stamp exactly once per
// hop, not once per send.
func (p *PathLabel) Stamp(connID uint64) {
	*p = PathLabel(uint8(*p) ^ uint8(connID&0xff))
}

// FragFlags are the flag bits carried in a fragmenter frame header
// (spec.md §4.3). FragAck/FragNack mark a cell as carrying no payload of
// its own, only an acknowledgement of the data cell named by Seq.
type FragFlags uint8

const (
	FragBegin FragFlags = 1 << iota
	FragEnd
	FragIdle
	FragAck
	FragNack
)

// FragHeader is the per-fragment header a HopByHopFragmenter prepends to
// each cell on a link-MTU-limited connection (spec.md §4.3): a 24-bit
// sequence number and the flag bits above.
type FragHeader struct {
	Seq   uint32 // low 24 bits significant
	Flags FragFlags
}

// Begin reports whether this fragment starts a packet.
func (h FragHeader) Begin() bool { return h.Flags&FragBegin != 0 }

// End reports whether this fragment ends a packet.
func (h FragHeader) End() bool { return h.Flags&FragEnd != 0 }

// Idle reports whether this fragment is a keep-alive heartbeat carrying no
// packet data.
func (h FragHeader) Idle() bool { return h.Flags&FragIdle != 0 }

// Ack reports whether this cell acknowledges receipt of the data fragment
// named by Seq, rather than carrying a fragment of its own.
func (h FragHeader) Ack() bool { return h.Flags&FragAck != 0 }

// Nack reports whether this cell reports the fragment named by Seq as
// undeliverable.
func (h FragHeader) Nack() bool { return h.Flags&FragNack != 0 }

// Pkt is the immutable-once-parsed packet container
// spec.md §3 calls "Message". It is never constructed by decoding bytes
// inside this module (TLV decoding is out of scope, spec.md §1); a Pkt is
// always built from an already-parsed L3Packet, optionally alongside the
// original wire bytes (kept for retransmission / byte-identical re-send).
type Pkt struct {
	Kind PacketKind
	Name enc.Name
	L3   L3Packet

	// Wire holds the packet's original bytes, when this Pkt was built from
	// a received frame (nil for synthetic/test packets built directly from
	// an L3Packet).
	Wire enc.Wire

	// IncomingFaceId is the connection-id stamped at ingress.
	IncomingFaceId uint64

	// PitTokenV correlates this packet with its originating PIT entry.
	PitTokenV PitToken

	// PathLabelV is this packet's loop-detection accumulator.
	PathLabelV PathLabel

	// Frag is set only when this Pkt represents a single fragmenter cell,
	// not yet reassembled (internal to HopByHopFragmenter).
	Frag *FragHeader
}

// NewInterestPkt builds a Pkt around a parsed Interest.
func NewInterestPkt(i *FwInterest) *Pkt {
	return &Pkt{Kind: KindInterest, Name: i.NameV, L3: L3Packet{Interest: i}}
}

// NewDataPkt builds a Pkt around a parsed Content Object.
func NewDataPkt(d *FwData) *Pkt {
	return &Pkt{Kind: KindData, Name: d.NameV, L3: L3Packet{Data: d}}
}

// HopLimit returns the packet's HopLimit, if any (Interest only).
func (p *Pkt) HopLimit() optional.Optional[uint8] {
	if p.L3.Interest == nil {
		return optional.None[uint8]()
	}
	return p.L3.Interest.HopLimitV
}

// SetHopLimit overwrites the packet's HopLimit in place (Interest only).
func (p *Pkt) SetHopLimit(v uint8) {
	if p.L3.Interest != nil {
		p.L3.Interest.HopLimitV.Set(v)
	}
}

// KeyId returns the packet's KeyId restriction, if any (Interest only).
func (p *Pkt) KeyId() optional.Optional[[]byte] {
	if p.L3.Interest == nil {
		return optional.None[[]byte]()
	}
	return p.L3.Interest.KeyIdV
}

// ContentObjectHash returns the packet's ContentObjectHash restriction, if
// any (Interest only).
func (p *Pkt) ContentObjectHash() optional.Optional[[]byte] {
	if p.L3.Interest == nil {
		return optional.None[[]byte]()
	}
	return p.L3.Interest.ContentObjectHashV
}

// InterestLifetime returns the packet's Interest lifetime, if any.
func (p *Pkt) InterestLifetime() optional.Optional[time.Duration] {
	if p.L3.Interest == nil {
		return optional.None[time.Duration]()
	}
	return p.L3.Interest.LifetimeV
}

// Digest returns the Content Object's implicit digest, if any (Data only).
func (p *Pkt) Digest() optional.Optional[[]byte] {
	if p.L3.Data == nil {
		return optional.None[[]byte]()
	}
	return p.L3.Data.DigestV
}

// DataKeyId returns the Content Object's KeyId, if the upstream parser
// recovered one (Data only). A Data packet this forwarder's own codec
// produced never carries one; see FwData.KeyIdV.
func (p *Pkt) DataKeyId() optional.Optional[[]byte] {
	if p.L3.Data == nil {
		return optional.None[[]byte]()
	}
	return p.L3.Data.KeyIdV
}
