package fw

import (
	"fmt"

	"github.com/gonfd/gonfd/core"
	"github.com/gonfd/gonfd/defn"
	"github.com/gonfd/gonfd/fw/face"
	"github.com/gonfd/gonfd/fw/table"
)

// Strategy is a pluggable per-prefix forwarding policy (spec.md §4.8): it
// decides which FIB nexthops actually receive a forwarded Interest, and is
// notified of every Content Store hit, Data arrival, and Interest
// satisfaction so stateful variants (load-balanced, probing) can track
// nexthop health across calls.
type Strategy interface {
	Instantiate(fwThread *Thread)
	String() string
	Base() *StrategyBase

	AfterContentStoreHit(packet *defn.Pkt, pitEntry table.PitEntry, inFace uint64)
	AfterReceiveData(packet *defn.Pkt, pitEntry table.PitEntry, inFace uint64)
	AfterReceiveInterest(packet *defn.Pkt, pitEntry table.PitEntry, inFace uint64, nexthops []*table.FibNextHopEntry)
	BeforeSatisfyInterest(pitEntry table.PitEntry, inFace uint64)
}

// strategyInit holds one constructor per registered Strategy type; each
// variant's init() appends to this list, mirroring the teacher's
// fw/fw/multicast.go registration idiom.
var strategyInit []func() Strategy

// StrategyVersions maps a strategy's short name to every version number
// registered for it, for the control plane's strategy-choice reporting
// (spec.md §6 "set per-FIB-entry strategy").
var StrategyVersions = make(map[string][]uint64)

// strategyFullName returns the strategy-identifying Name used to
// key a FIB route's strategy field, e.g. "/localhost/nfd/strategy/multicast".
func strategyFullName(name string) string {
	return "/localhost/nfd/strategy/" + name
}

// StrategyBase supplies every Strategy variant with its identity and the
// send-path plumbing (FIB/PIT/ConnectionTable lookups, counters, path-label
// stamping) spec.md §4.9.1(g)/§4.9's "path-label discipline" describes,
// exactly as the teacher's one surviving variant (Multicast) already calls
// s.SendInterest/s.SendData without implementing them itself.
type StrategyBase struct {
	thread  *Thread
	name    string
	version uint64
}

// NewStrategyBase records this strategy's thread, name, and version. It
// registers nothing: each variant's init() adds itself to strategyInit and
// StrategyVersions.
func (s *StrategyBase) NewStrategyBase(fwThread *Thread, name string, version uint64) {
	s.thread = fwThread
	s.name = name
	s.version = version
}

// String returns the strategy's display name, used as the core.Log subject.
// fw.Thread registers instances under FullName, not under this string.
func (s *StrategyBase) String() string {
	return fmt.Sprintf("%s/v=%d", s.name, s.version)
}

// FullName returns this strategy's FIB-facing identifying Name.
func (s *StrategyBase) FullName() string {
	return strategyFullName(s.name)
}

// Base returns s itself, letting Thread recover a strategy's identity
// through the Strategy interface regardless of which concrete variant
// embeds this StrategyBase.
func (s *StrategyBase) Base() *StrategyBase {
	return s
}

// SendInterest resends packet (already HopLimit-decremented by the
// MessageProcessor, spec.md §4.9.1(g)) out nexthop, skipping a remote
// nexthop whose HopLimit would hit zero and recording the attempt in the
// PIT entry's egress-set regardless of outcome.
func (s *StrategyBase) SendInterest(
	packet *defn.Pkt,
	pitEntry table.PitEntry,
	nexthop uint64,
	inFace uint64,
) bool {
	stats := s.thread.processor.stats

	ls, ok := face.Faces.Get(nexthop)
	if !ok {
		stats.countDroppedConnectionNotFound++
		return false
	}

	hopLimit, hasHopLimit := packet.HopLimit().Get()
	if hasHopLimit && ls.Scope() == defn.NonLocal && hopLimit == 0 {
		stats.countDroppedZeroHopLimitToRemote++
		return false
	}

	s.thread.pit.InsertOutRecord(pitEntry, packet.L3.Interest, nexthop)

	packet.PathLabelV.Stamp(nexthop)
	wire := defn.EncodeInterestWire(packet.L3.Interest)
	ok = ls.SendInterest(packet.L3.Interest, packet.PathLabelV, wire.Join())
	if !ok {
		stats.countSendFailures++
		return false
	}
	stats.countInterestForwarded++
	return true
}

// SendData sends packet to nexthop, stamping the path label. source 0
// means the Content Store is the origin, matching multicast.go's existing
// convention of calling SendData(packet, pitEntry, inFace, 0).
func (s *StrategyBase) SendData(
	packet *defn.Pkt,
	pitEntry table.PitEntry,
	nexthop uint64,
	source uint64,
) bool {
	stats := s.thread.processor.stats

	ls, ok := face.Faces.Get(nexthop)
	if !ok {
		stats.countDroppedConnectionNotFound++
		return false
	}

	if packet.Wire == nil {
		// A Content Object this forwarder originated itself, rather than
		// received or served from cache, would have no stored wire bytes;
		// this forwarder never originates Content Objects (spec.md §1's
		// scope is the data plane, not an application), so this should be
		// unreachable in practice.
		core.Log.Error(s, "Content Object has no wire bytes to forward", "name", packet.Name)
		stats.countSendFailures++
		return false
	}

	packet.PathLabelV.Stamp(nexthop)
	if !ls.SendData(packet.L3.Data, packet.PathLabelV, packet.Wire.Join()) {
		stats.countSendFailures++
		return false
	}
	stats.countObjectsForwarded++
	return true
}

func logStrategy(s Strategy, msg string, kv ...any) {
	core.Log.Trace(s, msg, kv...)
}
