package fw

import (
	"github.com/cespare/xxhash/v2"
	"github.com/gonfd/gonfd/core"
	"github.com/gonfd/gonfd/defn"
	enc "github.com/gonfd/gonfd/std/encoding"
	"github.com/gonfd/gonfd/fw/table"
)

// RandomPerSegment picks one nexthop by hashing the Interest name's last
// segment, so repeated requests for the same segment always take the same
// nexthop while different segments of the same stream spread across all of
// them (spec.md §4.8's "random-per-segment" variant).
type RandomPerSegment struct {
	StrategyBase
}

func init() {
	strategyInit = append(strategyInit, func() Strategy { return &RandomPerSegment{} })
	StrategyVersions["random-per-segment"] = []uint64{1}
}

func (s *RandomPerSegment) Instantiate(fwThread *Thread) {
	s.NewStrategyBase(fwThread, "random-per-segment", 1)
}

func (s *RandomPerSegment) AfterContentStoreHit(packet *defn.Pkt, pitEntry table.PitEntry, inFace uint64) {
	s.SendData(packet, pitEntry, inFace, 0)
}

func (s *RandomPerSegment) AfterReceiveData(packet *defn.Pkt, pitEntry table.PitEntry, inFace uint64) {
	for faceID := range pitEntry.InRecords() {
		s.SendData(packet, pitEntry, faceID, inFace)
	}
}

func (s *RandomPerSegment) AfterReceiveInterest(
	packet *defn.Pkt,
	pitEntry table.PitEntry,
	inFace uint64,
	nexthops []*table.FibNextHopEntry,
) {
	if len(nexthops) == 0 {
		core.Log.Debug(s, "No nexthop for Interest", "name", packet.Name)
		return
	}

	chosen := segmentNexthop(packet.Name, nexthops)
	core.Log.Trace(s, "Forwarding Interest", "name", packet.Name, "faceid", chosen.Nexthop)
	s.SendInterest(packet, pitEntry, chosen.Nexthop, inFace)
}

// segmentNexthop hashes name's last component to pick one of nexthops,
// stable for repeated calls with the same name (spec.md §4.8).
func segmentNexthop(name enc.Name, nexthops []*table.FibNextHopEntry) *table.FibNextHopEntry {
	var segment []byte
	if n := len(name); n > 0 {
		segment = name[n-1].Bytes()
	}
	idx := xxhash.Sum64(segment) % uint64(len(nexthops))
	return nexthops[idx]
}

func (s *RandomPerSegment) BeforeSatisfyInterest(pitEntry table.PitEntry, inFace uint64) {}
