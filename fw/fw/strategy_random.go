package fw

import (
	"math/rand"

	"github.com/gonfd/gonfd/core"
	"github.com/gonfd/gonfd/defn"
	"github.com/gonfd/gonfd/fw/table"
)

// Random forwards each Interest to a single uniformly-chosen nexthop,
// rather than every nexthop (spec.md §4.8's "random" variant).
type Random struct {
	StrategyBase
}

func init() {
	strategyInit = append(strategyInit, func() Strategy { return &Random{} })
	StrategyVersions["random"] = []uint64{1}
}

func (s *Random) Instantiate(fwThread *Thread) {
	s.NewStrategyBase(fwThread, "random", 1)
}

func (s *Random) AfterContentStoreHit(packet *defn.Pkt, pitEntry table.PitEntry, inFace uint64) {
	s.SendData(packet, pitEntry, inFace, 0)
}

func (s *Random) AfterReceiveData(packet *defn.Pkt, pitEntry table.PitEntry, inFace uint64) {
	for faceID := range pitEntry.InRecords() {
		s.SendData(packet, pitEntry, faceID, inFace)
	}
}

func (s *Random) AfterReceiveInterest(
	packet *defn.Pkt,
	pitEntry table.PitEntry,
	inFace uint64,
	nexthops []*table.FibNextHopEntry,
) {
	if len(nexthops) == 0 {
		core.Log.Debug(s, "No nexthop for Interest", "name", packet.Name)
		return
	}
	chosen := nexthops[rand.Intn(len(nexthops))]
	core.Log.Trace(s, "Forwarding Interest", "name", packet.Name, "faceid", chosen.Nexthop)
	s.SendInterest(packet, pitEntry, chosen.Nexthop, inFace)
}

func (s *Random) BeforeSatisfyInterest(pitEntry table.PitEntry, inFace uint64) {}
