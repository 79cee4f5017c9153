package fw

import (
	"math/rand"

	"github.com/gonfd/gonfd/core"
	"github.com/gonfd/gonfd/defn"
	"github.com/gonfd/gonfd/fw/table"
)

// nexthopStats is the per-nexthop running tally LoadBalanced samples from.
// Laplace-smoothed so an untried nexthop starts at weight 0.5 rather than 0
// (a 0 weight could never be tried, and would never recover).
type nexthopStats struct {
	sent    uint64
	success uint64
}

func (n *nexthopStats) weight() float64 {
	return (float64(n.success) + 1) / (float64(n.sent) + 2)
}

// LoadBalanced samples one nexthop per Interest, weighted by its observed
// success rate, rather than multicasting or choosing uniformly (spec.md
// §4.8's "load-balanced" variant). Each Thread owns its own LoadBalanced
// instance and only that Thread's single goroutine ever touches it, so the
// stats map needs no locking.
type LoadBalanced struct {
	StrategyBase
	stats map[uint64]*nexthopStats
}

func init() {
	strategyInit = append(strategyInit, func() Strategy { return &LoadBalanced{} })
	StrategyVersions["load-balanced"] = []uint64{1}
}

func (s *LoadBalanced) Instantiate(fwThread *Thread) {
	s.NewStrategyBase(fwThread, "load-balanced", 1)
	s.stats = make(map[uint64]*nexthopStats)
}

func (s *LoadBalanced) statsFor(nexthop uint64) *nexthopStats {
	n, ok := s.stats[nexthop]
	if !ok {
		n = &nexthopStats{}
		s.stats[nexthop] = n
	}
	return n
}

// choose samples one of nexthops weighted by observed success rate.
func (s *LoadBalanced) choose(nexthops []*table.FibNextHopEntry) *table.FibNextHopEntry {
	total := 0.0
	weights := make([]float64, len(nexthops))
	for i, nh := range nexthops {
		w := s.statsFor(nh.Nexthop).weight()
		weights[i] = w
		total += w
	}

	r := rand.Float64() * total
	for i, w := range weights {
		r -= w
		if r <= 0 {
			return nexthops[i]
		}
	}
	return nexthops[len(nexthops)-1]
}

func (s *LoadBalanced) AfterContentStoreHit(packet *defn.Pkt, pitEntry table.PitEntry, inFace uint64) {
	s.SendData(packet, pitEntry, inFace, 0)
}

// AfterReceiveData credits the nexthop the Data arrived from (inFace) with
// a success before fanning the Data out to every pending downstream, the
// only feedback signal available without a dedicated on-timeout hook.
func (s *LoadBalanced) AfterReceiveData(packet *defn.Pkt, pitEntry table.PitEntry, inFace uint64) {
	s.statsFor(inFace).success++
	for faceID := range pitEntry.InRecords() {
		s.SendData(packet, pitEntry, faceID, inFace)
	}
}

func (s *LoadBalanced) AfterReceiveInterest(
	packet *defn.Pkt,
	pitEntry table.PitEntry,
	inFace uint64,
	nexthops []*table.FibNextHopEntry,
) {
	if len(nexthops) == 0 {
		core.Log.Debug(s, "No nexthop for Interest", "name", packet.Name)
		return
	}
	chosen := s.choose(nexthops)
	s.statsFor(chosen.Nexthop).sent++
	core.Log.Trace(s, "Forwarding Interest", "name", packet.Name, "faceid", chosen.Nexthop)
	s.SendInterest(packet, pitEntry, chosen.Nexthop, inFace)
}

func (s *LoadBalanced) BeforeSatisfyInterest(pitEntry table.PitEntry, inFace uint64) {}
