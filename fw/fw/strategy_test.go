package fw

import (
	"testing"

	enc "github.com/gonfd/gonfd/std/encoding"
	"github.com/gonfd/gonfd/fw/table"
	"github.com/stretchr/testify/assert"
)

func nexthops(ids ...uint64) []*table.FibNextHopEntry {
	out := make([]*table.FibNextHopEntry, len(ids))
	for i, id := range ids {
		out[i] = &table.FibNextHopEntry{Nexthop: id}
	}
	return out
}

// segmentNexthop must be stable across repeated calls with the same Name
// (spec.md §4.8 "random-per-segment ... stable per segment").
func TestSegmentNexthop_Stable(t *testing.T) {
	name, _ := enc.NameFromStr("/a/b/segment7")
	candidates := nexthops(1, 2, 3, 4)

	first := segmentNexthop(name, candidates)
	for i := 0; i < 20; i++ {
		assert.Same(t, first, segmentNexthop(name, candidates))
	}
}

// Two different last segments are not guaranteed to collide; spreading is
// a statistical property, but the hash must stay within bounds for an
// edge case (a name with no components at all).
func TestSegmentNexthop_EmptyName(t *testing.T) {
	candidates := nexthops(1, 2, 3)
	chosen := segmentNexthop(enc.Name{}, candidates)
	assert.Contains(t, candidates, chosen)
}

// A nexthop with a perfect observed record must outweigh one with none.
func TestNexthopStats_WeightOrdering(t *testing.T) {
	untried := &nexthopStats{}
	failing := &nexthopStats{sent: 100, success: 0}
	succeeding := &nexthopStats{sent: 100, success: 100}

	assert.Greater(t, succeeding.weight(), untried.weight())
	assert.Greater(t, untried.weight(), failing.weight())
}

// LoadBalanced.choose must only ever return one of the candidates handed
// to it, regardless of accumulated stats.
func TestLoadBalanced_ChooseWithinCandidates(t *testing.T) {
	s := &LoadBalanced{stats: make(map[uint64]*nexthopStats)}
	candidates := nexthops(10, 20, 30)

	for i := 0; i < 50; i++ {
		chosen := s.choose(candidates)
		assert.Contains(t, candidates, chosen)
	}
}

// statsFor bookkeeping: each nexthop gets one tally, created on first use
// and kept, so sent and success increments made through it accumulate.
func TestLoadBalanced_StatsBookkeeping(t *testing.T) {
	s := &LoadBalanced{stats: make(map[uint64]*nexthopStats)}
	s.statsFor(10).sent++
	s.statsFor(10).success++

	assert.Equal(t, uint64(1), s.stats[10].sent)
	assert.Equal(t, uint64(1), s.stats[10].success)
}
