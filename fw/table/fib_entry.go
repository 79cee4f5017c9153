package table

import (
	enc "github.com/gonfd/gonfd/std/encoding"
)

// FibNextHopEntry is one egress connection a FIB route may forward through,
// along with its configured cost (used to break ties and for diagnostics).
type FibNextHopEntry struct {
	Nexthop uint64
	Cost    uint64
}

// baseFibStrategyEntry is one trie node's payload: the name prefix it was
// registered for, the set of nexthops routed there, and the strategy
// (named by a strategy-identifying Name, e.g.
// /localhost/nfd/strategy/multicast) this prefix forwards with (spec.md
// §4.6, §4.8 "a strategy is a per-FIB-entry object").
type baseFibStrategyEntry struct {
	component enc.Component
	name      enc.Name
	nexthops  []*FibNextHopEntry
	strategy  enc.Name
}

func (e *baseFibStrategyEntry) Name() enc.Name             { return e.name }
func (e *baseFibStrategyEntry) GetStrategy() enc.Name       { return e.strategy }
func (e *baseFibStrategyEntry) GetNextHops() []*FibNextHopEntry { return e.nexthops }

func (e *baseFibStrategyEntry) SetStrategy(strategy enc.Name) { e.strategy = strategy }

// AddNextHop inserts or updates the nexthop entry for connID with the
// given cost.
func (e *baseFibStrategyEntry) AddNextHop(connID uint64, cost uint64) {
	for _, nh := range e.nexthops {
		if nh.Nexthop == connID {
			nh.Cost = cost
			return
		}
	}
	e.nexthops = append(e.nexthops, &FibNextHopEntry{Nexthop: connID, Cost: cost})
}

// RemoveNextHop removes connID from this entry's nexthop set, reporting
// whether the set is now empty (the caller should then drop the route).
func (e *baseFibStrategyEntry) RemoveNextHop(connID uint64) (empty bool) {
	for i, nh := range e.nexthops {
		if nh.Nexthop == connID {
			e.nexthops = append(e.nexthops[:i], e.nexthops[i+1:]...)
			break
		}
	}
	return len(e.nexthops) == 0
}

// snapshotNextHops returns a copy of the nexthop slice, so callers
// iterating it are unaffected by concurrent route changes (spec.md §4.6
// "the nexthops returned are a snapshot copy").
func (e *baseFibStrategyEntry) snapshotNextHops() []*FibNextHopEntry {
	out := make([]*FibNextHopEntry, len(e.nexthops))
	copy(out, e.nexthops)
	return out
}
