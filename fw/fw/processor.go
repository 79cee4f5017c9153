package fw

import (
	"github.com/gonfd/gonfd/core"
	"github.com/gonfd/gonfd/defn"
	"github.com/gonfd/gonfd/fw/face"
	"github.com/gonfd/gonfd/fw/table"
)

// ProcessorStats is the full set of event counters spec.md §6 names,
// carried verbatim (one uint64 field per counter named there).
type ProcessorStats struct {
	countReceived       uint64
	countInterestsReceived uint64
	countObjectsReceived   uint64

	countInterestsAggregated         uint64
	countInterestForwarded           uint64
	countObjectsForwarded            uint64
	countInterestsSatisfiedFromStore uint64

	countDropped       uint64
	countInterestsDropped uint64
	countObjectsDropped   uint64

	countDroppedNoRoute               uint64
	countDroppedNoReversePath         uint64
	countDroppedNoHopLimit            uint64
	countDroppedZeroHopLimitFromRemote uint64
	countDroppedZeroHopLimitToRemote   uint64
	countDroppedConnectionNotFound    uint64

	countSendFailures uint64
}

// Counters returns a copy of the current counter values, for the control
// plane's status reporting (spec.md §6, grounded on the teacher's
// fw/mgmt's thread.Counters() call convention).
func (s *ProcessorStats) Counters() ProcessorStats { return *s }

// MessageProcessor is the per-packet state machine spec.md §4.9 describes:
// dispatch by packet kind, then the Interest or Content Object algorithm,
// coordinating the Content Store, PIT, FIB, and the prefix's Strategy.
type MessageProcessor struct {
	thread *Thread
	stats  *ProcessorStats

	storeInCache   bool
	serveFromCache bool

	tap Tap
}

// Tap is a read-only observer used by test rigs to count packets without
// intruding on the data path (spec.md §6 "Tap hook"). It is handed received
// packets only; sent and dropped events are not reported to it.
type Tap interface {
	Received(pkt *defn.Pkt)
}

// NewMessageProcessor constructs a MessageProcessor bound to thread's
// tables, reading store_in_cache/serve_from_cache from the live config
// (spec.md §4.9's two configuration flags).
func NewMessageProcessor(thread *Thread) *MessageProcessor {
	return &MessageProcessor{
		thread:         thread,
		stats:          &ProcessorStats{},
		storeInCache:   core.C.Fw.StoreInCache,
		serveFromCache: core.C.Fw.ServeFromCache,
	}
}

// SetTap installs an observer for test rigs (spec.md §6's Tap hook).
func (mp *MessageProcessor) SetTap(tap Tap) { mp.tap = tap }

// Counters returns the live counter values.
func (mp *MessageProcessor) Counters() ProcessorStats { return mp.stats.Counters() }

// Receive runs the top-level receive algorithm (spec.md §4.9 "receive(msg)"):
// counts the arrival, invokes the tap, then dispatches by packet kind.
func (mp *MessageProcessor) Receive(pkt *defn.Pkt) {
	mp.stats.countReceived++
	if mp.tap != nil {
		mp.tap.Received(pkt)
	}

	switch pkt.Kind {
	case defn.KindInterest:
		mp.stats.countInterestsReceived++
		mp.receiveInterest(pkt)
	case defn.KindData:
		mp.stats.countObjectsReceived++
		mp.receiveContentObject(pkt)
	case defn.KindProbeRequest, defn.KindProbeReply:
		// Delegated to the Connection itself (spec.md §4.9 step 2); this
		// forwarder's face layer has no probe-specific handling to defer
		// to, so a probe packet is simply counted and dropped.
		mp.stats.countDropped++
	default:
		// Control and anything unrecognized bypass the data plane.
		mp.stats.countDropped++
	}
}

// receiveInterest implements spec.md §4.9.1.
func (mp *MessageProcessor) receiveInterest(pkt *defn.Pkt) {
	interest := pkt.L3.Interest
	ingress := pkt.IncomingFaceId

	// (a) no HopLimit -> drop
	hopLimit, hasHopLimit := interest.HopLimitV.Get()
	if !hasHopLimit {
		mp.stats.countDroppedNoHopLimit++
		mp.stats.countInterestsDropped++
		return
	}

	// (b) HopLimit == 0 from a remote ingress -> drop
	ingressLs, ingressFound := face.Faces.Get(ingress)
	ingressRemote := ingressFound && ingressLs.Scope() == defn.NonLocal
	if hopLimit == 0 && ingressRemote {
		mp.stats.countDroppedZeroHopLimitFromRemote++
		return
	}

	// (c) serve_from_cache: Content Store lookup
	if mp.serveFromCache {
		if data, wire, ok := mp.thread.cs.Match(interest, core.GetClock.Now()); ok {
			reply := defn.NewDataPkt(data)
			reply.Wire = wire
			strat := mp.thread.strategyForName(pkt.Name)
			strat.AfterContentStoreHit(reply, nil, ingress)
			mp.stats.countInterestsSatisfiedFromStore++
			return
		}
	}

	// (d) PIT insert/aggregate
	verdict, pitEntry := mp.thread.pit.ReceiveInterest(interest, ingress)
	if verdict == table.Aggregated {
		mp.stats.countInterestsAggregated++
		return
	}

	// (e) FIB lookup
	nexthops, strategyName := mp.thread.fib.Lookup(interest.NameV)
	if len(nexthops) == 0 {
		mp.stats.countDroppedNoRoute++
		mp.stats.countInterestsDropped++
		return
	}

	// (f)/(g) strategy selects nexthops; HopLimit decrement happens once,
	// shared by every nexthop SendInterest visits (spec.md §4.9.1(g)).
	pkt.SetHopLimit(hopLimit - 1)

	strat := mp.thread.strategyByFullName(strategyName)
	strat.AfterReceiveInterest(pkt, pitEntry, ingress, nexthops)
}

// receiveContentObject implements spec.md §4.9.2.
func (mp *MessageProcessor) receiveContentObject(pkt *defn.Pkt) {
	entries := mp.thread.pit.SatisfyInterest(pkt)
	if len(entries) == 0 {
		mp.stats.countDroppedNoReversePath++
		mp.stats.countObjectsDropped++
		return
	}

	if mp.storeInCache {
		mp.thread.cs.Put(pkt.L3.Data, pkt.Wire, core.GetClock.Now())
	}

	for _, entry := range entries {
		strat := mp.thread.strategyForName(entry.EncName())
		strat.BeforeSatisfyInterest(entry, pkt.IncomingFaceId)
		strat.AfterReceiveData(pkt, entry, pkt.IncomingFaceId)
	}
}
