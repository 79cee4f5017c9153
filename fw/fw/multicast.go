package fw

import (
	"time"

	"github.com/gonfd/gonfd/core"
	"github.com/gonfd/gonfd/defn"
	"github.com/gonfd/gonfd/fw/table"
)

// multicastSuppressionWindow bounds how long a retried Interest with a
// different Nonce is suppressed after the last attempt, per spec.md §4.8's
// "multicast" variant.
const multicastSuppressionWindow = 500 * time.Millisecond

// Multicast forwards every Interest to every FIB nexthop and every
// satisfying Data to every face with a pending in-record, per spec.md
// §4.8's "multicast" variant: no nexthop selection, just fan-out.
type Multicast struct {
	StrategyBase
}

func init() {
	strategyInit = append(strategyInit, func() Strategy { return &Multicast{} })
	StrategyVersions["multicast"] = []uint64{1}
}

func (s *Multicast) Instantiate(fwThread *Thread) {
	s.NewStrategyBase(fwThread, "multicast", 1)
}

func (s *Multicast) AfterContentStoreHit(packet *defn.Pkt, pitEntry table.PitEntry, inFace uint64) {
	s.SendData(packet, pitEntry, inFace, 0)
}

func (s *Multicast) AfterReceiveData(packet *defn.Pkt, pitEntry table.PitEntry, inFace uint64) {
	for faceID := range pitEntry.InRecords() {
		s.SendData(packet, pitEntry, faceID, inFace)
	}
}

// AfterReceiveInterest fans packet out to every nexthop, unless an
// out-record less than multicastSuppressionWindow old carries a different
// Nonce - a retry under a new Nonce inside the window gets no second
// fan-out, while a packet repeating the out-record's Nonce does.
func (s *Multicast) AfterReceiveInterest(
	packet *defn.Pkt,
	pitEntry table.PitEntry,
	inFace uint64,
	nexthops []*table.FibNextHopEntry,
) {
	if len(nexthops) == 0 {
		core.Log.Debug(s, "No nexthop for Interest", "name", packet.Name)
		return
	}

	now := time.Now()
	for _, outRecord := range pitEntry.OutRecords() {
		if outRecord.LatestNonce != packet.L3.Interest.NonceV.Unwrap() &&
			outRecord.LatestTimestamp.Add(multicastSuppressionWindow).After(now) {
			core.Log.Debug(s, "Suppressed Interest", "name", packet.Name)
			return
		}
	}

	for _, nexthop := range nexthops {
		s.SendInterest(packet, pitEntry, nexthop.Nexthop, inFace)
	}
}

func (s *Multicast) BeforeSatisfyInterest(pitEntry table.PitEntry, inFace uint64) {}
