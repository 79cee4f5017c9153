package table

import (
	"math/rand"

	"github.com/gonfd/gonfd/defn"
	"github.com/gonfd/gonfd/std/types/priority_queue"
)

// Verdict is receive-interest's outcome (spec.md §4.5).
type Verdict int

const (
	// NewEntry means no PIT entry existed; one was created.
	NewEntry Verdict = iota
	// Aggregated means an existing entry absorbed this arrival; no
	// re-forwarding is needed.
	Aggregated
	// Forward means an existing entry exists but the same ingress sent
	// this Interest again, so it must be re-forwarded upstream.
	Forward
)

// Pit is the Pending Interest Table: the per-Interest bookkeeping that lets
// a later Content Object be multiplexed back to every face that asked for
// it (spec.md §4.5).
type Pit struct {
	rules   *MatchingRulesTable
	expiry  *priority_queue.Queue[*basePitEntry, int64]
	expItem map[*basePitEntry]*priority_queue.Item[*basePitEntry, int64]
}

// NewPit constructs an empty Pit.
func NewPit() *Pit {
	return &Pit{
		rules:   NewMatchingRulesTable(),
		expiry:  new(priority_queue.Queue[*basePitEntry, int64]),
		expItem: make(map[*basePitEntry]*priority_queue.Item[*basePitEntry, int64]),
	}
}

func (p *Pit) String() string { return "pit" }

func (p *Pit) schedule(e *basePitEntry) {
	prio := e.ExpirationTime().UnixNano()
	if item, ok := p.expItem[e]; ok {
		p.expiry.UpdatePriority(item, prio)
		return
	}
	p.expItem[e] = p.expiry.Push(e, prio)
}

func (p *Pit) unschedule(e *basePitEntry) {
	delete(p.expItem, e)
	// the heap entry is left in place and skipped by CleanUpExpired /
	// lazily dropped once it reaches the front, since priority_queue
	// offers no direct remove - this is bounded by PIT entries being
	// short-lived (spec.md §4.5's expiry-sweep note).
}

// ReceiveInterest runs the receive-interest algorithm (spec.md §4.5),
// inserting or aggregating with an existing entry keyed by matching-rule
// precedence, and stamps a PIT token onto the in-record for ingress.
func (p *Pit) ReceiveInterest(interest *defn.FwInterest, ingress uint64) (Verdict, PitEntry) {
	e, existed := p.rules.FindOrInsert(interest, rand.Uint32())
	token := tokenBytes(e.Token())

	if !existed {
		lifetime := interest.LifetimeV.GetOr(defaultInterestLifetime())
		e.setExpirationTime(clockNow().Add(lifetime))
		e.InsertInRecord(interest, ingress, token)
		p.schedule(e)
		return NewEntry, e
	}

	_, alreadyFromThisFace, _ := e.InsertInRecord(interest, ingress, token)
	newExpiry := clockNow().Add(interest.LifetimeV.GetOr(defaultInterestLifetime()))
	if newExpiry.After(e.ExpirationTime()) {
		e.setExpirationTime(newExpiry)
	}
	p.schedule(e)

	if alreadyFromThisFace {
		return Forward, e
	}
	return Aggregated, e
}

// InsertOutRecord records that interest was forwarded out egress, for
// later reverse-path resolution.
func (p *Pit) InsertOutRecord(e PitEntry, interest *defn.FwInterest, egress uint64) *PitOutRecord {
	bpe := e.(*basePitEntry)
	return bpe.InsertOutRecord(interest, egress, tokenBytes(bpe.Token()))
}

// GetPitEntry returns the entry matching interest, if any.
func (p *Pit) GetPitEntry(interest *defn.FwInterest) (PitEntry, bool) {
	e, ok := p.rules.FindOrInsert(interest, 0)
	if !ok {
		p.rules.Remove(e) // FindOrInsert always inserts; undo on a pure lookup miss
		return nil, false
	}
	return e, true
}

// SatisfyInterest runs the satisfy-interest algorithm (spec.md §4.5):
// collects every entry the Content Object in pkt matches across all three
// tables, marks each satisfied, and removes it from every matching-rule
// table. The caller (a forwarding strategy, via the MessageProcessor) reads
// each returned entry's InRecords to learn its ingress-set (spec.md §8
// "Content satisfaction" unions across the matched entries, one at a time).
func (p *Pit) SatisfyInterest(pkt *defn.Pkt) []PitEntry {
	entries := p.rules.FindByData(pkt)
	if len(entries) == 0 {
		return nil
	}

	out := make([]PitEntry, 0, len(entries))
	for _, e := range entries {
		e.SetSatisfied(true)
		p.removeEntry(e)
		out = append(out, e)
	}
	return out
}

func (p *Pit) removeEntry(e *basePitEntry) {
	p.rules.Remove(e)
	p.unschedule(e)
}

// RemoveInterest removes the entry matching interest, if any.
func (p *Pit) RemoveInterest(interest *defn.FwInterest) {
	e, ok := p.rules.FindOrInsert(interest, 0)
	if !ok {
		return
	}
	p.removeEntry(e)
}

// Count returns the number of live PIT entries.
func (p *Pit) Count() int { return p.rules.Count() }

// CleanUpExpired walks entries whose expiry has passed and removes them
// (spec.md §4.5's expiry sweep, backed here by a priority queue rather
// than a full scan).
func (p *Pit) CleanUpExpired(now int64) (removed int) {
	for p.expiry.Len() > 0 && p.expiry.PeekPriority() <= now {
		e := p.expiry.Pop()
		if _, live := p.expItem[e]; !live {
			continue // was unscheduled (refreshed or satisfied) since being pushed
		}
		delete(p.expItem, e)
		p.rules.Remove(e)
		removed++
	}
	return removed
}
