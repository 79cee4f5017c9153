package table

import (
	"testing"
	"time"

	"github.com/gonfd/gonfd/core"
	"github.com/gonfd/gonfd/defn"
	enc "github.com/gonfd/gonfd/std/encoding"
	"github.com/gonfd/gonfd/std/types/optional"
	"github.com/stretchr/testify/assert"
)

func withFakeClock(t *testing.T, now time.Time) *core.FakeClock {
	fc := core.NewFakeClock(now)
	core.SetClock(fc)
	t.Cleanup(func() { core.SetClock(core.NewRealClock()) })
	return fc
}

func interestFor(name string, lifetime time.Duration) *defn.FwInterest {
	n, _ := enc.NameFromStr(name)
	i := &defn.FwInterest{NameV: n, NonceV: optional.Some[uint32](1)}
	if lifetime > 0 {
		i.LifetimeV = optional.Some(lifetime)
	}
	return i
}

// Tests spec.md §8's PIT aggregation property: two Interests with the same
// matching key arriving on distinct connections produce one entry whose
// ingress-set unions both faces, and the second arrival is Aggregated.
func TestPitAggregation(t *testing.T) {
	withFakeClock(t, time.Unix(0, 0))
	p := NewPit()

	verdict, e1 := p.ReceiveInterest(interestFor("/hello/ouch", time.Second), 10)
	assert.Equal(t, NewEntry, verdict)

	verdict, e2 := p.ReceiveInterest(interestFor("/hello/ouch", time.Second), 20)
	assert.Equal(t, Aggregated, verdict)
	assert.Same(t, e1, e2)

	assert.Equal(t, 2, len(e1.InRecords()))
	assert.Equal(t, 1, p.Count())
}

// A second arrival of the identical Interest from the SAME ingress face
// must be reported as Forward (it must be re-forwarded upstream), not
// Aggregated.
func TestPitRepeatFromSameFaceForwards(t *testing.T) {
	withFakeClock(t, time.Unix(0, 0))
	p := NewPit()

	p.ReceiveInterest(interestFor("/a", time.Second), 10)
	verdict, _ := p.ReceiveInterest(interestFor("/a", time.Second), 10)
	assert.Equal(t, Forward, verdict)
}

// satisfy-interest must union ingress faces across every matched entry and
// remove them (spec.md §4.5, §8 "Content satisfaction").
func TestPitSatisfyInterestUnionsIngressAndRemoves(t *testing.T) {
	withFakeClock(t, time.Unix(0, 0))
	p := NewPit()

	p.ReceiveInterest(interestFor("/a", time.Second), 1)
	p.ReceiveInterest(interestFor("/a", time.Second), 2)
	assert.Equal(t, 1, p.Count())

	n, _ := enc.NameFromStr("/a")
	pkt := defn.NewDataPkt(&defn.FwData{NameV: n})
	matched := p.SatisfyInterest(pkt)
	assert.Equal(t, 1, len(matched))

	var faces []uint64
	for faceID := range matched[0].InRecords() {
		faces = append(faces, faceID)
	}
	assert.ElementsMatch(t, []uint64{1, 2}, faces)
	assert.Equal(t, 0, p.Count())
}

// An expired entry must be swept by CleanUpExpired and no longer satisfiable.
func TestPitCleanUpExpired(t *testing.T) {
	fc := withFakeClock(t, time.Unix(0, 0))
	p := NewPit()

	p.ReceiveInterest(interestFor("/a", time.Second), 1)
	assert.Equal(t, 1, p.Count())

	fc.Advance(2 * time.Second)
	removed := p.CleanUpExpired(fc.Now().UnixNano())
	assert.Equal(t, 1, removed)
	assert.Equal(t, 0, p.Count())
}

// An Interest restricted by ContentObjectHash is placed in table3 even when
// it also carries a KeyId (spec.md §8 "Matching-rule precedence"), and
// removing that entry must not leak it.
func TestPitMatchingRulePrecedenceAndRemoval(t *testing.T) {
	withFakeClock(t, time.Unix(0, 0))
	p := NewPit()

	name, _ := enc.NameFromStr("/a")
	interest := &defn.FwInterest{
		NameV:              name,
		NonceV:             optional.Some[uint32](7),
		LifetimeV:          optional.Some(time.Second),
		KeyIdV:             optional.Some([]byte("key")),
		ContentObjectHashV: optional.Some([]byte("hash")),
	}
	_, e := p.ReceiveInterest(interest, 1)
	assert.Equal(t, 3, e.(*basePitEntry).ruleTable)

	p.RemoveInterest(interest)
	assert.Equal(t, 0, p.Count(), "entry placed in table3 must be fully removable")
}
