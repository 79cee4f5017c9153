package table

import (
	"testing"
	"time"

	"github.com/gonfd/gonfd/defn"
	enc "github.com/gonfd/gonfd/std/encoding"
	"github.com/stretchr/testify/assert"
)

func mustData(name string, freshness time.Duration) (*defn.FwData, enc.Wire) {
	n, _ := enc.NameFromStr(name)
	wire := defn.EncodeDataWire(n, freshness, []byte("x"))
	data, err := defn.DecodeDataWire(wire)
	if err != nil {
		panic(err)
	}
	return data, wire
}

// Tests spec.md §8's literal CS LRU property: inserting N+1 distinct
// objects into a capacity-N store evicts the first-inserted object first.
func TestContentStoreLRUEviction(t *testing.T) {
	cs := NewContentStore(2)
	now := time.Now()

	d1, w1 := mustData("/a", 0)
	d2, w2 := mustData("/b", 0)
	d3, w3 := mustData("/c", 0)

	assert.True(t, cs.Put(d1, w1, now))
	assert.True(t, cs.Put(d2, w2, now))
	assert.True(t, cs.Put(d3, w3, now))
	assert.Equal(t, 2, cs.Size())

	i1, _ := enc.NameFromStr("/a")
	_, _, hit := cs.Match(&defn.FwInterest{NameV: i1}, now)
	assert.False(t, hit, "first-inserted object must be the one evicted")

	i3, _ := enc.NameFromStr("/c")
	_, _, hit = cs.Match(&defn.FwInterest{NameV: i3}, now)
	assert.True(t, hit)
}

// A Match hit must move its entry to most-recently-used, sparing it from
// the next eviction in favor of whichever entry is now least recently used.
func TestContentStoreTouchUpdatesLRUOrder(t *testing.T) {
	cs := NewContentStore(2)
	now := time.Now()

	d1, w1 := mustData("/a", 0)
	d2, w2 := mustData("/b", 0)
	cs.Put(d1, w1, now)
	cs.Put(d2, w2, now)

	i1, _ := enc.NameFromStr("/a")
	_, _, hit := cs.Match(&defn.FwInterest{NameV: i1}, now)
	assert.True(t, hit)

	d3, w3 := mustData("/c", 0)
	cs.Put(d3, w3, now)

	i2, _ := enc.NameFromStr("/b")
	_, _, hit = cs.Match(&defn.FwInterest{NameV: i2}, now)
	assert.False(t, hit, "/b was least recently used after /a was touched")

	_, _, hit = cs.Match(&defn.FwInterest{NameV: i1}, now)
	assert.True(t, hit)
}

// Expired entries are evicted lazily, ahead of any LRU eviction (spec.md
// §4.7, §9's open-question resolution).
func TestContentStoreExpiredEvictedBeforeLRU(t *testing.T) {
	cs := NewContentStore(2)
	now := time.Now()

	d1, w1 := mustData("/a", time.Millisecond)
	d2, w2 := mustData("/b", time.Hour)
	cs.Put(d1, w1, now)
	cs.Put(d2, w2, now)

	later := now.Add(time.Second)
	d3, w3 := mustData("/c", time.Hour)
	cs.Put(d3, w3, later)

	assert.Equal(t, 2, cs.Size())
	i1, _ := enc.NameFromStr("/a")
	_, _, hit := cs.Match(&defn.FwInterest{NameV: i1}, later)
	assert.False(t, hit)

	i2, _ := enc.NameFromStr("/b")
	_, _, hit = cs.Match(&defn.FwInterest{NameV: i2}, later)
	assert.True(t, hit, "/b had not expired and must survive /a's expiry eviction")
}

func TestContentStoreCanBePrefixMatch(t *testing.T) {
	cs := NewContentStore(4)
	now := time.Now()
	d1, w1 := mustData("/a/b/c", 0)
	cs.Put(d1, w1, now)

	prefix, _ := enc.NameFromStr("/a/b")
	data, _, hit := cs.Match(&defn.FwInterest{NameV: prefix, CanBePrefixV: true}, now)
	assert.True(t, hit)
	assert.True(t, data.NameV.Equal(d1.NameV))

	data, _, hit = cs.Match(&defn.FwInterest{NameV: prefix, CanBePrefixV: false}, now)
	assert.False(t, hit)
}
