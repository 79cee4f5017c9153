package table

import (
	"testing"

	enc "github.com/gonfd/gonfd/std/encoding"
	"github.com/stretchr/testify/assert"
)

// Tests the longest-prefix-match property spec.md §8 states literally: a
// more specific route shadows a less specific one for names under it, while
// names outside either route miss entirely.
func TestFibLongestPrefixMatch(t *testing.T) {
	strategy, _ := enc.NameFromStr("/localhost/nfd/strategy/multicast")
	fib := NewFib(strategy)

	pa, _ := enc.NameFromStr("/a")
	pab, _ := enc.NameFromStr("/a/b")
	fib.AddRoute(pa, 100, 0, nil)
	fib.AddRoute(pab, 200, 0, nil)

	abc, _ := enc.NameFromStr("/a/b/c")
	nexthops, _ := fib.Lookup(abc)
	assert.Equal(t, 1, len(nexthops))
	assert.Equal(t, uint64(200), nexthops[0].Nexthop)

	ac, _ := enc.NameFromStr("/a/c")
	nexthops, _ = fib.Lookup(ac)
	assert.Equal(t, 1, len(nexthops))
	assert.Equal(t, uint64(100), nexthops[0].Nexthop)

	z, _ := enc.NameFromStr("/z")
	nexthops, strat := fib.Lookup(z)
	assert.Nil(t, nexthops)
	assert.Nil(t, strat)
}

// Lookup must return a snapshot: mutating the FIB after a lookup must not
// retroactively change the slice already handed to the caller (spec.md
// §4.6).
func TestFibLookupReturnsSnapshot(t *testing.T) {
	strategy, _ := enc.NameFromStr("/localhost/nfd/strategy/multicast")
	fib := NewFib(strategy)
	pa, _ := enc.NameFromStr("/a")
	fib.AddRoute(pa, 1, 0, nil)

	nexthops, _ := fib.Lookup(pa)
	assert.Equal(t, 1, len(nexthops))

	fib.AddRoute(pa, 2, 0, nil)
	assert.Equal(t, 1, len(nexthops), "previously returned snapshot must not observe the new route")

	fresh, _ := fib.Lookup(pa)
	assert.Equal(t, 2, len(fresh))
}

// OnConnectionRemoved must purge a nexthop from every route, dropping routes
// left with no nexthops (spec.md §4.6).
func TestFibOnConnectionRemoved(t *testing.T) {
	strategy, _ := enc.NameFromStr("/localhost/nfd/strategy/multicast")
	fib := NewFib(strategy)
	pa, _ := enc.NameFromStr("/a")
	pab, _ := enc.NameFromStr("/a/b")
	fib.AddRoute(pa, 1, 0, nil)
	fib.AddRoute(pab, 1, 0, nil)
	fib.AddRoute(pab, 2, 0, nil)

	fib.OnConnectionRemoved(1)

	nexthops, _ := fib.Lookup(pa)
	assert.Nil(t, nexthops, "route with no remaining nexthops must be dropped")

	nexthops, _ = fib.Lookup(pab)
	assert.Equal(t, 1, len(nexthops))
	assert.Equal(t, uint64(2), nexthops[0].Nexthop)
}

func TestFibRemoveRoute(t *testing.T) {
	strategy, _ := enc.NameFromStr("/localhost/nfd/strategy/multicast")
	fib := NewFib(strategy)
	pa, _ := enc.NameFromStr("/a")
	fib.AddRoute(pa, 1, 0, nil)
	fib.AddRoute(pa, 2, 0, nil)

	fib.RemoveRoute(pa, 1)
	nexthops, _ := fib.Lookup(pa)
	assert.Equal(t, 1, len(nexthops))
	assert.Equal(t, uint64(2), nexthops[0].Nexthop)

	fib.RemoveRoute(pa, 2)
	nexthops, _ = fib.Lookup(pa)
	assert.Nil(t, nexthops)
}
