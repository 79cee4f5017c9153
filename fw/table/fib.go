package table

import (
	enc "github.com/gonfd/gonfd/std/encoding"
)

// fibNode is one node of the name-component trie FIB lookups walk
// (spec.md §4.6: "structured as a trie ... over name segments").
type fibNode struct {
	children map[string]*fibNode
	entry    *baseFibStrategyEntry // nil unless a route was registered exactly at this node
}

func newFibNode() *fibNode {
	return &fibNode{children: make(map[string]*fibNode)}
}

// Fib is the Forwarding Information Base: a longest-prefix-match routing
// table from Name prefixes to next-hop connections, each prefix carrying
// its own ForwardingStrategy.
type Fib struct {
	root            *fibNode
	defaultStrategy enc.Name
}

// NewFib constructs an empty Fib. defaultStrategy names the strategy new
// routes get when none is specified.
func NewFib(defaultStrategy enc.Name) *Fib {
	return &Fib{root: newFibNode(), defaultStrategy: defaultStrategy}
}

func (f *Fib) walkOrCreate(prefix enc.Name) *fibNode {
	node := f.root
	for _, c := range prefix {
		key := c.String()
		child, ok := node.children[key]
		if !ok {
			child = newFibNode()
			node.children[key] = child
		}
		node = child
	}
	return node
}

// AddRoute registers nexthop under prefix with the given cost. If strategy
// is nil, an existing entry keeps its strategy (or the Fib's default, for
// a brand new entry).
func (f *Fib) AddRoute(prefix enc.Name, nexthop uint64, cost uint64, strategy enc.Name) *baseFibStrategyEntry {
	node := f.walkOrCreate(prefix)
	if node.entry == nil {
		var comp enc.Component
		if len(prefix) > 0 {
			comp = prefix[len(prefix)-1]
		}
		s := strategy
		if s == nil {
			s = f.defaultStrategy
		}
		node.entry = &baseFibStrategyEntry{component: comp, name: prefix.Clone(), strategy: s}
	} else if strategy != nil {
		node.entry.SetStrategy(strategy)
	}
	node.entry.AddNextHop(nexthop, cost)
	return node.entry
}

// RemoveRoute removes nexthop from prefix's route. If the route's nexthop
// set becomes empty, the route itself is dropped (the trie node is kept,
// since it may have descendants).
func (f *Fib) RemoveRoute(prefix enc.Name, nexthop uint64) {
	node := f.find(prefix)
	if node == nil || node.entry == nil {
		return
	}
	if node.entry.RemoveNextHop(nexthop) {
		node.entry = nil
	}
}

func (f *Fib) find(prefix enc.Name) *fibNode {
	node := f.root
	for _, c := range prefix {
		child, ok := node.children[c.String()]
		if !ok {
			return nil
		}
		node = child
	}
	return node
}

// OnConnectionRemoved purges id from every route's nexthop set across the
// whole trie, dropping any route left with no nexthops (spec.md §4.6).
func (f *Fib) OnConnectionRemoved(id uint64) {
	var walk func(n *fibNode)
	walk = func(n *fibNode) {
		if n.entry != nil && n.entry.RemoveNextHop(id) {
			n.entry = nil
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(f.root)
}

// Lookup walks name one segment at a time, remembering the deepest node
// that carries a route, and returns that route's nexthop snapshot and
// strategy name. A miss returns (nil, nil).
func (f *Fib) Lookup(name enc.Name) ([]*FibNextHopEntry, enc.Name) {
	node := f.root
	var best *baseFibStrategyEntry
	if node.entry != nil {
		best = node.entry
	}
	for _, c := range name {
		child, ok := node.children[c.String()]
		if !ok {
			break
		}
		node = child
		if node.entry != nil {
			best = node.entry
		}
	}
	if best == nil {
		return nil, nil
	}
	return best.snapshotNextHops(), best.GetStrategy()
}

// FindExact returns the route registered exactly at prefix, if any
// (used by the control-plane route-management operations).
func (f *Fib) FindExact(prefix enc.Name) *baseFibStrategyEntry {
	node := f.find(prefix)
	if node == nil {
		return nil
	}
	return node.entry
}
