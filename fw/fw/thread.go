package fw

import (
	"time"

	"github.com/gonfd/gonfd/core"
	"github.com/gonfd/gonfd/defn"
	enc "github.com/gonfd/gonfd/std/encoding"
	"github.com/gonfd/gonfd/std/types/lockfree"
	"github.com/gonfd/gonfd/fw/table"
)

// Thread is one forwarding-core shard: its own Fib/Pit/ContentStore and
// MessageProcessor, reachable only from packets the dispatcher's hashing
// routed here (spec.md §5 "the multi-core variant shards the PIT/FIB/CS by
// name hash, one owning goroutine per shard"). Nothing outside the owning
// goroutine ever calls into a Thread's tables directly.
type Thread struct {
	id int

	fib *table.Fib
	pit *table.Pit
	cs  *table.ContentStore

	processor *MessageProcessor

	// strategies is keyed by the strategy's full FIB-facing name
	// (e.g. "/localhost/nfd/strategy/multicast"), since that is the form
	// table.Fib.Lookup hands back.
	strategies map[string]Strategy
	default_   Strategy

	Input *lockfree.YiQueue[*defn.Pkt]
}

var threads []*Thread

// NewThread constructs thread id, instantiating its own table set and
// every registered Strategy against it.
func NewThread(id int) *Thread {
	defaultStrategy, err := enc.NameFromStr(core.C.Fw.DefaultStrategy)
	if err != nil {
		core.Log.Fatal(nil, "invalid fw.default_strategy", "value", core.C.Fw.DefaultStrategy, "err", err)
	}

	t := &Thread{
		id:         id,
		fib:        table.NewFib(defaultStrategy),
		pit:        table.NewPit(),
		cs:         table.NewContentStore(core.C.Tables.Cs.Capacity),
		strategies: make(map[string]Strategy),
		Input:      lockfree.NewYiQueue[*defn.Pkt](),
	}
	t.processor = NewMessageProcessor(t)

	for _, ctor := range strategyInit {
		s := ctor()
		s.Instantiate(t)
		fullName := s.Base().FullName()
		t.strategies[fullName] = s
		if fullName == core.C.Fw.DefaultStrategy {
			t.default_ = s
		}
	}
	if t.default_ == nil {
		core.Log.Fatal(nil, "fw.default_strategy names no registered strategy", "value", core.C.Fw.DefaultStrategy)
	}

	return t
}

// strategyByFullName returns the strategy registered under name, or this
// thread's default if name is unset or unrecognized.
func (t *Thread) strategyByFullName(name enc.Name) Strategy {
	if name == nil {
		return t.default_
	}
	if s, ok := t.strategies[name.String()]; ok {
		return s
	}
	return t.default_
}

// strategyForName looks up the strategy that governs name's longest-prefix
// FIB match, for call sites (Content Store hits, Data satisfaction) that
// only have a Name in hand rather than an already-resolved Fib.Lookup
// result.
func (t *Thread) strategyForName(name enc.Name) Strategy {
	_, strategyName := t.fib.Lookup(name)
	return t.strategyByFullName(strategyName)
}

// Run drains Input forever, handing each packet to this thread's
// MessageProcessor, and parks on Input.Notify between bursts rather than
// spinning (YiQueue's Iter stops at empty rather than blocking, so the
// consumer is responsible for the wait). One goroutine per Thread, started
// by dispatch.go. A ticker interleaved with that wait drives this shard's
// own PIT expiry sweep (spec.md §4.5/§5), so a name hash that sees no
// further traffic still has its stale PIT entries reclaimed rather than
// relying on the next matching packet to trigger cleanup.
func (t *Thread) Run() {
	interval := core.C.Tables.Pit.CleanupInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		for pkt := range t.Input.Iter() {
			t.processor.Receive(pkt)
		}

		select {
		case <-t.Input.Notify:
		case now := <-ticker.C:
			t.pit.CleanUpExpired(now.UnixNano())
		}
	}
}

// InitThreads constructs core.C.Fw.Threads Thread shards and starts each
// one's Run loop.
func InitThreads() {
	n := core.C.Fw.Threads
	if n <= 0 {
		n = 1
	}
	threads = make([]*Thread, n)
	for i := 0; i < n; i++ {
		threads[i] = NewThread(i)
		go threads[i].Run()
	}
}

// GetFWThread returns the Thread registered under id.
func GetFWThread(id int) *Thread {
	return threads[id]
}

// CfgNumThreads returns the number of running forwarding threads.
func CfgNumThreads() int {
	return len(threads)
}
