package fw

import (
	"time"

	"github.com/cespare/xxhash/v2"
	enc "github.com/gonfd/gonfd/std/encoding"
	"github.com/gonfd/gonfd/fw/face"
)

// ThreadFor deterministically assigns name to one of the running Threads,
// by hashing its first component (typically the routable prefix) so every
// packet for the same Name is always serialized through the same Pit/Fib/Cs
// shard (spec.md §5's multi-core variant).
func ThreadFor(name enc.Name) *Thread {
	n := len(threads)
	if n <= 1 {
		return threads[0]
	}
	var h uint64
	if len(name) > 0 {
		h = xxhash.Sum64(name[0].Bytes())
	}
	return threads[h%uint64(n)]
}

// pumpStop holds the per-face cancel signal started pumps listen on, so a
// MissiveConnectionDestroy can stop exactly the pump it created.
var pumpStop = make(map[uint64]chan struct{})

// RunDispatch starts the Threads and the Missives subscriber that spawns
// one pump goroutine per face as it comes up (spec.md §4.2's
// ConnectionCreate/ConnectionDestroy missives driving ingress plumbing).
// Faces already registered before RunDispatch is called (e.g. a loopback
// face constructed during startup) get their own pump immediately.
func RunDispatch() {
	InitThreads()

	for _, ls := range face.Faces.All() {
		startPump(ls.FaceID())
	}

	go func() {
		for m := range face.Missives {
			switch m.Kind {
			case face.MissiveConnectionCreate:
				startPump(m.FaceID)
			case face.MissiveConnectionDestroy:
				stopPump(m.FaceID)
			}
		}
	}()
}

func startPump(faceID uint64) {
	ls, ok := face.Faces.Get(faceID)
	if !ok {
		return
	}
	stop := make(chan struct{})
	pumpStop[faceID] = stop
	go pump(ls, stop)
}

func stopPump(faceID uint64) {
	if stop, ok := pumpStop[faceID]; ok {
		close(stop)
		delete(pumpStop, faceID)
	}
}

// pump drains one face's Ingress queue, routing every reassembled packet
// to its shard's Thread, and drives that face's fragmenter retransmission
// timer, until stop is closed.
func pump(ls *face.NDNLPLinkService, stop chan struct{}) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		for pkt := range ls.Ingress.Iter() {
			ThreadFor(pkt.Name).Input.Push(pkt)
		}

		select {
		case <-stop:
			return
		case <-ls.Ingress.Notify:
		case now := <-ticker.C:
			ls.Tick(now)
		}
	}
}
