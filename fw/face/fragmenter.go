package face

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/gonfd/gonfd/core"
	"github.com/gonfd/gonfd/defn"
	"github.com/gonfd/gonfd/std/types/priority_queue"
)

// fragHeaderLen is the wire size of a FragHeader cell (spec.md §4.3): a
// 24-bit sequence number plus one flag byte.
const fragHeaderLen = 4

// pendingFragment is one outstanding sender-side cell awaiting an ACK.
type pendingFragment struct {
	seq     uint32
	frame   []byte
	tries   int
	retrans *priority_queue.Item[uint32, int64]
}

// Fragmenter is a HopByHopFragmenter (spec.md §4.3): it splits a Message
// too large for the underlying link's MTU into a sliding window of
// sequence-numbered cells, retransmitting any cell not ACKed within
// retransmitTimeout, and reassembles the peer's cells back into whole
// packets on receive. It owns its buffers entirely; closing the Connection
// neither flushes nor releases them.
type Fragmenter struct {
	mtu               int
	window            int
	maxRetransmission int
	retransmitTimeout time.Duration

	sendFrame func([]byte)
	onDrop    func()

	mu          sync.Mutex
	nextSeq     uint32
	outstanding map[uint32]*pendingFragment
	retransQ    *priority_queue.Queue[uint32, int64]

	reassembling   bool
	reassemblyNext uint32
	reassemblyBuf  []byte
}

// NewFragmenter constructs a Fragmenter bound to a transport's sendFrame
// and MTU. onDrop is invoked once per cell abandoned after
// maxRetransmission failed retransmissions (spec.md §8 edge case 6,
// "Fragmenter loss exceeds retry: the Message is abandoned; counted").
func NewFragmenter(mtu, window, maxRetransmission int, retransmitTimeout time.Duration, sendFrame func([]byte), onDrop func()) *Fragmenter {
	return &Fragmenter{
		mtu:               mtu,
		window:            window,
		maxRetransmission: maxRetransmission,
		retransmitTimeout: retransmitTimeout,
		sendFrame:         sendFrame,
		onDrop:            onDrop,
		outstanding:       make(map[uint32]*pendingFragment),
		retransQ:          &priority_queue.Queue[uint32, int64]{},
	}
}

func encodeFragHeader(h defn.FragHeader) []byte {
	b := make([]byte, fragHeaderLen)
	binary.BigEndian.PutUint32(b, h.Seq&0x00ffffff|uint32(h.Flags)<<24)
	return b
}

func decodeFragHeader(b []byte) defn.FragHeader {
	v := binary.BigEndian.Uint32(b)
	return defn.FragHeader{Seq: v & 0x00ffffff, Flags: defn.FragFlags(v >> 24)}
}

// Send splits packet into MTU-sized cells and queues each for
// retransmission until acked. It blocks only long enough to hand every
// cell to sendFrame; retransmission happens off of Tick.
func (f *Fragmenter) Send(packet []byte) {
	payloadLen := f.mtu - fragHeaderLen
	if payloadLen <= 0 {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now().UnixNano()
	for off := 0; off < len(packet); off += payloadLen {
		end := off + payloadLen
		if end > len(packet) {
			end = len(packet)
		}

		var flags defn.FragFlags
		if off == 0 {
			flags |= defn.FragBegin
		}
		if end == len(packet) {
			flags |= defn.FragEnd
		}

		seq := f.nextSeq
		f.nextSeq = (f.nextSeq + 1) & 0x00ffffff

		header := encodeFragHeader(defn.FragHeader{Seq: seq, Flags: flags})
		frame := append(header, packet[off:end]...)

		pf := &pendingFragment{seq: seq, frame: frame}
		pf.retrans = f.retransQ.Push(seq, now+int64(f.retransmitTimeout))
		f.outstanding[seq] = pf

		f.sendFrame(frame)
	}
}

// Tick retransmits any cell whose retransmission deadline has passed,
// dropping it (and invoking onDrop) once maxRetransmission has been
// exceeded. Callers drive this from the forwarder's tick clock (spec.md
// §5 "Timers drive ... fragmenter retransmission").
func (f *Fragmenter) Tick(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	nowNanos := now.UnixNano()
	for f.retransQ.Len() > 0 && f.retransQ.PeekPriority() <= nowNanos {
		seq := f.retransQ.Pop()
		pf, ok := f.outstanding[seq]
		if !ok {
			// already acked
			continue
		}

		pf.tries++
		if pf.tries > f.maxRetransmission {
			delete(f.outstanding, seq)
			if f.onDrop != nil {
				f.onDrop()
			}
			continue
		}

		pf.retrans = f.retransQ.Push(seq, nowNanos+int64(f.retransmitTimeout))
		f.sendFrame(pf.frame)
	}
}

// ack marks seq as delivered, pruning it from the retransmission window.
func (f *Fragmenter) ack(seq uint32) {
	f.mu.Lock()
	delete(f.outstanding, seq)
	f.mu.Unlock()
}

// Receive processes one incoming cell. It returns the reassembled packet
// and true once an End cell completes a run starting from a Begin cell; it
// returns (nil, false) for an in-progress, idle, or ack/nack cell.
func (f *Fragmenter) Receive(frame []byte) ([]byte, bool) {
	if len(frame) < fragHeaderLen {
		return nil, false
	}
	h := decodeFragHeader(frame[:fragHeaderLen])
	payload := frame[fragHeaderLen:]

	if h.Ack() || h.Nack() {
		if h.Ack() {
			f.ack(h.Seq)
		}
		return nil, false
	}
	if h.Idle() {
		return nil, false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if h.Begin() {
		f.reassembling = true
		f.reassemblyNext = h.Seq
		f.reassemblyBuf = f.reassemblyBuf[:0]
	}
	if !f.reassembling || h.Seq != f.reassemblyNext {
		// Out of order or no Begin seen yet: drop silently, matching
		// spec.md §4.3's "out-of-order tolerance window" as "none" for
		// cells preceding a seen Begin.
		return nil, false
	}

	f.reassemblyBuf = append(f.reassemblyBuf, payload...)
	f.reassemblyNext++

	ack := encodeFragHeader(defn.FragHeader{Seq: h.Seq, Flags: defn.FragAck})
	f.sendFrame(ack)

	if h.End() {
		f.reassembling = false
		out := make([]byte, len(f.reassemblyBuf))
		copy(out, f.reassemblyBuf)
		return out, true
	}
	return nil, false
}

// WindowFull reports whether the sender's outstanding-cell count has
// reached the configured sliding-window size, used by a Connection to
// back-pressure SendPacket rather than grow the window unboundedly.
func (f *Fragmenter) WindowFull() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.outstanding) >= f.window
}

// logDrop is a convenience onDrop implementation transports can pass,
// matching the rest of the package's core.Log.Warn-on-loss convention.
func logDrop(subsystem any, name string) func() {
	return func() {
		core.Log.Warn(subsystem, "Fragment abandoned after max retransmissions", "name", name)
	}
}
