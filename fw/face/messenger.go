package face

import (
	"time"

	"github.com/gonfd/gonfd/core"
	"github.com/gonfd/gonfd/defn"
	enc "github.com/gonfd/gonfd/std/encoding"
	"github.com/gonfd/gonfd/std/types/lockfree"
)

// LinkService is the intra-forwarder-facing side of a face: the
// MessageProcessor sends through it and a transport hands it raw frames as
// they arrive. It is the teacher's own name for what spec.md §3/§4 calls
// the Connection's IoOperations plus the Messenger event bus bundled
// together onto one per-face object.
type LinkService interface {
	FaceID() uint64
	Scope() defn.Scope
	SendInterest(i *defn.FwInterest, label defn.PathLabel, wire []byte) bool
	SendData(d *defn.FwData, label defn.PathLabel, wire []byte) bool
	Close()

	// handleIncomingFrame hands one raw frame (a whole packet on a
	// reliable stream, or one fragmenter cell on a link-MTU link) to the
	// LinkService for reassembly, decoding, and dispatch.
	handleIncomingFrame(frame []byte)
}

// MissiveKind tags the two events a Messenger posts (spec.md §4.2's
// "ConnectionCreate missive", glossary's "Missive").
type MissiveKind int

const (
	MissiveConnectionCreate MissiveKind = iota
	MissiveConnectionDestroy
)

// Missive is one connection-lifecycle event, matching spec.md §3's
// Messenger entity ("Intra-forwarder event bus: connection-up/down,
// ingress notifications").
type Missive struct {
	Kind   MissiveKind
	FaceID uint64
}

// Missives is the process-wide Messenger: the channel every
// ConnectionCreate/ConnectionDestroy event is posted to. A forwarder that
// cares about face lifecycle (FIB stale-nexthop purge, metrics) drains it;
// nothing blocks waiting for a reader since posts are non-blocking best
// effort, matching the "Missive posted" wording throughout spec.md §4.2/§8
// rather than a synchronous handshake.
var Missives = make(chan Missive, 256)

func postMissive(kind MissiveKind, faceID uint64) {
	select {
	case Missives <- Missive{Kind: kind, FaceID: faceID}:
	default:
	}
}

// NDNLPLinkServiceOptions tunes one LinkService instance.
type NDNLPLinkServiceOptions struct {
	IsFragmentationEnabled bool
	FragmentationWindow    int
	MaxRetransmissions     int
	RetransmitTimeout      time.Duration
}

// MakeNDNLPLinkServiceOptions returns the configured fragmentation
// defaults (spec.md §9 Open Question: window/retry/timer are
// configuration, not hardcoded).
func MakeNDNLPLinkServiceOptions() NDNLPLinkServiceOptions {
	cfg := core.C.Faces.Fragmentation
	return NDNLPLinkServiceOptions{
		IsFragmentationEnabled: true,
		FragmentationWindow:    cfg.Window,
		MaxRetransmissions:     cfg.MaxRetransmissions,
		RetransmitTimeout:      cfg.RetransmitTimeout,
	}
}

// NDNLPLinkService is the sole LinkService implementation: it pairs one
// transport with an optional HopByHopFragmenter and forwards reassembled
// packets into the shared ingress queue the MessageProcessor drains.
type NDNLPLinkService struct {
	transport transport
	options   NDNLPLinkServiceOptions
	frag      *Fragmenter

	faceID  uint64
	addr    defn.AddressPair
	Ingress *lockfree.YiQueue[*defn.Pkt]
}

// MakeNDNLPLinkService constructs a LinkService over t, registers it (and
// t) in the process-wide ConnectionTable with a fresh connection-id, and
// wires t's setLinkService hook back to this LinkService (spec.md §4.2:
// "a new Connection is created, inserted into the table with a fresh
// connection-id, a ConnectionCreate missive is posted").
func MakeNDNLPLinkService(t transport, options NDNLPLinkServiceOptions) *NDNLPLinkService {
	ls := &NDNLPLinkService{
		transport: t,
		options:   options,
		Ingress:   lockfree.NewYiQueue[*defn.Pkt](),
	}

	if options.IsFragmentationEnabled {
		ls.frag = NewFragmenter(
			t.MTU(),
			options.FragmentationWindow,
			options.MaxRetransmissions,
			options.RetransmitTimeout,
			t.sendFrame,
			logDrop(t, t.String()),
		)
	}

	ls.addr = defn.AddressPair{Local: addressOfURI(t.LocalURI()), Remote: addressOfURI(t.RemoteURI())}
	ls.faceID = Faces.register(ls, ls.addr)
	t.setLinkService(ls)

	postMissive(MissiveConnectionCreate, ls.faceID)
	return ls
}

// Run starts the transport's receive loop in the background. A non-nil
// blockUntilDown channel receives true once the face goes down, for a
// caller waiting on that (e.g. a CLI "connect" command); listeners pass nil
// and continue their accept loop immediately.
func (ls *NDNLPLinkService) Run(blockUntilDown chan bool) {
	go func() {
		ls.transport.runReceive()
		ls.onDown()
		if blockUntilDown != nil {
			blockUntilDown <- true
		}
	}()
}

func (ls *NDNLPLinkService) onDown() {
	Faces.remove(ls.faceID, ls.addr)
	postMissive(MissiveConnectionDestroy, ls.faceID)
}

// FaceID returns this face's connection-id.
func (ls *NDNLPLinkService) FaceID() uint64 {
	return ls.faceID
}

// Scope reports whether this face's peer is local or remote (spec.md
// §4.9.1(b)'s hop-limit-zero-from-remote check).
func (ls *NDNLPLinkService) Scope() defn.Scope {
	return ls.transport.Scope()
}

// Close tears down the underlying transport (and, transitively, this
// LinkService via transport.runReceive returning).
func (ls *NDNLPLinkService) Close() {
	ls.transport.Close()
}

// SendInterest wraps wire in an LpPacket frame carrying label and hands it
// to the transport. When fragmentation is enabled, every frame goes through
// the fragmenter's sliding window instead, as one or more sequence-numbered
// cells sized to the transport's MTU.
func (ls *NDNLPLinkService) SendInterest(i *defn.FwInterest, label defn.PathLabel, wire []byte) bool {
	return ls.sendFrame(label, wire)
}

// SendData behaves identically to SendInterest; the fragmenter and
// transport are payload-agnostic.
func (ls *NDNLPLinkService) SendData(d *defn.FwData, label defn.PathLabel, wire []byte) bool {
	return ls.sendFrame(label, wire)
}

func (ls *NDNLPLinkService) sendFrame(label defn.PathLabel, wire []byte) bool {
	if !ls.transport.IsRunning() {
		return false
	}

	frame := defn.EncodeLpFrame(label, wire)
	if ls.frag != nil {
		ls.frag.Send(frame)
		return true
	}
	ls.transport.sendFrame(frame)
	return true
}

// Tick drives this face's fragmenter retransmission timer, if any.
func (ls *NDNLPLinkService) Tick(now time.Time) {
	if ls.frag != nil {
		ls.frag.Tick(now)
	}
}

// handleIncomingFrame reassembles (if fragmented), unwraps the LpPacket
// envelope to recover the sender's PathLabel, decodes the inner Interest/
// Data, and enqueues the result for the MessageProcessor.
func (ls *NDNLPLinkService) handleIncomingFrame(frame []byte) {
	lpFrame := frame
	if ls.frag != nil {
		reassembled, complete := ls.frag.Receive(frame)
		if !complete {
			return
		}
		lpFrame = reassembled
	}

	label, wire, err := defn.DecodeLpFrame(lpFrame)
	if err != nil {
		core.Log.Debug(ls.transport, "Dropped unparseable frame", "err", err)
		return
	}

	pkt, err := decodeWire(wire)
	if err != nil {
		core.Log.Debug(ls.transport, "Dropped unparseable frame", "err", err)
		return
	}
	pkt.IncomingFaceId = ls.faceID
	pkt.PathLabelV = label
	ls.Ingress.Push(pkt)
}

func decodeWire(wire []byte) (*defn.Pkt, error) {
	w := enc.Wire{wire}
	switch defn.PacketKindOf(w) {
	case defn.KindInterest:
		i, err := defn.DecodeInterestWire(w)
		if err != nil {
			return nil, err
		}
		pkt := defn.NewInterestPkt(i)
		pkt.Wire = w
		return pkt, nil
	default:
		d, err := defn.DecodeDataWire(w)
		if err != nil {
			return nil, err
		}
		pkt := defn.NewDataPkt(d)
		pkt.Wire = w
		return pkt, nil
	}
}

func addressOfURI(u *defn.URI) defn.Address {
	switch u.Scheme() {
	case "udp4", "tcp4":
		return defn.NewInetAddress(u.PathHost(), u.Port(), false)
	case "udp6", "tcp6":
		return defn.NewInetAddress(u.PathHost(), u.Port(), true)
	case "ether":
		return defn.NewLinkAddress(u.Path())
	case "unix", "fd":
		return defn.NewUnixAddress(u.Path())
	default:
		return defn.NewInetAddress(u.PathHost(), u.Port(), false)
	}
}
