package face

import (
	"sync/atomic"
	"time"

	"github.com/gonfd/gonfd/defn"
)

// transport is the per-connection-kind plumbing a LinkService drives: frame
// I/O, addressing, and the face-table metadata (persistency/scope/MTU) spec.md
// §4.2's Connection abstraction exposes regardless of which concrete kind
// (UDP, TCP, Unix stream, WebSocket, QUIC/HTTP3, null) backs it.
type transport interface {
	String() string
	setFaceID(faceID uint64)
	setLinkService(linkService LinkService)

	RemoteURI() *defn.URI
	LocalURI() *defn.URI
	Persistency() defn.Persistency
	SetPersistency(persistency defn.Persistency) bool
	Scope() defn.Scope
	LinkType() defn.LinkType
	MTU() int
	SetMTU(mtu int)
	ExpirationPeriod() time.Duration
	FaceID() uint64

	GetSendQueueSize() uint64
	sendFrame([]byte)
	runReceive()
	IsRunning() bool
	Close()

	NInBytes() uint64
	NOutBytes() uint64
}

// transportBase supplies every transport kind's addressing/persistency/MTU
// bookkeeping and byte counters, so each concrete transport only has to
// implement the I/O-specific sendFrame/runReceive/Close trio.
type transportBase struct {
	linkService LinkService
	running     atomic.Bool

	faceID         uint64
	remoteURI      *defn.URI
	localURI       *defn.URI
	scope          defn.Scope
	persistency    defn.Persistency
	linkType       defn.LinkType
	mtu            int
	expirationTime *time.Time

	nInBytes  uint64
	nOutBytes uint64
}

func (t *transportBase) makeTransportBase(
	remoteURI *defn.URI,
	localURI *defn.URI,
	persistency defn.Persistency,
	scope defn.Scope,
	linkType defn.LinkType,
	mtu int,
) {
	t.running = atomic.Bool{}
	t.remoteURI = remoteURI
	t.localURI = localURI
	t.persistency = persistency
	t.scope = scope
	t.linkType = linkType
	t.mtu = mtu
}

func (t *transportBase) setFaceID(faceID uint64) { t.faceID = faceID }

func (t *transportBase) setLinkService(linkService LinkService) { t.linkService = linkService }

func (t *transportBase) LocalURI() *defn.URI { return t.localURI }

func (t *transportBase) RemoteURI() *defn.URI { return t.remoteURI }

func (t *transportBase) Persistency() defn.Persistency { return t.persistency }

func (t *transportBase) Scope() defn.Scope { return t.scope }

func (t *transportBase) LinkType() defn.LinkType { return t.linkType }

func (t *transportBase) MTU() int { return t.mtu }

func (t *transportBase) SetMTU(mtu int) { t.mtu = mtu }

// ExpirationPeriod returns the time left before this connection's on-demand
// lease runs out, or 0 for any persistency other than on-demand (spec.md
// §4.2's "on-demand connections expire after an idle period" rule).
func (t *transportBase) ExpirationPeriod() time.Duration {
	if t.expirationTime == nil || t.persistency != defn.PersistencyOnDemand {
		return 0
	}
	return time.Until(*t.expirationTime)
}

func (t *transportBase) FaceID() uint64 { return t.faceID }

func (t *transportBase) IsRunning() bool { return t.running.Load() }

func (t *transportBase) NInBytes() uint64 { return t.nInBytes }

func (t *transportBase) NOutBytes() uint64 { return t.nOutBytes }
