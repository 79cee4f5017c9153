package defn

// Scope indicates whether a face's peer is reachable only on this host.
// It gates hop-limit enforcement: HopLimit 0 is only ever accepted from a
// Local peer (spec.md §4.9.1(b), §8 "Hop-limit decrement").
type Scope int

const (
	// NonLocal faces are on a remote host (over the network).
	NonLocal Scope = iota
	// Local faces are loopback, a Unix-domain socket, or a link-local MAC.
	Local
)

// String returns the scope's name.
func (s Scope) String() string {
	if s == Local {
		return "local"
	}
	return "non-local"
}

// LinkType describes the link topology underlying a face.
type LinkType int

const (
	// PointToPoint links have exactly one peer (UDP unicast, TCP, Unix).
	PointToPoint LinkType = iota
	// MultiAccess links may carry traffic to/from many peers (Ethernet,
	// UDP multicast).
	MultiAccess
	// AdHoc links come and go at the transport's discretion.
	AdHoc
)

// Persistency controls what happens to a face when it goes down or idles.
// This is the data-plane-relevant subset of the control plane's face
// persistency vocabulary (DESIGN.md: std/ndn/mgmt_2022 dropped).
type Persistency int

const (
	// PersistencyPersistent faces are kept even if briefly down.
	PersistencyPersistent Persistency = iota
	// PersistencyOnDemand faces are destroyed after ExpirationPeriod of
	// inactivity.
	PersistencyOnDemand
	// PersistencyPermanent faces are never destroyed by the forwarder.
	PersistencyPermanent
)

// String returns the persistency's name.
func (p Persistency) String() string {
	switch p {
	case PersistencyOnDemand:
		return "on-demand"
	case PersistencyPermanent:
		return "permanent"
	default:
		return "persistent"
	}
}
