package face

import (
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/gonfd/gonfd/core"
	"github.com/gonfd/gonfd/fw/face/impl"
)

// EthernetListener brings up one raw socket per interface and demultiplexes
// received frames to a per-peer EthernetTransport by source MAC, creating
// one on first contact (spec.md §4.2: "On receive, the Listener forms the
// (local, remote) AddressPair and asks the ConnectionTable for an existing
// Connection... If none exists, a new Connection is created").
type EthernetListener struct {
	iface     *net.Interface
	ethertype uint16
	f         *os.File

	mu    sync.Mutex
	peers map[string]*NDNLPLinkService
}

// MakeEthernetListener constructs a listener bound to iface, filtering for
// ethertype frames only (spec.md §6's "configured ethertype, default
// 0x0801").
func MakeEthernetListener(iface *net.Interface, ethertype uint16) (*EthernetListener, error) {
	fd, err := impl.OpenRawEthernetSocket(iface, ethertype)
	if err != nil {
		return nil, fmt.Errorf("unable to open raw ethernet socket on %s: %w", iface.Name, err)
	}

	return &EthernetListener{
		iface:     iface,
		ethertype: ethertype,
		f:         os.NewFile(uintptr(fd), iface.Name),
		peers:     make(map[string]*NDNLPLinkService),
	}, nil
}

// Returns a string representation of the Ethernet listener.
func (l *EthernetListener) String() string {
	return fmt.Sprintf("ethernet-listener (%s)", l.iface.Name)
}

// Run reads raw frames off the socket until it is closed, filtering by
// destination MAC (spec.md §4.2: "accept if broadcast/multicast or equals
// one of the interface MACs") and routing each frame's payload to the
// transport for its source MAC, creating one if this is a new peer.
func (l *EthernetListener) Run() {
	buf := make([]byte, 65536)
	for {
		n, err := l.f.Read(buf)
		if err != nil {
			return
		}
		if n < ethernetHeaderLen {
			continue
		}

		dst := net.HardwareAddr(buf[0:6])
		src := net.HardwareAddr(buf[6:12])
		if !l.acceptsDestination(dst) {
			continue
		}

		payload := make([]byte, n-ethernetHeaderLen)
		copy(payload, buf[ethernetHeaderLen:n])

		ls := l.peerLinkService(src)
		ls.handleIncomingFrame(payload)
	}
}

func (l *EthernetListener) acceptsDestination(dst net.HardwareAddr) bool {
	if dst[0]&0x01 != 0 {
		// broadcast or multicast
		return true
	}
	return dst.String() == l.iface.HardwareAddr.String()
}

// peerLinkService returns the existing face for src, or creates one
// (spec.md §4.2's "new Connection... inserted into the table with a fresh
// connection-id").
func (l *EthernetListener) peerLinkService(src net.HardwareAddr) *NDNLPLinkService {
	key := src.String()

	l.mu.Lock()
	defer l.mu.Unlock()

	if ls, ok := l.peers[key]; ok {
		return ls
	}

	t := MakeEthernetTransport(l.f, l.iface, l.ethertype, src)
	core.Log.Info(l, "Accepting new Ethernet face", "peer", key)

	options := MakeNDNLPLinkServiceOptions()
	options.IsFragmentationEnabled = true // Ethernet is link-MTU limited
	ls := MakeNDNLPLinkService(t, options)
	ls.Run(nil)

	l.peers[key] = ls
	return ls
}

// Close shuts down the raw socket, tearing down every peer transport.
func (l *EthernetListener) Close() {
	l.mu.Lock()
	for _, ls := range l.peers {
		ls.Close()
	}
	l.mu.Unlock()

	_ = l.f.Close()
}
