//go:build !linux

package impl

import (
	"fmt"
	"net"
)

// OpenRawEthernetSocket is only implemented on Linux (AF_PACKET); other
// platforms have their own raw-capture APIs (BPF devices on BSD/macOS,
// WinPcap/Npcap on Windows) that this forwarder does not bring up, per
// spec.md §1's "platform-specific raw-socket/BPF bring-up" exclusion.
func OpenRawEthernetSocket(iface *net.Interface, ethertype uint16) (int, error) {
	return -1, fmt.Errorf("raw ethernet sockets are not supported on this platform")
}
