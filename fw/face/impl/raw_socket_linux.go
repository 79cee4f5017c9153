//go:build linux

package impl

import (
	"encoding/binary"
	"net"

	"golang.org/x/sys/unix"
)

// OpenRawEthernetSocket brings up an AF_PACKET raw socket bound to iface,
// filtering for ethertype frames only. This is the one place platform-
// specific raw-socket bring-up lives (spec.md §1 places it out of scope);
// everything above this call - destination MAC filtering, fragmentation,
// frame parsing - is ordinary Go in ethernet-transport.go/listener.go.
func OpenRawEthernetSocket(iface *net.Interface, ethertype uint16) (int, error) {
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(swap16(ethertype)))
	if err != nil {
		return -1, err
	}

	addr := unix.SockaddrLinklayer{
		Protocol: swap16(ethertype),
		Ifindex:  iface.Index,
	}
	if err := unix.Bind(fd, &addr); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

func swap16(v uint16) uint16 {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return binary.LittleEndian.Uint16(b)
}
