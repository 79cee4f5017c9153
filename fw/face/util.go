package face

import (
	"fmt"
	"net"
)

// InterfaceByIP returns the network interface that owns ip, used to join a
// multicast group on the correct link when bringing up a multicast UDP
// transport.
func InterfaceByIP(ip net.IP) (*net.Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if ipNet.IP.Equal(ip) {
				ifaceCopy := iface
				return &ifaceCopy, nil
			}
		}
	}

	return nil, fmt.Errorf("no interface found with address %s", ip)
}
