package face

import (
	"time"

	"github.com/gonfd/gonfd/core"
)

// CfgUDPUnicastPort returns the configured UDP unicast listener port.
func CfgUDPUnicastPort() int {
	return int(core.C.Faces.Udp.PortUnicast)
}

// CfgUDPMulticastPort returns the configured UDP multicast group port.
func CfgUDPMulticastPort() int {
	return int(core.C.Faces.Udp.PortMulticast)
}

// CfgUDP4MulticastAddress returns the configured IPv4 multicast group
// address UDP faces join.
func CfgUDP4MulticastAddress() string {
	return core.C.Faces.Udp.MulticastAddr
}

// CfgUDP6MulticastAddress returns the configured IPv6 multicast group
// address UDP faces join.
func CfgUDP6MulticastAddress() string {
	return core.C.Faces.Udp.MulticastAddr6
}

// CfgUDPLifetime returns how long an on-demand UDP unicast face is kept
// alive after its last activity before expiring.
func CfgUDPLifetime() time.Duration {
	return core.C.Faces.Udp.Lifetime
}
