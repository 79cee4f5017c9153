package defn

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
)

// MaxNDNPacketSize is the largest packet this forwarder will accept or emit
// on a link that does not impose a smaller MTU of its own.
const MaxNDNPacketSize = 8800

// ErrNotCanonical is returned when a URI fails canonicalization, e.g. when a
// transport is constructed from a scheme/host combination the transport
// does not support.
var ErrNotCanonical = errors.New("URI could not be canonicalized")

// URI identifies a face endpoint: a scheme (udp4, udp6, tcp4, tcp6, unix,
// fd, ether, ws, quic, null, ...), a path (host, MAC, or filesystem path),
// an optional port, and an optional IPv6 zone.
type URI struct {
	scheme     string
	path       string
	port       uint16
	zone       string
	canonical  bool
}

// DecodeURIString parses a "scheme://path[:port]" string into a URI. Malformed
// input yields a non-canonical URI rather than an error - canonicalization is
// a separate, explicit step (Canonize), matching how each transport validates
// the URIs it is handed.
func DecodeURIString(s string) *URI {
	u := &URI{}
	rest, scheme, ok := cutScheme(s)
	if !ok {
		return u
	}
	u.scheme = scheme

	switch scheme {
	case "unix", "fd", "null", "ether":
		u.path = rest
		return u
	}

	host, zone, port := splitHostZonePort(rest)
	u.path = host
	u.zone = zone
	if port != "" {
		if p, err := strconv.ParseUint(port, 10, 16); err == nil {
			u.port = uint16(p)
		}
	}
	return u
}

func cutScheme(s string) (rest string, scheme string, ok bool) {
	i := strings.Index(s, "://")
	if i < 0 {
		return "", "", false
	}
	return s[i+3:], s[:i], true
}

func splitHostZonePort(s string) (host, zone, port string) {
	// Bracketed IPv6: [addr%zone]:port
	if strings.HasPrefix(s, "[") {
		end := strings.Index(s, "]")
		if end < 0 {
			return s, "", ""
		}
		host = s[1:end]
		if pct := strings.Index(host, "%"); pct >= 0 {
			zone = host[pct+1:]
			host = host[:pct]
		}
		rest := s[end+1:]
		if strings.HasPrefix(rest, ":") {
			port = rest[1:]
		}
		return host, zone, port
	}
	// host:port (only split on the last colon to tolerate bare IPv6)
	if idx := strings.LastIndex(s, ":"); idx >= 0 && strings.Count(s, ":") == 1 {
		return s[:idx], "", s[idx+1:]
	}
	return s, "", ""
}

// MakeNullFaceURI returns the canonical URI of the null (bit-bucket) face.
func MakeNullFaceURI() *URI {
	u := &URI{scheme: "null", canonical: true}
	return u
}

// MakeQuicFaceURI returns the canonical URI of a QUIC/HTTP3 WebTransport
// endpoint at addr.
func MakeQuicFaceURI(addr netip.AddrPort) *URI {
	u := &URI{scheme: "quic", path: addr.Addr().String(), port: addr.Port(), canonical: true}
	return u
}

// MakeWebSocketClientFaceURI returns the canonical URI of a connected
// WebSocket peer identified by addr (net.Conn.RemoteAddr()).
func MakeWebSocketClientFaceURI(addr net.Addr) *URI {
	host, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return &URI{scheme: "ws", path: addr.String(), canonical: true}
	}
	port, _ := strconv.ParseUint(portStr, 10, 16)
	return &URI{scheme: "ws", path: host, port: uint16(port), canonical: true}
}

// MakeWebSocketServerFaceURI returns the canonical URI of a WebSocket
// listener bound at u.
func MakeWebSocketServerFaceURI(u *url.URL) *URI {
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		host = u.Host
	}
	port, _ := strconv.ParseUint(portStr, 10, 16)
	scheme := "ws"
	if u.Scheme == "wss" {
		scheme = "wss"
	}
	return &URI{scheme: scheme, path: host, port: uint16(port), canonical: true}
}

// Canonize normalizes the URI in place (lower-cases the scheme, resolves the
// path for IP schemes to its canonical textual form) and marks it canonical
// if the result is well-formed for its scheme.
func (u *URI) Canonize() {
	u.scheme = strings.ToLower(u.scheme)
	switch u.scheme {
	case "udp4", "tcp4", "udp6", "tcp6":
		ip := net.ParseIP(u.path)
		if ip == nil {
			u.canonical = false
			return
		}
		is4 := ip.To4() != nil
		if is4 != (u.scheme == "udp4" || u.scheme == "tcp4") {
			u.canonical = false
			return
		}
		u.path = ip.String()
		u.canonical = true
	case "unix", "fd", "null", "ether", "ws", "wss", "quic":
		u.canonical = u.path != "" || u.scheme == "null"
	default:
		u.canonical = false
	}
}

// IsCanonical reports whether Canonize has validated this URI.
func (u *URI) IsCanonical() bool { return u.canonical }

// Scheme returns the URI's scheme (e.g. "udp4").
func (u *URI) Scheme() string { return u.scheme }

// Path returns the URI's path component (host, MAC string, or filesystem path).
func (u *URI) Path() string { return u.path }

// PathHost is an alias for Path used at IP-transport call sites for clarity.
func (u *URI) PathHost() string { return u.path }

// PathZone returns the IPv6 zone identifier, if any.
func (u *URI) PathZone() string { return u.zone }

// Port returns the URI's port, if any.
func (u *URI) Port() uint16 { return u.port }

// String renders the URI back to "scheme://path[:port]" form.
func (u *URI) String() string {
	if u.port != 0 {
		return fmt.Sprintf("%s://%s:%d", u.scheme, u.path, u.port)
	}
	return fmt.Sprintf("%s://%s", u.scheme, u.path)
}
