//go:build !tinygo

package face

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strconv"
	"time"

	"github.com/gonfd/gonfd/core"
	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
	"github.com/quic-go/webtransport-go"
)

// HTTP3ListenerConfig binds an HTTP/3 WebTransport endpoint under "/ndn" -
// the QUIC-datagram-backed Connection kind spec.md §4.2 groups with the
// other MTU-limited links that need the HopByHopFragmenter.
type HTTP3ListenerConfig struct {
	Bind    string
	Port    uint16
	TLSCert string
	TLSKey  string
}

func (cfg HTTP3ListenerConfig) addr() string {
	return net.JoinHostPort(cfg.Bind, strconv.FormatUint(uint64(cfg.Port), 10))
}

func (cfg HTTP3ListenerConfig) URL() *url.URL {
	return &url.URL{Scheme: "https", Host: cfg.addr()}
}

func (cfg HTTP3ListenerConfig) String() string {
	return fmt.Sprintf("http3-listener (url=%s)", cfg.URL())
}

// HTTP3Listener accepts WebTransport sessions over QUIC and hands each one
// to a fragmenting LinkService, since QUIC datagrams carry the same
// MTU-limited-link constraints an Ethernet link does.
type HTTP3Listener struct {
	mux    *http.ServeMux
	server *webtransport.Server
}

func NewHTTP3Listener(cfg HTTP3ListenerConfig) (*HTTP3Listener, error) {
	l := &HTTP3Listener{}

	cert, err := tls.LoadX509KeyPair(cfg.TLSCert, cfg.TLSKey)
	if err != nil {
		return nil, fmt.Errorf("tls.LoadX509KeyPair(%s %s): %w", cfg.TLSCert, cfg.TLSKey, err)
	}

	l.mux = http.NewServeMux()
	l.mux.HandleFunc("/ndn", l.handler)

	l.server = &webtransport.Server{
		H3: http3.Server{
			Addr: cfg.addr(),
			TLSConfig: &tls.Config{
				Certificates: []tls.Certificate{cert},
				MinVersion:   tls.VersionTLS12,
			},
			QUICConfig: &quic.Config{
				MaxIdleTimeout:          60 * time.Second,
				KeepAlivePeriod:         30 * time.Second,
				DisablePathMTUDiscovery: true,
			},
			Handler: l.mux,
		},
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	return l, nil
}

func (l *HTTP3Listener) String() string { return "HTTP/3 listener" }

func (l *HTTP3Listener) Run() {
	err := l.server.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		core.Log.Fatal(l, "Unable to start listener", "err", err)
	}
}

func (l *HTTP3Listener) handler(rw http.ResponseWriter, r *http.Request) {
	c, err := l.server.Upgrade(rw, r)
	if err != nil {
		return
	}

	remote, err := netip.ParseAddrPort(r.RemoteAddr)
	if err != nil {
		return
	}
	local, err := netip.ParseAddrPort(r.Context().Value(http.LocalAddrContextKey).(net.Addr).String())
	if err != nil {
		return
	}

	newTransport := NewHTTP3Transport(remote, local, c)
	core.Log.Info(l, "Accepting new HTTP/3 WebTransport face", "remote", r.RemoteAddr)

	options := MakeNDNLPLinkServiceOptions()
	options.IsFragmentationEnabled = true
	MakeNDNLPLinkService(newTransport, options).Run(nil)
}
