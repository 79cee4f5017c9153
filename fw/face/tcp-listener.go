package face

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/gonfd/gonfd/core"
	"github.com/gonfd/gonfd/defn"
	"github.com/gonfd/gonfd/fw/face/impl"
)

// TCPListener accepts inbound TCP unicast connections and stands up a new
// Connection/LinkService pair for each one, per spec.md §4.2's Listener
// abstraction for persistent stream-oriented links.
type TCPListener struct {
	conn     net.Listener
	localURI *defn.URI
	stopped  chan bool
}

func MakeTCPListener(localURI *defn.URI) (*TCPListener, error) {
	localURI.Canonize()
	if !localURI.IsCanonical() || (localURI.Scheme() != "tcp4" && localURI.Scheme() != "tcp6") {
		return nil, defn.ErrNotCanonical
	}

	return &TCPListener{
		localURI: localURI,
		stopped:  make(chan bool, 1),
	}, nil
}

func (l *TCPListener) String() string {
	return fmt.Sprintf("tcp-listener (%s)", l.localURI)
}

// Run accepts connections until core.ShouldQuit or the listener is Closed,
// wiring each accepted socket to a reliable, unfragmented NDNLPLinkService -
// a TCP stream already guarantees in-order delivery, so the
// HopByHopFragmenter spec.md §4.3 describes for MTU-limited links has
// nothing to do here.
func (l *TCPListener) Run() {
	defer func() { l.stopped <- true }()

	listenConfig := &net.ListenConfig{Control: impl.SyscallReuseAddr}

	var addr string
	if l.localURI.Scheme() == "tcp4" {
		addr = fmt.Sprintf("%s:%d", l.localURI.PathHost(), l.localURI.Port())
	} else {
		addr = fmt.Sprintf("[%s]:%d", l.localURI.Path(), l.localURI.Port())
	}

	var err error
	l.conn, err = listenConfig.Listen(context.Background(), l.localURI.Scheme(), addr)
	if err != nil {
		core.Log.Error(l, "Unable to start TCP listener", "err", err)
		return
	}

	for !core.ShouldQuit {
		remoteConn, err := l.conn.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			core.Log.Warn(l, "Unable to accept connection", "err", err)
			continue
		}

		newTransport, err := AcceptUnicastTCPTransport(remoteConn, l.localURI, defn.PersistencyPersistent)
		if err != nil {
			core.Log.Error(l, "Failed to create new unicast TCP transport", "err", err)
			continue
		}

		core.Log.Info(l, "Accepting new TCP face", "uri", newTransport.RemoteURI())
		options := MakeNDNLPLinkServiceOptions()
		options.IsFragmentationEnabled = false
		MakeNDNLPLinkService(newTransport, options).Run(nil)
	}
}

func (l *TCPListener) Close() {
	if l.conn != nil {
		l.conn.Close()
		<-l.stopped
	}
}
