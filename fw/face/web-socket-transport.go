//go:build !tinygo

package face

import (
	"fmt"
	"net"

	"github.com/gonfd/gonfd/core"
	"github.com/gonfd/gonfd/defn"
	"github.com/gorilla/websocket"
)

// WebSocketTransport is one accepted browser connection's Connection,
// framed over gorilla/websocket rather than a raw byte stream, so it is not
// backed by a net.Conn directly.
type WebSocketTransport struct {
	transportBase
	c *websocket.Conn
}

func NewWebSocketTransport(localURI *defn.URI, c *websocket.Conn) *WebSocketTransport {
	remoteURI := defn.MakeWebSocketClientFaceURI(c.RemoteAddr())

	scope := defn.NonLocal
	if ip := net.ParseIP(remoteURI.PathHost()); ip != nil && ip.IsLoopback() {
		scope = defn.Local
	}

	t := &WebSocketTransport{c: c}
	t.makeTransportBase(remoteURI, localURI, defn.PersistencyOnDemand, scope, defn.PointToPoint, defn.MaxNDNPacketSize)
	t.running.Store(true)
	return t
}

func (t *WebSocketTransport) String() string {
	return fmt.Sprintf("web-socket-transport (faceid=%d remote=%s local=%s)", t.faceID, t.remoteURI, t.localURI)
}

// SetPersistency is a no-op accessor: a browser tab's connection is always
// OnDemand, so anything else is simply rejected.
func (t *WebSocketTransport) SetPersistency(persistency defn.Persistency) bool {
	return persistency == defn.PersistencyOnDemand
}

// GetSendQueueSize is always 0: gorilla/websocket exposes no socket-level
// queue depth the way a raw fd's SyscallConn does.
func (t *WebSocketTransport) GetSendQueueSize() uint64 { return 0 }

func (t *WebSocketTransport) sendFrame(frame []byte) {
	if !t.running.Load() {
		return
	}
	if len(frame) > t.MTU() {
		core.Log.Warn(t, "Attempted to send frame larger than MTU")
		return
	}

	if err := t.c.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		core.Log.Warn(t, "Unable to send on socket - Face DOWN")
		t.Close()
		return
	}

	t.nOutBytes += uint64(len(frame))
}

func (t *WebSocketTransport) runReceive() {
	defer t.Close()

	for {
		mt, message, err := t.c.ReadMessage()
		if err != nil {
			switch {
			case websocket.IsCloseError(err):
				// gracefully closed
			case websocket.IsUnexpectedCloseError(err):
				core.Log.Info(t, "WebSocket closed unexpectedly - DROP and Face DOWN", "err", err)
			default:
				core.Log.Warn(t, "Unable to read from WebSocket - DROP and Face DOWN", "err", err)
			}
			return
		}

		if mt != websocket.BinaryMessage {
			core.Log.Warn(t, "Ignored non-binary message")
			continue
		}
		if len(message) > defn.MaxNDNPacketSize {
			core.Log.Warn(t, "Received too much data without valid TLV block")
			continue
		}

		t.nInBytes += uint64(len(message))
		t.linkService.handleIncomingFrame(message)
	}
}

func (t *WebSocketTransport) Close() {
	t.running.Store(false)
	t.c.Close()
}
