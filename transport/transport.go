package transport

import (
	"time"

	"go.uber.org/zap"
)

// Handler receives connection lifecycle events and inbound text messages.
// The transport invokes it from its own goroutines; implementations must be
// safe to call from there.
type Handler interface {
	// OnOpen is invoked once the connection has been established, before
	// any message is delivered.
	OnOpen()

	// OnClose is invoked when the connection is lost. It is not invoked
	// for locally requested teardowns via Disconnect.
	OnClose(code int, reason string)

	// OnTextMessage is invoked for every text message received, in arrival
	// order.
	OnTextMessage(payload string)
}

// Transport is a full-duplex text-message channel with lifecycle events.
// Any conforming duplex socket implementation satisfies it; WS is the
// websocket implementation used in production.
type Transport interface {
	// Connect establishes a connection and hands lifecycle events to the
	// handler. It replaces any previous connection.
	Connect(handler Handler) error

	// Disconnect tears the current connection down. The handler receives
	// no OnClose for a teardown it asked for.
	Disconnect() error

	// Send queues a single text message for delivery. It returns
	// ErrNotConnected when there is no live connection.
	Send(payload string) error

	// IsConnected reports whether there is a live connection.
	IsConnected() bool
}

type Options struct {
	// URL of the server, usually in the form ws://example.com/websocket.
	URL string

	// HandshakeTimeout bounds the websocket handshake.
	HandshakeTimeout time.Duration

	// WriteTimeout bounds every write, including the closing handshake.
	WriteTimeout time.Duration

	Log *zap.Logger
}
