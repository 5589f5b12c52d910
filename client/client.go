package client

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/luma/ddp/protocol"
	"github.com/luma/ddp/transport"
)

// SupportedVersions lists the DDP protocol versions this client speaks, most
// preferred first. Version negotiation only ever narrows to entries of this
// list.
var SupportedVersions = []string{"1", "pre2", "pre1"}

// reconnectAttemptsMax caps consecutive automatic reconnect attempts after a
// connection loss. Once exceeded the session is over; a manual Reconnect is
// still honored.
const reconnectAttemptsMax = 5

var (
	ErrVersionNotSupported = errors.New("DDP protocol version not supported")
)

// Client is a DDP client: it owns the connection lifecycle, correlates every
// server reply back to the caller that issued the request, and forwards
// collection changes to the application callback.
//
// All request methods are fire-and-forget and never block; replies arrive on
// listeners invoked from the connection's goroutine.
type Client struct {
	log       *zap.Logger
	transport transport.Transport

	listeners *listenerRegistry
	queue     *messageQueue

	cbMu     sync.Mutex
	callback Callback

	mu                sync.Mutex
	version           string
	sessionID         string
	connected         bool
	reconnecting      bool
	reconnectAttempts int
}

type Options struct {
	// URL of the DDP endpoint, usually in the form
	// ws://example.com/websocket.
	URL string

	// Version is the preferred DDP protocol version. It must be one of
	// SupportedVersions; empty selects the most preferred one.
	Version string

	// Transport overrides the websocket transport. Tests use this to drive
	// the client without a network.
	Transport transport.Transport

	Log *zap.Logger
}

// New builds a client. It does not connect; call Connect when ready.
func New(options Options) (*Client, error) {
	version := options.Version
	if version == "" {
		version = SupportedVersions[0]
	}

	if !IsVersionSupported(version) {
		return nil, fmt.Errorf("%w: %s", ErrVersionNotSupported, version)
	}

	log := options.Log
	if log == nil {
		log = zap.NewNop()
	}

	tr := options.Transport
	if tr == nil {
		tr = transport.NewWS(transport.Options{
			URL: options.URL,
			Log: log.Named("transport"),
		})
	}

	return &Client{
		log:       log,
		transport: tr,
		listeners: newListenerRegistry(),
		queue:     newMessageQueue(),
		version:   version,
	}, nil
}

// IsVersionSupported reports whether the client can speak the given DDP
// protocol version.
func IsVersionSupported(version string) bool {
	for _, supported := range SupportedVersions {
		if supported == version {
			return true
		}
	}

	return false
}

// SetCallback attaches the application event surface. Passing nil detaches
// it; events occurring while detached are dropped.
func (c *Client) SetCallback(callback Callback) {
	c.cbMu.Lock()
	c.callback = callback
	c.cbMu.Unlock()
}

// Connect establishes the connection and starts the DDP handshake.
func (c *Client) Connect() error {
	return c.open(false)
}

// Reconnect manually attempts to re-establish the session, resuming it when
// possible. It works even after the client has given up on automatic
// reconnection.
func (c *Client) Reconnect() {
	if err := c.open(true); err != nil {
		c.notifyException(err)
	}
}

// IsConnected reports whether the underlying connection is currently open.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.connected
}

// Disconnect tears the session down for good: pending listeners are
// discarded, the callback is detached and no automatic reconnection will
// follow. Teardown errors are logged, not surfaced.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.connected = false
	c.reconnecting = false
	c.sessionID = ""
	c.mu.Unlock()

	c.listeners.clear()
	c.SetCallback(nil)

	if err := c.transport.Disconnect(); err != nil {
		c.log.Warn("Transport did not close cleanly", zap.Error(err))
	}
}

// open establishes a connection, or, when this is a reconnect and the
// connection is still alive, skips straight to the handshake to resume the
// session.
func (c *Client) open(isReconnect bool) error {
	if isReconnect && c.transport.IsConnected() {
		c.sendHandshake()
		return nil
	}

	return c.transport.Connect(transportHandler{c})
}

// sendHandshake sends the `connect` frame carrying the negotiated version,
// the full support list and, when resuming, the previous session id.
func (c *Client) sendHandshake() {
	c.mu.Lock()
	version := c.version
	session := c.sessionID
	c.mu.Unlock()

	frame, err := protocol.Connect(version, SupportedVersions, session)
	if err != nil {
		c.notifyException(err)
		return
	}

	c.send(frame)
}

// send hands the frame to the transport when connected, otherwise queues it
// for delivery once the session is established. Frames are never dropped: a
// send that races a connection loss is re-queued.
func (c *Client) send(frame []byte) {
	if frame == nil {
		panic("ddp: cannot send a nil frame")
	}

	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()

	if !connected {
		c.log.Debug("QUEUE", zap.ByteString("frame", frame))
		c.queue.push(frame)
		return
	}

	c.log.Debug("SEND", zap.ByteString("frame", frame))

	if err := c.transport.Send(string(frame)); err != nil {
		if errors.Is(err, transport.ErrNotConnected) {
			c.queue.push(frame)
			return
		}

		c.notifyException(err)
	}
}

func (c *Client) handleOpen() {
	c.log.Debug("Transport opened")

	c.mu.Lock()
	c.connected = true
	c.reconnectAttempts = 0
	c.mu.Unlock()

	c.sendHandshake()
}

// handleClose runs the reconnect policy whenever the connection is lost.
// Attempts run synchronously from the close event; failed dials count as
// further attempts. Only the final outcome notifies the application: either
// the session recovers (OnConnect fires once the handshake completes) or the
// client gives up with a single OnDisconnect.
func (c *Client) handleClose(code int, reason string) {
	c.log.Debug("Transport closed",
		zap.Int("code", code),
		zap.String("reason", reason))

	for {
		c.mu.Lock()

		if c.connected {
			c.connected = false
			c.reconnecting = true
		}

		if !c.reconnecting {
			c.mu.Unlock()
			c.notifyDisconnect(code, reason)
			return
		}

		c.reconnectAttempts++
		if c.reconnectAttempts > reconnectAttemptsMax {
			// The session is over. Nothing pending can complete anymore.
			c.reconnecting = false
			c.sessionID = ""
			c.mu.Unlock()

			c.listeners.clear()
			c.notifyDisconnect(code, reason)
			return
		}

		attempt := c.reconnectAttempts
		c.mu.Unlock()

		err := c.open(true)
		if err == nil {
			return
		}

		c.log.Warn("Reconnect attempt failed",
			zap.Int("attempt", attempt),
			zap.Error(err))
		c.notifyException(err)
	}
}

// handleConnected finishes the handshake: the server accepted, possibly
// assigning a session id for later resumption. Frames queued while the
// session was down are flushed in their original order.
func (c *Client) handleConnected(frame *protocol.Frame) {
	c.mu.Lock()
	if session := frame.Session(); session != "" {
		c.sessionID = session
	}
	c.reconnecting = false
	c.mu.Unlock()

	c.notifyConnect()

	for _, queued := range c.queue.drain() {
		c.send(queued)
	}
}

// handleFailed reacts to a rejected handshake. A server-proposed version the
// client supports is adopted and the handshake redone on a fresh connection
// without session resumption; an unsupported one is fatal.
func (c *Client) handleFailed(frame *protocol.Frame) {
	version := frame.Version()

	if !IsVersionSupported(version) {
		c.mu.Lock()
		c.connected = false
		c.reconnecting = false
		c.sessionID = ""
		c.mu.Unlock()

		if err := c.transport.Disconnect(); err != nil {
			c.log.Warn("Transport did not close cleanly", zap.Error(err))
		}

		c.notifyException(fmt.Errorf("%w: server proposed %s", ErrVersionNotSupported, version))
		return
	}

	c.log.Info("Adopting server-proposed protocol version", zap.String("version", version))

	c.mu.Lock()
	c.version = version
	c.sessionID = ""
	c.connected = false
	c.reconnecting = false
	c.mu.Unlock()

	if err := c.transport.Disconnect(); err != nil {
		c.log.Warn("Transport did not close cleanly", zap.Error(err))
	}

	if err := c.open(false); err != nil {
		c.notifyException(err)
	}
}

func (c *Client) getCallback() Callback {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()

	return c.callback
}

func (c *Client) notifyConnect() {
	if callback := c.getCallback(); callback != nil {
		callback.OnConnect()
	}
}

func (c *Client) notifyDisconnect(code int, reason string) {
	if callback := c.getCallback(); callback != nil {
		callback.OnDisconnect(code, reason)
	}
}

func (c *Client) notifyException(err error) {
	if callback := c.getCallback(); callback != nil {
		callback.OnException(err)
	}
}

// transportHandler adapts the client to the transport's event surface
// without exposing the event methods on the public API.
type transportHandler struct {
	c *Client
}

func (h transportHandler) OnOpen() {
	h.c.handleOpen()
}

func (h transportHandler) OnClose(code int, reason string) {
	h.c.handleClose(code, reason)
}

func (h transportHandler) OnTextMessage(payload string) {
	h.c.handleMessage(payload)
}

var _ transport.Handler = transportHandler{}
