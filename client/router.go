package client

import (
	"go.uber.org/zap"

	"github.com/luma/ddp/protocol"
)

// handleMessage classifies a decoded frame by its `msg` discriminator and
// dispatches it. Unknown and missing discriminators are ignored; a payload
// that fails to decode aborts that frame only and is surfaced as an
// exception, never as a session failure.
func (c *Client) handleMessage(payload string) {
	c.log.Debug("RECEIVE", zap.String("payload", payload))

	frame, err := protocol.Parse([]byte(payload))
	if err != nil {
		c.notifyException(err)
		return
	}

	switch frame.Kind() {
	case protocol.KindConnected:
		c.handleConnected(frame)

	case protocol.KindFailed:
		c.handleFailed(frame)

	case protocol.KindPing:
		c.handlePing(frame)

	case protocol.KindAdded, protocol.KindAddedBefore:
		c.notifyDataAdded(frame.Collection(), frame.ID(), frame.Fields())

	case protocol.KindChanged:
		c.notifyDataChanged(frame.Collection(), frame.ID(), frame.Fields(), frame.Cleared())

	case protocol.KindRemoved:
		c.notifyDataRemoved(frame.Collection(), frame.ID())

	case protocol.KindResult:
		c.handleResult(frame)

	case protocol.KindReady:
		c.handleReady(frame)

	case protocol.KindNosub:
		c.handleNosub(frame)

	default:
		c.log.Debug("Ignoring frame of unknown kind", zap.String("kind", string(frame.Kind())))
	}
}

func (c *Client) handlePing(frame *protocol.Frame) {
	pong, err := protocol.Pong(frame.ID())
	if err != nil {
		c.notifyException(err)
		return
	}

	c.send(pong)
}

func (c *Client) handleResult(frame *protocol.Frame) {
	listener, ok := c.listeners.resolve(frame.ID())
	if !ok {
		// A call issued without a listener, or a reply that raced a
		// registry clear.
		return
	}

	result, ok := listener.(ResultListener)
	if !ok {
		c.log.Debug("Dropping result for non-call listener", zap.String("id", frame.ID()))
		return
	}

	if serverErr, hasErr := frame.Err(); hasErr {
		result.OnError(serverErr.Error, serverErr.Reason, serverErr.Details)
		return
	}

	result.OnSuccess(frame.Result())
}

func (c *Client) handleReady(frame *protocol.Frame) {
	// Readiness can be batched; each id resolves independently.
	for _, id := range frame.Subs() {
		listener, ok := c.listeners.resolve(id)
		if !ok {
			continue
		}

		if subscribe, ok := listener.(SubscribeListener); ok {
			subscribe.OnReady()
		}
	}
}

// handleNosub disambiguates by listener variant: for a subscription it means
// the subscription was refused or cancelled, for an unsubscription it is the
// acknowledgement. With nobody waiting it is ignored.
func (c *Client) handleNosub(frame *protocol.Frame) {
	listener, ok := c.listeners.resolve(frame.ID())
	if !ok {
		return
	}

	switch listener := listener.(type) {
	case SubscribeListener:
		if serverErr, hasErr := frame.Err(); hasErr {
			listener.OnError(serverErr.Error, serverErr.Reason, serverErr.Details)
			return
		}

		// Cancelled without an explicit error.
		listener.OnError("", "", "")

	case UnsubscribeListener:
		listener.OnSuccess()
	}
}

func (c *Client) notifyDataAdded(collection, documentID, fieldsJSON string) {
	if callback := c.getCallback(); callback != nil {
		callback.OnDataAdded(collection, documentID, fieldsJSON)
	}
}

func (c *Client) notifyDataChanged(collection, documentID, updatedJSON, clearedJSON string) {
	if callback := c.getCallback(); callback != nil {
		callback.OnDataChanged(collection, documentID, updatedJSON, clearedJSON)
	}
}

func (c *Client) notifyDataRemoved(collection, documentID string) {
	if callback := c.getCallback(); callback != nil {
		callback.OnDataRemoved(collection, documentID)
	}
}
