package client

import (
	"github.com/google/uuid"

	"github.com/luma/ddp/protocol"
)

// Call invokes a remote method. The listener may be nil for fire-and-forget
// calls; when given, it fires exactly once with the result or the
// server-reported error.
func (c *Client) Call(method string, params []interface{}, listener ResultListener) {
	c.CallWithSeed(method, "", params, listener)
}

// CallWithSeed invokes a remote method with a randomness seed the server
// uses for deterministic pseudo-random generation.
func (c *Client) CallWithSeed(method, randomSeed string, params []interface{}, listener ResultListener) {
	callID := uniqueID()

	if listener != nil {
		c.listeners.register(callID, listener)
	}

	frame, err := protocol.Method(method, callID, params, randomSeed)
	if err != nil {
		c.listeners.resolve(callID)
		c.notifyException(err)
		return
	}

	c.send(frame)
}

// Subscribe starts a subscription and returns its generated id, which the
// caller needs to unsubscribe later. The listener may be nil.
func (c *Client) Subscribe(name string, params []interface{}, listener SubscribeListener) string {
	subscriptionID := uniqueID()

	if listener != nil {
		c.listeners.register(subscriptionID, listener)
	}

	frame, err := protocol.Sub(name, subscriptionID, params)
	if err != nil {
		c.listeners.resolve(subscriptionID)
		c.notifyException(err)
		return subscriptionID
	}

	c.send(frame)

	return subscriptionID
}

// Unsubscribe stops the subscription with the given id. The listener may be
// nil; when given it attaches to the subscription's registry slot, replacing
// any listener still waiting there.
func (c *Client) Unsubscribe(subscriptionID string, listener UnsubscribeListener) {
	if listener != nil {
		c.listeners.register(subscriptionID, listener)
	}

	frame, err := protocol.Unsub(subscriptionID)
	if err != nil {
		c.listeners.resolve(subscriptionID)
		c.notifyException(err)
		return
	}

	c.send(frame)
}

// Insert adds a document to the named collection via the collection's
// insert method.
func (c *Client) Insert(collection string, document map[string]interface{}, listener ResultListener) {
	c.Call("/"+collection+"/insert", []interface{}{document}, listener)
}

// Update modifies the documents selected by query in the named collection.
// options may be nil.
func (c *Client) Update(collection string, query, data, options map[string]interface{}, listener ResultListener) {
	if options == nil {
		options = map[string]interface{}{}
	}

	c.Call("/"+collection+"/update", []interface{}{query, data, options}, listener)
}

// Remove deletes the document with the given id from the named collection.
func (c *Client) Remove(collection, documentID string, listener ResultListener) {
	query := map[string]interface{}{"_id": documentID}

	c.Call("/"+collection+"/remove", []interface{}{query}, listener)
}

// uniqueID returns a fresh 128-bit random request identifier.
func uniqueID() string {
	return uuid.NewString()
}
