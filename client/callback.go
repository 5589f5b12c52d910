package client

// Callback is the application-facing event surface. All methods are invoked
// on the goroutine that delivers the underlying transport event, so
// implementations should hand off to their own machinery rather than block.
type Callback interface {
	// OnConnect is invoked every time a session is established, including
	// after an automatic reconnect.
	OnConnect()

	// OnDisconnect is invoked when the session is over and no automatic
	// reconnect will follow.
	OnDisconnect(code int, reason string)

	// OnException surfaces errors that are not tied to a specific request:
	// malformed inbound frames, dial failures during reconnects, fatal
	// protocol-version mismatches.
	OnException(err error)

	// OnDataAdded is invoked when a document appears in a subscribed
	// collection. fieldsJSON is the raw field sub-document, or "" when the
	// server sent none.
	OnDataAdded(collection, documentID, fieldsJSON string)

	// OnDataChanged is invoked when a document changes. updatedJSON holds
	// the changed fields, clearedJSON the list of removed field names;
	// either may be "" when absent.
	OnDataChanged(collection, documentID, updatedJSON, clearedJSON string)

	// OnDataRemoved is invoked when a document disappears from a
	// subscribed collection.
	OnDataRemoved(collection, documentID string)
}
