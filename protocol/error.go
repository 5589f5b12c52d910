package protocol

import (
	"github.com/tidwall/gjson"
)

// ServerError is the error payload the server attaches to `result` and
// `nosub` frames. All three parts are optional on the wire; absent parts
// are empty strings.
type ServerError struct {
	// Error is the machine-readable error code. Servers send either a
	// string or a number here; numbers are rendered as their decimal form.
	Error string

	// Reason is the human-readable explanation.
	Reason string

	// Details carries any additional payload. When the server sends a
	// structured value it is kept as raw JSON.
	Details string
}

func serverErrorFromJSON(node gjson.Result) *ServerError {
	return &ServerError{
		Error:   node.Get(FieldError).String(),
		Reason:  node.Get(FieldReason).String(),
		Details: node.Get(FieldDetails).String(),
	}
}
