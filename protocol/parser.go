package protocol

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var (
	ErrMalformedFrame = errors.New("Frame is malformed, it is not a valid JSON object")
)

// Frame is a decoded inbound DDP frame. It wraps the parsed JSON tree and
// exposes the fields each message kind carries. Sub-documents are returned
// as raw JSON; callers decide whether to decode them further.
type Frame struct {
	root gjson.Result
}

// Parse decodes a single frame received from the server.
//
// A payload that is not valid JSON aborts processing of that frame only; the
// caller is expected to surface the error and carry on with the session.
func Parse(data []byte) (*Frame, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("Failed to parse '%s': %w", string(data), ErrMalformedFrame)
	}

	return &Frame{root: gjson.ParseBytes(data)}, nil
}

// Kind returns the frame's `msg` discriminator, or "" when the frame has
// none. Frames without a discriminator are not an error; they are ignored
// by the router.
func (f *Frame) Kind() Kind {
	return Kind(f.root.Get(FieldMessage).String())
}

// ID returns the request, subscription, document or ping identifier,
// depending on the frame kind.
func (f *Frame) ID() string {
	return f.root.Get(FieldID).String()
}

// Session returns the server-assigned session identifier of a `connected`
// frame.
func (f *Frame) Session() string {
	return f.root.Get(FieldSession).String()
}

// Version returns the protocol version proposed by a `failed` frame.
func (f *Frame) Version() string {
	return f.root.Get(FieldVersion).String()
}

// Collection returns the collection name of a data-change frame.
func (f *Frame) Collection() string {
	return f.root.Get(FieldCollection).String()
}

// Fields returns the raw `fields` sub-document of an added/changed frame,
// or "" when absent.
func (f *Frame) Fields() string {
	return f.root.Get(FieldFields).Raw
}

// Cleared returns the raw `cleared` list of a changed frame, or "" when
// absent.
func (f *Frame) Cleared() string {
	return f.root.Get(FieldCleared).Raw
}

// Result returns the raw `result` payload of a result frame, or "" when
// absent.
func (f *Frame) Result() string {
	return f.root.Get(FieldResult).Raw
}

// Subs returns the subscription identifiers named by a `ready` frame.
// Readiness can be batched, so a single frame may name several.
func (f *Frame) Subs() []string {
	elements := f.root.Get(FieldSubs).Array()

	subs := make([]string, 0, len(elements))
	for _, element := range elements {
		subs = append(subs, element.String())
	}

	return subs
}

// Err returns the server error attached to a result or nosub frame, and
// whether one was present.
func (f *Frame) Err() (*ServerError, bool) {
	node := f.root.Get(FieldError)
	if !node.Exists() {
		return nil, false
	}

	return serverErrorFromJSON(node), true
}
