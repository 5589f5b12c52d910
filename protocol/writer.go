package protocol

import (
	"github.com/tidwall/sjson"
)

var emptyObject = []byte(`{}`)

// Connect builds the handshake frame. support lists every protocol version
// the client speaks, most preferred first. session may be empty when the
// client is not resuming an earlier session.
func Connect(version string, support []string, session string) ([]byte, error) {
	frame, err := newFrame(KindConnect)
	if err != nil {
		return nil, err
	}

	if frame, err = sjson.SetBytes(frame, FieldVersion, version); err != nil {
		return nil, err
	}

	if frame, err = sjson.SetBytes(frame, FieldSupport, support); err != nil {
		return nil, err
	}

	if session != "" {
		if frame, err = sjson.SetBytes(frame, FieldSession, session); err != nil {
			return nil, err
		}
	}

	return frame, nil
}

// Method builds a remote procedure call frame. params and randomSeed are
// optional and omitted from the frame when empty.
func Method(method, id string, params []interface{}, randomSeed string) ([]byte, error) {
	frame, err := newFrame(KindMethod)
	if err != nil {
		return nil, err
	}

	if frame, err = sjson.SetBytes(frame, FieldMethod, method); err != nil {
		return nil, err
	}

	if frame, err = sjson.SetBytes(frame, FieldID, id); err != nil {
		return nil, err
	}

	if params != nil {
		if frame, err = sjson.SetBytes(frame, FieldParams, params); err != nil {
			return nil, err
		}
	}

	if randomSeed != "" {
		if frame, err = sjson.SetBytes(frame, FieldRandomSeed, randomSeed); err != nil {
			return nil, err
		}
	}

	return frame, nil
}

// Sub builds a subscription request frame.
func Sub(name, id string, params []interface{}) ([]byte, error) {
	frame, err := newFrame(KindSub)
	if err != nil {
		return nil, err
	}

	if frame, err = sjson.SetBytes(frame, FieldName, name); err != nil {
		return nil, err
	}

	if frame, err = sjson.SetBytes(frame, FieldID, id); err != nil {
		return nil, err
	}

	if params != nil {
		if frame, err = sjson.SetBytes(frame, FieldParams, params); err != nil {
			return nil, err
		}
	}

	return frame, nil
}

// Unsub builds an unsubscription request frame.
func Unsub(id string) ([]byte, error) {
	frame, err := newFrame(KindUnsub)
	if err != nil {
		return nil, err
	}

	return sjson.SetBytes(frame, FieldID, id)
}

// Pong builds the reply to a server ping, echoing the ping's id if it had one.
func Pong(id string) ([]byte, error) {
	frame, err := newFrame(KindPong)
	if err != nil {
		return nil, err
	}

	if id == "" {
		return frame, nil
	}

	return sjson.SetBytes(frame, FieldID, id)
}

func newFrame(kind Kind) ([]byte, error) {
	return sjson.SetBytes(emptyObject, FieldMessage, string(kind))
}
