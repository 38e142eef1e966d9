package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/c360/sensorlink/errors"
	"github.com/c360/sensorlink/pkg/timestamp"
)

// Envelope is the parsed frame of one websocket message. The wire format is
// flat: the type discriminator sits beside the payload fields in a single
// JSON object. Raw keeps the whole object so Decode can unmarshal the
// type-specific fields.
type Envelope struct {
	Type      Type            `json:"type"`
	ID        string          `json:"id,omitempty"`
	Timestamp Epoch           `json:"timestamp,omitempty"`
	Raw       json.RawMessage `json:"-"`
}

// ParseEnvelope parses raw websocket bytes into an Envelope. Messages
// without a type discriminator are invalid.
func ParseEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.WrapInvalid(err, "protocol", "ParseEnvelope", "unmarshal message")
	}

	if env.Type == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("missing message type"),
			"protocol", "ParseEnvelope", "validate envelope")
	}

	env.Raw = data
	return &env, nil
}

// Encode builds the wire form of an outbound message: the payload's fields
// with type, correlation ID, and timestamp merged in. A nil payload encodes
// the frame fields alone.
func Encode(t Type, payload any) ([]byte, error) {
	frame := map[string]any{}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.WrapInvalid(err, "protocol", "Encode", "marshal payload")
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, errors.WrapInvalid(err, "protocol", "Encode", "flatten payload")
		}
	}

	frame["type"] = t
	frame["id"] = uuid.NewString()
	frame["timestamp"] = timestamp.Now()

	data, err := json.Marshal(frame)
	if err != nil {
		return nil, errors.WrapInvalid(err, "protocol", "Encode", "marshal frame")
	}
	return data, nil
}
