package gateway

import (
	"bytes"
	"encoding/json"
)

// Shape tells whether a payload arrived directly or nested under "data".
// Endpoints are inconsistent about this; the shape is kept rather than
// normalised away so callers can see the difference.
type Shape int

const (
	ShapeDirect Shape = iota
	ShapeWrapped
)

func (s Shape) String() string {
	if s == ShapeWrapped {
		return "wrapped"
	}
	return "direct"
}

// Envelope is the tagged union Direct(T) | Wrapped(T).
type Envelope[T any] struct {
	Shape Shape
	Value T
}

// DecodeEnvelope is the single place response envelopes are unwrapped.
// A body is Wrapped when its top-level object has a "data" member that is
// itself an object; otherwise the whole body is the payload.
func DecodeEnvelope[T any](body []byte) (Envelope[T], error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return Envelope[T]{}, &ProtocolError{Op: "decode envelope", Reason: err.Error()}
	}

	if data, ok := top["data"]; ok && isObject(data) {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return Envelope[T]{}, &ProtocolError{Op: "decode envelope", Reason: err.Error()}
		}
		return Envelope[T]{Shape: ShapeWrapped, Value: v}, nil
	}

	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return Envelope[T]{}, &ProtocolError{Op: "decode envelope", Reason: err.Error()}
	}
	return Envelope[T]{Shape: ShapeDirect, Value: v}, nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
