package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotObject     = errors.New("payload is not a JSON object")
	ErrMissingType   = errors.New("missing message type")
	ErrMissingSerial = errors.New("missing serial number")
)

// Envelope is one decoded hub broadcast.
type Envelope struct {
	Type         string
	SerialNumber string
	Values       Values
	Raw          map[string]any
}

// EnvelopeFromJSON decodes and validates a datagram. Envelopes without a
// string type or serial number are rejected.
func EnvelopeFromJSON(data []byte) (*Envelope, error) {
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}

	raw, ok := decoded.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}

	return NewEnvelope(raw)
}

func NewEnvelope(raw map[string]any) (*Envelope, error) {
	typ, ok := raw["type"].(string)
	if !ok {
		return nil, ErrMissingType
	}
	serial, ok := raw["serial_number"].(string)
	if !ok {
		return nil, ErrMissingSerial
	}

	return &Envelope{
		Type:         typ,
		SerialNumber: serial,
		Values:       ResolveValues(raw),
		Raw:          raw,
	}, nil
}

func (e *Envelope) Has(key string) bool {
	_, ok := e.Raw[key]
	return ok
}

// Array returns the value under key when it is a JSON array.
func (e *Envelope) Array(key string) ([]any, bool) {
	v, ok := e.Raw[key].([]any)
	return v, ok
}

// String returns the value under key rendered as a string. Numbers are
// formatted plainly.
func (e *Envelope) String(key string) (string, bool) {
	v, ok := e.Raw[key]
	if !ok || v == nil {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	default:
		return FormatValue(val), true
	}
}

func (e *Envelope) Int(key string) (int64, bool) {
	return ToInt(e.Raw[key])
}
