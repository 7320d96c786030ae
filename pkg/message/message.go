package message

import (
	"bytes"
	"fmt"

	"github.com/backkem/ssdp/pkg/header"
)

// Message is one SSDP datagram: a message type and its headers.
// The start-line is derived from the type when the message is marshaled.
type Message struct {
	kind     MessageType
	headers  Headers
	registry *header.Registry
}

// Carrier is anything that exposes an underlying Message.
// Both *Message and the Typed handles implement it.
type Carrier interface {
	Message() *Message
}

// New returns an empty message of the given type. Only the three defined
// types can be marshaled, so any other kind returns ErrInvalidType.
func New(kind MessageType) (*Message, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidType, kind)
	}
	return newMessage(kind), nil
}

func newMessage(kind MessageType) *Message {
	return &Message{kind: kind}
}

// Message returns m itself, so *Message satisfies Carrier.
func (m *Message) Message() *Message {
	return m
}

// Type returns the message type.
func (m *Message) Type() MessageType {
	return m.kind
}

// Headers returns the raw header collection.
func (m *Message) Headers() *Headers {
	return &m.headers
}

// Registry returns the header registry used for typed access.
func (m *Message) Registry() *header.Registry {
	if m.registry == nil {
		return header.Default()
	}
	return m.registry
}

// SetRegistry selects the header registry used for typed access.
// A nil registry selects header.Default.
func (m *Message) SetRegistry(r *header.Registry) {
	m.registry = r
}

// Set encodes h through the registry and stores it, replacing earlier values.
func (m *Message) Set(h header.Header) error {
	values, err := m.Registry().Encode(h)
	if err != nil {
		return err
	}
	return m.headers.Set(h.HeaderName(), values...)
}

// GetRaw returns the raw values of name, bypassing typed decoding.
func (m *Message) GetRaw(name string) [][]byte {
	return m.headers.Get(name)
}

// SetRaw replaces the raw values of name, bypassing typed encoding.
// It validates like Headers.Set.
func (m *Message) SetRaw(name string, values ...[]byte) error {
	return m.headers.Set(name, values...)
}

// AddRaw appends one raw value to name. It validates like Headers.Set.
func (m *Message) AddRaw(name string, value []byte) error {
	return m.headers.Add(name, value)
}

// Del removes name.
func (m *Message) Del(name string) {
	m.headers.Del(name)
}

// Lookup decodes the header of type H.
// It returns header.ErrMissingValue when the header is absent.
func Lookup[H header.Header](c Carrier) (H, error) {
	var zero H
	m := c.Message()
	values := m.headers.Get(zero.HeaderName())
	if values == nil {
		return zero, fmt.Errorf("%w: %s", header.ErrMissingValue, zero.HeaderName())
	}
	h, err := m.Registry().Decode(zero.HeaderName(), values)
	if err != nil {
		return zero, err
	}
	typed, ok := h.(H)
	if !ok {
		return zero, fmt.Errorf("%w: %s decoded as %T", header.ErrInvalidValue, zero.HeaderName(), h)
	}
	return typed, nil
}

// Get returns the header of type H if it is present and decodes cleanly.
//
//	if mx, ok := message.Get[header.MX](req); ok {
//	    timeout = mx.Duration()
//	}
func Get[H header.Header](c Carrier) (H, bool) {
	h, err := Lookup[H](c)
	return h, err == nil
}

// Marshal serializes the message to wire format.
func (m *Message) Marshal() []byte {
	var buf bytes.Buffer
	buf.WriteString(m.kind.startLine())
	buf.WriteString("\r\n")
	for name, values := range m.headers.All() {
		for _, v := range values {
			buf.WriteString(name)
			buf.WriteString(": ")
			buf.Write(v)
			buf.WriteString("\r\n")
		}
	}
	buf.WriteString("\r\n")
	return buf.Bytes()
}

// Clone returns a deep copy of the message.
func (m *Message) Clone() *Message {
	return &Message{
		kind:     m.kind,
		headers:  m.headers.Clone(),
		registry: m.registry,
	}
}

// Equal reports whether both messages have the same type and headers.
func (m *Message) Equal(o *Message) bool {
	return m.kind == o.kind && m.headers.Equal(&o.headers)
}

// String returns the wire form of the message.
func (m *Message) String() string {
	return string(m.Marshal())
}
