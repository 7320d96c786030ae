package message

import (
	"net"

	"github.com/backkem/ssdp/pkg/header"
)

// Kind is a compile-time marker for the message type a Typed handle holds.
type Kind interface {
	MessageType() MessageType
}

// SearchKind marks M-SEARCH requests.
type SearchKind struct{}

// MessageType implements Kind.
func (SearchKind) MessageType() MessageType { return MessageTypeSearch }

// ResponseKind marks search responses.
type ResponseKind struct{}

// MessageType implements Kind.
func (ResponseKind) MessageType() MessageType { return MessageTypeResponse }

// NotifyKind marks NOTIFY advertisements.
type NotifyKind struct{}

// MessageType implements Kind.
func (NotifyKind) MessageType() MessageType { return MessageTypeNotify }

// Typed is a Message whose type is fixed by K. Typed[SearchKind] and
// Typed[ResponseKind] are distinct types, so a response cannot be used where a
// request is required.
type Typed[K Kind] struct {
	msg    *Message
	source net.Addr
}

// Handles for the three SSDP message kinds.
type (
	SearchRequest  = Typed[SearchKind]
	SearchResponse = Typed[ResponseKind]
	NotifyMessage  = Typed[NotifyKind]
)

// NewTyped returns an empty message of kind K.
func NewTyped[K Kind]() *Typed[K] {
	var k K
	return &Typed[K]{msg: newMessage(k.MessageType())}
}

// NewSearchRequest returns an empty M-SEARCH request.
func NewSearchRequest() *SearchRequest { return NewTyped[SearchKind]() }

// NewSearchResponse returns an empty search response.
func NewSearchResponse() *SearchResponse { return NewTyped[ResponseKind]() }

// NewNotify returns an empty NOTIFY message.
func NewNotify() *NotifyMessage { return NewTyped[NotifyKind]() }

// Wrap checks that m has kind K and returns a handle sharing m.
func Wrap[K Kind](m *Message) (*Typed[K], error) {
	var k K
	if m.kind != k.MessageType() {
		return nil, &KindMismatchError{Want: k.MessageType(), Got: m.kind}
	}
	return &Typed[K]{msg: m}, nil
}

// ParseTyped decodes a datagram received from source as a message of kind K.
// source may be nil for datagrams of unknown origin.
func ParseTyped[K Kind](data []byte, source net.Addr) (*Typed[K], error) {
	var k K
	m, err := ParseAs(data, k.MessageType())
	if err != nil {
		return nil, err
	}
	return &Typed[K]{msg: m, source: source}, nil
}

// Message returns the underlying message.
func (t *Typed[K]) Message() *Message {
	return t.msg
}

// Type returns the message type fixed by K.
func (t *Typed[K]) Type() MessageType {
	return t.msg.kind
}

// Source returns the address the message was received from, or nil for a
// locally constructed message.
func (t *Typed[K]) Source() net.Addr {
	return t.source
}

// Set stores a typed header.
func (t *Typed[K]) Set(h header.Header) error {
	return t.msg.Set(h)
}

// MustSet stores a typed header and panics if it cannot be encoded.
// It is meant for headers whose values are known to be valid.
func (t *Typed[K]) MustSet(h header.Header) *Typed[K] {
	if err := t.msg.Set(h); err != nil {
		panic(err)
	}
	return t
}

// GetRaw returns the raw values of name.
func (t *Typed[K]) GetRaw(name string) [][]byte {
	return t.msg.GetRaw(name)
}

// SetRaw replaces the raw values of name. It validates like Headers.Set.
func (t *Typed[K]) SetRaw(name string, values ...[]byte) error {
	return t.msg.SetRaw(name, values...)
}

// Marshal serializes the message to wire format.
func (t *Typed[K]) Marshal() []byte {
	return t.msg.Marshal()
}

// Clone returns a deep copy of the handle.
func (t *Typed[K]) Clone() *Typed[K] {
	return &Typed[K]{msg: t.msg.Clone(), source: t.source}
}

// String returns the wire form of the message.
func (t *Typed[K]) String() string {
	return t.msg.String()
}
