// Package message implements the SSDP wire format.
//
// An SSDP datagram is US-ASCII text shaped like an HTTP/1.1 message without a
// body: a start-line, CRLF-terminated header lines, and an empty line. The
// start-line determines the message type:
//
//	M-SEARCH * HTTP/1.1   search request
//	NOTIFY * HTTP/1.1     notification
//	HTTP/1.1 200 OK       search response
//
// The package provides:
//   - Message: message type plus an ordered, case-insensitive header collection
//   - Parse, ParseAs and Marshal for the wire format
//   - Typed and raw header access through a header.Registry
//   - Typed[K] handles that keep requests, responses and notifications apart
//     at compile time
package message

// MessageType identifies the kind of an SSDP message.
type MessageType uint8

const (
	// MessageTypeUnknown is the zero value for an unrecognized message.
	MessageTypeUnknown MessageType = iota

	// MessageTypeNotify is a NOTIFY advertisement.
	MessageTypeNotify

	// MessageTypeSearch is an M-SEARCH request.
	MessageTypeSearch

	// MessageTypeResponse is the unicast response to an M-SEARCH.
	MessageTypeResponse
)

// String returns a human-readable name for the message type.
func (t MessageType) String() string {
	switch t {
	case MessageTypeNotify:
		return "Notify"
	case MessageTypeSearch:
		return "Search"
	case MessageTypeResponse:
		return "Response"
	default:
		return "Unknown"
	}
}

// IsValid returns true if the message type is a defined value.
func (t MessageType) IsValid() bool {
	return t >= MessageTypeNotify && t <= MessageTypeResponse
}

// startLine returns the canonical start-line for the message type.
func (t MessageType) startLine() string {
	switch t {
	case MessageTypeNotify:
		return notifyLine
	case MessageTypeSearch:
		return searchLine
	case MessageTypeResponse:
		return responseLine
	default:
		return ""
	}
}

// Canonical start-lines.
const (
	searchLine   = "M-SEARCH * HTTP/1.1"
	notifyLine   = "NOTIFY * HTTP/1.1"
	responseLine = "HTTP/1.1 200 OK"

	responsePrefix = "HTTP/1.1 "
)

// MaxDatagramSize is the largest UDP payload an SSDP message can occupy.
const MaxDatagramSize = 65507
