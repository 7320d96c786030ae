package message

import (
	"bytes"
	"strings"
)

// Parse decodes a datagram into a Message.
// The start-line must be one of the three SSDP forms and the header block
// must be terminated by an empty line. Anything after the empty line is
// ignored. Errors wrap ErrMalformed.
func Parse(data []byte) (*Message, error) {
	if len(data) == 0 {
		return nil, malformed("empty datagram")
	}
	if len(data) > MaxDatagramSize {
		return nil, malformed("datagram of %d bytes exceeds %d", len(data), MaxDatagramSize)
	}

	line, rest, ok := nextLine(data)
	if !ok {
		return nil, malformed("unterminated start-line")
	}
	kind, err := parseStartLine(line)
	if err != nil {
		return nil, err
	}

	m := newMessage(kind)
	for {
		line, rest, ok = nextLine(rest)
		if !ok {
			return nil, malformed("unterminated header block")
		}
		if len(line) == 0 {
			return m, nil
		}
		name, value, err := parseHeaderLine(line)
		if err != nil {
			return nil, err
		}
		m.headers.add(name, value)
	}
}

// ParseAs decodes a datagram and checks that it has the expected type.
// A well-formed message of another type yields a *KindMismatchError.
func ParseAs(data []byte, want MessageType) (*Message, error) {
	m, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if m.kind != want {
		return nil, &KindMismatchError{Want: want, Got: m.kind}
	}
	return m, nil
}

// nextLine splits off one line, accepting CRLF or a bare LF.
func nextLine(data []byte) (line, rest []byte, ok bool) {
	i := bytes.IndexByte(data, '\n')
	if i < 0 {
		return nil, nil, false
	}
	line = data[:i]
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line, data[i+1:], true
}

func parseStartLine(line []byte) (MessageType, error) {
	s := string(line)
	switch s {
	case searchLine:
		return MessageTypeSearch, nil
	case notifyLine:
		return MessageTypeNotify, nil
	}

	if rest, ok := strings.CutPrefix(s, responsePrefix); ok {
		code, reason, _ := strings.Cut(rest, " ")
		if !isStatusCode(code) {
			return MessageTypeUnknown, malformed("bad status code %q", code)
		}
		if !isText(reason) {
			return MessageTypeUnknown, malformed("bad reason phrase %q", reason)
		}
		return MessageTypeResponse, nil
	}

	return MessageTypeUnknown, malformed("unrecognized start-line %q", truncate(s))
}

func parseHeaderLine(line []byte) (name string, value []byte, err error) {
	if line[0] == ' ' || line[0] == '\t' {
		return "", nil, malformed("folded header line %q", truncate(string(line)))
	}
	i := bytes.IndexByte(line, ':')
	if i <= 0 {
		return "", nil, malformed("header line without name %q", truncate(string(line)))
	}
	name = string(line[:i])
	if !isToken(name) {
		return "", nil, malformed("invalid header name %q", truncate(name))
	}
	value = bytes.Trim(line[i+1:], " \t")
	if !isText(string(value)) {
		return "", nil, malformed("invalid value for header %s", name)
	}
	return name, value, nil
}

func isStatusCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// isToken reports whether s is an RFC 7230 token.
func isToken(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0:
		default:
			return false
		}
	}
	return true
}

// isText rejects control characters other than horizontal tab.
func isText(s string) bool {
	for i := 0; i < len(s); i++ {
		if c := s[i]; (c < 0x20 && c != '\t') || c == 0x7f {
			return false
		}
	}
	return true
}

func truncate(s string) string {
	const limit = 64
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
