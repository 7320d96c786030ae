package message

import (
	"errors"
	"fmt"
)

// Message layer errors.
var (
	// ErrMalformed is returned when a datagram is not a well-formed SSDP message.
	ErrMalformed = errors.New("message: malformed datagram")

	// ErrKindMismatch is returned when a datagram is a valid SSDP message of
	// a different type than the one expected.
	ErrKindMismatch = errors.New("message: unexpected message type")

	// ErrInvalidType is returned when constructing a message of an undefined type.
	ErrInvalidType = errors.New("message: invalid message type")

	// ErrInvalidHeader is returned when a header name or value cannot be
	// represented on the wire.
	ErrInvalidHeader = errors.New("message: invalid header")
)

// KindMismatchError reports a well-formed message of the wrong type.
// It matches ErrKindMismatch with errors.Is.
type KindMismatchError struct {
	Want MessageType
	Got  MessageType
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("message: expected %s message, got %s", e.Want, e.Got)
}

// Is reports whether target is ErrKindMismatch.
func (e *KindMismatchError) Is(target error) bool {
	return target == ErrKindMismatch
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}
