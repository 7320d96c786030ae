package transport

import (
	"errors"
	"fmt"
)

// Transport errors.
var (
	// ErrClosed is returned when an operation is attempted on a closed connector.
	ErrClosed = errors.New("transport: closed")

	// ErrInvalidAddress is returned when a destination or bind address is unusable.
	ErrInvalidAddress = errors.New("transport: invalid address")

	// ErrNoAddresses is returned when no eligible local address exists.
	ErrNoAddresses = errors.New("transport: no eligible local addresses")

	// ErrMessageTooLarge is returned when a message exceeds the maximum size.
	ErrMessageTooLarge = errors.New("transport: message too large")
)

// NetworkError describes a failed socket or interface operation.
// Err is the underlying OS error and stays reachable through errors.Is and
// errors.As.
type NetworkError struct {
	Operation string
	Details   string
	Err       error
}

func (e *NetworkError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("transport: %s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("transport: %s: %s: %v", e.Operation, e.Details, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
