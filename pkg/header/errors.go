package header

import "errors"

// Header registry errors.
var (
	// ErrUnknownHeader is returned when no codec is registered for a header name.
	ErrUnknownHeader = errors.New("header: no codec registered")

	// ErrInvalidValue is returned when raw header bytes cannot be decoded,
	// or when a typed value cannot be encoded.
	ErrInvalidValue = errors.New("header: invalid value")

	// ErrMissingValue is returned when decoding a header that has no values.
	ErrMissingValue = errors.New("header: missing value")
)
