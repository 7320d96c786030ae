package ssdp

import "errors"

// SSDP flow errors.
var (
	// ErrNoSource is returned by Reply when the request has no source address.
	ErrNoSource = errors.New("ssdp: request has no source address")

	// ErrNothingSent is returned when every send of a fan-out failed.
	ErrNothingSent = errors.New("ssdp: message could not be sent on any interface")
)
