package receiver

import "errors"

// ErrExhausted is returned by Next once the receiver has stopped.
var ErrExhausted = errors.New("receiver: exhausted")
