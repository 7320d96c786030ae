package header

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Header is a typed header value.
// HeaderName must not depend on the receiver's contents: the zero value of a
// Header type reports the same name as any other value of that type.
type Header interface {
	HeaderName() string
}

// Codec converts between the raw wire values of one header and its typed form.
// A header may repeat on the wire, so both directions work on a list of values.
type Codec struct {
	Decode func(values [][]byte) (Header, error)
	Encode func(h Header) ([][]byte, error)
}

// Registry maps canonical header names to codecs.
// It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]Codec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Codec)}
}

var defaultRegistry = newDefaultRegistry()

// Default returns the process-wide registry pre-loaded with the well-known
// SSDP headers.
func Default() *Registry {
	return defaultRegistry
}

// Canonical returns the lookup key for a header name.
// Header names are case-insensitive.
func Canonical(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Register installs c as the codec for name, replacing any previous codec.
func (r *Registry) Register(name string, c Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[Canonical(name)] = c
}

// Lookup returns the codec registered for name.
func (r *Registry) Lookup(name string) (Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codecs[Canonical(name)]
	return c, ok
}

// Names returns the registered header names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.codecs))
	for name := range r.codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Decode converts the raw values of header name into its typed form.
func (r *Registry) Decode(name string, values [][]byte) (Header, error) {
	c, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHeader, name)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingValue, name)
	}
	return c.Decode(values)
}

// Encode converts a typed header into its raw wire values.
func (r *Registry) Encode(h Header) ([][]byte, error) {
	if h == nil {
		return nil, fmt.Errorf("%w: nil header", ErrInvalidValue)
	}
	c, ok := r.Lookup(h.HeaderName())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHeader, h.HeaderName())
	}
	return c.Encode(h)
}

// SingleValue builds a codec for a header that carries exactly one value.
// parse receives the value with surrounding whitespace removed.
func SingleValue[H Header](parse func(string) (H, error), format func(H) string) Codec {
	return Codec{
		Decode: func(values [][]byte) (Header, error) {
			if len(values) != 1 {
				var zero H
				return nil, fmt.Errorf("%w: %s repeated %d times", ErrInvalidValue, zero.HeaderName(), len(values))
			}
			h, err := parse(strings.TrimSpace(string(values[0])))
			if err != nil {
				return nil, err
			}
			return h, nil
		},
		Encode: func(h Header) ([][]byte, error) {
			typed, ok := h.(H)
			if !ok {
				var zero H
				return nil, fmt.Errorf("%w: %T is not %T", ErrInvalidValue, h, zero)
			}
			return [][]byte{[]byte(format(typed))}, nil
		},
	}
}

// StringCodec builds a single-value codec for string-based headers.
// Empty values are rejected.
func StringCodec[H interface {
	Header
	~string
}]() Codec {
	return SingleValue(func(s string) (H, error) {
		if s == "" {
			var zero H
			return zero, fmt.Errorf("%w: empty %s", ErrInvalidValue, zero.HeaderName())
		}
		return H(s), nil
	}, func(h H) string {
		return string(h)
	})
}
