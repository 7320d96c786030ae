package message

import (
	"bytes"
	"fmt"
	"iter"

	"github.com/backkem/ssdp/pkg/header"
)

// Headers is an ordered, case-insensitive collection of raw header values.
// Distinct names keep the order in which they were first added; the values of
// a repeated name keep arrival order. The zero value is empty and ready to use.
type Headers struct {
	fields []field
	index  map[string]int
}

type field struct {
	name   string
	values [][]byte
}

// Len returns the number of distinct header names.
func (h *Headers) Len() int {
	return len(h.fields)
}

// Has reports whether name is present.
func (h *Headers) Has(name string) bool {
	_, ok := h.index[header.Canonical(name)]
	return ok
}

// Get returns the values of name, or nil if it is absent.
// The returned slice must not be modified.
func (h *Headers) Get(name string) [][]byte {
	i, ok := h.index[header.Canonical(name)]
	if !ok {
		return nil
	}
	return h.fields[i].values
}

// Set replaces the values of name. An existing name keeps its position and
// its original spelling; a new name is appended.
//
// name must be a header token. Values lose surrounding spaces and tabs and
// must not contain control characters, so that a marshaled message parses
// back to the same headers. An invalid name or value leaves h unchanged and
// returns an error wrapping ErrInvalidHeader.
func (h *Headers) Set(name string, values ...[]byte) error {
	vs, err := checkField(name, values)
	if err != nil {
		return err
	}
	if i, ok := h.index[header.Canonical(name)]; ok {
		h.fields[i].values = vs
		return nil
	}
	h.append(name, vs)
	return nil
}

// Add appends value to name, adding name at the end if it is new.
// It validates like Set.
func (h *Headers) Add(name string, value []byte) error {
	vs, err := checkField(name, [][]byte{value})
	if err != nil {
		return err
	}
	h.add(name, vs[0])
	return nil
}

// add appends an already validated value.
func (h *Headers) add(name string, value []byte) {
	if i, ok := h.index[header.Canonical(name)]; ok {
		h.fields[i].values = append(h.fields[i].values, value)
		return
	}
	h.append(name, [][]byte{value})
}

// checkField applies the parser's header line rules to a name and its values
// and returns trimmed copies of the values.
func checkField(name string, values [][]byte) ([][]byte, error) {
	if !isToken(name) {
		return nil, fmt.Errorf("%w: name %q", ErrInvalidHeader, truncate(name))
	}
	out := make([][]byte, len(values))
	for i, v := range values {
		v = bytes.Trim(v, " \t")
		if !isText(string(v)) {
			return nil, fmt.Errorf("%w: value for %s contains control characters", ErrInvalidHeader, name)
		}
		out[i] = bytes.Clone(v)
		if out[i] == nil {
			out[i] = []byte{}
		}
	}
	return out, nil
}

// Del removes name and all its values.
func (h *Headers) Del(name string) {
	key := header.Canonical(name)
	i, ok := h.index[key]
	if !ok {
		return
	}
	h.fields = append(h.fields[:i], h.fields[i+1:]...)
	delete(h.index, key)
	for j := i; j < len(h.fields); j++ {
		h.index[header.Canonical(h.fields[j].name)] = j
	}
}

// Names returns the header names in order, spelled as first added.
func (h *Headers) Names() []string {
	names := make([]string, len(h.fields))
	for i, f := range h.fields {
		names[i] = f.name
	}
	return names
}

// All iterates over header names and their values in order.
func (h *Headers) All() iter.Seq2[string, [][]byte] {
	return func(yield func(string, [][]byte) bool) {
		for _, f := range h.fields {
			if !yield(f.name, f.values) {
				return
			}
		}
	}
}

// Clone returns a deep copy of the collection.
func (h *Headers) Clone() Headers {
	var c Headers
	for _, f := range h.fields {
		c.append(f.name, cloneValues(f.values))
	}
	return c
}

// Equal reports whether both collections hold the same names, in the same
// order, with the same values. Names compare case-insensitively.
func (h *Headers) Equal(o *Headers) bool {
	if len(h.fields) != len(o.fields) {
		return false
	}
	for i, f := range h.fields {
		g := o.fields[i]
		if header.Canonical(f.name) != header.Canonical(g.name) || len(f.values) != len(g.values) {
			return false
		}
		for j := range f.values {
			if !bytes.Equal(f.values[j], g.values[j]) {
				return false
			}
		}
	}
	return true
}

func (h *Headers) append(name string, values [][]byte) {
	if h.index == nil {
		h.index = make(map[string]int)
	}
	h.index[header.Canonical(name)] = len(h.fields)
	h.fields = append(h.fields, field{name: name, values: values})
}

func cloneValues(values [][]byte) [][]byte {
	out := make([][]byte, len(values))
	for i, v := range values {
		out[i] = bytes.Clone(v)
		if out[i] == nil {
			out[i] = []byte{}
		}
	}
	return out
}
