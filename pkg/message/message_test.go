package message

import (
	"bytes"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/backkem/ssdp/pkg/header"
)

func TestMarshalParseRoundtrip(t *testing.T) {
	tests := []struct {
		name  string
		build func(t *testing.T) *Message
	}{
		{
			name: "empty search",
			build: func(t *testing.T) *Message {
				return mustNew(t, MessageTypeSearch)
			},
		},
		{
			name: "search with typed headers",
			build: func(t *testing.T) *Message {
				m := mustNew(t, MessageTypeSearch)
				mustSet(t, m, header.Host("239.255.255.250:1900"))
				mustSet(t, m, header.Man{})
				mustSet(t, m, header.MX(3))
				mustSet(t, m, header.STAll)
				return m
			},
		},
		{
			name: "notify with repeated raw header",
			build: func(t *testing.T) *Message {
				m := mustNew(t, MessageTypeNotify)
				m.SetRaw("NT", []byte("upnp:rootdevice"))
				m.AddRaw("X-Extra", []byte("one"))
				m.SetRaw("NTS", []byte("ssdp:alive"))
				m.AddRaw("x-extra", []byte("two"))
				return m
			},
		},
		{
			name: "response with empty EXT",
			build: func(t *testing.T) *Message {
				m := mustNew(t, MessageTypeResponse)
				mustSet(t, m, header.CacheControl{MaxAge: 1800e9})
				mustSet(t, m, header.Ext{})
				mustSet(t, m, header.Location("http://10.0.0.2:8080/desc.xml"))
				return m
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := tc.build(t)
			got, err := ParseAs(m.Marshal(), m.Type())
			if err != nil {
				t.Fatalf("ParseAs() error = %v", err)
			}
			if !got.Equal(m) {
				t.Errorf("roundtrip mismatch:\n got  %q\n want %q", got.Marshal(), m.Marshal())
			}
			if !bytes.Equal(got.Marshal(), m.Marshal()) {
				t.Errorf("re-marshal differs:\n got  %q\n want %q", got.Marshal(), m.Marshal())
			}
		})
	}
}

func TestMarshalFormat(t *testing.T) {
	m := mustNew(t, MessageTypeNotify)
	m.SetRaw("HOST", []byte("239.255.255.250:1900"))
	m.SetRaw("NT", []byte("upnp:rootdevice"))
	m.AddRaw("X-Multi", []byte("a"))
	m.AddRaw("X-Multi", []byte("b"))

	want := "NOTIFY * HTTP/1.1\r\n" +
		"HOST: 239.255.255.250:1900\r\n" +
		"NT: upnp:rootdevice\r\n" +
		"X-Multi: a\r\n" +
		"X-Multi: b\r\n" +
		"\r\n"
	if got := string(m.Marshal()); got != want {
		t.Errorf("Marshal() =\n%q\nwant\n%q", got, want)
	}
}

func TestStartLines(t *testing.T) {
	tests := []struct {
		line string
		want MessageType
	}{
		{"M-SEARCH * HTTP/1.1", MessageTypeSearch},
		{"NOTIFY * HTTP/1.1", MessageTypeNotify},
		{"HTTP/1.1 200 OK", MessageTypeResponse},
		{"HTTP/1.1 404 Not Found", MessageTypeResponse},
		{"HTTP/1.1 200", MessageTypeResponse},
	}

	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			m, err := Parse([]byte(tc.line + "\r\n\r\n"))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if m.Type() != tc.want {
				t.Errorf("Type() = %v, want %v", m.Type(), tc.want)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"no newline", "M-SEARCH * HTTP/1.1"},
		{"unterminated header block", "M-SEARCH * HTTP/1.1\r\nST: ssdp:all\r\n"},
		{"truncated response", "HTTP/1.1 20"},
		{"lowercase method", "m-search * HTTP/1.1\r\n\r\n"},
		{"wrong uri", "M-SEARCH / HTTP/1.1\r\n\r\n"},
		{"http 1.0", "NOTIFY * HTTP/1.0\r\n\r\n"},
		{"get request", "GET / HTTP/1.1\r\n\r\n"},
		{"bad status", "HTTP/1.1 2x0 OK\r\n\r\n"},
		{"header without colon", "NOTIFY * HTTP/1.1\r\nNT upnp:rootdevice\r\n\r\n"},
		{"header with empty name", "NOTIFY * HTTP/1.1\r\n: value\r\n\r\n"},
		{"header name with space", "NOTIFY * HTTP/1.1\r\nN T: x\r\n\r\n"},
		{"folded header", "NOTIFY * HTTP/1.1\r\nNT: a\r\n b\r\n\r\n"},
		{"control character", "NOTIFY * HTTP/1.1\r\nNT: a\x00b\r\n\r\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data))
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Parse() error = %v, want %v", err, ErrMalformed)
			}
		})
	}
}

func TestParseLenient(t *testing.T) {
	data := "HTTP/1.1 200 OK\n" +
		"cache-control:max-age=100\n" +
		"ST:   upnp:rootdevice  \n" +
		"\n" +
		"trailing bytes are ignored"

	m, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := string(m.GetRaw("St")[0]); got != "upnp:rootdevice" {
		t.Errorf("ST = %q", got)
	}
	if cc, ok := Get[header.CacheControl](m); !ok || cc.MaxAge != 100e9 {
		t.Errorf("CACHE-CONTROL = %v, %v", cc, ok)
	}
}

func TestParseKindMismatch(t *testing.T) {
	notify := mustNew(t, MessageTypeNotify)
	notify.SetRaw("NT", []byte("upnp:rootdevice"))

	_, err := ParseAs(notify.Marshal(), MessageTypeSearch)
	if !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("ParseAs() error = %v, want %v", err, ErrKindMismatch)
	}
	if errors.Is(err, ErrMalformed) {
		t.Errorf("kind mismatch must not be reported as malformed")
	}
	var kerr *KindMismatchError
	if !errors.As(err, &kerr) {
		t.Fatalf("error %T is not *KindMismatchError", err)
	}
	if kerr.Want != MessageTypeSearch || kerr.Got != MessageTypeNotify {
		t.Errorf("KindMismatchError = %+v", kerr)
	}
}

func TestParseRandomBytes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 2000; i++ {
		data := make([]byte, rng.Intn(256))
		rng.Read(data)
		if _, err := Parse(data); err == nil {
			t.Fatalf("Parse(%q) succeeded", data)
		}
	}
}

func FuzzParse(f *testing.F) {
	f.Add([]byte("M-SEARCH * HTTP/1.1\r\nMX: 2\r\n\r\n"))
	f.Add([]byte("HTTP/1.1 200 OK\r\nEXT:\r\n\r\n"))
	f.Add([]byte("NOTIFY * HTTP/1.1\n\n"))
	f.Fuzz(func(t *testing.T, data []byte) {
		m, err := Parse(data)
		if err != nil {
			return
		}
		again, err := Parse(m.Marshal())
		if err != nil {
			t.Fatalf("re-parse of %q failed: %v", m.Marshal(), err)
		}
		if !again.Equal(m) {
			t.Fatalf("re-parse mismatch for %q", data)
		}
	})
}

func TestSearchMXEndToEnd(t *testing.T) {
	req := NewSearchRequest()
	req.MustSet(header.Man{}).MustSet(header.MX(5)).MustSet(header.STAll)

	data := req.Marshal()
	if !bytes.HasPrefix(data, []byte("M-SEARCH * HTTP/1.1\r\n")) {
		t.Fatalf("Marshal() = %q, want M-SEARCH start-line", data)
	}

	got, err := ParseTyped[SearchKind](data, nil)
	if err != nil {
		t.Fatalf("ParseTyped() error = %v", err)
	}
	mx, ok := Get[header.MX](got)
	if !ok || mx != 5 {
		t.Errorf("MX = %v, %v, want 5", mx, ok)
	}
}

func TestTypedAccess(t *testing.T) {
	m := mustNew(t, MessageTypeResponse)

	if _, ok := Get[header.MX](m); ok {
		t.Error("Get() on absent header returned ok")
	}
	if _, err := Lookup[header.MX](m); !errors.Is(err, header.ErrMissingValue) {
		t.Errorf("Lookup() error = %v, want %v", err, header.ErrMissingValue)
	}

	m.SetRaw("MX", []byte("soon"))
	if _, ok := Get[header.MX](m); ok {
		t.Error("Get() on invalid value returned ok")
	}
	if _, err := Lookup[header.MX](m); !errors.Is(err, header.ErrInvalidValue) {
		t.Errorf("Lookup() error = %v, want %v", err, header.ErrInvalidValue)
	}

	if err := m.Set(header.MX(1)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if mx, ok := Get[header.MX](m); !ok || mx != 1 {
		t.Errorf("Get() = %v, %v", mx, ok)
	}
	if n := m.Headers().Len(); n != 1 {
		t.Errorf("Len() = %d, want 1 after replacing MX", n)
	}
}

type roomHeader string

func (roomHeader) HeaderName() string { return "X-ROOM" }

func TestCustomRegistry(t *testing.T) {
	reg := header.NewRegistry()
	reg.Register("X-ROOM", header.StringCodec[roomHeader]())

	m := mustNew(t, MessageTypeNotify)
	if err := m.Set(roomHeader("kitchen")); !errors.Is(err, header.ErrUnknownHeader) {
		t.Fatalf("Set() with default registry error = %v, want %v", err, header.ErrUnknownHeader)
	}

	m.SetRegistry(reg)
	if err := m.Set(roomHeader("kitchen")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got, ok := Get[roomHeader](m); !ok || got != "kitchen" {
		t.Errorf("Get() = %q, %v", got, ok)
	}
	if !strings.Contains(m.String(), "X-ROOM: kitchen\r\n") {
		t.Errorf("String() = %q", m.String())
	}
}

func TestHeadersOrderAndDelete(t *testing.T) {
	var h Headers
	h.Set("A", []byte("1"))
	h.Set("B", []byte("2"))
	h.Set("C", []byte("3"))
	h.Set("a", []byte("4"))
	h.Del("b")

	names := h.Names()
	if len(names) != 2 || names[0] != "A" || names[1] != "C" {
		t.Fatalf("Names() = %v, want [A C]", names)
	}
	if got := string(h.Get("A")[0]); got != "4" {
		t.Errorf("A = %q, want 4", got)
	}
	if !h.Has("c") || h.Has("B") {
		t.Errorf("Has() inconsistent after Del")
	}
	h.Add("D", nil)
	if v := h.Get("D"); len(v) != 1 || v[0] == nil {
		t.Errorf("Add(nil) stored %v", v)
	}
}

func TestHeadersRejectUnrepresentable(t *testing.T) {
	tests := []struct {
		name   string
		header string
		value  string
	}{
		{"CRLF in value", "X-Note", "a\r\nX-Injected: 1"},
		{"bare LF in value", "X-Note", "a\nb"},
		{"NUL in value", "X-Note", "a\x00b"},
		{"DEL in value", "X-Note", "a\x7fb"},
		{"empty name", "", "v"},
		{"colon in name", "X:Note", "v"},
		{"space in name", "X Note", "v"},
		{"CRLF in name", "X-Note\r\nX-Injected", "v"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := mustNew(t, MessageTypeNotify)
			if err := m.SetRaw(tc.header, []byte(tc.value)); !errors.Is(err, ErrInvalidHeader) {
				t.Errorf("SetRaw() error = %v, want %v", err, ErrInvalidHeader)
			}
			if err := m.AddRaw(tc.header, []byte(tc.value)); !errors.Is(err, ErrInvalidHeader) {
				t.Errorf("AddRaw() error = %v, want %v", err, ErrInvalidHeader)
			}
			if n := m.Headers().Len(); n != 0 {
				t.Errorf("Len() = %d, want 0 after rejected writes", n)
			}
			want := "NOTIFY * HTTP/1.1\r\n\r\n"
			if got := m.String(); got != want {
				t.Errorf("Marshal() = %q, want %q", got, want)
			}
		})
	}
}

func TestHeadersSetKeepsEarlierValuesOnError(t *testing.T) {
	m := mustNew(t, MessageTypeNotify)
	if err := m.SetRaw("X-Note", []byte("ok")); err != nil {
		t.Fatalf("SetRaw() error = %v", err)
	}
	if err := m.SetRaw("X-Note", []byte("fine"), []byte("bad\r\n")); !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("SetRaw() error = %v, want %v", err, ErrInvalidHeader)
	}
	if got := m.GetRaw("X-Note"); len(got) != 1 || string(got[0]) != "ok" {
		t.Errorf("X-Note = %q, want [ok]", got)
	}
}

func TestTypedSetRejectsControlCharacters(t *testing.T) {
	req := NewSearchRequest()
	if err := req.Set(header.ST("upnp:rootdevice\r\nX-Injected: 1")); !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("Set() error = %v, want %v", err, ErrInvalidHeader)
	}
	if err := req.SetRaw("ST", []byte("a\rb")); !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("Typed SetRaw() error = %v, want %v", err, ErrInvalidHeader)
	}
	if req.Message().Headers().Has("ST") {
		t.Error("rejected ST was stored")
	}
}

func TestPaddedValuesRoundtrip(t *testing.T) {
	m := mustNew(t, MessageTypeNotify)
	if err := m.SetRaw("NT", []byte("  upnp:rootdevice\t")); err != nil {
		t.Fatalf("SetRaw() error = %v", err)
	}
	if err := m.AddRaw("X-Blank", []byte(" \t ")); err != nil {
		t.Fatalf("AddRaw() error = %v", err)
	}
	if got := string(m.GetRaw("NT")[0]); got != "upnp:rootdevice" {
		t.Errorf("NT = %q, want trimmed value", got)
	}

	got, err := ParseAs(m.Marshal(), MessageTypeNotify)
	if err != nil {
		t.Fatalf("ParseAs() error = %v", err)
	}
	if !got.Equal(m) {
		t.Errorf("roundtrip mismatch:\n got  %q\n want %q", got.Marshal(), m.Marshal())
	}
}

func TestNewRejectsUnknownType(t *testing.T) {
	for _, kind := range []MessageType{MessageTypeUnknown, MessageType(42)} {
		m, err := New(kind)
		if !errors.Is(err, ErrInvalidType) {
			t.Errorf("New(%v) error = %v, want %v", kind, err, ErrInvalidType)
		}
		if m != nil {
			t.Errorf("New(%v) returned a message", kind)
		}
	}
	for _, kind := range []MessageType{MessageTypeSearch, MessageTypeNotify, MessageTypeResponse} {
		if _, err := New(kind); err != nil {
			t.Errorf("New(%v) error = %v", kind, err)
		}
	}
}

func TestWrap(t *testing.T) {
	m := mustNew(t, MessageTypeNotify)
	if _, err := Wrap[SearchKind](m); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("Wrap() error = %v, want %v", err, ErrKindMismatch)
	}
	n, err := Wrap[NotifyKind](m)
	if err != nil {
		t.Fatalf("Wrap() error = %v", err)
	}
	if n.Message() != m || n.Source() != nil {
		t.Errorf("Wrap() did not share the message")
	}
}

func TestMessageTypeString(t *testing.T) {
	if MessageTypeSearch.String() != "Search" || MessageTypeUnknown.IsValid() || !MessageTypeResponse.IsValid() {
		t.Error("MessageType helpers disagree")
	}
}

func mustNew(t *testing.T, kind MessageType) *Message {
	t.Helper()
	m, err := New(kind)
	if err != nil {
		t.Fatalf("New(%v) error = %v", kind, err)
	}
	return m
}

func mustSet(t *testing.T, m *Message, h header.Header) {
	t.Helper()
	if err := m.Set(h); err != nil {
		t.Fatalf("Set(%T) error = %v", h, err)
	}
}
