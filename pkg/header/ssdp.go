package header

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Well-known search targets.
const (
	// STAll searches for all devices and services.
	STAll ST = "ssdp:all"

	// STRootDevice searches for root devices only.
	STRootDevice ST = "upnp:rootdevice"
)

// Notification sub types carried in NTS.
const (
	NTSAlive  NTS = "ssdp:alive"
	NTSByeBye NTS = "ssdp:byebye"
	NTSUpdate NTS = "ssdp:update"
)

// manDiscover is the only defined MAN value for M-SEARCH.
const manDiscover = `"ssdp:discover"`

// MX is the maximum wait time in seconds a device may delay its search response.
type MX uint8

// HeaderName implements Header.
func (MX) HeaderName() string { return "MX" }

// Duration returns MX as a time.Duration.
func (m MX) Duration() time.Duration { return time.Duration(m) * time.Second }

// Man is the MAN header of an M-SEARCH. Its value is always "ssdp:discover".
type Man struct{}

// HeaderName implements Header.
func (Man) HeaderName() string { return "MAN" }

// ST is the search target of an M-SEARCH or a search response.
type ST string

// HeaderName implements Header.
func (ST) HeaderName() string { return "ST" }

// NT is the notification type of a NOTIFY.
type NT string

// HeaderName implements Header.
func (NT) HeaderName() string { return "NT" }

// NTS is the notification sub type of a NOTIFY.
type NTS string

// HeaderName implements Header.
func (NTS) HeaderName() string { return "NTS" }

// IsValid reports whether n is one of the defined notification sub types.
func (n NTS) IsValid() bool {
	return n == NTSAlive || n == NTSByeBye || n == NTSUpdate
}

// USN is the unique service name: a device UUID optionally followed by
// "::" and a device or service type.
type USN struct {
	UUID   uuid.UUID
	Target string
}

// HeaderName implements Header.
func (USN) HeaderName() string { return "USN" }

// String returns the wire form of the USN.
func (u USN) String() string {
	s := "uuid:" + u.UUID.String()
	if u.Target != "" {
		s += "::" + u.Target
	}
	return s
}

// ParseUSN parses a USN such as
// "uuid:2fac1234-31f8-11b4-a222-08002b34c003::upnp:rootdevice".
func ParseUSN(s string) (USN, error) {
	rest, ok := strings.CutPrefix(s, "uuid:")
	if !ok {
		return USN{}, fmt.Errorf("%w: USN %q lacks uuid: prefix", ErrInvalidValue, s)
	}
	id, target, _ := strings.Cut(rest, "::")
	u, err := uuid.Parse(id)
	if err != nil {
		return USN{}, fmt.Errorf("%w: USN %q: %v", ErrInvalidValue, s, err)
	}
	return USN{UUID: u, Target: target}, nil
}

// Location is the URL of the device description.
type Location string

// HeaderName implements Header.
func (Location) HeaderName() string { return "LOCATION" }

// Server identifies the OS, UPnP version and product of the sender.
type Server string

// HeaderName implements Header.
func (Server) HeaderName() string { return "SERVER" }

// CacheControl carries the advertisement lifetime.
type CacheControl struct {
	MaxAge time.Duration
}

// HeaderName implements Header.
func (CacheControl) HeaderName() string { return "CACHE-CONTROL" }

// Host is the HOST header, the multicast group and port the message is sent to.
type Host string

// HeaderName implements Header.
func (Host) HeaderName() string { return "HOST" }

// HostFor returns the HOST value for a destination address.
func HostFor(addr *net.UDPAddr) Host {
	return Host(net.JoinHostPort(addr.IP.String(), strconv.Itoa(addr.Port)))
}

// Ext is the empty EXT header a search response must carry.
type Ext struct{}

// HeaderName implements Header.
func (Ext) HeaderName() string { return "EXT" }

// BootID is BOOTID.UPNP.ORG, increased each time a device reboots.
type BootID uint32

// HeaderName implements Header.
func (BootID) HeaderName() string { return "BOOTID.UPNP.ORG" }

// ConfigID is CONFIGID.UPNP.ORG, changed when the device description changes.
type ConfigID uint32

// HeaderName implements Header.
func (ConfigID) HeaderName() string { return "CONFIGID.UPNP.ORG" }

// SearchPort is SEARCHPORT.UPNP.ORG, the unicast port a device answers searches on.
type SearchPort uint16

// HeaderName implements Header.
func (SearchPort) HeaderName() string { return "SEARCHPORT.UPNP.ORG" }

func newDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("MX", uintCodec[MX](8))
	r.Register("MAN", SingleValue(parseMan, func(Man) string { return manDiscover }))
	r.Register("ST", StringCodec[ST]())
	r.Register("NT", StringCodec[NT]())
	r.Register("NTS", SingleValue(parseNTS, func(n NTS) string { return string(n) }))
	r.Register("USN", SingleValue(ParseUSN, USN.String))
	r.Register("LOCATION", SingleValue(parseLocation, func(l Location) string { return string(l) }))
	r.Register("SERVER", StringCodec[Server]())
	r.Register("CACHE-CONTROL", SingleValue(parseCacheControl, func(c CacheControl) string {
		return "max-age=" + strconv.FormatInt(int64(c.MaxAge/time.Second), 10)
	}))
	r.Register("HOST", SingleValue(parseHost, func(h Host) string { return string(h) }))
	r.Register("EXT", SingleValue(func(string) (Ext, error) { return Ext{}, nil }, func(Ext) string { return "" }))
	r.Register("BOOTID.UPNP.ORG", uintCodec[BootID](31))
	r.Register("CONFIGID.UPNP.ORG", uintCodec[ConfigID](24))
	r.Register("SEARCHPORT.UPNP.ORG", uintCodec[SearchPort](16))
	return r
}

func uintCodec[H interface {
	Header
	~uint8 | ~uint16 | ~uint32
}](bits int) Codec {
	return SingleValue(func(s string) (H, error) {
		n, err := strconv.ParseUint(s, 10, bits)
		if err != nil {
			var zero H
			return zero, fmt.Errorf("%w: %s %q: %v", ErrInvalidValue, zero.HeaderName(), s, err)
		}
		return H(n), nil
	}, func(h H) string {
		return strconv.FormatUint(uint64(h), 10)
	})
}

func parseMan(s string) (Man, error) {
	if s != manDiscover {
		return Man{}, fmt.Errorf("%w: MAN %q", ErrInvalidValue, s)
	}
	return Man{}, nil
}

func parseNTS(s string) (NTS, error) {
	n := NTS(s)
	if !n.IsValid() {
		return "", fmt.Errorf("%w: NTS %q", ErrInvalidValue, s)
	}
	return n, nil
}

func parseLocation(s string) (Location, error) {
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: LOCATION %q: %v", ErrInvalidValue, s, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: LOCATION %q is not an absolute URL", ErrInvalidValue, s)
	}
	return Location(s), nil
}

func parseCacheControl(s string) (CacheControl, error) {
	for _, directive := range strings.Split(s, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(directive), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "max-age") {
			continue
		}
		secs, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
		if err != nil {
			return CacheControl{}, fmt.Errorf("%w: CACHE-CONTROL %q: %v", ErrInvalidValue, s, err)
		}
		return CacheControl{MaxAge: time.Duration(secs) * time.Second}, nil
	}
	return CacheControl{}, fmt.Errorf("%w: CACHE-CONTROL %q has no max-age", ErrInvalidValue, s)
}

func parseHost(s string) (Host, error) {
	if _, _, err := net.SplitHostPort(s); err != nil {
		return "", fmt.Errorf("%w: HOST %q: %v", ErrInvalidValue, s, err)
	}
	return Host(s), nil
}
