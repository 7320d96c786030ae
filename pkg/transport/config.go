package transport

import "net"

// Default network parameters for SSDP.
const (
	DefaultPort = 1900
	DefaultTTL  = 2
)

var (
	defaultIPv4Group = net.IPv4(239, 255, 255, 250)
	defaultIPv6Group = net.ParseIP("ff02::c")
)

// Config holds the network parameters shared by all flows.
// It is a value: the With methods return a modified copy and never change
// the receiver.
type Config struct {
	ipv4Group net.IP
	ipv6Group net.IP
	port      int
	ttl       int
	mode      IPVersionMode
	loopback  bool
}

// DefaultConfig returns the standard UPnP parameters: group
// 239.255.255.250 and FF02::C, port 1900, TTL 2, both address families.
func DefaultConfig() Config {
	return Config{
		ipv4Group: defaultIPv4Group,
		ipv6Group: defaultIPv6Group,
		port:      DefaultPort,
		ttl:       DefaultTTL,
		mode:      IPVersionAny,
	}
}

// IPv4Group returns the IPv4 multicast group.
func (c Config) IPv4Group() net.IP { return cloneIP(c.ipv4Group) }

// IPv6Group returns the IPv6 multicast group.
func (c Config) IPv6Group() net.IP { return cloneIP(c.ipv6Group) }

// Port returns the multicast port.
func (c Config) Port() int { return c.port }

// TTL returns the multicast TTL or hop limit. Zero keeps the OS default.
func (c Config) TTL() int { return c.ttl }

// Mode returns the address family selection.
func (c Config) Mode() IPVersionMode { return c.mode }

// Loopback reports whether flows also use loopback addresses.
func (c Config) Loopback() bool { return c.loopback }

// WithIPv4Group returns a copy using group as the IPv4 multicast address.
func (c Config) WithIPv4Group(group net.IP) Config {
	c.ipv4Group = cloneIP(group)
	return c
}

// WithIPv6Group returns a copy using group as the IPv6 multicast address.
func (c Config) WithIPv6Group(group net.IP) Config {
	c.ipv6Group = cloneIP(group)
	return c
}

// WithPort returns a copy using port for multicast traffic.
func (c Config) WithPort(port int) Config {
	c.port = port
	return c
}

// WithTTL returns a copy using ttl for outbound multicast.
func (c Config) WithTTL(ttl int) Config {
	c.ttl = ttl
	return c
}

// WithMode returns a copy restricted to the given address families.
func (c Config) WithMode(mode IPVersionMode) Config {
	c.mode = mode
	return c
}

// WithLoopback returns a copy that also uses loopback addresses, so that
// peers on the same host can be reached. Off by default.
func (c Config) WithLoopback(enabled bool) Config {
	c.loopback = enabled
	return c
}

// Group returns the multicast destination for the family of ip.
func (c Config) Group(ip net.IP) *net.UDPAddr {
	if ip.To4() != nil {
		return &net.UDPAddr{IP: c.IPv4Group(), Port: c.port}
	}
	return &net.UDPAddr{IP: c.IPv6Group(), Port: c.port}
}

// IsZero reports whether c is the zero Config, as opposed to one built from
// DefaultConfig.
func (c Config) IsZero() bool {
	return c.ipv4Group == nil && c.ipv6Group == nil && c.port == 0 && c.ttl == 0 && c.mode == IPVersionAny && !c.loopback
}

// Normalize returns c with unset groups and port replaced by the defaults.
// TTL and mode are kept as they are, since their zero values are meaningful.
func (c Config) Normalize() Config {
	if c.ipv4Group == nil {
		c.ipv4Group = defaultIPv4Group
	}
	if c.ipv6Group == nil {
		c.ipv6Group = defaultIPv6Group
	}
	if c.port == 0 {
		c.port = DefaultPort
	}
	return c
}

func cloneIP(ip net.IP) net.IP {
	if ip == nil {
		return nil
	}
	out := make(net.IP, len(ip))
	copy(out, ip)
	return out
}
