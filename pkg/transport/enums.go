package transport

import "net"

// IPVersionMode selects which address families a flow uses.
type IPVersionMode int

const (
	// IPVersionAny uses both IPv4 and IPv6. It is the zero value.
	IPVersionAny IPVersionMode = iota
	// IPv4Only restricts a flow to IPv4 addresses.
	IPv4Only
	// IPv6Only restricts a flow to IPv6 addresses.
	IPv6Only
)

// String returns the string representation of the mode.
func (m IPVersionMode) String() string {
	switch m {
	case IPVersionAny:
		return "Any"
	case IPv4Only:
		return "IPv4Only"
	case IPv6Only:
		return "IPv6Only"
	default:
		return "Unknown"
	}
}

// IsValid returns true if the mode is a known valid mode.
func (m IPVersionMode) IsValid() bool {
	return m >= IPVersionAny && m <= IPv6Only
}

// Allows reports whether ip belongs to a family the mode selects.
func (m IPVersionMode) Allows(ip net.IP) bool {
	is4 := ip.To4() != nil
	switch m {
	case IPv4Only:
		return is4
	case IPv6Only:
		return !is4
	default:
		return true
	}
}

// IPv6Scope is the addressing scope of an IPv6 address.
type IPv6Scope int

const (
	// IPv6ScopeUnknown is the zero value, used for anything that is not an
	// IPv6 address.
	IPv6ScopeUnknown IPv6Scope = iota
	// IPv6ScopeLoopback is ::1.
	IPv6ScopeLoopback
	// IPv6ScopeUnspecified is ::.
	IPv6ScopeUnspecified
	// IPv6ScopeMulticast is FF00::/8.
	IPv6ScopeMulticast
	// IPv6ScopeLinkLocal is FE80::/10.
	IPv6ScopeLinkLocal
	// IPv6ScopeSiteLocal is the deprecated FEC0::/10.
	IPv6ScopeSiteLocal
	// IPv6ScopeUniqueLocal is FC00::/7.
	IPv6ScopeUniqueLocal
	// IPv6ScopeDocumentation is 2001:DB8::/32.
	IPv6ScopeDocumentation
	// IPv6ScopeGlobal is every other unicast address.
	IPv6ScopeGlobal
)

// String returns the string representation of the scope.
func (s IPv6Scope) String() string {
	switch s {
	case IPv6ScopeLoopback:
		return "Loopback"
	case IPv6ScopeUnspecified:
		return "Unspecified"
	case IPv6ScopeMulticast:
		return "Multicast"
	case IPv6ScopeLinkLocal:
		return "LinkLocal"
	case IPv6ScopeSiteLocal:
		return "SiteLocal"
	case IPv6ScopeUniqueLocal:
		return "UniqueLocal"
	case IPv6ScopeDocumentation:
		return "Documentation"
	case IPv6ScopeGlobal:
		return "Global"
	default:
		return "Unknown"
	}
}

// Eligible reports whether an address of this scope may be used for SSDP.
// Only site-local and unique-local addresses qualify. Link-local, global
// and documentation addresses are never used as source addresses for flows.
func (s IPv6Scope) Eligible() bool {
	return s == IPv6ScopeSiteLocal || s == IPv6ScopeUniqueLocal
}
