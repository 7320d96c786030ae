package transport

import (
	"errors"
	"net"

	"github.com/pion/logging"
	ptransport "github.com/pion/transport/v3"
	"github.com/pion/transport/v3/stdnet"
)

// InterfaceSource lists the local network interfaces with their addresses.
// pion's transport.Net satisfies it, both the OS-backed stdnet.Net and the
// virtual networks used in tests.
type InterfaceSource interface {
	Interfaces() ([]*ptransport.Interface, error)
}

// LocalAddress is an eligible bind address together with the interface
// that carries it.
type LocalAddress struct {
	IP        net.IP
	Interface net.Interface
}

// UDPAddr returns the address with the given port.
func (a LocalAddress) UDPAddr(port int) *net.UDPAddr {
	return &net.UDPAddr{IP: a.IP, Port: port}
}

// String returns the IP address.
func (a LocalAddress) String() string {
	return a.IP.String()
}

// SystemInterfaces returns an InterfaceSource backed by the operating system.
func SystemInterfaces() (InterfaceSource, error) {
	n, err := stdnet.NewNet()
	if err != nil {
		return nil, &NetworkError{Operation: "list interfaces", Err: err}
	}
	return n, nil
}

// LocalAddresses returns the addresses of src that SSDP may bind to under
// mode. Loopback addresses are never returned. IPv6 addresses are kept only
// when ClassifyIPv6 marks their scope eligible.
//
// An interface whose address list cannot be read is skipped, as is an
// address that cannot be classified. A failure to list the interfaces
// themselves is returned as a *NetworkError.
func LocalAddresses(src InterfaceSource, mode IPVersionMode, log logging.LeveledLogger) ([]LocalAddress, error) {
	return collect(src, log, func(ip net.IP) bool {
		return eligible(ip) && mode.Allows(ip)
	})
}

// LoopbackAddresses returns the loopback addresses of src under mode.
// Flows add them when Config.Loopback is set, to reach peers on the same host.
func LoopbackAddresses(src InterfaceSource, mode IPVersionMode, log logging.LeveledLogger) ([]LocalAddress, error) {
	return collect(src, log, func(ip net.IP) bool {
		return ip.IsLoopback() && mode.Allows(ip)
	})
}

func collect(src InterfaceSource, log logging.LeveledLogger, keep func(net.IP) bool) ([]LocalAddress, error) {
	ifaces, err := src.Interfaces()
	if err != nil {
		return nil, &NetworkError{Operation: "list interfaces", Err: err}
	}

	var out []LocalAddress
	for _, ifc := range ifaces {
		addrs, err := ifc.Addrs()
		if err != nil {
			if log != nil && !errors.Is(err, ptransport.ErrNoAddressAssigned) {
				log.Warnf("skipping interface %s: %v", ifc.Name, err)
			}
			continue
		}
		for _, addr := range addrs {
			ip := addrIP(addr)
			if ip == nil {
				if log != nil {
					log.Tracef("skipping unclassifiable address %v on %s", addr, ifc.Name)
				}
				continue
			}
			if keep(ip) {
				out = append(out, LocalAddress{IP: ip, Interface: ifc.Interface})
			}
		}
	}
	return out, nil
}

// eligible applies the address filter shared by all flows.
func eligible(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsUnspecified() || ip.IsMulticast() {
		return false
	}
	if ip.To4() != nil {
		return true
	}
	return ClassifyIPv6(ip).Eligible()
}

var (
	siteLocalNet     = mustCIDR("fec0::/10")
	uniqueLocalNet   = mustCIDR("fc00::/7")
	documentationNet = mustCIDR("2001:db8::/32")
)

// ClassifyIPv6 returns the scope of an IPv6 address.
// IPv4 and IPv4-mapped addresses yield IPv6ScopeUnknown.
func ClassifyIPv6(ip net.IP) IPv6Scope {
	if len(ip) != net.IPv6len || ip.To4() != nil {
		return IPv6ScopeUnknown
	}
	switch {
	case ip.IsLoopback():
		return IPv6ScopeLoopback
	case ip.IsUnspecified():
		return IPv6ScopeUnspecified
	case ip.IsMulticast():
		return IPv6ScopeMulticast
	case ip.IsLinkLocalUnicast():
		return IPv6ScopeLinkLocal
	case siteLocalNet.Contains(ip):
		return IPv6ScopeSiteLocal
	case uniqueLocalNet.Contains(ip):
		return IPv6ScopeUniqueLocal
	case documentationNet.Contains(ip):
		return IPv6ScopeDocumentation
	default:
		return IPv6ScopeGlobal
	}
}

func addrIP(addr net.Addr) net.IP {
	var ip net.IP
	switch a := addr.(type) {
	case *net.IPNet:
		ip = a.IP
	case *net.IPAddr:
		ip = a.IP
	case *net.UDPAddr:
		ip = a.IP
	default:
		return nil
	}
	if v4 := ip.To4(); v4 != nil {
		return v4
	}
	if len(ip) != net.IPv6len {
		return nil
	}
	return ip
}

func mustCIDR(s string) *net.IPNet {
	_, n, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	return n
}
