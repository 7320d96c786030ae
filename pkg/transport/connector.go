package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"syscall"

	"github.com/backkem/ssdp/pkg/message"
	"github.com/pion/logging"
	"go.uber.org/multierr"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// Connector is one bound UDP socket configured for SSDP traffic on a single
// local address. It owns the socket; no two Connectors share one.
type Connector struct {
	conn  net.PacketConn
	p4    *ipv4.PacketConn
	p6    *ipv6.PacketConn
	iface *net.Interface
	log   logging.LeveledLogger

	mu     sync.RWMutex
	closed bool
}

// ConnectorConfig configures a Connector.
type ConnectorConfig struct {
	// LocalAddr is the address to bind. Port 0 selects an ephemeral port.
	// Required.
	LocalAddr *net.UDPAddr

	// Interface is used for outbound multicast and for group membership.
	// If nil, the OS chooses.
	Interface *net.Interface

	// TTL is the multicast TTL (IPv4) or hop limit (IPv6).
	// Zero keeps the OS default.
	TTL int

	// Group is joined on Interface when set. OpenConnectors only applies it
	// to addresses of the same family.
	Group net.IP

	// ReuseAddr sets SO_REUSEADDR and SO_REUSEPORT before binding, so the
	// group port can be shared with other listeners.
	ReuseAddr bool

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// NewConnector binds and configures a socket.
func NewConnector(ctx context.Context, config ConnectorConfig) (*Connector, error) {
	if config.LocalAddr == nil {
		return nil, ErrInvalidAddress
	}

	c := &Connector{iface: config.Interface}
	if config.LoggerFactory != nil {
		c.log = config.LoggerFactory.NewLogger("ssdp-transport")
	}

	is4 := config.LocalAddr.IP == nil || config.LocalAddr.IP.To4() != nil
	network := "udp6"
	if is4 {
		network = "udp4"
	}

	laddr := *config.LocalAddr
	if laddr.Zone == "" && config.Interface != nil && laddr.IP.IsLinkLocalUnicast() && !is4 {
		laddr.Zone = config.Interface.Name
	}

	lc := net.ListenConfig{}
	if config.ReuseAddr {
		lc.Control = func(network, address string, rc syscall.RawConn) error {
			var serr error
			if err := rc.Control(func(fd uintptr) {
				serr = setSocketOptions(fd)
			}); err != nil {
				return err
			}
			return serr
		}
	}

	conn, err := lc.ListenPacket(ctx, network, laddr.String())
	if err != nil {
		return nil, &NetworkError{
			Operation: "bind",
			Details:   laddr.String(),
			Err:       err,
		}
	}
	c.conn = conn

	if err := c.configure(is4, config.TTL); err != nil {
		_ = conn.Close()
		return nil, err
	}

	if config.Group != nil {
		if err := c.JoinGroup(config.Interface, config.Group); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	if c.log != nil {
		c.log.Debugf("connector bound to %s", conn.LocalAddr())
	}

	return c, nil
}

func (c *Connector) configure(is4 bool, ttl int) error {
	if is4 {
		c.p4 = ipv4.NewPacketConn(c.conn)
		if ttl > 0 {
			if err := c.p4.SetMulticastTTL(ttl); err != nil {
				return &NetworkError{Operation: "set multicast ttl", Details: fmt.Sprint(ttl), Err: err}
			}
		}
		if c.iface != nil {
			if err := c.p4.SetMulticastInterface(c.iface); err != nil {
				return &NetworkError{Operation: "set multicast interface", Details: c.iface.Name, Err: err}
			}
		}
		return nil
	}

	c.p6 = ipv6.NewPacketConn(c.conn)
	if ttl > 0 {
		if err := c.p6.SetMulticastHopLimit(ttl); err != nil {
			return &NetworkError{Operation: "set multicast hop limit", Details: fmt.Sprint(ttl), Err: err}
		}
	}
	if c.iface != nil {
		if err := c.p6.SetMulticastInterface(c.iface); err != nil {
			return &NetworkError{Operation: "set multicast interface", Details: c.iface.Name, Err: err}
		}
	}
	return nil
}

// JoinGroup joins the multicast group on ifi. A nil ifi lets the OS choose.
func (c *Connector) JoinGroup(ifi *net.Interface, group net.IP) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}

	var err error
	gaddr := &net.UDPAddr{IP: group}
	switch {
	case c.p4 != nil && group.To4() != nil:
		err = c.p4.JoinGroup(ifi, gaddr)
	case c.p6 != nil && group.To4() == nil:
		err = c.p6.JoinGroup(ifi, gaddr)
	default:
		return &NetworkError{
			Operation: "join group",
			Details:   group.String(),
			Err:       ErrInvalidAddress,
		}
	}
	if err != nil {
		name := "default"
		if ifi != nil {
			name = ifi.Name
		}
		return &NetworkError{
			Operation: "join group",
			Details:   fmt.Sprintf("%s on %s", group, name),
			Err:       err,
		}
	}

	if c.log != nil {
		c.log.Debugf("joined %s on %s", group, c.conn.LocalAddr())
	}
	return nil
}

// Send transmits one datagram to dst.
func (c *Connector) Send(data []byte, dst net.Addr) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}

	if dst == nil {
		return ErrInvalidAddress
	}

	if len(data) > message.MaxDatagramSize {
		return ErrMessageTooLarge
	}

	if c.log != nil {
		c.log.Tracef("sending %d bytes to %v", len(data), dst)
	}

	if _, err := c.conn.WriteTo(data, dst); err != nil {
		if c.log != nil {
			c.log.Warnf("send to %v failed: %v", dst, err)
		}
		return &NetworkError{Operation: "send", Details: dst.String(), Err: err}
	}

	return nil
}

// Conn returns the underlying socket. Reading from it is the caller's
// business; Connector itself only writes.
func (c *Connector) Conn() net.PacketConn {
	return c.conn
}

// LocalAddr returns the bound address.
func (c *Connector) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// Interface returns the interface the connector was configured for, or nil.
func (c *Connector) Interface() *net.Interface {
	return c.iface
}

// Close closes the socket.
func (c *Connector) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if c.log != nil {
		c.log.Debugf("closing connector %s", c.conn.LocalAddr())
	}
	return c.conn.Close()
}

// OpenConnectors creates one Connector per address, using template for
// everything except the local IP and interface. The port of
// template.LocalAddr is kept when set.
//
// A failing address does not stop the others: the successful connectors are
// returned together with the combined errors of the failed ones.
func OpenConnectors(ctx context.Context, addrs []LocalAddress, template ConnectorConfig) ([]*Connector, error) {
	if len(addrs) == 0 {
		return nil, ErrNoAddresses
	}

	port := 0
	if template.LocalAddr != nil {
		port = template.LocalAddr.Port
	}

	var (
		conns []*Connector
		errs  error
	)
	for _, a := range addrs {
		cfg := template
		cfg.LocalAddr = a.UDPAddr(port)
		ifc := a.Interface
		cfg.Interface = &ifc
		if cfg.Group != nil && (cfg.Group.To4() != nil) != (a.IP.To4() != nil) {
			cfg.Group = nil
		}

		c, err := NewConnector(ctx, cfg)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		conns = append(conns, c)
	}
	return conns, errs
}

// CloseAll closes every connector and combines the errors.
func CloseAll(conns []*Connector) error {
	var errs error
	for _, c := range conns {
		errs = multierr.Append(errs, c.Close())
	}
	return errs
}
