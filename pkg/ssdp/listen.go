package ssdp

import (
	"context"
	"net"

	"github.com/backkem/ssdp/pkg/message"
	"github.com/backkem/ssdp/pkg/receiver"
	"github.com/backkem/ssdp/pkg/transport"
	"go.uber.org/multierr"
)

// Listen joins the multicast group on every eligible interface and returns
// an unbounded receiver of NOTIFY messages. It runs until closed, until ctx
// passed to Next ends, or until every socket has failed.
func (c *Client) Listen(ctx context.Context) (*receiver.Receiver[message.NotifyKind], error) {
	conns, err := c.openGroupSockets(ctx)
	if err != nil {
		return nil, err
	}
	return receiver.New[message.NotifyKind](packetConns(conns), c.receiverConfig(0)), nil
}

// ListenSearch is like Listen but yields M-SEARCH requests, for devices that
// answer searches. Each request records its source so it can be passed to
// Reply.
func (c *Client) ListenSearch(ctx context.Context) (*receiver.Receiver[message.SearchKind], error) {
	conns, err := c.openGroupSockets(ctx)
	if err != nil {
		return nil, err
	}
	return receiver.New[message.SearchKind](packetConns(conns), c.receiverConfig(0)), nil
}

// openGroupSockets binds one socket per selected address family to the
// group port, shared with other listeners, and joins the group on every
// eligible interface of that family. A socket whose joins all fail is kept:
// it still receives datagrams sent to the port directly.
func (c *Client) openGroupSockets(ctx context.Context) ([]*transport.Connector, error) {
	addrs, err := c.addresses()
	if err != nil {
		return nil, err
	}

	families := []struct {
		is4      bool
		wildcard net.IP
		group    net.IP
	}{
		{true, net.IPv4zero, c.config.IPv4Group()},
		{false, net.IPv6unspecified, c.config.IPv6Group()},
	}

	var (
		conns []*transport.Connector
		errs  error
	)
	for _, fam := range families {
		ifaces := interfacesOf(addrs, fam.is4)
		if len(ifaces) == 0 {
			continue
		}

		conn, err := transport.NewConnector(ctx, transport.ConnectorConfig{
			LocalAddr:     &net.UDPAddr{IP: fam.wildcard, Port: c.config.Port()},
			ReuseAddr:     true,
			LoggerFactory: c.loggerFactory,
		})
		if err != nil {
			c.metrics.ConnectorErrors(1)
			errs = multierr.Append(errs, err)
			continue
		}

		joined := 0
		for i := range ifaces {
			if err := conn.JoinGroup(&ifaces[i], fam.group); err != nil {
				if c.log != nil {
					c.log.Warnf("%v", err)
				}
				continue
			}
			joined++
		}
		if joined == 0 && c.log != nil {
			c.log.Warnf("listening on %s without group membership", conn.LocalAddr())
		}
		conns = append(conns, conn)
	}

	if len(conns) == 0 {
		if errs == nil {
			errs = transport.ErrNoAddresses
		}
		return nil, errs
	}
	if errs != nil && c.log != nil {
		c.log.Warnf("listen partially failed: %v", errs)
	}
	return conns, nil
}

// interfacesOf returns the distinct interfaces carrying addresses of one
// family.
func interfacesOf(addrs []transport.LocalAddress, is4 bool) []net.Interface {
	seen := make(map[string]bool)
	var out []net.Interface
	for _, a := range addrs {
		if (a.IP.To4() != nil) != is4 {
			continue
		}
		if seen[a.Interface.Name] {
			continue
		}
		seen[a.Interface.Name] = true
		out = append(out, a.Interface)
	}
	return out
}
