package ssdp

import (
	"context"
	"net"

	"github.com/backkem/ssdp/pkg/header"
	"github.com/backkem/ssdp/pkg/message"
	"github.com/backkem/ssdp/pkg/receiver"
	"github.com/backkem/ssdp/pkg/transport"
	"go.uber.org/multierr"
)

// NewSearch returns an M-SEARCH request for st with the given MX.
// HOST is filled in per destination when the request is sent.
func NewSearch(st header.ST, mx header.MX) *message.SearchRequest {
	return message.NewSearchRequest().
		MustSet(header.Man{}).
		MustSet(mx).
		MustSet(st)
}

// Unicast sends req from localAddr to dstAddr and returns a receiver for
// the responses. Addresses are "host:port" strings; a zero local port picks
// an ephemeral one. The receiver stops after the request's MX, or
// DefaultSearchTimeout when MX is absent or zero.
func (c *Client) Unicast(ctx context.Context, req *message.SearchRequest, localAddr, dstAddr string) (*receiver.Receiver[message.ResponseKind], error) {
	laddr, err := net.ResolveUDPAddr("udp", localAddr)
	if err != nil {
		return nil, &transport.NetworkError{Operation: "resolve", Details: localAddr, Err: err}
	}
	daddr, err := net.ResolveUDPAddr("udp", dstAddr)
	if err != nil {
		return nil, &transport.NetworkError{Operation: "resolve", Details: dstAddr, Err: err}
	}

	conn, err := transport.NewConnector(ctx, transport.ConnectorConfig{
		LocalAddr:     laddr,
		TTL:           c.config.TTL(),
		LoggerFactory: c.loggerFactory,
	})
	if err != nil {
		c.metrics.ConnectorErrors(1)
		return nil, err
	}

	data := withHost(req.Message(), daddr).Marshal()
	if err := conn.Send(data, daddr); err != nil {
		c.metrics.SendError(message.MessageTypeSearch.String())
		_ = conn.Close()
		return nil, err
	}
	c.metrics.Sent(message.MessageTypeSearch.String())

	if c.log != nil {
		c.log.Debugf("unicast search from %s to %s", conn.LocalAddr(), daddr)
	}

	return receiver.New[message.ResponseKind](
		[]net.PacketConn{conn.Conn()},
		c.receiverConfig(searchTimeout(req)),
	), nil
}

// Multicast sends req to the multicast group from every eligible local
// address and returns one receiver over all of those sockets, deadlined like
// Unicast. Interfaces that fail are logged and skipped; Multicast only fails
// when no socket could be opened or the request was sent nowhere.
func (c *Client) Multicast(ctx context.Context, req *message.SearchRequest) (*receiver.Receiver[message.ResponseKind], error) {
	addrs, err := c.addresses()
	if err != nil {
		return nil, err
	}

	conns, err := c.openConnectors(ctx, addrs)
	if err != nil {
		return nil, err
	}

	var (
		sent    []*transport.Connector
		sendErr error
	)
	for _, conn := range conns {
		group := c.config.Group(connIP(conn))
		data := withHost(req.Message(), group).Marshal()
		if err := conn.Send(data, group); err != nil {
			c.metrics.SendError(message.MessageTypeSearch.String())
			sendErr = multierr.Append(sendErr, err)
			_ = conn.Close()
			continue
		}
		c.metrics.Sent(message.MessageTypeSearch.String())
		sent = append(sent, conn)
	}

	if len(sent) == 0 {
		return nil, multierr.Append(ErrNothingSent, sendErr)
	}
	if sendErr != nil && c.log != nil {
		c.log.Warnf("search not sent on %d interfaces: %v", len(conns)-len(sent), sendErr)
	}
	if c.log != nil {
		c.log.Debugf("multicast search sent on %d interfaces", len(sent))
	}

	return receiver.New[message.ResponseKind](
		packetConns(sent),
		c.receiverConfig(searchTimeout(req)),
	), nil
}
