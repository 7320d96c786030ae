package ssdp

import (
	"context"
	"math/rand/v2"
	"net"
	"time"

	"github.com/backkem/ssdp/pkg/header"
	"github.com/backkem/ssdp/pkg/message"
	"github.com/backkem/ssdp/pkg/transport"
)

// Reply sends resp to the address req was received from.
func (c *Client) Reply(ctx context.Context, req *message.SearchRequest, resp *message.SearchResponse) error {
	src := req.Source()
	if src == nil {
		return ErrNoSource
	}
	return c.SendResponse(ctx, resp, src)
}

// SendResponse sends resp to dst from an ephemeral socket of dst's family.
func (c *Client) SendResponse(ctx context.Context, resp *message.SearchResponse, dst net.Addr) error {
	daddr, ok := dst.(*net.UDPAddr)
	if !ok {
		var err error
		daddr, err = net.ResolveUDPAddr("udp", dst.String())
		if err != nil {
			return &transport.NetworkError{Operation: "resolve", Details: dst.String(), Err: err}
		}
	}

	local := &net.UDPAddr{IP: net.IPv4zero}
	if daddr.IP.To4() == nil {
		local = &net.UDPAddr{IP: net.IPv6unspecified}
	}

	conn, err := transport.NewConnector(ctx, transport.ConnectorConfig{
		LocalAddr:     local,
		LoggerFactory: c.loggerFactory,
	})
	if err != nil {
		c.metrics.ConnectorErrors(1)
		return err
	}
	defer conn.Close()

	kind := message.MessageTypeResponse.String()
	if err := conn.Send(resp.Marshal(), daddr); err != nil {
		c.metrics.SendError(kind)
		return err
	}
	c.metrics.Sent(kind)

	if c.log != nil {
		c.log.Debugf("response sent to %s", daddr)
	}
	return nil
}

// ResponseDelay picks how long a device waits before answering req: a
// random duration below the request's MX, so that responders on a segment
// do not all answer at once. It is zero when MX is absent or zero.
func ResponseDelay(req *message.SearchRequest) time.Duration {
	mx, ok := message.Get[header.MX](req)
	if !ok || mx == 0 {
		return 0
	}
	return rand.N(mx.Duration())
}
