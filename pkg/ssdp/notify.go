package ssdp

import (
	"context"
	"time"

	"github.com/backkem/ssdp/pkg/header"
	"github.com/backkem/ssdp/pkg/message"
	"github.com/backkem/ssdp/pkg/transport"
	"go.uber.org/multierr"
)

// Device describes one advertised device or service. It fills in the
// headers shared by NOTIFY messages and search responses.
type Device struct {
	// USN identifies the device and the advertised target.
	USN header.USN

	// Target is the NT of a NOTIFY and the ST of a search response.
	Target string

	// Location is the URL of the device description.
	Location header.Location

	// Server is the product string, e.g. "Linux/6.1 UPnP/1.1 demo/1.0".
	Server header.Server

	// MaxAge is the advertisement lifetime. Zero uses 1800 seconds.
	MaxAge time.Duration

	// BootID is carried in BOOTID.UPNP.ORG when non-zero.
	BootID header.BootID
}

// DefaultMaxAge is the advertisement lifetime used when Device.MaxAge is zero.
const DefaultMaxAge = 1800 * time.Second

func (d Device) maxAge() time.Duration {
	if d.MaxAge <= 0 {
		return DefaultMaxAge
	}
	return d.MaxAge
}

// Alive returns an ssdp:alive NOTIFY for d.
func (d Device) Alive() *message.NotifyMessage {
	n := message.NewNotify().
		MustSet(header.CacheControl{MaxAge: d.maxAge()})
	if d.Location != "" {
		n.MustSet(d.Location)
	}
	n.MustSet(header.NT(d.Target)).
		MustSet(header.NTSAlive)
	if d.Server != "" {
		n.MustSet(d.Server)
	}
	n.MustSet(d.USN)
	if d.BootID != 0 {
		n.MustSet(d.BootID)
	}
	return n
}

// ByeBye returns an ssdp:byebye NOTIFY for d.
func (d Device) ByeBye() *message.NotifyMessage {
	n := message.NewNotify().
		MustSet(header.NT(d.Target)).
		MustSet(header.NTSByeBye).
		MustSet(d.USN)
	if d.BootID != 0 {
		n.MustSet(d.BootID)
	}
	return n
}

// Response returns the search response d sends for a matching M-SEARCH.
func (d Device) Response() *message.SearchResponse {
	r := message.NewSearchResponse().
		MustSet(header.CacheControl{MaxAge: d.maxAge()}).
		MustSet(header.Ext{})
	if d.Location != "" {
		r.MustSet(d.Location)
	}
	if d.Server != "" {
		r.MustSet(d.Server)
	}
	r.MustSet(header.ST(d.Target)).
		MustSet(d.USN)
	if d.BootID != 0 {
		r.MustSet(d.BootID)
	}
	return r
}

// Matches reports whether a search for st should be answered by d.
func (d Device) Matches(st header.ST) bool {
	return st == header.STAll || string(st) == d.Target
}

// Notify multicasts msg from every eligible local address. Sending twice
// emits two independent datagrams. The returned error combines the
// per-interface failures and is nil only if every interface succeeded.
func (c *Client) Notify(ctx context.Context, msg *message.NotifyMessage) error {
	addrs, err := c.addresses()
	if err != nil {
		return err
	}

	conns, err := transport.OpenConnectors(ctx, addrs, transport.ConnectorConfig{
		TTL:           c.config.TTL(),
		LoggerFactory: c.loggerFactory,
	})
	c.metrics.ConnectorErrors(len(multierr.Errors(err)))
	defer transport.CloseAll(conns)

	kind := message.MessageTypeNotify.String()
	for _, conn := range conns {
		group := c.config.Group(connIP(conn))
		data := withHost(msg.Message(), group).Marshal()
		if serr := conn.Send(data, group); serr != nil {
			c.metrics.SendError(kind)
			err = multierr.Append(err, serr)
			continue
		}
		c.metrics.Sent(kind)
	}

	if c.log != nil {
		if err != nil {
			c.log.Warnf("notify incomplete: %v", err)
		} else {
			c.log.Debugf("notify sent on %d interfaces", len(conns))
		}
	}
	return err
}
