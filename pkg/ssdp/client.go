package ssdp

import (
	"context"
	"net"
	"time"

	"github.com/backkem/ssdp/pkg/header"
	"github.com/backkem/ssdp/pkg/message"
	"github.com/backkem/ssdp/pkg/metrics"
	"github.com/backkem/ssdp/pkg/receiver"
	"github.com/backkem/ssdp/pkg/transport"
	"github.com/benbjohnson/clock"
	"github.com/pion/logging"
	"go.uber.org/multierr"
)

// DefaultSearchTimeout is how long a search collects responses when the
// request carries no MX, or MX 0.
const DefaultSearchTimeout = 2 * time.Second

// ClientConfig configures a Client.
type ClientConfig struct {
	// Transport holds the multicast group, port, TTL and address families.
	// The zero value selects transport.DefaultConfig.
	Transport transport.Config

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory

	// Interfaces lists the local interfaces.
	// If nil, the operating system is queried.
	Interfaces transport.InterfaceSource

	// Clock drives receiver deadlines. If nil, the real clock is used.
	Clock clock.Clock

	// Registry is used for typed header access on received messages.
	// If nil, header.Default is used.
	Registry *header.Registry

	// Metrics records traffic counters. May be nil.
	Metrics *metrics.Metrics

	// Filter, if set, is called once per receiver and the returned filter
	// is applied to every message that receiver accepts. DedupeByUSN
	// returns a suitable filter.
	Filter func() receiver.Filter
}

// Client runs the SSDP flows. It holds no per-flow state, so flows may run
// concurrently from several goroutines.
type Client struct {
	config   transport.Config
	ifaces   transport.InterfaceSource
	clock    clock.Clock
	registry *header.Registry
	metrics  *metrics.Metrics
	filter   func() receiver.Filter

	loggerFactory logging.LoggerFactory
	log           logging.LeveledLogger
}

// NewClient creates a Client.
func NewClient(config ClientConfig) (*Client, error) {
	tc := config.Transport
	if tc.IsZero() {
		tc = transport.DefaultConfig()
	} else {
		tc = tc.Normalize()
	}

	ifaces := config.Interfaces
	if ifaces == nil {
		src, err := transport.SystemInterfaces()
		if err != nil {
			return nil, err
		}
		ifaces = src
	}

	c := &Client{
		config:        tc,
		ifaces:        ifaces,
		clock:         config.Clock,
		registry:      config.Registry,
		metrics:       config.Metrics,
		filter:        config.Filter,
		loggerFactory: config.LoggerFactory,
	}
	if config.LoggerFactory != nil {
		c.log = config.LoggerFactory.NewLogger("ssdp")
	}
	return c, nil
}

// Config returns the transport configuration in use.
func (c *Client) Config() transport.Config {
	return c.config
}

// addresses returns the local addresses the flows fan out over.
func (c *Client) addresses() ([]transport.LocalAddress, error) {
	addrs, err := transport.LocalAddresses(c.ifaces, c.config.Mode(), c.log)
	if err != nil {
		return nil, err
	}
	if c.config.Loopback() {
		lo, err := transport.LoopbackAddresses(c.ifaces, c.config.Mode(), c.log)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, lo...)
	}
	if len(addrs) == 0 {
		return nil, transport.ErrNoAddresses
	}
	if c.log != nil {
		c.log.Debugf("using %d local addresses", len(addrs))
	}
	return addrs, nil
}

// openConnectors opens one connector per eligible address. Individual
// failures are logged and counted; only a complete failure is returned.
func (c *Client) openConnectors(ctx context.Context, addrs []transport.LocalAddress) ([]*transport.Connector, error) {
	conns, err := transport.OpenConnectors(ctx, addrs, transport.ConnectorConfig{
		TTL:           c.config.TTL(),
		LoggerFactory: c.loggerFactory,
	})
	if err != nil {
		c.metrics.ConnectorErrors(len(multierr.Errors(err)))
		if len(conns) == 0 {
			return nil, err
		}
		if c.log != nil {
			c.log.Warnf("%d of %d interfaces unavailable: %v", len(addrs)-len(conns), len(addrs), err)
		}
	}
	return conns, nil
}

func (c *Client) receiverConfig(timeout time.Duration) receiver.Config {
	cfg := receiver.Config{
		Timeout:       timeout,
		Clock:         c.clock,
		LoggerFactory: c.loggerFactory,
		Registry:      c.registry,
		Metrics:       c.metrics,
	}
	if c.filter != nil {
		cfg.Filter = c.filter()
	}
	return cfg
}

// searchTimeout derives the response window from the request's MX.
func searchTimeout(req *message.SearchRequest) time.Duration {
	if mx, ok := message.Get[header.MX](req); ok && mx > 0 {
		return mx.Duration()
	}
	return DefaultSearchTimeout
}

// withHost returns m unchanged if it has a HOST header, or a copy carrying
// the HOST for dst.
func withHost(m *message.Message, dst *net.UDPAddr) *message.Message {
	if m.Headers().Has("HOST") {
		return m
	}
	out := m.Clone()
	// A host:port from a UDP address is always a valid header value.
	_ = out.SetRaw("HOST", []byte(header.HostFor(dst)))
	return out
}

func packetConns(conns []*transport.Connector) []net.PacketConn {
	out := make([]net.PacketConn, len(conns))
	for i, c := range conns {
		out[i] = c.Conn()
	}
	return out
}

func connIP(c *transport.Connector) net.IP {
	if a, ok := c.LocalAddr().(*net.UDPAddr); ok {
		return a.IP
	}
	return nil
}
