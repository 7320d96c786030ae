// Package integration provides test infrastructure for SSDP end-to-end tests
// run over the loopback interface.
package integration

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/backkem/ssdp/examples/advertise"
	"github.com/backkem/ssdp/pkg/header"
	"github.com/backkem/ssdp/pkg/message"
	"github.com/backkem/ssdp/pkg/ssdp"
	"github.com/backkem/ssdp/pkg/transport"
	"github.com/google/uuid"
	"github.com/pion/logging"
	ptransport "github.com/pion/transport/v3"
)

// loopbackSource reports a single loopback interface. Index 0 leaves the
// multicast interface choice to the kernel.
type loopbackSource struct{}

func (loopbackSource) Interfaces() ([]*ptransport.Interface, error) {
	ifc := ptransport.NewInterface(net.Interface{Name: "lo", Flags: net.FlagUp | net.FlagLoopback | net.FlagMulticast})
	ifc.AddAddress(&net.IPNet{IP: net.IPv4(127, 0, 0, 1).To4(), Mask: net.CIDRMask(8, 32)})
	return []*ptransport.Interface{ifc}, nil
}

// LoopbackConfig returns a transport configuration whose "group" is
// 127.0.0.1:port, so flows work on hosts without multicast routing.
func LoopbackConfig(port int) transport.Config {
	return transport.DefaultConfig().
		WithMode(transport.IPv4Only).
		WithLoopback(true).
		WithIPv4Group(net.IPv4(127, 0, 0, 1)).
		WithPort(port)
}

// FreePort returns a UDP port that is currently unused on 127.0.0.1.
func FreePort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket failed: %v", err)
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).Port
}

// NewClient creates a client on the loopback configuration for port.
func NewClient(t *testing.T, port int, lf logging.LoggerFactory) *ssdp.Client {
	t.Helper()
	c, err := ssdp.NewClient(ssdp.ClientConfig{
		Transport:     LoopbackConfig(port),
		Interfaces:    loopbackSource{},
		LoggerFactory: lf,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

// TestDevice returns a device description for tests.
func TestDevice(target string) ssdp.Device {
	return ssdp.Device{
		USN:      header.USN{UUID: uuid.New(), Target: target},
		Target:   target,
		Location: "http://127.0.0.1:49152/desc.xml",
		Server:   "Linux/6.1 UPnP/1.1 integration/1.0",
	}
}

// TestPair holds a running responder and a client searching for it, both on
// the same SSDP port.
//
// Example usage:
//
//	pair := NewTestPair(t, TestDevice("upnp:rootdevice"))
//	defer pair.Close()
//	responses := pair.Search(ssdp.NewSearch(header.STAll, 1))
type TestPair struct {
	// Device is the advertised device.
	Device ssdp.Device

	// Responder answers searches for Device.
	Responder *advertise.Responder

	// Searcher is the client used to search.
	Searcher *ssdp.Client

	// Port is the shared SSDP port.
	Port int

	t       *testing.T
	stopped bool
}

// NewTestPair starts a responder for dev on a free port. Searches are
// answered immediately.
func NewTestPair(t *testing.T, dev ssdp.Device) *TestPair {
	t.Helper()

	lf := logging.NewDefaultLoggerFactory()
	port := FreePort(t)
	r := advertise.New(NewClient(t, port, lf), advertise.Options{
		Device:        dev,
		Delay:         func(*message.SearchRequest) time.Duration { return 0 },
		LoggerFactory: lf,
	})
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	return &TestPair{
		Device:    dev,
		Responder: r,
		Searcher:  NewClient(t, port, lf),
		Port:      port,
		t:         t,
	}
}

// Search multicasts req and collects every response until MX elapses.
func (p *TestPair) Search(req *message.SearchRequest) []*message.SearchResponse {
	p.t.Helper()
	r, err := p.Searcher.Multicast(context.Background(), req)
	if err != nil {
		p.t.Fatalf("Multicast failed: %v", err)
	}
	defer r.Close()
	return r.Collect(context.Background())
}

// Stop stops the responder, which sends ssdp:byebye.
func (p *TestPair) Stop() error {
	if p.stopped {
		return nil
	}
	p.stopped = true
	return p.Responder.Stop()
}

// Close stops the responder if it is still running.
func (p *TestPair) Close() {
	if err := p.Stop(); err != nil {
		p.t.Logf("Stop: %v", err)
	}
}
