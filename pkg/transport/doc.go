// Package transport provides the socket layer for SSDP: local address
// selection, per-interface UDP connectors, and an in-memory pipe for tests.
//
// Addresses come from an InterfaceSource, normally the OS-backed stdnet.Net
// from pion/transport:
//
//	src, _ := transport.SystemInterfaces()
//	addrs, _ := transport.LocalAddresses(src, transport.IPv4Only, nil)
//	conns, err := transport.OpenConnectors(ctx, addrs, transport.ConnectorConfig{TTL: 2})
//
// OpenConnectors returns every connector it could open along with the
// combined errors of the ones it could not.
package transport
