//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package transport

import (
	"context"
	"net"
	"syscall"
	"testing"

	"golang.org/x/sys/unix"
)

func TestSetSocketOptions_Unix(t *testing.T) {
	fd, err := syscall.Socket(syscall.AF_INET, syscall.SOCK_DGRAM, syscall.IPPROTO_UDP)
	if err != nil {
		t.Fatalf("Failed to create socket: %v", err)
	}
	defer func() { _ = syscall.Close(fd) }()

	if err := setSocketOptions(uintptr(fd)); err != nil {
		t.Fatalf("setSocketOptions() failed: %v", err)
	}

	for name, opt := range map[string]int{"SO_REUSEADDR": unix.SO_REUSEADDR, "SO_REUSEPORT": unix.SO_REUSEPORT} {
		v, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, opt)
		if err != nil {
			t.Fatalf("GetsockoptInt(%s) error = %v", name, err)
		}
		if v == 0 {
			t.Errorf("%s not set", name)
		}
	}
}

func TestReuseAddrSharedPort(t *testing.T) {
	ctx := context.Background()
	first, err := NewConnector(ctx, ConnectorConfig{LocalAddr: loopback, ReuseAddr: true})
	if err != nil {
		t.Fatalf("NewConnector() error = %v", err)
	}
	defer first.Close()

	port := first.LocalAddr().(*net.UDPAddr).Port
	second, err := NewConnector(ctx, ConnectorConfig{
		LocalAddr: &net.UDPAddr{IP: loopback.IP, Port: port},
		ReuseAddr: true,
	})
	if err != nil {
		t.Fatalf("second bind on port %d failed: %v", port, err)
	}
	second.Close()
}
