//go:build windows

package transport

import "golang.org/x/sys/windows"

// setSocketOptions lets several processes bind the SSDP group port.
// Windows has no SO_REUSEPORT; SO_REUSEADDR covers both.
func setSocketOptions(fd uintptr) error {
	return windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, 1)
}
