//go:build linux

package nettransport

import (
	"net"

	"golang.org/x/sys/unix"
)

// setIPTTL sets the IP_TTL socket option via the connection's raw fd.
func setIPTTL(tc *net.TCPConn, ttl int) error {
	raw, err := tc.SyscallConn()
	if err != nil {
		return err
	}
	var setErr error
	err = raw.Control(func(fd uintptr) {
		setErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_TTL, ttl)
	})
	if err != nil {
		return err
	}
	return setErr
}
