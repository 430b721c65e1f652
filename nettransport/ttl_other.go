//go:build !linux

package nettransport

import "net"

// setIPTTL is a no-op on platforms without a wired raw-socket path; the
// Config.TTL option is advisory outside Linux deployments.
func setIPTTL(tc *net.TCPConn, ttl int) error {
	return nil
}
