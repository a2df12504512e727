//go:build !linux

package custodian

import "net"

// Umask manipulation is only done on Linux; elsewhere the post-bind chmod
// applies the socket mode.
func maskSocketMode() func() {
	return func() {}
}

// Peer credentials are only checked on Linux; elsewhere the socket mode is
// the sole guard.
func peerAllowed(conn net.Conn) bool {
	_, ok := conn.(*net.UnixConn)
	return ok
}
