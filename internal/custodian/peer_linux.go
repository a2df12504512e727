package custodian

import (
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// maskSocketMode tightens the umask so the custodian socket is created 0600
// from the start, not widened until a later chmod. The returned func
// restores the previous mask.
func maskSocketMode() func() {
	old := unix.Umask(0177)
	return func() { unix.Umask(old) }
}

// peerAllowed accepts only connections from a process running as our own
// uid (or root). The socket mode already restricts access; this guards
// against permission mistakes on the parent directory.
func peerAllowed(conn net.Conn) bool {
	uc, ok := conn.(*net.UnixConn)
	if !ok {
		return false
	}

	raw, err := uc.SyscallConn()
	if err != nil {
		return false
	}

	var cred *unix.Ucred
	var credErr error
	err = raw.Control(func(fd uintptr) {
		cred, credErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	if err != nil || credErr != nil {
		return false
	}

	return cred.Uid == uint32(os.Getuid()) || cred.Uid == 0
}
