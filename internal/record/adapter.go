// Package record implements the retry-safe record I/O helpers that sit
// between the TLS engine and the rest of the gateway, plus the per-record
// overhead accounting used to size DTLS fragments.
package record

import (
	"errors"
	"fmt"
	"io"
	"os"

	"vgw/internal/constants"
	"vgw/internal/engine"
)

// Send writes data in full, retrying transient channel conditions until the
// engine has accepted every byte. Only a non-retryable engine error breaks
// the loop; it is returned unmodified together with the bytes sent so far.
// Must only be used on a connected blocking-mode channel, where a transient
// condition clears quickly.
func Send(s engine.Session, data []byte) (int, error) {
	p := data

	for len(p) > 0 {
		n, err := s.Send(p)
		if err != nil && !engine.Retryable(err) {
			return len(data) - len(p), err
		}
		if n > 0 {
			p = p[n:]
		}
	}

	return len(data), nil
}

// SendBestEffort is Send for loss-tolerant paths: a would-block result is
// reported as if the whole payload had been accepted, so unacknowledged
// bytes may be silently dropped. Callers must not depend on delivery.
func SendBestEffort(s engine.Session, data []byte) (int, error) {
	p := data

	for len(p) > 0 {
		n, err := s.Send(p)
		if err != nil {
			if errors.Is(err, engine.ErrAgain) {
				return len(data), nil
			}
			if !engine.Retryable(err) {
				return len(data) - len(p), err
			}
		}
		if n > 0 {
			p = p[n:]
		}
	}

	return len(data), nil
}

// Recv reads into buf, retrying only transient channel conditions. Any other
// result returns immediately: 0 with nil error means the peer shut down
// cleanly, a positive count is a completed read.
func Recv(s engine.Session, buf []byte) (int, error) {
	for {
		n, err := s.Recv(buf)
		if err != nil && engine.Retryable(err) {
			continue
		}
		return n, err
	}
}

// Printf renders the format into a fixed scratch buffer, truncating rather
// than growing, and forwards the rendered bytes through Send.
func Printf(s engine.Session, format string, args ...any) (int, error) {
	var scratch [constants.PrintfBufSize]byte

	b := fmt.Appendf(scratch[:0], format, args...)
	if len(b) > constants.PrintfBufSize-1 {
		b = b[:constants.PrintfBufSize-1]
	}

	return Send(s, b)
}

// SendFile streams the named file through Send in small chunks and returns
// the total number of bytes sent.
func SendFile(s engine.Session, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("record: open %s: %w", path, err)
	}
	defer f.Close()

	var total int
	buf := make([]byte, constants.FileChunkSize)

	for {
		n, err := f.Read(buf)
		if n > 0 {
			sent, serr := Send(s, buf[:n])
			total += sent
			if serr != nil {
				return total, serr
			}
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// Cork defers record flushing so multiple subsequent writes coalesce into
// fewer records.
func Cork(s engine.Session) {
	s.Cork()
}

// Uncork blocks until all corked data has been flushed.
func Uncork(s engine.Session) error {
	return s.Uncork()
}

// Close sends a one-directional shutdown notification and releases the
// session. The session is released even when the notification fails.
func Close(s engine.Session) {
	s.Bye()
	s.Close()
}

// FatalClose sends an alert of the given severity and releases the session.
// As with Close, release is unconditional.
func FatalClose(s engine.Session, level engine.AlertLevel, desc engine.Alert) {
	s.SendAlert(level, desc)
	s.Close()
}
