// Package engine defines the boundary to the TLS engine that terminates
// connections for the gateway. The engine owns the handshake state machine,
// X.509 validation and the cipher implementations; this package only models
// the surface the record and key-delegation layers consume.
package engine

import "errors"

// Retryable transport results. The engine reports these when a record
// operation on the underlying channel could not complete yet; everything
// else returned from Send/Recv is connection-fatal.
var (
	ErrAgain       = errors.New("engine: resource temporarily unavailable")
	ErrInterrupted = errors.New("engine: operation interrupted")
)

// Retryable reports whether err is one of the transient record-channel
// conditions that callers may retry.
func Retryable(err error) bool {
	return errors.Is(err, ErrAgain) || errors.Is(err, ErrInterrupted)
}

type AlertLevel uint8

const (
	AlertWarning AlertLevel = 1
	AlertFatal   AlertLevel = 2
)

// Alert is a TLS alert description.
type Alert uint8

const (
	AlertCloseNotify      Alert = 0
	AlertHandshakeFailure Alert = 40
	AlertBadCertificate   Alert = 42
	AlertAccessDenied     Alert = 49
	AlertInternalError    Alert = 80
)

// Session is one negotiated TLS/DTLS session as exposed by the engine.
//
// Send and Recv move exactly one record's worth of bytes per call and may
// fail with ErrAgain/ErrInterrupted. Close releases the session object and
// must be safe to call regardless of the channel state.
type Session interface {
	Send(p []byte) (int, error)
	Recv(p []byte) (int, error)

	// Cork defers record flushing so subsequent writes coalesce.
	// Uncork blocks until everything corked has been flushed.
	Cork()
	Uncork() error

	// Bye sends a one-directional close notification to the peer.
	Bye() error
	SendAlert(level AlertLevel, desc Alert) error
	Close()

	// SetUserData attaches an opaque back-pointer to the session,
	// conventionally the per-connection worker state.
	SetUserData(v any)
	UserData() any
}

// PrivateKeyer is the private-key capability the engine holds per configured
// key/certificate pair. Implementations never expose raw key material to the
// calling process.
type PrivateKeyer interface {
	// Sign signs raw (already hashed/encoded by the engine) and returns
	// the signature.
	Sign(raw []byte) ([]byte, error)
	// Decrypt decrypts ciphertext (e.g. an RSA-encrypted pre-master
	// secret) and returns the plaintext.
	Decrypt(ciphertext []byte) ([]byte, error)
	// Release frees the capability; called when the engine destroys the
	// key handle it is attached to.
	Release()
}
