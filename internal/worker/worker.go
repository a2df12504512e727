// Package worker holds the per-connection state shared by the record and
// verification layers. Every connection runs on its own goroutine and all
// TLS-layer components of one connection execute sequentially on it.
package worker

import (
	"github.com/google/uuid"

	"vgw/internal/config"
	"vgw/internal/engine"
)

// Worker is the per-connection context. The engine session carries a
// non-owning back-pointer to it; the worker outlives neither the connection
// goroutine nor the session objects it references.
type Worker struct {
	ID string

	// Session is the primary (stream) TLS session; DTLSSession, when set,
	// is the resumption-only datagram sub-channel of the same connection.
	Session     engine.Session
	DTLSSession engine.Session

	// CertAuthOK records the Verification Policy Gate's verdict. Callers
	// must check it before trusting peer identity: with client-compat
	// enabled a handshake can complete unauthenticated.
	CertAuthOK bool

	// PeerCerts is the number of certificates the peer presented,
	// relevant for resumed sessions that skip verification.
	PeerCerts int

	Config *config.Config
}

func New(cfg *config.Config) *Worker {
	return &Worker{
		ID:     uuid.NewString(),
		Config: cfg,
	}
}

// Bind attaches w to s as its opaque user data so callbacks invoked with
// only a session can find their connection state.
func (w *Worker) Bind(s engine.Session) {
	w.Session = s
	s.SetUserData(w)
}

// BindDTLS attaches w to its datagram sub-session.
func (w *Worker) BindDTLS(s engine.Session) {
	w.DTLSSession = s
	s.SetUserData(w)
}

// FromSession recovers the worker attached to s.
func FromSession(s engine.Session) (*Worker, bool) {
	w, ok := s.UserData().(*Worker)
	return w, ok
}
