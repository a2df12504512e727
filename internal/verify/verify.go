// Package verify implements the post-handshake accept/reject policy around
// the engine's certificate chain validation verdict.
package verify

import (
	"errors"
	"strings"

	"vgw/internal/engine"
	"vgw/internal/logger"
	"vgw/internal/worker"
)

// ErrCertificate fails the handshake with a certificate-error
// classification.
var ErrCertificate = errors.New("verify: certificate verification failed")

// Status is the validity bitmask the engine's chain validation reports.
// Zero means fully valid.
type Status uint32

const (
	StatusInvalid Status = 1 << iota
	StatusRevoked
	StatusSignerNotFound
	StatusSignerNotCA
	StatusInsecureAlgorithm
	StatusNotActivated
	StatusExpired
	StatusSignatureFailure
)

var statusReasons = []struct {
	bit    Status
	reason string
}{
	{StatusRevoked, "certificate has been revoked"},
	{StatusSignerNotFound, "issuer is not known"},
	{StatusSignerNotCA, "issuer is not a CA"},
	{StatusInsecureAlgorithm, "certificate uses an insecure algorithm"},
	{StatusNotActivated, "certificate is not yet activated"},
	{StatusExpired, "certificate has expired"},
	{StatusSignatureFailure, "signature verification failed"},
}

// String decodes the failure bits into a readable reason list.
func (s Status) String() string {
	if s == 0 {
		return "verified"
	}

	var reasons []string
	for _, r := range statusReasons {
		if s&r.bit != 0 {
			reasons = append(reasons, r.reason)
		}
	}
	if len(reasons) == 0 {
		return "certificate is not trusted"
	}
	return strings.Join(reasons, "; ")
}

// Callback is the handshake-verify hook registered with the engine. It runs
// once per primary handshake, after chain validation. The DTLS sub-session
// of an already negotiated connection skips the gate entirely: it resumes
// the primary session and is unauthenticated by construction.
func Callback(audit *logger.AuditLogger) func(s engine.Session, status Status) error {
	return func(s engine.Session, status Status) error {
		w, ok := worker.FromSession(s)
		if !ok {
			return ErrCertificate
		}

		if s == w.DTLSSession {
			return nil
		}

		return Gate(w, status, audit)
	}
}

// Gate applies the accept/reject policy. A fully valid status marks the
// session authenticated. An invalid status fails the handshake unless
// client-compat is enabled, in which case the handshake proceeds with the
// session marked unauthenticated and the decoded reason logged.
func Gate(w *worker.Worker, status Status, audit *logger.AuditLogger) error {
	w.CertAuthOK = false

	if status == 0 {
		w.CertAuthOK = true
		if audit != nil {
			audit.LogVerifySuccess(w.ID)
		}
		return nil
	}

	if audit != nil {
		audit.LogVerifyFailure(w.ID, status.String(), w.Config.ClientCompat)
	}

	if !w.Config.ClientCompat {
		return ErrCertificate
	}
	return nil
}

// HasSessionCert reports whether the connection used a client certificate.
// Typically consulted on a resumed session, where the verify callback did
// not run again: with client-compat enabled the mere presence of peer
// certificates counts, since such sessions may legitimately be
// unauthenticated.
func HasSessionCert(w *worker.Worker) bool {
	if w.CertAuthOK {
		return true
	}
	if !w.Config.ClientCompat {
		return false
	}
	return w.PeerCerts > 0
}
