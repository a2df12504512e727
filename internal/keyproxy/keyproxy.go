// Package keyproxy delegates private-key operations to the key custodian
// process over its unix socket, so this process never holds raw key
// material.
//
// One operation is one full round trip on a fresh connection:
//
//	request:  [index:1][op:1][operand...]   (operand length implicit)
//	response: [length:2][result:length bytes]
//
// The channel is an internal fixed-format protocol between two processes of
// the same installation; there is no version field.
package keyproxy

import (
	"encoding/binary"
	"errors"
	"io"
	"log"
	"net"
)

const (
	opSign    = 'S'
	opDecrypt = 'D'
)

// ErrDelegation is the single result every delegation failure collapses to.
// The underlying cause is logged at the failure site; the engine only needs
// to know the operation failed.
var ErrDelegation = errors.New("keyproxy: key delegation failed")

// AuditSink receives delegation failures for the audit trail, in addition to
// the operational log line written at the failure site.
type AuditSink interface {
	LogDelegationFailure(keyIndex uint8, op string, err error)
}

var audit AuditSink

// SetAuditSink routes delegation failures to the process audit log. Set once
// during gateway startup.
func SetAuditSink(s AuditSink) { audit = s }

func opName(op byte) string {
	if op == opDecrypt {
		return "decrypt"
	}
	return "sign"
}

// Context identifies one configured key/certificate pair and the custodian
// address answering for it. Its lifetime is coupled 1:1 to the private-key
// handle it is attached to; the engine calls Release when that handle is
// destroyed.
type Context struct {
	Index      uint8
	SocketPath string
}

func NewContext(index uint8, socketPath string) *Context {
	return &Context{Index: index, SocketPath: socketPath}
}

func (c *Context) Sign(raw []byte) ([]byte, error) {
	return c.roundTrip(opSign, raw)
}

func (c *Context) Decrypt(ciphertext []byte) ([]byte, error) {
	return c.roundTrip(opDecrypt, ciphertext)
}

// Release frees the context. Nothing beyond the struct itself is held, but
// the engine's key handle owns this call and its timing.
func (c *Context) Release() {}

// roundTrip performs one synchronous custodian exchange. It blocks the
// calling connection's goroutine for the duration; there is no timeout or
// cancellation here, channel-level deadlines are the place for those. No
// partial result ever escapes: a short body read scrubs and drops whatever
// arrived.
func (c *Context) roundTrip(op byte, operand []byte) ([]byte, error) {
	conn, err := net.Dial("unix", c.SocketPath)
	if err != nil {
		log.Printf("error connecting to custodian socket '%s': %v", c.SocketPath, err)
		return nil, c.fail(op, err)
	}
	defer conn.Close()

	req := make([]byte, 0, 2+len(operand))
	req = append(req, c.Index, op)
	req = append(req, operand...)

	if _, err := conn.Write(req); err != nil {
		log.Printf("error writing to custodian: %v", err)
		return nil, c.fail(op, err)
	}

	// The operand carries no length prefix; half-close marks its end.
	if uc, ok := conn.(*net.UnixConn); ok {
		uc.CloseWrite()
	}

	var lenBuf [2]byte
	if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
		log.Printf("error reading from custodian: %v", err)
		return nil, c.fail(op, err)
	}

	out := make([]byte, binary.BigEndian.Uint16(lenBuf[:]))
	if _, err := io.ReadFull(conn, out); err != nil {
		for i := range out {
			out[i] = 0
		}
		log.Printf("error reading from custodian: %v", err)
		return nil, c.fail(op, err)
	}

	return out, nil
}

// fail records the failure on the audit trail and yields the one generic
// delegation result.
func (c *Context) fail(op byte, err error) error {
	if audit != nil {
		audit.LogDelegationFailure(c.Index, opName(op), err)
	}
	return ErrDelegation
}
