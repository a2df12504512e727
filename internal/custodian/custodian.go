// Package custodian implements the key custodian: the separate,
// more-privileged process that holds raw private keys and answers
// sign/decrypt requests from the gateway over a local unix socket.
package custodian

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/binary"
	"encoding/pem"
	"fmt"
	"io"
	"log"
	"net"
	"os"

	"golang.org/x/net/netutil"

	"vgw/internal/constants"
)

// Custodian serves the delegation protocol for a fixed, ordered list of
// private keys. The request's key index is the position of the key in the
// configured list.
type Custodian struct {
	keys []crypto.PrivateKey
}

// LoadKeys reads one PEM private key per path. Any unreadable or unparsable
// key is a configuration failure; the caller exits rather than starting
// degraded.
func LoadKeys(paths []string) (*Custodian, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no key files were specified")
	}

	c := &Custodian{}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error loading key file '%s': %w", path, err)
		}

		key, err := parseKeyPEM(data)
		if err != nil {
			return nil, fmt.Errorf("error parsing key file '%s': %w", path, err)
		}
		c.keys = append(c.keys, key)
	}

	return c, nil
}

func parseKeyPEM(data []byte) (crypto.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	if key, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	return nil, fmt.Errorf("unsupported private key format")
}

// Listen binds the custodian socket, restricting it to the owning user and
// capping concurrent delegation connections.
func Listen(path string, maxConns int) (net.Listener, error) {
	// A stale socket from a previous run would fail the bind.
	os.Remove(path)

	restore := maskSocketMode()
	l, err := net.Listen("unix", path)
	restore()
	if err != nil {
		return nil, fmt.Errorf("error binding custodian socket '%s': %w", path, err)
	}

	if err := os.Chmod(path, 0600); err != nil {
		l.Close()
		return nil, fmt.Errorf("error restricting custodian socket '%s': %w", path, err)
	}

	return netutil.LimitListener(l, maxConns), nil
}

// Serve accepts delegation connections until the listener is closed.
func (c *Custodian) Serve(l net.Listener) error {
	for {
		conn, err := l.Accept()
		if err != nil {
			return err
		}
		go c.handle(conn)
	}
}

// handle answers one request on one connection. A malformed request, an
// unknown key index or a failed key operation closes the connection without
// a reply; the client collapses that to its generic failure result.
func (c *Custodian) handle(conn net.Conn) {
	defer conn.Close()

	if !peerAllowed(conn) {
		log.Printf("rejecting custodian connection from foreign uid")
		return
	}

	var header [2]byte
	if _, err := io.ReadFull(conn, header[:]); err != nil {
		log.Printf("error reading request header: %v", err)
		return
	}

	idx, op := int(header[0]), header[1]
	if idx >= len(c.keys) {
		log.Printf("request for unknown key index %d", idx)
		return
	}

	operand, err := io.ReadAll(conn)
	if err != nil {
		log.Printf("error reading request operand: %v", err)
		return
	}

	var result []byte
	switch op {
	case 'S':
		result, err = sign(c.keys[idx], operand)
	case 'D':
		result, err = decrypt(c.keys[idx], operand)
	default:
		log.Printf("unknown operation tag %q", op)
		return
	}
	if err != nil {
		log.Printf("key %d operation %q failed: %v", idx, op, err)
		return
	}
	if len(result) > constants.MaxResponseSize {
		log.Printf("key %d operation %q result too large", idx, op)
		return
	}

	reply := make([]byte, 2, 2+len(result))
	binary.BigEndian.PutUint16(reply, uint16(len(result)))
	reply = append(reply, result...)

	_, err = conn.Write(reply)

	// Decrypted material (e.g. a pre-master secret) must not linger here
	// once it is on the wire.
	for i := range result {
		result[i] = 0
	}
	for i := 2; i < len(reply); i++ {
		reply[i] = 0
	}

	if err != nil {
		log.Printf("error writing reply: %v", err)
	}
}

// sign signs data the engine already hashed and encoded. RSA uses raw
// PKCS#1 v1.5 (no hash OID added here), ECDSA signs the digest directly.
func sign(key crypto.PrivateKey, data []byte) ([]byte, error) {
	switch k := key.(type) {
	case *rsa.PrivateKey:
		return rsa.SignPKCS1v15(rand.Reader, k, 0, data)
	case *ecdsa.PrivateKey:
		return ecdsa.SignASN1(rand.Reader, k, data)
	}
	return nil, fmt.Errorf("key type does not support signing")
}

func decrypt(key crypto.PrivateKey, ciphertext []byte) ([]byte, error) {
	k, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("key type does not support decryption")
	}
	return rsa.DecryptPKCS1v15(rand.Reader, k, ciphertext)
}
