// Package creds loads the gateway's certificate chains and wires each one to
// a delegated private key handled by the custodian process. The gateway
// itself never reads a private key file.
package creds

import (
	"crypto/sha1"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"log"
	"os"
	"strings"

	"vgw/internal/config"
	"vgw/internal/engine"
	"vgw/internal/keyproxy"
)

// KeyPair is one configured certificate chain plus the delegation-backed
// private-key capability for it. The key index on the custodian channel is
// the pair's position in Credentials.Pairs.
type KeyPair struct {
	CertFile string
	CertPEM  []byte
	Key      engine.PrivateKeyer
}

// Credentials is the process-wide credential state: constructed explicitly
// at startup, torn down and rebuilt on reload.
type Credentials struct {
	Pairs []KeyPair

	CAPEM   []byte
	CRLPEM  []byte
	OCSPDER []byte

	Priorities string
}

// Load reads every configured certificate chain and builds the delegation
// contexts. Missing or unreadable mandatory files are configuration
// failures: the caller exits rather than starting without credentials.
func Load(cfg *config.Config) (*Credentials, error) {
	if len(cfg.CertFiles) == 0 {
		return nil, fmt.Errorf("no certificate or key files were specified")
	}

	c := &Credentials{Priorities: cfg.Priorities}

	for i, certFile := range cfg.CertFiles {
		data, err := os.ReadFile(certFile)
		if err != nil {
			return nil, fmt.Errorf("error loading file '%s': %w", certFile, err)
		}

		c.Pairs = append(c.Pairs, KeyPair{
			CertFile: certFile,
			CertPEM:  data,
			Key:      keyproxy.NewContext(uint8(i), cfg.CustodianSocket),
		})
	}

	certificateCheck(c)

	if cfg.CAFile != "" {
		data, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("error setting the CA (%s) file: %w", cfg.CAFile, err)
		}
		c.CAPEM = data
	}

	if cfg.CRLFile != "" {
		data, err := os.ReadFile(cfg.CRLFile)
		if err != nil {
			return nil, fmt.Errorf("error reading the CRL (%s) file: %w", cfg.CRLFile, err)
		}
		if block, _ := pem.Decode(data); block == nil {
			return nil, fmt.Errorf("empty or unreadable CRL file (%s); check documentation to generate an empty CRL", cfg.CRLFile)
		}
		c.CRLPEM = data
	}

	if cfg.OCSPFile != "" {
		data, err := os.ReadFile(cfg.OCSPFile)
		if err != nil {
			return nil, fmt.Errorf("error reading the OCSP response (%s) file: %w", cfg.OCSPFile, err)
		}
		c.OCSPDER = data
	}

	return c, nil
}

// Close releases every key's delegation context. Reload is Close old, Load
// new.
func (c *Credentials) Close() {
	for _, pair := range c.Pairs {
		if pair.Key != nil {
			pair.Key.Release()
		}
	}
	c.Pairs = nil
}

// certificateCheck warns when a single RSA server certificate cannot serve
// the RSA key-exchange ciphersuites. Advisory only.
func certificateCheck(c *Credentials) {
	if len(c.Pairs) != 1 {
		return
	}

	block, _ := pem.Decode(c.Pairs[0].CertPEM)
	if block == nil {
		return
	}
	crt, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return
	}

	if crt.PublicKeyAlgorithm != x509.RSA {
		return
	}

	if crt.KeyUsage != 0 && crt.KeyUsage&x509.KeyUsageKeyEncipherment == 0 {
		log.Printf("server certificate key usage prevents key encipherment; unable to support the RSA ciphersuites; "+
			"if that is not intentional, regenerate the certificate '%s' with the key usage flag 'key encipherment' set.",
			c.Pairs[0].CertFile)
	}
}

// Fingerprint returns the upper-case SHA-1 hex fingerprint of the
// certificate's DER encoding, as used in client configuration pinning.
func Fingerprint(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	der := data
	if block, _ := pem.Decode(data); block != nil {
		der = block.Bytes
	}

	digest := sha1.Sum(der)
	return strings.ToUpper(hex.EncodeToString(digest[:])), nil
}
