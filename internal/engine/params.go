package engine

// Version identifies the negotiated transport protocol version.
type Version uint16

const (
	VersionUnknown Version = 0
	TLS10          Version = 0x0301
	TLS11          Version = 0x0302
	TLS12          Version = 0x0303
	TLS13          Version = 0x0304
	DTLS10         Version = 0xfeff
	DTLS12         Version = 0xfefd
)

// Datagram reports whether v is a datagram (DTLS) transport version, whose
// records carry the larger epoch/sequence header.
func (v Version) Datagram() bool {
	return v == DTLS10 || v == DTLS12
}

func (v Version) String() string {
	switch v {
	case TLS10:
		return "TLS1.0"
	case TLS11:
		return "TLS1.1"
	case TLS12:
		return "TLS1.2"
	case TLS13:
		return "TLS1.3"
	case DTLS10:
		return "DTLS1.0"
	case DTLS12:
		return "DTLS1.2"
	}
	return "unknown"
}

// Cipher identifies the negotiated bulk cipher.
type Cipher uint8

const (
	CipherUnknown Cipher = iota
	CipherNull
	Cipher3DESCBC
	CipherAES128CBC
	CipherAES192CBC
	CipherAES256CBC
	CipherCamellia128CBC
	CipherCamellia256CBC
	CipherAES128GCM
	CipherAES256GCM
	CipherChaCha20Poly1305
)

// MAC identifies the negotiated record MAC. AEAD suites report MACAEAD:
// their integrity tag is part of the cipher, not a separate MAC.
type MAC uint8

const (
	MACUnknown MAC = iota
	MACNull
	MACAEAD
	MACMD5
	MACSHA1
	MACSHA256
	MACSHA384
)
