package record

import (
	"golang.org/x/crypto/chacha20poly1305"

	"vgw/internal/engine"
)

// Per-record header sizes. Datagram records additionally carry epoch and
// sequence framing.
const (
	streamHeaderSize   = 5
	datagramHeaderSize = 13
)

// Fail-safe bounds for combinations the table does not know. Overestimating
// wastes a few bytes per fragment; underestimating produces records that
// exceed the transport limit.
const (
	maxCipherOverhead = 32 // CBC worst case: one block padding + one block IV
	maxMACOverhead    = 64 // SHA-512 output
)

type cipherKind int

const (
	kindStream cipherKind = iota
	kindBlock
	kindAEAD
)

type cipherTraits struct {
	kind          cipherKind
	blockSize     int
	explicitNonce int
	tagSize       int
}

var ciphers = map[engine.Cipher]cipherTraits{
	engine.CipherNull:           {kind: kindStream},
	engine.Cipher3DESCBC:        {kind: kindBlock, blockSize: 8},
	engine.CipherAES128CBC:      {kind: kindBlock, blockSize: 16},
	engine.CipherAES192CBC:      {kind: kindBlock, blockSize: 16},
	engine.CipherAES256CBC:      {kind: kindBlock, blockSize: 16},
	engine.CipherCamellia128CBC: {kind: kindBlock, blockSize: 16},
	engine.CipherCamellia256CBC: {kind: kindBlock, blockSize: 16},
	engine.CipherAES128GCM:      {kind: kindAEAD, explicitNonce: 8, tagSize: 16},
	engine.CipherAES256GCM:      {kind: kindAEAD, explicitNonce: 8, tagSize: 16},
	engine.CipherChaCha20Poly1305: {
		kind: kindAEAD, explicitNonce: 0, tagSize: chacha20poly1305.Overhead,
	},
}

var macSizes = map[engine.MAC]int{
	engine.MACNull:   0,
	engine.MACAEAD:   0,
	engine.MACMD5:    16,
	engine.MACSHA1:   20,
	engine.MACSHA256: 32,
	engine.MACSHA384: 48,
}

// Overhead returns the exact number of bytes one application-data record of
// the given version/cipher/MAC combination consumes beyond its plaintext
// payload. Unknown combinations return an upper bound, never an
// underestimate; the result feeds fragment sizing and a low value would
// produce oversized records.
func Overhead(v engine.Version, c engine.Cipher, m engine.MAC) int {
	var overhead int

	switch {
	case v.Datagram():
		overhead = datagramHeaderSize
	case v == engine.VersionUnknown:
		overhead = datagramHeaderSize
	default:
		overhead = streamHeaderSize
	}

	ct, ok := ciphers[c]
	if !ok {
		overhead += maxCipherOverhead
	} else {
		switch ct.kind {
		case kindBlock:
			overhead += ct.blockSize // max padding
			overhead += ct.blockSize // explicit IV
		case kindAEAD:
			overhead += ct.explicitNonce
			overhead += ct.tagSize
		}
	}

	// AEAD integrity lives in the tag accounted above; a separate MAC
	// applies to the remaining modes only.
	if ok && ct.kind == kindAEAD {
		return overhead
	}

	msize, ok := macSizes[m]
	if !ok {
		return overhead + maxMACOverhead
	}
	return overhead + msize
}
