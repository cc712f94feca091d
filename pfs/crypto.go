package pfs

import (
	"crypto/aes"
	"crypto/hmac"

	sha256simd "github.com/minio/sha256-simd"
	"golang.org/x/crypto/xts"
)

// signKeyLabel and encKeyLabel are the fixed context strings mixed into
// EKPFS alongside the per-image seed to derive the HMAC key and the
// XTS-AES-128 key respectively. Two different labels guarantee the two
// derived keys never collide even if EKPFS and Seed are reused across
// images.
var (
	signKeyLabel = []byte("pfs-sign-key")
	encKeyLabel  = []byte("pfs-enc-key")
)

// deriveKey runs HMAC-SHA256 over label||seed keyed by ekpfs, matching the
// hmac.New(hash, secret) then Sum(nil) shape of a keyed hash derivation.
func deriveKey(ekpfs, seed, label []byte) []byte {
	h := hmac.New(sha256simd.New, ekpfs)
	h.Write(label)
	h.Write(seed)
	return h.Sum(nil)
}

// PfsGenSignKey derives the 32-byte HMAC-SHA256 signing key from EKPFS and
// the image seed.
func PfsGenSignKey(ekpfs []byte, seed [16]byte) []byte {
	return deriveKey(ekpfs, seed[:], signKeyLabel)
}

// PfsGenEncKey derives the 32-byte XTS-AES-128 key (tweak-key half, then
// data-key half, per spec.md §4.8's on-disk key ordering) from EKPFS and the
// image seed.
func PfsGenEncKey(ekpfs []byte, seed [16]byte) []byte {
	full := deriveKey(ekpfs, seed[:], encKeyLabel)
	return full[:32]
}

// newHMAC returns a fresh keyed HMAC-SHA256 instance.
func newHMAC(signKey []byte) *hmacState {
	return &hmacState{h: hmac.New(sha256simd.New, signKey)}
}

type hmacState struct {
	h interface {
		Write([]byte) (int, error)
		Sum([]byte) []byte
		Reset()
	}
}

func (s *hmacState) sum(data []byte) [32]byte {
	s.h.Reset()
	s.h.Write(data)
	var out [32]byte
	copy(out[:], s.h.Sum(nil))
	return out
}

// newXTSCipher builds an XTS-AES-128 cipher from the 32-byte key spec.md
// §4.8 lays out as tweak-key||data-key. golang.org/x/crypto/xts.NewCipher
// expects the opposite order (data-key||tweak-key) for a raw AES XTS
// construction, so the two 16-byte halves are swapped here once, at setup.
func newXTSCipher(encKey []byte) (*xts.Cipher, error) {
	if len(encKey) != 32 {
		return nil, newBuildError(ConfigMismatch, "newXTSCipher", errBadEKPFS)
	}
	swapped := make([]byte, 32)
	copy(swapped[0:16], encKey[16:32])
	copy(swapped[16:32], encKey[0:16])
	return xts.NewCipher(aes.NewCipher, swapped)
}
