package pfs

import (
	"bytes"
	"testing"
)

func TestKeyDerivationIsDeterministic(t *testing.T) {
	ekpfs := bytes.Repeat([]byte{0x11}, 32)
	var seed [16]byte
	for i := range seed {
		seed[i] = byte(i)
	}

	sign1 := PfsGenSignKey(ekpfs, seed)
	sign2 := PfsGenSignKey(ekpfs, seed)
	if !bytes.Equal(sign1, sign2) {
		t.Fatal("PfsGenSignKey is not deterministic")
	}

	enc := PfsGenEncKey(ekpfs, seed)
	if len(enc) != 32 {
		t.Fatalf("PfsGenEncKey returned %d bytes, want 32", len(enc))
	}
	if bytes.Equal(sign1, enc) {
		t.Fatal("sign key and enc key must differ (distinct labels)")
	}
}

func TestNewXTSCipherRejectsWrongKeyLength(t *testing.T) {
	if _, err := newXTSCipher(make([]byte, 16)); err == nil {
		t.Fatal("want error for a 16-byte key, got nil")
	}
}

func TestXTSCipherRoundTrips(t *testing.T) {
	key := bytes.Repeat([]byte{0x22}, 32)
	c, err := newXTSCipher(key)
	if err != nil {
		t.Fatal(err)
	}

	plain := bytes.Repeat([]byte{0xAB}, xtsSectorSize)
	cipherText := make([]byte, xtsSectorSize)
	c.Encrypt(cipherText, plain, 16)

	recovered := make([]byte, xtsSectorSize)
	c.Decrypt(recovered, cipherText, 16)

	if !bytes.Equal(plain, recovered) {
		t.Fatal("XTS round trip did not recover plaintext")
	}
}
