package pfs

import "testing"

func TestNewPropertiesDefaults(t *testing.T) {
	root := NewDirectory("root")
	p, err := newProperties(root)
	if err != nil {
		t.Fatal(err)
	}
	if p.BlockSize != DefaultBlockSize {
		t.Fatalf("BlockSize = %d, want %d", p.BlockSize, DefaultBlockSize)
	}
	if p.Sign || p.Encrypt {
		t.Fatal("Sign/Encrypt must default to false")
	}
}

func TestNewPropertiesRejectsNilRoot(t *testing.T) {
	_, err := newProperties(nil)
	if !IsConfigMismatch(err) {
		t.Fatalf("want ConfigMismatch, got %v", err)
	}
}

func TestWithBlockSizeZeroIsRejected(t *testing.T) {
	root := NewDirectory("root")
	_, err := newProperties(root, WithBlockSize(0))
	if !IsConfigMismatch(err) {
		t.Fatalf("want ConfigMismatch, got %v", err)
	}
}

func TestWithSignRequiresFullEKPFS(t *testing.T) {
	root := NewDirectory("root")
	_, err := newProperties(root, WithSign(make([]byte, 31)))
	if !IsConfigMismatch(err) {
		t.Fatalf("want ConfigMismatch, got %v", err)
	}
}
