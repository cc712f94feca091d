package pfs

import "testing"

func TestMemorySinkTruncateGrowsAndZeroFills(t *testing.T) {
	m := NewMemorySink()
	if err := m.Truncate(100); err != nil {
		t.Fatal(err)
	}
	if m.Size() != 100 {
		t.Fatalf("Size() = %d, want 100", m.Size())
	}
	for _, b := range m.Bytes() {
		if b != 0 {
			t.Fatal("grown region must be zero-filled")
		}
	}
}

func TestMemorySinkWriteAtThenReadAt(t *testing.T) {
	m := NewMemorySink()
	if err := m.Truncate(16); err != nil {
		t.Fatal(err)
	}
	if _, err := m.WriteAt([]byte("hello"), 4); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 5)
	if _, err := m.ReadAt(buf, 4); err != nil {
		t.Fatal(err)
	}
	if string(buf) != "hello" {
		t.Fatalf("ReadAt = %q, want %q", buf, "hello")
	}
}

func TestMemorySinkWriteAtOutOfRange(t *testing.T) {
	m := NewMemorySink()
	_ = m.Truncate(4)
	if _, err := m.WriteAt([]byte("toolong"), 0); !IsIoFailure(err) {
		t.Fatalf("want IoFailure, got %v", err)
	}
}
