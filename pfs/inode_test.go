package pfs

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestDinode32RoundTripsDirectBlocks(t *testing.T) {
	d := newDinode32(7)
	d.SetMode(ModeFile)
	d.SetSize(1234)
	d.SetDirectBlock(0, 42)

	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != dinode32Size {
		t.Fatalf("encoded size = %d, want %d", buf.Len(), dinode32Size)
	}
	if got := int64(binary.LittleEndian.Uint64(buf.Bytes()[inodeMetaSize : inodeMetaSize+8])); got != 42 {
		t.Fatalf("direct block 0 encoded as %d, want 42", got)
	}
}

func TestDinodeS32SigOffsetIsMetaSize(t *testing.T) {
	d := newDinodeS32(0)
	if got := d.DirectBlockSigOffset(0); got != inodeMetaSize {
		t.Fatalf("DirectBlockSigOffset(0) = %d, want %d", got, inodeMetaSize)
	}
}

func TestDinodeS32LargerThanDinode32(t *testing.T) {
	if dinodeS32Size <= dinode32Size {
		t.Fatalf("signed inode encoding must be larger than the plain one")
	}
	if DefaultBlockSize%dinodeS32Size != 0 || DefaultBlockSize%dinode32Size != 0 {
		t.Fatalf("inode sizes must divide BlockSize so records never straddle a block boundary")
	}
}

func TestUnusedDirectBlocksDefaultToSentinel(t *testing.T) {
	d := newDinode32(0)
	for i := 0; i < directBlockCount; i++ {
		if d.DirectBlock(i) != unusedBlockSentinel {
			t.Fatalf("slot %d = %d, want sentinel %d", i, d.DirectBlock(i), unusedBlockSentinel)
		}
	}
}
