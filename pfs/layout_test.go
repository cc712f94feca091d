package pfs

import "testing"

func TestCalculateIndirectBlocksScenario6(t *testing.T) {
	const blockSize = DefaultBlockSize
	blocks := uint64(13)
	got := calculateIndirectBlocks(blocks, blockSize)
	if got != 1 {
		t.Fatalf("calculateIndirectBlocks(13, %d) = %d, want 1", blockSize, got)
	}
}

func TestCalculateIndirectBlocksNoIndirectNeeded(t *testing.T) {
	for _, blocks := range []uint64{0, 1, 12} {
		if got := calculateIndirectBlocks(blocks, DefaultBlockSize); got != 0 {
			t.Fatalf("calculateIndirectBlocks(%d) = %d, want 0", blocks, got)
		}
	}
}

func TestCalculateIndirectBlocksNeedsDoublyIndirect(t *testing.T) {
	const blockSize = DefaultBlockSize
	spb := sigsPerBlock(blockSize)
	blocks := slotDirectBlocks + spb + 1 // one past what a single indirect block can hold
	got := calculateIndirectBlocks(uint64(blocks), blockSize)
	if got != 3 { // 2 single-indirect blocks + 1 doubly-indirect block
		t.Fatalf("calculateIndirectBlocks(%d) = %d, want 3", blocks, got)
	}
}

func TestCeilDiv(t *testing.T) {
	cases := []struct{ a, b, want uint64 }{
		{0, 65536, 0},
		{1, 65536, 1},
		{65536, 65536, 1},
		{65537, 65536, 2},
	}
	for _, c := range cases {
		if got := ceilDiv(c.a, c.b); got != c.want {
			t.Errorf("ceilDiv(%d, %d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestInodeTableSigOffsetMatchesSpecFormula(t *testing.T) {
	// spec.md §4.5 step 2: BlockSize + DinodeS32.SizeOf*inodeNumber + 0x64 + 36*directBlockIndex,
	// worked for super-root (inode 0, slot 0).
	rec := newDinodeS32(0)
	got := inodeTableSigOffset(DefaultBlockSize, rec, 0)
	want := int64(DefaultBlockSize) + 0x64
	if got != want {
		t.Fatalf("inodeTableSigOffset(superroot) = %#x, want %#x", got, want)
	}
}

func TestInodeTableSigOffsetAdvancesByInodeNumber(t *testing.T) {
	// inode 1, slot 0 must land one DinodeS32 record past inode 0, slot 0.
	rec0 := newDinodeS32(0)
	rec1 := newDinodeS32(1)
	got := inodeTableSigOffset(DefaultBlockSize, rec1, 0)
	want := inodeTableSigOffset(DefaultBlockSize, rec0, 0) + int64(dinodeS32Size)
	if got != want {
		t.Fatalf("inodeTableSigOffset(inode 1) = %#x, want %#x", got, want)
	}
}

func TestHeaderInodeBlockSigOffsetMatchesSpecLiteral(t *testing.T) {
	// spec.md's literal 0xB8 offset for inode-block signature slot 0.
	got := int64(headerInodeSigDescOffset) + int64(inodeMetaSize)
	if got != 0xB8 {
		t.Fatalf("header inode-block sig slot 0 offset = %#x, want 0xB8", got)
	}
}
