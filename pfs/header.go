package pfs

import "encoding/binary"

// headerSize is the size, in bytes, of the encoded header at the start of
// block 0. It holds the whole embedded InodeSigDesc (0xB8 + 32·36 = 0x538)
// and matches headerSelfSigSpan. It must not exceed BlockSize.
const headerSize = 0x5A0

// headerInodeSigDescOffset is where the header's own embedded
// DinodeS32-shaped signature descriptor begins, relative to the start of
// block 0. It was derived, not guessed: spec.md's literal "0xB8" offset for
// inode-block signature slot 0 equals headerInodeSigDescOffset plus
// DinodeS32's own internal sigArea offset (inodeMetaSize, 0x64): 0x54+0x64 =
// 0xB8. See DESIGN.md Open Question 4.
const headerInodeSigDescOffset = 0x54

// headerSelfSigOffset and headerSelfSigSpan describe the signing-queue entry
// that covers the header's own bytes: the full headerSize, which reaches
// past the last inode-block signature slot. The tag itself is stored inside
// that span, at headerSelfSigOffset.
const (
	headerSelfSigOffset = 0x380
	headerSelfSigSpan   = 0x5A0
)

// HeaderMode packs the header's own Signed/Encrypted flags plus one bit
// spec.md notes is always set, independent of InodeMode's dir/file tag.
type HeaderMode uint16

const (
	HeaderSigned    HeaderMode = 1 << 0
	HeaderEncrypted HeaderMode = 1 << 1
	headerAlwaysSet HeaderMode = 1 << 2
)

// Header is the single block-0 record: global geometry, the seed, and an
// embedded signature descriptor sized and positioned like an ordinary
// signed inode so the same sigEntrySize/inodeMetaSize arithmetic applies to
// both.
type Header struct {
	BlockSize uint64
	Mode      HeaderMode

	Seed [16]byte

	Ndblock          uint64 // total block count in the image
	DinodeCount      uint32
	DinodeBlockCount uint64

	// InodeSigDesc mirrors a DinodeS32's signature area: one 36-byte slot
	// per inode-table block signed in the signed profile.
	InodeSigDesc [directBlockCount][sigEntrySize]byte
}

func newHeader(p *Properties) *Header {
	mode := headerAlwaysSet
	if p.Sign {
		mode |= HeaderSigned
	}
	if p.Encrypt {
		mode |= HeaderEncrypted
	}
	return &Header{
		BlockSize: p.BlockSize,
		Mode:      mode,
		Seed:      p.Seed,
	}
}

// Encode serializes the header into a headerSize-byte block.
func (h *Header) Encode() []byte {
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint64(buf[0:8], h.BlockSize)
	binary.LittleEndian.PutUint16(buf[8:10], uint16(h.Mode))
	copy(buf[16:32], h.Seed[:])
	binary.LittleEndian.PutUint64(buf[32:40], h.Ndblock)
	binary.LittleEndian.PutUint32(buf[40:44], h.DinodeCount)
	binary.LittleEndian.PutUint64(buf[44:52], h.DinodeBlockCount)

	off := headerInodeSigDescOffset + inodeMetaSize
	for i := range h.InodeSigDesc {
		copy(buf[off+i*sigEntrySize:off+(i+1)*sigEntrySize], h.InodeSigDesc[i][:])
	}
	return buf
}
