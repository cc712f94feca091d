package pfs

import (
	"encoding/binary"
	"io"
)

// InodeMode packs the node kind (directory/file) and permission bits into
// one 16-bit field, the same way the teacher's sce_ng_pfs_file_info_t packs a
// type tag alongside flags.
type InodeMode uint16

const (
	ModeDir  InodeMode = 0x1000
	ModeFile InodeMode = 0x2000

	modeTypeMask = 0xF000
	modePermMask = 0x0FFF

	permRX = 0x0555 // r-x for owner/group/other, matching "rx_only" inodes
)

func (m InodeMode) IsDir() bool  { return m&modeTypeMask == ModeDir }
func (m InodeMode) IsFile() bool { return m&modeTypeMask == ModeFile }

// InodeFlags are the per-inode flag bits spec.md §3 names.
type InodeFlags uint32

const (
	FlagReadonly InodeFlags = 1 << iota
	FlagInternal
	FlagCompressed
	flagUnknown0 // "unknown-but-always-set-when-signed" bit #1
	flagUnknown1 // "unknown-but-always-set-when-signed" bit #2
)

// signedUnknownFlags are the two always-set-when-signed bits spec.md §3 notes
// without giving them semantics.
const signedUnknownFlags = flagUnknown0 | flagUnknown1

// directBlockCount is the length of an inode's direct-block pointer array:
// 12 data-block slots, one single-indirect slot, one doubly-indirect slot,
// and 18 unused trailing slots carried for symmetry with the real PFS
// on-disk format this module does not claim bit compatibility with.
const directBlockCount = 32

const (
	slotDirectBlocks   = 12 // slots [0, 12) are plain data blocks
	slotSingleIndirect = 12
	slotDoubleIndirect = 13
)

// unusedBlockSentinel marks an inode direct-block slot as unused in the
// unsigned ("inner") profile, per spec.md §4.5.
const unusedBlockSentinel int64 = -1

// sigEntrySize is the size of one (HMAC, block index) pair stored in a
// signed inode's reserved signature area or in an indirect block: a 32-byte
// HMAC-SHA256 tag followed by a 4-byte little-endian block index.
const sigEntrySize = 36

// inodeMetaSize is the size, in bytes, of the fields common to both inode
// encodings that precede the signed encoding's reserved signature area.
// DinodeS32's internal signature area therefore starts at offset
// inodeMetaSize (0x64) from the inode's own start, matching spec.md §4.5's
// "0x64 + 36·directBlockIndex" offset formula.
const inodeMetaSize = 100 // 0x64

// sigAreaSize is the reserved signature area inside DinodeS32: one 36-byte
// slot per direct-block pointer.
const sigAreaSize = directBlockCount * sigEntrySize // 1152

// dinodeS32Size and dinode32Size are chosen as divisors of every BlockSize
// this module supports (in current use, always 65536) so that inode records
// never straddle a block boundary; see DESIGN.md Open Question 4.
const (
	dinodeS32Size = 2048
	dinode32Size  = 512
)

type inodeMeta struct {
	Mode           InodeMode
	Flags          InodeFlags
	Nlink          uint32
	Number         uint32
	BlockCount     uint64
	Size           uint64
	CompressedSize uint64
	TimeSec        int64
	TimeNsec       int64
}

const inodeMetaEncodedSize = 2 + 4 + 4 + 4 + 8 + 8 + 8 + 8 + 8 // 54

func (m *inodeMeta) encode(buf []byte) {
	binary.LittleEndian.PutUint16(buf[0:2], uint16(m.Mode))
	binary.LittleEndian.PutUint32(buf[2:6], uint32(m.Flags))
	binary.LittleEndian.PutUint32(buf[6:10], m.Nlink)
	binary.LittleEndian.PutUint32(buf[10:14], m.Number)
	binary.LittleEndian.PutUint64(buf[14:22], m.BlockCount)
	binary.LittleEndian.PutUint64(buf[22:30], m.Size)
	binary.LittleEndian.PutUint64(buf[30:38], m.CompressedSize)
	binary.LittleEndian.PutUint64(buf[38:46], uint64(m.TimeSec))
	binary.LittleEndian.PutUint64(buf[46:54], uint64(m.TimeNsec))
}

// InodeRecord is the common interface the layout planner drives; the
// concrete encoding (signed or plain) is selected once at setup from
// Properties.Sign. See spec.md §9 "Design Notes — Two inode encodings".
type InodeRecord interface {
	Number() uint32
	Mode() InodeMode
	SetMode(InodeMode)
	Flags() InodeFlags
	SetFlags(InodeFlags)
	Nlink() uint32
	SetNlink(uint32)
	Size() uint64
	SetSize(uint64)
	CompressedSize() uint64
	SetCompressedSize(uint64)
	BlockCount() uint64
	SetBlockCount(uint64)
	SetTime(sec, nsec int64)

	DirectBlock(slot int) int64
	SetDirectBlock(slot int, block int64)

	ByteSize() int
	WriteTo(w io.Writer) (int64, error)
}

// SignedInodeRecord is implemented only by DinodeS32; the planner type-asserts
// for it when Properties.Sign is set to find where a direct-block slot's
// signature should be stored.
type SignedInodeRecord interface {
	InodeRecord
	// DirectBlockSigOffset returns the offset, relative to this inode
	// record's own start, of the (HMAC, block index) pair for slot.
	DirectBlockSigOffset(slot int) int64
}

// Dinode32 is the plain (unsigned, "inner" profile) inode encoding: no
// reserved signature area.
type Dinode32 struct {
	meta    inodeMeta
	direct  [directBlockCount]int64
}

func newDinode32(number uint32) *Dinode32 {
	d := &Dinode32{meta: inodeMeta{Number: number}}
	for i := range d.direct {
		d.direct[i] = unusedBlockSentinel
	}
	return d
}

func (d *Dinode32) Number() uint32                 { return d.meta.Number }
func (d *Dinode32) Mode() InodeMode                 { return d.meta.Mode }
func (d *Dinode32) SetMode(m InodeMode)             { d.meta.Mode = m }
func (d *Dinode32) Flags() InodeFlags               { return d.meta.Flags }
func (d *Dinode32) SetFlags(f InodeFlags)           { d.meta.Flags = f }
func (d *Dinode32) Nlink() uint32                   { return d.meta.Nlink }
func (d *Dinode32) SetNlink(n uint32)               { d.meta.Nlink = n }
func (d *Dinode32) Size() uint64                    { return d.meta.Size }
func (d *Dinode32) SetSize(s uint64)                { d.meta.Size = s }
func (d *Dinode32) CompressedSize() uint64          { return d.meta.CompressedSize }
func (d *Dinode32) SetCompressedSize(s uint64)      { d.meta.CompressedSize = s }
func (d *Dinode32) BlockCount() uint64              { return d.meta.BlockCount }
func (d *Dinode32) SetBlockCount(n uint64)          { d.meta.BlockCount = n }
func (d *Dinode32) SetTime(sec, nsec int64)         { d.meta.TimeSec, d.meta.TimeNsec = sec, nsec }
func (d *Dinode32) DirectBlock(slot int) int64      { return d.direct[slot] }
func (d *Dinode32) SetDirectBlock(slot int, b int64) { d.direct[slot] = b }
func (d *Dinode32) ByteSize() int                   { return dinode32Size }

func (d *Dinode32) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, dinode32Size)
	d.meta.encode(buf[:inodeMetaEncodedSize])
	off := inodeMetaSize // keep the same meta/direct split point as the signed encoding for symmetry
	for i, b := range d.direct {
		binary.LittleEndian.PutUint64(buf[off+i*8:off+i*8+8], uint64(b))
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// DinodeS32 is the signed ("outer" profile) inode encoding: larger than
// Dinode32 because it carries a reserved signature area at a fixed internal
// offset (inodeMetaSize, i.e. 0x64) ahead of the direct-block pointer array.
type DinodeS32 struct {
	meta   inodeMeta
	sigs   [directBlockCount][sigEntrySize]byte // zero at write time; the signer patches the sink directly at each slot's absolute offset afterward
	direct [directBlockCount]int64
}

func newDinodeS32(number uint32) *DinodeS32 {
	d := &DinodeS32{meta: inodeMeta{Number: number}}
	for i := range d.direct {
		d.direct[i] = unusedBlockSentinel
	}
	return d
}

func (d *DinodeS32) Number() uint32                 { return d.meta.Number }
func (d *DinodeS32) Mode() InodeMode                 { return d.meta.Mode }
func (d *DinodeS32) SetMode(m InodeMode)             { d.meta.Mode = m }
func (d *DinodeS32) Flags() InodeFlags               { return d.meta.Flags }
func (d *DinodeS32) SetFlags(f InodeFlags)           { d.meta.Flags = f }
func (d *DinodeS32) Nlink() uint32                   { return d.meta.Nlink }
func (d *DinodeS32) SetNlink(n uint32)               { d.meta.Nlink = n }
func (d *DinodeS32) Size() uint64                    { return d.meta.Size }
func (d *DinodeS32) SetSize(s uint64)                { d.meta.Size = s }
func (d *DinodeS32) CompressedSize() uint64          { return d.meta.CompressedSize }
func (d *DinodeS32) SetCompressedSize(s uint64)      { d.meta.CompressedSize = s }
func (d *DinodeS32) BlockCount() uint64              { return d.meta.BlockCount }
func (d *DinodeS32) SetBlockCount(n uint64)          { d.meta.BlockCount = n }
func (d *DinodeS32) SetTime(sec, nsec int64)         { d.meta.TimeSec, d.meta.TimeNsec = sec, nsec }
func (d *DinodeS32) DirectBlock(slot int) int64      { return d.direct[slot] }
func (d *DinodeS32) SetDirectBlock(slot int, b int64) { d.direct[slot] = b }
func (d *DinodeS32) ByteSize() int                   { return dinodeS32Size }

// DirectBlockSigOffset returns the relative offset of slot's (HMAC, block
// index) pair within this inode's own record.
func (d *DinodeS32) DirectBlockSigOffset(slot int) int64 {
	return int64(inodeMetaSize + slot*sigEntrySize)
}

func (d *DinodeS32) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, dinodeS32Size)
	d.meta.encode(buf[:inodeMetaEncodedSize])
	sigOff := inodeMetaSize
	for i := range d.sigs {
		copy(buf[sigOff+i*sigEntrySize:sigOff+(i+1)*sigEntrySize], d.sigs[i][:])
	}
	directOff := inodeMetaSize + sigAreaSize
	for i, b := range d.direct {
		binary.LittleEndian.PutUint64(buf[directOff+i*8:directOff+i*8+8], uint64(b))
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// newInodeRecord selects the concrete encoding once, at setup, from whether
// the image is being signed.
func newInodeRecord(number uint32, signed bool) InodeRecord {
	if signed {
		return newDinodeS32(number)
	}
	return newDinode32(number)
}

// inodeHandle is the planner's bookkeeping for one tree node: the inode
// record itself, looked up by later phases (dirent emission, FPT emission,
// signing) without a second tree walk. Block placement lives entirely in
// the InodeRecord's direct-block slots; the layout phase never needs a
// separate resolved-block-index cache alongside it.
type inodeHandle struct {
	record InodeRecord
}

func newInodeHandle(number uint32, signed bool) *inodeHandle {
	return &inodeHandle{record: newInodeRecord(number, signed)}
}
