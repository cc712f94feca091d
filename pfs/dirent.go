package pfs

import "encoding/binary"

// direntHeaderSize is the fixed-size prefix of a serialized Dirent: inode
// number (4), entry kind (1), name length (1), then the name bytes.
const direntHeaderSize = 6

// direntMaxSize bounds how large a single Dirent's serialized form may be,
// given the one-byte name length. The writer decides whether the next
// dirent fits in the current block from that dirent's own Len().
const direntMaxSize = direntHeaderSize + direntMaxNameLen

const direntMaxNameLen = 255

// Dirent is a variable-length directory-entry record linking a name to an
// inode.
type Dirent struct {
	Name  string
	Ino   uint32
	Kind  DirentKind
}

// Len returns this dirent's serialized length in bytes.
func (d Dirent) Len() int {
	return direntHeaderSize + len(d.Name)
}

// AppendTo appends d's serialized form to buf and returns the result.
func (d Dirent) AppendTo(buf []byte) []byte {
	var hdr [direntHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], d.Ino)
	hdr[4] = byte(d.Kind)
	hdr[5] = byte(len(d.Name))
	buf = append(buf, hdr[:]...)
	buf = append(buf, d.Name...)
	return buf
}

func newDotDirents(selfIno, parentIno uint32) []Dirent {
	return []Dirent{
		{Name: ".", Ino: selfIno, Kind: DirentCurrent},
		{Name: "..", Ino: parentIno, Kind: DirentParent},
	}
}
