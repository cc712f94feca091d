package pfs

import "encoding/binary"

// fptRecordHeaderSize is the fixed prefix of one flat-path-table record:
// inode number (4 bytes) then path length (2 bytes), followed by the path
// bytes themselves.
const fptRecordHeaderSize = 6

// fptEntry is one row of the flat path table: a full image path and the
// inode number it resolves to.
type fptEntry struct {
	path string
	ino  uint32
}

// buildFlatPathTable lists every node visible inside the image proper (FPT
// itself, uroot, then every directory and file) with its full path and
// inode number. super_root is a structural node outside the path namespace
// and is not itself an FPT entry — scenario 1 of spec.md §8 lists only
// "/" (uroot) and "/flat_path_table" for an otherwise-empty tree.
func buildFlatPathTable(superRoot, fpt, uroot *inodeHandle, dirs []*Directory, files []enumeratedFile) []fptEntry {
	entries := []fptEntry{
		{path: "/flat_path_table", ino: fpt.record.Number()},
		{path: "/", ino: uroot.record.Number()},
	}
	for _, d := range dirs {
		if d.Parent == nil {
			continue // uroot already has its entry above
		}
		entries = append(entries, fptEntry{path: nodePath(d.Parent, d.Name), ino: d.ino.record.Number()})
	}
	for _, f := range files {
		entries = append(entries, fptEntry{path: f.path, ino: f.file.ino.record.Number()})
	}
	return entries
}

// encodeFlatPathTable serializes entries into the linear on-disk form the
// writer's synthetic FPT FSFile streams out.
func encodeFlatPathTable(entries []fptEntry) []byte {
	size := 0
	for _, e := range entries {
		size += fptRecordHeaderSize + len(e.path)
	}
	buf := make([]byte, 0, size)
	var hdr [fptRecordHeaderSize]byte
	for _, e := range entries {
		binary.LittleEndian.PutUint32(hdr[0:4], e.ino)
		binary.LittleEndian.PutUint16(hdr[4:6], uint16(len(e.path)))
		buf = append(buf, hdr[:]...)
		buf = append(buf, e.path...)
	}
	return buf
}
