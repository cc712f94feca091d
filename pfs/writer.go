package pfs

import (
	"bytes"
	"io"
)

// writeImage runs spec.md §4.6's six phases against sink, in order.
func writeImage(pl *plan, sink Sink, log Logger) error {
	blockSize := pl.props.BlockSize

	// Pre-size the sink so every WriteAt below lands within bounds; phase 6's
	// truncate call is then a no-op confirming the final length.
	if err := sink.Truncate(int64(pl.ndblock) * int64(blockSize)); err != nil {
		return newBuildError(IoFailure, "writeImage", err)
	}

	logPhase(log, "writing header")
	if err := writeAt(sink, 0, pl.header.Encode()); err != nil {
		return err
	}

	logPhase(log, "writing inodes")
	if err := writeInodes(pl, sink, blockSize); err != nil {
		return err
	}

	logPhase(log, "writing super-root dirents")
	superRootBlock := pl.superRoot.record.DirectBlock(0)
	if err := writeDirentBlock(sink, uint64(superRootBlock)*blockSize, blockSize, pl.superRootDirents); err != nil {
		return err
	}

	logPhase(log, "writing flat path table")
	if err := writeFPTBlocks(pl, sink, blockSize); err != nil {
		return err
	}

	logPhase(log, "writing directory and file content")
	nodes := buildLayoutNodes(pl.props.Root, pl.dirs, pl.files)
	for _, n := range nodes {
		if n.isDir() {
			start := n.ino.record.DirectBlock(0)
			if err := writeDirentBlock(sink, uint64(start)*blockSize, blockSize, n.dir.Dirents); err != nil {
				return err
			}
			continue
		}
		if err := writeFileContent(pl, sink, n, blockSize); err != nil {
			return err
		}
	}

	logPhase(log, "finalizing image size")
	return sink.Truncate(int64(pl.ndblock) * int64(blockSize))
}

func writeAt(sink Sink, offset int64, data []byte) error {
	_, err := sink.WriteAt(data, offset)
	if err != nil {
		return newBuildError(IoFailure, "writeAt", err)
	}
	return nil
}

func writeInodes(pl *plan, sink Sink, blockSize uint64) error {
	var buf bytes.Buffer
	remaining := blockSize
	offset := blockSize // inode table starts at block 1

	flush := func() error {
		if buf.Len() == 0 {
			return nil
		}
		if err := writeAt(sink, int64(offset), buf.Bytes()); err != nil {
			return err
		}
		offset += uint64(buf.Len())
		buf.Reset()
		return nil
	}

	for _, h := range pl.inodesAll() {
		size := uint64(h.record.ByteSize())
		if remaining < size {
			if err := flush(); err != nil {
				return err
			}
			offset = blockRoundUp(offset, blockSize)
			remaining = blockSize
		}
		if _, err := h.record.WriteTo(&buf); err != nil {
			return newBuildError(IoFailure, "writeInodes", err)
		}
		remaining -= size
	}
	return flush()
}

// writeDirentBlock packs dirents left-to-right starting at byteOffset,
// advancing to the next block whenever the next dirent would overflow the
// current one, per spec.md §4.6 Phase 5.
func writeDirentBlock(sink Sink, byteOffset, blockSize uint64, dirents []Dirent) error {
	var buf []byte
	used := uint64(0)
	offset := byteOffset

	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		if err := writeAt(sink, int64(offset), buf); err != nil {
			return err
		}
		buf = nil
		used = 0
		offset += blockSize
		return nil
	}

	for _, d := range dirents {
		if used+uint64(d.Len()) > blockSize {
			if err := flush(); err != nil {
				return err
			}
		}
		buf = d.AppendTo(buf)
		used += uint64(d.Len())
	}
	return flush()
}

func writeFPTBlocks(pl *plan, sink Sink, blockSize uint64) error {
	r := bytes.NewReader(pl.fptBytes)
	used := pl.fpt.record.BlockCount()
	if used > slotDirectBlocks {
		used = slotDirectBlocks
	}
	buf := make([]byte, blockSize)
	for i := uint64(0); i < used; i++ {
		n, err := io.ReadFull(r, buf)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return newBuildError(IoFailure, "writeFPTBlocks", err)
		}
		block := pl.fpt.record.DirectBlock(int(i))
		if err := writeAt(sink, block*int64(blockSize), buf[:n]); err != nil {
			return err
		}
	}
	return nil
}

func writeFileContent(pl *plan, sink Sink, n layoutNode, blockSize uint64) error {
	blocks := n.ino.record.BlockCount()
	if blocks == 0 {
		return nil
	}
	start := n.ino.record.DirectBlock(0)
	w := &sinkWriter{sink: sink, offset: start * int64(blockSize)}
	if n.file.Producer == nil {
		return nil
	}
	if err := n.file.Producer(w); err != nil {
		return newBuildError(IoFailure, "writeFileContent", err)
	}
	return nil
}

// sinkWriter adapts a Sink's WriteAt into a plain io.Writer that advances an
// internal cursor, so file content producers can treat it like a normal
// stream.
type sinkWriter struct {
	sink   Sink
	offset int64
}

func (w *sinkWriter) Write(p []byte) (int, error) {
	n, err := w.sink.WriteAt(p, w.offset)
	w.offset += int64(n)
	return n, err
}
