package pfs

import "os"

// Sink is the random-access byte destination the writer, signer, and
// encryptor all operate on. It abstracts over an in-memory buffer or a real
// file the same way a disk image builder needs seek+read+write+truncate
// without committing to one backing store.
type Sink interface {
	ReadAt(p []byte, off int64) (int, error)
	WriteAt(p []byte, off int64) (int, error)
	Truncate(size int64) error
	Size() int64
}

// MemorySink is a Sink backed by a plain byte slice. Useful for tests and for
// callers that want the finished image entirely in memory.
type MemorySink struct {
	data []byte
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Bytes returns the sink's current backing slice. The caller must not retain
// it across a subsequent Truncate.
func (m *MemorySink) Bytes() []byte {
	return m.data
}

func (m *MemorySink) Size() int64 {
	return int64(len(m.data))
}

func (m *MemorySink) Truncate(size int64) error {
	if size < 0 {
		return newBuildError(IoFailure, "MemorySink.Truncate", errNegativeSize)
	}
	if int64(len(m.data)) == size {
		return nil
	}
	grown := make([]byte, size)
	copy(grown, m.data)
	m.data = grown
	return nil
}

func (m *MemorySink) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(m.data)) {
		return 0, newBuildError(IoFailure, "MemorySink.ReadAt", errOutOfRange)
	}
	return copy(p, m.data[off:]), nil
}

func (m *MemorySink) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(m.data)) {
		return 0, newBuildError(IoFailure, "MemorySink.WriteAt", errOutOfRange)
	}
	return copy(m.data[off:], p), nil
}

// FileSink is a Sink backed by an *os.File.
type FileSink struct {
	f *os.File
}

// NewFileSink wraps an already-open, writable, seekable *os.File.
func NewFileSink(f *os.File) *FileSink {
	return &FileSink{f: f}
}

func (s *FileSink) Size() int64 {
	info, err := s.f.Stat()
	if err != nil {
		return 0
	}
	return info.Size()
}

func (s *FileSink) Truncate(size int64) error {
	if err := s.f.Truncate(size); err != nil {
		return newBuildError(IoFailure, "FileSink.Truncate", err)
	}
	return nil
}

func (s *FileSink) ReadAt(p []byte, off int64) (int, error) {
	n, err := s.f.ReadAt(p, off)
	if err != nil {
		return n, newBuildError(IoFailure, "FileSink.ReadAt", err)
	}
	return n, nil
}

func (s *FileSink) WriteAt(p []byte, off int64) (int, error) {
	n, err := s.f.WriteAt(p, off)
	if err != nil {
		return n, newBuildError(IoFailure, "FileSink.WriteAt", err)
	}
	return n, nil
}
