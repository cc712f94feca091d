package pfs

import "errors"

var (
	errNegativeSize  = errors.New("negative size")
	errOutOfRange    = errors.New("offset out of range")
	errZeroBlockSize = errors.New("block size must be nonzero")
	errNoRoot        = errors.New("root directory is required")
	errBadEKPFS      = errors.New("EKPFS must be 32 bytes when Sign or Encrypt is set")
	errCycle         = errors.New("cycle in filesystem tree")
	errDuplicateName = errors.New("duplicate name within a directory")
)

func ceilDiv(a, b uint64) uint64 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

func blockRoundUp(size, blockSize uint64) uint64 {
	return ceilDiv(size, blockSize) * blockSize
}
