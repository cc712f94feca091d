package pfs

// xtsSectorSize is fixed by spec.md §4.8 independent of the image's own
// BlockSize.
const xtsSectorSize = 4096

// sectorsPerBlock is how many XTS sectors fit in one PFS block, at the only
// BlockSize this module currently supports (65536 / 4096 = 16).
func sectorsPerBlock(blockSize uint64) uint64 {
	return blockSize / xtsSectorSize
}

// encryptImage XTS-encrypts every sector of the finished image from sector
// 16 onward, skipping the reserved emptyBlock's 16 sectors, per spec.md
// §4.8.
func encryptImage(pl *plan, sink Sink, log Logger) error {
	if !pl.props.Encrypt {
		return nil
	}
	logPhase(log, "encrypting sectors")

	encKey := PfsGenEncKey(pl.props.EKPFS, pl.props.Seed)
	cipher, err := newXTSCipher(encKey)
	if err != nil {
		return err
	}

	spb := sectorsPerBlock(pl.props.BlockSize)
	streamLen := int64(pl.ndblock) * int64(pl.props.BlockSize)
	totalSectors := uint64(ceilDiv(uint64(streamLen), xtsSectorSize))

	buf := make([]byte, xtsSectorSize)
	for sector := spb; sector < totalSectors; sector++ {
		if sector/spb == pl.emptyBlock {
			sector += spb - 1 // skip the whole block; loop increment adds the last one
			continue
		}
		offset := int64(sector) * xtsSectorSize
		if _, err := sink.ReadAt(buf, offset); err != nil {
			return newBuildError(IoFailure, "encryptImage", err)
		}
		cipher.Encrypt(buf, buf, sector)
		if _, err := sink.WriteAt(buf, offset); err != nil {
			return newBuildError(IoFailure, "encryptImage", err)
		}
	}
	return nil
}
