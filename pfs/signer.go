package pfs

import "encoding/binary"

// signImage replays the signing queue built by the planner, in LIFO order:
// the queue was built with the header's own self-signature entry pushed
// first, so popping from the tail processes everything else before the
// header — by which point every header-region write the other entries make
// has already landed. See spec.md §4.7.
func signImage(pl *plan, sink Sink, log Logger) error {
	if !pl.props.Sign {
		return nil
	}
	logPhase(log, "signing blocks")

	blockSize := pl.props.BlockSize
	signKey := PfsGenSignKey(pl.props.EKPFS, pl.props.Seed)
	hm := newHMAC(signKey)

	for i := len(pl.signingQueue) - 1; i >= 0; i-- {
		if err := signOne(hm, sink, pl.signingQueue[i], blockSize); err != nil {
			return err
		}
	}
	return nil
}

func signOne(hm *hmacState, sink Sink, item signingItem, blockSize uint64) error {
	buf := make([]byte, item.span)
	if _, err := sink.ReadAt(buf, int64(item.block)*int64(blockSize)); err != nil {
		return newBuildError(IoFailure, "signOne", err)
	}
	tag := hm.sum(buf)

	if _, err := sink.WriteAt(tag[:], item.sigOffset); err != nil {
		return newBuildError(IoFailure, "signOne", err)
	}
	var idx [4]byte
	binary.LittleEndian.PutUint32(idx[:], uint32(item.block))
	if _, err := sink.WriteAt(idx[:], item.sigOffset+32); err != nil {
		return newBuildError(IoFailure, "signOne", err)
	}
	return nil
}
