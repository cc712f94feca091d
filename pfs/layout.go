package pfs

// signingItem is one entry of the signing work queue: the block to hash and
// where to write the resulting (HMAC, block index) pair. sigOffset is an
// absolute byte offset into the finished image, matching how spec.md's own
// sig_offset formulas are expressed (e.g. "BlockSize + DinodeS32.SizeOf ·
// inodeNumber + 0x64 + 36 · directBlockIndex").
type signingItem struct {
	block     uint64
	sigOffset int64
	span      uint64
}

// plan is everything the writer, signer, and encryptor need: final inode
// records, the dirent/file enumeration in the order they were laid out, the
// flat path table bytes, the signing queue, and the final block count.
type plan struct {
	props *Properties

	header   *Header
	superRoot *inodeHandle
	fpt       *inodeHandle
	uroot     *inodeHandle

	dirs  []*Directory
	files []enumeratedFile

	fptBytes []byte

	superRootDirents []Dirent

	signingQueue []signingItem

	ndblock    uint64
	emptyBlock uint64

	dinodeBlockCount uint64
	dinodeCount      uint32
}

// inodesAll returns every allocated inode record in inode-number order,
// used by the writer's Phase 2.
func (pl *plan) inodesAll() []*inodeHandle {
	out := make([]*inodeHandle, 0, pl.dinodeCount)
	out = append(out, pl.superRoot, pl.fpt, pl.uroot)
	for _, d := range pl.dirs {
		if d.Parent == nil {
			continue
		}
		out = append(out, d.ino)
	}
	for _, f := range pl.files {
		out = append(out, f.file.ino)
	}
	return out
}

// layoutNode is a directory or file in the combined block-assignment order:
// uroot first, then the remaining directories, then files in path order.
// This single order is reused by both the planner's step 6 and the writer's
// Phase 5, matching spec.md §4.1's enumeration contract.
type layoutNode struct {
	ino   *inodeHandle
	dir   *Directory // non-nil for directory nodes
	file  *File       // non-nil for file nodes
}

func (n layoutNode) isDir() bool { return n.dir != nil }

func buildLayoutNodes(uroot *Directory, dirs []*Directory, files []enumeratedFile) []layoutNode {
	nodes := []layoutNode{{ino: uroot.ino, dir: uroot}}
	for _, d := range dirs {
		if d.Parent == nil {
			continue // uroot already placed first
		}
		nodes = append(nodes, layoutNode{ino: d.ino, dir: d})
	}
	for _, f := range files {
		nodes = append(nodes, layoutNode{ino: f.file.ino, file: f.file})
	}
	return nodes
}

// sigsPerBlock is how many (HMAC, block index) 36-byte slots fit in one
// indirect block.
func sigsPerBlock(blockSize uint64) uint64 {
	return blockSize / sigEntrySize
}

// calculateIndirectBlocks returns how many indirect + doubly-indirect
// blocks a node of the given block count requires. See DESIGN.md Open
// Question 5 for the derivation against spec.md's scenario 6.
func calculateIndirectBlocks(blocks, blockSize uint64) uint64 {
	if blocks <= slotDirectBlocks {
		return 0
	}
	extra := blocks - slotDirectBlocks
	nSingle := ceilDiv(extra, sigsPerBlock(blockSize))
	if nSingle < 1 {
		nSingle = 1
	}
	nDouble := uint64(0)
	if nSingle > 1 {
		nDouble = 1
	}
	return nSingle + nDouble
}

// inodeTableSigOffset computes the absolute byte offset, within the
// finished image, of the (HMAC, block index) pair for direct-block slot of
// record. It generalizes spec.md §4.5 step 2's super-root-specific formula
// to every inode by anchoring the inode table's start (one block in) plus
// this record's own position in it, then asking record itself where inside
// its bytes that slot's signature lives.
func inodeTableSigOffset(blockSize uint64, record SignedInodeRecord, slot int) int64 {
	return int64(blockSize) + int64(dinodeS32Size)*int64(record.Number()) + record.DirectBlockSigOffset(slot)
}

// signedRecord type-asserts h's record to SignedInodeRecord. Only called
// from the signed profile, where newInodeHandle always constructs a
// DinodeS32.
func signedRecord(h *inodeHandle) SignedInodeRecord {
	return h.record.(SignedInodeRecord)
}

// planBuild runs the full two-mode layout planner described in spec.md
// §4.5 and returns a plan ready for the writer.
func planBuild(p *Properties) (*plan, error) {
	if err := validateTree(p.Root); err != nil {
		return nil, err
	}

	signed := p.Sign
	blockSize := p.BlockSize

	pl := &plan{props: p, header: newHeader(p)}

	// Header self-signature entry, pushed first so it is the last one
	// popped (LIFO) by the signer, after every other header-region write
	// (the inode-block-signature descriptor's slots, pushed below) has
	// already landed.
	if signed {
		pl.signingQueue = append(pl.signingQueue, signingItem{
			block:     0,
			sigOffset: headerSelfSigOffset,
			span:      headerSelfSigSpan,
		})
	}

	// Root structure setup (spec.md §4.2).
	pl.superRoot = newInodeHandle(0, signed)
	pl.fpt = newInodeHandle(1, signed)
	pl.uroot = newInodeHandle(2, signed)

	pl.superRoot.record.SetMode(ModeDir)
	pl.superRoot.record.SetFlags(FlagInternal | FlagReadonly)
	pl.superRoot.record.SetBlockCount(1)
	pl.superRoot.record.SetSize(blockSize)
	pl.superRoot.record.SetNlink(2)

	pl.fpt.record.SetMode(ModeFile)
	pl.fpt.record.SetFlags(FlagInternal | FlagReadonly)
	pl.fpt.record.SetBlockCount(1)

	pl.uroot.record.SetMode(ModeDir)
	pl.uroot.record.SetFlags(FlagReadonly)
	pl.uroot.record.SetBlockCount(1)
	pl.uroot.record.SetSize(blockSize)
	pl.uroot.record.SetNlink(3) // starting value; child directories add one each, see DESIGN.md

	p.Root.Name = "uroot"
	p.Root.ino = pl.uroot
	p.Root.Dirents = newDotDirents(2, 2)

	superRootDirents := []Dirent{
		{Name: "flat_path_table", Ino: 1, Kind: DirentFile},
		{Name: "uroot", Ino: 2, Kind: DirentDirectory},
	}

	if signed {
		pl.superRoot.record.SetFlags(pl.superRoot.record.Flags() &^ FlagReadonly)
		pl.fpt.record.SetFlags(pl.fpt.record.Flags() &^ FlagReadonly)
		pl.uroot.record.SetFlags(pl.uroot.record.Flags() &^ FlagReadonly)
	}
	for _, h := range []*inodeHandle{pl.superRoot, pl.fpt, pl.uroot} {
		applySignedUnknownFlags(h, signed)
		applyTimestamp(h, p.FileTime)
	}

	// Inode allocation (spec.md §4.3): directories pre-order, then files
	// path-sorted, monotonic inode numbers starting at 3.
	dirs, files := enumerateTree(p.Root)
	next := uint32(3)
	for _, d := range dirs {
		if d.Parent == nil {
			continue // uroot, already allocated above
		}
		h := newInodeHandle(next, signed)
		next++
		h.record.SetMode(ModeDir)
		h.record.SetFlags(FlagReadonly)
		h.record.SetBlockCount(1)
		h.record.SetSize(blockSize)
		h.record.SetNlink(2)
		applySignedUnknownFlags(h, signed)
		applyTimestamp(h, p.FileTime)
		d.ino = h
		d.Dirents = newDotDirents(h.Number(), d.Parent.ino.Number())

		d.Parent.Dirents = append(d.Parent.Dirents, Dirent{Name: d.Name, Ino: h.Number(), Kind: DirentDirectory})
		d.Parent.ino.record.SetNlink(d.Parent.ino.record.Nlink() + 1)
	}
	for _, f := range files {
		h := newInodeHandle(next, signed)
		next++
		flags := FlagReadonly
		if f.file.Compress {
			flags |= FlagCompressed
		}
		h.record.SetMode(ModeFile)
		h.record.SetFlags(flags)
		h.record.SetSize(f.file.Size)
		h.record.SetCompressedSize(f.file.CompressedSize)
		h.record.SetBlockCount(ceilDiv(f.file.Size, blockSize))
		applySignedUnknownFlags(h, signed)
		applyTimestamp(h, p.FileTime)
		if signed {
			h.record.SetFlags(h.record.Flags() &^ FlagReadonly)
		}
		f.file.ino = h

		parentDirents := &f.file.Parent.Dirents
		*parentDirents = append(*parentDirents, Dirent{Name: f.file.Name, Ino: h.Number(), Kind: DirentFile})
	}
	pl.dirs = dirs
	pl.files = files

	pl.superRoot.record.SetTime(p.FileTime, 0)
	pl.fpt.record.SetTime(p.FileTime, 0)

	inodeCount := uint32(3 + (len(dirs) - 1) + len(files))
	pl.dinodeCount = inodeCount

	inodeSize := uint64(dinode32Size)
	if signed {
		inodeSize = dinodeS32Size
	}
	inodesPerBlock := blockSize / inodeSize
	pl.dinodeBlockCount = ceilDiv(uint64(inodeCount), inodesPerBlock)
	pl.header.DinodeCount = pl.dinodeCount
	pl.header.DinodeBlockCount = pl.dinodeBlockCount

	pl.superRootDirents = superRootDirents

	// Header inode-block-signature descriptor direct pointers: 1..DinodeBlockCount.
	for i := uint64(0); i < pl.dinodeBlockCount; i++ {
		block := uint64(1) + i
		if signed {
			pl.signingQueue = append(pl.signingQueue, signingItem{
				block:     block,
				sigOffset: headerInodeSigDescOffset + int64(inodeMetaSize) + int64(i)*sigEntrySize,
				span:      blockSize,
			})
		}
	}

	ndblock := uint64(1) + pl.dinodeBlockCount // header + inode table

	// Super-root occupies the block right after the inode table.
	superRootBlock := ndblock
	pl.superRoot.record.SetDirectBlock(0, int64(superRootBlock))
	if signed {
		pl.signingQueue = append(pl.signingQueue, signingItem{
			block:     superRootBlock,
			sigOffset: inodeTableSigOffset(blockSize, signedRecord(pl.superRoot), 0),
			span:      blockSize,
		})
	}
	ndblock++

	// Flat path table: build its content now that every node has a final
	// inode number, then lay out its blocks.
	fptEntries := buildFlatPathTable(pl.superRoot, pl.fpt, pl.uroot, dirs, files)
	pl.fptBytes = encodeFlatPathTable(fptEntries)
	fptSize := uint64(len(pl.fptBytes))
	fptBlocks := ceilDiv(fptSize, blockSize)
	if fptBlocks == 0 {
		fptBlocks = 1
	}
	pl.fpt.record.SetSize(fptSize)
	pl.fpt.record.SetBlockCount(fptBlocks)

	fptStart := ndblock
	used := fptBlocks
	if used > slotDirectBlocks {
		used = slotDirectBlocks
	}
	for i := uint64(0); i < used; i++ {
		block := fptStart + i
		pl.fpt.record.SetDirectBlock(int(i), int64(block))
		if signed {
			pl.signingQueue = append(pl.signingQueue, signingItem{
				block:     block,
				sigOffset: inodeTableSigOffset(blockSize, signedRecord(pl.fpt), int(i)),
				span:      blockSize,
			})
		}
	}
	ndblock += used

	// Signed profile reserves one unused block ahead of the empty block;
	// unsigned only reserves the trailing empty block itself (spec.md
	// §4.5 step 4 vs. the unsigned profile's note (d)).
	if signed {
		ndblock++ // unused
	}
	pl.emptyBlock = ndblock
	ndblock++

	nodes := buildLayoutNodes(p.Root, dirs, files)

	if !signed {
		// Unsigned profile: every non-special inode carries the sentinel
		// everywhere except slot 0, and data is laid out contiguously.
		for _, n := range nodes {
			blocks := n.ino.record.BlockCount()
			if blocks == 0 {
				continue
			}
			start := ndblock
			n.ino.record.SetDirectBlock(0, int64(start))
			ndblock += blocks
		}
		pl.header.Ndblock = ndblock
		pl.ndblock = ndblock
		return pl, nil
	}

	// Signed profile: reserve the indirect-block region up front (step 5),
	// then assign data blocks and signing entries per node (step 6).
	ibStartBlock := ndblock
	var totalIndirect uint64
	for _, n := range nodes {
		totalIndirect += calculateIndirectBlocks(n.ino.record.BlockCount(), blockSize)
	}
	ndblock += totalIndirect

	ibCursor := ibStartBlock
	ibFilled := uint64(0)

	for _, n := range nodes {
		blocks := n.ino.record.BlockCount()
		rec := signedRecord(n.ino)

		direct := blocks
		if direct > slotDirectBlocks {
			direct = slotDirectBlocks
		}
		for i := uint64(0); i < direct; i++ {
			block := ndblock
			ndblock++
			n.ino.record.SetDirectBlock(int(i), int64(block))
			pl.signingQueue = append(pl.signingQueue, signingItem{
				block:     block,
				sigOffset: inodeTableSigOffset(blockSize, rec, int(i)),
				span:      blockSize,
			})
		}
		if blocks <= slotDirectBlocks {
			continue
		}

		firstIndirect := ibCursor
		n.ino.record.SetDirectBlock(slotSingleIndirect, int64(firstIndirect))
		pl.signingQueue = append(pl.signingQueue, signingItem{
			block:     firstIndirect,
			sigOffset: inodeTableSigOffset(blockSize, rec, slotSingleIndirect),
			span:      blockSize,
		})

		singleIndirectBlocks := []uint64{firstIndirect}
		remaining := blocks - slotDirectBlocks
		for remaining > 0 {
			if ibFilled == sigsPerBlock(blockSize) {
				ibCursor++
				ibFilled = 0
				singleIndirectBlocks = append(singleIndirectBlocks, ibCursor)
			}
			block := ndblock
			ndblock++
			pointerOffset := ibFilled
			ibFilled++
			pl.signingQueue = append(pl.signingQueue, signingItem{
				block:     block,
				sigOffset: int64(ibCursor*blockSize) + int64(pointerOffset)*int64(sigEntrySize),
				span:      blockSize,
			})
			remaining--
		}
		// Move past a partly filled indirect block so the next node that
		// needs indirect blocks starts a fresh one.
		if ibFilled > 0 {
			ibCursor++
			ibFilled = 0
		}

		if len(singleIndirectBlocks) > 1 {
			doubleIndirect := ibCursor
			ibCursor++
			n.ino.record.SetDirectBlock(slotDoubleIndirect, int64(doubleIndirect))
			pl.signingQueue = append(pl.signingQueue, signingItem{
				block:     doubleIndirect,
				sigOffset: inodeTableSigOffset(blockSize, rec, slotDoubleIndirect),
				span:      blockSize,
			})
			for idx, ib := range singleIndirectBlocks[1:] {
				pl.signingQueue = append(pl.signingQueue, signingItem{
					block:     ib,
					sigOffset: int64(doubleIndirect*blockSize) + int64(idx)*int64(sigEntrySize),
					span:      blockSize,
				})
			}
		}
	}

	pl.header.Ndblock = ndblock

	pl.ndblock = ndblock
	return pl, nil
}

func applySignedUnknownFlags(h *inodeHandle, signed bool) {
	if signed {
		h.record.SetFlags(h.record.Flags() | signedUnknownFlags)
	}
}

func applyTimestamp(h *inodeHandle, fileTime int64) {
	h.record.SetTime(fileTime, 0)
}

// Number is a convenience wrapper matching InodeRecord's naming.
func (h *inodeHandle) Number() uint32 { return h.record.Number() }
