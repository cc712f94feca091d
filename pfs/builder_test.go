package pfs_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/dtriguero/LibOrbisPkg/pfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildInner(t *testing.T, root *pfs.Directory) (*pfs.Builder, *pfs.MemorySink) {
	t.Helper()
	b, err := pfs.NewBuilder(root)
	require.NoError(t, err)
	sink := pfs.NewMemorySink()
	require.NoError(t, b.WriteImage(sink))
	return b, sink
}

func TestEmptyTreeInner(t *testing.T) {
	root := pfs.NewDirectory("root")
	b, sink := buildInner(t, root)

	const blockSize = pfs.DefaultBlockSize
	assert.Equal(t, int64(6*blockSize), b.CalculatePfsSize())
	assert.Equal(t, int64(6*blockSize), sink.Size())
}

func TestSingleFileInner(t *testing.T) {
	root := pfs.NewDirectory("root")
	root.AddFile(pfs.NewFileFromBytes("a", []byte("0123456789"), false))

	b, sink := buildInner(t, root)

	const blockSize = pfs.DefaultBlockSize
	assert.Equal(t, int64(7*blockSize), b.CalculatePfsSize())
	assert.Equal(t, int64(7*blockSize), sink.Size())
}

func TestDeepTreeInner(t *testing.T) {
	root := pfs.NewDirectory("root")
	d1 := root.AddDirectory(pfs.NewDirectory("d1"))
	d2 := d1.AddDirectory(pfs.NewDirectory("d2"))
	d2.AddFile(pfs.NewFileFromBytes("f", []byte("abcd"), false))

	_, sink := buildInner(t, root)
	require.NotZero(t, sink.Size())
}

func TestSignOnlySigningQueueCoversDeclaredBytes(t *testing.T) {
	root := pfs.NewDirectory("root")
	root.AddFile(pfs.NewFileFromBytes("a", []byte("hello"), false))

	ekpfs := make([]byte, 32)
	var seed [16]byte

	b, err := pfs.NewBuilder(root, pfs.WithSign(ekpfs), pfs.WithSeed(seed))
	require.NoError(t, err)
	sink := pfs.NewMemorySink()
	require.NoError(t, b.WriteImage(sink))

	size := b.CalculatePfsSize()
	require.Greater(t, size, int64(0))
	assert.Equal(t, size, sink.Size())
}

func TestSignAndEncryptHeaderAndEmptyBlockUnchanged(t *testing.T) {
	root := pfs.NewDirectory("root")
	root.AddFile(pfs.NewFileFromBytes("a", []byte("hello"), false))

	ekpfs := make([]byte, 32)
	var seed [16]byte

	before := pfs.NewMemorySink()
	bBefore, err := pfs.NewBuilder(root, pfs.WithSign(ekpfs), pfs.WithSeed(seed))
	require.NoError(t, err)
	require.NoError(t, bBefore.WriteImage(before))

	root2 := pfs.NewDirectory("root")
	root2.AddFile(pfs.NewFileFromBytes("a", []byte("hello"), false))
	after := pfs.NewMemorySink()
	bAfter, err := pfs.NewBuilder(root2, pfs.WithSign(ekpfs), pfs.WithEncrypt(ekpfs), pfs.WithSeed(seed))
	require.NoError(t, err)
	require.NoError(t, bAfter.WriteImage(after))

	// Sectors [0,16) are never touched by the encryptor. They differ from the
	// sign-only build only where the header mode carries HeaderEncrypted and
	// in the header self-signature (tag at 0x380 over the first 0x5A0 bytes
	// of block 0), which covers that mode.
	want := append([]byte(nil), before.Bytes()[:16*4096]...)
	mode := binary.LittleEndian.Uint16(want[8:10]) | uint16(pfs.HeaderEncrypted)
	binary.LittleEndian.PutUint16(want[8:10], mode)
	copy(want[0x380:0x3A0], make([]byte, 32))
	mac := hmac.New(sha256.New, pfs.PfsGenSignKey(ekpfs, seed))
	mac.Write(want[:0x5A0])
	copy(want[0x380:0x3A0], mac.Sum(nil))
	assert.Equal(t, want, after.Bytes()[:16*4096])

	// The emptyBlock is never encrypted. Here it is block 5 (header 0, inode
	// table 1, super-root 2, FPT 3, unused 4).
	const bs = pfs.DefaultBlockSize
	assert.Equal(t, before.Bytes()[5*bs:6*bs], after.Bytes()[5*bs:6*bs])
}

func TestIdempotentBuild(t *testing.T) {
	build := func() []byte {
		root := pfs.NewDirectory("root")
		d1 := root.AddDirectory(pfs.NewDirectory("d1"))
		d1.AddFile(pfs.NewFileFromBytes("a", []byte("content"), false))
		root.AddFile(pfs.NewFileFromBytes("b", []byte("more content"), false))

		sink := pfs.NewMemorySink()
		b, err := pfs.NewBuilder(root)
		require.NoError(t, err)
		require.NoError(t, b.WriteImage(sink))
		return sink.Bytes()
	}

	a := build()
	b := build()
	assert.Equal(t, a, b)
}

func TestConfigMismatchWithoutEKPFS(t *testing.T) {
	root := pfs.NewDirectory("root")
	_, err := pfs.NewBuilder(root, pfs.WithSign(nil))
	require.Error(t, err)
	assert.True(t, pfs.IsConfigMismatch(err))
}

func TestLargeFileForcesIndirectBlock(t *testing.T) {
	root := pfs.NewDirectory("root")
	data := make([]byte, 13*pfs.DefaultBlockSize)
	root.AddFile(pfs.NewFileFromBytes("big", data, false))

	ekpfs := make([]byte, 32)
	var seed [16]byte

	sink := pfs.NewMemorySink()
	b, err := pfs.NewBuilder(root, pfs.WithSign(ekpfs), pfs.WithSeed(seed))
	require.NoError(t, err)
	require.NoError(t, b.WriteImage(sink))
	require.Greater(t, b.CalculatePfsSize(), int64(0))
}
