package transformer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guilt/hashkit/pkg/hashvalue"
)

// recordingCore hashes everything it sees with SHA-256 and remembers the
// size of every block it was handed.
type recordingCore struct {
	size   int
	seen   []byte
	blocks []int
	multi  int
}

func (c *recordingCore) BlockSize() int { return c.size }

func (c *recordingCore) TransformBlock(block []byte) {
	c.blocks = append(c.blocks, len(block))
	c.seen = append(c.seen, block...)
}

func (c *recordingCore) FinalizeBlock(rem []byte) (hashvalue.HashValue, error) {
	sum := sha256.Sum256(append(c.seen, rem...))
	return hashvalue.FromBytes(sum[:], hashvalue.NotApplicable)
}

func (c *recordingCore) Clone() (Core, error) {
	return &recordingCore{
		size:   c.size,
		seen:   bytes.Clone(c.seen),
		blocks: append([]int(nil), c.blocks...),
	}, nil
}

type multiCore struct {
	recordingCore
}

func (c *multiCore) TransformBlocks(blocks []byte) {
	c.multi++
	for off := 0; off < len(blocks); off += c.size {
		c.TransformBlock(blocks[off : off+c.size])
	}
}

type failingCore struct {
	recordingCore
}

func (c *failingCore) FinalizeBlock([]byte) (hashvalue.HashValue, error) {
	return hashvalue.HashValue{}, errors.New("boom")
}

func (c *failingCore) Clone() (Core, error) {
	return nil, ErrNotCloneable
}

func testInput(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

func TestNewRejectsBadCores(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)

	_, err = New(&recordingCore{size: 0})
	require.Error(t, err)
}

func TestChunkSizeIndependence(t *testing.T) {
	input := testInput(5000)
	want := sha256.Sum256(input)
	rng := rand.New(rand.NewSource(1))

	for _, blockSize := range []int{1, 3, 16, 64, 1024} {
		for round := 0; round < 20; round++ {
			core := &recordingCore{size: blockSize}
			tr, err := New(core)
			require.NoError(t, err)

			rest := input
			for len(rest) > 0 {
				n := rng.Intn(len(rest) + 1)
				require.NoError(t, tr.TransformBytes(rest[:n]))
				rest = rest[n:]
			}

			v, err := tr.FinalizeHashValue()
			require.NoError(t, err)
			assert.Equal(t, want[:], v.Bytes())
			for _, n := range core.blocks {
				assert.Equal(t, blockSize, n)
			}
			assert.Len(t, core.blocks, len(input)/blockSize)
		}
	}
}

func TestEmptyInputIsNoOp(t *testing.T) {
	core := &recordingCore{size: 8}
	tr, err := New(core)
	require.NoError(t, err)

	require.NoError(t, tr.TransformBytes(nil))
	require.NoError(t, tr.TransformBytes([]byte{}))
	assert.Empty(t, core.blocks)

	v, err := tr.FinalizeHashValue()
	require.NoError(t, err)
	want := sha256.Sum256(nil)
	assert.Equal(t, want[:], v.Bytes())
}

func TestFinalizeOnce(t *testing.T) {
	tr, err := New(&recordingCore{size: 4})
	require.NoError(t, err)
	require.NoError(t, tr.TransformBytes([]byte("abc")))

	_, err = tr.FinalizeHashValue()
	require.NoError(t, err)
	assert.True(t, tr.Finalized())

	_, err = tr.FinalizeHashValue()
	assert.ErrorIs(t, err, ErrFinalized)
	assert.ErrorIs(t, tr.TransformBytes([]byte("x")), ErrFinalized)
	_, err = tr.Clone()
	assert.ErrorIs(t, err, ErrFinalized)
}

func TestCancelledContextCorrupts(t *testing.T) {
	tr, err := New(&recordingCore{size: 16})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = tr.TransformBytesContext(ctx, testInput(100))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorrupted)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, tr.Corrupted())

	assert.ErrorIs(t, tr.TransformBytes([]byte("x")), ErrCorrupted)
	_, err = tr.FinalizeHashValue()
	assert.ErrorIs(t, err, ErrCorrupted)
}

type cancelAfterCore struct {
	recordingCore
	after  int
	cancel context.CancelFunc
}

func (c *cancelAfterCore) TransformBlock(block []byte) {
	c.recordingCore.TransformBlock(block)
	if len(c.blocks) == c.after {
		c.cancel()
	}
}

func TestCancellationBetweenBatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	core := &cancelAfterCore{recordingCore: recordingCore{size: 64}, after: 1, cancel: cancel}
	tr, err := New(core, WithCancellationBatchSize(100))
	require.NoError(t, err)

	err = tr.TransformBytesContext(ctx, testInput(64*10))
	assert.ErrorIs(t, err, ErrCorrupted)
	assert.ErrorIs(t, err, context.Canceled)
	// 100 rounds up to two blocks, so one batch ran before the check.
	assert.Len(t, core.blocks, 2)
}

func TestFinalizeContextCancelled(t *testing.T) {
	tr, err := New(&recordingCore{size: 4})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tr.FinalizeHashValueContext(ctx)
	assert.ErrorIs(t, err, ErrCorrupted)
	assert.True(t, tr.Corrupted())
}

func TestCloneIsIndependent(t *testing.T) {
	input := testInput(300)
	tr, err := New(&recordingCore{size: 32})
	require.NoError(t, err)
	require.NoError(t, tr.TransformBytes(input[:150]))

	fork, err := tr.Clone()
	require.NoError(t, err)

	require.NoError(t, tr.TransformBytes(input[150:]))
	require.NoError(t, fork.TransformBytes([]byte("different tail")))

	a, err := tr.FinalizeHashValue()
	require.NoError(t, err)
	b, err := fork.FinalizeHashValue()
	require.NoError(t, err)

	wantA := sha256.Sum256(input)
	wantB := sha256.Sum256(append(bytes.Clone(input[:150]), "different tail"...))
	assert.Equal(t, wantA[:], a.Bytes())
	assert.Equal(t, wantB[:], b.Bytes())
}

func TestMultiBlockCoreUsesBatches(t *testing.T) {
	core := &multiCore{recordingCore{size: 8}}
	tr, err := New(core, WithCancellationBatchSize(32))
	require.NoError(t, err)

	require.NoError(t, tr.TransformBytes(testInput(100)))
	assert.Equal(t, 3, core.multi) // 96 whole bytes in batches of 32
	assert.Len(t, core.blocks, 12)
	assert.Equal(t, 32, tr.batchSize)
}

func TestBatchSizeRoundsUp(t *testing.T) {
	tr, err := New(&recordingCore{size: 48}, WithCancellationBatchSize(100))
	require.NoError(t, err)
	assert.Equal(t, 144, tr.batchSize)

	tr, err = New(&recordingCore{size: 1000})
	require.NoError(t, err)
	assert.Equal(t, 5000, tr.batchSize)
}

func TestCoreErrorsCorrupt(t *testing.T) {
	tr, err := New(&failingCore{recordingCore{size: 4}})
	require.NoError(t, err)

	_, err = tr.Clone()
	assert.ErrorIs(t, err, ErrNotCloneable)

	_, err = tr.FinalizeHashValue()
	require.Error(t, err)
	assert.True(t, tr.Corrupted())
}
