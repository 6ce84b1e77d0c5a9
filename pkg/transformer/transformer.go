// Package transformer implements the streaming block transformer that every
// hashkit algorithm core is driven by.
//
// A BlockTransformer accepts input in arbitrarily sized pieces, hands full
// blocks to its Core in input order and keeps any remainder buffered until
// more input arrives or the value is finalized. The result is independent of
// how the input was split.
package transformer

import (
	"context"
	"errors"
	"fmt"

	"github.com/guilt/hashkit/pkg/hashvalue"
	"github.com/guilt/hashkit/pkg/log"
)

var logger = log.Named("transformer")

var (
	// ErrCorrupted is returned by every call on a transformer whose state was
	// abandoned part-way, for example by a cancelled context.
	ErrCorrupted = errors.New("transformer: state corrupted")
	// ErrFinalized is returned by every call after FinalizeHashValue.
	ErrFinalized = errors.New("transformer: already finalized")
	// ErrNotCloneable is returned by cores that cannot fork their state.
	ErrNotCloneable = errors.New("transformer: core cannot be cloned")
)

// DefaultCancellationBatchSize is the number of bytes processed between two
// checks of the context.
const DefaultCancellationBatchSize = 4096

// Core is the algorithm-specific half of a BlockTransformer.
//
// TransformBlock receives exactly BlockSize() bytes. FinalizeBlock receives
// the buffered remainder (fewer than BlockSize() bytes, possibly none) and
// is called at most once. Cores must copy any input they retain: the slices
// they are handed are reused by the caller.
type Core interface {
	BlockSize() int
	TransformBlock(block []byte)
	FinalizeBlock(remainder []byte) (hashvalue.HashValue, error)
	Clone() (Core, error)
}

// MultiBlockCore is implemented by cores that can process several
// consecutive blocks in one call. len(blocks) is always a multiple of
// BlockSize().
type MultiBlockCore interface {
	Core
	TransformBlocks(blocks []byte)
}

// BlockTransformer drives a Core over streamed input.
type BlockTransformer struct {
	core      Core
	blockSize int
	batchSize int
	leftover  []byte
	corrupted bool
	finalized bool
}

// Option configures a BlockTransformer.
type Option func(*BlockTransformer)

// WithCancellationBatchSize sets how many bytes are processed between two
// context checks. The value is rounded up to a multiple of the block size.
// Non-positive values select DefaultCancellationBatchSize.
func WithCancellationBatchSize(n int) Option {
	return func(t *BlockTransformer) {
		t.batchSize = n
	}
}

// New returns a transformer driving core.
func New(core Core, opts ...Option) (*BlockTransformer, error) {
	if core == nil {
		return nil, fmt.Errorf("transformer: nil core")
	}
	blockSize := core.BlockSize()
	if blockSize < 1 {
		return nil, fmt.Errorf("transformer: block size must be >= 1, got %d", blockSize)
	}

	t := &BlockTransformer{
		core:      core,
		blockSize: blockSize,
		leftover:  make([]byte, 0, blockSize),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.batchSize <= 0 {
		t.batchSize = DefaultCancellationBatchSize
	}
	if rem := t.batchSize % blockSize; rem != 0 {
		t.batchSize += blockSize - rem
	}
	return t, nil
}

// BlockSize returns the core's input block size.
func (t *BlockTransformer) BlockSize() int {
	return t.blockSize
}

// Corrupted reports whether the transformer has been corrupted.
func (t *BlockTransformer) Corrupted() bool {
	return t.corrupted
}

// Finalized reports whether FinalizeHashValue has been called.
func (t *BlockTransformer) Finalized() bool {
	return t.finalized
}

func (t *BlockTransformer) usable() error {
	if t.corrupted {
		return ErrCorrupted
	}
	if t.finalized {
		return ErrFinalized
	}
	return nil
}

func (t *BlockTransformer) cancel(err error) error {
	t.corrupted = true
	logger.Debug("transform cancelled", "err", err)
	return fmt.Errorf("%w: %w", ErrCorrupted, err)
}

// TransformBytes feeds data to the transformer.
func (t *BlockTransformer) TransformBytes(data []byte) error {
	return t.TransformBytesContext(context.Background(), data)
}

// TransformBytesContext feeds data to the transformer, checking ctx between
// batches. When ctx is done the transformer is corrupted and the returned
// error wraps both ErrCorrupted and ctx.Err().
func (t *BlockTransformer) TransformBytesContext(ctx context.Context, data []byte) error {
	if err := t.usable(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return t.cancel(err)
	}
	if len(data) == 0 {
		return nil
	}

	// Top up a partial block first.
	if len(t.leftover) > 0 {
		n := copy(t.leftover[len(t.leftover):t.blockSize], data)
		t.leftover = t.leftover[:len(t.leftover)+n]
		data = data[n:]
		if len(t.leftover) < t.blockSize {
			return nil
		}
		t.core.TransformBlock(t.leftover)
		t.leftover = t.leftover[:0]
	}

	whole := len(data) - len(data)%t.blockSize
	for off := 0; off < whole; {
		if off > 0 {
			if err := ctx.Err(); err != nil {
				return t.cancel(err)
			}
		}
		end := off + t.batchSize
		if end > whole {
			end = whole
		}
		t.transformBlocks(data[off:end])
		off = end
	}

	t.leftover = append(t.leftover, data[whole:]...)
	return nil
}

func (t *BlockTransformer) transformBlocks(blocks []byte) {
	if mb, ok := t.core.(MultiBlockCore); ok {
		mb.TransformBlocks(blocks)
		return
	}
	for off := 0; off < len(blocks); off += t.blockSize {
		t.core.TransformBlock(blocks[off : off+t.blockSize])
	}
}

// FinalizeHashValue completes the computation. It may be called once.
func (t *BlockTransformer) FinalizeHashValue() (hashvalue.HashValue, error) {
	return t.FinalizeHashValueContext(context.Background())
}

// FinalizeHashValueContext is FinalizeHashValue with a cancellation check
// before the core is finalized.
func (t *BlockTransformer) FinalizeHashValueContext(ctx context.Context) (hashvalue.HashValue, error) {
	if err := t.usable(); err != nil {
		return hashvalue.HashValue{}, err
	}
	if err := ctx.Err(); err != nil {
		return hashvalue.HashValue{}, t.cancel(err)
	}

	t.finalized = true
	v, err := t.core.FinalizeBlock(t.leftover)
	t.leftover = nil
	if err != nil {
		t.corrupted = true
		return hashvalue.HashValue{}, fmt.Errorf("finalizing: %w", err)
	}
	return v, nil
}

// Clone returns an independent copy of the transformer, including any
// buffered input.
func (t *BlockTransformer) Clone() (*BlockTransformer, error) {
	if err := t.usable(); err != nil {
		return nil, err
	}
	core, err := t.core.Clone()
	if err != nil {
		return nil, err
	}
	leftover := make([]byte, len(t.leftover), t.blockSize)
	copy(leftover, t.leftover)
	return &BlockTransformer{
		core:      core,
		blockSize: t.blockSize,
		batchSize: t.batchSize,
		leftover:  leftover,
	}, nil
}
