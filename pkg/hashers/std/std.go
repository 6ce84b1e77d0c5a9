// Package std adapts library hash implementations to transformer cores:
// HashCore wraps any hash.Hash, BufferCore wraps one-shot functions such as
// KangarooTwelve and Argon2id that need the whole input at once.
package std

import (
	"bytes"
	"encoding"
	"fmt"
	"hash"

	"github.com/guilt/hashkit/pkg/hashvalue"
	"github.com/guilt/hashkit/pkg/log"
	"github.com/guilt/hashkit/pkg/transformer"
)

var logger = log.Named("std")

// HashCore drives a hash.Hash. It can be cloned when the hash implements
// encoding.BinaryMarshaler and its fresh instances implement
// encoding.BinaryUnmarshaler, as the standard library digests do.
type HashCore struct {
	h          hash.Hash
	newHash    func() (hash.Hash, error)
	endianness hashvalue.Endianness
}

// NewHashCore returns a core over a fresh hash from newHash. endianness
// tags the value Sum produces.
func NewHashCore(newHash func() (hash.Hash, error), endianness hashvalue.Endianness) (*HashCore, error) {
	h, err := newHash()
	if err != nil {
		return nil, fmt.Errorf("cannot create hash: %w", err)
	}
	return &HashCore{h: h, newHash: newHash, endianness: endianness}, nil
}

func (c *HashCore) BlockSize() int {
	if bs := c.h.BlockSize(); bs > 0 {
		return bs
	}
	return 1
}

func (c *HashCore) TransformBlock(block []byte) {
	c.h.Write(block)
}

func (c *HashCore) TransformBlocks(blocks []byte) {
	c.h.Write(blocks)
}

func (c *HashCore) FinalizeBlock(remainder []byte) (hashvalue.HashValue, error) {
	c.h.Write(remainder)
	return hashvalue.FromBytes(c.h.Sum(nil), c.endianness)
}

func (c *HashCore) Clone() (transformer.Core, error) {
	m, ok := c.h.(encoding.BinaryMarshaler)
	if !ok {
		return nil, fmt.Errorf("%w: %T", transformer.ErrNotCloneable, c.h)
	}
	state, err := m.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", transformer.ErrNotCloneable, err)
	}

	fresh, err := c.newHash()
	if err != nil {
		return nil, fmt.Errorf("cannot create hash: %w", err)
	}
	u, ok := fresh.(encoding.BinaryUnmarshaler)
	if !ok {
		return nil, fmt.Errorf("%w: %T", transformer.ErrNotCloneable, fresh)
	}
	if err := u.UnmarshalBinary(state); err != nil {
		logger.Debug("cannot restore hash state", "type", fmt.Sprintf("%T", fresh), "err", err)
		return nil, fmt.Errorf("%w: %w", transformer.ErrNotCloneable, err)
	}
	return &HashCore{h: fresh, newHash: c.newHash, endianness: c.endianness}, nil
}

// SumFunc computes a digest over the complete input.
type SumFunc func(data []byte) ([]byte, error)

// BufferCore collects the whole input and hands it to a SumFunc at
// finalization.
type BufferCore struct {
	buf        []byte
	sum        SumFunc
	bits       int
	endianness hashvalue.Endianness
}

// NewBufferCore returns a core whose SumFunc yields bits-wide values.
func NewBufferCore(sum SumFunc, bits int, endianness hashvalue.Endianness) *BufferCore {
	return &BufferCore{sum: sum, bits: bits, endianness: endianness}
}

func (c *BufferCore) BlockSize() int {
	return 1
}

func (c *BufferCore) TransformBlock(block []byte) {
	c.buf = append(c.buf, block...)
}

func (c *BufferCore) TransformBlocks(blocks []byte) {
	c.buf = append(c.buf, blocks...)
}

func (c *BufferCore) FinalizeBlock(remainder []byte) (hashvalue.HashValue, error) {
	data := append(c.buf, remainder...)
	c.buf = nil
	out, err := c.sum(data)
	if err != nil {
		return hashvalue.HashValue{}, err
	}
	return hashvalue.New(out, c.bits, c.endianness)
}

func (c *BufferCore) Clone() (transformer.Core, error) {
	clone := *c
	clone.buf = bytes.Clone(c.buf)
	return &clone, nil
}
