// Package blake3 implements BLAKE3 in its hash, keyed-hash and derive-key
// modes, with extendable output and an optional salt and personalization
// folded into the initial chaining value.
package blake3

import (
	"fmt"
	"io"

	zeebo "github.com/zeebo/blake3"

	"github.com/guilt/hashkit/pkg/config"
	"github.com/guilt/hashkit/pkg/hashvalue"
	"github.com/guilt/hashkit/pkg/log"
	"github.com/guilt/hashkit/pkg/transformer"
)

var logger = log.Named("blake3")

// maxDepth bounds the chaining value stack: 2^54 chunks exceeds any
// 64-bit byte count.
const maxDepth = 54

type chunkState struct {
	cv         [8]uint32
	counter    uint64
	buf        [blockLen]byte
	bufLen     int
	compressed int
	flags      uint32
}

func newChunkState(key [8]uint32, counter uint64, flags uint32) chunkState {
	return chunkState{cv: key, counter: counter, flags: flags}
}

func (c *chunkState) len() int {
	return blockLen*c.compressed + c.bufLen
}

func (c *chunkState) startFlag() uint32 {
	if c.compressed == 0 {
		return flagChunkStart
	}
	return 0
}

// update absorbs p, which must fit in the chunk. A full buffered block is
// compressed only once more input arrives, since the last block of a chunk
// carries the end flag.
func (c *chunkState) update(p []byte) {
	for len(p) > 0 {
		if c.bufLen == blockLen {
			block := blockWords(c.buf[:])
			c.cv = first8(compress(&c.cv, &block, c.counter, blockLen, c.flags|c.startFlag()))
			c.compressed++
			c.bufLen = 0
		}
		n := copy(c.buf[c.bufLen:], p)
		c.bufLen += n
		p = p[n:]
	}
}

func (c *chunkState) output() output {
	return output{
		cv:      c.cv,
		block:   blockWords(c.buf[:c.bufLen]),
		counter: c.counter,
		n:       uint32(c.bufLen),
		flags:   c.flags | c.startFlag() | flagChunkEnd,
	}
}

// Hasher is an incremental BLAKE3 state. The zero value is not usable; use
// New, NewKeyed, NewDeriveKey or NewFromConfig.
type Hasher struct {
	key      [8]uint32
	flags    uint32
	chunk    chunkState
	stack    [maxDepth][8]uint32
	stackLen int
}

func newHasher(key [8]uint32, flags uint32) *Hasher {
	return &Hasher{key: key, flags: flags, chunk: newChunkState(key, 0, flags)}
}

// New returns a hasher in the default hash mode.
func New() *Hasher {
	return newHasher(iv, 0)
}

// NewKeyed returns a hasher in keyed mode. key must be 32 bytes.
func NewKeyed(key []byte) (*Hasher, error) {
	if len(key) != keyLen {
		return nil, fmt.Errorf("%w: blake3 key must be %d bytes, got %d", config.ErrInvalidParameter, keyLen, len(key))
	}
	return newHasher(keyWords(key), flagKeyedHash), nil
}

func contextKey(context string) [8]uint32 {
	h := newHasher(iv, flagDeriveKeyContext)
	h.Write([]byte(context))
	var out [keyLen]byte
	o := h.finalOutput()
	o.rootBytes(out[:], 0)
	return keyWords(out[:])
}

// NewDeriveKey returns a hasher that derives key material from the input
// under context.
func NewDeriveKey(context string) *Hasher {
	return newHasher(contextKey(context), flagDeriveKeyMaterial)
}

// NewFromConfig builds a hasher for cfg. A nil cfg selects the default
// hash mode.
func NewFromConfig(cfg *config.Blake3Config) (*Hasher, error) {
	if cfg == nil {
		return New(), nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	key, flags := iv, uint32(0)
	switch {
	case !cfg.Key.IsEmpty():
		key, flags = keyWords(cfg.Key.Bytes()), flagKeyedHash
	case cfg.DeriveKeyContext != "":
		key, flags = contextKey(cfg.DeriveKeyContext), flagDeriveKeyMaterial
	}

	salt, pers := keyWords(cfg.Salt), keyWords(cfg.Personalization)
	for i := range key {
		key[i] ^= salt[i] ^ pers[i]
	}
	return newHasher(key, flags), nil
}

func (h *Hasher) pushChunk(cv [8]uint32, total uint64) {
	for total&1 == 0 {
		h.stackLen--
		p := parentOutput(h.stack[h.stackLen], cv, h.key, h.flags)
		cv = p.chainingValue()
		total >>= 1
	}
	h.stack[h.stackLen] = cv
	h.stackLen++
}

// Write absorbs p. It never fails.
func (h *Hasher) Write(p []byte) (int, error) {
	n := len(p)
	for len(p) > 0 {
		if h.chunk.len() == chunkLen {
			out := h.chunk.output()
			next := h.chunk.counter + 1
			h.pushChunk(out.chainingValue(), next)
			h.chunk = newChunkState(h.key, next, h.flags)
		}
		take := chunkLen - h.chunk.len()
		if take > len(p) {
			take = len(p)
		}
		h.chunk.update(p[:take])
		p = p[take:]
	}
	return n, nil
}

func (h *Hasher) finalOutput() output {
	out := h.chunk.output()
	for i := h.stackLen - 1; i >= 0; i-- {
		out = parentOutput(h.stack[i], out.chainingValue(), h.key, h.flags)
	}
	return out
}

// Sum appends the 32-byte hash to b without changing the state.
func (h *Hasher) Sum(b []byte) []byte {
	var out [outLen]byte
	o := h.finalOutput()
	o.rootBytes(out[:], 0)
	return append(b, out[:]...)
}

// Reset returns the hasher to its initial state, keeping its mode.
func (h *Hasher) Reset() {
	h.chunk = newChunkState(h.key, 0, h.flags)
	h.stackLen = 0
}

func (h *Hasher) Size() int { return outLen }

func (h *Hasher) BlockSize() int { return blockLen }

// Clone returns an independent copy of h.
func (h *Hasher) Clone() *Hasher {
	c := *h
	return &c
}

// Digest returns a reader over the extendable output of the current
// state. Later writes to h do not affect it.
func (h *Hasher) Digest() *Digest {
	return &Digest{o: h.finalOutput()}
}

// Digest reads extendable output.
type Digest struct {
	o   output
	pos uint64
}

func (d *Digest) Read(p []byte) (int, error) {
	n := len(p)
	for len(p) > 0 {
		var block [blockLen]byte
		d.o.rootBytes(block[:], d.pos/blockLen)
		c := copy(p, block[d.pos%blockLen:])
		p = p[c:]
		d.pos += uint64(c)
	}
	return n, nil
}

// Seek moves the read position. Only io.SeekStart and io.SeekCurrent are
// supported since the stream has no end.
func (d *Digest) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(d.pos) + offset
	default:
		return 0, fmt.Errorf("blake3: unsupported whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("blake3: negative position %d", abs)
	}
	d.pos = uint64(abs)
	return abs, nil
}

// Sum256 returns the default-mode hash of p.
func Sum256(p []byte) [outLen]byte {
	h := New()
	h.Write(p)
	var out [outLen]byte
	o := h.finalOutput()
	o.rootBytes(out[:], 0)
	return out
}

// xof is the state a Core drives: either a Hasher or, for the standard
// modes, the assembly-accelerated zeebo hasher.
type xof interface {
	Write(p []byte) (int, error)
	read(out []byte)
	clone() xof
}

type ownXOF struct{ *Hasher }

func (x ownXOF) read(out []byte) { x.Digest().Read(out) }
func (x ownXOF) clone() xof { return ownXOF{x.Clone()} }

type fastXOF struct{ *zeebo.Hasher }

func (x fastXOF) read(out []byte) { x.Digest().Read(out) }
func (x fastXOF) clone() xof { return fastXOF{x.Clone()} }

func newFast(cfg *config.Blake3Config) (xof, error) {
	switch {
	case !cfg.Key.IsEmpty():
		h, err := zeebo.NewKeyed(cfg.Key.Bytes())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", config.ErrInvalidParameter, err)
		}
		return fastXOF{h}, nil
	case cfg.DeriveKeyContext != "":
		return fastXOF{zeebo.NewDeriveKey(cfg.DeriveKeyContext)}, nil
	}
	return fastXOF{zeebo.New()}, nil
}

// Core adapts BLAKE3 to the block transformer. Its output length comes
// from the config and may exceed 256 bits.
type Core struct {
	x    xof
	bits int
}

// NewCore validates cfg and returns an empty core.
func NewCore(cfg *config.Blake3Config) (*Core, error) {
	if cfg == nil {
		cfg = config.DefaultBlake3Config()
	}
	if err := cfg.Validate(); err != nil {
		logger.Debug("rejected blake3 config", "err", err)
		return nil, err
	}

	if len(cfg.Salt) == 0 && len(cfg.Personalization) == 0 {
		x, err := newFast(cfg)
		if err != nil {
			return nil, err
		}
		return &Core{x: x, bits: cfg.HashSizeInBits}, nil
	}

	h, err := NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &Core{x: ownXOF{h}, bits: cfg.HashSizeInBits}, nil
}

func (c *Core) BlockSize() int {
	return chunkLen
}

func (c *Core) TransformBlock(block []byte) {
	c.x.Write(block)
}

func (c *Core) TransformBlocks(blocks []byte) {
	c.x.Write(blocks)
}

func (c *Core) FinalizeBlock(remainder []byte) (hashvalue.HashValue, error) {
	c.x.Write(remainder)
	out := make([]byte, c.bits/8)
	c.x.read(out)
	return hashvalue.New(out, c.bits, hashvalue.NotApplicable)
}

func (c *Core) Clone() (transformer.Core, error) {
	return &Core{x: c.x.clone(), bits: c.bits}, nil
}
