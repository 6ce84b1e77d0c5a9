package rapidhash

import (
	"encoding/binary"
	"fmt"

	"github.com/guilt/hashkit/pkg/config"
	"github.com/guilt/hashkit/pkg/hashvalue"
	"github.com/guilt/hashkit/pkg/log"
	"github.com/guilt/hashkit/pkg/transformer"
)

var logger = log.Named("rapidhash")

// Core streams RapidHash.
//
// The one-shot function treats the final block specially even when the
// input is an exact multiple of the block size, so the core holds each
// block back until it knows another byte follows it.
type Core struct {
	g       geometry
	seed    uint64
	lanes   []uint64 // nil until the first block is mixed
	pending []byte   // holds the most recent full block while held is set
	held    bool
	prev16  [16]byte // last 16 bytes of the most recently mixed block
}

func geometryFor(v config.RapidHashVariant) (geometry, error) {
	switch v {
	case config.RapidHashStandard:
		return standard, nil
	case config.RapidHashMicro:
		return micro, nil
	case config.RapidHashNano:
		return nano, nil
	}
	return geometry{}, fmt.Errorf("%w: unknown rapidhash variant %d", config.ErrInvalidParameter, v)
}

// NewCore validates cfg and returns an empty core.
func NewCore(cfg *config.RapidHashConfig) (*Core, error) {
	if cfg == nil {
		cfg = config.DefaultRapidHashConfig()
	}
	if err := cfg.Validate(); err != nil {
		logger.Debug("rejected rapidhash config", "err", err)
		return nil, err
	}
	g, err := geometryFor(cfg.Variant)
	if err != nil {
		return nil, err
	}
	return &Core{g: g, seed: prelude(cfg.Seed), pending: make([]byte, g.block)}, nil
}

func (c *Core) BlockSize() int {
	return c.g.block
}

func (c *Core) mixBlock(block []byte) {
	if c.lanes == nil {
		c.lanes = make([]uint64, c.g.lanes)
		for j := range c.lanes {
			c.lanes[j] = c.seed
		}
	}
	mixLanes(c.lanes, block)
	copy(c.prev16[:], block[len(block)-16:])
}

func (c *Core) mixPending() {
	if !c.held {
		return
	}
	c.mixBlock(c.pending)
	c.held = false
}

func (c *Core) TransformBlock(block []byte) {
	c.mixPending()
	copy(c.pending, block)
	c.held = true
}

// TransformBlocks mixes every block but the last straight from blocks and
// holds the last one back.
func (c *Core) TransformBlocks(blocks []byte) {
	if len(blocks) == 0 {
		return
	}
	c.mixPending()
	last := len(blocks) - c.g.block
	for off := 0; off < last; off += c.g.block {
		c.mixBlock(blocks[off : off+c.g.block])
	}
	copy(c.pending, blocks[last:])
	c.held = true
}

func (c *Core) FinalizeBlock(remainder []byte) (hashvalue.HashValue, error) {
	var t []byte
	switch {
	case len(remainder) > 0:
		c.mixPending()
		t = remainder
	case c.held:
		t = c.pending
	}

	var h uint64
	switch {
	case c.lanes == nil && len(t) <= 16:
		h = short(t, c.seed)
	case c.lanes == nil:
		h = tail(c.g, c.seed, nil, t)
	default:
		var folded uint64
		for _, l := range c.lanes {
			folded ^= l
		}
		h = tail(c.g, folded, c.prev16[:], t)
	}

	c.held = false
	return hashvalue.New(binary.LittleEndian.AppendUint64(nil, h), 64, hashvalue.LittleEndian)
}

func (c *Core) Clone() (transformer.Core, error) {
	clone := *c
	if c.lanes != nil {
		clone.lanes = append([]uint64(nil), c.lanes...)
	}
	clone.pending = append([]byte(nil), c.pending...)
	return &clone, nil
}
