// Package crc implements a parametric CRC engine for any width from 1 to 64
// bits, described by the Rocksoft model parameters in config.CRCConfig.
package crc

import (
	"fmt"
	"math/bits"

	"github.com/guilt/hashkit/pkg/config"
	"github.com/guilt/hashkit/pkg/hashvalue"
	"github.com/guilt/hashkit/pkg/log"
	"github.com/guilt/hashkit/pkg/transformer"
)

var logger = log.Named("crc")

// Core is a transformer.Core computing one CRC.
type Core struct {
	cfg   config.CRCConfig
	mask  uint64
	table []uint64
	reg   uint64
}

// NewCore validates cfg and returns a core in its initial state.
func NewCore(cfg *config.CRCConfig) (*Core, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil crc config", config.ErrInvalidParameter)
	}
	c := cfg.Clone()
	if err := c.Validate(); err != nil {
		logger.Debug("rejected crc config", "name", c.Name, "err", err)
		return nil, err
	}

	core := &Core{
		cfg:   *c,
		mask:  c.Mask(),
		table: tableFor(c.Width, c.Polynomial, c.ReflectIn),
	}
	core.Reset()
	return core, nil
}

// Reset returns the core to its initial register value.
func (c *Core) Reset() {
	if c.cfg.ReflectIn {
		c.reg = reflect(c.cfg.Init, c.cfg.Width)
	} else {
		c.reg = c.cfg.Init
	}
}

// Config returns a copy of the core's parameters.
func (c *Core) Config() config.CRCConfig {
	return c.cfg
}

// BlockSize is 1: a CRC consumes bytes one at a time and never buffers.
func (c *Core) BlockSize() int {
	return 1
}

func (c *Core) TransformBlock(block []byte) {
	c.update(block)
}

func (c *Core) TransformBlocks(blocks []byte) {
	c.update(blocks)
}

func (c *Core) update(p []byte) {
	w := c.cfg.Width
	reg := c.reg
	t := c.table

	switch {
	case w >= 8 && c.cfg.ReflectIn:
		for _, b := range p {
			reg = reg>>8 ^ t[byte(reg)^b]
		}
	case w >= 8:
		shift := uint(w - 8)
		for _, b := range p {
			reg = (reg<<8 ^ t[byte(reg>>shift)^b]) & c.mask
		}
	case c.cfg.ReflectIn:
		for _, b := range p {
			for i := 0; i < 8; i++ {
				reg = reg>>1 ^ t[(reg^uint64(b>>i))&1]
			}
		}
	default:
		top := uint(w - 1)
		for _, b := range p {
			for i := 7; i >= 0; i-- {
				reg = (reg<<1)&c.mask ^ t[(reg>>top^uint64(b>>i))&1]
			}
		}
	}
	c.reg = reg
}

// Sum returns the CRC of everything written so far without changing state.
func (c *Core) Sum() uint64 {
	reg := c.reg
	if c.cfg.ReflectIn != c.cfg.ReflectOut {
		reg = reflect(reg, c.cfg.Width)
	}
	return (reg ^ c.cfg.XorOut) & c.mask
}

// FinalizeBlock emits ceil(width/8) bytes: little-endian for reflected
// output, big-endian otherwise.
func (c *Core) FinalizeBlock(remainder []byte) (hashvalue.HashValue, error) {
	c.update(remainder)
	sum := c.Sum()

	n := (c.cfg.Width + 7) / 8
	out := make([]byte, n)
	endianness := hashvalue.BigEndian
	if c.cfg.ReflectOut {
		endianness = hashvalue.LittleEndian
		for i := 0; i < n; i++ {
			out[i] = byte(sum >> (8 * i))
		}
	} else {
		for i := 0; i < n; i++ {
			out[n-1-i] = byte(sum >> (8 * i))
		}
	}
	return hashvalue.New(out, c.cfg.Width, endianness)
}

func (c *Core) Clone() (transformer.Core, error) {
	clone := *c
	return &clone, nil
}

// Checksum computes the CRC of data in one call.
func Checksum(cfg *config.CRCConfig, data []byte) (uint64, error) {
	c, err := NewCore(cfg)
	if err != nil {
		return 0, err
	}
	c.update(data)
	return c.Sum(), nil
}

// reflect reverses the low w bits of v.
func reflect(v uint64, w int) uint64 {
	return bits.Reverse64(v) >> (64 - w)
}
