package cityhash

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/guilt/hashkit/pkg/config"
	"github.com/guilt/hashkit/pkg/hashvalue"
	"github.com/guilt/hashkit/pkg/log"
	"github.com/guilt/hashkit/pkg/transformer"
)

var logger = log.Named("cityhash")

// Core buffers its input and hashes it at finalization.
type Core struct {
	cfg *config.CityHashConfig
	buf []byte
}

// NewCore validates cfg and returns an empty core.
func NewCore(cfg *config.CityHashConfig) (*Core, error) {
	if cfg == nil {
		cfg = config.DefaultCityHashConfig()
	}
	c := cfg.Clone()
	if err := c.Validate(); err != nil {
		logger.Debug("rejected cityhash config", "bits", c.HashSizeInBits, "err", err)
		return nil, err
	}
	return &Core{cfg: c}, nil
}

func (c *Core) BlockSize() int {
	return 1
}

func (c *Core) TransformBlock(block []byte) {
	c.buf = append(c.buf, block...)
}

func (c *Core) TransformBlocks(blocks []byte) {
	c.buf = append(c.buf, blocks...)
}

func (c *Core) FinalizeBlock(remainder []byte) (hashvalue.HashValue, error) {
	c.buf = append(c.buf, remainder...)
	out, err := c.sum(c.buf)
	c.buf = nil
	if err != nil {
		return hashvalue.HashValue{}, err
	}
	return hashvalue.New(out, c.cfg.HashSizeInBits, hashvalue.LittleEndian)
}

func (c *Core) sum(data []byte) ([]byte, error) {
	seeds := c.cfg.Seeds
	switch c.cfg.HashSizeInBits {
	case 32:
		return binary.LittleEndian.AppendUint32(nil, Hash32(data)), nil
	case 64:
		var h uint64
		switch len(seeds) {
		case 0:
			h = Hash64(data)
		case 1:
			h = Hash64WithSeed(data, seeds[0])
		default:
			h = Hash64WithSeeds(data, seeds[0], seeds[1])
		}
		return binary.LittleEndian.AppendUint64(nil, h), nil
	case 128:
		var h Uint128
		if len(seeds) == 2 {
			h = Hash128WithSeed(data, Uint128{Lo: seeds[0], Hi: seeds[1]})
		} else {
			h = Hash128(data)
		}
		out := binary.LittleEndian.AppendUint64(nil, h.Lo)
		return binary.LittleEndian.AppendUint64(out, h.Hi), nil
	}
	return nil, fmt.Errorf("%w: %d", config.ErrInvalidHashSize, c.cfg.HashSizeInBits)
}

func (c *Core) Clone() (transformer.Core, error) {
	return &Core{cfg: c.cfg.Clone(), buf: bytes.Clone(c.buf)}, nil
}
