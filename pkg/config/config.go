// Package config holds the parameter structs accepted by hashkit's
// algorithm constructors. Configs are plain values: constructors Clone them
// on hand-off and Validate them once, so later changes by the caller never
// reach a running hash.
package config

import (
	"bytes"
	"errors"
	"fmt"
)

var (
	// ErrInvalidHashSize is returned for an output size an algorithm does not
	// support.
	ErrInvalidHashSize = errors.New("invalid hash size")
	// ErrInvalidParameter is returned for any other out-of-range parameter.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// CityHashConfig selects a CityHash variant.
//
// Seeds: none selects the unseeded function. For 64-bit output one seed
// selects Hash64WithSeed and two select Hash64WithSeeds. For 128-bit output
// two seeds form the 128-bit seed (low, high). 32-bit CityHash is unseeded.
type CityHashConfig struct {
	HashSizeInBits int
	Seeds          []uint64
}

// DefaultCityHashConfig returns the unseeded 64-bit configuration.
func DefaultCityHashConfig() *CityHashConfig {
	return &CityHashConfig{HashSizeInBits: 64}
}

func (c *CityHashConfig) Clone() *CityHashConfig {
	out := *c
	out.Seeds = append([]uint64(nil), c.Seeds...)
	return &out
}

func (c *CityHashConfig) Validate() error {
	switch c.HashSizeInBits {
	case 32:
		if len(c.Seeds) != 0 {
			return fmt.Errorf("%w: cityhash32 takes no seed, got %d", ErrInvalidParameter, len(c.Seeds))
		}
	case 64:
		if len(c.Seeds) > 2 {
			return fmt.Errorf("%w: cityhash64 takes at most 2 seeds, got %d", ErrInvalidParameter, len(c.Seeds))
		}
	case 128:
		if len(c.Seeds) != 0 && len(c.Seeds) != 2 {
			return fmt.Errorf("%w: cityhash128 takes 0 or 2 seeds, got %d", ErrInvalidParameter, len(c.Seeds))
		}
	default:
		return fmt.Errorf("%w: cityhash supports 32, 64 or 128 bits, got %d", ErrInvalidHashSize, c.HashSizeInBits)
	}
	return nil
}

// RapidHashVariant selects the block geometry of RapidHash.
type RapidHashVariant int

const (
	// RapidHashStandard mixes 112-byte blocks over 7 lanes.
	RapidHashStandard RapidHashVariant = iota
	// RapidHashMicro mixes 80-byte blocks over 5 lanes.
	RapidHashMicro
	// RapidHashNano mixes 48-byte blocks over 3 lanes.
	RapidHashNano
)

func (v RapidHashVariant) String() string {
	switch v {
	case RapidHashStandard:
		return "standard"
	case RapidHashMicro:
		return "micro"
	case RapidHashNano:
		return "nano"
	default:
		return fmt.Sprintf("RapidHashVariant(%d)", int(v))
	}
}

// RapidHashConfig configures RapidHash. Output is always 64 bits.
type RapidHashConfig struct {
	Seed    uint64
	Variant RapidHashVariant
}

func DefaultRapidHashConfig() *RapidHashConfig {
	return &RapidHashConfig{}
}

func (c *RapidHashConfig) Clone() *RapidHashConfig {
	out := *c
	return &out
}

func (c *RapidHashConfig) Validate() error {
	if c.Variant < RapidHashStandard || c.Variant > RapidHashNano {
		return fmt.Errorf("%w: unknown rapidhash variant %d", ErrInvalidParameter, c.Variant)
	}
	return nil
}

// Blake3 parameter limits.
const (
	Blake3KeySize       = 32
	Blake3MaxSaltSize   = 32
	Blake3MaxPersonSize = 32
	Blake3DefaultBits   = 256
)

// Blake3Config configures BLAKE3.
//
// HashSizeInBits may be any positive multiple of 8; sizes above 256 use the
// extendable output. Key selects keyed mode and DeriveKeyContext selects
// key derivation; the two are exclusive. Salt and Personalization are mixed
// into the initial chaining value and leave standard output unchanged when
// empty.
type Blake3Config struct {
	HashSizeInBits   int
	Key              *Secret
	Salt             []byte
	Personalization  []byte
	DeriveKeyContext string
}

func DefaultBlake3Config() *Blake3Config {
	return &Blake3Config{HashSizeInBits: Blake3DefaultBits}
}

func (c *Blake3Config) Clone() *Blake3Config {
	out := *c
	out.Key = c.Key.Clone()
	out.Salt = bytes.Clone(c.Salt)
	out.Personalization = bytes.Clone(c.Personalization)
	return &out
}

func (c *Blake3Config) Validate() error {
	if c.HashSizeInBits < 8 || c.HashSizeInBits%8 != 0 {
		return fmt.Errorf("%w: blake3 output must be a positive multiple of 8 bits, got %d", ErrInvalidHashSize, c.HashSizeInBits)
	}
	if !c.Key.IsEmpty() && c.Key.Len() != Blake3KeySize {
		return fmt.Errorf("%w: blake3 key must be %d bytes, got %d", ErrInvalidParameter, Blake3KeySize, c.Key.Len())
	}
	if len(c.Salt) > Blake3MaxSaltSize {
		return fmt.Errorf("%w: blake3 salt must be at most %d bytes, got %d", ErrInvalidParameter, Blake3MaxSaltSize, len(c.Salt))
	}
	if len(c.Personalization) > Blake3MaxPersonSize {
		return fmt.Errorf("%w: blake3 personalization must be at most %d bytes, got %d", ErrInvalidParameter, Blake3MaxPersonSize, len(c.Personalization))
	}
	if !c.Key.IsEmpty() && c.DeriveKeyContext != "" {
		return fmt.Errorf("%w: blake3 key and derive-key context are exclusive", ErrInvalidParameter)
	}
	return nil
}

// CRCConfig is a CRC parameter set in the Rocksoft model. It doubles as the
// document format for profile files.
type CRCConfig struct {
	Name       string `yaml:"name"`
	Width      int    `yaml:"width"`
	Polynomial uint64 `yaml:"poly"`
	Init       uint64 `yaml:"init"`
	ReflectIn  bool   `yaml:"refin"`
	ReflectOut bool   `yaml:"refout"`
	XorOut     uint64 `yaml:"xorout"`
	Check      uint64 `yaml:"check"`
}

func (c *CRCConfig) Clone() *CRCConfig {
	out := *c
	return &out
}

// Mask returns the bit mask covering Width bits.
func (c *CRCConfig) Mask() uint64 {
	if c.Width >= 64 {
		return ^uint64(0)
	}
	return uint64(1)<<c.Width - 1
}

func (c *CRCConfig) Validate() error {
	if c.Width < 1 || c.Width > 64 {
		return fmt.Errorf("%w: crc width must be in 1..64, got %d", ErrInvalidHashSize, c.Width)
	}
	mask := c.Mask()
	for _, p := range []struct {
		name  string
		value uint64
	}{
		{"poly", c.Polynomial},
		{"init", c.Init},
		{"xorout", c.XorOut},
		{"check", c.Check},
	} {
		if p.value&^mask != 0 {
			return fmt.Errorf("%w: crc %s %#x is wider than %d bits", ErrInvalidParameter, p.name, p.value, c.Width)
		}
	}
	if c.Polynomial&1 == 0 {
		return fmt.Errorf("%w: crc poly %#x must have its lowest bit set", ErrInvalidParameter, c.Polynomial)
	}
	return nil
}

// KeyedConfig configures library-backed keyed hashes (HMAC, SipHash,
// keyed BLAKE2).
type KeyedConfig struct {
	Key *Secret
}

func (c *KeyedConfig) Clone() *KeyedConfig {
	return &KeyedConfig{Key: c.Key.Clone()}
}

func (c *KeyedConfig) Validate() error {
	if c.Key.IsEmpty() {
		return fmt.Errorf("%w: a key is required", ErrInvalidParameter)
	}
	return nil
}

// Argon2Config configures Argon2id when used as a password hash.
type Argon2Config struct {
	Salt      []byte
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
	KeyLen    uint32
}

// DefaultArgon2Config returns the RFC 9106 second recommended option with a
// fixed, non-secret salt.
func DefaultArgon2Config() *Argon2Config {
	return &Argon2Config{
		Salt:      []byte("hashkit-argon2id"),
		Time:      3,
		MemoryKiB: 64 * 1024,
		Threads:   4,
		KeyLen:    32,
	}
}

func (c *Argon2Config) Clone() *Argon2Config {
	out := *c
	out.Salt = bytes.Clone(c.Salt)
	return &out
}

func (c *Argon2Config) Validate() error {
	switch {
	case len(c.Salt) < 8:
		return fmt.Errorf("%w: argon2 salt must be at least 8 bytes, got %d", ErrInvalidParameter, len(c.Salt))
	case c.Time < 1:
		return fmt.Errorf("%w: argon2 time must be >= 1", ErrInvalidParameter)
	case c.Threads < 1:
		return fmt.Errorf("%w: argon2 threads must be >= 1", ErrInvalidParameter)
	case c.MemoryKiB < 8*uint32(c.Threads):
		return fmt.Errorf("%w: argon2 memory must be >= 8*threads KiB, got %d", ErrInvalidParameter, c.MemoryKiB)
	case c.KeyLen < 4:
		return fmt.Errorf("%w: argon2 key length must be >= 4, got %d", ErrInvalidHashSize, c.KeyLen)
	}
	return nil
}

// ScryptConfig configures scrypt when used as a password hash.
type ScryptConfig struct {
	Salt   []byte
	N      int
	R      int
	P      int
	KeyLen int
}

// DefaultScryptConfig returns the interactive-login parameters from the
// scrypt paper with a fixed, non-secret salt.
func DefaultScryptConfig() *ScryptConfig {
	return &ScryptConfig{
		Salt:   []byte("hashkit-scrypt"),
		N:      32768,
		R:      8,
		P:      1,
		KeyLen: 32,
	}
}

func (c *ScryptConfig) Clone() *ScryptConfig {
	out := *c
	out.Salt = bytes.Clone(c.Salt)
	return &out
}

func (c *ScryptConfig) Validate() error {
	switch {
	case len(c.Salt) < 8:
		return fmt.Errorf("%w: scrypt salt must be at least 8 bytes, got %d", ErrInvalidParameter, len(c.Salt))
	case c.N < 2 || c.N&(c.N-1) != 0:
		return fmt.Errorf("%w: scrypt N must be a power of two > 1, got %d", ErrInvalidParameter, c.N)
	case c.R < 1 || c.P < 1:
		return fmt.Errorf("%w: scrypt r and p must be >= 1", ErrInvalidParameter)
	case c.KeyLen < 1:
		return fmt.Errorf("%w: scrypt key length must be >= 1, got %d", ErrInvalidHashSize, c.KeyLen)
	}
	return nil
}

// PBKDF2Config configures PBKDF2-HMAC-SHA512.
type PBKDF2Config struct {
	Salt       []byte
	Iterations int
	KeyLen     int
}

func DefaultPBKDF2Config() *PBKDF2Config {
	return &PBKDF2Config{
		Salt:       []byte("hashkit-pbkdf2"),
		Iterations: 100000,
		KeyLen:     32,
	}
}

func (c *PBKDF2Config) Clone() *PBKDF2Config {
	out := *c
	out.Salt = bytes.Clone(c.Salt)
	return &out
}

func (c *PBKDF2Config) Validate() error {
	switch {
	case len(c.Salt) < 8:
		return fmt.Errorf("%w: pbkdf2 salt must be at least 8 bytes, got %d", ErrInvalidParameter, len(c.Salt))
	case c.Iterations < 1:
		return fmt.Errorf("%w: pbkdf2 iterations must be >= 1", ErrInvalidParameter)
	case c.KeyLen < 1:
		return fmt.Errorf("%w: pbkdf2 key length must be >= 1, got %d", ErrInvalidHashSize, c.KeyLen)
	}
	return nil
}

// Bcrypt limits.
const (
	BcryptSaltSize = 16
	BcryptMinCost  = 4
	BcryptMaxCost  = 31
)

// BcryptConfig configures bcrypt. The salt is fixed so that equal input
// gives equal output.
type BcryptConfig struct {
	Salt []byte
	Cost int
}

func DefaultBcryptConfig() *BcryptConfig {
	return &BcryptConfig{Salt: []byte("hashkit-bcrypt16"), Cost: 10}
}

func (c *BcryptConfig) Clone() *BcryptConfig {
	out := *c
	out.Salt = bytes.Clone(c.Salt)
	return &out
}

func (c *BcryptConfig) Validate() error {
	switch {
	case len(c.Salt) != BcryptSaltSize:
		return fmt.Errorf("%w: bcrypt salt must be %d bytes, got %d", ErrInvalidParameter, BcryptSaltSize, len(c.Salt))
	case c.Cost < BcryptMinCost || c.Cost > BcryptMaxCost:
		return fmt.Errorf("%w: bcrypt cost must be in %d..%d, got %d", ErrInvalidParameter, BcryptMinCost, BcryptMaxCost, c.Cost)
	}
	return nil
}
