// Package hashvalue provides HashValue, the immutable result of every hash
// computation in hashkit, together with its numeric and textual renderings.
//
// A HashValue is a byte sequence, a bit length and an endianness tag. The
// byte sequence always holds exactly ceil(bitLength/8) bytes. Values are
// never mutated: every transformation returns a fresh value and accessors
// hand out copies.
package hashvalue

import (
	"bytes"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
)

var (
	// ErrInvalidLength is returned when a byte sequence does not match the
	// requested bit length, or a slice range falls outside the value.
	ErrInvalidLength = errors.New("hashvalue: invalid length")
	// ErrUnsupportedSize is returned by conversions whose target width does
	// not fit the value's bit length.
	ErrUnsupportedSize = errors.New("hashvalue: unsupported size")
	// ErrBitLengthMismatch is returned when ordering values of different
	// bit lengths.
	ErrBitLengthMismatch = errors.New("hashvalue: bit length mismatch")
)

// Endianness tags how the bytes of a value map onto an integer.
type Endianness int

const (
	// NotApplicable marks byte-oriented digests (SHA-2, BLAKE3, ...).
	NotApplicable Endianness = iota
	// LittleEndian marks values emitted least significant byte first.
	LittleEndian
	// BigEndian marks values emitted most significant byte first.
	BigEndian
)

func (e Endianness) String() string {
	switch e {
	case LittleEndian:
		return "little-endian"
	case BigEndian:
		return "big-endian"
	default:
		return "not-applicable"
	}
}

// HashValue is an immutable hash result.
type HashValue struct {
	hash       []byte
	bitLength  int
	endianness Endianness
}

// New returns a HashValue holding a copy of hash. It fails when bitLength is
// not positive or len(hash) != ceil(bitLength/8).
func New(hash []byte, bitLength int, endianness Endianness) (HashValue, error) {
	if bitLength < 1 {
		return HashValue{}, fmt.Errorf("%w: bit length must be >= 1, got %d", ErrInvalidLength, bitLength)
	}
	if want := byteLen(bitLength); len(hash) != want {
		return HashValue{}, fmt.Errorf("%w: %d bits need %d bytes, got %d", ErrInvalidLength, bitLength, want, len(hash))
	}
	if endianness < NotApplicable || endianness > BigEndian {
		return HashValue{}, fmt.Errorf("hashvalue: unknown endianness %d", endianness)
	}

	return HashValue{
		hash:       bytes.Clone(hash),
		bitLength:  bitLength,
		endianness: endianness,
	}, nil
}

// FromBytes returns a HashValue of 8*len(hash) bits.
func FromBytes(hash []byte, endianness Endianness) (HashValue, error) {
	return New(hash, len(hash)*8, endianness)
}

func byteLen(bits int) int {
	return (bits + 7) / 8
}

// Bytes returns a copy of the hash bytes.
func (v HashValue) Bytes() []byte {
	return bytes.Clone(v.hash)
}

// BitLength returns the number of significant bits.
func (v HashValue) BitLength() int {
	return v.bitLength
}

// ByteLength returns len(Bytes()).
func (v HashValue) ByteLength() int {
	return len(v.hash)
}

// Endianness returns the endianness tag.
func (v HashValue) Endianness() Endianness {
	return v.endianness
}

// String renders the value as lowercase hex.
func (v HashValue) String() string {
	return v.Hex()
}

// Equal reports whether v and other carry the same bit length and bytes.
// The byte comparison runs in time independent of the contents.
func (v HashValue) Equal(other HashValue) bool {
	if v.bitLength != other.bitLength {
		return false
	}
	return subtle.ConstantTimeCompare(v.hash, other.hash) == 1
}

// Compare orders two values of equal bit length by their bytes.
func (v HashValue) Compare(other HashValue) (int, error) {
	if v.bitLength != other.bitLength {
		return 0, fmt.Errorf("%w: %d vs %d bits", ErrBitLengthMismatch, v.bitLength, other.bitLength)
	}
	return bytes.Compare(v.hash, other.hash), nil
}

// Coerce returns a value of bitLength bits: the bytes are truncated or
// zero-extended at the end, and unused high bits of the last byte cleared.
func (v HashValue) Coerce(bitLength int) (HashValue, error) {
	if bitLength < 1 {
		return HashValue{}, fmt.Errorf("%w: bit length must be >= 1, got %d", ErrInvalidLength, bitLength)
	}
	out := make([]byte, byteLen(bitLength))
	copy(out, v.hash)
	if rem := bitLength % 8; rem != 0 {
		out[len(out)-1] &= byte(0xff >> (8 - rem))
	}
	return HashValue{hash: out, bitLength: bitLength, endianness: v.endianness}, nil
}

// ReverseEndianness returns the value with its bytes reversed and its tag
// swapped. NotApplicable values keep their tag.
func (v HashValue) ReverseEndianness() HashValue {
	out := reversed(v.hash)
	e := v.endianness
	switch e {
	case LittleEndian:
		e = BigEndian
	case BigEndian:
		e = LittleEndian
	}
	return HashValue{hash: out, bitLength: v.bitLength, endianness: e}
}

// AsBigEndian returns v in big-endian byte order. Values tagged BigEndian or
// NotApplicable are returned unchanged.
func (v HashValue) AsBigEndian() HashValue {
	if v.endianness == LittleEndian {
		return v.ReverseEndianness()
	}
	return v
}

// AsLittleEndian returns v in little-endian byte order. Values tagged
// LittleEndian or NotApplicable are returned unchanged.
func (v HashValue) AsLittleEndian() HashValue {
	if v.endianness == BigEndian {
		return v.ReverseEndianness()
	}
	return v
}

// Slice returns bytes [start, end) as a new value of 8*(end-start) bits.
func (v HashValue) Slice(start, end int) (HashValue, error) {
	if start < 0 || end > len(v.hash) || start >= end {
		return HashValue{}, fmt.Errorf("%w: slice [%d:%d] of %d bytes", ErrInvalidLength, start, end, len(v.hash))
	}
	return HashValue{
		hash:       bytes.Clone(v.hash[start:end]),
		bitLength:  (end - start) * 8,
		endianness: v.endianness,
	}, nil
}

func reversed(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}

// bigEndianBytes returns the bytes most significant first.
func (v HashValue) bigEndianBytes() []byte {
	if v.endianness == LittleEndian {
		return reversed(v.hash)
	}
	return v.hash
}

func (v HashValue) requireBits(bits int) error {
	if v.bitLength != bits {
		return fmt.Errorf("%w: need exactly %d bits, value has %d", ErrUnsupportedSize, bits, v.bitLength)
	}
	return nil
}

// AsUint8 returns an 8-bit value.
func (v HashValue) AsUint8() (uint8, error) {
	if err := v.requireBits(8); err != nil {
		return 0, err
	}
	return v.hash[0], nil
}

// AsUint16 returns a 16-bit value, honouring the endianness tag
// (NotApplicable reads big-endian).
func (v HashValue) AsUint16() (uint16, error) {
	if err := v.requireBits(16); err != nil {
		return 0, err
	}
	if v.endianness == LittleEndian {
		return binary.LittleEndian.Uint16(v.hash), nil
	}
	return binary.BigEndian.Uint16(v.hash), nil
}

// AsUint32 returns a 32-bit value.
func (v HashValue) AsUint32() (uint32, error) {
	if err := v.requireBits(32); err != nil {
		return 0, err
	}
	if v.endianness == LittleEndian {
		return binary.LittleEndian.Uint32(v.hash), nil
	}
	return binary.BigEndian.Uint32(v.hash), nil
}

// AsUint64 returns a 64-bit value.
func (v HashValue) AsUint64() (uint64, error) {
	if err := v.requireBits(64); err != nil {
		return 0, err
	}
	if v.endianness == LittleEndian {
		return binary.LittleEndian.Uint64(v.hash), nil
	}
	return binary.BigEndian.Uint64(v.hash), nil
}

// AsUint128 returns a 128-bit value as its high and low halves.
func (v HashValue) AsUint128() (hi, lo uint64, err error) {
	if err := v.requireBits(128); err != nil {
		return 0, 0, err
	}
	be := v.bigEndianBytes()
	return binary.BigEndian.Uint64(be[:8]), binary.BigEndian.Uint64(be[8:]), nil
}

// AsBigInt returns the value as a non-negative integer of any width.
func (v HashValue) AsBigInt() *big.Int {
	return new(big.Int).SetBytes(v.bigEndianBytes())
}

// AsUint256 returns the value as a 256-bit integer. Values wider than 256
// bits are rejected.
func (v HashValue) AsUint256() (*uint256.Int, error) {
	if v.bitLength > 256 {
		return nil, fmt.Errorf("%w: at most 256 bits fit, value has %d", ErrUnsupportedSize, v.bitLength)
	}
	return new(uint256.Int).SetBytes(v.bigEndianBytes()), nil
}

// AsGUID returns the bytes as a GUID. Values shorter than 16 bytes are
// zero-padded at the end; longer values are rejected.
func (v HashValue) AsGUID() (uuid.UUID, error) {
	if len(v.hash) > 16 {
		return uuid.Nil, fmt.Errorf("%w: a GUID holds at most 16 bytes, value has %d", ErrUnsupportedSize, len(v.hash))
	}
	var raw [16]byte
	copy(raw[:], v.hash)
	return uuid.FromBytes(raw[:])
}
