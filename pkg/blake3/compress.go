package blake3

import (
	"encoding/binary"
	"math/bits"
)

const (
	blockLen = 64
	chunkLen = 1024
	outLen   = 32
	keyLen   = 32
	rounds   = 7
)

const (
	flagChunkStart uint32 = 1 << iota
	flagChunkEnd
	flagParent
	flagRoot
	flagKeyedHash
	flagDeriveKeyContext
	flagDeriveKeyMaterial
)

var iv = [8]uint32{
	0x6a09e667, 0xbb67ae85, 0x3c6ef372, 0xa54ff53a,
	0x510e527f, 0x9b05688c, 0x1f83d9ab, 0x5be0cd19,
}

var msgPermutation = [16]int{2, 6, 3, 10, 7, 0, 4, 13, 1, 11, 12, 5, 9, 14, 15, 8}

// schedule[r][i] is the message word fed to position i in round r.
var schedule = buildSchedule()

func buildSchedule() [rounds][16]int {
	var s [rounds][16]int
	for i := range s[0] {
		s[0][i] = i
	}
	for r := 1; r < rounds; r++ {
		for i := range s[r] {
			s[r][i] = s[r-1][msgPermutation[i]]
		}
	}
	return s
}

func g(s *[16]uint32, a, b, c, d int, mx, my uint32) {
	s[a] += s[b] + mx
	s[d] = bits.RotateLeft32(s[d]^s[a], -16)
	s[c] += s[d]
	s[b] = bits.RotateLeft32(s[b]^s[c], -12)
	s[a] += s[b] + my
	s[d] = bits.RotateLeft32(s[d]^s[a], -8)
	s[c] += s[d]
	s[b] = bits.RotateLeft32(s[b]^s[c], -7)
}

func compress(cv *[8]uint32, block *[16]uint32, counter uint64, n uint32, flags uint32) [16]uint32 {
	s := [16]uint32{
		cv[0], cv[1], cv[2], cv[3], cv[4], cv[5], cv[6], cv[7],
		iv[0], iv[1], iv[2], iv[3],
		uint32(counter), uint32(counter >> 32), n, flags,
	}
	for r := 0; r < rounds; r++ {
		m := &schedule[r]
		g(&s, 0, 4, 8, 12, block[m[0]], block[m[1]])
		g(&s, 1, 5, 9, 13, block[m[2]], block[m[3]])
		g(&s, 2, 6, 10, 14, block[m[4]], block[m[5]])
		g(&s, 3, 7, 11, 15, block[m[6]], block[m[7]])
		g(&s, 0, 5, 10, 15, block[m[8]], block[m[9]])
		g(&s, 1, 6, 11, 12, block[m[10]], block[m[11]])
		g(&s, 2, 7, 8, 13, block[m[12]], block[m[13]])
		g(&s, 3, 4, 9, 14, block[m[14]], block[m[15]])
	}
	for i := 0; i < 8; i++ {
		s[i] ^= s[i+8]
		s[i+8] ^= cv[i]
	}
	return s
}

func first8(s [16]uint32) [8]uint32 {
	return [8]uint32{s[0], s[1], s[2], s[3], s[4], s[5], s[6], s[7]}
}

// blockWords reads up to 64 bytes as little-endian words, zero-padded.
func blockWords(p []byte) [16]uint32 {
	var buf [blockLen]byte
	copy(buf[:], p)
	var w [16]uint32
	for i := range w {
		w[i] = binary.LittleEndian.Uint32(buf[4*i:])
	}
	return w
}

// keyWords reads up to 32 bytes as little-endian words, zero-padded.
func keyWords(p []byte) [8]uint32 {
	var buf [keyLen]byte
	copy(buf[:], p)
	var w [8]uint32
	for i := range w {
		w[i] = binary.LittleEndian.Uint32(buf[4*i:])
	}
	return w
}

// output is a node whose compression has not been run yet: as a chaining
// value for its parent, or as the root with an output counter.
type output struct {
	cv      [8]uint32
	block   [16]uint32
	counter uint64
	n       uint32
	flags   uint32
}

func (o *output) chainingValue() [8]uint32 {
	return first8(compress(&o.cv, &o.block, o.counter, o.n, o.flags))
}

// rootBytes fills out with root output starting at output block index
// first.
func (o *output) rootBytes(out []byte, first uint64) {
	counter := first
	for len(out) > 0 {
		words := compress(&o.cv, &o.block, counter, o.n, o.flags|flagRoot)
		var buf [blockLen]byte
		for i, w := range words {
			binary.LittleEndian.PutUint32(buf[4*i:], w)
		}
		out = out[copy(out, buf[:]):]
		counter++
	}
}

func parentOutput(left, right [8]uint32, key [8]uint32, flags uint32) output {
	var block [16]uint32
	copy(block[:8], left[:])
	copy(block[8:], right[:])
	return output{cv: key, block: block, n: blockLen, flags: flags | flagParent}
}
