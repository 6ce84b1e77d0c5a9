// Package rapidhash implements the RapidHash 64-bit mixing hash in its
// standard (112-byte blocks, 7 lanes), micro (80/5) and nano (48/3)
// geometries, as one-shot functions and as a streaming core.
package rapidhash

import "encoding/binary"

var secret = [8]uint64{
	0x2d358dccaa6c78a5,
	0x8bb84b93962eacc9,
	0x4b33a62ed433d4a3,
	0x4d5a2da51de1aa47,
	0xa0761d6478bd642f,
	0xe7037ed1a0b428db,
	0x90ed1765281c388c,
	0xaaaaaaaaaaaaaaaa,
}

// tailSecret is the secret index used by each 16-byte step over the tail.
var tailSecret = [6]int{2, 2, 1, 1, 2, 1}

// geometry describes one block layout.
type geometry struct {
	block int
	lanes int
}

var (
	standard = geometry{block: 112, lanes: 7}
	micro    = geometry{block: 80, lanes: 5}
	nano     = geometry{block: 48, lanes: 3}
)

// mum returns the 128-bit product of a and b as (low, high). The product is
// assembled from 32-bit halves so it behaves the same on every platform.
func mum(a, b uint64) (lo, hi uint64) {
	aLo, aHi := a&0xffffffff, a>>32
	bLo, bHi := b&0xffffffff, b>>32

	ll := aLo * bLo
	lh := aLo * bHi
	hl := aHi * bLo
	hh := aHi * bHi

	mid := ll>>32 + lh&0xffffffff + hl&0xffffffff
	lo = ll&0xffffffff | mid<<32
	hi = hh + lh>>32 + hl>>32 + mid>>32
	return lo, hi
}

func mix(a, b uint64) uint64 {
	lo, hi := mum(a, b)
	return lo ^ hi
}

func r64(p []byte) uint64 { return binary.LittleEndian.Uint64(p) }
func r32(p []byte) uint64 { return uint64(binary.LittleEndian.Uint32(p)) }

func prelude(seed uint64) uint64 {
	return seed ^ mix(seed^secret[2], secret[1])
}

// mixLanes folds one block into the lane accumulators.
func mixLanes(lanes []uint64, block []byte) {
	for j := range lanes {
		off := 16 * j
		lanes[j] = mix(r64(block[off:])^secret[j], r64(block[off+8:])^lanes[j])
	}
}

// short finishes inputs of at most 16 bytes.
func short(p []byte, seed uint64) uint64 {
	n := len(p)
	var a, b uint64
	switch {
	case n >= 8:
		seed ^= uint64(n)
		a, b = r64(p), r64(p[n-8:])
	case n >= 4:
		seed ^= uint64(n)
		a, b = r32(p), r32(p[n-4:])
	case n > 0:
		a = uint64(p[0])<<45 | uint64(p[n-1])
		b = uint64(p[n>>1])
	}
	return finish(a, b, seed, uint64(n))
}

// tail finishes longer inputs. tail holds the final 1..block bytes; back
// holds at least the 16 bytes in front of it when tail is shorter than that.
func tail(g geometry, seed uint64, back, t []byte) uint64 {
	i := len(t)
	for k := 0; k < g.block/16-1 && i > 16*(k+1); k++ {
		off := 16 * k
		seed = mix(r64(t[off:])^secret[tailSecret[k]], r64(t[off+8:])^seed)
	}

	var last [16]byte
	if i >= 16 {
		copy(last[:], t[i-16:])
	} else {
		copy(last[:], back[len(back)-(16-i):])
		copy(last[16-i:], t)
	}
	a := r64(last[:]) ^ uint64(i)
	b := r64(last[8:])
	return finish(a, b, seed, uint64(i))
}

func finish(a, b, seed, i uint64) uint64 {
	a ^= secret[1]
	b ^= seed
	a, b = mum(a, b)
	return mix(a^secret[7], b^secret[1]^i)
}

func sum(g geometry, p []byte, seed uint64) uint64 {
	seed = prelude(seed)
	if len(p) <= 16 {
		return short(p, seed)
	}

	off := 0
	if len(p) > g.block {
		lanes := make([]uint64, g.lanes)
		for j := range lanes {
			lanes[j] = seed
		}
		for len(p)-off > g.block {
			mixLanes(lanes, p[off:off+g.block])
			off += g.block
		}
		seed = 0
		for _, l := range lanes {
			seed ^= l
		}
	}
	return tail(g, seed, p[:off], p[off:])
}

// Sum64 returns the standard RapidHash of p.
func Sum64(p []byte, seed uint64) uint64 {
	return sum(standard, p, seed)
}

// Sum64Micro returns RapidHash-Micro of p.
func Sum64Micro(p []byte, seed uint64) uint64 {
	return sum(micro, p, seed)
}

// Sum64Nano returns RapidHash-Nano of p.
func Sum64Nano(p []byte, seed uint64) uint64 {
	return sum(nano, p, seed)
}
