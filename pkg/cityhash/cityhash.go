// Package cityhash implements CityHash v1.1: the 32-bit, 64-bit and 128-bit
// functions and their seeded forms.
//
// CityHash reads the end of the input before its body, so the streaming core
// buffers everything and hashes once at finalization.
package cityhash

import (
	"encoding/binary"
	"math/bits"
)

const (
	k0 = 0xc3a5c85c97cb3127
	k1 = 0xb492b66fbe98f273
	k2 = 0x9ae16a3b2f90404f

	c1 = 0xcc9e2d51
	c2 = 0x1b873593

	kMul = 0x9ddfea08eb382d69
)

// Uint128 is a 128-bit CityHash result or seed.
type Uint128 struct {
	Lo, Hi uint64
}

func fetch32(p []byte) uint32 { return binary.LittleEndian.Uint32(p) }
func fetch64(p []byte) uint64 { return binary.LittleEndian.Uint64(p) }

func rot32(v uint32, shift int) uint32 { return bits.RotateLeft32(v, -shift) }
func rot64(v uint64, shift int) uint64 { return bits.RotateLeft64(v, -shift) }

func fmix(h uint32) uint32 {
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}

func mur(a, h uint32) uint32 {
	a *= c1
	a = rot32(a, 17)
	a *= c2
	h ^= a
	h = rot32(h, 19)
	return h*5 + 0xe6546b64
}

func hash32Len0to4(s []byte) uint32 {
	var b uint32
	c := uint32(9)
	for _, v := range s {
		// bytes are mixed as signed chars
		b = b*c1 + uint32(int32(int8(v)))
		c ^= b
	}
	return fmix(mur(b, mur(uint32(len(s)), c)))
}

func hash32Len5to12(s []byte) uint32 {
	n := uint32(len(s))
	a, b, c := n, n*5, uint32(9)
	d := b
	a += fetch32(s)
	b += fetch32(s[len(s)-4:])
	c += fetch32(s[(len(s)>>1)&4:])
	return fmix(mur(c, mur(b, mur(a, d))))
}

func hash32Len13to24(s []byte) uint32 {
	n := len(s)
	a := fetch32(s[(n>>1)-4:])
	b := fetch32(s[4:])
	c := fetch32(s[n-8:])
	d := fetch32(s[n>>1:])
	e := fetch32(s)
	f := fetch32(s[n-4:])
	h := uint32(n)
	return fmix(mur(f, mur(e, mur(d, mur(c, mur(b, mur(a, h)))))))
}

// Hash32 returns the 32-bit CityHash of s.
func Hash32(s []byte) uint32 {
	n := len(s)
	switch {
	case n <= 4:
		return hash32Len0to4(s)
	case n <= 12:
		return hash32Len5to12(s)
	case n <= 24:
		return hash32Len13to24(s)
	}

	h := uint32(n)
	g := c1 * uint32(n)
	f := g
	a0 := rot32(fetch32(s[n-4:])*c1, 17) * c2
	a1 := rot32(fetch32(s[n-8:])*c1, 17) * c2
	a2 := rot32(fetch32(s[n-16:])*c1, 17) * c2
	a3 := rot32(fetch32(s[n-12:])*c1, 17) * c2
	a4 := rot32(fetch32(s[n-20:])*c1, 17) * c2
	h ^= a0
	h = rot32(h, 19)
	h = h*5 + 0xe6546b64
	h ^= a2
	h = rot32(h, 19)
	h = h*5 + 0xe6546b64
	g ^= a1
	g = rot32(g, 19)
	g = g*5 + 0xe6546b64
	g ^= a3
	g = rot32(g, 19)
	g = g*5 + 0xe6546b64
	f += a4
	f = rot32(f, 19)
	f = f*5 + 0xe6546b64

	for iters := (n - 1) / 20; iters > 0; iters-- {
		a0 := rot32(fetch32(s)*c1, 17) * c2
		a1 := fetch32(s[4:])
		a2 := rot32(fetch32(s[8:])*c1, 17) * c2
		a3 := rot32(fetch32(s[12:])*c1, 17) * c2
		a4 := fetch32(s[16:])
		h ^= a0
		h = rot32(h, 18)
		h = h*5 + 0xe6546b64
		f += a1
		f = rot32(f, 19)
		f *= c1
		g += a2
		g = rot32(g, 18)
		g = g*5 + 0xe6546b64
		h ^= a3 + a1
		h = rot32(h, 19)
		h = h*5 + 0xe6546b64
		g ^= a4
		g = bits.ReverseBytes32(g) * 5
		h += a4 * 5
		h = bits.ReverseBytes32(h)
		f += a0
		f, h, g = g, f, h
		s = s[20:]
	}

	g = rot32(g, 11) * c1
	g = rot32(g, 17) * c1
	f = rot32(f, 11) * c1
	f = rot32(f, 17) * c1
	h = rot32(h+g, 19)
	h = h*5 + 0xe6546b64
	h = rot32(h, 17) * c1
	h = rot32(h+f, 19)
	h = h*5 + 0xe6546b64
	h = rot32(h, 17) * c1
	return h
}

func shiftMix(v uint64) uint64 {
	return v ^ v>>47
}

func hashLen16Mul(u, v, mul uint64) uint64 {
	a := (u ^ v) * mul
	a ^= a >> 47
	b := (v ^ a) * mul
	b ^= b >> 47
	b *= mul
	return b
}

func hashLen16(u, v uint64) uint64 {
	return hashLen16Mul(u, v, kMul)
}

func hashLen0to16(s []byte) uint64 {
	n := len(s)
	if n >= 8 {
		mul := k2 + uint64(n)*2
		a := fetch64(s) + k2
		b := fetch64(s[n-8:])
		c := rot64(b, 37)*mul + a
		d := (rot64(a, 25) + b) * mul
		return hashLen16Mul(c, d, mul)
	}
	if n >= 4 {
		mul := k2 + uint64(n)*2
		a := uint64(fetch32(s))
		return hashLen16Mul(uint64(n)+a<<3, uint64(fetch32(s[n-4:])), mul)
	}
	if n > 0 {
		a := s[0]
		b := s[n>>1]
		c := s[n-1]
		y := uint32(a) + uint32(b)<<8
		z := uint32(n) + uint32(c)<<2
		return shiftMix(uint64(y)*k2^uint64(z)*k0) * k2
	}
	return k2
}

func hashLen17to32(s []byte) uint64 {
	n := len(s)
	mul := k2 + uint64(n)*2
	a := fetch64(s) * k1
	b := fetch64(s[8:])
	c := fetch64(s[n-8:]) * mul
	d := fetch64(s[n-16:]) * k2
	return hashLen16Mul(rot64(a+b, 43)+rot64(c, 30)+d, a+rot64(b+k2, 18)+c, mul)
}

func weakHashLen32WithSeeds(w, x, y, z, a, b uint64) (uint64, uint64) {
	a += w
	b = rot64(b+a+z, 21)
	c := a
	a += x
	a += y
	b += rot64(a, 44)
	return a + z, b + c
}

func weakHashLen32WithSeedsBytes(s []byte, a, b uint64) (uint64, uint64) {
	return weakHashLen32WithSeeds(fetch64(s), fetch64(s[8:]), fetch64(s[16:]), fetch64(s[24:]), a, b)
}

func hashLen33to64(s []byte) uint64 {
	n := len(s)
	mul := k2 + uint64(n)*2
	a := fetch64(s) * k2
	b := fetch64(s[8:])
	c := fetch64(s[n-24:])
	d := fetch64(s[n-32:])
	e := fetch64(s[16:]) * k2
	f := fetch64(s[24:]) * 9
	g := fetch64(s[n-8:])
	h := fetch64(s[n-16:]) * mul
	u := rot64(a+g, 43) + (rot64(b, 30)+c)*9
	v := ((a + g) ^ d) + f + 1
	w := bits.ReverseBytes64((u+v)*mul) + h
	x := rot64(e+f, 42) + c
	y := (bits.ReverseBytes64((v+w)*mul) + g) * mul
	z := e + f + c
	a = bits.ReverseBytes64((x+z)*mul+y) + b
	b = shiftMix((z+a)*mul+d+h) * mul
	return b + x
}

// Hash64 returns the 64-bit CityHash of s.
func Hash64(s []byte) uint64 {
	n := len(s)
	switch {
	case n <= 16:
		return hashLen0to16(s)
	case n <= 32:
		return hashLen17to32(s)
	case n <= 64:
		return hashLen33to64(s)
	}

	x := fetch64(s[n-40:])
	y := fetch64(s[n-16:]) + fetch64(s[n-56:])
	z := hashLen16(fetch64(s[n-48:])+uint64(n), fetch64(s[n-24:]))
	v1, v2 := weakHashLen32WithSeedsBytes(s[n-64:], uint64(n), z)
	w1, w2 := weakHashLen32WithSeedsBytes(s[n-32:], y+k1, x)
	x = x*k1 + fetch64(s)

	for left := (n - 1) &^ 63; left > 0; left -= 64 {
		x = rot64(x+y+v1+fetch64(s[8:]), 37) * k1
		y = rot64(y+v2+fetch64(s[48:]), 42) * k1
		x ^= w2
		y += v1 + fetch64(s[40:])
		z = rot64(z+w1, 33) * k1
		v1, v2 = weakHashLen32WithSeedsBytes(s, v2*k1, x+w1)
		w1, w2 = weakHashLen32WithSeedsBytes(s[32:], z+w2, y+fetch64(s[16:]))
		z, x = x, z
		s = s[64:]
	}
	return hashLen16(hashLen16(v1, w1)+shiftMix(y)*k1+z, hashLen16(v2, w2)+x)
}

// Hash64WithSeed returns the 64-bit CityHash of s mixed with one seed.
func Hash64WithSeed(s []byte, seed uint64) uint64 {
	return Hash64WithSeeds(s, k2, seed)
}

// Hash64WithSeeds returns the 64-bit CityHash of s mixed with two seeds.
func Hash64WithSeeds(s []byte, seed0, seed1 uint64) uint64 {
	return hashLen16(Hash64(s)-seed0, seed1)
}

func cityMurmur(s []byte, seed Uint128) Uint128 {
	n := len(s)
	a, b := seed.Lo, seed.Hi
	var c, d uint64

	if n <= 16 {
		a = shiftMix(a*k1) * k1
		c = b*k1 + hashLen0to16(s)
		if n >= 8 {
			d = shiftMix(a + fetch64(s))
		} else {
			d = shiftMix(a + c)
		}
	} else {
		c = hashLen16(fetch64(s[n-8:])+k1, a)
		d = hashLen16(b+uint64(n), c+fetch64(s[n-16:]))
		a += d
		for l := n - 16; l > 0; l -= 16 {
			a ^= shiftMix(fetch64(s)*k1) * k1
			a *= k1
			b ^= a
			c ^= shiftMix(fetch64(s[8:])*k1) * k1
			c *= k1
			d ^= c
			s = s[16:]
		}
	}
	a = hashLen16(a, c)
	b = hashLen16(d, b)
	return Uint128{Lo: a ^ b, Hi: hashLen16(b, a)}
}

// Hash128WithSeed returns the 128-bit CityHash of s for the given seed.
func Hash128WithSeed(s []byte, seed Uint128) Uint128 {
	n := len(s)
	if n < 128 {
		return cityMurmur(s, seed)
	}

	x, y := seed.Lo, seed.Hi
	z := uint64(n) * k1
	v1 := rot64(y^k1, 49)*k1 + fetch64(s)
	v2 := rot64(v1, 42)*k1 + fetch64(s[8:])
	w1 := rot64(y+z, 35)*k1 + x
	w2 := rot64(x+fetch64(s[88:]), 53) * k1

	// pos is the start of the unconsumed input; the tail below reads up to
	// 128 bytes back from the end, which may reach behind pos.
	pos := 0
	for {
		for i := 0; i < 2; i++ {
			p := s[pos:]
			x = rot64(x+y+v1+fetch64(p[8:]), 37) * k1
			y = rot64(y+v2+fetch64(p[48:]), 42) * k1
			x ^= w2
			y += v1 + fetch64(p[40:])
			z = rot64(z+w1, 33) * k1
			v1, v2 = weakHashLen32WithSeedsBytes(p, v2*k1, x+w1)
			w1, w2 = weakHashLen32WithSeedsBytes(p[32:], z+w2, y+fetch64(p[16:]))
			z, x = x, z
			pos += 64
		}
		n -= 128
		if n < 128 {
			break
		}
	}

	x += rot64(v1+z, 49) * k0
	y = y*k0 + rot64(w2, 37)
	z = z*k0 + rot64(w1, 27)
	w1 *= 9
	v1 *= k0

	end := pos + n
	for done := 0; done < n; {
		done += 32
		chunk := s[end-done:]
		y = rot64(x+y, 42)*k0 + v2
		w1 += fetch64(chunk[16:])
		x = x*k0 + w1
		z += w2 + fetch64(chunk)
		w2 += v1
		v1, v2 = weakHashLen32WithSeedsBytes(chunk, v1+z, v2)
		v1 *= k0
	}

	x = hashLen16(x, v1)
	y = hashLen16(y+z, w1)
	return Uint128{
		Lo: hashLen16(x+v2, w2) + y,
		Hi: hashLen16(x+w2, y+v2),
	}
}

// Hash128 returns the 128-bit CityHash of s.
func Hash128(s []byte) Uint128 {
	if len(s) >= 16 {
		return Hash128WithSeed(s[16:], Uint128{Lo: fetch64(s), Hi: fetch64(s[8:]) + k0})
	}
	return Hash128WithSeed(s, Uint128{Lo: k0, Hi: k1})
}
