package hashers

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"github.com/cespare/xxhash"
	"github.com/dchest/siphash"
	"github.com/emmansun/gmsm/sm3"
	k12 "github.com/mimoo/GoKangarooTwelve/K12"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/md4"
	"golang.org/x/crypto/ripemd160"
	"golang.org/x/crypto/sha3"

	"github.com/guilt/hashkit/pkg/common"
	"github.com/guilt/hashkit/pkg/config"
	"github.com/guilt/hashkit/pkg/hashers/std"
	"github.com/guilt/hashkit/pkg/hashfunc"
	"github.com/guilt/hashkit/pkg/hashvalue"
	"github.com/guilt/hashkit/pkg/transformer"
)

// digest describes a hash.Hash backed entry.
type digest struct {
	algo       common.Algorithm
	name       string
	category   common.Category
	bits       int
	keyed      bool
	optional   bool // accepts a key without requiring one
	endianness hashvalue.Endianness
	newHash    func(key []byte) (hash.Hash, error)
}

func noKey(f func() hash.Hash) func([]byte) (hash.Hash, error) {
	return func([]byte) (hash.Hash, error) { return f(), nil }
}

func (d digest) entry() Entry {
	rejected := fixed
	rejected.key = !d.keyed && !d.optional
	return Entry{
		Algorithm: d.algo,
		Name:      d.name,
		Category:  d.category,
		Keyed:     d.keyed,
		New: func(opts Options) (*hashfunc.Function, error) {
			if err := rejected.check(d.name, opts); err != nil {
				return nil, err
			}
			cfg := &config.KeyedConfig{Key: opts.Key.Clone()}
			if d.keyed {
				if err := cfg.Validate(); err != nil {
					return nil, err
				}
			}
			newHash := func() (hash.Hash, error) {
				h, err := d.newHash(cfg.Key.Bytes())
				if err != nil {
					return nil, fmt.Errorf("%w: %w", config.ErrInvalidParameter, err)
				}
				return h, nil
			}
			return hashfunc.New(d.name, d.bits, func() (transformer.Core, error) {
				return std.NewHashCore(newHash, d.endianness)
			})
		},
	}
}

func sipHash(size int) func([]byte) (hash.Hash, error) {
	return func(key []byte) (hash.Hash, error) {
		if len(key) != 16 {
			return nil, fmt.Errorf("siphash key must be 16 bytes, got %d", len(key))
		}
		if size == 16 {
			return siphash.New128(key), nil
		}
		return siphash.New(key), nil
	}
}

var digests = []digest{
	{algo: common.XXHASH64, name: "xxhash64", category: common.NonCryptographic, bits: 64,
		endianness: hashvalue.BigEndian, newHash: noKey(func() hash.Hash { return xxhash.New() })},
	{algo: common.SIPHASH, name: "siphash", category: common.Keyed, bits: 64, keyed: true,
		endianness: hashvalue.LittleEndian, newHash: sipHash(8)},
	{algo: common.SIPHASH128, name: "siphash128", category: common.Keyed, bits: 128, keyed: true,
		endianness: hashvalue.LittleEndian, newHash: sipHash(16)},
	{algo: common.BLAKE2B_256, name: "blake2b-256", category: common.Cryptographic, bits: 256, optional: true,
		newHash: blake2b.New256},
	{algo: common.BLAKE2B_512, name: "blake2b-512", category: common.Cryptographic, bits: 512, optional: true,
		newHash: blake2b.New512},
	{algo: common.BLAKE2S_256, name: "blake2s-256", category: common.Cryptographic, bits: 256, optional: true,
		newHash: blake2s.New256},
	{algo: common.SHA3_256, name: "sha3-256", category: common.Cryptographic, bits: 256, newHash: noKey(sha3.New256)},
	{algo: common.SHA3_512, name: "sha3-512", category: common.Cryptographic, bits: 512, newHash: noKey(sha3.New512)},
	{algo: common.KECCAK256, name: "keccak-256", category: common.Cryptographic, bits: 256, newHash: noKey(sha3.NewLegacyKeccak256)},
	{algo: common.MD4, name: "md4", category: common.Cryptographic, bits: 128, newHash: noKey(md4.New)},
	{algo: common.RIPEMD160, name: "ripemd160", category: common.Cryptographic, bits: 160, newHash: noKey(ripemd160.New)},
	{algo: common.SM3, name: "sm3", category: common.Cryptographic, bits: 256, newHash: noKey(sm3.New)},
	{algo: common.MD5, name: "md5", category: common.Cryptographic, bits: 128, newHash: noKey(md5.New)},
	{algo: common.SHA1, name: "sha1", category: common.Cryptographic, bits: 160, newHash: noKey(sha1.New)},
	{algo: common.SHA256, name: "sha256", category: common.Cryptographic, bits: 256, newHash: noKey(sha256.New)},
	{algo: common.SHA512, name: "sha512", category: common.Cryptographic, bits: 512, newHash: noKey(sha512.New)},
	{algo: common.HMACSHA256, name: "hmac-sha256", category: common.Keyed, bits: 256, keyed: true,
		newHash: func(key []byte) (hash.Hash, error) { return hmac.New(sha256.New, key), nil }},
}

// kangarooEntry exposes KangarooTwelve as an extendable-output function;
// Personalization is its customization string.
func kangarooEntry() Entry {
	const name = "kangaroo12"
	return Entry{
		Algorithm: common.KANGAROO12,
		Name:      name,
		Category:  common.Cryptographic,
		New: func(opts Options) (*hashfunc.Function, error) {
			if err := (unsupported{key: true, seeds: true}).check(name, opts); err != nil {
				return nil, err
			}
			if len(opts.Salt) > 0 || opts.Context != "" {
				return nil, fmt.Errorf("%w: %s takes only a personalization", config.ErrInvalidParameter, name)
			}
			bits, err := xofBits(name, opts.Bits, 256)
			if err != nil {
				return nil, err
			}
			custom := append([]byte(nil), opts.Personalization...)
			sum := func(data []byte) ([]byte, error) {
				out := make([]byte, bits/8)
				k12.K12Sum(custom, data, out)
				return out, nil
			}
			return hashfunc.New(name, bits, func() (transformer.Core, error) {
				return std.NewBufferCore(sum, bits, hashvalue.NotApplicable), nil
			})
		},
	}
}

// shakeCore streams into a SHAKE or cSHAKE sponge and squeezes bits at
// finalization.
type shakeCore struct {
	h    sha3.ShakeHash
	rate int
	bits int
}

func (c *shakeCore) BlockSize() int {
	return c.rate
}

func (c *shakeCore) TransformBlock(block []byte) {
	c.h.Write(block)
}

func (c *shakeCore) TransformBlocks(blocks []byte) {
	c.h.Write(blocks)
}

func (c *shakeCore) FinalizeBlock(remainder []byte) (hashvalue.HashValue, error) {
	c.h.Write(remainder)
	out := make([]byte, c.bits/8)
	c.h.Read(out)
	return hashvalue.New(out, c.bits, hashvalue.NotApplicable)
}

func (c *shakeCore) Clone() (transformer.Core, error) {
	return &shakeCore{h: c.h.Clone(), rate: c.rate, bits: c.bits}, nil
}

// shakeEntry exposes SHAKE128/256; a personalization switches to cSHAKE
// with it as the customization string.
func shakeEntry(algo common.Algorithm, name string, security, rate int) Entry {
	return Entry{
		Algorithm: algo,
		Name:      name,
		Category:  common.Cryptographic,
		New: func(opts Options) (*hashfunc.Function, error) {
			if err := (unsupported{key: true, seeds: true}).check(name, opts); err != nil {
				return nil, err
			}
			if len(opts.Salt) > 0 || opts.Context != "" {
				return nil, fmt.Errorf("%w: %s takes only a personalization", config.ErrInvalidParameter, name)
			}
			bits, err := xofBits(name, opts.Bits, 2*security)
			if err != nil {
				return nil, err
			}
			custom := append([]byte(nil), opts.Personalization...)
			newSponge := func() sha3.ShakeHash {
				switch {
				case security == 128 && len(custom) > 0:
					return sha3.NewCShake128(nil, custom)
				case security == 128:
					return sha3.NewShake128()
				case len(custom) > 0:
					return sha3.NewCShake256(nil, custom)
				}
				return sha3.NewShake256()
			}
			return hashfunc.New(name, bits, func() (transformer.Core, error) {
				return &shakeCore{h: newSponge(), rate: rate, bits: bits}, nil
			})
		},
	}
}

// xofBits applies the default output size and checks the requested one.
func xofBits(name string, bits, def int) (int, error) {
	if bits == 0 {
		return def, nil
	}
	if bits%8 != 0 || bits < 8 {
		return 0, fmt.Errorf("%w: %s output must be a positive multiple of 8 bits, got %d", config.ErrInvalidHashSize, name, bits)
	}
	return bits, nil
}

// chachaEntry authenticates the input as additional data under
// ChaCha20-Poly1305 with a zero nonce; the hash is the 128-bit tag.
func chachaEntry() Entry {
	const name = "chacha20poly1305"
	return Entry{
		Algorithm: common.CHACHA20POLY1305,
		Name:      name,
		Category:  common.Keyed,
		Keyed:     true,
		New: func(opts Options) (*hashfunc.Function, error) {
			if err := (unsupported{seeds: true, bits: true, salt: true}).check(name, opts); err != nil {
				return nil, err
			}
			aead, err := chacha20poly1305.New(opts.Key.Bytes())
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %w", config.ErrInvalidParameter, name, err)
			}
			nonce := make([]byte, chacha20poly1305.NonceSize)
			sum := func(data []byte) ([]byte, error) {
				return aead.Seal(nil, nonce, nil, data), nil
			}
			bits := chacha20poly1305.Overhead * 8
			return hashfunc.New(name, bits, func() (transformer.Core, error) {
				return std.NewBufferCore(sum, bits, hashvalue.NotApplicable), nil
			})
		},
	}
}

func registerLibraries() {
	for _, d := range digests {
		mustRegister(d.entry())
	}
	mustRegister(kangarooEntry())
	mustRegister(shakeEntry(common.SHAKE128, "shake128", 128, 168))
	mustRegister(shakeEntry(common.SHAKE256, "shake256", 256, 136))
	mustRegister(chachaEntry())
	registerPasswordHashes()
}
