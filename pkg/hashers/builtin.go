package hashers

import (
	"fmt"

	"github.com/guilt/hashkit/pkg/blake3"
	"github.com/guilt/hashkit/pkg/cityhash"
	"github.com/guilt/hashkit/pkg/common"
	"github.com/guilt/hashkit/pkg/config"
	"github.com/guilt/hashkit/pkg/crc"
	"github.com/guilt/hashkit/pkg/hashfunc"
	"github.com/guilt/hashkit/pkg/rapidhash"
	"github.com/guilt/hashkit/pkg/transformer"
)

func cityEntry(algo common.Algorithm, bits int) Entry {
	name := fmt.Sprintf("cityhash%d", bits)
	return Entry{
		Algorithm: algo,
		Name:      name,
		Category:  common.NonCryptographic,
		DefaultConfig: func() any {
			return &config.CityHashConfig{HashSizeInBits: bits}
		},
		New: func(opts Options) (*hashfunc.Function, error) {
			if err := (unsupported{key: true, bits: true, salt: true}).check(name, opts); err != nil {
				return nil, err
			}
			cfg := &config.CityHashConfig{HashSizeInBits: bits, Seeds: append([]uint64(nil), opts.Seeds...)}
			return hashfunc.New(name, bits, func() (transformer.Core, error) {
				return cityhash.NewCore(cfg)
			})
		},
	}
}

func rapidEntry(algo common.Algorithm, name string, variant config.RapidHashVariant) Entry {
	return Entry{
		Algorithm: algo,
		Name:      name,
		Category:  common.NonCryptographic,
		DefaultConfig: func() any {
			return &config.RapidHashConfig{Variant: variant}
		},
		New: func(opts Options) (*hashfunc.Function, error) {
			if err := (unsupported{key: true, bits: true, salt: true}).check(name, opts); err != nil {
				return nil, err
			}
			if len(opts.Seeds) > 1 {
				return nil, fmt.Errorf("%w: %s takes one seed, got %d", config.ErrInvalidParameter, name, len(opts.Seeds))
			}
			cfg := &config.RapidHashConfig{Variant: variant}
			if len(opts.Seeds) == 1 {
				cfg.Seed = opts.Seeds[0]
			}
			return hashfunc.New(name, 64, func() (transformer.Core, error) {
				return rapidhash.NewCore(cfg)
			})
		},
	}
}

func blake3Entry() Entry {
	return Entry{
		Algorithm: common.BLAKE3,
		Name:      "blake3",
		Category:  common.Cryptographic,
		DefaultConfig: func() any {
			return config.DefaultBlake3Config()
		},
		New: func(opts Options) (*hashfunc.Function, error) {
			if err := (unsupported{seeds: true}).check("blake3", opts); err != nil {
				return nil, err
			}
			cfg := config.DefaultBlake3Config()
			if opts.Bits != 0 {
				cfg.HashSizeInBits = opts.Bits
			}
			cfg.Key = opts.Key.Clone()
			cfg.Salt = append([]byte(nil), opts.Salt...)
			cfg.Personalization = append([]byte(nil), opts.Personalization...)
			cfg.DeriveKeyContext = opts.Context
			return hashfunc.New("blake3", cfg.HashSizeInBits, func() (transformer.Core, error) {
				return blake3.NewCore(cfg)
			})
		},
	}
}

// crcEntryName is the registry name of a CRC profile.
func crcEntryName(profile string) string {
	return normalize(profile)
}

func crcEntry(profile config.CRCConfig) Entry {
	name := crcEntryName(profile.Name)
	return Entry{
		Algorithm: common.CRC,
		Name:      name,
		Category:  common.Checksum,
		DefaultConfig: func() any {
			return profile.Clone()
		},
		New: func(opts Options) (*hashfunc.Function, error) {
			if err := fixed.check(name, opts); err != nil {
				return nil, err
			}
			cfg := profile.Clone()
			return hashfunc.New(name, cfg.Width, func() (transformer.Core, error) {
				return crc.NewCore(cfg)
			})
		},
	}
}

// RegisterCRC verifies cfg against its check value and registers it under
// its lower-cased profile name, replacing a CRC profile of the same name.
func RegisterCRC(cfg config.CRCConfig) error {
	if err := crc.Verify(&cfg); err != nil {
		return err
	}
	e := crcEntry(cfg)

	mu.Lock()
	defer mu.Unlock()
	if old, ok := registry[e.Name]; ok && old.Algorithm != common.CRC {
		return fmt.Errorf("%w: %s", ErrDuplicateAlgorithm, e.Name)
	}
	registry[e.Name] = e
	return nil
}

func registerBuiltins() {
	mustRegister(cityEntry(common.CITYHASH32, 32))
	mustRegister(cityEntry(common.CITYHASH64, 64))
	mustRegister(cityEntry(common.CITYHASH128, 128))
	mustRegister(rapidEntry(common.RAPIDHASH, "rapidhash", config.RapidHashStandard))
	mustRegister(rapidEntry(common.RAPIDHASH_MICRO, "rapidhash-micro", config.RapidHashMicro))
	mustRegister(rapidEntry(common.RAPIDHASH_NANO, "rapidhash-nano", config.RapidHashNano))
	mustRegister(blake3Entry())
	for _, p := range crc.Profiles() {
		mustRegister(crcEntry(p))
	}
}
