package hashers

import (
	"crypto/sha512"
	"fmt"

	"github.com/emersion/go-bcrypt"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"

	"github.com/guilt/hashkit/pkg/common"
	"github.com/guilt/hashkit/pkg/config"
	"github.com/guilt/hashkit/pkg/hashers/std"
	"github.com/guilt/hashkit/pkg/hashfunc"
	"github.com/guilt/hashkit/pkg/hashvalue"
	"github.com/guilt/hashkit/pkg/transformer"
)

// bcryptHashLen is the length of a modular-crypt bcrypt string.
const bcryptHashLen = 60

// passwordOptions rejects everything but a salt and an output size.
func passwordOptions(name string, opts Options) error {
	if err := (unsupported{key: true, seeds: true}).check(name, opts); err != nil {
		return err
	}
	if len(opts.Personalization) > 0 || opts.Context != "" {
		return fmt.Errorf("%w: %s takes only a salt", config.ErrInvalidParameter, name)
	}
	return nil
}

func keyLen(name string, bits int) (int, error) {
	if bits%8 != 0 {
		return 0, fmt.Errorf("%w: %s output must be a multiple of 8 bits, got %d", config.ErrInvalidHashSize, name, bits)
	}
	return bits / 8, nil
}

func bufferFunction(name string, bits int, sum std.SumFunc) (*hashfunc.Function, error) {
	return hashfunc.New(name, bits, func() (transformer.Core, error) {
		return std.NewBufferCore(sum, bits, hashvalue.NotApplicable), nil
	})
}

// argon2Entry hashes the input as a password with Argon2id.
func argon2Entry() Entry {
	const name = "argon2id"
	return Entry{
		Algorithm: common.ARGON2ID,
		Name:      name,
		Category:  common.Password,
		DefaultConfig: func() any {
			return config.DefaultArgon2Config()
		},
		New: func(opts Options) (*hashfunc.Function, error) {
			if err := passwordOptions(name, opts); err != nil {
				return nil, err
			}
			cfg := config.DefaultArgon2Config()
			if len(opts.Salt) > 0 {
				cfg.Salt = append([]byte(nil), opts.Salt...)
			}
			if opts.Bits != 0 {
				n, err := keyLen(name, opts.Bits)
				if err != nil {
					return nil, err
				}
				cfg.KeyLen = uint32(n)
			}
			if err := cfg.Validate(); err != nil {
				return nil, err
			}
			return bufferFunction(name, int(cfg.KeyLen)*8, func(data []byte) ([]byte, error) {
				return argon2.IDKey(data, cfg.Salt, cfg.Time, cfg.MemoryKiB, cfg.Threads, cfg.KeyLen), nil
			})
		},
	}
}

func scryptEntry() Entry {
	const name = "scrypt"
	return Entry{
		Algorithm: common.SCRYPT,
		Name:      name,
		Category:  common.Password,
		DefaultConfig: func() any {
			return config.DefaultScryptConfig()
		},
		New: func(opts Options) (*hashfunc.Function, error) {
			if err := passwordOptions(name, opts); err != nil {
				return nil, err
			}
			cfg := config.DefaultScryptConfig()
			if len(opts.Salt) > 0 {
				cfg.Salt = append([]byte(nil), opts.Salt...)
			}
			if opts.Bits != 0 {
				n, err := keyLen(name, opts.Bits)
				if err != nil {
					return nil, err
				}
				cfg.KeyLen = n
			}
			if err := cfg.Validate(); err != nil {
				return nil, err
			}
			return bufferFunction(name, cfg.KeyLen*8, func(data []byte) ([]byte, error) {
				return scrypt.Key(data, cfg.Salt, cfg.N, cfg.R, cfg.P, cfg.KeyLen)
			})
		},
	}
}

func pbkdf2Entry() Entry {
	const name = "pbkdf2-sha512"
	return Entry{
		Algorithm: common.PBKDF2_SHA512,
		Name:      name,
		Category:  common.Password,
		DefaultConfig: func() any {
			return config.DefaultPBKDF2Config()
		},
		New: func(opts Options) (*hashfunc.Function, error) {
			if err := passwordOptions(name, opts); err != nil {
				return nil, err
			}
			cfg := config.DefaultPBKDF2Config()
			if len(opts.Salt) > 0 {
				cfg.Salt = append([]byte(nil), opts.Salt...)
			}
			if opts.Bits != 0 {
				n, err := keyLen(name, opts.Bits)
				if err != nil {
					return nil, err
				}
				cfg.KeyLen = n
			}
			if err := cfg.Validate(); err != nil {
				return nil, err
			}
			return bufferFunction(name, cfg.KeyLen*8, func(data []byte) ([]byte, error) {
				return pbkdf2.Key(data, cfg.Salt, cfg.Iterations, cfg.KeyLen, sha512.New), nil
			})
		},
	}
}

// bcryptEntry yields the 60-byte modular-crypt string. bcrypt reads at most
// 72 bytes of password, so the input is folded through SHA-512 first.
func bcryptEntry() Entry {
	const name = "bcrypt"
	return Entry{
		Algorithm: common.BCRYPT,
		Name:      name,
		Category:  common.Password,
		DefaultConfig: func() any {
			return config.DefaultBcryptConfig()
		},
		New: func(opts Options) (*hashfunc.Function, error) {
			if err := passwordOptions(name, opts); err != nil {
				return nil, err
			}
			if opts.Bits != 0 {
				return nil, fmt.Errorf("%w: %s has a fixed output size", config.ErrInvalidHashSize, name)
			}
			cfg := config.DefaultBcryptConfig()
			if len(opts.Salt) > 0 {
				cfg.Salt = append([]byte(nil), opts.Salt...)
			}
			if err := cfg.Validate(); err != nil {
				return nil, err
			}
			return bufferFunction(name, bcryptHashLen*8, func(data []byte) ([]byte, error) {
				folded := sha512.Sum512(data)
				out, err := bcrypt.GenerateFromPasswordAndSalt(folded[:], cfg.Cost, cfg.Salt)
				if err != nil {
					return nil, fmt.Errorf("bcrypt: %w", err)
				}
				if len(out) != bcryptHashLen {
					return nil, fmt.Errorf("bcrypt: unexpected hash length %d", len(out))
				}
				return out, nil
			})
		},
	}
}

func registerPasswordHashes() {
	mustRegister(argon2Entry())
	mustRegister(scryptEntry())
	mustRegister(pbkdf2Entry())
	mustRegister(bcryptEntry())
}
