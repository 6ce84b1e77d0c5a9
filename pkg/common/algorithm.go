// Package common provides identifiers, file range specs and checksum line
// parsing shared by the registry and the CLI.
package common

import (
	"fmt"
	"strings"
)

// Algorithm identifies a registered hash algorithm.
type Algorithm int

// Constants for hash algorithms.
const (
	CITYHASH32 Algorithm = iota
	CITYHASH64
	CITYHASH128
	RAPIDHASH
	RAPIDHASH_MICRO
	RAPIDHASH_NANO
	BLAKE3
	CRC
	XXHASH64
	SIPHASH
	SIPHASH128
	BLAKE2B_256
	BLAKE2B_512
	BLAKE2S_256
	SHA3_256
	SHA3_512
	KECCAK256
	MD4
	RIPEMD160
	SM3
	KANGAROO12
	ARGON2ID
	MD5
	SHA1
	SHA256
	SHA512
	HMACSHA256
	SHAKE128
	SHAKE256
	CHACHA20POLY1305
	SCRYPT
	PBKDF2_SHA512
	BCRYPT
)

// Category groups algorithms by what they are fit for.
type Category int

const (
	Checksum Category = iota
	NonCryptographic
	Cryptographic
	Keyed
	Password
)

var categoryNames = map[Category]string{
	Checksum:         "checksum",
	NonCryptographic: "non-cryptographic",
	Cryptographic:    "cryptographic",
	Keyed:            "keyed",
	Password:         "password",
}

func (c Category) String() string {
	if s, ok := categoryNames[c]; ok {
		return s
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// ParseCategory accepts the names printed by Category.String, in any case.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for c, name := range categoryNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

// Categories lists every category in declaration order.
func Categories() []Category {
	return []Category{Checksum, NonCryptographic, Cryptographic, Keyed, Password}
}
