package hashvalue

import (
	"encoding/ascii85"
	"encoding/base32"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// ErrDecode is returned when a string cannot be decoded in the requested format.
var ErrDecode = errors.New("hashvalue: decode failed")

// Format names a textual rendering of a HashValue.
type Format int

const (
	Hex Format = iota
	HexUpper
	Base64
	Base32
	Base32Crockford
	Base58
	Base58Flickr
	Base58Ripple
	Ascii85
	Adobe85
	Z85
	RFC1924
)

var formatNames = map[Format]string{
	Hex:             "hex",
	HexUpper:        "HEX",
	Base64:          "base64",
	Base32:          "base32",
	Base32Crockford: "base32-crockford",
	Base58:          "base58",
	Base58Flickr:    "base58-flickr",
	Base58Ripple:    "base58-ripple",
	Ascii85:         "ascii85",
	Adobe85:         "adobe85",
	Z85:             "z85",
	RFC1924:         "rfc1924",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat maps a format name (as printed by Format.String) back to a
// Format. Matching is exact so that "hex" and "HEX" stay distinct.
func ParseFormat(name string) (Format, error) {
	for f, n := range formatNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown format %q", name)
}

// FormatNames lists every known format name in declaration order.
func FormatNames() []string {
	names := make([]string, 0, len(formatNames))
	for f := Hex; f <= RFC1924; f++ {
		names = append(names, formatNames[f])
	}
	return names
}

var (
	crockford = base32.NewEncoding("0123456789ABCDEFGHJKMNPQRSTVWXYZ").WithPadding(base32.NoPadding)

	rippleAlphabet = base58.NewAlphabet("rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz")

	z85Alphabet     = newBase85Alphabet("0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ.-:+=^!/*?&<>()[]{}@%$#")
	rfc1924Alphabet = newBase85Alphabet("0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz!#$%&()*+-;<=>?@^_`{|}~")
)

// Hex renders the bytes as lowercase hexadecimal.
func (v HashValue) Hex() string {
	return hex.EncodeToString(v.hash)
}

// HexUpper renders the bytes as uppercase hexadecimal.
func (v HashValue) HexUpper() string {
	return strings.ToUpper(hex.EncodeToString(v.hash))
}

// Base64 renders the bytes with the standard padded alphabet. A positive
// lineLength wraps the output with "\n" every lineLength characters.
func (v HashValue) Base64(lineLength int) string {
	s := base64.StdEncoding.EncodeToString(v.hash)
	if lineLength <= 0 || len(s) <= lineLength {
		return s
	}
	var b strings.Builder
	for len(s) > lineLength {
		b.WriteString(s[:lineLength])
		b.WriteByte('\n')
		s = s[lineLength:]
	}
	b.WriteString(s)
	return b.String()
}

// Base32 renders the bytes with the RFC 4648 alphabet and '=' padding.
func (v HashValue) Base32() string {
	return base32.StdEncoding.EncodeToString(v.hash)
}

// Base32Crockford renders the bytes with Crockford's alphabet, unpadded.
func (v HashValue) Base32Crockford() string {
	return crockford.EncodeToString(v.hash)
}

// Encode renders the value in the given format. Base64 is unwrapped.
func (v HashValue) Encode(f Format) (string, error) {
	switch f {
	case Hex:
		return v.Hex(), nil
	case HexUpper:
		return v.HexUpper(), nil
	case Base64:
		return v.Base64(0), nil
	case Base32:
		return v.Base32(), nil
	case Base32Crockford:
		return v.Base32Crockford(), nil
	case Base58:
		return base58.EncodeAlphabet(v.hash, base58.BTCAlphabet), nil
	case Base58Flickr:
		return base58.EncodeAlphabet(v.hash, base58.FlickrAlphabet), nil
	case Base58Ripple:
		return base58.EncodeAlphabet(v.hash, rippleAlphabet), nil
	case Ascii85:
		return encodeAscii85(v.hash), nil
	case Adobe85:
		return "<~" + encodeAscii85(v.hash) + "~>", nil
	case Z85:
		return z85Alphabet.encode(v.hash), nil
	case RFC1924:
		return rfc1924Alphabet.encode(v.hash), nil
	}
	return "", fmt.Errorf("unknown format %d", int(f))
}

// Decode reverses Encode.
func Decode(f Format, s string) ([]byte, error) {
	var (
		out []byte
		err error
	)
	switch f {
	case Hex, HexUpper:
		out, err = hex.DecodeString(s)
	case Base64:
		out, err = base64.StdEncoding.DecodeString(stripSpace(s))
	case Base32:
		out, err = base32.StdEncoding.DecodeString(s)
	case Base32Crockford:
		out, err = crockford.DecodeString(normalizeCrockford(s))
	case Base58:
		out, err = base58.DecodeAlphabet(s, base58.BTCAlphabet)
	case Base58Flickr:
		out, err = base58.DecodeAlphabet(s, base58.FlickrAlphabet)
	case Base58Ripple:
		out, err = base58.DecodeAlphabet(s, rippleAlphabet)
	case Ascii85:
		out, err = decodeAscii85(s)
	case Adobe85:
		if !strings.HasPrefix(s, "<~") || !strings.HasSuffix(s, "~>") || len(s) < 4 {
			return nil, fmt.Errorf("%w: adobe85 needs <~ ~> delimiters", ErrDecode)
		}
		out, err = decodeAscii85(s[2 : len(s)-2])
	case Z85:
		out, err = z85Alphabet.decode(s)
	case RFC1924:
		out, err = rfc1924Alphabet.decode(s)
	default:
		return nil, fmt.Errorf("unknown format %d", int(f))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, f, err)
	}
	return out, nil
}

// Parse decodes s and wraps the bytes into a HashValue.
func Parse(f Format, s string, bitLength int, endianness Endianness) (HashValue, error) {
	b, err := Decode(f, s)
	if err != nil {
		return HashValue{}, err
	}
	return New(b, bitLength, endianness)
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, s)
}

// normalizeCrockford applies Crockford's decoding leniency: case-insensitive,
// hyphens ignored, O read as 0 and I/L read as 1.
func normalizeCrockford(s string) string {
	s = strings.ToUpper(strings.ReplaceAll(s, "-", ""))
	return strings.NewReplacer("O", "0", "I", "1", "L", "1").Replace(s)
}

func encodeAscii85(b []byte) string {
	dst := make([]byte, ascii85.MaxEncodedLen(len(b)))
	n := ascii85.Encode(dst, b)
	return string(dst[:n])
}

func decodeAscii85(s string) ([]byte, error) {
	dst := make([]byte, 4*len(s))
	n, _, err := ascii85.Decode(dst, []byte(s), true)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}

// base85Alphabet encodes 4-byte big-endian groups as 5 digits. A trailing
// group of n < 4 bytes is zero-padded and emitted as n+1 digits, the same
// rule Ascii85 uses, so any byte length round-trips.
type base85Alphabet struct {
	encodeMap [85]byte
	decodeMap [256]int16
}

func newBase85Alphabet(s string) *base85Alphabet {
	if len(s) != 85 {
		panic("base85 alphabets must be 85 bytes long")
	}
	a := &base85Alphabet{}
	for i := range a.decodeMap {
		a.decodeMap[i] = -1
	}
	for i := 0; i < 85; i++ {
		a.encodeMap[i] = s[i]
		a.decodeMap[s[i]] = int16(i)
	}
	return a
}

func (a *base85Alphabet) encode(src []byte) string {
	out := make([]byte, 0, (len(src)+3)/4*5)
	for len(src) > 0 {
		var group [4]byte
		n := copy(group[:], src)
		src = src[n:]

		val := uint32(group[0])<<24 | uint32(group[1])<<16 | uint32(group[2])<<8 | uint32(group[3])
		var digits [5]byte
		for i := 4; i >= 0; i-- {
			digits[i] = a.encodeMap[val%85]
			val /= 85
		}
		out = append(out, digits[:n+1]...)
	}
	return string(out)
}

func (a *base85Alphabet) decode(s string) ([]byte, error) {
	out := make([]byte, 0, len(s)/5*4+4)
	for len(s) > 0 {
		m := len(s)
		if m > 5 {
			m = 5
		}
		if m == 1 {
			return nil, fmt.Errorf("dangling base85 digit")
		}

		var val uint64
		for i := 0; i < 5; i++ {
			d := int16(84)
			if i < m {
				d = a.decodeMap[s[i]]
				if d < 0 {
					return nil, fmt.Errorf("invalid base85 digit %q", s[i])
				}
			}
			val = val*85 + uint64(d)
		}
		if val > 0xffffffff {
			return nil, fmt.Errorf("base85 group %q overflows", s[:m])
		}

		group := [4]byte{byte(val >> 24), byte(val >> 16), byte(val >> 8), byte(val)}
		out = append(out, group[:m-1]...)
		s = s[m:]
	}
	return out, nil
}
