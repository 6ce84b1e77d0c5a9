package hashvalue

import (
	"math/big"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustValue(t *testing.T, b []byte, e Endianness) HashValue {
	t.Helper()
	v, err := FromBytes(b, e)
	require.NoError(t, err)
	return v
}

func TestNewValidatesLength(t *testing.T) {
	_, err := New([]byte{1, 2}, 16, NotApplicable)
	require.NoError(t, err)

	_, err = New([]byte{1, 2}, 8, NotApplicable)
	assert.ErrorIs(t, err, ErrInvalidLength)

	_, err = New([]byte{1, 2}, 17, NotApplicable)
	assert.ErrorIs(t, err, ErrInvalidLength)

	_, err = New(nil, 0, NotApplicable)
	assert.ErrorIs(t, err, ErrInvalidLength)

	_, err = New([]byte{1}, 5, Endianness(9))
	assert.Error(t, err)

	v, err := New([]byte{0x0f, 0x03}, 10, BigEndian)
	require.NoError(t, err)
	assert.Equal(t, 10, v.BitLength())
	assert.Equal(t, 2, v.ByteLength())
}

func TestValuesAreImmutable(t *testing.T) {
	src := []byte{1, 2, 3, 4}
	v := mustValue(t, src, NotApplicable)

	src[0] = 0xff
	assert.Equal(t, byte(1), v.Bytes()[0])

	out := v.Bytes()
	out[1] = 0xff
	assert.Equal(t, byte(2), v.Bytes()[1])
}

func TestEqualAndCompare(t *testing.T) {
	a := mustValue(t, []byte{1, 2, 3}, NotApplicable)
	b := mustValue(t, []byte{1, 2, 3}, NotApplicable)
	c := mustValue(t, []byte{1, 2, 4}, NotApplicable)
	short, err := New([]byte{1, 2, 3}, 20, NotApplicable)
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(short))

	cmp, err := a.Compare(c)
	require.NoError(t, err)
	assert.Equal(t, -1, cmp)

	cmp, err = a.Compare(b)
	require.NoError(t, err)
	assert.Equal(t, 0, cmp)

	_, err = a.Compare(short)
	assert.ErrorIs(t, err, ErrBitLengthMismatch)
}

func TestCoerce(t *testing.T) {
	v := mustValue(t, []byte{0xff, 0xff}, LittleEndian)

	narrow, err := v.Coerce(12)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0x0f}, narrow.Bytes())
	assert.Equal(t, 12, narrow.BitLength())
	assert.Equal(t, LittleEndian, narrow.Endianness())

	wide, err := v.Coerce(24)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xff, 0x00}, wide.Bytes())

	_, err = v.Coerce(0)
	assert.ErrorIs(t, err, ErrInvalidLength)
}

func TestEndiannessInvolution(t *testing.T) {
	for _, e := range []Endianness{NotApplicable, LittleEndian, BigEndian} {
		v := mustValue(t, []byte{1, 2, 3, 4, 5}, e)
		r := v.ReverseEndianness()
		assert.Equal(t, []byte{5, 4, 3, 2, 1}, r.Bytes())
		assert.True(t, v.Equal(r.ReverseEndianness()))
		assert.Equal(t, e, r.ReverseEndianness().Endianness())
	}

	le := mustValue(t, []byte{1, 2}, LittleEndian)
	assert.Equal(t, BigEndian, le.ReverseEndianness().Endianness())
	assert.Equal(t, []byte{2, 1}, le.AsBigEndian().Bytes())
	assert.Equal(t, []byte{1, 2}, le.AsLittleEndian().Bytes())

	be := mustValue(t, []byte{1, 2}, BigEndian)
	assert.Equal(t, []byte{2, 1}, be.AsLittleEndian().Bytes())
	assert.Equal(t, LittleEndian, be.AsLittleEndian().Endianness())
}

func TestSlice(t *testing.T) {
	v := mustValue(t, []byte{1, 2, 3, 4}, BigEndian)

	s, err := v.Slice(1, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 3}, s.Bytes())
	assert.Equal(t, 16, s.BitLength())

	for _, r := range [][2]int{{-1, 2}, {2, 2}, {3, 1}, {0, 5}} {
		_, err := v.Slice(r[0], r[1])
		assert.ErrorIs(t, err, ErrInvalidLength, "range %v", r)
	}
}

func TestNumericCoercions(t *testing.T) {
	le := mustValue(t, []byte{1, 2, 3, 4}, LittleEndian)
	be := mustValue(t, []byte{1, 2, 3, 4}, BigEndian)
	na := mustValue(t, []byte{1, 2, 3, 4}, NotApplicable)

	got, err := le.AsUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x04030201), got)

	got, err = be.AsUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), got)

	got, err = na.AsUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), got)

	_, err = le.AsUint16()
	assert.ErrorIs(t, err, ErrUnsupportedSize)
	_, err = le.AsUint64()
	assert.ErrorIs(t, err, ErrUnsupportedSize)
	_, err = le.AsUint8()
	assert.ErrorIs(t, err, ErrUnsupportedSize)

	u8, err := mustValue(t, []byte{0xab}, NotApplicable).AsUint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0xab), u8)

	u16, err := mustValue(t, []byte{0x01, 0x02}, LittleEndian).AsUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0201), u16)

	u64, err := mustValue(t, []byte{1, 0, 0, 0, 0, 0, 0, 0}, LittleEndian).AsUint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), u64)

	wide := make([]byte, 16)
	wide[0] = 0x80
	wide[15] = 0x01
	hi, lo, err := mustValue(t, wide, BigEndian).AsUint128()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x8000000000000000), hi)
	assert.Equal(t, uint64(1), lo)

	hi, lo, err = mustValue(t, wide, LittleEndian).AsUint128()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0100000000000000), hi)
	assert.Equal(t, uint64(0x80), lo)
}

func TestBigIntegers(t *testing.T) {
	v := mustValue(t, []byte{0x01, 0x00}, LittleEndian)
	assert.Zero(t, big.NewInt(1).Cmp(v.AsBigInt()))

	v = mustValue(t, []byte{0x01, 0x00}, BigEndian)
	assert.Zero(t, big.NewInt(256).Cmp(v.AsBigInt()))

	u, err := v.AsUint256()
	require.NoError(t, err)
	assert.Equal(t, uint64(256), u.Uint64())

	_, err = mustValue(t, make([]byte, 33), NotApplicable).AsUint256()
	assert.ErrorIs(t, err, ErrUnsupportedSize)

	full := make([]byte, 32)
	full[0] = 0x80
	u, err = mustValue(t, full, NotApplicable).AsUint256()
	require.NoError(t, err)
	assert.Equal(t, 256, u.BitLen())
}

func TestAsGUID(t *testing.T) {
	raw := []byte{
		0x6b, 0xa7, 0xb8, 0x10, 0x9d, 0xad, 0x11, 0xd1,
		0x80, 0xb4, 0x00, 0xc0, 0x4f, 0xd4, 0x30, 0xc8,
	}
	g, err := mustValue(t, raw, NotApplicable).AsGUID()
	require.NoError(t, err)
	assert.Equal(t, uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"), g)

	g, err = mustValue(t, []byte{0xde, 0xad, 0xbe, 0xef}, NotApplicable).AsGUID()
	require.NoError(t, err)
	assert.Equal(t, "deadbeef-0000-0000-0000-000000000000", g.String())

	_, err = mustValue(t, make([]byte, 17), NotApplicable).AsGUID()
	assert.ErrorIs(t, err, ErrUnsupportedSize)
}

func TestKnownEncodings(t *testing.T) {
	foobar := mustValue(t, []byte("foobar"), NotApplicable)
	assert.Equal(t, "666f6f626172", foobar.Hex())
	assert.Equal(t, "666F6F626172", foobar.HexUpper())
	assert.Equal(t, "666f6f626172", foobar.String())
	assert.Equal(t, "Zm9vYmFy", foobar.Base64(0))
	assert.Equal(t, "MZXW6YTBOI======", foobar.Base32())
	assert.Equal(t, "CSQPYRK1E8", foobar.Base32Crockford())

	hello := mustValue(t, []byte("Hello World!"), NotApplicable)
	s, err := hello.Encode(Base58)
	require.NoError(t, err)
	assert.Equal(t, "2NEpo7TZRRrLZSi2U", s)

	lead := mustValue(t, []byte{0, 0, 1}, NotApplicable)
	s, err = lead.Encode(Base58)
	require.NoError(t, err)
	assert.Equal(t, "112", s)

	z85 := mustValue(t, []byte{0x86, 0x4F, 0xD2, 0x6F, 0xB5, 0x59, 0xF7, 0x5B}, NotApplicable)
	s, err = z85.Encode(Z85)
	require.NoError(t, err)
	assert.Equal(t, "HelloWorld", s)

	zeros := mustValue(t, make([]byte, 4), NotApplicable)
	s, err = zeros.Encode(Ascii85)
	require.NoError(t, err)
	assert.Equal(t, "z", s)
	s, err = zeros.Encode(Adobe85)
	require.NoError(t, err)
	assert.Equal(t, "<~z~>", s)
}

func TestBase64LineWrap(t *testing.T) {
	v := mustValue(t, make([]byte, 48), NotApplicable)
	wrapped := v.Base64(16)
	lines := strings.Split(wrapped, "\n")
	require.Len(t, lines, 4)
	for _, l := range lines {
		assert.Len(t, l, 16)
	}

	back, err := Decode(Base64, wrapped)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 48), back)

	assert.NotContains(t, v.Base64(64), "\n")
}

func TestCrockfordLeniency(t *testing.T) {
	back, err := Decode(Base32Crockford, "csqp-yrk1e8")
	require.NoError(t, err)
	assert.Equal(t, []byte("foobar"), back)

	a, err := Decode(Base32Crockford, "O1")
	require.NoError(t, err)
	b, err := Decode(Base32Crockford, "0i")
	require.NoError(t, err)
	c, err := Decode(Base32Crockford, "0L")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
}

func TestRoundTrips(t *testing.T) {
	for n := 1; n <= 33; n++ {
		raw := make([]byte, n)
		for i := range raw {
			raw[i] = byte(i*37 + n)
		}
		raw[0] = byte(n % 3) // exercise leading zero handling
		v := mustValue(t, raw, NotApplicable)

		for f := Hex; f <= RFC1924; f++ {
			s, err := v.Encode(f)
			require.NoError(t, err, "format %s", f)

			back, err := Parse(f, s, v.BitLength(), v.Endianness())
			require.NoError(t, err, "format %s, n=%d, s=%q", f, n, s)
			assert.True(t, v.Equal(back), "format %s, n=%d", f, n)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		format Format
		input  string
	}{
		{Hex, "zz"},
		{Base64, "!!!"},
		{Base32, "1"},
		{Base58, "0OIl"},
		{Adobe85, "no delimiters"},
		{Z85, "\"\"\"\"\""},
		{Z85, "abcdef"},
		{RFC1924, "~~~~~"},
	}
	for _, tc := range cases {
		_, err := Decode(tc.format, tc.input)
		assert.ErrorIs(t, err, ErrDecode, "%s %q", tc.format, tc.input)
	}

	_, err := Parse(Hex, "abcd", 8, NotApplicable)
	assert.ErrorIs(t, err, ErrInvalidLength)
}

func TestParseFormat(t *testing.T) {
	for _, name := range FormatNames() {
		f, err := ParseFormat(name)
		require.NoError(t, err)
		assert.Equal(t, name, f.String())
	}
	f, err := ParseFormat("HEX")
	require.NoError(t, err)
	assert.Equal(t, HexUpper, f)

	_, err = ParseFormat("base36")
	assert.Error(t, err)

	_, err = mustValue(t, []byte{1}, NotApplicable).Encode(Format(99))
	assert.Error(t, err)
}
