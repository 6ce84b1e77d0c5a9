package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecret(t *testing.T) {
	key := []byte("0123456789abcdef")
	s := NewSecret(key)
	key[0] = 'X'
	assert.Equal(t, byte('0'), s.Bytes()[0])
	assert.Equal(t, 16, s.Len())

	c := s.Clone()
	s.Destroy()
	assert.True(t, s.IsEmpty())
	assert.Nil(t, s.Bytes())
	assert.Equal(t, []byte("0123456789abcdef"), c.Bytes())

	var nilSecret *Secret
	assert.True(t, nilSecret.IsEmpty())
	assert.Nil(t, nilSecret.Clone())
	nilSecret.Destroy()
}

func TestSecretDestroyZeroes(t *testing.T) {
	s := NewSecret([]byte{1, 2, 3})
	backing := s.b
	s.Destroy()
	assert.Equal(t, []byte{0, 0, 0}, backing)
}

func TestCityHashConfig(t *testing.T) {
	cases := []struct {
		bits    int
		seeds   []uint64
		wantErr error
	}{
		{32, nil, nil},
		{32, []uint64{1}, ErrInvalidParameter},
		{64, nil, nil},
		{64, []uint64{1}, nil},
		{64, []uint64{1, 2}, nil},
		{64, []uint64{1, 2, 3}, ErrInvalidParameter},
		{128, nil, nil},
		{128, []uint64{1}, ErrInvalidParameter},
		{128, []uint64{1, 2}, nil},
		{16, nil, ErrInvalidHashSize},
		{256, nil, ErrInvalidHashSize},
	}
	for _, tc := range cases {
		err := (&CityHashConfig{HashSizeInBits: tc.bits, Seeds: tc.seeds}).Validate()
		if tc.wantErr == nil {
			assert.NoError(t, err, "%d bits %v", tc.bits, tc.seeds)
		} else {
			assert.ErrorIs(t, err, tc.wantErr, "%d bits %v", tc.bits, tc.seeds)
		}
	}

	c := &CityHashConfig{HashSizeInBits: 64, Seeds: []uint64{7}}
	d := c.Clone()
	c.Seeds[0] = 9
	assert.Equal(t, uint64(7), d.Seeds[0])
}

func TestRapidHashConfig(t *testing.T) {
	require.NoError(t, DefaultRapidHashConfig().Validate())
	require.NoError(t, (&RapidHashConfig{Variant: RapidHashNano}).Validate())
	assert.ErrorIs(t, (&RapidHashConfig{Variant: 3}).Validate(), ErrInvalidParameter)
	assert.Equal(t, "micro", RapidHashMicro.String())
}

func TestBlake3Config(t *testing.T) {
	require.NoError(t, DefaultBlake3Config().Validate())

	bad := []*Blake3Config{
		{HashSizeInBits: 0},
		{HashSizeInBits: 12},
		{HashSizeInBits: 256, Key: NewSecret(make([]byte, 16))},
		{HashSizeInBits: 256, Salt: make([]byte, 33)},
		{HashSizeInBits: 256, Personalization: make([]byte, 33)},
		{HashSizeInBits: 256, Key: NewSecret(make([]byte, 32)), DeriveKeyContext: "ctx"},
	}
	for i, c := range bad {
		assert.Error(t, c.Validate(), "case %d", i)
	}
	assert.ErrorIs(t, bad[1].Validate(), ErrInvalidHashSize)
	assert.ErrorIs(t, bad[2].Validate(), ErrInvalidParameter)

	good := &Blake3Config{
		HashSizeInBits:  1048,
		Key:             NewSecret(make([]byte, 32)),
		Salt:            []byte("salt"),
		Personalization: []byte("person"),
	}
	require.NoError(t, good.Validate())

	clone := good.Clone()
	good.Salt[0] = 'X'
	good.Key.Destroy()
	assert.Equal(t, []byte("salt"), clone.Salt)
	assert.Equal(t, 32, clone.Key.Len())
}

func TestCRCConfig(t *testing.T) {
	crc32 := &CRCConfig{Width: 32, Polynomial: 0x04c11db7, Init: 0xffffffff, ReflectIn: true, ReflectOut: true, XorOut: 0xffffffff, Check: 0xcbf43926}
	require.NoError(t, crc32.Validate())
	assert.Equal(t, uint64(0xffffffff), crc32.Mask())

	crc64 := &CRCConfig{Width: 64, Polynomial: 0x42f0e1eba9ea3693}
	require.NoError(t, crc64.Validate())
	assert.Equal(t, ^uint64(0), crc64.Mask())

	assert.ErrorIs(t, (&CRCConfig{Width: 0, Polynomial: 1}).Validate(), ErrInvalidHashSize)
	assert.ErrorIs(t, (&CRCConfig{Width: 65, Polynomial: 1}).Validate(), ErrInvalidHashSize)
	assert.ErrorIs(t, (&CRCConfig{Width: 8, Polynomial: 0x107}).Validate(), ErrInvalidParameter)
	assert.ErrorIs(t, (&CRCConfig{Width: 8, Polynomial: 0x07, Init: 0x100}).Validate(), ErrInvalidParameter)
	assert.ErrorIs(t, (&CRCConfig{Width: 8, Polynomial: 0x06}).Validate(), ErrInvalidParameter)
}

func TestKeyedAndArgon2Config(t *testing.T) {
	assert.ErrorIs(t, (&KeyedConfig{}).Validate(), ErrInvalidParameter)
	require.NoError(t, (&KeyedConfig{Key: NewSecret([]byte("k"))}).Validate())

	a := DefaultArgon2Config()
	require.NoError(t, a.Validate())

	b := a.Clone()
	b.Salt = []byte("short")
	assert.ErrorIs(t, b.Validate(), ErrInvalidParameter)
	assert.Equal(t, []byte("hashkit-argon2id"), a.Salt)

	b = a.Clone()
	b.KeyLen = 2
	assert.ErrorIs(t, b.Validate(), ErrInvalidHashSize)
}

func TestPasswordHashConfigs(t *testing.T) {
	s := DefaultScryptConfig()
	require.NoError(t, s.Validate())
	bad := s.Clone()
	bad.N = 1000
	assert.ErrorIs(t, bad.Validate(), ErrInvalidParameter)
	bad = s.Clone()
	bad.KeyLen = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidHashSize)

	p := DefaultPBKDF2Config()
	require.NoError(t, p.Validate())
	badP := p.Clone()
	badP.Iterations = 0
	assert.ErrorIs(t, badP.Validate(), ErrInvalidParameter)

	b := DefaultBcryptConfig()
	require.NoError(t, b.Validate())
	badB := b.Clone()
	badB.Salt = []byte("too short")
	assert.ErrorIs(t, badB.Validate(), ErrInvalidParameter)
	badB = b.Clone()
	badB.Cost = 3
	assert.ErrorIs(t, badB.Validate(), ErrInvalidParameter)
	assert.Len(t, b.Salt, BcryptSaltSize)
}
