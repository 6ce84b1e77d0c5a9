package hashfunc

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/guilt/hashkit/pkg/blake3"
	"github.com/guilt/hashkit/pkg/config"
	"github.com/guilt/hashkit/pkg/crc"
	"github.com/guilt/hashkit/pkg/hashvalue"
	"github.com/guilt/hashkit/pkg/transformer"
)

func blake3Function(t *testing.T, cfg *config.Blake3Config) *Function {
	t.Helper()
	f, err := New("blake3", cfg.HashSizeInBits, func() (transformer.Core, error) {
		return blake3.NewCore(cfg)
	})
	require.NoError(t, err)
	return f
}

func crcFunction(t *testing.T, name string) *Function {
	t.Helper()
	cfg, err := crc.Profile(name)
	require.NoError(t, err)
	f, err := New(cfg.Name, cfg.Width, func() (transformer.Core, error) {
		return crc.NewCore(cfg)
	})
	require.NoError(t, err)
	return f
}

// sumOnlyCore cannot be cloned, like a library hash without state export.
type sumOnlyCore struct {
	n int
}

func (c *sumOnlyCore) BlockSize() int              { return 1 }
func (c *sumOnlyCore) TransformBlock(block []byte) { c.n += len(block) }
func (c *sumOnlyCore) FinalizeBlock(rem []byte) (hashvalue.HashValue, error) {
	return hashvalue.New([]byte{byte(c.n + len(rem))}, 8, hashvalue.NotApplicable)
}
func (c *sumOnlyCore) Clone() (transformer.Core, error) { return nil, transformer.ErrNotCloneable }

type FunctionSuite struct {
	suite.Suite
	data []byte
}

func (s *FunctionSuite) SetupTest() {
	s.data = make([]byte, 10000)
	rand.New(rand.NewSource(5)).Read(s.data)
}

func (s *FunctionSuite) TestComputeHashMatchesDirectCore() {
	f := crcFunction(s.T(), "CRC-32/ISO-HDLC")
	s.Equal("CRC-32/ISO-HDLC", f.Name())
	s.Equal(32, f.HashSizeInBits())

	v, err := f.ComputeHash([]byte(crc.CheckInput))
	s.Require().NoError(err)
	got, err := v.AsUint32()
	s.Require().NoError(err)
	s.Equal(uint32(0xcbf43926), got)
}

func (s *FunctionSuite) TestReaderMatchesBuffer() {
	f := blake3Function(s.T(), &config.Blake3Config{HashSizeInBits: 256})
	want, err := f.ComputeHash(s.data)
	s.Require().NoError(err)

	readers := map[string]io.Reader{
		"plain":    bytes.NewReader(s.data),
		"one byte": iotest.OneByteReader(bytes.NewReader(s.data)),
		"half":     iotest.HalfReader(bytes.NewReader(s.data)),
		"data+eof": iotest.DataErrReader(bytes.NewReader(s.data)),
	}
	for name, r := range readers {
		got, err := f.ComputeHashReader(context.Background(), r)
		s.Require().NoError(err, name)
		s.True(want.Equal(got), name)
	}
}

func (s *FunctionSuite) TestReaderErrorPropagates() {
	f := blake3Function(s.T(), &config.Blake3Config{HashSizeInBits: 256})
	boom := errors.New("boom")
	_, err := f.ComputeHashReader(context.Background(), iotest.ErrReader(boom))
	s.ErrorIs(err, boom)
}

func (s *FunctionSuite) TestCancelledContext() {
	f := blake3Function(s.T(), &config.Blake3Config{HashSizeInBits: 256})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.ComputeHashContext(ctx, s.data)
	s.ErrorIs(err, transformer.ErrCorrupted)
	s.ErrorIs(err, context.Canceled)

	_, err = f.ComputeHashReader(ctx, bytes.NewReader(s.data))
	s.ErrorIs(err, context.Canceled)

	// The function itself is still usable.
	_, err = f.ComputeHash(s.data)
	s.NoError(err)
}

func (s *FunctionSuite) TestEmptyInput() {
	f := blake3Function(s.T(), &config.Blake3Config{HashSizeInBits: 256})
	v, err := f.ComputeHash(nil)
	s.Require().NoError(err)
	want := blake3.Sum256(nil)
	s.Equal(want[:], v.Bytes())
}

func (s *FunctionSuite) TestConstructionValidates() {
	_, err := New("blake3", 12, func() (transformer.Core, error) {
		return blake3.NewCore(&config.Blake3Config{HashSizeInBits: 12})
	})
	s.ErrorIs(err, config.ErrInvalidHashSize)

	_, err = New("nil", 8, nil)
	s.Error(err)

	_, err = New("zero", 0, func() (transformer.Core, error) { return &sumOnlyCore{}, nil })
	s.Error(err)
}

func (s *FunctionSuite) TestConcurrentUse() {
	f := crcFunction(s.T(), "CRC-64/XZ")
	want, err := f.ComputeHash(s.data)
	s.Require().NoError(err)

	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			v, err := f.ComputeHash(s.data)
			if err == nil && !v.Equal(want) {
				err = errors.New("mismatch")
			}
			errs <- err
		}()
	}
	for i := 0; i < 8; i++ {
		s.NoError(<-errs)
	}
}

func TestFunctionSuite(t *testing.T) {
	suite.Run(t, new(FunctionSuite))
}

func TestHasherAdapter(t *testing.T) {
	f := blake3Function(t, &config.Blake3Config{HashSizeInBits: 512})
	h, err := NewHasher(f)
	require.NoError(t, err)
	assert.Equal(t, 64, h.Size())
	assert.Equal(t, 1024, h.BlockSize())

	data := make([]byte, 5000)
	rand.New(rand.NewSource(9)).Read(data)

	_, err = io.Copy(h, bytes.NewReader(data[:3000]))
	require.NoError(t, err)
	mid := h.Sum(nil)
	assert.Equal(t, mid, h.Sum(nil))

	want, err := f.ComputeHash(data[:3000])
	require.NoError(t, err)
	assert.Equal(t, want.Bytes(), mid)

	h.Write(data[3000:])
	want, err = f.ComputeHash(data)
	require.NoError(t, err)
	assert.Equal(t, append([]byte("prefix"), want.Bytes()...), h.Sum([]byte("prefix")))

	h.Reset()
	want, err = f.ComputeHash(nil)
	require.NoError(t, err)
	assert.Equal(t, want.Bytes(), h.Sum(nil))
}

func TestHasherWithoutClone(t *testing.T) {
	f, err := New("count", 8, func() (transformer.Core, error) { return &sumOnlyCore{}, nil })
	require.NoError(t, err)
	h, err := NewHasher(f)
	require.NoError(t, err)

	h.Write([]byte("abc"))
	assert.Equal(t, []byte{3}, h.Sum(nil))
	assert.Equal(t, []byte{3}, h.Sum(nil))

	_, err = h.Write([]byte("d"))
	assert.ErrorIs(t, err, transformer.ErrFinalized)

	h.Reset()
	h.Write([]byte("de"))
	assert.Equal(t, []byte{2}, h.Sum(nil))
}
