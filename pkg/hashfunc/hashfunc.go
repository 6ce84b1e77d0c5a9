// Package hashfunc is the one-call face of every hashkit algorithm: it
// validates a configuration once, then drives a fresh BlockTransformer over
// a buffer or a reader for each computation.
package hashfunc

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/guilt/hashkit/pkg/hashvalue"
	"github.com/guilt/hashkit/pkg/log"
	"github.com/guilt/hashkit/pkg/transformer"
)

var logger = log.Named("hashfunc")

// ReadSize is the buffer size ComputeHashReader reads with.
const ReadSize = 4096

// CoreFactory returns a fresh core for one computation. Factories capture
// their own copy of the configuration.
type CoreFactory func() (transformer.Core, error)

// HashFunction is implemented by Function. Callers that only compute hashes
// should depend on it rather than on the concrete type.
type HashFunction interface {
	Name() string
	HashSizeInBits() int
	ComputeHash(data []byte) (hashvalue.HashValue, error)
	ComputeHashContext(ctx context.Context, data []byte) (hashvalue.HashValue, error)
	ComputeHashReader(ctx context.Context, r io.Reader) (hashvalue.HashValue, error)
	CreateBlockTransformer() (*transformer.BlockTransformer, error)
}

// Function is a validated, reusable hash function. It is safe for
// concurrent use: every computation gets its own transformer.
type Function struct {
	name    string
	bits    int
	newCore CoreFactory
	opts    []transformer.Option
}

var _ HashFunction = (*Function)(nil)

// New builds a Function. The factory is called once here so that a bad
// configuration fails at construction and not on first use.
func New(name string, bits int, newCore CoreFactory, opts ...transformer.Option) (*Function, error) {
	if newCore == nil {
		return nil, errors.New("hashfunc: nil core factory")
	}
	if bits < 1 {
		return nil, fmt.Errorf("hashfunc: %s: hash size must be >= 1 bit, got %d", name, bits)
	}
	if _, err := newCore(); err != nil {
		logger.Debug("rejected hash function", "name", name, "err", err)
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &Function{name: name, bits: bits, newCore: newCore, opts: opts}, nil
}

func (f *Function) Name() string {
	return f.name
}

func (f *Function) HashSizeInBits() int {
	return f.bits
}

// CreateBlockTransformer returns an empty transformer for streaming use.
func (f *Function) CreateBlockTransformer() (*transformer.BlockTransformer, error) {
	core, err := f.newCore()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.name, err)
	}
	return transformer.New(core, f.opts...)
}

// ComputeHash hashes data in one call.
func (f *Function) ComputeHash(data []byte) (hashvalue.HashValue, error) {
	return f.ComputeHashContext(context.Background(), data)
}

// ComputeHashContext hashes data, giving up between batches when ctx is
// done.
func (f *Function) ComputeHashContext(ctx context.Context, data []byte) (hashvalue.HashValue, error) {
	t, err := f.CreateBlockTransformer()
	if err != nil {
		return hashvalue.HashValue{}, err
	}
	if err := t.TransformBytesContext(ctx, data); err != nil {
		return hashvalue.HashValue{}, fmt.Errorf("%s: %w", f.name, err)
	}
	return t.FinalizeHashValueContext(ctx)
}

// ComputeHashReader hashes everything r yields until io.EOF.
func (f *Function) ComputeHashReader(ctx context.Context, r io.Reader) (hashvalue.HashValue, error) {
	t, err := f.CreateBlockTransformer()
	if err != nil {
		return hashvalue.HashValue{}, err
	}

	buf := make([]byte, ReadSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if terr := t.TransformBytesContext(ctx, buf[:n]); terr != nil {
				return hashvalue.HashValue{}, fmt.Errorf("%s: %w", f.name, terr)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return hashvalue.HashValue{}, fmt.Errorf("%s: reading input: %w", f.name, err)
		}
	}
	return t.FinalizeHashValueContext(ctx)
}
