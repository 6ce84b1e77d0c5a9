package hashfunc

import (
	"errors"
	"hash"

	"github.com/guilt/hashkit/pkg/transformer"
)

// Hasher adapts a Function to hash.Hash so it can sit behind io.Copy,
// io.MultiWriter and friends.
//
// Sum finalizes a clone of the running state. When the core cannot be
// cloned, Sum finalizes the stream itself and further writes fail with
// transformer.ErrFinalized until Reset.
type Hasher struct {
	f   *Function
	t   *transformer.BlockTransformer
	sum []byte
}

var _ hash.Hash = (*Hasher)(nil)

// NewHasher returns a hash.Hash over f.
func NewHasher(f *Function) (*Hasher, error) {
	t, err := f.CreateBlockTransformer()
	if err != nil {
		return nil, err
	}
	return &Hasher{f: f, t: t}, nil
}

func (h *Hasher) Write(p []byte) (int, error) {
	if err := h.t.TransformBytes(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (h *Hasher) Sum(b []byte) []byte {
	if h.sum != nil {
		return append(b, h.sum...)
	}

	fork, err := h.t.Clone()
	if errors.Is(err, transformer.ErrNotCloneable) {
		fork = h.t
	} else if err != nil {
		logger.Error("cannot fork hash state", "name", h.f.name, "err", err)
		return b
	}

	v, err := fork.FinalizeHashValue()
	if err != nil {
		logger.Error("cannot finalize hash", "name", h.f.name, "err", err)
		return b
	}
	if fork == h.t {
		h.sum = v.Bytes()
	}
	return append(b, v.Bytes()...)
}

func (h *Hasher) Reset() {
	t, err := h.f.CreateBlockTransformer()
	if err != nil {
		// The factory already succeeded once in New.
		logger.Error("cannot reset hasher", "name", h.f.name, "err", err)
		return
	}
	h.t, h.sum = t, nil
}

func (h *Hasher) Size() int {
	return (h.f.bits + 7) / 8
}

func (h *Hasher) BlockSize() int {
	return h.t.BlockSize()
}
