// Package hashers is the static registry of hashkit algorithms. Built-in
// entries are added in init(); other packages may Register more.
package hashers

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/guilt/hashkit/pkg/common"
	"github.com/guilt/hashkit/pkg/config"
	"github.com/guilt/hashkit/pkg/hashfunc"
	"github.com/guilt/hashkit/pkg/log"
)

var logger = log.Named("hashers")

var (
	// ErrUnknownAlgorithm is returned for names that are not registered.
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
	// ErrDuplicateAlgorithm is returned by Register for a name already taken.
	ErrDuplicateAlgorithm = errors.New("algorithm already registered")
)

// DefaultAlgorithm is used by the CLI when no algorithm is named.
const DefaultAlgorithm = "blake3"

// Options are the per-instance parameters an entry turns into its own
// configuration. Zero values select the entry's defaults; options an entry
// does not support are rejected.
type Options struct {
	Key             *config.Secret
	Seeds           []uint64
	Bits            int
	Salt            []byte
	Personalization []byte
	Context         string
}

// Entry describes one registered algorithm.
type Entry struct {
	Algorithm common.Algorithm
	Name      string
	Category  common.Category
	// Keyed entries require Options.Key.
	Keyed bool
	// DefaultConfig returns a fresh copy of the configuration New starts
	// from, or nil for algorithms without one.
	DefaultConfig func() any
	New           func(opts Options) (*hashfunc.Function, error)
}

var (
	mu       sync.RWMutex
	registry = map[string]Entry{}
)

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds e under its lower-cased name.
func Register(e Entry) error {
	if e.Name == "" || e.New == nil {
		return fmt.Errorf("hashers: entry needs a name and a constructor")
	}
	key := normalize(e.Name)

	mu.Lock()
	defer mu.Unlock()
	if _, ok := registry[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateAlgorithm, key)
	}
	e.Name = key
	registry[key] = e
	return nil
}

func mustRegister(e Entry) {
	if err := Register(e); err != nil {
		panic(err)
	}
}

// Get looks an entry up by name, ignoring case.
func Get(name string) (Entry, error) {
	mu.RLock()
	defer mu.RUnlock()
	e, ok := registry[normalize(name)]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
	return e, nil
}

// Names returns every registered name, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByCategory returns the entries of one category sorted by name.
func ByCategory(c common.Category) []Entry {
	mu.RLock()
	defer mu.RUnlock()
	var out []Entry
	for _, e := range registry {
		if e.Category == c {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// New instantiates the named algorithm.
func New(name string, opts Options) (*hashfunc.Function, error) {
	e, err := Get(name)
	if err != nil {
		return nil, err
	}
	if e.Keyed && opts.Key.IsEmpty() {
		return nil, fmt.Errorf("%w: %s requires a key", config.ErrInvalidParameter, e.Name)
	}
	f, err := e.New(opts)
	if err != nil {
		logger.Debug("cannot instantiate algorithm", "name", e.Name, "err", err)
		return nil, err
	}
	return f, nil
}

// unsupported rejects the options an entry ignores.
type unsupported struct {
	key, seeds, bits, salt bool
}

func (u unsupported) check(name string, opts Options) error {
	switch {
	case u.key && !opts.Key.IsEmpty():
		return fmt.Errorf("%w: %s does not take a key", config.ErrInvalidParameter, name)
	case u.seeds && len(opts.Seeds) > 0:
		return fmt.Errorf("%w: %s does not take a seed", config.ErrInvalidParameter, name)
	case u.bits && opts.Bits != 0:
		return fmt.Errorf("%w: %s has a fixed output size", config.ErrInvalidHashSize, name)
	case u.salt && (len(opts.Salt) > 0 || len(opts.Personalization) > 0 || opts.Context != ""):
		return fmt.Errorf("%w: %s does not take a salt, personalization or context", config.ErrInvalidParameter, name)
	}
	return nil
}

var fixed = unsupported{key: true, seeds: true, bits: true, salt: true}

func init() {
	registerBuiltins()
	registerLibraries()
}
