// Package cli builds the hashkit command tree.
package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/guilt/hashkit/pkg/config"
	"github.com/guilt/hashkit/pkg/crc"
	"github.com/guilt/hashkit/pkg/hashers"
	"github.com/guilt/hashkit/pkg/hashfunc"
	"github.com/guilt/hashkit/pkg/hashvalue"
	"github.com/guilt/hashkit/pkg/log"
)

var logger = log.Named("hashkit")

// New returns the root command with every subcommand attached.
func New() *cobra.Command {
	root := &cobra.Command{
		Use:           "hashkit",
		Short:         "Compute and verify checksums, hashes and MACs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newListCommand(), newHashCommand(), newVerifyCommand())
	return root
}

// algoOptions are the flags shared by hash and verify.
type algoOptions struct {
	algo            string
	format          string
	key             string
	keyHex          string
	seeds           []string
	bits            int
	salt            string
	personalization string
	context         string
	crcProfiles     string
	progress        bool
}

func (o *algoOptions) addFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.algo, "algo", "a", hashers.DefaultAlgorithm, "Hash algorithm (see 'hashkit list')")
	f.StringVarP(&o.format, "format", "f", hashvalue.Hex.String(), "Output format ("+strings.Join(hashvalue.FormatNames(), ", ")+")")
	f.StringVar(&o.key, "key", "", "Key for keyed algorithms, as text")
	f.StringVar(&o.keyHex, "key-hex", "", "Key for keyed algorithms, hex encoded")
	f.StringSliceVar(&o.seeds, "seed", nil, "Seed for seeded algorithms (repeat for two seeds; 0x prefix for hex)")
	f.IntVar(&o.bits, "bits", 0, "Output size in bits for variable-size algorithms")
	f.StringVar(&o.salt, "salt", "", "Salt (blake3, argon2id)")
	f.StringVar(&o.personalization, "personalization", "", "Personalization or customization string (blake3, kangaroo12)")
	f.StringVar(&o.context, "context", "", "BLAKE3 derive-key context")
	f.StringVar(&o.crcProfiles, "crc-profiles", "", "YAML file with extra CRC profiles")
	f.BoolVar(&o.progress, "progress", false, "Show progress bars on stderr")
	cmd.MarkFlagsMutuallyExclusive("key", "key-hex")
}

func (o *algoOptions) options() (hashers.Options, error) {
	var opts hashers.Options
	switch {
	case o.key != "":
		opts.Key = config.NewSecret([]byte(o.key))
	case o.keyHex != "":
		b, err := hashvalue.Decode(hashvalue.Hex, o.keyHex)
		if err != nil {
			return opts, fmt.Errorf("--key-hex: %w", err)
		}
		opts.Key = config.NewSecret(b)
	}
	for _, s := range o.seeds {
		seed, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return opts, fmt.Errorf("%w: seed %q: %v", config.ErrInvalidParameter, s, err)
		}
		opts.Seeds = append(opts.Seeds, seed)
	}
	opts.Bits = o.bits
	opts.Salt = []byte(o.salt)
	opts.Personalization = []byte(o.personalization)
	opts.Context = o.context
	return opts, nil
}

// function loads any extra CRC profiles and instantiates the algorithm.
func (o *algoOptions) function() (*hashfunc.Function, hashvalue.Format, error) {
	format, err := hashvalue.ParseFormat(o.format)
	if err != nil {
		return nil, 0, err
	}
	if o.crcProfiles != "" {
		if err := loadCRCProfiles(o.crcProfiles); err != nil {
			return nil, 0, err
		}
	}
	opts, err := o.options()
	if err != nil {
		return nil, 0, err
	}
	f, err := newFunction(o.algo, opts)
	if err != nil {
		return nil, 0, err
	}
	logger.Debug("instantiated algorithm", "algo", f.Name(), "bits", f.HashSizeInBits(), "format", format)
	return f, format, nil
}

// newFunction instantiates algo and then wipes the key in opts. Entries
// keep their own copy of the key.
func newFunction(algo string, opts hashers.Options) (*hashfunc.Function, error) {
	defer opts.Key.Destroy()
	return hashers.New(algo, opts)
}

func loadCRCProfiles(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	profiles, err := crc.LoadProfiles(file)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for _, p := range profiles {
		if err := hashers.RegisterCRC(p); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}
