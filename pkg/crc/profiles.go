package crc

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/guilt/hashkit/pkg/config"
)

// ErrUnknownProfile is returned when a profile name is not in the catalogue.
var ErrUnknownProfile = errors.New("unknown crc profile")

// CheckInput is the input every profile's Check value is computed over.
const CheckInput = "123456789"

const all64 = ^uint64(0)

var builtinProfiles = []config.CRCConfig{
	{Name: "CRC-3/ROHC", Width: 3, Polynomial: 0x3, Init: 0x7, ReflectIn: true, ReflectOut: true, Check: 0x6},
	{Name: "CRC-4/G-704", Width: 4, Polynomial: 0x3, ReflectIn: true, ReflectOut: true, Check: 0x7},
	{Name: "CRC-5/USB", Width: 5, Polynomial: 0x05, Init: 0x1f, ReflectIn: true, ReflectOut: true, XorOut: 0x1f, Check: 0x19},
	{Name: "CRC-5/EPC-C1G2", Width: 5, Polynomial: 0x09, Init: 0x09, Check: 0x00},
	{Name: "CRC-6/G-704", Width: 6, Polynomial: 0x03, ReflectIn: true, ReflectOut: true, Check: 0x06},
	{Name: "CRC-7/MMC", Width: 7, Polynomial: 0x09, Check: 0x75},
	{Name: "CRC-8/SMBUS", Width: 8, Polynomial: 0x07, Check: 0xf4},
	{Name: "CRC-8/MAXIM-DOW", Width: 8, Polynomial: 0x31, ReflectIn: true, ReflectOut: true, Check: 0xa1},
	{Name: "CRC-8/I-432-1", Width: 8, Polynomial: 0x07, XorOut: 0x55, Check: 0xa1},
	{Name: "CRC-8/CDMA2000", Width: 8, Polynomial: 0x9b, Init: 0xff, Check: 0xda},
	{Name: "CRC-8/DARC", Width: 8, Polynomial: 0x39, ReflectIn: true, ReflectOut: true, Check: 0x15},
	{Name: "CRC-8/ROHC", Width: 8, Polynomial: 0x07, Init: 0xff, ReflectIn: true, ReflectOut: true, Check: 0xd0},
	{Name: "CRC-10/ATM", Width: 10, Polynomial: 0x233, Check: 0x199},
	{Name: "CRC-12/UMTS", Width: 12, Polynomial: 0x80f, ReflectOut: true, Check: 0xdaf},
	{Name: "CRC-15/CAN", Width: 15, Polynomial: 0x4599, Check: 0x059e},
	{Name: "CRC-16/ARC", Width: 16, Polynomial: 0x8005, ReflectIn: true, ReflectOut: true, Check: 0xbb3d},
	{Name: "CRC-16/IBM-3740", Width: 16, Polynomial: 0x1021, Init: 0xffff, Check: 0x29b1},
	{Name: "CRC-16/KERMIT", Width: 16, Polynomial: 0x1021, ReflectIn: true, ReflectOut: true, Check: 0x2189},
	{Name: "CRC-16/XMODEM", Width: 16, Polynomial: 0x1021, Check: 0x31c3},
	{Name: "CRC-16/MODBUS", Width: 16, Polynomial: 0x8005, Init: 0xffff, ReflectIn: true, ReflectOut: true, Check: 0x4b37},
	{Name: "CRC-16/IBM-SDLC", Width: 16, Polynomial: 0x1021, Init: 0xffff, ReflectIn: true, ReflectOut: true, XorOut: 0xffff, Check: 0x906e},
	{Name: "CRC-16/USB", Width: 16, Polynomial: 0x8005, Init: 0xffff, ReflectIn: true, ReflectOut: true, XorOut: 0xffff, Check: 0xb4c8},
	{Name: "CRC-16/DNP", Width: 16, Polynomial: 0x3d65, ReflectIn: true, ReflectOut: true, XorOut: 0xffff, Check: 0xea82},
	{Name: "CRC-24/OPENPGP", Width: 24, Polynomial: 0x864cfb, Init: 0xb704ce, Check: 0x21cf02},
	{Name: "CRC-32/ISO-HDLC", Width: 32, Polynomial: 0x04c11db7, Init: 0xffffffff, ReflectIn: true, ReflectOut: true, XorOut: 0xffffffff, Check: 0xcbf43926},
	{Name: "CRC-32/ISCSI", Width: 32, Polynomial: 0x1edc6f41, Init: 0xffffffff, ReflectIn: true, ReflectOut: true, XorOut: 0xffffffff, Check: 0xe3069283},
	{Name: "CRC-32/BZIP2", Width: 32, Polynomial: 0x04c11db7, Init: 0xffffffff, XorOut: 0xffffffff, Check: 0xfc891918},
	{Name: "CRC-32/MPEG-2", Width: 32, Polynomial: 0x04c11db7, Init: 0xffffffff, Check: 0x0376e6e7},
	{Name: "CRC-32/CKSUM", Width: 32, Polynomial: 0x04c11db7, XorOut: 0xffffffff, Check: 0x765e7680},
	{Name: "CRC-32/JAMCRC", Width: 32, Polynomial: 0x04c11db7, Init: 0xffffffff, ReflectIn: true, ReflectOut: true, Check: 0x340bc6d9},
	{Name: "CRC-32/AIXM", Width: 32, Polynomial: 0x814141ab, Check: 0x3010bf7f},
	{Name: "CRC-64/ECMA-182", Width: 64, Polynomial: 0x42f0e1eba9ea3693, Check: 0x6c40df5f0b497347},
	{Name: "CRC-64/XZ", Width: 64, Polynomial: 0x42f0e1eba9ea3693, Init: all64, ReflectIn: true, ReflectOut: true, XorOut: all64, Check: 0x995dc9bbdf1939fa},
	{Name: "CRC-64/GO-ISO", Width: 64, Polynomial: 0x1b, Init: all64, ReflectIn: true, ReflectOut: true, XorOut: all64, Check: 0xb90956c775a41001},
	{Name: "CRC-64/WE", Width: 64, Polynomial: 0x42f0e1eba9ea3693, Init: all64, XorOut: all64, Check: 0x62ec59e3f1a4f00a},
}

var (
	profilesMu sync.RWMutex
	profiles   = map[string]config.CRCConfig{}
)

func init() {
	for _, p := range builtinProfiles {
		profiles[normalizeName(p.Name)] = p
	}
}

func normalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Profile returns a copy of the named profile. Lookup ignores case.
func Profile(name string) (*config.CRCConfig, error) {
	profilesMu.RLock()
	defer profilesMu.RUnlock()

	p, ok := profiles[normalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return &p, nil
}

// Profiles returns every known profile sorted by width, then name.
func Profiles() []config.CRCConfig {
	profilesMu.RLock()
	out := make([]config.CRCConfig, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p)
	}
	profilesMu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Width != out[j].Width {
			return out[i].Width < out[j].Width
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Verify checks that cfg reproduces its Check value over CheckInput.
func Verify(cfg *config.CRCConfig) error {
	got, err := Checksum(cfg, []byte(CheckInput))
	if err != nil {
		return err
	}
	if got != cfg.Check {
		return fmt.Errorf("%w: %s check is %#x, computed %#x", config.ErrInvalidParameter, cfg.Name, cfg.Check, got)
	}
	return nil
}

type profileFile struct {
	Profiles []config.CRCConfig `yaml:"profiles"`
}

// LoadProfiles reads a YAML document of the form
//
//	profiles:
//	  - name: CRC-16/GENIBUS
//	    width: 16
//	    poly: 0x1021
//	    init: 0xffff
//	    xorout: 0xffff
//	    check: 0xd64e
//
// verifies every entry against its check value and adds it to the
// catalogue. Nothing is registered unless every entry is valid.
func LoadProfiles(r io.Reader) ([]config.CRCConfig, error) {
	var doc profileFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding crc profiles: %w", err)
	}

	for i := range doc.Profiles {
		p := &doc.Profiles[i]
		if p.Name == "" {
			return nil, fmt.Errorf("%w: crc profile %d has no name", config.ErrInvalidParameter, i)
		}
		if err := Verify(p); err != nil {
			return nil, fmt.Errorf("crc profile %q: %w", p.Name, err)
		}
	}

	profilesMu.Lock()
	for _, p := range doc.Profiles {
		profiles[normalizeName(p.Name)] = p
	}
	profilesMu.Unlock()

	logger.Debug("loaded crc profiles", "count", len(doc.Profiles))
	return doc.Profiles, nil
}
