package common

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidChecksumLine is wrapped by ParseChecksumLine errors.
var ErrInvalidChecksumLine = errors.New("invalid checksum line")

// FormatPercent formats a percent value as a string without unnecessary trailing zeros (e.g. 95, 95.5)
func FormatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// ParsePercent parses a percent string (e.g., "50%") and returns its value as a float64.
func ParsePercent(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("percentage cannot be empty")
	}
	s = strings.TrimSuffix(s, "%")
	percent, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid percentage: %s", s)
	}
	if percent < 0 || percent > 100 {
		return 0, fmt.Errorf("percentage must be in [0,100]: %s", s)
	}
	return percent, nil
}

// ParseInt64 parses a string as int64 and returns an error if invalid or negative.
func ParseInt64(s string) (int64, error) {
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil || val < 0 {
		return 0, fmt.Errorf("invalid int64: %s", s)
	}
	return val, nil
}

// ChecksumLine is one parsed line of hash output.
type ChecksumLine struct {
	Hash      string
	ByteCount int64 // -1 when the line carries no size
	Spec      FileAndRangeSpec
}

// ParseChecksumLine parses "<hash> <file>" or "<hash> <size> <file>", where
// file may carry a range suffix. File names may contain spaces.
func ParseChecksumLine(line string) (ChecksumLine, error) {
	parts := strings.Fields(line)
	if len(parts) < 2 {
		return ChecksumLine{}, fmt.Errorf("%w: %q", ErrInvalidChecksumLine, line)
	}

	out := ChecksumLine{Hash: parts[0], ByteCount: -1}
	fileStart := 1
	if len(parts) > 2 {
		if count, err := ParseInt64(parts[1]); err == nil {
			out.ByteCount = count
			fileStart = 2
		}
	}

	filePath := strings.Join(parts[fileStart:], " ")
	if err := out.Spec.Parse(filePath); err != nil {
		return ChecksumLine{}, fmt.Errorf("%w: %w", ErrInvalidChecksumLine, err)
	}
	return out, nil
}

// String renders the line in the form ParseChecksumLine accepts.
func (c ChecksumLine) String() string {
	if c.ByteCount < 0 {
		return fmt.Sprintf("%s %s", c.Hash, c.Spec.DisplayName())
	}
	return fmt.Sprintf("%s %d %s", c.Hash, c.ByteCount, c.Spec.DisplayName())
}
