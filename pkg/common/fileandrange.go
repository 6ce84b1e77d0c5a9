package common

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidRange is wrapped by every range parsing and resolution error.
var ErrInvalidRange = errors.New("invalid range")

// FileAndRangeSpec is a file path with an optional byte or percent range,
// written "file", "file#N" (first N bytes), "file#start-end", "file#start-"
// or the same with percentages ("file#10%-20%").
// When IsPercent is true, Start and End are stored as basis points (0-10000), where 10000 = 100%.
type FileAndRangeSpec struct {
	FilePath string
	// Start and End are basis points when IsPercent is true. End is -1 for
	// "to the end of the file".
	Start     int64
	End       int64
	IsPercent bool
}

// WholeFile returns a spec covering all of path.
func WholeFile(path string) FileAndRangeSpec {
	return FileAndRangeSpec{FilePath: path, End: -1}
}

// IsWhole reports whether the spec covers the entire file.
func (rs *FileAndRangeSpec) IsWhole() bool {
	if rs.IsPercent {
		return rs.Start == 0 && (rs.End == -1 || rs.End == 10000)
	}
	return rs.Start == 0 && rs.End == -1
}

// Bounds resolves the spec against a file of fileSize bytes.
func (rs *FileAndRangeSpec) Bounds(fileSize int64) (start, end int64, err error) {
	if rs.IsPercent {
		start = int64(float64(fileSize) * float64(rs.Start) / 10000)
		end = fileSize
		if rs.End != -1 {
			end = int64(float64(fileSize) * float64(rs.End) / 10000)
		}
	} else {
		start, end = rs.Start, rs.End
		if end == -1 || end > fileSize {
			end = fileSize
		}
	}
	if start < 0 || start > end {
		return 0, 0, fmt.Errorf("%w: %d-%d of a %d byte file", ErrInvalidRange, start, end, fileSize)
	}
	return start, end, nil
}

// Open opens the file and returns a reader over the spec's range together
// with the range length. Closing the returned closer closes the file.
func (rs *FileAndRangeSpec) Open() (io.Reader, int64, io.Closer, error) {
	f, err := os.Open(rs.FilePath)
	if err != nil {
		return nil, 0, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, nil, fmt.Errorf("cannot stat file: %w", err)
	}
	start, end, err := rs.Bounds(info.Size())
	if err != nil {
		f.Close()
		return nil, 0, nil, err
	}
	return io.NewSectionReader(f, start, end-start), end - start, f, nil
}

// String renders the spec in the form Parse accepts.
func (rs *FileAndRangeSpec) String() string {
	if rs.IsWhole() {
		return rs.FilePath
	}
	if rs.IsPercent {
		if rs.End == -1 {
			return fmt.Sprintf("%s#%s%%-", rs.FilePath, FormatPercent(float64(rs.Start)/100))
		}
		return fmt.Sprintf("%s#%s%%-%s%%", rs.FilePath, FormatPercent(float64(rs.Start)/100), FormatPercent(float64(rs.End)/100))
	}
	if rs.End == -1 {
		return fmt.Sprintf("%s#%d-", rs.FilePath, rs.Start)
	}
	return fmt.Sprintf("%s#%d-%d", rs.FilePath, rs.Start, rs.End)
}

// DisplayName is String with the directory stripped, as written into
// checksum output.
func (rs *FileAndRangeSpec) DisplayName() string {
	c := *rs
	c.FilePath = filepath.Base(rs.FilePath)
	return c.String()
}

// Parse populates the FileAndRangeSpec fields from a string of the form "file#start-end" or "file#start%-end%".
func (rs *FileAndRangeSpec) Parse(s string) error {
	parts := strings.SplitN(s, "#", 2)
	rs.FilePath = parts[0]
	rs.Start = 0
	rs.End = -1
	rs.IsPercent = false

	if rs.FilePath == "" {
		return fmt.Errorf("%w: empty file path in %q", ErrInvalidRange, s)
	}
	if len(parts) == 1 {
		return nil
	}

	rangeSpec := parts[1]
	if strings.Contains(rangeSpec, "%") {
		return rs.parsePercent(rangeSpec)
	}

	if strings.Contains(rangeSpec, "-") {
		rangeParts := strings.Split(rangeSpec, "-")
		if len(rangeParts) != 2 {
			return fmt.Errorf("%w: %s", ErrInvalidRange, rangeSpec)
		}
		start, err := ParseInt64(rangeParts[0])
		if err != nil {
			return fmt.Errorf("%w: start: %w", ErrInvalidRange, err)
		}
		var end int64 = -1
		if rangeParts[1] != "" {
			end, err = ParseInt64(rangeParts[1])
			if err != nil {
				return fmt.Errorf("%w: end: %w", ErrInvalidRange, err)
			}
		}
		if end != -1 && end <= start {
			return fmt.Errorf("%w: %d-%d", ErrInvalidRange, start, end)
		}
		rs.Start = start
		rs.End = end
		return nil
	}

	count, err := ParseInt64(rangeSpec)
	if err != nil || count <= 0 {
		return fmt.Errorf("%w: byte count %s", ErrInvalidRange, rangeSpec)
	}
	rs.End = count
	return nil
}

func (rs *FileAndRangeSpec) parsePercent(rangeSpec string) error {
	rs.IsPercent = true
	if !strings.Contains(rangeSpec, "-") {
		percent, err := ParsePercent(rangeSpec)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRange, err)
		}
		rs.End = int64(percent * 100)
		return nil
	}

	percentParts := strings.Split(rangeSpec, "-")
	if len(percentParts) != 2 {
		return fmt.Errorf("%w: %s", ErrInvalidRange, rangeSpec)
	}
	start, err := ParsePercent(percentParts[0])
	if err != nil {
		return fmt.Errorf("%w: start: %w", ErrInvalidRange, err)
	}
	rs.Start = int64(start * 100)
	if percentParts[1] == "" {
		return nil
	}
	end, err := ParsePercent(percentParts[1])
	if err != nil {
		return fmt.Errorf("%w: end: %w", ErrInvalidRange, err)
	}
	if end <= start {
		return fmt.Errorf("%w: %v%%-%v%% (end <= start)", ErrInvalidRange, start, end)
	}
	rs.End = int64(end * 100)
	return nil
}

// IncrementalRanges splits filePath into consecutive percent ranges of
// the given width; the last one is clipped at 100%.
func IncrementalRanges(filePath string, percent float64) []FileAndRangeSpec {
	if percent <= 0 || percent > 100 {
		return nil
	}
	numIncrements := int(math.Ceil(100 / percent))
	result := make([]FileAndRangeSpec, 0, numIncrements)
	for i := 0; i < numIncrements; i++ {
		startPercent := float64(i) * percent
		endPercent := math.Min(startPercent+percent, 100)
		result = append(result, FileAndRangeSpec{
			FilePath:  filePath,
			Start:     int64(math.Round(startPercent * 100)),
			End:       int64(math.Round(endPercent * 100)),
			IsPercent: true,
		})
	}
	return result
}
