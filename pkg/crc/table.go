package crc

import "sync"

type tableKey struct {
	width   int
	poly    uint64
	reflect bool
}

// tables is shared by every core. Two goroutines racing on a missing key
// may both build the table; LoadOrStore keeps the first one.
var tables sync.Map // tableKey -> []uint64

func tableFor(width int, poly uint64, reflected bool) []uint64 {
	key := tableKey{width: width, poly: poly, reflect: reflected}
	if t, ok := tables.Load(key); ok {
		return t.([]uint64)
	}

	t := buildTable(width, poly, reflected)
	actual, loaded := tables.LoadOrStore(key, t)
	if !loaded {
		logger.Debug("built crc table", "width", width, "poly", poly, "reflected", reflected, "entries", len(t))
	}
	return actual.([]uint64)
}

// buildTable returns a 256-entry byte-wise table for widths of 8 bits and
// more, and the 2-entry bit-wise table {0, poly} below that.
func buildTable(width int, poly uint64, reflected bool) []uint64 {
	if reflected {
		poly = reflect(poly, width)
	}
	if width < 8 {
		return []uint64{0, poly}
	}

	mask := ^uint64(0) >> (64 - width)
	t := make([]uint64, 256)
	for i := range t {
		var reg uint64
		if reflected {
			reg = uint64(i)
			for j := 0; j < 8; j++ {
				if reg&1 != 0 {
					reg = reg>>1 ^ poly
				} else {
					reg >>= 1
				}
			}
		} else {
			top := uint64(1) << (width - 1)
			reg = uint64(i) << (width - 8)
			for j := 0; j < 8; j++ {
				if reg&top != 0 {
					reg = reg<<1 ^ poly
				} else {
					reg <<= 1
				}
			}
		}
		t[i] = reg & mask
	}
	return t
}
