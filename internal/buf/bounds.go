// Package buf contains overflow-safe range helpers shared by the page store
// and the facade.
package buf

import (
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// AddU32 adds a and b, returning ok = false when the sum does not fit in a uint32.
// Chain lengths and positions are uint32 on disk, so every position + count
// computation goes through here.
func AddU32(a uint32, b int) (uint32, bool) {
	if b < 0 || uint64(a)+uint64(b) > math.MaxUint32 {
		return 0, false
	}
	return a + uint32(b), true
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end], true
}
