// Package safeconv provides integer conversions that clamp instead of wrapping.
package safeconv

import "math"

// SafeInt64 converts v to int64, clamping to math.MaxInt64.
func SafeInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}

	return int64(v)
}
