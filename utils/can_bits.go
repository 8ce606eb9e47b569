package utils

import "math"

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clip bounds v to [lo, hi]. NaN collapses to lo so a bad input can never
// escape the range.
func Clip(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return clamp(v, lo, hi)
}

func clampRaw(raw int64, bitLen int, signed bool) int64 {
	if bitLen <= 0 || bitLen > 63 {
		return raw
	}
	if !signed {
		max := int64((1 << bitLen) - 1)
		if raw < 0 {
			return 0
		}
		if raw > max {
			return max
		}
		return raw
	}
	min := -int64(1 << (bitLen - 1))
	max := int64((1 << (bitLen - 1)) - 1)
	if raw < min {
		return min
	}
	if raw > max {
		return max
	}
	return raw
}

// Wrap reduces a rolling counter to the width of its field.
func Wrap(counter uint64, bitLen int) float64 {
	if bitLen <= 0 || bitLen >= 64 {
		return float64(counter)
	}
	return float64(counter & ((1 << bitLen) - 1))
}

func BoolToFloat(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
