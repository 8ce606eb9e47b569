package control

import "math"

// LongControlState is the upstream longitudinal controller's mode.
type LongControlState int

const (
	LongOff LongControlState = iota
	LongPID
	LongStopping
	LongStarting
)

func (s LongControlState) String() string {
	switch s {
	case LongPID:
		return "pid"
	case LongStopping:
		return "stopping"
	case LongStarting:
		return "starting"
	default:
		return "off"
	}
}

// ClampFloat clamps value between min and max. NaN maps to min.
func ClampFloat(value, min, max float64) float64 {
	if math.IsNaN(value) {
		return min
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// finite replaces NaN and infinities with zero.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
