package cruise

import "math"

const (
	// VCruiseInitial marks a set speed that was never set.
	VCruiseInitial = 255.0

	msToKph  = 3.6
	kphToMph = 0.621371192237334
	msToMph  = 2.2369362920544
)

// Limits are the set-speed bounds for a unit system, in kph.
type Limits struct {
	Min       float64
	Max       float64
	EnableMin float64
	Delta     float64
}

// LimitsFor returns the bounds for the metric or imperial cluster. The
// imperial step is 1.6 rather than an exact mph conversion so repeated
// steps land on whole displayed values.
func LimitsFor(metric bool) Limits {
	if metric {
		return Limits{Min: 10, Max: 200, EnableMin: 30, Delta: 1}
	}
	return Limits{Min: 8, Max: 145, EnableMin: 40, Delta: 1.6}
}

// clip bounds v to [lo, hi]; NaN collapses to lo.
func clip(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(v, hi))
}

// egoKph converts vEgo to kph. Non-finite or negative speeds read as
// standing still.
func egoKph(vEgo float64) float64 {
	if math.IsNaN(vEgo) || math.IsInf(vEgo, 0) || vEgo < 0 {
		return 0
	}
	return vEgo * msToKph
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// pyMod is a modulo whose result takes the sign of m.
func pyMod(v, m float64) float64 {
	return v - m*math.Floor(v/m)
}
