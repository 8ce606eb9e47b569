package lateral

import (
	"math"

	"adas-actuation-core/utils"
)

const (
	// ControlN is the number of horizon samples used for lateral control.
	ControlN = 17
	// MaxLateralJerk bounds curvature change, m/s^3.
	MaxLateralJerk = 5.0
	// DTModel is the planner period in seconds.
	DTModel = 0.05
	// DelayMargin is added to the actuator delay for the rest of the chain.
	DelayMargin = 0.2
	minSpeed    = 0.1
)

// TIdxs are the horizon sample times in seconds.
var TIdxs = func() []float64 {
	out := make([]float64, ControlN)
	for i := range out {
		f := float64(i) / 32
		out[i] = 10 * f * f
	}
	return out
}()

// Horizon is the planner's predicted heading, curvature and curvature rate
// at TIdxs.
type Horizon struct {
	Psis           []float64
	Curvatures     []float64
	CurvatureRates []float64
}

// Normalize returns h, or an all-zero horizon when any series has the wrong
// length.
func (h Horizon) Normalize() Horizon {
	if len(h.Psis) == ControlN && len(h.Curvatures) == ControlN && len(h.CurvatureRates) == ControlN {
		return h
	}
	return Horizon{
		Psis:           make([]float64, ControlN),
		Curvatures:     make([]float64, ControlN),
		CurvatureRates: make([]float64, ControlN),
	}
}

// MaxCurvatureRate is the curvature rate that produces MaxLateralJerk at v.
func MaxCurvatureRate(v float64) float64 {
	v = FloorSpeed(v)
	return MaxLateralJerk / (v * v)
}

// LagAdjustedCurvature extrapolates the curvature to command now so that
// the car reaches the planned heading after the actuator delay. The result
// stays within one planner tick of the horizon's first curvature sample.
func LagAdjustedCurvature(h Horizon, vEgo, steerActuatorDelay float64) (curvature, rate float64) {
	h = h.Normalize()
	v := FloorSpeed(vEgo)
	delay := steerActuatorDelay + DelayMargin

	current := h.Curvatures[0]
	psi := utils.MustCurve(TIdxs, h.Psis).At(delay)
	average := psi / (v * delay)
	desired := 2*average - current

	maxRate := MaxCurvatureRate(v)
	rate = clip(h.CurvatureRates[0], -maxRate, maxRate)
	curvature = clip(desired, current-maxRate*DTModel, current+maxRate*DTModel)
	return curvature, rate
}

// FloorSpeed keeps v finite and at least the minimum control speed.
func FloorSpeed(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < minSpeed {
		return minSpeed
	}
	return v
}
