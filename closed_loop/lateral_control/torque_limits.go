package lateral

import "math"

// Limiter selects how the commanded torque is bounded before rate limiting.
type Limiter string

const (
	// MotorLimiter keeps the command within ErrorMax of the torque the EPS
	// motor reports.
	MotorLimiter Limiter = "motor"
	// DriverLimiter narrows the command while the driver pushes against it.
	DriverLimiter Limiter = "driver"
)

// FaultKind selects the steering fault workaround a family needs.
type FaultKind string

const (
	RateFault  FaultKind = "rate"
	AngleFault FaultKind = "angle"
)

// TorqueLimitParams are the per-family steering torque constants, in
// integer torque units.
type TorqueLimitParams struct {
	Max       int `yaml:"max"`
	DeltaUp   int `yaml:"delta_up"`
	DeltaDown int `yaml:"delta_down"`

	ErrorMax int `yaml:"error_max"`

	DriverAllowance  int `yaml:"driver_allowance"`
	DriverMultiplier int `yaml:"driver_multiplier"`
	DriverFactor     int `yaml:"driver_factor"`

	Limiter Limiter   `yaml:"limiter"`
	Fault   FaultKind `yaml:"fault"`
}

// ApplyTorqueLimits bounds desired against measured torque and then limits
// how far it may move from last in one tick. measured is the EPS motor
// torque for MotorLimiter and the driver torque for DriverLimiter.
func ApplyTorqueLimits(desired, last int, measured float64, p TorqueLimitParams) int {
	apply := float64(desired)
	if math.IsNaN(measured) || math.IsInf(measured, 0) {
		measured = 0
	}

	steerMax := float64(p.Max)
	switch p.Limiter {
	case DriverLimiter:
		allowance := float64(p.DriverAllowance)
		mult := float64(p.DriverMultiplier)
		factor := float64(p.DriverFactor)
		driverMax := steerMax + (allowance+measured*factor)*mult
		driverMin := -steerMax + (-allowance+measured*factor)*mult
		maxAllowed := math.Max(math.Min(steerMax, driverMax), 0)
		minAllowed := math.Min(math.Max(-steerMax, driverMin), 0)
		apply = clip(apply, minAllowed, maxAllowed)
	default:
		errMax := float64(p.ErrorMax)
		maxLim := math.Min(math.Max(measured+errMax, errMax), steerMax)
		minLim := math.Max(math.Min(measured-errMax, -errMax), -steerMax)
		apply = clip(apply, minLim, maxLim)
	}

	apply = rateClip(apply, float64(last), float64(p.DeltaUp), float64(p.DeltaDown))
	return int(math.Round(apply))
}

// rateClip lets magnitude grow by at most up and shrink by at most down.
func rateClip(apply, last, up, down float64) float64 {
	if last > 0 {
		return clip(apply, math.Max(last-down, -up), last+up)
	}
	return clip(apply, last-up, math.Min(last+down, up))
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// RateLimit bounds newValue to [last+downStep, last+upStep]. downStep is
// normally negative.
func RateLimit(newValue, last, downStep, upStep float64) float64 {
	return clip(newValue, last+downStep, last+upStep)
}

// ApplyDeadzone removes a symmetric band around zero from err.
func ApplyDeadzone(err, deadzone float64) float64 {
	switch {
	case err > deadzone:
		return err - deadzone
	case err < -deadzone:
		return err + deadzone
	default:
		return 0
	}
}
