package lateral

import "math"

const (
	// MaxSteerRate is the steering rate, deg/s, above which the EPS starts
	// counting towards its rate fault.
	MaxSteerRate = 100.0
	// MaxSteerRateFrames is how many consecutive fast ticks we allow before
	// dropping the request for one tick. The EPS faults a little later.
	MaxSteerRateFrames = 19

	// MaxSteerAngle and MaxSteerAngleFrames bound how long torque may be held
	// past the EPS angle limit before the temporary fault is raised.
	MaxSteerAngle       = 85.0
	MaxSteerAngleFrames = 90
)

// SteerState is carried between ticks.
type SteerState struct {
	LastTorque  int
	RateCounter int
	RateLimited bool

	AngleCounter int
	CutFrames    int
	CutSteer     bool
}

// SteerInput is one tick of steering demand and feedback.
type SteerInput struct {
	Steer        float64 // normalized [-1, 1]
	Active       bool
	EPSTorque    float64
	DriverTorque float64
	RateDeg      float64
	AngleDeg     float64
}

// SteerOutput is what gets packed into the steering frame.
type SteerOutput struct {
	Torque      int
	Request     bool
	TorqueFault bool
	Steer       float64 // Torque normalized back to [-1, 1]
}

// StepSteer scales, limits and fault-guards one tick of steering torque.
func StepSteer(s SteerState, in SteerInput, p TorqueLimitParams) (SteerState, SteerOutput) {
	steer := in.Steer
	if math.IsNaN(steer) {
		steer = 0
	}
	steer = clip(steer, -1, 1)

	desired := int(math.Round(steer * float64(p.Max)))
	measured := in.EPSTorque
	if p.Limiter == DriverLimiter {
		measured = in.DriverTorque
	}
	torque := ApplyTorqueLimits(desired, s.LastTorque, measured, p)

	out := SteerOutput{Request: true}
	if in.Active {
		s.RateLimited = desired != torque
	}

	switch p.Fault {
	case AngleFault:
		s, out.TorqueFault = stepAngleFault(s, in)
	default:
		if in.Active && math.Abs(in.RateDeg) >= MaxSteerRate {
			s.RateCounter++
		} else {
			s.RateCounter = 0
		}
	}

	if !in.Active {
		torque = 0
		out.Request = false
	} else if p.Fault != AngleFault && s.RateCounter >= MaxSteerRateFrames {
		out.Request = false
		s.RateCounter = 0
	}

	s.LastTorque = torque
	out.Torque = torque
	if p.Max > 0 {
		out.Steer = float64(torque) / float64(p.Max)
	}
	return s, out
}

// stepAngleFault holds torque through a two tick temporary fault once the
// wheel has been past MaxSteerAngle for too long.
func stepAngleFault(s SteerState, in SteerInput) (SteerState, bool) {
	if in.Active && math.Abs(in.AngleDeg) > MaxSteerAngle {
		s.AngleCounter++
	} else {
		s.AngleCounter = 0
	}

	if s.AngleCounter > MaxSteerAngleFrames {
		s.CutSteer = true
	} else if s.CutFrames > 1 {
		s.CutFrames = 0
		s.CutSteer = false
	}

	if !s.CutSteer {
		return s, false
	}
	s.AngleCounter = 0
	s.CutFrames++
	return s, true
}
