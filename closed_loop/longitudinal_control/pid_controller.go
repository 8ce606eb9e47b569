package control

import "math"

// PIDController tracks a target speed and returns the acceleration to ask
// for. It stands in for the upstream planner when replaying scenarios.
type PIDController struct {
	cfg PIDConfig

	// State
	integral    float64
	prevError   float64
	prevTarget  float64
	initialized bool

	// Overshoot protection
	overshootDuration float64
}

// NewPIDController creates a new PID controller with given configuration
func NewPIDController(cfg PIDConfig) *PIDController {
	return &PIDController{cfg: cfg}
}

// Reset clears the PID state
func (pid *PIDController) Reset() {
	pid.integral = 0.0
	pid.prevError = 0.0
	pid.prevTarget = 0.0
	pid.initialized = false
	pid.overshootDuration = 0.0
}

// Update computes the acceleration request for the current speed and
// target, both m/s.
func (pid *PIDController) Update(target, currentVelocity, dt float64) float64 {
	target, currentVelocity = finite(target), finite(currentVelocity)
	speedErr := target - currentVelocity

	if !pid.initialized {
		pid.prevError = speedErr
		pid.prevTarget = target
		pid.initialized = true
	}

	// Above target for more than 2 s: drop the integral so the output can
	// go negative quickly.
	if speedErr < 0 {
		pid.overshootDuration += dt
		if pid.overshootDuration > 2.0 {
			pid.integral = 0.0
		}
	} else {
		pid.overshootDuration = 0.0
	}

	p := pid.cfg.Kp * speedErr

	// no integration inside the ±0.05 m/s deadband
	if math.Abs(speedErr) > 0.05 {
		pid.integral += speedErr * dt
	}
	// keep only 10% when crossing the setpoint
	if (pid.prevError > 0 && speedErr < 0) || (pid.prevError < 0 && speedErr > 0) {
		pid.integral *= 0.1
	}
	pid.integral = ClampFloat(pid.integral, -pid.cfg.IntegralLimit, pid.cfg.IntegralLimit)
	i := pid.cfg.Ki * pid.integral

	var d, ff float64
	if dt > 0 {
		d = pid.cfg.Kd * (speedErr - pid.prevError) / dt
		ff = pid.cfg.KffAccel * (target - pid.prevTarget) / dt
	}

	accel := p + i + d + ff
	if accel > pid.cfg.MaxAccel || accel < pid.cfg.MinAccel {
		accel = ClampFloat(accel, pid.cfg.MinAccel, pid.cfg.MaxAccel)
		// back-calculate so the integral does not wind up
		if pid.cfg.Ki != 0 {
			pid.integral = (accel - p - d - ff) / pid.cfg.Ki
		}
	}

	pid.prevError = speedErr
	pid.prevTarget = target
	return accel
}

// GetDiagnostics returns current PID state for logging/debugging
func (pid *PIDController) GetDiagnostics() PIDDiagnostics {
	return PIDDiagnostics{
		Error:    pid.prevError,
		Integral: pid.integral,
		P:        pid.cfg.Kp * pid.prevError,
		I:        pid.cfg.Ki * pid.integral,
	}
}

// PIDDiagnostics contains PID internal state for monitoring
type PIDDiagnostics struct {
	Error    float64
	Integral float64
	P        float64
	I        float64
}
