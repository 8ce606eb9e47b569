package control

// LongInput is one tick of longitudinal demand.
type LongInput struct {
	Accel       float64 // m/s^2
	VEgo        float64 // m/s
	Active      bool
	Interceptor bool // pedal interceptor fitted and in use
}

// LongOutput is what gets sent. Each command is exactly zero when its path
// is not active.
type LongOutput struct {
	Accel float64
	Gas   float64
}

// Compose produces the native accel command and the interceptor pedal
// command for one tick.
func Compose(in LongInput, p ComposerParams) LongOutput {
	return LongOutput{
		Accel: NativeAccel(in.Accel, in.VEgo, in.Active, p),
		Gas:   InterceptorGas(in.Accel, in.VEgo, in.Active && in.Interceptor, p),
	}
}

// NativeAccel clips accel to the family's limits at vEgo.
func NativeAccel(accel, vEgo float64, active bool, p ComposerParams) float64 {
	if !active {
		return 0
	}
	v := finite(vEgo)
	return ClampFloat(finite(accel), p.AccelMin.At(v), p.AccelMax.At(v))
}

// InterceptorGas maps accel to a pedal position. The interceptor outputs
// the larger of the driver's pedal and this command, so an inactive path
// must be an exact zero or the pedal range gets rescaled.
func InterceptorGas(accel, vEgo float64, active bool, p ComposerParams) float64 {
	if !active {
		return 0
	}
	v := finite(vEgo)
	cmd := p.PedalScale.At(v) * (finite(accel) + p.PedalOffset.At(v))
	return ClampFloat(cmd, 0, p.MaxInterceptorGas)
}
