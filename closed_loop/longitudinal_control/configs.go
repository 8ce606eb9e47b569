package control

import "adas-actuation-core/utils"

// PIDConfig holds speed PID parameters. Output is an acceleration request.
type PIDConfig struct {
	Kp            float64 `json:"kp" yaml:"kp"`
	Ki            float64 `json:"ki" yaml:"ki"`
	Kd            float64 `json:"kd" yaml:"kd"`
	KffAccel      float64 `json:"kff_accel" yaml:"kff_accel"` // feedforward on target speed changes
	MaxAccel      float64 `json:"max_accel" yaml:"max_accel"`
	MinAccel      float64 `json:"min_accel" yaml:"min_accel"`
	IntegralLimit float64 `json:"integral_limit" yaml:"integral_limit"`
}

// DefaultPIDConfig is a gentle passenger-car tune.
func DefaultPIDConfig() PIDConfig {
	return PIDConfig{
		Kp:            0.6,
		Ki:            0.1,
		Kd:            0.0,
		KffAccel:      0.9,
		MaxAccel:      2.0,
		MinAccel:      -3.5,
		IntegralLimit: 10,
	}
}

// ComposerParams are the per-family longitudinal tables. All curves take
// vehicle speed in m/s.
type ComposerParams struct {
	AccelMin          utils.Curve
	AccelMax          utils.Curve
	PedalScale        utils.Curve
	PedalOffset       utils.Curve
	MaxInterceptorGas float64
}
