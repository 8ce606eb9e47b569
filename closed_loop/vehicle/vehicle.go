// Package vehicle resolves a family tag to the constants the controller
// needs: steering limits, longitudinal tables, message variants and the
// static frames replayed for unplugged modules.
package vehicle

import (
	lateral "adas-actuation-core/closed_loop/lateral_control"
	control "adas-actuation-core/closed_loop/longitudinal_control"
	"adas-actuation-core/utils"
)

// Family identifies a group of vehicles that share parameters.
type Family string

// Brand selects the message set and scheduler.
type Brand string

const (
	Toyota  Brand = "toyota"
	Hyundai Brand = "hyundai"
)

// ButtonMode says how the cruise stalk reports presses.
type ButtonMode string

const (
	// EdgeButtons report press and release events.
	EdgeButtons ButtonMode = "edge"
	// LevelButtons report a held level; the set speed follows hold time.
	LevelButtons ButtonMode = "level"
)

// Params are the immutable per-family constants.
type Params struct {
	Family Family `yaml:"-"`
	Brand  Brand  `yaml:"brand"`

	Steer              lateral.TorqueLimitParams `yaml:"steer"`
	SteerActuatorDelay float64                   `yaml:"steer_actuator_delay"`

	AccelMin          utils.Curve `yaml:"accel_min"`
	AccelMax          utils.Curve `yaml:"accel_max"`
	PedalScale        utils.Curve `yaml:"pedal_scale"`
	PedalOffset       utils.Curve `yaml:"pedal_offset"`
	MaxInterceptorGas float64     `yaml:"max_interceptor_gas"`

	// NoStopTimer families never get a standstill request.
	NoStopTimer bool `yaml:"no_stop_timer"`
	// AngleSteerMsg families also expect the angle-mode steering frame.
	AngleSteerMsg bool `yaml:"angle_steer_msg"`
	// CancelOnlyMsg families cancel cruise with a dedicated frame.
	CancelOnlyMsg bool `yaml:"cancel_only_msg"`
	// UseLTAMsg selects the LTA variant of the lane HUD.
	UseLTAMsg bool `yaml:"use_lta_msg"`
	// IntegratedSensorModule families have no separate radar/camera module
	// whose frames we must replay.
	IntegratedSensorModule bool `yaml:"integrated_sensor_module"`

	LFAHud         bool `yaml:"lfa_hud"`
	LaneWarningAlt bool `yaml:"lane_warning_alt"`

	CruiseButtons   ButtonMode `yaml:"cruise_buttons"`
	PressHoldMinKph float64    `yaml:"press_hold_min_kph"`
}

// Composer returns the longitudinal tables in the form the composer takes.
func (p Params) Composer() control.ComposerParams {
	return control.ComposerParams{
		AccelMin:          p.AccelMin,
		AccelMax:          p.AccelMax,
		PedalScale:        p.PedalScale,
		PedalOffset:       p.PedalOffset,
		MaxInterceptorGas: p.MaxInterceptorGas,
	}
}
