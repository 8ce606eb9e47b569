package carcontroller

import (
	cruise "adas-actuation-core/closed_loop/cruise_control"
	lateral "adas-actuation-core/closed_loop/lateral_control"
)

// State is everything a controller carries from one tick to the next.
type State struct {
	Frame Clock

	Steer      lateral.SteerState
	Standstill StandstillState
	LatActive  bool

	AlertActive bool
	HasSetLKAS  bool

	// last values actually sent
	Accel float64
	Gas   float64

	CruiseSpeed float64
	LastEnabled bool
	Timers      cruise.HoldTimers

	Spoofer         cruise.Spoofer
	LastResumeFrame Clock
	SpoofCount      uint64
}

// NewState is the state of a controller that has not ticked yet.
func NewState() State {
	return State{CruiseSpeed: cruise.VCruiseInitial}
}
