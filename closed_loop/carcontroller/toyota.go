package carcontroller

import (
	lateral "adas-actuation-core/closed_loop/lateral_control"
	control "adas-actuation-core/closed_loop/longitudinal_control"
	"adas-actuation-core/utils"
)

const (
	// minSpeedForLead shows a lead car on the HUD below this speed so the
	// car keeps its stop-and-go behavior.
	minSpeedForLead = 12.0

	lkasHudLineVisible = 1
	lkasHudLineMissing = 2
	lkasHudLineDepart  = 3

	startupToggleLTA = 1
	startupToggleLKA = 2
)

func laneLine(visible, depart bool) float64 {
	switch {
	case depart:
		return lkasHudLineDepart
	case visible:
		return lkasHudLineVisible
	}
	return lkasHudLineMissing
}

// startupLKASDone reports whether the car already has the startup LKAS
// toggle where we want it, so the suppression frame can be skipped.
func startupLKASDone(useLTA bool, icon LKASIcon) bool {
	if useLTA {
		return icon == LKASIconHidden
	}
	return icon == LKASIconShown
}

func stepToyota(s State, in Inputs, cfg Config) (State, Outputs, error) {
	cc, vs, p := in.Control, in.Vehicle, cfg.Params
	frame := s.Frame
	b := batch{p: cfg.Packer}
	var out Outputs

	long := control.Compose(control.LongInput{
		Accel:       cc.Actuators.Accel,
		VEgo:        vs.VEgo,
		Active:      cc.LongActive,
		Interceptor: cfg.Interceptor,
	}, p.Composer())

	var steer lateral.SteerOutput
	s.Steer, steer = lateral.StepSteer(s.Steer, lateral.SteerInput{
		Steer:        cc.Actuators.Steer,
		Active:       cc.LatActive,
		EPSTorque:    vs.SteeringTorqueEPS,
		DriverTorque: vs.SteeringTorque,
		RateDeg:      vs.SteeringRateDeg,
		AngleDeg:     vs.SteeringAngleDeg,
	}, p.Steer)
	out.SteerRequest = steer.Request
	out.SteerRateLimited = s.Steer.RateLimited
	out.SteerFaultTrip = cc.LatActive && !steer.Request
	out.TorqueFault = steer.TorqueFault

	s.Standstill = StepStandstill(s.Standstill, StandstillInput{
		Standstill:   vs.Standstill,
		BrakeLights:  vs.BrakeLights,
		VEgo:         vs.VEgo,
		PCMAccStatus: vs.PCMAccStatus,
		NoStopTimer:  p.NoStopTimer,
	})
	out.StandstillRequest = s.Standstill.Request
	out.StandstillStatus = s.Standstill.Status

	b.add("STEERING_LKA", map[string]float64{
		"STEER_REQUEST":    utils.BoolToFloat(steer.Request),
		"LKA_STATE":        0,
		"SET_ME_1":         1,
		"COUNTER":          utils.Wrap(uint64(frame), 6),
		"STEER_TORQUE_CMD": float64(steer.Torque),
	}, 0)

	// angle-capable EPS faults without a matching LTA frame; we never
	// request angle control through it
	if p.AngleSteerMsg && frame.Every(2) {
		b.add("STEERING_LTA", map[string]float64{
			"COUNTER":         utils.Wrap(frame.Half(), 6),
			"SETME_X3":        3,
			"PERCENTAGE":      100,
			"SETME_X64":       100,
			"ANGLE":           0,
			"STEER_ANGLE_CMD": 0,
			"STEER_REQUEST":   0,
			"STEER_REQUEST_2": 0,
		}, 0)
	}

	if (frame.Every(3) && cfg.OpenpilotLong) || cc.Cancel {
		lead := cc.HUD.LeadVisible || vs.VEgo < minSpeedForLead
		switch {
		case cc.Cancel && p.CancelOnlyMsg:
			b.add("PCM_CRUISE", map[string]float64{"CANCEL_REQ": 1}, 0)
		case cfg.OpenpilotLong:
			b.add("ACC_CONTROL", accControl(long.Accel, vs, cc.Cancel, s.Standstill.Request, lead, cfg), 0)
			s.Accel = long.Accel
		default:
			b.add("ACC_CONTROL", accControl(0, vs, cc.Cancel, false, lead, cfg), 0)
		}
	}

	if frame.Every(2) && cfg.Interceptor && cfg.OpenpilotLong {
		b.add("GAS_COMMAND", map[string]float64{
			"GAS_COMMAND":   long.Gas,
			"GAS_COMMAND2":  long.Gas,
			"ENABLE":        utils.BoolToFloat(long.Gas > 0.001),
			"COUNTER_PEDAL": utils.Wrap(frame.Half(), 4),
		}, 0)
		s.Gas = long.Gas
	}

	alert := StepAlert(s.AlertActive, cc.HUD.VisualAlert, cc.Cancel)
	s.AlertActive = alert.Active
	out.SendUI = frame.Every(100) || alert.Send

	if cfg.DisableStartupLKAS && startupLKASDone(p.UseLTAMsg, vs.LKASIcon) {
		s.HasSetLKAS = true
	}
	if out.SendUI {
		hud := map[string]float64{
			"TWO_BEEPS":   utils.BoolToFloat(cc.Cancel),
			"LDA_ALERT":   utils.BoolToFloat(alert.Steer),
			"LEFT_LINE":   laneLine(cc.HUD.LeftLaneVisible, cc.HUD.LeftLaneDepart),
			"RIGHT_LINE":  laneLine(cc.HUD.RightLaneVisible, cc.HUD.RightLaneDepart),
			"BARRIERS":    utils.BoolToFloat(cc.LatActive),
			"LKAS_STATUS": utils.BoolToFloat(cc.LatActive),
			"MADS":        utils.BoolToFloat(vs.MADSEnabled),
			"LTA_MSG":     utils.BoolToFloat(p.UseLTAMsg),
		}
		if cfg.DisableStartupLKAS && !s.HasSetLKAS {
			hud["LDA_SA_TOGGLE"] = startupToggleLKA
			if p.UseLTAMsg {
				hud["LDA_SA_TOGGLE"] = startupToggleLTA
			}
			s.HasSetLKAS = true
			out.StartupLKASSent = true
		}
		b.add("LKAS_HUD", hud, 0)
	}

	enableDSU := !cfg.IntegratedSensorModule
	if frame.Every(100) && enableDSU {
		b.add("ACC_HUD", map[string]float64{"FCW": utils.BoolToFloat(alert.FCW)}, 0)
	}

	for _, sf := range cfg.StaticFrames {
		if enableDSU && sf.Applies(p.Family) && frame.Every(uint64(sf.Step)) {
			b.raw(Frame{Address: sf.Address, Payload: sf.Payload, Bus: sf.Bus})
		}
	}

	s.LatActive = cc.LatActive
	out.Frames = b.frames
	out.Actuators = Actuators{
		Steer:            steer.Steer,
		Accel:            s.Accel,
		Gas:              s.Gas,
		LongControlState: cc.Actuators.LongControlState,
	}
	return s, out, b.err
}

func accControl(accel float64, vs VehicleSnapshot, cancel, standstillReq, lead bool, cfg Config) map[string]float64 {
	allowLongPress := 1.0
	if cfg.Cruise.ReverseAccChange {
		allowLongPress = 2
	}
	return map[string]float64{
		"ACCEL_CMD":          accel,
		"ACC_TYPE":           float64(vs.AccType),
		"DISTANCE":           float64(vs.DistanceLines),
		"MINI_CAR":           utils.BoolToFloat(lead),
		"PERMIT_BRAKING":     1,
		"RELEASE_STANDSTILL": utils.BoolToFloat(!standstillReq),
		"CANCEL_REQ":         utils.BoolToFloat(cancel),
		"ALLOW_LONG_PRESS":   allowLongPress,
	}
}
