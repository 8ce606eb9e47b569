package carcontroller

import (
	"math"

	cruise "adas-actuation-core/closed_loop/cruise_control"
	lateral "adas-actuation-core/closed_loop/lateral_control"
	control "adas-actuation-core/closed_loop/longitudinal_control"
	"adas-actuation-core/utils"
)

const (
	testerPresentAddr = 0x7D0
	// resumeGapTicks is the minimum spacing between resume bursts.
	resumeGapTicks = 10
	resumeBurst    = 25

	msToKph = 3.6
	msToMph = 2.237

	sccJerkLower = 12.7
)

// testerPresent keeps the radar in diagnostic mode so it stays off the bus.
var testerPresent = []byte{0x02, 0x3E, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00}

// hudAlert is the lane and warning state shown on the LKAS frame.
type hudAlert struct {
	sysWarning   bool
	sysState     float64
	leftWarning  float64
	rightWarning float64
}

func processHUDAlert(enabled, laneWarningAlt bool, hud HUD) hudAlert {
	a := hudAlert{
		sysWarning: hud.VisualAlert == AlertSteerRequired || hud.VisualAlert == AlertLDW,
		sysState:   1,
	}
	switch {
	case (hud.LeftLaneVisible && hud.RightLaneVisible) || a.sysWarning:
		a.sysState = 4
		if enabled || a.sysWarning {
			a.sysState = 3
		}
	case hud.LeftLaneVisible:
		a.sysState = 5
	case hud.RightLaneVisible:
		a.sysState = 6
	}

	warn := 2.0
	if laneWarningAlt {
		warn = 1
	}
	if hud.LeftLaneDepart {
		a.leftWarning = warn
	}
	if hud.RightLaneDepart {
		a.rightWarning = warn
	}
	return a
}

func stepHyundai(s State, in Inputs, cfg Config) (State, Outputs, error) {
	cc, vs, p := in.Control, in.Vehicle, cfg.Params
	frame := s.Frame
	b := batch{p: cfg.Packer}
	var out Outputs

	var steer lateral.SteerOutput
	s.Steer, steer = lateral.StepSteer(s.Steer, lateral.SteerInput{
		Steer:        cc.Actuators.Steer,
		Active:       cc.LatActive,
		EPSTorque:    vs.SteeringTorqueEPS,
		DriverTorque: vs.SteeringTorque,
		RateDeg:      vs.SteeringRateDeg,
		AngleDeg:     vs.SteeringAngleDeg,
	}, p.Steer)
	req := steer.Request && !steer.TorqueFault
	out.SteerRequest = req
	out.SteerRateLimited = s.Steer.RateLimited
	out.SteerFaultTrip = cc.LatActive && !req
	out.TorqueFault = steer.TorqueFault

	if !cfg.OpenpilotLong && vs.Cruise.Standstill {
		s.Standstill.Status = StandstillHeld
	}
	s.Standstill = stepBrakeHold(s.Standstill, vs.BrakeLights, vs.VEgo)
	out.StandstillStatus = s.Standstill.Status

	hud := processHUDAlert(cc.Enabled, p.LaneWarningAlt, cc.HUD)
	sysWarning := 0.0
	if hud.sysWarning {
		sysWarning = 3
	}
	b.add("LKAS11", map[string]float64{
		"CF_Lkas_LdwsSysState":  hud.sysState,
		"CF_Lkas_SysWarning":    sysWarning,
		"CF_Lkas_LdwsLHWarning": hud.leftWarning,
		"CF_Lkas_LdwsRHWarning": hud.rightWarning,
		"CR_Lkas_StrToqReq":     float64(steer.Torque),
		"CF_Lkas_ActToi":        utils.BoolToFloat(req),
		"CF_Lkas_ToiFlt":        utils.BoolToFloat(steer.TorqueFault),
		"CF_Lkas_MsgCount":      utils.Wrap(uint64(frame), 4),
	}, 0)

	if cfg.OpenpilotLong && !cfg.EnhancedSCC && frame.Every(100) {
		b.raw(Frame{Address: testerPresentAddr, Payload: testerPresent, Bus: 0})
	}

	if !cfg.OpenpilotLong {
		s = hyundaiButtons(s, &b, cc, vs, cfg)
	}

	if cfg.OpenpilotLong && frame.Every(2) {
		s = hyundaiSCC(s, &b, cc, vs, cfg)
	}

	setSpeed := setSpeedUnits(cc.HUD.SetSpeed, vs.SpeedUnitMPH)
	if p.LFAHud && frame.Every(5) {
		b.add("LFAHDA_MFC", map[string]float64{
			"LFA_Icon_State": 2 * utils.BoolToFloat(cc.LatActive),
			"HDA_Active":     utils.BoolToFloat(vs.Cruise.Enabled),
			"HDA_Icon_State": 2 * utils.BoolToFloat(vs.Cruise.Enabled),
			"HDA_VSetReq":    setSpeed * utils.BoolToFloat(vs.Cruise.Enabled),
		}, 0)
	}

	if cfg.OpenpilotLong && frame.Every(20) {
		b.add("SCC13", nil, 0)
		b.add("FCA12", nil, 0)
	}
	if cfg.OpenpilotLong && frame.Every(50) {
		b.add("FRT_RADAR11", nil, 0)
	}

	s.LatActive = cc.LatActive
	out.Frames = b.frames
	out.Actuators = Actuators{
		Steer:            steer.Steer,
		Accel:            s.Accel,
		LongControlState: cc.Actuators.LongControlState,
	}
	return s, out, b.err
}

func setSpeedUnits(setSpeed float64, mph bool) float64 {
	if mph {
		return setSpeed * msToMph
	}
	return setSpeed * msToKph
}

func clu11(counter uint64, button cruise.StockButton, vs VehicleSnapshot) map[string]float64 {
	v := vs.VEgo * msToKph
	if vs.SpeedUnitMPH {
		v = vs.VEgo * msToMph
	}
	return map[string]float64{
		"CF_Clu_CruiseSwState": float64(button),
		"CF_Clu_CruiseSwMain":  0,
		"CF_Clu_SPEED_UNIT":    utils.BoolToFloat(vs.SpeedUnitMPH),
		"CF_Clu_Vanz":          v,
		"CF_Clu_AliveCnt1":     utils.Wrap(counter, 4),
	}
}

// hyundaiButtons drives the stock cruise control through the cluster
// button frame: cancel, resume bursts and set speed spoofing. Cancel and
// resume frames count with the tick; spoofed presses count from zero
// within each run of presses.
func hyundaiButtons(s State, b *batch, cc CarControl, vs VehicleSnapshot, cfg Config) State {
	frame := uint64(s.Frame)
	if cc.Cancel {
		b.add("CLU11", clu11(frame, cruise.ButtonCancel, vs), 0)
	} else if cc.Resume && uint64(s.Frame-s.LastResumeFrame) > resumeGapTicks {
		// identical copies raise the odds that one is accepted
		resume := clu11(frame, cruise.ButtonResAccel, vs)
		for i := 0; i < resumeBurst; i++ {
			b.add("CLU11", resume, 0)
		}
		s.LastResumeFrame = s.Frame
	}

	if vs.Cruise.Standstill || !vs.Cruise.Enabled || vs.GasPressed {
		return s
	}
	var button cruise.StockButton
	var press bool
	s.Spoofer, button, press = s.Spoofer.Step(cruise.SpooferInput{
		CruiseEnabled: vs.Cruise.Enabled,
		DriverButton:  vs.DriverButton,
		Desired:       s.CruiseSpeed,
		StockSet:      vs.Cruise.Speed,
		Metric:        cfg.Cruise.Metric,
	})
	if !press {
		s.SpoofCount = 0
		return s
	}
	b.add("CLU11", clu11(s.SpoofCount, button, vs), 0)
	s.SpoofCount++
	return s
}

func hyundaiSCC(s State, b *batch, cc CarControl, vs VehicleSnapshot, cfg Config) State {
	p := cfg.Params
	idx := s.Frame.Half()
	lcs := cc.Actuators.LongControlState
	accel := cc.Actuators.Accel
	if math.IsNaN(accel) {
		accel = 0
	}

	jerkUpper := 0.0
	if cc.LongActive {
		jerkUpper = control.ClampFloat(2*(accel-vs.AEgo), 0, 2)
	}
	// release the brake hold at a stop without waiting for the integrator
	if cc.LongActive && lcs == control.LongPID && vs.Standstill && vs.BrakeControlActive && accel > 0 {
		accel = 1.0
		jerkUpper = 1.0
	}
	accel = control.NativeAccel(accel, vs.VEgo, cc.LongActive, p.Composer())
	s.Accel = accel

	enabled := cc.LongActive
	accMode, scc14Mode := 0.0, 4.0
	switch {
	case enabled && vs.GasPressed:
		accMode, scc14Mode = 2, 2
	case enabled:
		accMode, scc14Mode = 1, 1
	}

	setSpeed := setSpeedUnits(cc.HUD.SetSpeed, vs.SpeedUnitMPH)
	b.add("SCC11", map[string]float64{
		"MainMode_ACC":    1,
		"TauGapSet":       float64(vs.DistanceLines),
		"VSetDis":         setSpeed * utils.BoolToFloat(enabled),
		"AliveCounterACC": utils.Wrap(idx, 4),
		"ObjValid":        1,
		"ACC_ObjStatus":   1,
		"ACC_ObjDist":     1,
	}, 0)
	b.add("SCC12", map[string]float64{
		"ACCMode":      accMode,
		"StopReq":      utils.BoolToFloat(lcs == control.LongStopping),
		"aReqRaw":      accel,
		"aReqValue":    accel,
		"CR_VSM_Alive": float64(idx % 0xF),
	}, 0)
	b.add("SCC14", map[string]float64{
		"JerkUpperLimit": jerkUpper,
		"JerkLowerLimit": sccJerkLower,
		"ACCMode":        scc14Mode,
		"ObjGap":         2 * utils.BoolToFloat(cc.HUD.LeadVisible),
	}, 0)
	return s
}
