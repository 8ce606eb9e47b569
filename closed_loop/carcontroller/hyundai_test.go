package carcontroller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cruise "adas-actuation-core/closed_loop/cruise_control"
	control "adas-actuation-core/closed_loop/longitudinal_control"
)

func TestHyundaiCadences(t *testing.T) {
	cfg := testConfig(t, "sonata")
	in := Inputs{Control: CarControl{LongActive: true, Actuators: Actuators{Accel: 0.5}}}
	_, outs := run(t, NewState(), in, cfg, 101)

	for tick, out := range outs {
		lkas := framesAt(out, addrLKAS11)
		require.Len(t, lkas, 1, "tick %d", tick)
		assert.Equal(t, float64(tick%16), decode(t, lkas[0])["CF_Lkas_MsgCount"])

		assert.Len(t, framesAt(out, testerPresentAddr), boolCount(tick%100 == 0), "tick %d", tick)
		for _, addr := range []uint32{addrSCC11, addrSCC12, addrSCC14} {
			assert.Len(t, framesAt(out, addr), boolCount(tick%2 == 0), "tick %d addr 0x%X", tick, addr)
		}
		assert.Len(t, framesAt(out, addrLFAHDA), boolCount(tick%5 == 0), "tick %d", tick)
		assert.Len(t, framesAt(out, addrSCC13), boolCount(tick%20 == 0), "tick %d", tick)
		assert.Len(t, framesAt(out, addrFCA12), boolCount(tick%20 == 0), "tick %d", tick)
		assert.Len(t, framesAt(out, addrFrtRadar11), boolCount(tick%50 == 0), "tick %d", tick)
	}

	tp := framesAt(outs[100], testerPresentAddr)[0]
	assert.Equal(t, []byte{0x02, 0x3E, 0x80, 0, 0, 0, 0, 0}, tp.Payload)
}

func boolCount(b bool) int {
	if b {
		return 1
	}
	return 0
}

func TestHyundaiSCCCountersAndChecksums(t *testing.T) {
	cfg := testConfig(t, "sonata")
	in := Inputs{Control: CarControl{LongActive: true, Actuators: Actuators{Accel: -1.25}}}
	_, outs := run(t, NewState(), in, cfg, 64)

	for tick := 0; tick < 64; tick += 2 {
		idx := tick / 2
		scc11 := decode(t, framesAt(outs[tick], addrSCC11)[0])
		assert.Equal(t, float64(idx%16), scc11["AliveCounterACC"])

		f := framesAt(outs[tick], addrSCC12)[0]
		scc12 := decode(t, f)
		assert.Equal(t, float64(idx%15), scc12["CR_VSM_Alive"])
		assert.InDelta(t, -1.25, scc12["aReqValue"], 0.006)
		assert.Equal(t, 1.0, scc12["ACCMode"])

		var nibbles int
		for _, b := range f.Payload {
			nibbles += int(b&0xF) + int(b>>4)
		}
		assert.Zero(t, nibbles%16, "tick %d", tick)
	}
}

func TestHyundaiLKAS11Checksum(t *testing.T) {
	cfg := testConfig(t, "palisade")
	in := Inputs{Control: CarControl{
		LatActive: true,
		Actuators: Actuators{Steer: -0.4},
		HUD:       HUD{LeftLaneVisible: true, RightLaneVisible: true},
	}}
	_, outs := run(t, NewState(), in, cfg, 20)
	for _, out := range outs {
		f := framesAt(out, addrLKAS11)[0]
		want := f.Payload[5]
		p := append([]byte(nil), f.Payload...)
		p[5] = 0
		assert.Equal(t, uint64(want), lkas11Checksum(f.Address, p))
	}
	v := decode(t, framesAt(outs[19], addrLKAS11)[0])
	assert.Equal(t, 1.0, v["CF_Lkas_ActToi"])
	assert.Equal(t, 4.0, v["CF_Lkas_LdwsSysState"], "both lanes, not enabled")
	assert.Equal(t, -60.0, v["CR_Lkas_StrToqReq"], "ramped by delta up")
}

func TestHyundaiAngleFaultCut(t *testing.T) {
	cfg := testConfig(t, "sonata")
	in := Inputs{
		Control: CarControl{LatActive: true, Actuators: Actuators{Steer: 0.5}},
		Vehicle: VehicleSnapshot{SteeringAngleDeg: 90},
	}
	_, outs := run(t, NewState(), in, cfg, 94)
	for tick, out := range outs {
		v := decode(t, framesAt(out, addrLKAS11)[0])
		cut := tick == 90 || tick == 91
		assert.Equal(t, cut, out.TorqueFault, "tick %d", tick)
		assert.Equal(t, boolFloat(cut), v["CF_Lkas_ToiFlt"], "tick %d", tick)
		assert.Equal(t, boolFloat(!cut), v["CF_Lkas_ActToi"], "tick %d", tick)
	}
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func TestHyundaiBrakeWindupStart(t *testing.T) {
	cfg := testConfig(t, "palisade")
	in := Inputs{
		Control: CarControl{LongActive: true, Actuators: Actuators{Accel: 0.9, LongControlState: control.LongPID}},
		Vehicle: VehicleSnapshot{Standstill: true, BrakeControlActive: true},
	}
	_, out, err := Step(NewState(), in, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, decode(t, framesAt(out, addrSCC12)[0])["aReqValue"], 0.006)
	assert.InDelta(t, 1.0, decode(t, framesAt(out, addrSCC14)[0])["JerkUpperLimit"], 0.05)
	assert.Equal(t, 1.0, out.Actuators.Accel)

	in.Vehicle.Standstill = false
	_, out, err = Step(NewState(), in, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, decode(t, framesAt(out, addrSCC12)[0])["aReqValue"], 0.006)
	assert.InDelta(t, 1.8, decode(t, framesAt(out, addrSCC14)[0])["JerkUpperLimit"], 0.05)
}

func TestHyundaiStoppingAndInactive(t *testing.T) {
	cfg := testConfig(t, "sonata")
	in := Inputs{Control: CarControl{LongActive: true, Actuators: Actuators{Accel: -0.5, LongControlState: control.LongStopping}}}
	_, out, err := Step(NewState(), in, cfg)
	require.NoError(t, err)
	assert.Equal(t, 1.0, decode(t, framesAt(out, addrSCC12)[0])["StopReq"])

	_, out, err = Step(NewState(), Inputs{Control: CarControl{Actuators: Actuators{Accel: 1}}}, cfg)
	require.NoError(t, err)
	scc12 := decode(t, framesAt(out, addrSCC12)[0])
	assert.Equal(t, 0.0, scc12["ACCMode"])
	assert.InDelta(t, 0.0, scc12["aReqValue"], 0.006)
	assert.Equal(t, 4.0, decode(t, framesAt(out, addrSCC14)[0])["ACCMode"])
}

func TestHyundaiEnhancedSCCSkipsTesterPresent(t *testing.T) {
	cfg := testConfig(t, "sonata")
	cfg.EnhancedSCC = true
	_, out, err := Step(NewState(), Inputs{}, cfg)
	require.NoError(t, err)
	assert.Empty(t, framesAt(out, testerPresentAddr))
	assert.Len(t, framesAt(out, addrSCC12), 1)
}

func TestHyundaiStockCancel(t *testing.T) {
	cfg := testConfig(t, "sonata")
	cfg.OpenpilotLong = false
	_, out, err := Step(NewState(), Inputs{Control: CarControl{Cancel: true}}, cfg)
	require.NoError(t, err)

	assert.Empty(t, framesAt(out, testerPresentAddr))
	assert.Empty(t, framesAt(out, addrSCC12))
	fs := framesAt(out, addrCLU11)
	require.Len(t, fs, 1)
	assert.Equal(t, float64(cruise.ButtonCancel), decode(t, fs[0])["CF_Clu_CruiseSwState"])
}

func TestHyundaiResumeBurst(t *testing.T) {
	cfg := testConfig(t, "sonata")
	cfg.OpenpilotLong = false
	in := Inputs{Control: CarControl{Resume: true}}

	s := NewState()
	s.Frame = 20
	s, out, err := Step(s, in, cfg)
	require.NoError(t, err)
	fs := framesAt(out, addrCLU11)
	require.Len(t, fs, resumeBurst)
	for _, f := range fs {
		v := decode(t, f)
		assert.Equal(t, float64(cruise.ButtonResAccel), v["CF_Clu_CruiseSwState"])
		// every copy carries the tick's counter
		assert.Equal(t, float64(20%16), v["CF_Clu_AliveCnt1"])
	}
	assert.Equal(t, Clock(20), s.LastResumeFrame)

	// too soon for another burst
	for i := 0; i < resumeGapTicks; i++ {
		s, out, err = Step(s, in, cfg)
		require.NoError(t, err)
		assert.Empty(t, framesAt(out, addrCLU11))
	}
	_, out, err = Step(s, in, cfg)
	require.NoError(t, err)
	assert.Len(t, framesAt(out, addrCLU11), resumeBurst)
}

func TestHyundaiSpoofsStockSetSpeed(t *testing.T) {
	cfg := testConfig(t, "sonata")
	cfg.OpenpilotLong = false
	s := NewState()
	s.CruiseSpeed = 80
	s.LastEnabled = true
	in := Inputs{
		Control: CarControl{Enabled: true},
		Vehicle: VehicleSnapshot{Cruise: CruiseState{Enabled: true, Speed: 70 / 3.6}},
	}

	presses := 0
	for i := 0; i < 10; i++ {
		var out Outputs
		var err error
		s, out, err = Step(s, in, cfg)
		require.NoError(t, err)
		for _, f := range framesAt(out, addrCLU11) {
			assert.Equal(t, float64(cruise.ButtonResAccel), decode(t, f)["CF_Clu_CruiseSwState"])
			presses++
		}
	}
	assert.Positive(t, presses)

	// the driver touching the buttons silences the spoofer
	in.Vehicle.DriverButton = cruise.ButtonSetDecel
	_, out, err := Step(s, in, cfg)
	require.NoError(t, err)
	assert.Empty(t, framesAt(out, addrCLU11))
}

func TestHyundaiCLU11Counters(t *testing.T) {
	cfg := testConfig(t, "sonata")
	cfg.OpenpilotLong = false

	// cancel counts with the tick
	s := NewState()
	s.Frame = 37
	_, out, err := Step(s, Inputs{Control: CarControl{Cancel: true}}, cfg)
	require.NoError(t, err)
	fs := framesAt(out, addrCLU11)
	require.Len(t, fs, 1)
	assert.Equal(t, float64(37%16), decode(t, fs[0])["CF_Clu_AliveCnt1"])

	// spoofed presses restart from zero after every pause
	s = NewState()
	s.CruiseSpeed = 80
	s.LastEnabled = true
	in := Inputs{
		Control: CarControl{Enabled: true},
		Vehicle: VehicleSnapshot{Cruise: CruiseState{Enabled: true, Speed: 70 / 3.6}},
	}
	var runs [][]float64
	pressing := false
	for i := 0; i < 40; i++ {
		s, out, err = Step(s, in, cfg)
		require.NoError(t, err)
		fs := framesAt(out, addrCLU11)
		if len(fs) == 0 {
			pressing = false
			assert.Zero(t, s.SpoofCount)
			continue
		}
		require.Len(t, fs, 1)
		if !pressing {
			runs = append(runs, nil)
			pressing = true
		}
		runs[len(runs)-1] = append(runs[len(runs)-1], decode(t, fs[0])["CF_Clu_AliveCnt1"])
	}
	require.GreaterOrEqual(t, len(runs), 2)
	for _, run := range runs {
		for i, c := range run {
			assert.Equal(t, float64(i), c)
		}
	}
}

func TestHyundaiSpoofsOnCancelTick(t *testing.T) {
	cfg := testConfig(t, "sonata")
	cfg.OpenpilotLong = false
	s := NewState()
	s.CruiseSpeed = 80
	s.LastEnabled = true
	in := Inputs{
		Control: CarControl{Enabled: true},
		Vehicle: VehicleSnapshot{Cruise: CruiseState{Enabled: true, Speed: 70 / 3.6}},
	}
	// first tick arms the spoofer, the second presses
	s, _, err := Step(s, in, cfg)
	require.NoError(t, err)

	in.Control.Cancel = true
	_, out, err := Step(s, in, cfg)
	require.NoError(t, err)
	fs := framesAt(out, addrCLU11)
	require.Len(t, fs, 2)
	assert.Equal(t, float64(cruise.ButtonCancel), decode(t, fs[0])["CF_Clu_CruiseSwState"])
	assert.Equal(t, float64(cruise.ButtonResAccel), decode(t, fs[1])["CF_Clu_CruiseSwState"])
}

func TestProcessHUDAlert(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		alt     bool
		hud     HUD
		want    hudAlert
	}{
		{"nothing", false, false, HUD{}, hudAlert{sysState: 1}},
		{"both lanes enabled", true, false, HUD{LeftLaneVisible: true, RightLaneVisible: true}, hudAlert{sysState: 3}},
		{"both lanes disabled", false, false, HUD{LeftLaneVisible: true, RightLaneVisible: true}, hudAlert{sysState: 4}},
		{"left only", true, false, HUD{LeftLaneVisible: true}, hudAlert{sysState: 5}},
		{"right only", true, false, HUD{RightLaneVisible: true}, hudAlert{sysState: 6}},
		{"warning", false, false, HUD{VisualAlert: AlertSteerRequired}, hudAlert{sysWarning: true, sysState: 3}},
		{"depart", true, false, HUD{LeftLaneDepart: true, RightLaneDepart: true}, hudAlert{sysState: 1, leftWarning: 2, rightWarning: 2}},
		{"depart alt", true, true, HUD{LeftLaneDepart: true}, hudAlert{sysState: 1, leftWarning: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, processHUDAlert(tt.enabled, tt.alt, tt.hud))
		})
	}
}
