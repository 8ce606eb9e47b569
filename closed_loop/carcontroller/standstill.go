package carcontroller

// StandstillStatus is what the HUD reports about holding at a stop.
type StandstillStatus int

const (
	StandstillReleased StandstillStatus = iota
	StandstillHeld
)

const (
	// accStandstillCode is the PCM status while it holds the car stopped.
	accStandstillCode = 8
	brakeHoldTicks    = 200
)

type StandstillState struct {
	Request bool
	Last    bool
	Status  StandstillStatus
	Timer   int
}

type StandstillInput struct {
	Standstill   bool
	BrakeLights  bool
	VEgo         float64
	PCMAccStatus int
	NoStopTimer  bool
}

// StepStandstill asks the PCM to hold on the tick the car comes to a stop
// and drops the request once the PCM leaves its standstill code.
func StepStandstill(s StandstillState, in StandstillInput) StandstillState {
	if in.Standstill && !s.Last && !in.NoStopTimer {
		s.Request = true
		s.Status = StandstillHeld
	}
	if in.PCMAccStatus != accStandstillCode {
		s.Request = false
	}
	s.Last = in.Standstill
	return stepBrakeHold(s, in.BrakeLights, in.VEgo)
}

// stepBrakeHold reports Held while stopped on the brakes, and Released once
// the car moves off.
func stepBrakeHold(s StandstillState, brakeLights bool, vEgo float64) StandstillState {
	if brakeLights && vEgo < 0.1 {
		s.Status = StandstillHeld
		s.Timer++
		if s.Timer > brakeHoldTicks {
			s.Timer = 0
		}
	}
	if s.Status == StandstillHeld && vEgo > 1.0 {
		s.Status = StandstillReleased
	}
	return s
}
