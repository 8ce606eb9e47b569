package cruise

import "math"

// StockButton is the cruise switch value placed on the bus when the stock
// cruise control owns longitudinal.
type StockButton int

const (
	ButtonNone     StockButton = 0
	ButtonResAccel StockButton = 1
	ButtonSetDecel StockButton = 2
	ButtonGapDist  StockButton = 3
	ButtonCancel   StockButton = 4
)

const (
	spooferQuietTicks = 40
	spooferMaxPresses = 5
	spooferCoolDown   = 7
)

type SpooferPhase int

const (
	phaseIdle SpooferPhase = iota
	phaseUp
	phaseDown
	phaseCoolDown
)

// Spoofer presses the stock cruise buttons until the stock set speed
// matches ours. It stays quiet while the driver touches the buttons.
type Spoofer struct {
	Timer  int
	Phase  SpooferPhase
	Count  int
	Target float64
}

// SpooferInput is one tick of input to the spoofer.
type SpooferInput struct {
	CruiseEnabled bool
	DriverButton  StockButton
	// Desired is our set speed in kph.
	Desired float64
	// StockSet is the stock set speed in m/s.
	StockSet float64
	Metric   bool
}

// Step returns the button to press this tick, if any.
func (s Spoofer) Step(in SpooferInput) (Spoofer, StockButton, bool) {
	if !in.CruiseEnabled || in.DriverButton != ButtonNone {
		s.Timer = spooferQuietTicks
		return s, ButtonNone, false
	}
	if s.Timer > 0 {
		s.Timer--
		return s, ButtonNone, false
	}

	desired, current := math.Round(in.Desired), math.Round(in.StockSet*msToKph)
	if !in.Metric {
		desired, current = math.Round(in.Desired*kphToMph), math.Round(in.StockSet*msToMph)
	}

	switch s.Phase {
	case phaseIdle:
		s.Count = 0
		s.Target = desired
		switch diff := math.Round(s.Target - current); {
		case diff > 0:
			s.Phase = phaseUp
		case diff < 0:
			s.Phase = phaseDown
		}
		return s, ButtonNone, false
	case phaseUp, phaseDown:
		button := ButtonResAccel
		if s.Phase == phaseDown {
			button = ButtonSetDecel
		}
		s.Count++
		if s.Target == current || s.Count > spooferMaxPresses {
			s.Count = 0
			s.Phase = phaseCoolDown
		}
		return s, button, true
	default:
		s.Count++
		if s.Count > spooferCoolDown {
			s.Phase = phaseIdle
		}
		return s, ButtonNone, false
	}
}
