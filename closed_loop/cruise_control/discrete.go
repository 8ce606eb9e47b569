package cruise

import "math"

// DefaultLongPress is the hold time, in ticks, that turns a tap into a long
// press.
const DefaultLongPress = 50

// Config is the resolved operator configuration of the set-speed machines.
type Config struct {
	Metric bool
	// ReverseAccChange swaps tap and long-press behavior: a tap moves to the
	// next big step and a long press repeats single steps.
	ReverseAccChange bool
	// ChangeType makes the big step 10 units instead of 5.
	ChangeType bool
	// LongPress overrides DefaultLongPress when positive.
	LongPress int
	// FastMode halves the press-and-hold repeat interval and disables the
	// release nudge.
	FastMode bool
}

func (c Config) longPress() int {
	if c.LongPress > 0 {
		return c.LongPress
	}
	return DefaultLongPress
}

func (c Config) bigMultiple() float64 {
	if c.ChangeType {
		return 10
	}
	return 5
}

// DiscreteInput is one tick of input to UpdateDiscrete.
type DiscreteInput struct {
	VCruise    float64
	VEgo       float64
	GasPressed bool
	Enabled    bool
	Events     []ButtonEvent
	Timers     HoldTimers
}

// UpdateDiscrete applies button edges and long-press repeats to the set
// speed of an edge-reporting cruise stalk.
func UpdateDiscrete(in DiscreteInput, cfg Config) float64 {
	v := in.VCruise
	if !in.Enabled {
		return v
	}

	button, longPress, ok := selectButton(in.Events, in.Timers, cfg.longPress())
	if !ok {
		return v
	}

	lim := LimitsFor(cfg.Metric)
	delta := lim.Delta
	snap := false
	if cfg.ReverseAccChange {
		if !longPress {
			delta *= cfg.bigMultiple()
			snap = true
		}
	} else if longPress {
		delta *= cfg.bigMultiple()
		snap = true
	}

	if snap && math.Mod(v, delta) != 0 {
		if button == DecelCruise {
			v = math.Floor(v/delta) * delta
		} else {
			v = math.Ceil(v/delta) * delta
		}
	} else {
		v += delta * direction(button)
	}

	if in.GasPressed && (button == DecelCruise || button == SetCruise) {
		v = math.Max(v, egoKph(in.VEgo))
	}

	return clip(roundTenth(v), lim.Min, lim.Max)
}

// selectButton picks the first released button that was a tap, or failing
// that the first held button whose hold time is a whole number of long
// presses. A release after a long press selects nothing.
func selectButton(events []ButtonEvent, timers HoldTimers, longPressTicks int) (ButtonType, bool, bool) {
	for _, e := range events {
		if !isTimed(e.Type) || e.Pressed {
			continue
		}
		if timers[e.Type] > longPressTicks {
			return Unknown, false, false
		}
		return e.Type, false, true
	}
	for _, b := range timed {
		if n := timers[b]; n > 0 && n%longPressTicks == 0 {
			return b, true, true
		}
	}
	return Unknown, false, false
}
