package cruise

const (
	pressHoldMin  = 5.0
	pressHoldStep = 5.0

	holdInterval     = 100 // ticks per repeat
	fastHoldInterval = 50
)

// PressHoldInput is one tick of input to UpdatePressHold. The timers tell
// which buttons are currently held and for how long.
type PressHoldInput struct {
	VCruise float64
	Enabled bool
	Events  []ButtonEvent
	Timers  HoldTimers
	// Min overrides the lower bound for families with their own floor.
	Min float64
}

// UpdatePressHold drives the set speed from a level-sensitive stalk: one
// step per second held (half a second in fast mode), and a single nudge on
// a release that never reached a repeat.
func UpdatePressHold(in PressHoldInput, cfg Config) float64 {
	v := in.VCruise
	if !in.Enabled {
		return v
	}

	interval := holdInterval
	if cfg.FastMode {
		interval = fastHoldInterval
	}

	accel, decel := heldTicks(in, AccelCruise), heldTicks(in, DecelCruise)
	switch {
	case accel > 0:
		if accel%interval == 0 {
			v = holdStep(v, AccelCruise, !cfg.ReverseAccChange)
		}
	case decel > 0:
		if decel%interval == 0 {
			v = holdStep(v, DecelCruise, !cfg.ReverseAccChange)
		}
	case !cfg.FastMode:
		for _, e := range in.Events {
			if e.Pressed || !isTimed(e.Type) {
				continue
			}
			// the timer still holds the length of the press being released
			if in.Timers[e.Type] >= interval {
				continue
			}
			v = holdStep(v, e.Type, cfg.ReverseAccChange)
		}
	}

	lo := pressHoldMin
	if in.Min > 0 {
		lo = in.Min
	}
	return clip(roundTenth(v), lo, LimitsFor(cfg.Metric).Max)
}

// holdStep moves one unit, or to the next multiple of five when snap is set.
func holdStep(v float64, b ButtonType, snap bool) float64 {
	if !snap {
		return v + direction(b)
	}
	if b == DecelCruise {
		return v - (pressHoldStep - pyMod(pressHoldStep-v, pressHoldStep))
	}
	return v + pressHoldStep - pyMod(v, pressHoldStep)
}

// heldTicks is the hold time of b, or zero when b is released this tick.
func heldTicks(in PressHoldInput, b ButtonType) int {
	for _, e := range in.Events {
		if e.Type == b && !e.Pressed {
			return 0
		}
	}
	return in.Timers[b]
}
