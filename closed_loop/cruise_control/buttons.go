package cruise

// ButtonType enumerates the cruise buttons. Declaration order is the order
// in which held buttons are considered, so it must stay fixed.
type ButtonType int

const (
	Unknown ButtonType = iota
	AccelCruise
	DecelCruise
	SetCruise
	ResumeCruise
	Cancel
	GapAdjustCruise

	numButtonTypes
)

func (b ButtonType) String() string {
	switch b {
	case AccelCruise:
		return "accelCruise"
	case DecelCruise:
		return "decelCruise"
	case SetCruise:
		return "setCruise"
	case ResumeCruise:
		return "resumeCruise"
	case Cancel:
		return "cancel"
	case GapAdjustCruise:
		return "gapAdjustCruise"
	default:
		return "unknown"
	}
}

// ButtonEvent is a press or release edge reported by the car.
type ButtonEvent struct {
	Type    ButtonType `json:"type"`
	Pressed bool       `json:"pressed"`
}

// timed lists the buttons whose hold time steers the set speed.
var timed = [...]ButtonType{AccelCruise, DecelCruise}

// HoldTimers counts, per button, the ticks it has been held. Zero means
// released; the press tick itself counts as one.
type HoldTimers [numButtonTypes]int

// Held returns the hold duration of b in ticks.
func (h HoldTimers) Held(b ButtonType) int {
	if b < 0 || b >= numButtonTypes {
		return 0
	}
	return h[b]
}

// Update ages held buttons by one tick and then applies this tick's edges.
// Call it after the set speed has been updated for the tick.
func (h HoldTimers) Update(events []ButtonEvent) HoldTimers {
	for _, b := range timed {
		if h[b] > 0 {
			h[b]++
		}
	}
	for _, e := range events {
		if !isTimed(e.Type) {
			continue
		}
		if e.Pressed {
			h[e.Type] = 1
		} else {
			h[e.Type] = 0
		}
	}
	return h
}

func isTimed(b ButtonType) bool {
	for _, t := range timed {
		if t == b {
			return true
		}
	}
	return false
}

// step sign of a speed-changing button
func direction(b ButtonType) float64 {
	if b == DecelCruise {
		return -1
	}
	return 1
}
