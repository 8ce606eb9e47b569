package cruise

import "math"

// Initialize picks the set speed when cruise engages. Accel or resume keeps
// a previously set speed; anything else starts from the current speed.
func Initialize(vEgo float64, events []ButtonEvent, last float64, metric bool) float64 {
	for _, e := range events {
		// 250 or above means nothing was ever set
		if (e.Type == AccelCruise || e.Type == ResumeCruise) && last < 250 {
			return last
		}
	}
	lim := LimitsFor(metric)
	return math.Round(clip(egoKph(vEgo), lim.EnableMin, lim.Max))
}
