package carcontroller

// AlertResult is the outcome of one tick of the alert edge detector.
type AlertResult struct {
	Active bool
	Send   bool
	FCW    bool
	Steer  bool
}

// StepAlert latches whether an alert is showing and asks for a HUD frame
// on every change. A cancel also asks for one so the car plays our chime
// instead of its fault tone.
func StepAlert(active bool, alert VisualAlert, cancel bool) AlertResult {
	r := AlertResult{
		Active: active,
		FCW:    alert == AlertFCW,
		Steer:  alert == AlertSteerRequired || alert == AlertLDW,
	}
	showing := r.FCW || r.Steer
	if showing != active {
		r.Send = true
		r.Active = showing
	} else if cancel {
		r.Send = true
	}
	return r
}
