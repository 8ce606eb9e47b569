package main

import (
	"encoding/json"
	"math"
	"os"

	"github.com/pkg/errors"

	"adas-actuation-core/closed_loop/carcontroller"
	cruise "adas-actuation-core/closed_loop/cruise_control"
	lateral "adas-actuation-core/closed_loop/lateral_control"
)

// Scenario replays a scripted drive through the controller.
type Scenario struct {
	Meta     ScenarioMeta      `json:"meta"`
	Timing   ScenarioTiming    `json:"timing"`
	Initial  ScenarioInputs    `json:"initial"`
	Segments []ScenarioSegment `json:"segments"`
}

type ScenarioMeta struct {
	Name        string `json:"name"`
	Version     int    `json:"version"`
	Description string `json:"description"`
}

type ScenarioTiming struct {
	DurationS float64 `json:"duration_s"`
	// Simulate integrates vehicle speed from the commanded accel instead
	// of taking it from the script.
	Simulate bool `json:"simulate"`
	// Planner feeds the speed PID output back as the next tick's accel.
	Planner bool `json:"planner"`
}

type ScenarioInputs struct {
	Control carcontroller.CarControl      `json:"control"`
	Vehicle carcontroller.VehicleSnapshot `json:"vehicle"`
}

// ScenarioSegment overrides inputs while T0 <= t < T1. T1 < 0 runs to the
// end. Control and Vehicle only replace the keys they name. Buttons fire
// once, on the first tick of the segment.
type ScenarioSegment struct {
	T0        float64              `json:"t0"`
	T1        float64              `json:"t1"`
	Control   json.RawMessage      `json:"control,omitempty"`
	Vehicle   json.RawMessage      `json:"vehicle,omitempty"`
	Buttons   []cruise.ButtonEvent `json:"buttons,omitempty"`
	Curvature *float64             `json:"curvature,omitempty"`
	Comment   string               `json:"comment,omitempty"`
}

func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, errors.Wrap(err, "read scenario")
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (Scenario, error) {
	var scen Scenario
	if err := json.Unmarshal(data, &scen); err != nil {
		return Scenario{}, errors.Wrap(err, "unmarshal scenario")
	}
	if scen.Timing.DurationS <= 0 {
		return Scenario{}, errors.Errorf("invalid duration_s: %f", scen.Timing.DurationS)
	}
	for i, seg := range scen.Segments {
		if seg.T0 < 0 || (seg.T1 >= 0 && seg.T1 <= seg.T0) {
			return Scenario{}, errors.Errorf("segment %d: bad window [%g, %g)", i, seg.T0, seg.T1)
		}
		// catch bad overrides at load rather than mid-run
		in := scen.Initial
		if err := seg.apply(&in); err != nil {
			return Scenario{}, errors.Wrapf(err, "segment %d", i)
		}
	}
	return scen, nil
}

func (seg ScenarioSegment) apply(in *ScenarioInputs) error {
	if len(seg.Control) > 0 {
		if err := json.Unmarshal(seg.Control, &in.Control); err != nil {
			return errors.Wrap(err, "control override")
		}
	}
	if len(seg.Vehicle) > 0 {
		if err := json.Unmarshal(seg.Vehicle, &in.Vehicle); err != nil {
			return errors.Wrap(err, "vehicle override")
		}
	}
	return nil
}

func (seg ScenarioSegment) active(t, duration float64) bool {
	t1 := seg.T1
	if t1 < 0 {
		t1 = duration
	}
	return t >= seg.T0 && t < t1
}

// flatHorizon is a constant-curvature horizon driven at vEgo: the heading
// grows as curvature times distance travelled.
func flatHorizon(curvature, vEgo float64) *lateral.Horizon {
	v := lateral.FloorSpeed(vEgo)
	h := lateral.Horizon{
		Psis:           make([]float64, lateral.ControlN),
		Curvatures:     make([]float64, lateral.ControlN),
		CurvatureRates: make([]float64, lateral.ControlN),
	}
	for i, t := range lateral.TIdxs {
		h.Psis[i] = curvature * v * t
		h.Curvatures[i] = curvature
	}
	return &h
}

// EvalInputs returns the controller inputs for a tick. Every active segment
// applies, in file order.
func EvalInputs(scen *Scenario, tick uint64) carcontroller.Inputs {
	t := float64(tick) * carcontroller.DT
	in := scen.Initial
	var buttons []cruise.ButtonEvent
	var curvature *float64

	for _, seg := range scen.Segments {
		if uint64(math.Round(seg.T0/carcontroller.DT)) == tick {
			buttons = append(buttons, seg.Buttons...)
		}
		if !seg.active(t, scen.Timing.DurationS) {
			continue
		}
		// validated at load
		_ = seg.apply(&in)
		if seg.Curvature != nil {
			curvature = seg.Curvature
		}
	}

	var horizon *lateral.Horizon
	if curvature != nil {
		horizon = flatHorizon(*curvature, in.Vehicle.VEgo)
	}
	return carcontroller.Inputs{
		Control: in.Control,
		Vehicle: in.Vehicle,
		Buttons: buttons,
		Horizon: horizon,
	}
}
