package main

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"adas-actuation-core/closed_loop/carcontroller"
	cruise "adas-actuation-core/closed_loop/cruise_control"
	control "adas-actuation-core/closed_loop/longitudinal_control"
	"adas-actuation-core/closed_loop/metrics"
	"adas-actuation-core/closed_loop/recorder"
	"adas-actuation-core/utils"
)

const tickPeriod = time.Duration(carcontroller.DT * float64(time.Second))

type Runner struct {
	cfg    Config
	scen   Scenario
	log    *utils.Logger
	ctrl   *carcontroller.Controller
	family string
	buses  utils.BusWriters
	rec    *recorder.Recorder
	pid    *control.PIDController

	// throttles transmit failure warnings; a dead bus fails every tick
	dropWarn *rate.Limiter

	sim  simState
	sent uint64
}

// simState closes the loop when the scenario asks for it.
type simState struct {
	vEgo  float64
	aEgo  float64
	accel float64 // planner output for the next tick
}

func NewRunner(ctx context.Context, cfg Config, scen Scenario, log *utils.Logger) (*Runner, error) {
	buses, err := utils.DialBuses(ctx, cfg.CAN.Buses)
	if err != nil {
		return nil, err
	}
	r, err := newRunner(ctx, cfg, scen, log, buses)
	if err != nil {
		_ = buses.Close()
		return nil, err
	}
	return r, nil
}

func newRunner(ctx context.Context, cfg Config, scen Scenario, log *utils.Logger, buses utils.BusWriters) (*Runner, error) {
	cc, err := cfg.ControllerConfig()
	if err != nil {
		return nil, errors.Wrap(err, "controller config")
	}
	ctrl, err := carcontroller.NewController(cc, log.Fields())
	if err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:      cfg,
		scen:     scen,
		log:      log,
		ctrl:     ctrl,
		family:   string(cc.Params.Family),
		buses:    buses,
		pid:      control.NewPIDController(cfg.Planner),
		dropWarn: rate.NewLimiter(rate.Every(time.Second), 1),
		sim:      simState{vEgo: scen.Initial.Vehicle.VEgo},
	}

	if cfg.Recorder.Path != "" {
		rec, err := recorder.Open(ctx, cfg.Recorder.Path, r.family, scen.Meta.Name)
		if err != nil {
			return nil, err
		}
		r.rec = rec
		log.Info("Recording run %s to %s", rec.RunID(), cfg.Recorder.Path)
	}

	log.Info("Controller ready: family=%s brand=%s interceptor=%v openpilot_long=%v static_frames=%d",
		r.family, cc.Params.Brand, cc.Interceptor, cc.OpenpilotLong, len(cc.StaticFrames))
	return r, nil
}

func (r *Runner) Close() {
	if r.rec != nil {
		if err := r.rec.Close(); err != nil {
			r.log.Warn("Closing recorder: %v", err)
		}
	}
	if r.buses != nil {
		_ = r.buses.Close()
	}
}

func (r *Runner) Run(ctx context.Context) error {
	total := uint64(math.Round(r.scen.Timing.DurationS / carcontroller.DT))
	r.log.Info("Starting TX: family=%s scenario=%s duration=%.2fs ticks=%d buses=%v",
		r.family, r.scen.Meta.Name, r.scen.Timing.DurationS, total, r.cfg.CAN.Buses)

	ticker := time.NewTicker(tickPeriod)
	defer ticker.Stop()

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			r.log.Warn("Context canceled; stopping TX")
			r.log.Info("Completed TX. ticks=%d frames_sent=%d", tick, r.sent)
			return ctx.Err()

		case <-ticker.C:
			if tick >= total {
				r.log.Info("Completed TX. ticks=%d frames_sent=%d", tick, r.sent)
				return nil
			}
			if err := r.Tick(ctx, tick); err != nil {
				return errors.Wrapf(err, "tick %d", tick)
			}
			tick++
		}
	}
}

// Tick runs one control tick: evaluate the scenario, step the controller,
// transmit, record and advance the planner and simulation.
func (r *Runner) Tick(ctx context.Context, tick uint64) error {
	start := time.Now()
	defer func() {
		metrics.TickDuration.WithLabelValues(r.family).Observe(time.Since(start).Seconds())
	}()

	in := EvalInputs(&r.scen, tick)
	if r.scen.Timing.Simulate {
		in.Vehicle.VEgo = r.sim.vEgo
		in.Vehicle.AEgo = r.sim.aEgo
		in.Vehicle.Standstill = r.sim.vEgo < 0.01
		if in.Horizon != nil {
			in.Horizon = flatHorizon(in.Horizon.Curvatures[0], r.sim.vEgo)
		}
	}
	if r.scen.Timing.Planner {
		in.Control.Actuators.Accel = r.sim.accel
	}

	out, err := r.ctrl.Update(in)
	if err != nil {
		metrics.TickErrors.WithLabelValues(r.family).Inc()
		return err
	}
	metrics.TicksTotal.WithLabelValues(r.family).Inc()
	metrics.CruiseSpeed.WithLabelValues(r.family).Set(out.CruiseSpeed)
	if out.SteerFaultTrip {
		metrics.SteerFaultTrips.WithLabelValues(r.family).Inc()
	}

	for _, f := range out.Frames {
		r.send(ctx, f)
	}

	if r.rec != nil {
		if err := r.rec.Record(ctx, recordTick(tick, out)); err != nil {
			r.log.Error("Recording tick %d: %v", tick, err)
		}
	}

	if r.scen.Timing.Planner {
		r.plan(tick, in, out)
	}
	if r.scen.Timing.Simulate {
		r.sim.aEgo = out.Actuators.Accel
		r.sim.vEgo = math.Max(0, r.sim.vEgo+out.Actuators.Accel*carcontroller.DT)
	}
	return nil
}

// plan turns the cruise speed into the accel requested on the next tick.
func (r *Runner) plan(tick uint64, in carcontroller.Inputs, out carcontroller.Outputs) {
	if !in.Control.Enabled {
		r.pid.Reset()
		r.sim.accel = 0
		return
	}
	target := in.Vehicle.VEgo
	if out.CruiseSpeed < cruise.VCruiseInitial {
		target = out.CruiseSpeed / 3.6
	}
	r.sim.accel = r.pid.Update(target, in.Vehicle.VEgo, carcontroller.DT)

	if carcontroller.Clock(tick).Every(100) {
		diag := r.pid.GetDiagnostics()
		r.log.Debug("PID: v=%.2f target=%.2f err=%.3f accel=%.2f P=%.2f I=%.2f",
			in.Vehicle.VEgo, target, diag.Error, r.sim.accel, diag.P, diag.I)
	}
}

func (r *Runner) send(ctx context.Context, f carcontroller.Frame) {
	bus := strconv.Itoa(f.Bus)
	sent, err := r.buses.Write(ctx, f.Bus, f.CAN())
	switch {
	case err != nil:
		metrics.FramesDropped.WithLabelValues(bus, "write_error").Inc()
		if r.dropWarn.Allow() {
			r.log.Warn("Transmit failed on bus %d: %v", f.Bus, err)
		}
		return
	case !sent:
		metrics.FramesDropped.WithLabelValues(bus, "no_writer").Inc()
		return
	}
	metrics.FramesSent.WithLabelValues(bus).Inc()
	r.sent++
	r.log.Trace("TX bus=%d id=0x%X len=%d data=% X", f.Bus, f.Address, len(f.Payload), f.Payload)
}

func recordTick(tick uint64, out carcontroller.Outputs) recorder.Tick {
	t := recorder.Tick{
		Tick:         tick,
		CruiseSpeed:  out.CruiseSpeed,
		Steer:        out.Actuators.Steer,
		Accel:        out.Actuators.Accel,
		Gas:          out.Actuators.Gas,
		Curvature:    out.Curvature,
		SteerRequest: out.SteerRequest,
		Frames:       make([]recorder.Frame, 0, len(out.Frames)),
	}
	for _, f := range out.Frames {
		t.Frames = append(t.Frames, recorder.Frame{Bus: f.Bus, Address: f.Address, Payload: f.Payload})
	}
	return t
}
