// Package carcontroller turns one tick of desired actuation and vehicle
// state into the CAN frames a car expects from its driver assistance
// controller.
package carcontroller

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	cruise "adas-actuation-core/closed_loop/cruise_control"
	lateral "adas-actuation-core/closed_loop/lateral_control"
	"adas-actuation-core/closed_loop/vehicle"
)

// Step runs one control tick. It is pure: the same state, inputs and
// config always give the same frames and next state. On error the input
// state is returned unchanged.
func Step(s State, in Inputs, cfg Config) (State, Outputs, error) {
	if cfg.Packer == nil {
		return s, Outputs{}, errors.New("carcontroller: config has no packer")
	}

	var (
		next State
		out  Outputs
		err  error
	)
	switch cfg.Params.Brand {
	case vehicle.Toyota:
		next, out, err = stepToyota(s, in, cfg)
	case vehicle.Hyundai:
		next, out, err = stepHyundai(s, in, cfg)
	default:
		return s, Outputs{}, errors.Errorf("carcontroller: unsupported brand %q", cfg.Params.Brand)
	}
	if err != nil {
		return s, Outputs{}, errors.Wrapf(err, "tick %d", s.Frame)
	}

	next = stepCruise(next, in, cfg)
	out.CruiseSpeed = next.CruiseSpeed

	var h lateral.Horizon
	if in.Horizon != nil {
		h = *in.Horizon
	}
	out.Curvature, out.CurvatureRate = lateral.LagAdjustedCurvature(h, in.Vehicle.VEgo, cfg.Params.SteerActuatorDelay)

	next.Frame++
	return next, out, nil
}

// stepCruise tracks the set speed. The speed is picked on engagement and
// then follows the buttons with the family's button mode.
func stepCruise(s State, in Inputs, cfg Config) State {
	enabled := in.Control.Enabled
	switch {
	case enabled && !s.LastEnabled:
		s.CruiseSpeed = cruise.Initialize(in.Vehicle.VEgo, in.Buttons, s.CruiseSpeed, cfg.Cruise.Metric)
	case cfg.buttonMode() == vehicle.LevelButtons:
		s.CruiseSpeed = cruise.UpdatePressHold(cruise.PressHoldInput{
			VCruise: s.CruiseSpeed,
			Enabled: enabled,
			Events:  in.Buttons,
			Timers:  s.Timers,
			Min:     cfg.Params.PressHoldMinKph,
		}, cfg.Cruise)
	default:
		s.CruiseSpeed = cruise.UpdateDiscrete(cruise.DiscreteInput{
			VCruise:    s.CruiseSpeed,
			VEgo:       in.Vehicle.VEgo,
			GasPressed: in.Vehicle.GasPressed,
			Enabled:    enabled,
			Events:     in.Buttons,
			Timers:     s.Timers,
		}, cfg.Cruise)
	}
	s.LastEnabled = enabled
	s.Timers = s.Timers.Update(in.Buttons)
	return s
}

// Controller owns the state between ticks and logs notable transitions.
// It is not safe for concurrent use.
type Controller struct {
	cfg   Config
	state State
	log   logrus.FieldLogger
}

func NewController(cfg Config, log logrus.FieldLogger) (*Controller, error) {
	if cfg.Packer == nil {
		return nil, errors.New("carcontroller: config has no packer")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Controller{
		cfg:   cfg,
		state: NewState(),
		log:   log.WithField("family", cfg.Params.Family),
	}, nil
}

func (c *Controller) State() State {
	return c.state
}

// Update runs one tick and keeps the resulting state.
func (c *Controller) Update(in Inputs) (Outputs, error) {
	prev := c.state
	next, out, err := Step(prev, in, c.cfg)
	if err != nil {
		c.log.WithError(err).WithField("frame", uint64(prev.Frame)).Error("tick failed")
		return Outputs{}, err
	}
	c.state = next

	l := c.log.WithField("frame", uint64(prev.Frame))
	if out.SteerFaultTrip && !out.TorqueFault {
		l.WithField("rate_deg", in.Vehicle.SteeringRateDeg).Warn("steer request dropped for rate fault")
	}
	if out.TorqueFault && !prev.Steer.CutSteer {
		l.WithField("angle_deg", in.Vehicle.SteeringAngleDeg).Warn("steer torque cut past angle limit")
	}
	if next.Standstill.Request != prev.Standstill.Request {
		l.WithField("request", next.Standstill.Request).Info("standstill request changed")
	}
	if out.StartupLKASSent {
		l.Info("startup LKAS suppression sent")
	}
	if next.CruiseSpeed != prev.CruiseSpeed {
		l.WithFields(logrus.Fields{
			"from": prev.CruiseSpeed,
			"to":   next.CruiseSpeed,
		}).Debug("set speed changed")
	}
	l.WithField("frames", len(out.Frames)).Trace("tick")
	return out, nil
}
