package carcontroller

import (
	"go.einride.tech/can"

	cruise "adas-actuation-core/closed_loop/cruise_control"
	lateral "adas-actuation-core/closed_loop/lateral_control"
	control "adas-actuation-core/closed_loop/longitudinal_control"
	"adas-actuation-core/closed_loop/vehicle"
)

// VisualAlert is the alert the HUD is asked to show.
type VisualAlert int

const (
	AlertNone VisualAlert = iota
	AlertFCW
	AlertSteerRequired
	AlertLDW
)

// LKASIcon is the startup LKAS icon state the car has persisted.
type LKASIcon int

const (
	LKASIconUnknown LKASIcon = iota
	LKASIconShown
	LKASIconHidden
)

// Actuators is the desired actuation from upstream, and the echo of what
// was actually commanded.
type Actuators struct {
	Steer            float64                  `json:"steer"`
	Accel            float64                  `json:"accel"`
	Gas              float64                  `json:"gas"`
	LongControlState control.LongControlState `json:"long_control_state"`
}

type HUD struct {
	VisualAlert      VisualAlert `json:"visual_alert"`
	LeftLaneVisible  bool        `json:"left_lane_visible"`
	RightLaneVisible bool        `json:"right_lane_visible"`
	LeftLaneDepart   bool        `json:"left_lane_depart"`
	RightLaneDepart  bool        `json:"right_lane_depart"`
	LeadVisible      bool        `json:"lead_visible"`
	SetSpeed         float64     `json:"set_speed"` // m/s
}

type CarControl struct {
	Actuators  Actuators `json:"actuators"`
	HUD        HUD       `json:"hud"`
	Enabled    bool      `json:"enabled"`
	LatActive  bool      `json:"lat_active"`
	LongActive bool      `json:"long_active"`
	Cancel     bool      `json:"cancel"`
	Resume     bool      `json:"resume"`
}

type CruiseState struct {
	Enabled    bool    `json:"enabled"`
	Standstill bool    `json:"standstill"`
	Speed      float64 `json:"speed"` // stock set speed, m/s
}

// VehicleSnapshot is the decoded car state for one tick. It is never
// modified here.
type VehicleSnapshot struct {
	VEgo              float64     `json:"v_ego"`
	AEgo              float64     `json:"a_ego"`
	SteeringTorque    float64     `json:"steering_torque"`
	SteeringTorqueEPS float64     `json:"steering_torque_eps"`
	SteeringRateDeg   float64     `json:"steering_rate_deg"`
	SteeringAngleDeg  float64     `json:"steering_angle_deg"`
	Standstill        bool        `json:"standstill"`
	BrakeLights       bool        `json:"brake_lights"`
	LeftBlinker       bool        `json:"left_blinker"`
	RightBlinker      bool        `json:"right_blinker"`
	GasPressed        bool        `json:"gas_pressed"`
	PCMAccStatus      int         `json:"pcm_acc_status"`
	Cruise            CruiseState `json:"cruise"`
	MainEnabled       bool        `json:"main_enabled"`

	AccType       int      `json:"acc_type"`
	DistanceLines int      `json:"distance_lines"`
	LKASIcon      LKASIcon `json:"lkas_icon"`
	MADSEnabled   bool     `json:"mads_enabled"`

	SpeedUnitMPH       bool               `json:"speed_unit_mph"`
	DriverButton       cruise.StockButton `json:"driver_button"`
	BrakeControlActive bool               `json:"brake_control_active"`
}

// Inputs is everything a tick consumes besides the state and config.
type Inputs struct {
	Control CarControl
	Vehicle VehicleSnapshot
	Buttons []cruise.ButtonEvent
	Horizon *lateral.Horizon
}

// Frame is one outbound bus frame.
type Frame struct {
	Address uint32
	Payload []byte
	Bus     int
}

// CAN converts f for transmission.
func (f Frame) CAN() can.Frame {
	var out can.Frame
	out.ID = f.Address
	out.Length = uint8(len(f.Payload))
	copy(out.Data[:], f.Payload)
	return out
}

// Outputs is the result of a tick.
type Outputs struct {
	Frames    []Frame
	Actuators Actuators

	CruiseSpeed   float64 // kph
	Curvature     float64
	CurvatureRate float64

	SteerRequest     bool
	SteerRateLimited bool
	SteerFaultTrip   bool
	TorqueFault      bool

	StandstillRequest bool
	StandstillStatus  StandstillStatus
	SendUI            bool
	StartupLKASSent   bool
}

// Config is resolved once at startup and never changes between ticks.
type Config struct {
	Params vehicle.Params

	Interceptor            bool
	OpenpilotLong          bool
	IntegratedSensorModule bool
	EnhancedSCC            bool

	Cruise cruise.Config
	// ButtonMode overrides the family's cruise button mode when set.
	ButtonMode vehicle.ButtonMode

	DisableStartupLKAS bool
	StaticFrames       []vehicle.StaticFrame
	Packer             *Packer
}

// NewConfig returns a config with the family's defaults filled in.
func NewConfig(p vehicle.Params, packer *Packer) Config {
	return Config{
		Params:                 p,
		OpenpilotLong:          true,
		IntegratedSensorModule: p.IntegratedSensorModule,
		Packer:                 packer,
	}
}

func (c Config) buttonMode() vehicle.ButtonMode {
	if c.ButtonMode != "" {
		return c.ButtonMode
	}
	return c.Params.CruiseButtons
}
