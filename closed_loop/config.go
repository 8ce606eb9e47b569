package main

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"adas-actuation-core/closed_loop/carcontroller"
	cruise "adas-actuation-core/closed_loop/cruise_control"
	control "adas-actuation-core/closed_loop/longitudinal_control"
	"adas-actuation-core/closed_loop/vehicle"
	"adas-actuation-core/utils"
)

// Config is the runner configuration file.
type Config struct {
	Vehicle  VehicleConfig     `yaml:"vehicle"`
	Cruise   CruiseConfig      `yaml:"cruise"`
	CAN      CANConfig         `yaml:"can"`
	UI       UIConfig          `yaml:"ui"`
	Planner  control.PIDConfig `yaml:"planner"`
	Recorder RecorderConfig    `yaml:"recorder"`
	Metrics  MetricsConfig     `yaml:"metrics"`
	Logging  LoggingConfig     `yaml:"logging"`
}

type VehicleConfig struct {
	Family string `yaml:"family"`
	// FamiliesPath replaces the built-in family table when set.
	FamiliesPath  string `yaml:"families_path"`
	Interceptor   bool   `yaml:"interceptor"`
	OpenpilotLong bool   `yaml:"openpilot_long"`
	// IntegratedSensorModule overrides the family default when set.
	IntegratedSensorModule *bool `yaml:"integrated_sensor_module"`
	EnhancedSCC            bool  `yaml:"enhanced_scc"`
}

type CruiseConfig struct {
	Metric           bool   `yaml:"metric"`
	ReverseAccChange bool   `yaml:"reverse_acc_change"`
	ChangeType       bool   `yaml:"change_type"`
	LongPressTicks   int    `yaml:"long_press_ticks"`
	FastMode         bool   `yaml:"fast_mode"`
	ButtonMode       string `yaml:"button_mode"` // "", "edge" or "level"
}

type CANConfig struct {
	// Buses maps the controller's bus numbers to socketcan interfaces.
	Buses map[int]string `yaml:"buses"`
	// MapPath replaces the built-in signal map when set.
	MapPath string `yaml:"map_path"`
}

type UIConfig struct {
	DisableStartupLKAS bool `yaml:"disable_startup_lkas"`
}

type RecorderConfig struct {
	Path string `yaml:"path"` // empty disables recording
}

type MetricsConfig struct {
	Listen string `yaml:"listen"` // empty disables the endpoint
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file"`
	Stdout bool   `yaml:"stdout"`
}

func DefaultConfig() Config {
	return Config{
		Vehicle: VehicleConfig{
			Family:        "rav4",
			OpenpilotLong: true,
		},
		Cruise: CruiseConfig{
			Metric:         true,
			LongPressTicks: cruise.DefaultLongPress,
		},
		CAN: CANConfig{
			Buses: map[int]string{0: "vcan0", 1: "vcan1"},
		},
		Planner: control.DefaultPIDConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			File:   "closed_loop.log",
			Stdout: true,
		},
	}
}

// LoadConfigFile reads path over DefaultConfig. Unknown keys are errors.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config file")
	}

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decode config yaml")
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return Config{}, errors.New("decode config yaml: unexpected trailing document")
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Vehicle.Family == "" {
		return errors.New("vehicle.family is required")
	}
	switch vehicle.ButtonMode(c.Cruise.ButtonMode) {
	case "", vehicle.EdgeButtons, vehicle.LevelButtons:
	default:
		return errors.Errorf("cruise.button_mode %q: want edge or level", c.Cruise.ButtonMode)
	}
	if c.Cruise.LongPressTicks < 0 {
		return errors.Errorf("cruise.long_press_ticks must not be negative, got %d", c.Cruise.LongPressTicks)
	}
	for bus, iface := range c.CAN.Buses {
		if bus < 0 || iface == "" {
			return errors.Errorf("can.buses: bad entry %d -> %q", bus, iface)
		}
	}
	if c.Planner.MinAccel > c.Planner.MaxAccel {
		return errors.Errorf("planner: min_accel %.2f above max_accel %.2f", c.Planner.MinAccel, c.Planner.MaxAccel)
	}
	return nil
}

// FlagOverrides are applied over the loaded file; nil fields are ignored.
type FlagOverrides struct {
	Family       *string
	Interceptor  *bool
	RecorderPath *string
	MetricsAddr  *string
	LogLevel     *string
	Buses        map[int]string
}

func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.Family != nil {
		cfg.Vehicle.Family = *o.Family
	}
	if o.Interceptor != nil {
		cfg.Vehicle.Interceptor = *o.Interceptor
	}
	if o.RecorderPath != nil {
		cfg.Recorder.Path = *o.RecorderPath
	}
	if o.MetricsAddr != nil {
		cfg.Metrics.Listen = *o.MetricsAddr
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
	for bus, iface := range o.Buses {
		if cfg.CAN.Buses == nil {
			cfg.CAN.Buses = map[int]string{}
		}
		cfg.CAN.Buses[bus] = iface
	}
}

func (c Config) loadTable() (*vehicle.Table, error) {
	if c.Vehicle.FamiliesPath == "" {
		return vehicle.DefaultTable()
	}
	f, err := os.Open(c.Vehicle.FamiliesPath)
	if err != nil {
		return nil, errors.Wrap(err, "open family table")
	}
	defer f.Close()
	return vehicle.ReadTable(f)
}

func (c Config) loadCANMap() (*utils.CANMap, error) {
	if c.CAN.MapPath == "" {
		return utils.DefaultCANMap()
	}
	return utils.LoadCANMap(c.CAN.MapPath)
}

// ControllerConfig resolves the family and builds the static controller
// configuration.
func (c Config) ControllerConfig() (carcontroller.Config, error) {
	table, err := c.loadTable()
	if err != nil {
		return carcontroller.Config{}, err
	}
	p, err := table.Lookup(vehicle.Family(c.Vehicle.Family))
	if err != nil {
		return carcontroller.Config{}, err
	}
	cmap, err := c.loadCANMap()
	if err != nil {
		return carcontroller.Config{}, err
	}
	packer, err := carcontroller.NewPacker(cmap, p.Brand)
	if err != nil {
		return carcontroller.Config{}, errors.Wrap(err, "signal map")
	}

	cc := carcontroller.NewConfig(p, packer)
	cc.Interceptor = c.Vehicle.Interceptor
	cc.OpenpilotLong = c.Vehicle.OpenpilotLong
	if c.Vehicle.IntegratedSensorModule != nil {
		cc.IntegratedSensorModule = *c.Vehicle.IntegratedSensorModule
	}
	cc.EnhancedSCC = c.Vehicle.EnhancedSCC
	cc.Cruise = cruise.Config{
		Metric:           c.Cruise.Metric,
		ReverseAccChange: c.Cruise.ReverseAccChange,
		ChangeType:       c.Cruise.ChangeType,
		LongPress:        c.Cruise.LongPressTicks,
		FastMode:         c.Cruise.FastMode,
	}
	cc.ButtonMode = vehicle.ButtonMode(c.Cruise.ButtonMode)
	cc.DisableStartupLKAS = c.UI.DisableStartupLKAS
	cc.StaticFrames = table.StaticFramesFor(p.Family)
	return cc, nil
}
