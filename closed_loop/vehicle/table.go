package vehicle

import (
	"bytes"
	_ "embed"
	"encoding/hex"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	lateral "adas-actuation-core/closed_loop/lateral_control"
)

//go:embed families.yaml
var familiesYAML []byte

// HexBytes is a payload written as a hex string.
type HexBytes []byte

func (h *HexBytes) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	if err != nil {
		return errors.Wrapf(err, "line %d: payload %q", value.Line, s)
	}
	*h = b
	return nil
}

// StaticFrame is replayed on its own cadence in place of a module that has
// been unplugged.
type StaticFrame struct {
	Address  uint32   `yaml:"address"`
	Bus      int      `yaml:"bus"`
	Step     int      `yaml:"step"`
	Payload  HexBytes `yaml:"payload"`
	Families []Family `yaml:"families"`
}

// Applies reports whether the frame is sent for f.
func (s StaticFrame) Applies(f Family) bool {
	for _, x := range s.Families {
		if x == f {
			return true
		}
	}
	return false
}

// Table is the decoded family table.
type Table struct {
	Curves       map[string]yaml.Node `yaml:"curves"`
	Defaults     map[string]yaml.Node `yaml:"defaults"`
	Families     map[Family]Params    `yaml:"families"`
	StaticFrames []StaticFrame        `yaml:"static_frames"`
}

// DefaultTable returns the table shipped with the module.
func DefaultTable() (*Table, error) {
	t, err := ReadTable(bytes.NewReader(familiesYAML))
	if err != nil {
		return nil, errors.Wrap(err, "embedded family table")
	}
	return t, nil
}

// ReadTable decodes and validates a family table.
func ReadTable(r io.Reader) (*Table, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var t Table
	if err := dec.Decode(&t); err != nil {
		return nil, errors.Wrap(err, "decode family table")
	}
	for name, p := range t.Families {
		p.Family = name
		if err := p.validate(); err != nil {
			return nil, errors.Wrapf(err, "family %s", name)
		}
		t.Families[name] = p
	}
	for i, sf := range t.StaticFrames {
		if sf.Step <= 0 {
			return nil, errors.Errorf("static frame %d (0x%X): step must be positive", i, sf.Address)
		}
		if len(sf.Payload) == 0 || len(sf.Payload) > 8 {
			return nil, errors.Errorf("static frame %d (0x%X): payload length %d", i, sf.Address, len(sf.Payload))
		}
		for _, f := range sf.Families {
			if _, ok := t.Families[f]; !ok {
				return nil, errors.Errorf("static frame %d (0x%X): unknown family %s", i, sf.Address, f)
			}
		}
	}
	return &t, nil
}

// Lookup returns the parameters of f.
func (t *Table) Lookup(f Family) (Params, error) {
	p, ok := t.Families[f]
	if !ok {
		return Params{}, errors.Errorf("unknown vehicle family %q (available: %v)", f, t.Names())
	}
	return p, nil
}

// StaticFramesFor returns the replay frames that apply to f, in table order.
func (t *Table) StaticFramesFor(f Family) []StaticFrame {
	var out []StaticFrame
	for _, sf := range t.StaticFrames {
		if sf.Applies(f) {
			out = append(out, sf)
		}
	}
	return out
}

func (t *Table) Names() []Family {
	out := make([]Family, 0, len(t.Families))
	for f := range t.Families {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (p Params) validate() error {
	switch p.Brand {
	case Toyota, Hyundai:
	default:
		return errors.Errorf("unsupported brand %q", p.Brand)
	}
	s := p.Steer
	if s.Max <= 0 || s.DeltaUp <= 0 || s.DeltaDown <= 0 {
		return errors.Errorf("steer limits must be positive: %+v", s)
	}
	switch s.Limiter {
	case lateral.MotorLimiter:
		if s.ErrorMax <= 0 {
			return errors.New("motor limiter needs error_max")
		}
	case lateral.DriverLimiter:
		if s.DriverMultiplier <= 0 {
			return errors.New("driver limiter needs driver_multiplier")
		}
	default:
		return errors.Errorf("unknown steer limiter %q", s.Limiter)
	}
	switch s.Fault {
	case lateral.RateFault, lateral.AngleFault:
	default:
		return errors.Errorf("unknown steer fault kind %q", s.Fault)
	}
	switch p.CruiseButtons {
	case EdgeButtons, LevelButtons:
	default:
		return errors.Errorf("unknown cruise button mode %q", p.CruiseButtons)
	}
	if len(p.AccelMin.V) == 0 || len(p.AccelMax.V) == 0 {
		return errors.New("accel limits missing")
	}
	if p.Brand == Toyota && (len(p.PedalScale.V) == 0 || len(p.PedalOffset.V) == 0) {
		return errors.New("pedal tables missing")
	}
	return nil
}
