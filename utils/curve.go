package utils

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/interp"
	"gopkg.in/yaml.v3"
)

// Curve is a piecewise-linear lookup table held constant beyond its end
// breakpoints.
type Curve struct {
	BP []float64 `yaml:"bp"`
	V  []float64 `yaml:"v"`

	pl *interp.PiecewiseLinear
}

func NewCurve(bp, v []float64) (Curve, error) {
	c := Curve{BP: bp, V: v}
	if err := c.Fit(); err != nil {
		return Curve{}, err
	}
	return c, nil
}

func MustCurve(bp, v []float64) Curve {
	c, err := NewCurve(bp, v)
	if err != nil {
		panic(err)
	}
	return c
}

// ConstCurve is a curve with the same value everywhere.
func ConstCurve(v float64) Curve {
	return Curve{BP: []float64{0}, V: []float64{v}}
}

// Fit validates the breakpoints and prepares the interpolator.
func (c *Curve) Fit() error {
	if len(c.BP) == 0 || len(c.BP) != len(c.V) {
		return errors.Errorf("curve needs matching non-empty bp/v, got %d/%d", len(c.BP), len(c.V))
	}
	if len(c.BP) == 1 {
		c.pl = nil
		return nil
	}
	for i := 1; i < len(c.BP); i++ {
		if c.BP[i] <= c.BP[i-1] {
			return errors.Errorf("curve bp not strictly increasing: %v", c.BP)
		}
	}
	pl := &interp.PiecewiseLinear{}
	if err := pl.Fit(c.BP, c.V); err != nil {
		return errors.Wrapf(err, "fit curve bp=%v", c.BP)
	}
	c.pl = pl
	return nil
}

// At evaluates the curve at x.
func (c Curve) At(x float64) float64 {
	switch {
	case len(c.V) == 0:
		return 0
	case len(c.V) == 1, len(c.BP) != len(c.V):
		return c.V[0]
	case c.pl == nil:
		// built as a literal without Fit
		var pl interp.PiecewiseLinear
		if err := pl.Fit(c.BP, c.V); err != nil {
			return c.V[0]
		}
		return pl.Predict(x)
	}
	return c.pl.Predict(x)
}

// UnmarshalYAML decodes {bp, v} and fits the interpolator.
func (c *Curve) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		BP []float64 `yaml:"bp"`
		V  []float64 `yaml:"v"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	c.BP, c.V = raw.BP, raw.V
	return c.Fit()
}
