package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestCurveInterpolatesAndHolds(t *testing.T) {
	c, err := NewCurve([]float64{0, 2.3, 12.96}, []float64{-0.4, 0, 0.2})
	require.NoError(t, err)

	assert.InDelta(t, -0.4, c.At(-5), 1e-12)
	assert.InDelta(t, -0.2, c.At(1.15), 1e-12)
	assert.InDelta(t, 0.1, c.At((2.3+12.96)/2), 1e-12)
	assert.InDelta(t, 0.2, c.At(100), 1e-12)
}

func TestCurveSinglePoint(t *testing.T) {
	c := ConstCurve(2.0)
	assert.Equal(t, 2.0, c.At(-1))
	assert.Equal(t, 2.0, c.At(1e6))
}

func TestCurveErrors(t *testing.T) {
	_, err := NewCurve(nil, nil)
	assert.Error(t, err)
	_, err = NewCurve([]float64{0, 1}, []float64{1})
	assert.Error(t, err)
	_, err = NewCurve([]float64{1, 0}, []float64{0, 1})
	assert.Error(t, err, "breakpoints must increase")
}

func TestCurveYAML(t *testing.T) {
	var c Curve
	require.NoError(t, yaml.Unmarshal([]byte("{bp: [0, 10], v: [0, 1]}"), &c))
	assert.InDelta(t, 0.5, c.At(5), 1e-12)

	err := yaml.Unmarshal([]byte("{bp: [0, 10], v: [0]}"), &c)
	assert.Error(t, err)
}
