package vehicle

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lateral "adas-actuation-core/closed_loop/lateral_control"
)

func TestDefaultTable(t *testing.T) {
	tbl, err := DefaultTable()
	require.NoError(t, err)

	rav4, err := tbl.Lookup("rav4")
	require.NoError(t, err)
	assert.Equal(t, Family("rav4"), rav4.Family)
	assert.Equal(t, Toyota, rav4.Brand)
	assert.Equal(t, 1500, rav4.Steer.Max)
	assert.Equal(t, lateral.MotorLimiter, rav4.Steer.Limiter)
	assert.InDelta(t, 0.15, rav4.PedalScale.At(0), 1e-12)
	assert.InDelta(t, 0.3, rav4.PedalScale.At(8.49), 1e-12)
	assert.InDelta(t, -3.5, rav4.AccelMin.At(30), 1e-12)
	assert.False(t, rav4.AngleSteerMsg)
	assert.Equal(t, EdgeButtons, rav4.CruiseButtons)

	corolla, err := tbl.Lookup("corolla")
	require.NoError(t, err)
	assert.InDelta(t, 0.3, corolla.PedalScale.At(0), 1e-12)

	prius, err := tbl.Lookup("prius")
	require.NoError(t, err)
	assert.InDelta(t, 0.4, prius.PedalScale.At(0), 1e-12)
	assert.InDelta(t, 0.2, prius.PedalOffset.At(50), 1e-12)
}

func TestTSS2InheritsToyota(t *testing.T) {
	tbl, err := DefaultTable()
	require.NoError(t, err)

	p, err := tbl.Lookup("rav4_tss2")
	require.NoError(t, err)
	assert.True(t, p.AngleSteerMsg)
	assert.True(t, p.NoStopTimer)
	assert.True(t, p.UseLTAMsg)
	assert.True(t, p.IntegratedSensorModule)
	assert.Equal(t, 0.25, p.SteerActuatorDelay)
	assert.Equal(t, 350, p.Steer.ErrorMax)

	es, err := tbl.Lookup("lexus_es_tss2")
	require.NoError(t, err)
	assert.False(t, es.UseLTAMsg)
	assert.Empty(t, tbl.StaticFramesFor("rav4_tss2"))
}

func TestHyundaiFamilies(t *testing.T) {
	tbl, err := DefaultTable()
	require.NoError(t, err)

	g80, err := tbl.Lookup("genesis_g80")
	require.NoError(t, err)
	assert.Equal(t, Hyundai, g80.Brand)
	assert.Equal(t, lateral.DriverLimiter, g80.Steer.Limiter)
	assert.Equal(t, lateral.AngleFault, g80.Steer.Fault)
	assert.True(t, g80.LaneWarningAlt)
	assert.Equal(t, LevelButtons, g80.CruiseButtons)
	assert.Equal(t, 30.0, g80.PressHoldMinKph)

	sonata, err := tbl.Lookup("sonata")
	require.NoError(t, err)
	assert.True(t, sonata.LFAHud)
	assert.False(t, sonata.LaneWarningAlt)

	_, err = tbl.Lookup("delorean")
	assert.Error(t, err)
}

func TestStaticFrames(t *testing.T) {
	tbl, err := DefaultTable()
	require.NoError(t, err)

	frames := tbl.StaticFramesFor("prius")
	require.NotEmpty(t, frames)
	assert.Equal(t, uint32(0x128), frames[0].Address)
	assert.Equal(t, 1, frames[0].Bus)
	assert.Equal(t, 3, frames[0].Step)
	assert.Equal(t, HexBytes{0xf4, 0x01, 0x90, 0x83, 0x00, 0x37}, frames[0].Payload)

	for _, f := range tbl.StaticFramesFor("highlander") {
		assert.True(t, f.Applies("highlander"))
	}
}

func TestReadTableErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "families:\n  x:\n    brand: toyota\n    turbo: true\n"},
		{"bad brand", "families:\n  x:\n    brand: saab\n"},
		{"bad curve", "families:\n  x:\n    brand: hyundai\n    accel_min: {bp: [1, 0], v: [0, 1]}\n"},
		{"bad payload", "static_frames:\n  - {address: 0x1, bus: 0, step: 1, payload: \"zz\"}\n"},
		{"unknown family", "static_frames:\n  - {address: 0x1, bus: 0, step: 1, payload: \"00\", families: [x]}\n"},
		{"zero step", "static_frames:\n  - {address: 0x1, bus: 0, step: 0, payload: \"00\"}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTable(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}
