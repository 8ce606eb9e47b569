package carcontroller

import (
	"testing"

	"github.com/stretchr/testify/require"

	"adas-actuation-core/closed_loop/vehicle"
	"adas-actuation-core/utils"
)

func testConfig(t *testing.T, family vehicle.Family) Config {
	t.Helper()
	table, err := vehicle.DefaultTable()
	require.NoError(t, err)
	p, err := table.Lookup(family)
	require.NoError(t, err)
	m, err := utils.DefaultCANMap()
	require.NoError(t, err)
	packer, err := NewPacker(m, p.Brand)
	require.NoError(t, err)

	cfg := NewConfig(p, packer)
	cfg.StaticFrames = table.StaticFramesFor(family)
	cfg.Cruise.Metric = true
	return cfg
}

// run steps n ticks with the same inputs and returns every tick's output.
func run(t *testing.T, s State, in Inputs, cfg Config, n int) (State, []Outputs) {
	t.Helper()
	outs := make([]Outputs, 0, n)
	for i := 0; i < n; i++ {
		var out Outputs
		var err error
		s, out, err = Step(s, in, cfg)
		require.NoError(t, err)
		outs = append(outs, out)
	}
	return s, outs
}

func framesAt(out Outputs, addr uint32) []Frame {
	var fs []Frame
	for _, f := range out.Frames {
		if f.Address == addr {
			fs = append(fs, f)
		}
	}
	return fs
}

func decode(t *testing.T, f Frame) map[string]float64 {
	t.Helper()
	m, err := utils.DefaultCANMap()
	require.NoError(t, err)
	v, err := m.DecodeFrame(f.Address, f.Payload)
	require.NoError(t, err)
	return v
}

const (
	addrSteeringLKA = 0x2E4
	addrSteeringLTA = 0x191
	addrACCControl  = 0x343
	addrPCMCruise   = 0x1D2
	addrGasCommand  = 0x200
	addrLKASHud     = 0x412
	addrACCHud      = 0x411

	addrLKAS11     = 0x340
	addrCLU11      = 0x4F1
	addrSCC11      = 0x420
	addrSCC12      = 0x421
	addrSCC14      = 0x389
	addrSCC13      = 0x50A
	addrFCA12      = 0x38D
	addrFrtRadar11 = 0x4A8
	addrLFAHDA     = 0x485
)
