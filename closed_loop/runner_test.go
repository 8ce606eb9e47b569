package main

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.einride.tech/can"
	"go.uber.org/mock/gomock"

	"adas-actuation-core/closed_loop/metrics"
	"adas-actuation-core/utils"
	"adas-actuation-core/utils/mocks"
)

const runnerScenario = `{
  "meta": {"name": "runner_test"},
  "timing": {"duration_s": 1.0, "simulate": true, "planner": true},
  "initial": {
    "control": {"enabled": true, "lat_active": true, "long_active": true,
                "actuators": {"steer": 0.3}},
    "vehicle": {"v_ego": 10, "pcm_acc_status": 8, "main_enabled": true,
                "cruise": {"enabled": true}}
  },
  "segments": [
    {"t0": 0.2, "t1": -1, "buttons": [{"type": 1, "pressed": true}]},
    {"t0": 0.3, "t1": -1, "buttons": [{"type": 1, "pressed": false}]}
  ]
}`

func newTestRunner(t *testing.T, buses utils.BusWriters, record bool) *Runner {
	t.Helper()
	scen, err := ParseScenario([]byte(runnerScenario))
	require.NoError(t, err)

	cfg := DefaultConfig()
	if record {
		cfg.Recorder.Path = filepath.Join(t.TempDir(), "run.db")
	}
	log := utils.NewLogger(io.Discard, utils.ERROR)

	r, err := newRunner(context.Background(), cfg, scen, log, buses)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

func TestRunnerTickRoutesAndRecords(t *testing.T) {
	ctrl := gomock.NewController(t)
	bus0 := mocks.NewMockCANWriter(ctrl)

	var written []can.Frame
	bus0.EXPECT().WriteFrame(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f can.Frame) error {
			written = append(written, f)
			return nil
		}).AnyTimes()
	bus0.EXPECT().Close().Return(nil)

	// bus 1 carries the static DSU frames and has no writer here
	droppedBefore := testutil.ToFloat64(metrics.FramesDropped.WithLabelValues("1", "no_writer"))
	sentBefore := testutil.ToFloat64(metrics.FramesSent.WithLabelValues("0"))

	r := newTestRunner(t, utils.BusWriters{0: bus0}, true)
	ctx := context.Background()
	const ticks = 40
	for tick := uint64(0); tick < ticks; tick++ {
		require.NoError(t, r.Tick(ctx, tick))
	}

	recorded, err := r.rec.Ticks(ctx, r.rec.RunID())
	require.NoError(t, err)
	require.Len(t, recorded, ticks)

	var bus0Frames int
	for i, rt := range recorded {
		assert.Equal(t, uint64(i), rt.Tick)
		for _, f := range rt.Frames {
			if f.Bus == 0 {
				bus0Frames++
			}
		}
	}
	assert.Equal(t, bus0Frames, len(written))
	assert.Equal(t, uint64(len(written)), r.sent)
	assert.Equal(t, float64(len(written)), testutil.ToFloat64(metrics.FramesSent.WithLabelValues("0"))-sentBefore)
	assert.Greater(t, testutil.ToFloat64(metrics.FramesDropped.WithLabelValues("1", "no_writer")), droppedBefore)

	// 10 m/s on the enable edge, then one accel tap at 0.2 s
	assert.Equal(t, 37.0, recorded[ticks-1].CruiseSpeed)
	assert.Equal(t, 36.0, recorded[0].CruiseSpeed)
	assert.True(t, recorded[ticks-1].SteerRequest)
}

func TestRunnerWriteErrorsAreNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	bus0 := mocks.NewMockCANWriter(ctrl)
	bus0.EXPECT().WriteFrame(gomock.Any(), gomock.Any()).Return(errors.New("no buffer space")).AnyTimes()
	bus0.EXPECT().Close().Return(nil)

	before := testutil.ToFloat64(metrics.FramesDropped.WithLabelValues("0", "write_error"))

	r := newTestRunner(t, utils.BusWriters{0: bus0}, false)
	for tick := uint64(0); tick < 5; tick++ {
		require.NoError(t, r.Tick(context.Background(), tick))
	}
	assert.Zero(t, r.sent)
	assert.Greater(t, testutil.ToFloat64(metrics.FramesDropped.WithLabelValues("0", "write_error")), before)
}

func TestRunnerSimulatesSpeed(t *testing.T) {
	r := newTestRunner(t, utils.BusWriters{}, false)
	// engaging at 8 m/s sets the 30 kph floor, about 8.3 m/s
	r.sim.vEgo = 8
	for tick := uint64(0); tick < 100; tick++ {
		require.NoError(t, r.Tick(context.Background(), tick))
	}
	assert.Greater(t, r.sim.vEgo, 8.0)
	assert.Less(t, r.sim.vEgo, 9.5)
}

func TestRunnerRunStopsAtDuration(t *testing.T) {
	r := newTestRunner(t, utils.BusWriters{}, false)
	r.scen.Timing.DurationS = 0.05

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, uint64(0), r.sent)
}

func TestRunnerRunCanceled(t *testing.T) {
	r := newTestRunner(t, utils.BusWriters{}, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Run(ctx), context.Canceled)
}

func TestRunnerHoldsScenarioCurvature(t *testing.T) {
	r := newTestRunner(t, utils.BusWriters{}, true)
	c := 0.005
	r.scen.Segments = append(r.scen.Segments, ScenarioSegment{T0: 0, T1: -1, Curvature: &c})

	ctx := context.Background()
	for tick := uint64(0); tick < 20; tick++ {
		require.NoError(t, r.Tick(ctx, tick))
	}
	recorded, err := r.rec.Ticks(ctx, r.rec.RunID())
	require.NoError(t, err)
	for _, rt := range recorded {
		assert.InDelta(t, c, rt.Curvature, 1e-9, "tick %d", rt.Tick)
	}
}
