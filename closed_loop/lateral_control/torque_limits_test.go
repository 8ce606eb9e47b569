package lateral

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

var toyotaLimits = TorqueLimitParams{
	Max: 1500, DeltaUp: 10, DeltaDown: 25, ErrorMax: 350,
	Limiter: MotorLimiter, Fault: RateFault,
}

var hyundaiLimits = TorqueLimitParams{
	Max: 384, DeltaUp: 3, DeltaDown: 7,
	DriverAllowance: 50, DriverMultiplier: 2, DriverFactor: 1,
	Limiter: DriverLimiter, Fault: AngleFault,
}

func TestApplyTorqueLimitsRate(t *testing.T) {
	tests := []struct {
		name     string
		desired  int
		last     int
		measured float64
		p        TorqueLimitParams
		want     int
	}{
		{"ramp up from zero", 1500, 0, 0, toyotaLimits, 10},
		{"ramp up positive", 1500, 100, 100, toyotaLimits, 110},
		{"ramp down positive", 0, 100, 100, toyotaLimits, 75},
		{"ramp down negative", 0, -100, -100, toyotaLimits, -75},
		{"cross zero limited by up", -1500, 5, 0, toyotaLimits, -10},
		{"motor error window", 1500, 340, 0, toyotaLimits, 350},
		{"driver ramp", 384, 0, 0, hyundaiLimits, 3},
		{"driver opposing", 384, 200, -200, hyundaiLimits, 193},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ApplyTorqueLimits(tt.desired, tt.last, tt.measured, tt.p))
		})
	}
}

func TestApplyTorqueLimitsNeverExceedsRate(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, p := range []TorqueLimitParams{toyotaLimits, hyundaiLimits} {
		bound := p.DeltaUp
		if p.DeltaDown > bound {
			bound = p.DeltaDown
		}
		last := 0
		for i := 0; i < 5000; i++ {
			desired := rng.Intn(2*p.Max+1) - p.Max
			measured := float64(last)
			if p.Limiter == DriverLimiter {
				measured = 0
			}
			got := ApplyTorqueLimits(desired, last, measured, p)
			assert.LessOrEqual(t, int(math.Abs(float64(got-last))), bound)
			assert.LessOrEqual(t, int(math.Abs(float64(got))), p.Max)
			last = got
		}
	}
}

func TestRateLimitAndDeadzone(t *testing.T) {
	assert.Equal(t, 1.5, RateLimit(5, 1, -0.5, 0.5))
	assert.Equal(t, 0.5, RateLimit(-5, 1, -0.5, 0.5))
	assert.Equal(t, 1.2, RateLimit(1.2, 1, -0.5, 0.5))

	assert.Equal(t, 0.0, ApplyDeadzone(0.05, 0.1))
	assert.InDelta(t, 0.4, ApplyDeadzone(0.5, 0.1), 1e-12)
	assert.InDelta(t, -0.4, ApplyDeadzone(-0.5, 0.1), 1e-12)
}
