package control

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/require"

	"github.com/BryanSouza91/PulsingFC/internal/motors"
)

func TestPIDUpdate(t *testing.T) {
	pid := NewPIDController(2, 1, 0.5)
	out := pid.Update(1, 0.1, false)
	// 2*1 + 1*0.1 + 0.5*(1-0)/0.1
	require.InDelta(t, 2+0.1+5, out, 1e-9)
	require.InDelta(t, 0.1, pid.Integral(), 1e-12)
}

func TestPIDHoldsIntegratorWhenLimited(t *testing.T) {
	pid := NewPIDController(0, 1, 0)
	pid.Update(1, 0.1, false)
	for i := 0; i < 10; i++ {
		pid.Update(1, 0.1, true)
	}
	require.InDelta(t, 0.1, pid.Integral(), 1e-12)

	pid.Update(1, 0.1, false)
	require.InDelta(t, 0.2, pid.Integral(), 1e-12)
}

func TestPIDIntegratorClamp(t *testing.T) {
	pid := NewPIDController(0, 1, 0)
	pid.IMax = 0.3
	for i := 0; i < 10; i++ {
		pid.Update(-1, 0.1, false)
	}
	require.InDelta(t, -0.3, pid.Integral(), 1e-12)
	pid.Reset()
	require.Zero(t, pid.Integral())
}

func TestRateControllerFreezesLimitedAxes(t *testing.T) {
	rc := NewRateController()
	sticks := motors.ThrustDemand{Roll: 0.5, Pitch: 0.5, Yaw: 0.5, Throttle: 0.6}
	limit := motors.LimitFlags{Roll: true, Pitch: true}

	out := rc.Update(sticks, r3.Vector{}, limit, 0.0025)
	require.Equal(t, 0.6, out.Throttle)
	require.Zero(t, rc.Roll.Integral())
	require.Zero(t, rc.Pitch.Integral())
	require.Greater(t, rc.Yaw.Integral(), 0.0)
	require.Greater(t, out.Roll, 0.0)

	rc.Reset()
	require.Zero(t, rc.Yaw.Integral())
}

func TestRateControllerTracksMeasuredRate(t *testing.T) {
	rc := NewRateController()
	rates := r3.Vector{X: 0.5 * MaxRollRateDeg * degToRad}
	out := rc.Update(motors.ThrustDemand{Roll: 0.5}, rates, motors.LimitFlags{}, 0.0025)
	require.InDelta(t, 0, out.Roll, 1e-9)
}
