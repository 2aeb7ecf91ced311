package control

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/BryanSouza91/PulsingFC/internal/motors"
)

// Maximum commanded body rates at full stick.
const (
	MaxRollRateDeg  = 360
	MaxPitchRateDeg = 360
	MaxYawRateDeg   = 200
)

const degToRad = math.Pi / 180

// RateController runs one PID per axis. The loop feeds back the mixer limit
// flags from the previous tick.
type RateController struct {
	Roll, Pitch, Yaw *PIDController
}

// NewRateController returns a controller with the stock gains.
func NewRateController() *RateController {
	rc := &RateController{
		Roll:  NewPIDController(0.135, 0.135, 0.0036),
		Pitch: NewPIDController(0.135, 0.135, 0.0036),
		Yaw:   NewPIDController(0.18, 0.018, 0),
	}
	rc.Roll.IMax, rc.Pitch.IMax, rc.Yaw.IMax = 0.5, 0.5, 0.5
	return rc
}

// Update converts stick positions into rate targets and returns the demand
// with roll, pitch and yaw replaced by the controller output. Throttle and
// feed-forward are passed through.
func (rc *RateController) Update(sticks motors.ThrustDemand, rates r3.Vector, limit motors.LimitFlags, dt float64) motors.ThrustDemand {
	target := r3.Vector{
		X: sticks.Roll * MaxRollRateDeg * degToRad,
		Y: sticks.Pitch * MaxPitchRateDeg * degToRad,
		Z: sticks.Yaw * MaxYawRateDeg * degToRad,
	}
	e := target.Sub(rates)

	out := sticks
	out.Roll = rc.Roll.Update(e.X, dt, limit.Roll)
	out.Pitch = rc.Pitch.Update(e.Y, dt, limit.Pitch)
	out.Yaw = rc.Yaw.Update(e.Z, dt, limit.Yaw)
	return out
}

// Reset clears every axis, e.g. when disarmed.
func (rc *RateController) Reset() {
	rc.Roll.Reset()
	rc.Pitch.Reset()
	rc.Yaw.Reset()
}
