package motors

import "github.com/BryanSouza91/PulsingFC/internal/mathx"

// MinCompensationGain is the floor applied to a non-positive compensation
// gain. The rotor output divides by the gain.
const MinCompensationGain = 1e-3

// ThrustDemand is the normalized controller demand for one tick.
// Roll, pitch and yaw are nominally in [-1, 1], throttle in [0, 1].
type ThrustDemand struct {
	Roll     float64
	Pitch    float64
	Yaw      float64
	Throttle float64

	// Feed-forward biases, added to the demand before compensation.
	RollFF  float64
	PitchFF float64
	YawFF   float64
}

// MixInput carries the per-tick bounds and scaling the mixer needs besides
// the demand itself.
type MixInput struct {
	Gain              float64 // voltage / air density compensation, > 0
	ThrottleAvgMax    float64 // running average throttle bound
	ThrottleThrustMax float64 // current throttle ceiling
	YawDir            float64 // +1 or -1, tail rotor direction
}

// MixOutput holds the mixed thrust and gimbal actions.
type MixOutput struct {
	RotorThrust float64
	TailThrust  float64
	PitchAction float64
	RollAction  float64
}

// Mix converts demand into rotor, tail and gimbal commands and reports
// which axes were clamped. Roll and pitch share one scale factor so the
// roll/pitch direction survives saturation; yaw above unity is clipped to
// its reciprocal.
func Mix(d ThrustDemand, in MixInput) (MixOutput, LimitFlags) {
	var limit LimitFlags

	gain := in.Gain
	if !(gain > 0) {
		gain = MinCompensationGain
	}

	// apply voltage and air pressure compensation
	roll := (d.Roll + d.RollFF) * gain
	pitch := (d.Pitch + d.PitchFF) * gain
	yaw := (d.Yaw + d.YawFF) * gain
	throttle := d.Throttle * gain
	throttleAvgMax := in.ThrottleAvgMax * gain

	// throttle must stay above zero and below the current ceiling
	if throttle <= 0 {
		throttle = 0
		limit.ThrottleLower = true
	}
	if throttle >= in.ThrottleThrustMax {
		throttle = in.ThrottleThrustMax
		limit.ThrottleUpper = true
	}

	throttleAvgMax = mathx.Constrain(throttleAvgMax, throttle, in.ThrottleThrustMax)

	rpScale := 1.0
	if rpMax := max(mathx.Abs(roll), mathx.Abs(pitch)); rpMax >= 1 {
		rpScale = mathx.Constrain(1/rpMax, 0, 1)
		limit.Roll = true
		limit.Pitch = true
	}

	if mathx.Abs(yaw) > 1 {
		yaw = mathx.Constrain(1/yaw, -1, 1)
		limit.Yaw = true
	}

	return MixOutput{
		RotorThrust: throttleAvgMax / gain,
		TailThrust:  in.YawDir * yaw,
		PitchAction: pitch * rpScale,
		RollAction:  roll * rpScale,
	}, limit
}
