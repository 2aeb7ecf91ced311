// Package hal holds the signal-layer backends the output stage writes to.
package hal

import (
	"math"

	"github.com/BryanSouza91/PulsingFC/internal/mathx"
	"github.com/BryanSouza91/PulsingFC/internal/motors"
)

// Pulse widths for a servo at full negative and positive deflection.
const (
	MinPulseWidthUS = 1000
	MaxPulseWidthUS = 2000
)

// DefaultAngleRange is used for angle writes on a channel that was never
// given a range.
const DefaultAngleRange = motors.ServoInputRange

// AngleToPWM maps an angle in [-rng, rng] onto the servo pulse range.
func AngleToPWM(angle int16, rng uint16) uint16 {
	if rng == 0 {
		rng = DefaultAngleRange
	}
	a := mathx.Constrain(float64(angle), -float64(rng), float64(rng))
	us := mathx.MapRange(a, -float64(rng), float64(rng), MinPulseWidthUS, MaxPulseWidthUS)
	return uint16(math.Round(us))
}

// Multi fans every call out to several writers, in order.
type Multi []motors.Writer

func (m Multi) Write(ch uint8, pwm uint16) {
	for _, w := range m {
		w.Write(ch, pwm)
	}
}

func (m Multi) WriteAngle(ch uint8, angle int16) {
	for _, w := range m {
		w.WriteAngle(ch, angle)
	}
}

func (m Multi) SetFreq(mask uint32, hz uint16) {
	for _, w := range m {
		w.SetFreq(mask, hz)
	}
}

func (m Multi) SetAngleRange(ch uint8, rng uint16) {
	for _, w := range m {
		w.SetAngleRange(ch, rng)
	}
}
