package motors

import (
	"math"

	"github.com/BryanSouza91/PulsingFC/internal/mathx"
)

// ThrustCurve converts between normalized thrust, actuator values and pulse
// widths for the two thrust channels.
type ThrustCurve struct {
	SpinMin float64
	SpinMax float64
	Expo    float64
	PWMMin  uint16
	PWMMax  uint16
}

// CurveFromParams builds the curve for the current parameter snapshot.
func CurveFromParams(p Params) ThrustCurve {
	return ThrustCurve{
		SpinMin: p.SpinMin,
		SpinMax: p.SpinMax,
		Expo:    p.ThrustExpo,
		PWMMin:  p.PWMMin,
		PWMMax:  p.PWMMax,
	}
}

// linearise inverts the expo thrust model, thrust = (1-e)*a + e*a^2.
func (c ThrustCurve) linearise(thrust float64) float64 {
	if math.Abs(c.Expo) < 0.001 {
		return thrust
	}
	e := c.Expo
	d := (1-e)*(1-e) + 4*e*thrust
	if d < 0 {
		d = 0
	}
	return mathx.Constrain(((e-1)+math.Sqrt(d))/(2*e), 0, 1)
}

// ThrustToActuator maps a thrust demand into the actuator domain between
// SpinMin and SpinMax.
func (c ThrustCurve) ThrustToActuator(thrust float64) float64 {
	thrust = mathx.Constrain(thrust, 0, 1)
	return c.SpinMin + (c.SpinMax-c.SpinMin)*c.linearise(thrust)
}

// GroundIdle is the actuator value the thrust channels settle at while
// armed on the ground, scaled by how far the spool-up has progressed.
func (c ThrustCurve) GroundIdle(spinUpRatio float64) float64 {
	return mathx.Constrain(spinUpRatio, 0, 1) * c.SpinMin
}

// OutputToPWM converts an actuator value to a pulse width.
func (c ThrustCurve) OutputToPWM(actuator float64) uint16 {
	actuator = mathx.Constrain(actuator, 0, 1)
	span := float64(c.PWMMax) - float64(c.PWMMin)
	return uint16(math.Round(float64(c.PWMMin) + span*actuator))
}
