package rx

import (
	"github.com/BryanSouza91/PulsingFC/internal/mathx"
	"github.com/BryanSouza91/PulsingFC/internal/motors"
)

// Channel mapping, zero based.
const (
	AileronCh  = 0
	ElevatorCh = 1
	ThrottleCh = 2
	RudderCh   = 3
	ArmCh      = 4
)

// HighRxValue is the switch threshold for the arm channel.
const HighRxValue = 1800

// Sticks converts channel values into stick positions: roll, pitch and yaw
// in [-1, 1], throttle in [0, 1].
type Sticks struct {
	Deadband uint16
}

// axis maps a centred channel to [-1, 1], snapping the deadband to centre.
func (s Sticks) axis(raw uint16) float64 {
	v := float64(raw)
	if v > float64(NeutralRxValue-s.Deadband) && v < float64(NeutralRxValue+s.Deadband) {
		v = NeutralRxValue
	}
	v = mathx.Constrain(v, MinRxValue, MaxRxValue)
	return mathx.MapRange(v, MinRxValue, MaxRxValue, -1, 1)
}

// Demand builds the thrust demand for one frame. Feed-forward terms are
// left at zero.
func (s Sticks) Demand(ch Channels) motors.ThrustDemand {
	throttle := mathx.Constrain(float64(ch[ThrottleCh]), MinRxValue, MaxRxValue)
	return motors.ThrustDemand{
		Roll:     s.axis(ch[AileronCh]),
		Pitch:    s.axis(ch[ElevatorCh]),
		Yaw:      s.axis(ch[RudderCh]),
		Throttle: mathx.MapRange(throttle, MinRxValue, MaxRxValue, 0, 1),
	}
}

// Armed reports the arm switch position.
func Armed(ch Channels) bool {
	return ch[ArmCh] > HighRxValue
}
