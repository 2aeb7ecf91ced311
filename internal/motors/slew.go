package motors

import "github.com/BryanSouza91/PulsingFC/internal/mathx"

// SlewLimiter bounds how far an actuator value may move in one tick.
type SlewLimiter struct {
	MaxStepUp   float64
	MaxStepDown float64
}

// NewSlewLimiter derives the per-tick steps from the full-range slew times
// and the loop rate in Hz. A non-positive time leaves that direction
// unlimited.
func NewSlewLimiter(upTime, downTime, loopRate float64) SlewLimiter {
	s := SlewLimiter{MaxStepUp: 1, MaxStepDown: 1}
	if upTime > 0 && loopRate > 0 {
		s.MaxStepUp = 1 / (upTime * loopRate)
	}
	if downTime > 0 && loopRate > 0 {
		s.MaxStepDown = 1 / (downTime * loopRate)
	}
	return s
}

// Step moves current toward target without overshooting it. Both the target
// and the result are held in [0, 1].
func (s SlewLimiter) Step(current, target float64) float64 {
	target = mathx.Constrain(target, 0, 1)
	next := mathx.Constrain(target, current-s.MaxStepDown, current+s.MaxStepUp)
	return mathx.Constrain(next, 0, 1)
}
