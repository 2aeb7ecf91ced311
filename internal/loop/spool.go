package loop

import (
	"github.com/BryanSouza91/PulsingFC/internal/mathx"
	"github.com/BryanSouza91/PulsingFC/internal/motors"
)

// SpinUpTime is how long each spool transition takes, in seconds.
const SpinUpTime = 0.5

// Spooler is a minimal arming sequencer for bench and simulation runs. It
// walks the spool phases one step per tick toward armed flight or shutdown.
type Spooler struct {
	phase       motors.SpoolPhase
	spinUpRatio float64
	thrustMax   float64
	step        float64
}

func NewSpooler(loopRate float64) *Spooler {
	step := 1.0
	if loopRate > 0 {
		step = 1 / (SpinUpTime * loopRate)
	}
	return &Spooler{phase: motors.ShutDown, step: step}
}

// Update advances one tick. throttleUp is whether the pilot is asking for
// thrust; the rotor stays at ground idle until then.
func (s *Spooler) Update(armed, throttleUp bool) motors.SpoolPhase {
	switch s.phase {
	case motors.ShutDown:
		s.spinUpRatio, s.thrustMax = 0, 0
		if armed {
			s.phase = motors.GroundIdle
		}
	case motors.GroundIdle:
		if !armed {
			s.spinUpRatio -= s.step
			if s.spinUpRatio <= 0 {
				s.phase = motors.ShutDown
			}
			break
		}
		s.spinUpRatio = mathx.Constrain(s.spinUpRatio+s.step, 0, 1)
		if s.spinUpRatio >= 1 && throttleUp {
			s.phase = motors.SpoolingUp
		}
	case motors.SpoolingUp:
		if !armed {
			s.phase = motors.SpoolingDown
			break
		}
		s.thrustMax += s.step
		if s.thrustMax >= 1 {
			s.thrustMax = 1
			s.phase = motors.ThrottleUnlimited
		}
	case motors.ThrottleUnlimited:
		s.thrustMax = 1
		if !armed {
			s.phase = motors.SpoolingDown
		}
	case motors.SpoolingDown:
		if armed {
			s.phase = motors.SpoolingUp
			break
		}
		s.thrustMax -= s.step
		if s.thrustMax <= 0 {
			s.thrustMax = 0
			s.spinUpRatio = 1
			s.phase = motors.GroundIdle
		}
	}
	s.spinUpRatio = mathx.Constrain(s.spinUpRatio, 0, 1)
	return s.phase
}

func (s *Spooler) Phase() motors.SpoolPhase { return s.phase }

// SpinUpRatio is the ground idle progress in [0, 1].
func (s *Spooler) SpinUpRatio() float64 { return s.spinUpRatio }

// ThrottleThrustMax is the throttle ceiling for the current phase.
func (s *Spooler) ThrottleThrustMax() float64 { return s.thrustMax }
