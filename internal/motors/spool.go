package motors

// SpoolPhase is the externally driven motor spool state. The output stage
// only reacts to it; transitions are owned by the arming logic.
type SpoolPhase int

const (
	ShutDown          SpoolPhase = iota // all outputs at minimum
	GroundIdle                          // armed, spinning at ground idle
	SpoolingUp                          // ramping up to full authority
	ThrottleUnlimited                   // full authority
	SpoolingDown                        // ramping back down to ground idle
)

func (s SpoolPhase) String() string {
	switch s {
	case ShutDown:
		return "shut_down"
	case GroundIdle:
		return "ground_idle"
	case SpoolingUp:
		return "spooling_up"
	case ThrottleUnlimited:
		return "throttle_unlimited"
	case SpoolingDown:
		return "spooling_down"
	default:
		return "unknown"
	}
}

// Mixing reports whether the phase drives the outputs from the mixer.
func (s SpoolPhase) Mixing() bool {
	return s == SpoolingUp || s == ThrottleUnlimited || s == SpoolingDown
}
