package motors

// LimitFlags records which control axes were clamped during the last
// mixing pass. Upstream controllers read them to stop integrating into a
// saturated output.
type LimitFlags struct {
	Roll          bool
	Pitch         bool
	Yaw           bool
	ThrottleLower bool
	ThrottleUpper bool
}

// Any reports whether at least one axis is limited.
func (l LimitFlags) Any() bool {
	return l.Roll || l.Pitch || l.Yaw || l.ThrottleLower || l.ThrottleUpper
}

// allLimited is reported while the rotor has no authority (shut down or
// idling on the ground).
func allLimited() LimitFlags {
	return LimitFlags{Roll: true, Pitch: true, Yaw: true, ThrottleLower: true, ThrottleUpper: true}
}
