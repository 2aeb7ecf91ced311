package motors

import (
	"errors"
	"fmt"
)

// ServoInputRange is the angle range the gimbal channels are configured
// with. Gimbal actions in [-1, 1] are scaled by it.
const ServoInputRange = 4500

// maxChannels is the width of the output mask.
const maxChannels = 32

// ErrInvalidLayout is returned when a channel layout cannot be bound.
var ErrInvalidLayout = errors.New("invalid channel layout")

// Role is one of the four logical outputs of the frame.
type Role int

const (
	RoleRotor Role = iota
	RolePitchGimbal
	RoleRollGimbal
	RoleTail
	numRoles
)

func (r Role) String() string {
	switch r {
	case RoleRotor:
		return "rotor"
	case RolePitchGimbal:
		return "pitch_gimbal"
	case RoleRollGimbal:
		return "roll_gimbal"
	case RoleTail:
		return "tail"
	default:
		return "unknown"
	}
}

// Layout binds each role to a physical output channel index.
type Layout struct {
	Rotor       uint8
	PitchGimbal uint8
	RollGimbal  uint8
	Tail        uint8
}

// DefaultLayout maps the roles to the first four outputs in sequence order.
func DefaultLayout() Layout {
	return Layout{Rotor: 0, PitchGimbal: 1, RollGimbal: 2, Tail: 3}
}

// Channel returns the physical channel bound to a role.
func (l Layout) Channel(r Role) uint8 {
	switch r {
	case RolePitchGimbal:
		return l.PitchGimbal
	case RoleRollGimbal:
		return l.RollGimbal
	case RoleTail:
		return l.Tail
	default:
		return l.Rotor
	}
}

// Validate checks the channels are distinct and fit the output mask.
func (l Layout) Validate() error {
	seen := make(map[uint8]Role, numRoles)
	for r := RoleRotor; r < numRoles; r++ {
		ch := l.Channel(r)
		if ch >= maxChannels {
			return fmt.Errorf("%w: %s channel %d out of range", ErrInvalidLayout, r, ch)
		}
		if other, ok := seen[ch]; ok {
			return fmt.Errorf("%w: %s and %s share channel %d", ErrInvalidLayout, other, r, ch)
		}
		seen[ch] = r
	}
	return nil
}

// ThrustMask is the bitset of the two thrust channels.
func (l Layout) ThrustMask() uint32 {
	return 1<<l.Rotor | 1<<l.Tail
}

// FrameClass identifies the motor frame a mixer was asked to drive.
type FrameClass int

const (
	FrameUndefined FrameClass = iota
	FrameQuad
	FrameHexa
	FrameCoax
	FramePulsing
)

func (f FrameClass) String() string {
	switch f {
	case FrameQuad:
		return "quad"
	case FrameHexa:
		return "hexa"
	case FrameCoax:
		return "coax"
	case FramePulsing:
		return "pulsing"
	default:
		return "undefined"
	}
}

// ParseFrameClass is the inverse of FrameClass.String.
func ParseFrameClass(s string) (FrameClass, bool) {
	for f := FrameUndefined; f <= FramePulsing; f++ {
		if f.String() == s {
			return f, true
		}
	}
	return FrameUndefined, false
}
