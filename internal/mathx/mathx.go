// Package mathx holds the small numeric helpers shared by the mixer,
// the receiver mapping and the rate controller.
package mathx

import "golang.org/x/exp/constraints"

// Constrain clamps value into [lo, hi].
func Constrain[T constraints.Integer | constraints.Float](value, lo, hi T) T {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// MapRange maps a value from one range to another. The result is not clamped.
func MapRange[T constraints.Float](value, fromMin, fromMax, toMin, toMax T) T {
	return (value-fromMin)/(fromMax-fromMin)*(toMax-toMin) + toMin
}

// Abs returns the absolute value of a float.
func Abs[T constraints.Float](v T) T {
	if v < 0 {
		return -v
	}
	return v
}
