package motors

import "github.com/golang/geo/r3"

// FeedForward contributes roll, pitch and yaw bias from the body rates.
// The returned vector is added to the demand feed-forward terms (X roll,
// Y pitch, Z yaw) before mixing.
type FeedForward interface {
	Contribution(rates r3.Vector, p Params) r3.Vector
}

// ZeroFeedForward is the default strategy and contributes nothing.
type ZeroFeedForward struct{}

func (ZeroFeedForward) Contribution(r3.Vector, Params) r3.Vector { return r3.Vector{} }
