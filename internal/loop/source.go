package loop

import (
	"time"

	"github.com/BryanSouza91/PulsingFC/internal/motors"
	"github.com/BryanSouza91/PulsingFC/internal/rx"
)

// DemandSource supplies the stick demand and arm switch each tick. ok is
// false when the link is lost; the loop then disarms.
type DemandSource interface {
	Demand(now time.Time) (d motors.ThrustDemand, armed, ok bool)
}

// GainProvider supplies the compensation gain. It must be positive.
type GainProvider interface {
	CompensationGain() float64
}

// UnityGain applies no compensation.
type UnityGain struct{}

func (UnityGain) CompensationGain() float64 { return 1 }

// ReceiverDemand reads sticks from an RC receiver.
type ReceiverDemand struct {
	Receiver *rx.Receiver
	Sticks   rx.Sticks
}

func (r ReceiverDemand) Demand(now time.Time) (motors.ThrustDemand, bool, bool) {
	if r.Receiver.Stale(now) {
		return motors.ThrustDemand{}, false, false
	}
	ch, _ := r.Receiver.Channels()
	return r.Sticks.Demand(ch), rx.Armed(ch), true
}

// HoverDemand is a centred stick at a fixed throttle. The loop uses it when
// no receiver is configured. It reports disarmed unless Armed is set, which
// leaves the motors shut down and open to bench tests.
type HoverDemand struct {
	Throttle float64
	Armed    bool
}

func (h HoverDemand) Demand(time.Time) (motors.ThrustDemand, bool, bool) {
	return motors.ThrustDemand{Throttle: h.Throttle}, h.Armed, true
}
