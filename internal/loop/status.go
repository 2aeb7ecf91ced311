package loop

import (
	"sync"

	"github.com/BryanSouza91/PulsingFC/internal/motors"
)

// Status is the view of the loop published after every tick.
type Status struct {
	Tick    uint64              `json:"tick"`
	Phase   string              `json:"phase"`
	Limits  motors.LimitFlags   `json:"limits"`
	Mixed   motors.MixOutput    `json:"mixed"`
	Rotor   float64             `json:"rotor_actuator"`
	Tail    float64             `json:"tail_actuator"`
	Mask    uint32              `json:"motor_mask"`
	Layout  motors.Layout       `json:"layout"`
	Testing bool                `json:"testing"`
	LinkOK  bool                `json:"link_ok"`
	Demand  motors.ThrustDemand `json:"demand"`
}

// StatusBoard is the mutex-guarded hand-off between the loop goroutine and
// readers such as the bench server.
type StatusBoard struct {
	mu     sync.Mutex
	status Status
}

func (b *StatusBoard) Publish(s Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = s
}

func (b *StatusBoard) Get() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}
