// Package observability sets up logging and the prometheus metrics of the
// output loop.
package observability

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/BryanSouza91/PulsingFC/internal/hal"
	"github.com/BryanSouza91/PulsingFC/internal/motors"
)

var (
	registerOnce sync.Once

	ticks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pulsingfc",
			Subsystem: "loop",
			Name:      "ticks_total",
			Help:      "Control loop ticks run.",
		},
	)
	limitEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pulsingfc",
			Subsystem: "mixer",
			Name:      "limit_total",
			Help:      "Ticks in which an axis was limited by the mixer.",
		},
		[]string{"axis"},
	)
	spoolPhase = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pulsingfc",
			Subsystem: "motors",
			Name:      "spool_phase",
			Help:      "Current spool phase (0 shut down .. 4 spooling down).",
		},
	)
	outputPWM = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pulsingfc",
			Subsystem: "motors",
			Name:      "output_pwm",
			Help:      "Last pulse width written per output channel.",
		},
		[]string{"channel"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ticks, limitEvents, spoolPhase, outputPWM)
	})
}

// RecordTick counts one loop tick with its phase and limit flags.
func RecordTick(phase motors.SpoolPhase, limit motors.LimitFlags) {
	RegisterMetrics()
	ticks.Inc()
	spoolPhase.Set(float64(phase))
	for axis, hit := range map[string]bool{
		"roll":           limit.Roll,
		"pitch":          limit.Pitch,
		"yaw":            limit.Yaw,
		"throttle_lower": limit.ThrottleLower,
		"throttle_upper": limit.ThrottleUpper,
	} {
		if hit {
			limitEvents.WithLabelValues(axis).Inc()
		}
	}
}

// PWMGauge is a motors.Writer that mirrors pulse widths into the
// output_pwm gauge. Angle writes are recorded as their pulse width.
type PWMGauge struct {
	ranges map[uint8]uint16
}

func NewPWMGauge() *PWMGauge {
	RegisterMetrics()
	return &PWMGauge{ranges: make(map[uint8]uint16)}
}

func (g *PWMGauge) Write(ch uint8, pwm uint16) {
	outputPWM.WithLabelValues(strconv.Itoa(int(ch))).Set(float64(pwm))
}

func (g *PWMGauge) WriteAngle(ch uint8, angle int16) {
	pwm := hal.AngleToPWM(angle, g.ranges[ch])
	outputPWM.WithLabelValues(strconv.Itoa(int(ch))).Set(float64(pwm))
}

func (g *PWMGauge) SetFreq(uint32, uint16) {}

func (g *PWMGauge) SetAngleRange(ch uint8, rng uint16) {
	g.ranges[ch] = rng
}
