// Package loop runs the fixed-rate control loop that owns the output stage.
// It is the single writer of the motors; other goroutines reach it through
// the test command channel and the status board.
package loop

import (
	"context"
	"errors"
	"time"

	"github.com/golang/geo/r3"
	"github.com/rs/zerolog"

	"github.com/BryanSouza91/PulsingFC/internal/control"
	"github.com/BryanSouza91/PulsingFC/internal/imu"
	"github.com/BryanSouza91/PulsingFC/internal/motors"
	"github.com/BryanSouza91/PulsingFC/internal/observability"
)

// ErrArmed is returned for a direct-drive test requested while the output
// stage is not shut down.
var ErrArmed = errors.New("loop: motor test refused while armed")

// MaxTestDuration bounds a single direct-drive test.
const MaxTestDuration = 10 * time.Second

// throttleUpThreshold is the stick throttle that starts the spool up from
// ground idle.
const throttleUpThreshold = 0.05

// throttleFilterTC is the time constant of the average throttle filter, in
// seconds.
const throttleFilterTC = 0.5

// TestCommand asks the loop to drive one output directly. The loop answers on
// Reply, which must be buffered.
type TestCommand struct {
	Seq      uint8
	PWM      uint16
	Duration time.Duration
	Reply    chan error
}

// ErrBadSequence is returned when a test names no output.
var ErrBadSequence = errors.New("loop: test sequence out of range")

// Indicator shows the loop state to the operator, e.g. a status LED.
type Indicator interface {
	Show(phase motors.SpoolPhase, linkOK bool, now time.Time)
}

// Options configures a Loop.
type Options struct {
	Motors    *motors.Pulsing
	Demand    DemandSource
	Rates     imu.RateProvider
	Gain      GainProvider
	LoopRate  float64
	Tests     <-chan TestCommand
	Status    *StatusBoard
	Indicator Indicator // optional
	Logger    zerolog.Logger
}

// Loop sequences spool phases, runs the rate controller and drives the
// output stage once per tick.
type Loop struct {
	motors *motors.Pulsing
	demand DemandSource
	rates  imu.RateProvider
	gain   GainProvider
	ctrl   *control.RateController
	spool  *Spooler
	tests  <-chan TestCommand
	status *StatusBoard
	led    Indicator
	log    zerolog.Logger

	dt        float64
	tick      uint64
	avgMax    float64
	testUntil time.Time
	linkOK    bool
}

func New(opts Options) *Loop {
	if opts.Rates == nil {
		opts.Rates = imu.Still{}
	}
	if opts.Gain == nil {
		opts.Gain = UnityGain{}
	}
	if opts.Status == nil {
		opts.Status = &StatusBoard{}
	}
	if opts.LoopRate <= 0 {
		opts.LoopRate = 400
	}
	return &Loop{
		motors: opts.Motors,
		demand: opts.Demand,
		rates:  opts.Rates,
		gain:   opts.Gain,
		ctrl:   control.NewRateController(),
		spool:  NewSpooler(opts.LoopRate),
		tests:  opts.Tests,
		status: opts.Status,
		led:    opts.Indicator,
		log:    opts.Logger.With().Str("component", "loop").Logger(),
		dt:     1 / opts.LoopRate,
	}
}

// Run ticks until ctx is cancelled, then shuts the outputs down.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(l.dt * float64(time.Second)))
	defer ticker.Stop()

	l.log.Info().Float64("rate_hz", 1/l.dt).Msg("control loop started")
	for {
		select {
		case <-ctx.Done():
			l.motors.Output(motors.TickInput{Phase: motors.ShutDown})
			l.log.Info().Uint64("ticks", l.tick).Msg("control loop stopped")
			return nil
		case now := <-ticker.C:
			l.Tick(now)
		}
	}
}

// Tick runs one iteration at time now.
func (l *Loop) Tick(now time.Time) {
	l.tick++
	l.drainTests(now)

	stick, armed, ok := l.demand.Demand(now)
	if ok != l.linkOK {
		if ok {
			l.log.Info().Msg("receiver link up")
		} else {
			l.log.Warn().Msg("receiver link lost, disarming")
		}
		l.linkOK = ok
	}
	if !ok || l.testing(now) {
		armed = false
	}

	phase := l.spool.Update(armed, stick.Throttle > throttleUpThreshold)
	if !phase.Mixing() {
		l.ctrl.Reset()
	}

	rates, err := l.rates.Rates()
	if err != nil {
		l.log.Error().Err(err).Msg("gyro read failed")
		rates = r3.Vector{}
	}

	alpha := l.dt / (throttleFilterTC + l.dt)
	l.avgMax += alpha * (stick.Throttle - l.avgMax)

	d := l.ctrl.Update(stick, rates, l.motors.Limits(), l.dt)
	if !l.testing(now) {
		l.motors.Output(motors.TickInput{
			Phase:             phase,
			Demand:            d,
			Gain:              l.gain.CompensationGain(),
			ThrottleAvgMax:    l.avgMax,
			ThrottleThrustMax: l.spool.ThrottleThrustMax(),
			SpinUpRatio:       l.spool.SpinUpRatio(),
			Rates:             rates,
		})
	}
	observability.RecordTick(phase, l.motors.Limits())
	if l.led != nil {
		l.led.Show(phase, ok, now)
	}

	l.status.Publish(Status{
		Tick:    l.tick,
		Phase:   phase.String(),
		Limits:  l.motors.Limits(),
		Mixed:   l.motors.Mixed(),
		Rotor:   l.motors.Actuator(motors.RoleRotor),
		Tail:    l.motors.Actuator(motors.RoleTail),
		Mask:    l.motors.MotorMask(),
		Layout:  l.motors.Layout(),
		Testing: l.testing(now),
		LinkOK:  ok,
		Demand:  d,
	})
}

func (l *Loop) testing(now time.Time) bool {
	return now.Before(l.testUntil)
}

// drainTests runs every queued test command without blocking.
func (l *Loop) drainTests(now time.Time) {
	for {
		select {
		case cmd := <-l.tests:
			cmd.Reply <- l.runTest(now, cmd)
		default:
			return
		}
	}
}

func (l *Loop) runTest(now time.Time, cmd TestCommand) error {
	if l.spool.Phase() != motors.ShutDown {
		return ErrArmed
	}
	if !l.motors.OutputTestSeq(cmd.Seq, cmd.PWM) {
		return ErrBadSequence
	}
	d := cmd.Duration
	if d <= 0 || d > MaxTestDuration {
		d = MaxTestDuration
	}
	l.testUntil = now.Add(d)
	l.log.Info().Uint8("seq", cmd.Seq).Uint16("pwm", cmd.PWM).Dur("duration", d).Msg("motor test")
	return nil
}
