package motors

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/rs/zerolog"
)

// TickInput is everything the output stage consumes in one control-loop
// tick. All of it is owned by the caller.
type TickInput struct {
	Phase  SpoolPhase
	Demand ThrustDemand

	Gain              float64 // compensation gain, > 0
	ThrottleAvgMax    float64
	ThrottleThrustMax float64

	// SpinUpRatio scales the ground idle target while GroundIdle.
	SpinUpRatio float64

	// Rates are the latest body rates in rad/s, handed to the feed-forward.
	Rates r3.Vector
}

// Options configures a Pulsing output stage.
type Options struct {
	Layout      Layout
	Writer      Writer
	Params      ParamSource // defaults to DefaultParams
	FeedForward FeedForward // defaults to ZeroFeedForward
	LoopRate    float64     // control loop rate in Hz, used by the slew limiter
	ParentMask  uint32      // outputs claimed by the enclosing motor library
	Logger      *zerolog.Logger
}

// Pulsing drives the rotor, tail and gimbal outputs of a pulsing coaxial
// frame.
type Pulsing struct {
	layout   Layout
	out      Writer
	params   ParamSource
	ff       FeedForward
	loopRate float64
	mask     uint32
	log      zerolog.Logger

	initOK  bool
	speedHz uint16

	// rotor and tail actuator values, [0, 1]
	rotor float64
	tail  float64

	limit LimitFlags
	mixed MixOutput
}

// NewPulsing binds the layout and configures the gimbal channels as angle
// outputs. The output mask is fixed here.
func NewPulsing(opts Options) (*Pulsing, error) {
	if err := opts.Layout.Validate(); err != nil {
		return nil, err
	}
	if opts.Writer == nil {
		return nil, fmt.Errorf("pulsing: writer is required")
	}
	if opts.Params == nil {
		opts.Params = StaticParams(DefaultParams())
	}
	if opts.FeedForward == nil {
		opts.FeedForward = ZeroFeedForward{}
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "motors").Logger()
	}

	p := &Pulsing{
		layout:   opts.Layout,
		out:      opts.Writer,
		params:   opts.Params,
		ff:       opts.FeedForward,
		loopRate: opts.LoopRate,
		mask:     opts.Layout.ThrustMask() | opts.ParentMask,
		log:      logger,
	}

	// setup actuator scaling
	p.out.SetAngleRange(p.layout.PitchGimbal, ServoInputRange)
	p.out.SetAngleRange(p.layout.RollGimbal, ServoInputRange)
	return p, nil
}

// Init records whether the requested frame is the one this mixer drives.
// A false result is not fatal; the caller may try another mixer.
func (p *Pulsing) Init(frame FrameClass) bool {
	return p.SetFrameClassAndType(frame)
}

// SetFrameClassAndType re-evaluates initialisation for a new frame class.
func (p *Pulsing) SetFrameClassAndType(frame FrameClass) bool {
	p.initOK = frame == FramePulsing
	if !p.initOK {
		p.log.Warn().Stringer("frame", frame).Msg("frame class not handled by pulsing mixer")
	}
	return p.initOK
}

// InitialisedOK reports the result of the last Init.
func (p *Pulsing) InitialisedOK() bool { return p.initOK }

// SetUpdateRate sets the output rate of the two thrust channels. The gimbal
// channels are angle outputs and keep their own rate.
func (p *Pulsing) SetUpdateRate(hz uint16) {
	p.speedHz = hz
	p.out.SetFreq(p.layout.ThrustMask(), hz)
}

// UpdateRate returns the last requested thrust channel rate.
func (p *Pulsing) UpdateRate() uint16 { return p.speedHz }

// MotorMask returns the outputs claimed by this mixer so other outputs can
// avoid them.
func (p *Pulsing) MotorMask() uint32 { return p.mask }

// Layout returns the channel binding.
func (p *Pulsing) Layout() Layout { return p.layout }

// Limits returns the limit flags of the last tick.
func (p *Pulsing) Limits() LimitFlags { return p.limit }

// Mixed returns the mixer output of the last mixing tick.
func (p *Pulsing) Mixed() MixOutput { return p.mixed }

// Actuator returns the current actuator value of a thrust role. Gimbal
// roles carry no actuator state and report 0.
func (p *Pulsing) Actuator(r Role) float64 {
	switch r {
	case RoleRotor:
		return p.rotor
	case RoleTail:
		return p.tail
	default:
		return 0
	}
}

// outputPolicy writes the outputs for one spool phase.
type outputPolicy func(p *Pulsing, in TickInput, prm Params)

var policies = [...]outputPolicy{
	ShutDown:          (*Pulsing).outputShutDown,
	GroundIdle:        (*Pulsing).outputGroundIdle,
	SpoolingUp:        (*Pulsing).outputMixed,
	ThrottleUnlimited: (*Pulsing).outputMixed,
	SpoolingDown:      (*Pulsing).outputMixed,
}

// Output runs one tick: mix the demand if the phase has authority, then
// write all four outputs for the current spool phase.
func (p *Pulsing) Output(in TickInput) {
	prm := p.params.Params()

	policy := (*Pulsing).outputShutDown
	if in.Phase >= 0 && int(in.Phase) < len(policies) {
		policy = policies[in.Phase]
	}

	if in.Phase.Mixing() {
		p.mix(in, prm)
	} else {
		p.limit = allLimited()
	}
	policy(p, in, prm)
}

func (p *Pulsing) mix(in TickInput, prm Params) {
	if !(in.Gain > 0) {
		p.log.Warn().Float64("gain", in.Gain).Msg("non-positive compensation gain, using floor")
	}

	d := in.Demand
	ff := p.ff.Contribution(in.Rates, prm)
	d.RollFF += ff.X
	d.PitchFF += ff.Y
	d.YawFF += ff.Z

	p.mixed, p.limit = Mix(d, MixInput{
		Gain:              in.Gain,
		ThrottleAvgMax:    in.ThrottleAvgMax,
		ThrottleThrustMax: in.ThrottleThrustMax,
		YawDir:            prm.YawDir,
	})
}

func (p *Pulsing) outputShutDown(_ TickInput, prm Params) {
	curve := CurveFromParams(prm)
	p.rotor, p.tail = 0, 0
	p.out.Write(p.layout.Rotor, curve.OutputToPWM(0))
	p.out.Write(p.layout.Tail, curve.OutputToPWM(0))
	p.out.WriteAngle(p.layout.PitchGimbal, 0)
	p.out.WriteAngle(p.layout.RollGimbal, 0)
}

func (p *Pulsing) outputGroundIdle(in TickInput, prm Params) {
	curve := CurveFromParams(prm)
	slew := NewSlewLimiter(prm.SlewUpTime, prm.SlewDownTime, p.loopRate)
	idle := curve.GroundIdle(in.SpinUpRatio)

	p.out.WriteAngle(p.layout.PitchGimbal, 0)
	p.out.WriteAngle(p.layout.RollGimbal, 0)
	p.rotor = slew.Step(p.rotor, idle)
	p.tail = slew.Step(p.tail, idle)
	p.out.Write(p.layout.Rotor, curve.OutputToPWM(p.rotor))
	p.out.Write(p.layout.Tail, curve.OutputToPWM(p.tail))
}

func (p *Pulsing) outputMixed(_ TickInput, prm Params) {
	curve := CurveFromParams(prm)
	slew := NewSlewLimiter(prm.SlewUpTime, prm.SlewDownTime, p.loopRate)

	p.out.WriteAngle(p.layout.PitchGimbal, gimbalAngle(p.mixed.PitchAction))
	p.out.WriteAngle(p.layout.RollGimbal, gimbalAngle(p.mixed.RollAction))
	p.rotor = slew.Step(p.rotor, curve.ThrustToActuator(p.mixed.RotorThrust))
	p.tail = slew.Step(p.tail, curve.ThrustToActuator(p.mixed.TailThrust))
	p.out.Write(p.layout.Rotor, curve.OutputToPWM(p.rotor))
	p.out.Write(p.layout.Tail, curve.OutputToPWM(p.tail))
}

func gimbalAngle(action float64) int16 {
	return int16(math.Round(action * ServoInputRange))
}

// OutputTestSeq writes a raw pulse width straight to one output, bypassing
// the mixer and the spool phase. seq runs 1 to 4 in role order; anything
// else is ignored. Bench use only.
func (p *Pulsing) OutputTestSeq(seq uint8, pwm uint16) bool {
	if seq < 1 || seq > uint8(numRoles) {
		return false
	}
	p.out.Write(p.layout.Channel(Role(seq-1)), pwm)
	return true
}
