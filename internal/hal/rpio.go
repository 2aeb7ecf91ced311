package hal

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/rs/zerolog"
	"github.com/stianeikeland/go-rpio/v4"
)

// dutyCycleLen is the PWM cycle length in clock ticks. The PWM clock runs at
// hz*dutyCycleLen so one tick is 1/dutyCycleLen of a period.
const dutyCycleLen = 20000

// DefaultServoHz is the rate the RPIO clock starts at.
const DefaultServoHz = 50

// pwmPin is the subset of rpio.Pin the writer uses.
type pwmPin interface {
	Mode(mode rpio.Mode)
	Freq(freq int)
	DutyCycle(dutyLen, cycleLen uint32)
}

// pwmChannels maps the BCM pins that can carry hardware PWM onto the two
// PWM channels of the SoC. Pins on the same channel always show the same duty.
var pwmChannels = map[uint8]int{
	12: 0, 18: 0, 40: 0,
	13: 1, 19: 1, 41: 1, 45: 1,
}

var (
	ErrNotPWMPin = errors.New("pin has no hardware pwm")
	ErrSharedPWM = errors.New("pins share a hardware pwm channel")
)

// ValidatePins checks an output to BCM pin map. Every output needs a
// hardware PWM pin of its own channel, so at most two outputs can be mapped.
func ValidatePins(pins map[uint8]uint8) error {
	owner := make(map[int]uint8, 2)
	for _, ch := range slices.Sorted(maps.Keys(pins)) {
		bcm := pins[ch]
		pwm, ok := pwmChannels[bcm]
		if !ok {
			return fmt.Errorf("%w: output %d on BCM %d", ErrNotPWMPin, ch, bcm)
		}
		if prev, taken := owner[pwm]; taken {
			return fmt.Errorf("%w: outputs %d and %d both on PWM%d", ErrSharedPWM, prev, ch, pwm)
		}
		owner[pwm] = ch
	}
	return nil
}

type rpioChannel struct {
	pin        pwmPin
	angleRange uint16
}

// RPIOWriter drives Raspberry Pi hardware PWM pins. Output channels are
// mapped onto BCM pin numbers; writes to unmapped channels are dropped.
// Both PWM channels run off one clock, so the writer has a single rate.
type RPIOWriter struct {
	channels map[uint8]*rpioChannel
	hz       uint16
	log      zerolog.Logger
}

// OpenRPIO maps /dev/gpiomem and puts every mapped pin into PWM mode.
func OpenRPIO(pins map[uint8]uint8, log zerolog.Logger) (*RPIOWriter, error) {
	if err := ValidatePins(pins); err != nil {
		return nil, err
	}
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}
	pwmPins := make(map[uint8]pwmPin, len(pins))
	for ch, bcm := range pins {
		pwmPins[ch] = rpio.Pin(bcm)
	}
	return newRPIOWriter(pwmPins, log), nil
}

func newRPIOWriter(pins map[uint8]pwmPin, log zerolog.Logger) *RPIOWriter {
	w := &RPIOWriter{
		channels: make(map[uint8]*rpioChannel, len(pins)),
		hz:       DefaultServoHz,
		log:      log.With().Str("component", "rpio").Logger(),
	}
	for ch, pin := range pins {
		pin.Mode(rpio.Pwm)
		pin.Freq(DefaultServoHz * dutyCycleLen)
		w.channels[ch] = &rpioChannel{pin: pin}
	}
	return w
}

// Close releases the gpio mapping.
func (w *RPIOWriter) Close() error {
	return rpio.Close()
}

func (w *RPIOWriter) Write(ch uint8, pwm uint16) {
	c, ok := w.channels[ch]
	if !ok {
		return
	}
	c.pin.DutyCycle(dutyForPulse(pwm, w.hz), dutyCycleLen)
}

func (w *RPIOWriter) WriteAngle(ch uint8, angle int16) {
	c, ok := w.channels[ch]
	if !ok {
		return
	}
	c.pin.DutyCycle(dutyForPulse(AngleToPWM(angle, c.angleRange), w.hz), dutyCycleLen)
}

// SetFreq changes the shared clock when mask selects any mapped output.
// Mapped outputs outside mask follow the new rate too.
func (w *RPIOWriter) SetFreq(mask uint32, hz uint16) {
	if hz == 0 {
		return
	}
	var hit bool
	for ch := range w.channels {
		if mask&(1<<ch) != 0 {
			hit = true
		}
	}
	if !hit || hz == w.hz {
		return
	}
	w.hz = hz
	for ch, c := range w.channels {
		c.pin.Freq(int(hz) * dutyCycleLen)
		if mask&(1<<ch) == 0 {
			w.log.Warn().Uint8("ch", ch).Uint16("hz", hz).Msg("output follows shared pwm clock")
		}
	}
	w.log.Debug().Str("mask", maskString(mask)).Uint16("hz", hz).Msg("pwm rate")
}

func (w *RPIOWriter) SetAngleRange(ch uint8, rng uint16) {
	if c, ok := w.channels[ch]; ok {
		c.angleRange = rng
	}
}

// dutyForPulse converts a pulse width in microseconds to duty ticks at hz.
func dutyForPulse(pulseUS, hz uint16) uint32 {
	usPerCycle := uint64(1_000_000) / uint64(hz)
	duty := uint64(pulseUS) * dutyCycleLen / usPerCycle
	if duty > dutyCycleLen {
		duty = dutyCycleLen
	}
	return uint32(duty)
}
