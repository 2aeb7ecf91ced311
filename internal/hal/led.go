package hal

import (
	"time"

	"github.com/stianeikeland/go-rpio/v4"

	"github.com/BryanSouza91/PulsingFC/internal/motors"
)

// LEDPattern is a blink pattern of the status LED.
type LEDPattern int

const (
	LEDOff LEDPattern = iota
	LEDOn
	LEDSlowFlash
	LEDFlash
	LEDFastFlash
)

// half periods
var ledToggle = [...]time.Duration{
	LEDSlowFlash: 500 * time.Millisecond,
	LEDFlash:     150 * time.Millisecond,
	LEDFastFlash: 50 * time.Millisecond,
}

type digitalPin interface {
	High()
	Low()
}

// StatusLED shows the spool phase on one GPIO pin: slow flash shut down,
// flash at ground idle, fast flash while spooling or without a receiver
// link, solid while flying.
type StatusLED struct {
	pin        digitalPin
	pattern    LEDPattern
	isOn       bool
	lastToggle time.Time
}

// NewRPIOStatusLED drives the LED on a BCM pin. rpio must already be open.
func NewRPIOStatusLED(bcm uint8) *StatusLED {
	pin := rpio.Pin(bcm)
	pin.Output()
	return newStatusLED(pin)
}

func newStatusLED(pin digitalPin) *StatusLED {
	pin.Low()
	return &StatusLED{pin: pin}
}

// PatternFor picks the pattern for a phase and link state.
func PatternFor(phase motors.SpoolPhase, linkOK bool) LEDPattern {
	if !linkOK {
		return LEDFastFlash
	}
	switch phase {
	case motors.ShutDown:
		return LEDSlowFlash
	case motors.GroundIdle:
		return LEDFlash
	case motors.ThrottleUnlimited:
		return LEDOn
	default:
		return LEDFastFlash
	}
}

// Show updates the LED; call it once per loop tick.
func (l *StatusLED) Show(phase motors.SpoolPhase, linkOK bool, now time.Time) {
	p := PatternFor(phase, linkOK)
	if p != l.pattern {
		l.pattern = p
		l.lastToggle = now
	}

	switch l.pattern {
	case LEDOff:
		l.set(false)
	case LEDOn:
		l.set(true)
	default:
		if now.Sub(l.lastToggle) >= ledToggle[l.pattern] {
			l.set(!l.isOn)
			l.lastToggle = now
		}
	}
}

func (l *StatusLED) set(on bool) {
	if on == l.isOn {
		return
	}
	if on {
		l.pin.High()
	} else {
		l.pin.Low()
	}
	l.isOn = on
}

func (l *StatusLED) Pattern() LEDPattern { return l.pattern }
