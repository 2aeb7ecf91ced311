package hal

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stianeikeland/go-rpio/v4"
	"github.com/stretchr/testify/require"

	"github.com/BryanSouza91/PulsingFC/internal/motors"
)

type fakePin struct {
	mode     rpio.Mode
	freq     int
	duty     uint32
	cycleLen uint32
}

func (p *fakePin) Mode(mode rpio.Mode)                { p.mode = mode }
func (p *fakePin) Freq(freq int)                      { p.freq = freq }
func (p *fakePin) DutyCycle(dutyLen, cycleLen uint32) { p.duty, p.cycleLen = dutyLen, cycleLen }

func TestAngleToPWM(t *testing.T) {
	require.Equal(t, uint16(1500), AngleToPWM(0, 4500))
	require.Equal(t, uint16(2000), AngleToPWM(4500, 4500))
	require.Equal(t, uint16(1000), AngleToPWM(-4500, 4500))
	require.Equal(t, uint16(1250), AngleToPWM(-2250, 0))
	require.Equal(t, uint16(2000), AngleToPWM(9000, 4500))
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.SetAngleRange(1, 4500)
	r.WriteAngle(1, 2250)
	r.Write(0, 1200)
	r.SetFreq(1<<0|1<<3, 490)

	require.Equal(t, Output{PWM: 1200, Hz: 490}, r.Output(0))
	require.Equal(t, Output{PWM: 1750, Angle: 2250, IsAngle: true, AngleRange: 4500}, r.Output(1))
	require.Equal(t, uint16(490), r.Output(3).Hz)
	require.Equal(t, uint64(2), r.Writes())
	require.Len(t, r.Snapshot(), 3)
}

func TestRecorderDrivenByPulsing(t *testing.T) {
	r := NewRecorder()
	p, err := motors.NewPulsing(motors.Options{Layout: motors.DefaultLayout(), Writer: Multi{r, NewLogWriter(zerolog.Nop())}})
	require.NoError(t, err)
	p.SetUpdateRate(400)
	p.Output(motors.TickInput{Phase: motors.ShutDown})

	require.Equal(t, uint16(1000), r.Output(0).PWM)
	require.Equal(t, uint16(1000), r.Output(3).PWM)
	require.Equal(t, uint16(1500), r.Output(1).PWM)
	require.Equal(t, uint16(1500), r.Output(2).PWM)
	require.True(t, r.Output(1).IsAngle)
	require.Equal(t, uint16(400), r.Output(0).Hz)
	require.Zero(t, r.Output(1).Hz)
}

func TestRPIOWriter(t *testing.T) {
	rotor, gimbal := &fakePin{}, &fakePin{}
	w := newRPIOWriter(map[uint8]pwmPin{0: rotor, 1: gimbal}, zerolog.Nop())
	require.Equal(t, rpio.Pwm, rotor.mode)
	require.Equal(t, DefaultServoHz*dutyCycleLen, rotor.freq)

	// one clock drives both channels
	w.SetFreq(1<<0, 400)
	require.Equal(t, 400*dutyCycleLen, rotor.freq)
	require.Equal(t, 400*dutyCycleLen, gimbal.freq)

	// 1250us at 400Hz is half of the 2500us period
	w.Write(0, 1250)
	require.Equal(t, uint32(dutyCycleLen/2), rotor.duty)
	require.Equal(t, uint32(dutyCycleLen), rotor.cycleLen)

	// the servo pulse is timed against the shared 400Hz period
	w.SetAngleRange(1, 4500)
	w.WriteAngle(1, 0)
	require.Equal(t, uint32(12000), gimbal.duty)

	w.Write(9, 1500)
}

func TestRPIOWriterIgnoresUnmappedRate(t *testing.T) {
	rotor := &fakePin{}
	w := newRPIOWriter(map[uint8]pwmPin{0: rotor}, zerolog.Nop())

	w.SetFreq(1<<3, 490)
	require.Equal(t, DefaultServoHz*dutyCycleLen, rotor.freq)

	// 1500us at 50Hz is 7.5% of the period
	w.Write(0, 1500)
	require.Equal(t, uint32(1500), rotor.duty)
}

func TestValidatePins(t *testing.T) {
	require.NoError(t, ValidatePins(nil))
	require.NoError(t, ValidatePins(map[uint8]uint8{0: 12, 3: 13}))
	require.NoError(t, ValidatePins(map[uint8]uint8{1: 18, 2: 19}))

	err := ValidatePins(map[uint8]uint8{0: 12, 1: 13, 2: 18, 3: 19})
	require.ErrorIs(t, err, ErrSharedPWM)
	require.ErrorContains(t, err, "outputs 0 and 2")

	require.ErrorIs(t, ValidatePins(map[uint8]uint8{0: 13, 1: 45}), ErrSharedPWM)
	require.ErrorIs(t, ValidatePins(map[uint8]uint8{0: 17}), ErrNotPWMPin)
}

func TestOpenRPIORejectsSharedChannel(t *testing.T) {
	_, err := OpenRPIO(map[uint8]uint8{0: 12, 1: 18}, zerolog.Nop())
	require.ErrorIs(t, err, ErrSharedPWM)
}

func TestMaskString(t *testing.T) {
	s := maskString(1<<0 | 1<<3)
	require.Len(t, s, 32)
	require.Equal(t, "1001", s[28:])
	require.Equal(t, "10000000000000000000000000000000", maskString(1<<31))
	require.Equal(t, strings.Repeat("0", 32), maskString(0))
}
