package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BryanSouza91/PulsingFC/internal/hal"
	"github.com/BryanSouza91/PulsingFC/internal/motors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "airframe.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	path := writeConfig(t, `
name = "bench-rig"
frame = "pulsing"
loop_rate = 200
update_rate = 400
parent_mask = 256
imu_bus = "/dev/i2c-1"
bench_origins = ["http://bench.local:3000"]

[channels]
rotor = 4
tail = 7
pitch_gimbal = 5
roll_gimbal = 6

[output]
backend = "rpio"
status_led = 21

[output.pins]
rotor = 12
tail = 13

[receiver]
protocol = "CRSF"
device = "/dev/ttyAMA0"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "bench-rig", cfg.Name)
	require.Equal(t, motors.FramePulsing, cfg.Frame)
	require.Equal(t, 200.0, cfg.LoopRate)
	require.Equal(t, uint16(400), cfg.UpdateRate)
	require.Equal(t, uint32(256), cfg.ParentMask)
	require.Equal(t, "/dev/i2c-1", cfg.IMUBus)
	require.Equal(t, []string{"http://bench.local:3000"}, cfg.BenchOrigins)
	require.Equal(t, motors.Layout{Rotor: 4, PitchGimbal: 5, RollGimbal: 6, Tail: 7}, cfg.Layout)
	require.Equal(t, BackendRPIO, cfg.Output.Backend)
	require.Equal(t, map[uint8]uint8{4: 12, 7: 13}, cfg.Output.Pins)
	require.Equal(t, 21, cfg.Output.StatusLED)
	require.Equal(t, ProtocolCRSF, cfg.Receiver.Protocol)
	require.Equal(t, "/dev/ttyAMA0", cfg.Receiver.Device)
	require.Equal(t, uint16(20), cfg.Receiver.Deadband)
	require.Equal(t, "127.0.0.1:8090", cfg.BenchAddr)
}

func TestLoadMinimal(t *testing.T) {
	cfg, err := Load(writeConfig(t, `log_level = "debug"`))
	require.NoError(t, err)
	def := Default()
	require.Equal(t, def.Layout, cfg.Layout)
	require.Equal(t, def.LoopRate, cfg.LoopRate)
	require.Equal(t, -1, cfg.Output.StatusLED)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]string{
		"unknown frame":    `frame = "octa"`,
		"shared channel":   "[channels]\nrotor = 1\n",
		"zero loop rate":   `loop_rate = 0`,
		"unknown backend":  "[output]\nbackend = \"dshot\"\n",
		"rpio without pin": "[output]\nbackend = \"rpio\"\n",
		"rpio non-pwm pin": "[output]\nbackend = \"rpio\"\n[output.pins]\nrotor = 17\n[receiver]\nprotocol = \"ibus\"\ndevice = \"-\"\n",
		"unknown protocol": "[receiver]\nprotocol = \"sbus\"\n",
		"ibus without tty": "[receiver]\nprotocol = \"ibus\"\n",
		"bad toml":         `name = `,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestLoadSharedChannelIsLayoutError(t *testing.T) {
	_, err := Load(writeConfig(t, "[channels]\ntail = 0\n"))
	require.ErrorIs(t, err, motors.ErrInvalidLayout)
}

func TestShippedAirframe(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "airframe.toml"))
	require.NoError(t, err)
	require.Equal(t, motors.FramePulsing, cfg.Frame)
	require.Equal(t, motors.DefaultLayout(), cfg.Layout)
	require.Equal(t, map[uint8]uint8{0: 12, 3: 13}, cfg.Output.Pins)
	require.False(t, cfg.Receiver.HoverArm)
	require.NoError(t, hal.ValidatePins(cfg.Output.Pins))

	// the shipped pins stay usable on real hardware once armed
	cfg.Output.Backend = BackendRPIO
	cfg.Receiver.HoverArm = true
	require.NoError(t, Validate(cfg))
}

func TestRPIOPinsNeedOwnPWMChannel(t *testing.T) {
	_, err := Load(writeConfig(t, `
[output]
backend = "rpio"

[output.pins]
rotor = 12
tail = 13
pitch_gimbal = 18

[receiver]
protocol = "crsf"
device = "/dev/ttyAMA0"
`))
	require.ErrorIs(t, err, hal.ErrSharedPWM)
}

func TestRPIOWithoutReceiverNeedsHoverArm(t *testing.T) {
	body := `
[output]
backend = "rpio"

[output.pins]
rotor = 12
tail = 13
`
	_, err := Load(writeConfig(t, body))
	require.ErrorContains(t, err, "receiver.hover_arm")

	cfg, err := Load(writeConfig(t, body+"\n[receiver]\nhover_arm = true\n"))
	require.NoError(t, err)
	require.True(t, cfg.Receiver.HoverArm)
	require.Equal(t, ProtocolNone, cfg.Receiver.Protocol)

	// a flag can arm it after reading
	cfg, err = Read(writeConfig(t, body))
	require.NoError(t, err)
	require.Error(t, Validate(cfg))
	cfg.Receiver.HoverArm = true
	require.NoError(t, Validate(cfg))

	// without hardware outputs the hover demand may stay disarmed
	cfg, err = Load(writeConfig(t, "[receiver]\nprotocol = \"none\"\n"))
	require.NoError(t, err)
	require.False(t, cfg.Receiver.HoverArm)
}
