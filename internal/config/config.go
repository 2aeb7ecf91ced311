// Package config loads the airframe file: channel binding, loop and output
// rates, the output backend and the bench surface.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/BryanSouza91/PulsingFC/internal/hal"
	"github.com/BryanSouza91/PulsingFC/internal/motors"
)

const (
	BackendLog  = "log"
	BackendRPIO = "rpio"

	ProtocolNone = "none"
	ProtocolIBus = "ibus"
	ProtocolCRSF = "crsf"
)

// Config is the resolved airframe configuration.
type Config struct {
	Name       string
	Frame      motors.FrameClass
	Layout     motors.Layout
	LoopRate   float64 // Hz
	UpdateRate uint16  // Hz, thrust channels
	ParentMask uint32

	Output   OutputConfig
	Receiver ReceiverConfig

	ParamsFile string
	IMUBus     string // i2c device of the gyro, empty for none
	LogLevel   string

	BenchAddr    string
	BenchOrigins []string
}

// OutputConfig selects the signal backend. Pins maps output channels to BCM
// pin numbers for the rpio backend; StatusLED is a BCM pin or -1.
type OutputConfig struct {
	Backend   string
	Pins      map[uint8]uint8
	StatusLED int
}

// ReceiverConfig selects the RC protocol feeding the demand. Device is the
// serial port the receiver is wired to, or "-" for stdin. HoverArm arms the
// built-in hover demand used when Protocol is none; it stays disarmed
// otherwise.
type ReceiverConfig struct {
	Protocol string
	Device   string
	Deadband uint16
	HoverArm bool
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Name:       "pulsingfc",
		Frame:      motors.FramePulsing,
		Layout:     motors.DefaultLayout(),
		LoopRate:   400,
		UpdateRate: 490,
		Output:     OutputConfig{Backend: BackendLog, Pins: map[uint8]uint8{}, StatusLED: -1},
		Receiver:   ReceiverConfig{Protocol: ProtocolNone, Deadband: 20},
		BenchAddr:  "127.0.0.1:8090",
		LogLevel:   "info",
	}
}

type channelsFile struct {
	Rotor       uint8 `toml:"rotor"`
	PitchGimbal uint8 `toml:"pitch_gimbal"`
	RollGimbal  uint8 `toml:"roll_gimbal"`
	Tail        uint8 `toml:"tail"`
}

type pinsFile struct {
	Rotor       *uint8 `toml:"rotor"`
	PitchGimbal *uint8 `toml:"pitch_gimbal"`
	RollGimbal  *uint8 `toml:"roll_gimbal"`
	Tail        *uint8 `toml:"tail"`
}

type fileConfig struct {
	Name       string       `toml:"name"`
	Frame      string       `toml:"frame"`
	LoopRate   float64      `toml:"loop_rate"`
	UpdateRate uint16       `toml:"update_rate"`
	ParentMask uint32       `toml:"parent_mask"`
	Channels   channelsFile `toml:"channels"`
	Output     struct {
		Backend   string   `toml:"backend"`
		Pins      pinsFile `toml:"pins"`
		StatusLED int      `toml:"status_led"`
	} `toml:"output"`
	Receiver struct {
		Protocol string `toml:"protocol"`
		Device   string `toml:"device"`
		Deadband uint16 `toml:"deadband"`
		HoverArm bool   `toml:"hover_arm"`
	} `toml:"receiver"`
	ParamsFile   string   `toml:"params_file"`
	IMUBus       string   `toml:"imu_bus"`
	BenchAddr    string   `toml:"bench_addr"`
	BenchOrigins []string `toml:"bench_origins"`
	LogLevel     string   `toml:"log_level"`
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

// Read reads path over the defaults without validating, for callers that
// apply flag overrides first.
func Read(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	if meta.IsDefined("name") {
		cfg.Name = strings.TrimSpace(raw.Name)
	}
	if meta.IsDefined("frame") {
		frame, ok := motors.ParseFrameClass(strings.ToLower(strings.TrimSpace(raw.Frame)))
		if !ok {
			return Config{}, fmt.Errorf("config parse failed (%s): unknown frame %q", path, raw.Frame)
		}
		cfg.Frame = frame
	}
	if meta.IsDefined("loop_rate") {
		cfg.LoopRate = raw.LoopRate
	}
	if meta.IsDefined("update_rate") {
		cfg.UpdateRate = raw.UpdateRate
	}
	if meta.IsDefined("parent_mask") {
		cfg.ParentMask = raw.ParentMask
	}

	if meta.IsDefined("channels", "rotor") {
		cfg.Layout.Rotor = raw.Channels.Rotor
	}
	if meta.IsDefined("channels", "pitch_gimbal") {
		cfg.Layout.PitchGimbal = raw.Channels.PitchGimbal
	}
	if meta.IsDefined("channels", "roll_gimbal") {
		cfg.Layout.RollGimbal = raw.Channels.RollGimbal
	}
	if meta.IsDefined("channels", "tail") {
		cfg.Layout.Tail = raw.Channels.Tail
	}

	if meta.IsDefined("output", "backend") {
		cfg.Output.Backend = strings.ToLower(strings.TrimSpace(raw.Output.Backend))
	}
	if meta.IsDefined("output", "status_led") {
		cfg.Output.StatusLED = raw.Output.StatusLED
	}
	pins := raw.Output.Pins
	for role, pin := range map[motors.Role]*uint8{
		motors.RoleRotor:       pins.Rotor,
		motors.RolePitchGimbal: pins.PitchGimbal,
		motors.RoleRollGimbal:  pins.RollGimbal,
		motors.RoleTail:        pins.Tail,
	} {
		if pin != nil {
			cfg.Output.Pins[cfg.Layout.Channel(role)] = *pin
		}
	}

	if meta.IsDefined("receiver", "protocol") {
		cfg.Receiver.Protocol = strings.ToLower(strings.TrimSpace(raw.Receiver.Protocol))
	}
	if meta.IsDefined("receiver", "device") {
		cfg.Receiver.Device = strings.TrimSpace(raw.Receiver.Device)
	}
	if meta.IsDefined("receiver", "deadband") {
		cfg.Receiver.Deadband = raw.Receiver.Deadband
	}
	if meta.IsDefined("receiver", "hover_arm") {
		cfg.Receiver.HoverArm = raw.Receiver.HoverArm
	}
	if meta.IsDefined("params_file") {
		cfg.ParamsFile = strings.TrimSpace(raw.ParamsFile)
	}
	if meta.IsDefined("imu_bus") {
		cfg.IMUBus = strings.TrimSpace(raw.IMUBus)
	}
	if meta.IsDefined("bench_addr") {
		cfg.BenchAddr = strings.TrimSpace(raw.BenchAddr)
	}
	if meta.IsDefined("bench_origins") {
		cfg.BenchOrigins = raw.BenchOrigins
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	return cfg, nil
}

// Validate checks a configuration for values the loop cannot run with.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("config missing name")
	}
	if err := cfg.Layout.Validate(); err != nil {
		return err
	}
	if cfg.LoopRate <= 0 {
		return fmt.Errorf("loop_rate must be positive, got %v", cfg.LoopRate)
	}
	if cfg.UpdateRate == 0 {
		return fmt.Errorf("update_rate must be positive")
	}
	switch cfg.Output.Backend {
	case BackendLog:
	case BackendRPIO:
		if len(cfg.Output.Pins) == 0 {
			return fmt.Errorf("rpio backend requires output.pins")
		}
		if err := hal.ValidatePins(cfg.Output.Pins); err != nil {
			return fmt.Errorf("output.pins: %w", err)
		}
		if cfg.Receiver.Protocol == ProtocolNone && !cfg.Receiver.HoverArm {
			return fmt.Errorf("rpio backend without a receiver requires receiver.hover_arm")
		}
		if cfg.Output.StatusLED < -1 || cfg.Output.StatusLED > 27 {
			return fmt.Errorf("output.status_led must be a BCM pin 0-27 or -1, got %d", cfg.Output.StatusLED)
		}
	default:
		return fmt.Errorf("unknown output backend %q", cfg.Output.Backend)
	}
	switch cfg.Receiver.Protocol {
	case ProtocolNone:
	case ProtocolIBus, ProtocolCRSF:
		if cfg.Receiver.Device == "" {
			return fmt.Errorf("receiver %s requires receiver.device", cfg.Receiver.Protocol)
		}
	default:
		return fmt.Errorf("unknown receiver protocol %q", cfg.Receiver.Protocol)
	}
	return nil
}
