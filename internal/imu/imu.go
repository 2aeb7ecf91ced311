// Package imu provides body rates from an LSM6DS3TR gyro.
package imu

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/rs/zerolog"
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/lsm6ds3tr"
)

// The LSM6DS3TR driver reports rotation in micro-degrees per second.
const microDPSToRadS = math.Pi / (180 * 1e6)

// RateProvider returns the latest body rates in rad/s (X roll, Y pitch,
// Z yaw).
type RateProvider interface {
	Rates() (r3.Vector, error)
}

// RotationReader is the part of the gyro driver Gyro needs.
type RotationReader interface {
	ReadRotation() (x, y, z int32, err error)
}

// NewLSM6DS3TR configures the sensor on bus for a 104 Hz, 1000 dps gyro.
func NewLSM6DS3TR(bus drivers.I2C) (*lsm6ds3tr.Device, error) {
	dev := lsm6ds3tr.New(bus)
	err := dev.Configure(lsm6ds3tr.Configuration{
		AccelRange:      lsm6ds3tr.ACCEL_8G,
		AccelSampleRate: lsm6ds3tr.ACCEL_SR_104,
		GyroRange:       lsm6ds3tr.GYRO_1000DPS,
		GyroSampleRate:  lsm6ds3tr.GYRO_SR_104,
	})
	if err != nil {
		return nil, fmt.Errorf("configure lsm6ds3tr: %w", err)
	}
	if !dev.Connected() {
		return nil, fmt.Errorf("lsm6ds3tr not connected")
	}
	return dev, nil
}

// Gyro converts raw rotation readings to rad/s and removes the calibrated
// bias.
type Gyro struct {
	dev  RotationReader
	bias r3.Vector
	log  zerolog.Logger
}

func NewGyro(dev RotationReader, log zerolog.Logger) *Gyro {
	return &Gyro{dev: dev, log: log.With().Str("component", "imu").Logger()}
}

func (g *Gyro) read() (r3.Vector, error) {
	x, y, z, err := g.dev.ReadRotation()
	if err != nil {
		return r3.Vector{}, err
	}
	return r3.Vector{X: float64(x), Y: float64(y), Z: float64(z)}.Mul(microDPSToRadS), nil
}

// Calibrate averages samples readings taken at rest and stores them as the
// bias. Failed reads are skipped; it fails only if none succeed.
func (g *Gyro) Calibrate(samples int) error {
	var sum r3.Vector
	good := 0
	for i := 0; i < samples; i++ {
		v, err := g.read()
		if err != nil {
			continue
		}
		sum = sum.Add(v)
		good++
	}
	if good == 0 {
		return fmt.Errorf("gyro calibration: no readings out of %d", samples)
	}
	g.bias = sum.Mul(1 / float64(good))
	g.log.Info().
		Float64("bias_x", g.bias.X).
		Float64("bias_y", g.bias.Y).
		Float64("bias_z", g.bias.Z).
		Int("samples", good).
		Msg("gyro calibration complete")
	return nil
}

// Bias returns the calibrated bias in rad/s.
func (g *Gyro) Bias() r3.Vector { return g.bias }

// Rates returns the bias-corrected body rates.
func (g *Gyro) Rates() (r3.Vector, error) {
	v, err := g.read()
	if err != nil {
		return r3.Vector{}, fmt.Errorf("read gyro: %w", err)
	}
	return v.Sub(g.bias), nil
}

// Still is a RateProvider for a vehicle at rest; the loop uses it when no
// sensor is configured.
type Still struct{}

func (Still) Rates() (r3.Vector, error) { return r3.Vector{}, nil }
