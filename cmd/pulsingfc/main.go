package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/BryanSouza91/PulsingFC/internal/bench"
	"github.com/BryanSouza91/PulsingFC/internal/config"
	"github.com/BryanSouza91/PulsingFC/internal/hal"
	"github.com/BryanSouza91/PulsingFC/internal/imu"
	"github.com/BryanSouza91/PulsingFC/internal/loop"
	"github.com/BryanSouza91/PulsingFC/internal/motors"
	"github.com/BryanSouza91/PulsingFC/internal/observability"
	"github.com/BryanSouza91/PulsingFC/internal/params"
	"github.com/BryanSouza91/PulsingFC/internal/rx"
)

const Version = "0.1.0"

// gyroCalibrationSamples are averaged at startup with the airframe still.
const gyroCalibrationSamples = 200

func main() {
	configPath := flag.String("config", "", "airframe TOML file")
	logLevel := flag.String("log-level", "", "log level, overrides the airframe file")
	hover := flag.Float64("hover", 0.5, "throttle of the built-in demand when no receiver is configured")
	hoverArm := flag.Bool("hover-arm", false, "arm the built-in demand, overrides receiver.hover_arm")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Read(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *hoverArm {
		cfg.Receiver.HoverArm = true
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := observability.InitLogger("pulsingfc", cfg.LogLevel)
	logger.Info().
		Str("version", Version).
		Str("airframe", cfg.Name).
		Stringer("frame", cfg.Frame).
		Msg("PulsingFC starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *hover, logger); err != nil {
		logger.Fatal().Err(err).Msg("pulsingfc exited")
	}
}

func run(ctx context.Context, cfg config.Config, hover float64, logger zerolog.Logger) error {
	store, err := params.Load(cfg.ParamsFile)
	if err != nil {
		return err
	}
	observability.RegisterMetrics()

	out, led, closeOut, err := openOutput(cfg, logger)
	if err != nil {
		return err
	}
	defer closeOut()

	m, err := motors.NewPulsing(motors.Options{
		Layout:     cfg.Layout,
		Writer:     hal.Multi{out, observability.NewPWMGauge()},
		Params:     store,
		LoopRate:   cfg.LoopRate,
		ParentMask: cfg.ParentMask,
		Logger:     &logger,
	})
	if err != nil {
		return fmt.Errorf("motors setup failed: %w", err)
	}
	if !m.Init(cfg.Frame) {
		return fmt.Errorf("no mixer for frame %s", cfg.Frame)
	}
	m.SetUpdateRate(cfg.UpdateRate)
	logger.Info().
		Uint32("motor_mask", m.MotorMask()).
		Uint16("update_hz", m.UpdateRate()).
		Msg("pulsing mixer initialised")

	demand, err := openDemand(ctx, cfg, hover, logger)
	if err != nil {
		return err
	}
	rates, closeRates, err := openRates(cfg, logger)
	if err != nil {
		return err
	}
	defer closeRates()

	tests := make(chan loop.TestCommand, 4)
	board := &loop.StatusBoard{}

	srv := bench.New(board, store, tests, cfg.BenchOrigins, logger)
	go func() {
		if err := srv.Serve(ctx, cfg.BenchAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("bench server failed")
		}
	}()

	l := loop.New(loop.Options{
		Motors:    m,
		Demand:    demand,
		Rates:     rates,
		LoopRate:  cfg.LoopRate,
		Tests:     tests,
		Status:    board,
		Indicator: led,
		Logger:    logger,
	})
	if err := l.Run(ctx); err != nil {
		return err
	}

	if cfg.ParamsFile != "" {
		if err := store.Save(cfg.ParamsFile); err != nil {
			return err
		}
		logger.Info().Str("path", cfg.ParamsFile).Msg("parameters saved")
	}
	return nil
}

// openOutput returns the signal backend and, on rpio with a pin set, the
// status LED.
func openOutput(cfg config.Config, logger zerolog.Logger) (motors.Writer, loop.Indicator, func(), error) {
	switch cfg.Output.Backend {
	case config.BackendRPIO:
		w, err := hal.OpenRPIO(cfg.Output.Pins, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		var led loop.Indicator
		if cfg.Output.StatusLED >= 0 {
			led = hal.NewRPIOStatusLED(uint8(cfg.Output.StatusLED))
		}
		return w, led, func() {
			if err := w.Close(); err != nil {
				logger.Warn().Err(err).Msg("gpio close failed")
			}
		}, nil
	default:
		return hal.NewLogWriter(logger), nil, func() {}, nil
	}
}

func openDemand(ctx context.Context, cfg config.Config, hover float64, logger zerolog.Logger) (loop.DemandSource, error) {
	var parser rx.Parser
	switch cfg.Receiver.Protocol {
	case config.ProtocolIBus:
		parser = rx.NewIBusParser()
	case config.ProtocolCRSF:
		parser = rx.NewCRSFParser()
	default:
		logger.Warn().
			Float64("throttle", hover).
			Bool("armed", cfg.Receiver.HoverArm).
			Msg("no receiver configured, using built-in hover demand")
		return loop.HoverDemand{Throttle: hover, Armed: cfg.Receiver.HoverArm}, nil
	}

	var src io.ReadCloser = os.Stdin
	if cfg.Receiver.Device != "-" {
		f, err := os.Open(cfg.Receiver.Device)
		if err != nil {
			return nil, fmt.Errorf("open receiver: %w", err)
		}
		src = f
	}

	receiver := rx.NewReceiver(parser, logger)
	go func() {
		if err := receiver.Run(ctx, src); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("receiver stopped")
		}
	}()
	logger.Info().
		Str("protocol", cfg.Receiver.Protocol).
		Str("device", cfg.Receiver.Device).
		Msg("receiver configured")
	return loop.ReceiverDemand{Receiver: receiver, Sticks: rx.Sticks{Deadband: cfg.Receiver.Deadband}}, nil
}

func openRates(cfg config.Config, logger zerolog.Logger) (imu.RateProvider, func(), error) {
	if cfg.IMUBus == "" {
		return imu.Still{}, func() {}, nil
	}
	bus, err := imu.OpenI2C(cfg.IMUBus)
	if err != nil {
		return nil, nil, err
	}
	dev, err := imu.NewLSM6DS3TR(bus)
	if err != nil {
		_ = bus.Close()
		return nil, nil, err
	}
	gyro := imu.NewGyro(dev, logger)
	if err := gyro.Calibrate(gyroCalibrationSamples); err != nil {
		_ = bus.Close()
		return nil, nil, err
	}
	return gyro, func() { _ = bus.Close() }, nil
}
