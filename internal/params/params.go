// Package params is the runtime parameter table for the output stage.
// Values come from defaults, an optional TOML file and PULSING_ prefixed
// environment variables, and may be changed while the loop runs.
package params

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/BryanSouza91/PulsingFC/internal/motors"
)

// EnvPrefix is prepended to parameter names for environment overrides,
// e.g. PULSING_MOT_YAW_DIR.
const EnvPrefix = "PULSING"

var (
	ErrUnknownParam = errors.New("unknown parameter")
	ErrInvalidParam = errors.New("invalid parameter value")
)

type definition struct {
	name     string
	min, max float64
	get      func(p motors.Params) float64
	set      func(p *motors.Params, v float64)
}

var definitions = []definition{
	{"MOT_YAW_DIR", -1, 1,
		func(p motors.Params) float64 { return p.YawDir },
		func(p *motors.Params, v float64) { p.YawDir = v }},
	{"MOT_ROTOR_YAW_FF", -10, 10,
		func(p motors.Params) float64 { return p.RotorYawFF },
		func(p *motors.Params, v float64) { p.RotorYawFF = v }},
	{"MOT_GYRO_FF", -10, 10,
		func(p motors.Params) float64 { return p.GyroFF },
		func(p *motors.Params, v float64) { p.GyroFF = v }},
	{"MOT_SPIN_MIN", 0, 0.3,
		func(p motors.Params) float64 { return p.SpinMin },
		func(p *motors.Params, v float64) { p.SpinMin = v }},
	{"MOT_SPIN_MAX", 0.9, 1,
		func(p motors.Params) float64 { return p.SpinMax },
		func(p *motors.Params, v float64) { p.SpinMax = v }},
	{"MOT_THST_EXPO", -1, 1,
		func(p motors.Params) float64 { return p.ThrustExpo },
		func(p *motors.Params, v float64) { p.ThrustExpo = v }},
	{"MOT_PWM_MIN", 800, 2200,
		func(p motors.Params) float64 { return float64(p.PWMMin) },
		func(p *motors.Params, v float64) { p.PWMMin = uint16(v) }},
	{"MOT_PWM_MAX", 800, 2200,
		func(p motors.Params) float64 { return float64(p.PWMMax) },
		func(p *motors.Params, v float64) { p.PWMMax = uint16(v) }},
	{"MOT_SLEW_UP_TIME", 0, 0.5,
		func(p motors.Params) float64 { return p.SlewUpTime },
		func(p *motors.Params, v float64) { p.SlewUpTime = v }},
	{"MOT_SLEW_DN_TIME", 0, 0.5,
		func(p motors.Params) float64 { return p.SlewDownTime },
		func(p *motors.Params, v float64) { p.SlewDownTime = v }},
}

func lookup(name string) (definition, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for _, d := range definitions {
		if d.name == name {
			return d, true
		}
	}
	return definition{}, false
}

func (d definition) validate(v float64) error {
	if d.name == "MOT_YAW_DIR" && v != 1 && v != -1 {
		return fmt.Errorf("%w: %s must be 1 or -1, got %v", ErrInvalidParam, d.name, v)
	}
	if v < d.min || v > d.max {
		return fmt.Errorf("%w: %s=%v outside [%v, %v]", ErrInvalidParam, d.name, v, d.min, d.max)
	}
	return nil
}

// Store holds the live parameter values. It satisfies motors.ParamSource.
type Store struct {
	mu      sync.RWMutex
	v       *viper.Viper
	current motors.Params
}

// Load builds a store from defaults, the TOML file at path (skipped when
// empty or not yet written) and the environment.
func Load(path string) (*Store, error) {
	v := viper.New()
	defaults := motors.DefaultParams()
	for _, d := range definitions {
		v.SetDefault(d.name, d.get(defaults))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" && fileExists(path) {
		v.SetConfigType("toml")
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("params load failed (%s): %w", path, err)
		}
	}

	s := &Store{v: v}
	if err := s.rebuild(); err != nil {
		return nil, err
	}
	return s, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

func (s *Store) rebuild() error {
	var p motors.Params
	for _, d := range definitions {
		val := s.v.GetFloat64(d.name)
		if err := d.validate(val); err != nil {
			return err
		}
		d.set(&p, val)
	}
	if p.PWMMin >= p.PWMMax {
		return fmt.Errorf("%w: MOT_PWM_MIN %d must be below MOT_PWM_MAX %d", ErrInvalidParam, p.PWMMin, p.PWMMax)
	}
	s.current = p
	return nil
}

// Params returns the current snapshot.
func (s *Store) Params() motors.Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Get returns one parameter by name.
func (s *Store) Get(name string) (float64, error) {
	d, ok := lookup(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	return d.get(s.Params()), nil
}

// Set validates and applies one parameter. The snapshot seen by the next
// tick includes the change.
func (s *Store) Set(name string, value float64) error {
	d, ok := lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	if err := d.validate(value); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.v.Get(d.name)
	s.v.Set(d.name, value)
	if err := s.rebuild(); err != nil {
		s.v.Set(d.name, prev)
		return err
	}
	return nil
}

// Names lists every parameter name in sorted order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(definitions))
	for _, d := range definitions {
		names = append(names, d.name)
	}
	sort.Strings(names)
	return names
}

// All returns every parameter value by name.
func (s *Store) All() map[string]float64 {
	p := s.Params()
	out := make(map[string]float64, len(definitions))
	for _, d := range definitions {
		out[d.name] = d.get(p)
	}
	return out
}

// Save writes every parameter to path as TOML.
func (s *Store) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir params dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("params save failed (%s): %w", path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(s.All()); err != nil {
		return fmt.Errorf("params encode failed (%s): %w", path, err)
	}
	return nil
}
