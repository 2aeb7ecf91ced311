package params

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BryanSouza91/PulsingFC/internal/motors"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	require.Equal(t, motors.DefaultParams(), s.Params())
	require.Len(t, s.Names(), 10)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.toml")
	require.NoError(t, os.WriteFile(path, []byte("MOT_YAW_DIR = -1\nMOT_SLEW_UP_TIME = 0.25\n"), 0o644))
	t.Setenv("PULSING_MOT_SPIN_MIN", "0.12")

	s, err := Load(path)
	require.NoError(t, err)
	p := s.Params()
	require.Equal(t, -1.0, p.YawDir)
	require.Equal(t, 0.25, p.SlewUpTime)
	require.Equal(t, 0.12, p.SpinMin)
	require.Equal(t, uint16(1000), p.PWMMin)
}

func TestLoadRejectsBadYawDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.toml")
	require.NoError(t, os.WriteFile(path, []byte("MOT_YAW_DIR = 0.5\n"), 0o644))
	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalidParam)
}

func TestLoadMissingFileUsesDefaultsAndEnv(t *testing.T) {
	t.Setenv("PULSING_MOT_YAW_DIR", "-1")
	path := filepath.Join(t.TempDir(), "missing.toml")

	s, err := Load(path)
	require.NoError(t, err)
	p := s.Params()
	require.Equal(t, -1.0, p.YawDir)
	require.Equal(t, motors.DefaultParams().SpinMin, p.SpinMin)

	// the first save creates the file and the next start reads it back
	require.NoError(t, s.Set("mot_spin_min", 0.2))
	require.NoError(t, s.Save(path))
	s, err = Load(path)
	require.NoError(t, err)
	require.Equal(t, 0.2, s.Params().SpinMin)
}

func TestLoadUnreadableFile(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
}

func TestSetAndGet(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)

	require.NoError(t, s.Set("mot_gyro_ff", 1.5))
	v, err := s.Get("MOT_GYRO_FF")
	require.NoError(t, err)
	require.Equal(t, 1.5, v)
	require.Equal(t, 1.5, s.Params().GyroFF)

	require.ErrorIs(t, s.Set("MOT_NOPE", 1), ErrUnknownParam)
	_, err = s.Get("MOT_NOPE")
	require.ErrorIs(t, err, ErrUnknownParam)

	require.ErrorIs(t, s.Set("MOT_YAW_DIR", 0), ErrInvalidParam)
	require.ErrorIs(t, s.Set("MOT_SPIN_MIN", 0.9), ErrInvalidParam)
	require.Equal(t, 1.0, s.Params().YawDir)
}

func TestSetRollsBackCrossCheck(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	require.NoError(t, s.Set("MOT_PWM_MAX", 1900))
	require.ErrorIs(t, s.Set("MOT_PWM_MIN", 1950), ErrInvalidParam)
	require.Equal(t, uint16(1000), s.Params().PWMMin)
	require.Equal(t, uint16(1900), s.Params().PWMMax)
}

func TestSaveRoundTrip(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	require.NoError(t, s.Set("MOT_YAW_DIR", -1))
	require.NoError(t, s.Set("MOT_THST_EXPO", 0.4))

	path := filepath.Join(t.TempDir(), "nested", "params.toml")
	require.NoError(t, s.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, s.Params(), loaded.Params())
}
