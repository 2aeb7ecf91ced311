package mathx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConstrain(t *testing.T) {
	require.Equal(t, 0.0, Constrain(-0.2, 0, 1))
	require.Equal(t, 1.0, Constrain(1.2, 0, 1))
	require.Equal(t, 0.4, Constrain(0.4, 0, 1))
	require.Equal(t, uint16(2012), Constrain(uint16(2100), 988, 2012))
}

func TestMapRange(t *testing.T) {
	require.InDelta(t, 1500.0, MapRange(0.0, -1, 1, 1000, 2000), 1e-9)
	require.InDelta(t, -1.0, MapRange(988.0, 988, 2012, -1, 1), 1e-9)
	require.InDelta(t, 1.0, MapRange(2012.0, 988, 2012, -1, 1), 1e-9)
}

func TestAbs(t *testing.T) {
	require.Equal(t, 1.5, Abs(-1.5))
	require.Equal(t, 0.25, Abs(0.25))
}
