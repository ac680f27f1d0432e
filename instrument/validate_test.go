package instrument

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRangeCheck(t *testing.T) {
	require := require.New(t)

	voltage := Range{Name: "voltage", Unit: "V", Min: 0, Max: 30}

	require.NoError(voltage.Check(0))
	require.NoError(voltage.Check(5.0))
	require.NoError(voltage.Check(30))

	require.ErrorIs(voltage.Check(-0.1), ErrValueOutOfRange)
	require.ErrorIs(voltage.Check(30.01), ErrValueOutOfRange)
	require.ErrorIs(voltage.Check(math.NaN()), ErrValueOutOfRange)
	require.ErrorIs(voltage.Check(math.Inf(1)), ErrValueOutOfRange)
}

func TestDiscreteCheck(t *testing.T) {
	require := require.New(t)

	scale := Discrete{
		Name:   "vertical scale",
		Unit:   "V/div",
		Values: []float64{0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10},
	}

	require.NoError(scale.Check(0.5))
	require.NoError(scale.Check(0.001))
	// Value produced by arithmetic rather than a literal still matches.
	require.NoError(scale.Check(0.1 + 0.1))

	require.ErrorIs(scale.Check(0.3), ErrValueOutOfRange)
	require.ErrorIs(scale.Check(0), ErrValueOutOfRange)
}

func TestDiscreteNearest(t *testing.T) {
	require := require.New(t)

	scale := Discrete{Values: []float64{0.1, 0.2, 0.5, 1, 2, 5}}

	require.Equal(0.2, scale.Nearest(0.3))
	require.Equal(0.5, scale.Nearest(0.4))
	require.Equal(5.0, scale.Nearest(100))
	require.Equal(0.1, scale.Nearest(0))
}
