package pulse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sineLeaf(t *testing.T) *FunctionTemplate {
	t.Helper()

	sine, err := NewFunction("a*sin(omega*t)", "t_duration")
	require.NoError(t, err)

	return sine
}

// measuredLeaf declares M over t_meas and N over half of it.
func measuredLeaf(t *testing.T) *FunctionTemplate {
	t.Helper()

	leaf, err := NewFunction("a", "t_duration", WithMeasurements(
		MustMeasure("M", "0", "t_meas"),
		MustMeasure("N", "0", "t_meas/2"),
	))
	require.NoError(t, err)

	return leaf
}

func trigLeaf(t *testing.T, fn string) *FunctionTemplate {
	t.Helper()

	leaf, err := NewFunction("a*"+fn+"(omega*t)", "t_duration",
		WithMeasurements(MustMeasure("M", "0", "t_duration")))
	require.NoError(t, err)

	return leaf
}
