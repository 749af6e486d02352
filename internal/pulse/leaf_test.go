package pulse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse-mapper/internal/expression"
)

func TestNewFunction(t *testing.T) {
	sine := sineLeaf(t)

	assert.Equal(t, KindFunction, sine.Kind())
	assert.Equal(t, []string{"a", "omega", "t_duration"}, sine.ParameterNames().Sorted())
	assert.Equal(t, []string{DefaultChannel}, sine.ChannelOrder())
	assert.True(t, sine.DefinedChannels().Has(DefaultChannel))
	assert.Zero(t, sine.MeasurementNames().Len())
	assert.Equal(t, "t_duration", sine.DurationExpression().String())
	assert.Equal(t, "a*sin(omega*t)", sine.Waveform().String())

	d, err := sine.Duration(map[string]float64{"t_duration": 4})
	require.NoError(t, err)
	assert.InDelta(t, 4, d, 0)
}

func TestNewFunction_MeasurementParameters(t *testing.T) {
	leaf := measuredLeaf(t)

	assert.Equal(t, []string{"a", "t_duration", "t_meas"}, leaf.ParameterNames().Sorted())
	assert.Equal(t, []string{"M", "N"}, leaf.MeasurementNames().Sorted())
	require.Len(t, leaf.MeasurementDeclarations(), 2)
	assert.Equal(t, "N[0, t_meas/2]", leaf.MeasurementDeclarations()[1].String())
}

func TestNewFunction_Errors(t *testing.T) {
	tests := []struct {
		name     string
		waveform string
		duration string
		opts     []Option
		want     error
	}{
		{"bad waveform", "a +", "1", nil, expression.ErrSyntax},
		{"empty duration", "a", "", nil, expression.ErrEmpty},
		{"duration uses t", "a", "2*t", nil, ErrInvalidDuration},
		{"two channels", "a", "1", []Option{WithChannels("X", "Y")}, ErrInvalidChannels},
		{"empty channel", "a", "1", []Option{WithChannels("")}, ErrInvalidChannels},
		{"unnamed measurement", "a", "1", []Option{WithMeasurements(MeasurementDeclaration{})}, ErrInvalidMeasurement},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leaf, err := NewFunction(tt.waveform, tt.duration, tt.opts...)
			require.Error(t, err)
			assert.Nil(t, leaf)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMeasure_Errors(t *testing.T) {
	_, err := Measure("", "0", "1")
	assert.ErrorIs(t, err, ErrInvalidMeasurement)

	_, err = Measure("M", "0", "t_meas *")
	assert.ErrorIs(t, err, expression.ErrSyntax)

	assert.Panics(t, func() { MustMeasure("M", "(", "1") })
}

func point(tm string, interp Interpolation, values ...string) Point {
	p := Point{Time: expression.MustParse(tm), Interpolation: interp}
	for _, v := range values {
		p.Values = append(p.Values, expression.MustParse(v))
	}

	return p
}

func TestNewPoints(t *testing.T) {
	ramp, err := NewPoints([]Point{
		point("0", "", "0"),
		point("t_ramp", InterpolationLinear, "v_x", "v_y"),
		point("t_ramp + t_hold", InterpolationHold, "v_x", "v_y"),
	}, WithChannels("X", "Y"), WithIdentifier("ramp"))
	require.NoError(t, err)

	assert.Equal(t, "ramp", ramp.Identifier())
	assert.Equal(t, KindPoints, ramp.Kind())
	assert.Equal(t, []string{"X", "Y"}, ramp.ChannelOrder())
	assert.Equal(t, []string{"t_hold", "t_ramp", "v_x", "v_y"}, ramp.ParameterNames().Sorted())
	assert.Equal(t, "t_ramp + t_hold", ramp.DurationExpression().String())

	points := ramp.Points()
	require.Len(t, points, 3)
	assert.Equal(t, InterpolationHold, points[0].Interpolation)
	assert.Equal(t, InterpolationLinear, points[1].Interpolation)
}

func TestNewPoints_Errors(t *testing.T) {
	_, err := NewPoints(nil)
	assert.ErrorIs(t, err, ErrInvalidPoints)

	_, err = NewPoints([]Point{point("1", "", "0", "1", "2")}, WithChannels("X", "Y"))
	assert.ErrorIs(t, err, ErrInvalidPoints)

	_, err = NewPoints([]Point{point("1", "cubic", "0")})
	assert.ErrorIs(t, err, ErrInvalidInterpolation)

	_, err = NewPoints([]Point{point("1", "", "0")}, WithChannels("X", "X"))
	assert.ErrorIs(t, err, ErrInvalidChannels)
}

func TestParseInterpolation(t *testing.T) {
	for in, want := range map[string]Interpolation{
		"":       InterpolationHold,
		"hold":   InterpolationHold,
		"linear": InterpolationLinear,
		"jump":   InterpolationJump,
	} {
		got, err := ParseInterpolation(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseInterpolation("Linear")
	assert.ErrorIs(t, err, ErrInvalidInterpolation)
}

func TestIdentify(t *testing.T) {
	sine := sineLeaf(t)
	named := Identify(sine, "sine")

	assert.Equal(t, "sine", named.Identifier())
	assert.Empty(t, sine.Identifier())
	assert.True(t, named.ParameterNames().Equal(sine.ParameterNames()))
}

func TestQueriesReturnCopies(t *testing.T) {
	leaf := measuredLeaf(t)

	params := leaf.ParameterNames()
	params.add("intruder")

	order := leaf.ChannelOrder()
	order[0] = "intruder"

	decls := leaf.MeasurementDeclarations()
	decls[0].Name = "intruder"

	assert.False(t, leaf.ParameterNames().Has("intruder"))
	assert.Equal(t, []string{DefaultChannel}, leaf.ChannelOrder())
	assert.Equal(t, "M", leaf.MeasurementDeclarations()[0].Name)
}
