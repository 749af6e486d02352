package pulse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse-mapper/internal/expression"
)

func TestCombineChannels_CollisionOnDefault(t *testing.T) {
	_, err := CombineChannels(Use(trigLeaf(t, "cos")), Use(trigLeaf(t, "sin")))
	require.ErrorIs(t, err, ErrChannelMappingCollision)

	var collision *ChannelMappingCollisionError
	require.ErrorAs(t, err, &collision)
	assert.Equal(t, DefaultChannel, collision.Channel)
	assert.Equal(t, 0, collision.First)
	assert.Equal(t, 1, collision.Second)
	assert.Equal(t, `channel "default" is defined by subtemplates 0 and 1`, err.Error())
}

func TestCombineChannels_RemappedChildren(t *testing.T) {
	iq, err := CombineChannels(
		Sub(trigLeaf(t, "cos"),
			MapChannels(map[string]string{DefaultChannel: "cos_channel"}),
			MapMeasurements(map[string]string{"M": "M_cos"})),
		Sub(trigLeaf(t, "sin"),
			MapChannels(map[string]string{DefaultChannel: "sin_channel"}),
			MapMeasurements(map[string]string{"M": "M_sin"})),
	)
	require.NoError(t, err)

	assert.Equal(t, KindMultiChannel, iq.Kind())
	assert.Equal(t, []string{"cos_channel", "sin_channel"}, iq.DefinedChannels().Sorted())
	assert.Equal(t, []string{"cos_channel", "sin_channel"}, iq.ChannelOrder())
	assert.Equal(t, []string{"M_cos", "M_sin"}, iq.MeasurementNames().Sorted())
	assert.Equal(t, []string{"a", "omega", "t_duration"}, iq.ParameterNames().Sorted())
	assert.Equal(t, "t_duration", iq.DurationExpression().String())
	require.Len(t, iq.Children(), 2)
	assert.Equal(t, KindMapping, iq.Children()[0].Kind())
}

func TestCombineChannels_MeasurementNamesMayCoincide(t *testing.T) {
	iq, err := CombineChannels(
		Sub(trigLeaf(t, "cos"), MapChannels(map[string]string{DefaultChannel: "I"})),
		Sub(trigLeaf(t, "sin"), MapChannels(map[string]string{DefaultChannel: "Q"})),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"M"}, iq.MeasurementNames().Sorted())
	assert.Len(t, iq.MeasurementDeclarations(), 2)
}

func TestCombineChannels_Errors(t *testing.T) {
	_, err := CombineChannels()
	assert.ErrorIs(t, err, ErrNoSubtemplates)

	_, err = CombineChannels(Sub(sineLeaf(t), MapParameters(map[string]string{"a": "a"})))
	assert.ErrorIs(t, err, ErrMissingMapping)
}

func TestSequence_MeasurementOverrides(t *testing.T) {
	leaf := measuredLeaf(t)

	seq, err := Sequence(
		Sub(leaf, MapMeasurements(map[string]string{"M": "charge_scan"})),
		Sub(leaf, MapMeasurements(map[string]string{"M": "dbz_fid"})),
	)
	require.NoError(t, err)

	assert.Equal(t, KindSequence, seq.Kind())
	assert.Equal(t, []string{"N", "charge_scan", "dbz_fid"}, seq.MeasurementNames().Sorted())
	assert.Equal(t, []string{"a", "t_duration", "t_meas"}, seq.ParameterNames().Sorted())
	assert.Equal(t, []string{DefaultChannel}, seq.ChannelOrder())

	decls := seq.MeasurementDeclarations()
	require.Len(t, decls, 4)
	assert.Equal(t, "charge_scan[0, t_meas]", decls[0].String())
	assert.Equal(t, "dbz_fid[t_duration, t_meas]", decls[2].String())
}

func TestSequence_InlineOverrideEqualsWrapping(t *testing.T) {
	a := measuredLeaf(t)
	b := sineLeaf(t)
	override := map[string]string{"M": "X"}

	inline, err := Sequence(Sub(a, MapMeasurements(override)), Use(b))
	require.NoError(t, err)

	wrapped, err := Wrap(a, MapMeasurements(override))
	require.NoError(t, err)

	explicit, err := Sequence(Use(wrapped), Use(b))
	require.NoError(t, err)

	assert.True(t, inline.MeasurementNames().Equal(explicit.MeasurementNames()))
	assert.Equal(t, inline.DurationExpression().String(), explicit.DurationExpression().String())

	values := map[string]float64{"a": 1, "omega": 2, "t_duration": 3, "t_meas": 1}

	d1, err := inline.Duration(values)
	require.NoError(t, err)

	d2, err := explicit.Duration(values)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func TestSequence_DurationIsExactSum(t *testing.T) {
	first, err := NewFunction("1", "d1")
	require.NoError(t, err)

	second, err := NewFunction("1", "d2")
	require.NoError(t, err)

	seq, err := Sequence(Use(first), Use(second))
	require.NoError(t, err)

	for _, v := range [][2]float64{{0.1, 0.2}, {1e-9, 3}, {1.0 / 3, 2.0 / 3}} {
		got, err := seq.Duration(map[string]float64{"d1": v[0], "d2": v[1]})
		require.NoError(t, err)
		assert.Equal(t, v[0]+v[1], got)
	}
}

func TestSequence_ChannelUnionInOrder(t *testing.T) {
	xy, err := NewPoints([]Point{point("t_a", "", "0")}, WithChannels("X", "Y"))
	require.NoError(t, err)

	yz, err := NewPoints([]Point{point("t_b", "", "0")}, WithChannels("Y", "Z"))
	require.NoError(t, err)

	seq, err := Sequence(Use(xy), Use(yz), Use(xy))
	require.NoError(t, err)

	assert.Equal(t, []string{"X", "Y", "Z"}, seq.ChannelOrder())
	assert.Len(t, seq.Children(), 3)

	_, err = Sequence()
	assert.ErrorIs(t, err, ErrNoSubtemplates)
}

func TestRepeat(t *testing.T) {
	rep, err := Repeat(Use(measuredLeaf(t)), "n_rep")
	require.NoError(t, err)

	assert.Equal(t, KindRepetition, rep.Kind())
	assert.Equal(t, []string{"a", "n_rep", "t_duration", "t_meas"}, rep.ParameterNames().Sorted())
	assert.Equal(t, []string{"M", "N"}, rep.MeasurementNames().Sorted())
	assert.Equal(t, "n_rep", rep.Count().String())
	assert.Equal(t, KindFunction, rep.Body().Kind())

	d, err := rep.Duration(map[string]float64{"n_rep": 3, "t_duration": 2.5})
	require.NoError(t, err)
	assert.InDelta(t, 7.5, d, 1e-12)
}

func TestRepeat_Errors(t *testing.T) {
	leaf := measuredLeaf(t)

	for _, count := range []string{"-1", "2.5", "1/0"} {
		_, err := Repeat(Use(leaf), count)
		assert.ErrorIs(t, err, ErrInvalidRepetitionCount, count)
	}

	_, err := Repeat(Use(leaf), "n +")
	assert.ErrorIs(t, err, expression.ErrSyntax)

	_, err = Repeat(Sub(leaf, MapChannels(map[string]string{"nope": "X"})), "2")
	assert.ErrorIs(t, err, ErrSurplusMapping)
}

func TestInferRemap(t *testing.T) {
	leaf := trigLeaf(t, "cos")

	r, err := InferRemap(leaf,
		map[string]string{DefaultChannel: "cos_channel"},
		map[string]string{"M": "M_cos"},
		map[string]string{},
	)
	require.NoError(t, err)
	assert.Equal(t, Remap{
		Channels:     map[string]string{DefaultChannel: "cos_channel"},
		Measurements: map[string]string{"M": "M_cos"},
	}, r)

	r, err = InferRemap(leaf, map[string]string{"a": "2*amp", "omega": "w", "t_duration": "T"})
	require.NoError(t, err)
	assert.Len(t, r.Parameters, 3)
	assert.Nil(t, r.Channels)
}

func TestInferRemap_Ambiguous(t *testing.T) {
	shared, err := NewFunction("a", "1", WithMeasurements(MustMeasure("a", "0", "1")))
	require.NoError(t, err)

	tests := []struct {
		name       string
		child      Template
		args       []map[string]string
		candidates []Namespace
	}{
		{"no namespace", sineLeaf(t), []map[string]string{{"x": "y"}}, nil},
		{"mixed namespaces", sineLeaf(t), []map[string]string{{"a": "b", DefaultChannel: "X"}}, nil},
		{
			"parameter or measurement", shared, []map[string]string{{"a": "b"}},
			[]Namespace{NamespaceParameter, NamespaceMeasurement},
		},
		{
			"repeated namespace", sineLeaf(t),
			[]map[string]string{{DefaultChannel: "X"}, {DefaultChannel: "Y"}},
			[]Namespace{NamespaceChannel},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InferRemap(tt.child, tt.args...)
			require.ErrorIs(t, err, ErrAmbiguousMapping)

			var ambiguous *AmbiguousMappingError
			require.ErrorAs(t, err, &ambiguous)
			assert.Equal(t, tt.candidates, ambiguous.Candidates)
		})
	}
}
