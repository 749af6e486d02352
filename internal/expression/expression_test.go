package expression

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParse_Variables(t *testing.T) {
	tests := []struct {
		src  string
		want []string
	}{
		{"a*sin(omega*t)", []string{"a", "omega", "t"}},
		{"2*pi/omega", []string{"omega"}},
		{"t_meas/2", []string{"t_meas"}},
		{"3.5e-9", []string{}},
		{"max(a, b, a) + E", []string{"a", "b"}},
		{"-(x % y)", []string{"x", "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			e, err := Parse(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, e.Variables())
			assert.Equal(t, len(tt.want) == 0, e.IsConstant())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		src  string
		want error
	}{
		{"", ErrEmpty},
		{"   ", ErrEmpty},
		{"a +", ErrSyntax},
		{"a == b", ErrUnsupported},
		{"a && b", ErrUnsupported},
		{`"text"`, ErrUnsupported},
		{"foo(a)", ErrUnsupported},
		{"x.y", ErrUnsupported},
		{"sin(a, b)", ErrSyntax},
		{"max()", ErrSyntax},
		{"!a", ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := Parse(tt.src)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var exprErr *Error
			assert.True(t, errors.As(err, &exprErr))
		})
	}
}

func TestEvaluate(t *testing.T) {
	values := map[string]float64{"a": 2, "omega": math.Pi, "t": 0.5, "x": 7, "y": 3}

	tests := []struct {
		src  string
		want float64
	}{
		{"a*sin(omega*t)", 2},
		{"2*pi/omega", 2},
		{"x % y", 1},
		{"-x + +y", -4},
		{"pow(a, 10)", 1024},
		{"min(x, y, a)", 2},
		{"max(x, y, a)", 7},
		{"atan2(0, 1)", 0},
		{"0x10", 16},
		{"1.5e3", 1500},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := MustParse(tt.src).Evaluate(values)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestEvaluate_Unbound(t *testing.T) {
	_, err := MustParse("a + b").Evaluate(map[string]float64{"a": 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnbound)

	var unbound *UnboundVariableError
	require.ErrorAs(t, err, &unbound)
	assert.Equal(t, "b", unbound.Name)
}

func TestZeroExpression(t *testing.T) {
	var e Expression

	assert.True(t, e.IsZero())
	assert.True(t, e.IsConstant())
	assert.Equal(t, "0", e.String())

	v, err := e.Evaluate(nil)
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestSubstitute(t *testing.T) {
	duration := MustParse("t_duration")
	mapped := duration.Substitute(map[string]Expression{"t_duration": MustParse("2*pi/omega")})

	assert.Equal(t, "2*pi/omega", mapped.String())
	assert.Equal(t, []string{"omega"}, mapped.Variables())

	v, err := mapped.Evaluate(map[string]float64{"omega": math.Pi})
	require.NoError(t, err)
	assert.InDelta(t, 2, v, 1e-12)
}

func TestSubstitute_KeepsPrecedence(t *testing.T) {
	e := MustParse("2*x + y")
	mapped := e.Substitute(map[string]Expression{
		"x": MustParse("a - b"),
		"y": MustParse("c"),
	})

	assert.Equal(t, []string{"a", "b", "c"}, mapped.Variables())

	values := map[string]float64{"a": 5, "b": 3, "c": 1}

	got, err := mapped.Evaluate(values)
	require.NoError(t, err)
	assert.InDelta(t, 5, got, 1e-12)

	// the rendered form must parse back to the same expression
	reparsed, err := Parse(mapped.String())
	require.NoError(t, err)

	again, err := reparsed.Evaluate(values)
	require.NoError(t, err)
	assert.InDelta(t, got, again, 1e-12)
}

func TestSubstitute_Untouched(t *testing.T) {
	e := MustParse("a*b")
	same := e.Substitute(map[string]Expression{"c": MustParse("1")})

	assert.Equal(t, e.String(), same.String())
}

func TestSubstitute_FunctionNameIsNotVariable(t *testing.T) {
	e := MustParse("sin(sin)")
	assert.Equal(t, []string{"sin"}, e.Variables())

	mapped := e.Substitute(map[string]Expression{"sin": MustParse("pi/2")})

	got, err := mapped.Evaluate(nil)
	require.NoError(t, err)
	assert.InDelta(t, 1, got, 1e-12)
}

func TestSumAndProduct(t *testing.T) {
	sum := Sum(MustParse("a - b"), MustParse("c"), MustParse("d - e"))
	prod := Product(MustParse("n"), MustParse("x + y"))

	values := map[string]float64{"a": 10, "b": 1, "c": 2, "d": 5, "e": 3, "n": 3, "x": 1, "y": 2}

	for _, tc := range []struct {
		expr Expression
		want float64
	}{
		{sum, 13},
		{prod, 9},
		{Sum(), 0},
		{Sum(MustParse("x")), 1},
	} {
		got, err := tc.expr.Evaluate(values)
		require.NoError(t, err)
		assert.InDelta(t, tc.want, got, 1e-12)

		reparsed, err := Parse(tc.expr.String())
		require.NoError(t, err, tc.expr.String())

		again, err := reparsed.Evaluate(values)
		require.NoError(t, err)
		assert.InDelta(t, tc.want, again, 1e-12, tc.expr.String())
	}
}

func TestConstant(t *testing.T) {
	for _, v := range []float64{0, 1, -2.5, 1e-9, 123456789} {
		e := Constant(v)
		assert.True(t, e.IsConstant())

		got, err := e.Evaluate(nil)
		require.NoError(t, err)
		assert.InDelta(t, v, got, 1e-15)
	}

	assert.Panics(t, func() { Constant(math.NaN()) })
}

func TestYAML(t *testing.T) {
	type doc struct {
		Start  Expression `yaml:"start"`
		Length Expression `yaml:"length"`
	}

	var d doc
	require.NoError(t, yaml.Unmarshal([]byte("start: 0\nlength: t_meas/2\n"), &d))
	assert.Equal(t, "0", d.Start.String())
	assert.Equal(t, []string{"t_meas"}, d.Length.Variables())

	out, err := yaml.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, "start: 0\nlength: t_meas/2\n", string(out))

	err = yaml.Unmarshal([]byte("start: a +\n"), &d)
	assert.ErrorIs(t, err, ErrSyntax)
}
