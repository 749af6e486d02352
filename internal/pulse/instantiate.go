package pulse

import (
	"fmt"
	"math"

	"pulse-mapper/internal/diagnostic"
	"pulse-mapper/internal/expression"
)

// Diagnostic codes reported by Instantiate.
const (
	CodeParameterNotProvided   = "parameter_not_provided"
	CodeEvaluationFailed       = "evaluation_failed"
	CodeNegativeDuration       = "negative_duration"
	CodeTimeNotIncreasing      = "time_not_increasing"
	CodeOutOfBoundsMeasurement = "out_of_bounds_measurement"
	CodeDurationMismatch       = "duration_mismatch"
	CodeRepetitionCount        = "repetition_count_not_integer"
)

// tolerance is the relative slack of duration and window comparisons.
const tolerance = 1e-9

// Windows are the measurement windows of one name, in playback order.
type Windows struct {
	Begins  []float64 `json:"begins" yaml:"begins"`
	Lengths []float64 `json:"lengths" yaml:"lengths"`
}

// Len returns the number of windows.
func (w Windows) Len() int {
	return len(w.Begins)
}

// Program is a template bound to concrete parameter values.
type Program struct {
	Duration float64            `json:"duration" yaml:"duration"`
	Channels []string           `json:"channels" yaml:"channels"`
	Windows  map[string]Windows `json:"windows,omitempty" yaml:"windows,omitempty"`
}

type window struct {
	name   string
	begin  float64
	length float64
}

// binder collects the diagnostics of one Instantiate call.
type binder struct {
	diags diagnostic.Diagnostics
}

func (b *binder) fail(code, path, name string, err error) {
	b.diags.AddErrorCause(code, path, name, err)
}

// evaluate evaluates e and reports failures as evaluation_failed.
func (b *binder) evaluate(e expression.Expression, values map[string]float64, path, what string) (float64, bool) {
	v, err := e.Evaluate(values)
	if err != nil {
		b.fail(CodeEvaluationFailed, path, what, err)
		return 0, false
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		b.fail(CodeEvaluationFailed, path, what, fmt.Errorf("%w: %s = %v", ErrNotFinite, e, v))
		return 0, false
	}

	return v, true
}

// measure evaluates decls and checks them against the duration d.
func (b *binder) measure(decls []MeasurementDeclaration, d float64, values map[string]float64, path string) ([]window, bool) {
	out := make([]window, 0, len(decls))
	ok := true

	for _, m := range decls {
		begin, okBegin := b.evaluate(m.Start, values, path, m.Name)
		length, okLength := b.evaluate(m.Length, values, path, m.Name)

		if !okBegin || !okLength {
			ok = false
			continue
		}

		slack := tolerance * math.Max(1, math.Abs(d))
		if begin < -slack || length < -slack || begin+length > d+slack {
			b.fail(CodeOutOfBoundsMeasurement, path, m.Name, &OutOfBoundsMeasurementError{
				Name:     m.Name,
				Begin:    begin,
				Length:   length,
				Duration: d,
			})

			ok = false

			continue
		}

		out = append(out, window{name: m.Name, begin: begin, length: length})
	}

	return out, ok
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= tolerance*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

// Instantiate binds t to concrete parameter values.
//
// Every parameter of t must have a value; extra values are ignored. The
// returned diagnostics hold all numeric problems found. The program is nil
// whenever the diagnostics have errors.
func Instantiate(t Template, values map[string]float64) (*Program, *diagnostic.Diagnostics) {
	b := &binder{}
	root := label(t)

	for _, p := range t.ParameterNames().Sorted() {
		if _, ok := values[p]; !ok {
			b.fail(CodeParameterNotProvided, root, p, fmt.Errorf("%w: %q", ErrParameterNotProvided, p))
		}
	}

	if b.diags.HasErrors() {
		return nil, &b.diags
	}

	d, windows, ok := t.bind(b, values, root)
	if !ok || b.diags.HasErrors() {
		return nil, &b.diags
	}

	p := &Program{
		Duration: d,
		Channels: t.ChannelOrder(),
		Windows:  make(map[string]Windows),
	}

	for _, w := range windows {
		ws := p.Windows[w.name]
		ws.Begins = append(ws.Begins, w.begin)
		ws.Lengths = append(ws.Lengths, w.length)
		p.Windows[w.name] = ws
	}

	return p, &b.diags
}
