package pulse

import (
	"fmt"
	"math"

	"pulse-mapper/internal/expression"
)

// RepetitionTemplate plays its body Count times in a row.
// The measurement declarations are those of a single repetition.
type RepetitionTemplate struct {
	base
	body  Template
	count expression.Expression
}

// Repeat builds a repetition template. count is an expression over parameters
// that must evaluate to a non-negative integer; constant counts are checked here.
func Repeat(body Subtemplate, count string) (*RepetitionTemplate, error) {
	c, err := expression.Parse(count)
	if err != nil {
		return nil, fmt.Errorf("repetition count: %w", err)
	}

	if c.IsConstant() {
		v, err := c.Evaluate(nil)
		if err != nil {
			return nil, fmt.Errorf("repetition count: %w", err)
		}

		if !isCount(v) {
			return nil, &RepetitionCountError{Count: v}
		}
	}

	t, err := body.resolve()
	if err != nil {
		return nil, err
	}

	params := t.ParameterNames()
	params.add(c.Variables()...)

	return &RepetitionTemplate{
		base: base{
			params:       params,
			channels:     t.ChannelOrder(),
			measurements: t.MeasurementDeclarations(),
			duration:     expression.Product(c, t.DurationExpression()),
		},
		body:  t,
		count: c,
	}, nil
}

func (r *RepetitionTemplate) Kind() Kind {
	return KindRepetition
}

// Body returns the repeated template.
func (r *RepetitionTemplate) Body() Template {
	return r.body
}

// Count returns the repetition count expression.
func (r *RepetitionTemplate) Count() expression.Expression {
	return r.count
}

func (r *RepetitionTemplate) bind(b *binder, values map[string]float64, path string) (float64, []window, bool) {
	n, ok := b.evaluate(r.count, values, path, "repetition count")
	if !ok {
		return 0, nil, false
	}

	if !isCount(n) {
		b.fail(CodeRepetitionCount, path, "", &RepetitionCountError{Count: n})
		return 0, nil, false
	}

	d, body, ok := r.body.bind(b, values, path+"."+label(r.body))
	if !ok {
		return 0, nil, false
	}

	reps := int64(n)
	total := float64(reps) * d

	if len(body) == 0 {
		return total, nil, true
	}

	if reps > maxWindows/int64(len(body)) {
		b.fail(CodeEvaluationFailed, path, "repetition count",
			fmt.Errorf("%w: %d repetitions of %d windows exceed %d", ErrTooManyWindows, reps, len(body), maxWindows))
		return 0, nil, false
	}

	windows := make([]window, 0, int64(len(body))*reps)

	for i := range reps {
		for _, w := range body {
			w.begin += float64(i) * d
			windows = append(windows, w)
		}
	}

	return total, windows, true
}

// maxRepetitionCount is 2^53; above it float64 skips integers.
const maxRepetitionCount = 1 << 53

// maxWindows bounds the measurement windows one repetition may tile.
const maxWindows = 1 << 24

func isCount(v float64) bool {
	return v >= 0 && v <= maxRepetitionCount && v == math.Trunc(v)
}
