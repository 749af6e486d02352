package pulse

import (
	"fmt"
	"slices"

	"pulse-mapper/internal/expression"
)

// SequenceTemplate plays children one after another.
// Children may share channels; the sequence defines the union of them.
type SequenceTemplate struct {
	base
	children []Template
}

// Sequence builds a sequence template. Sub(t, MapMeasurements(...)) renames
// the measurements of a single child.
func Sequence(children ...Subtemplate) (*SequenceTemplate, error) {
	resolved, err := resolveAll(children)
	if err != nil {
		return nil, err
	}

	params := NewNameSet()
	seen := NewNameSet()
	durations := make([]expression.Expression, 0, len(resolved))

	var (
		channels     []string
		measurements []MeasurementDeclaration
	)

	for _, c := range resolved {
		channels = appendUnique(channels, seen, c.ChannelOrder()...)
		params.add(c.ParameterNames().Sorted()...)

		offset := expression.Sum(durations...)
		for _, m := range c.MeasurementDeclarations() {
			if len(durations) > 0 {
				m.Start = shift(offset, m.Start)
			}

			measurements = append(measurements, m)
		}

		durations = append(durations, c.DurationExpression())
	}

	return &SequenceTemplate{
		base: base{
			params:       params,
			channels:     channels,
			measurements: measurements,
			duration:     expression.Sum(durations...),
		},
		children: resolved,
	}, nil
}

func (s *SequenceTemplate) Kind() Kind {
	return KindSequence
}

// Children returns the sequenced templates in order.
func (s *SequenceTemplate) Children() []Template {
	return slices.Clone(s.children)
}

func (s *SequenceTemplate) bind(b *binder, values map[string]float64, path string) (float64, []window, bool) {
	var (
		offset  float64
		windows []window
	)

	ok := true

	for i, c := range s.children {
		d, w, bound := c.bind(b, values, fmt.Sprintf("%s[%d].%s", path, i, label(c)))
		if !bound {
			ok = false
			continue
		}

		for _, win := range w {
			win.begin += offset
			windows = append(windows, win)
		}

		offset += d
	}

	return offset, windows, ok
}

// shift returns start moved by offset, dropping a zero start.
func shift(offset, start expression.Expression) expression.Expression {
	if start.IsConstant() {
		if v, err := start.Evaluate(nil); err == nil && v == 0 {
			return offset
		}
	}

	return expression.Sum(offset, start)
}
