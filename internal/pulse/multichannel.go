package pulse

import (
	"fmt"
	"slices"

	"pulse-mapper/internal/common"
)

// MultiChannelTemplate plays children with disjoint channels at the same time.
//
// Children must last equally long; this is checked by Instantiate.
// Measurement names of different children may coincide and are merged.
type MultiChannelTemplate struct {
	base
	children []Template
}

// CombineChannels builds a multi-channel template.
func CombineChannels(children ...Subtemplate) (*MultiChannelTemplate, error) {
	resolved, err := resolveAll(children)
	if err != nil {
		return nil, err
	}

	owner := make(map[string]int)
	params := NewNameSet()

	var (
		channels     []string
		measurements []MeasurementDeclaration
	)

	for i, c := range resolved {
		for _, ch := range c.ChannelOrder() {
			if j, taken := owner[ch]; taken {
				return nil, &ChannelMappingCollisionError{Channel: ch, First: j, Second: i}
			}

			owner[ch] = i
			channels = append(channels, ch)
		}

		params.add(c.ParameterNames().Sorted()...)
		measurements = append(measurements, c.MeasurementDeclarations()...)
	}

	first, _ := common.First(resolved)

	return &MultiChannelTemplate{
		base: base{
			params:       params,
			channels:     channels,
			measurements: measurements,
			duration:     first.DurationExpression(),
		},
		children: resolved,
	}, nil
}

func (m *MultiChannelTemplate) Kind() Kind {
	return KindMultiChannel
}

// Children returns the combined templates.
func (m *MultiChannelTemplate) Children() []Template {
	return slices.Clone(m.children)
}

func (m *MultiChannelTemplate) bind(b *binder, values map[string]float64, path string) (float64, []window, bool) {
	var (
		first   float64
		ref     = -1
		windows []window
	)

	ok := true

	for i, c := range m.children {
		d, w, bound := c.bind(b, values, fmt.Sprintf("%s[%d].%s", path, i, label(c)))
		if !bound {
			ok = false
			continue
		}

		// durations compare against the first sibling that bound
		if ref < 0 {
			first, ref = d, i
		} else if !approxEqual(d, first) {
			b.fail(CodeDurationMismatch, path, "", &DurationMismatchError{Index: i, Reference: ref, Expected: first, Actual: d})

			ok = false
		}

		windows = append(windows, w...)
	}

	return first, windows, ok
}
