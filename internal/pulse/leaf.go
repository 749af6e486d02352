package pulse

import (
	"fmt"
	"slices"

	"pulse-mapper/internal/common"
	"pulse-mapper/internal/expression"
)

// TimeVariable is the free variable of a function template's waveform.
const TimeVariable = "t"

// Option configures a leaf template.
type Option func(*leafConfig)

type leafConfig struct {
	id           string
	channels     []string
	measurements []MeasurementDeclaration
}

// WithChannels sets the channels of a leaf template.
func WithChannels(names ...string) Option {
	return func(c *leafConfig) {
		c.channels = slices.Clone(names)
	}
}

// WithMeasurements appends measurement declarations.
func WithMeasurements(decls ...MeasurementDeclaration) Option {
	return func(c *leafConfig) {
		c.measurements = append(c.measurements, decls...)
	}
}

// WithIdentifier sets the template identifier.
func WithIdentifier(id string) Option {
	return func(c *leafConfig) {
		c.id = id
	}
}

func newLeafConfig(opts []Option) leafConfig {
	var c leafConfig
	for _, o := range opts {
		o(&c)
	}

	if c.channels == nil {
		c.channels = []string{DefaultChannel}
	}

	return c
}

func (c leafConfig) validate() error {
	seen := NewNameSet()

	for _, ch := range c.channels {
		if ch == "" {
			return fmt.Errorf("%w: empty channel name", ErrInvalidChannels)
		}

		if seen.Has(ch) {
			return fmt.Errorf("%w: channel %q listed twice", ErrInvalidChannels, ch)
		}

		seen.add(ch)
	}

	for _, m := range c.measurements {
		if m.Name == "" {
			return fmt.Errorf("%w: empty name", ErrInvalidMeasurement)
		}
	}

	return nil
}

// params collects the free variables of exprs and of the measurement windows.
func (c leafConfig) params(exprs ...expression.Expression) NameSet {
	params := NewNameSet()
	for _, e := range exprs {
		params.add(e.Variables()...)
	}

	for _, m := range c.measurements {
		params.add(m.Start.Variables()...)
		params.add(m.Length.Variables()...)
	}

	return params
}

// FunctionTemplate is a single-channel waveform given as an expression over the time t.
type FunctionTemplate struct {
	base
	waveform expression.Expression
}

// NewFunction builds a function template from a waveform and a duration expression.
func NewFunction(waveform, duration string, opts ...Option) (*FunctionTemplate, error) {
	w, err := expression.Parse(waveform)
	if err != nil {
		return nil, fmt.Errorf("waveform: %w", err)
	}

	d, err := expression.Parse(duration)
	if err != nil {
		return nil, fmt.Errorf("duration: %w", err)
	}

	if d.References(TimeVariable) {
		return nil, fmt.Errorf("%w: %q depends on %s", ErrInvalidDuration, d, TimeVariable)
	}

	cfg := newLeafConfig(opts)
	if len(cfg.channels) != 1 {
		return nil, fmt.Errorf("%w: a function template has exactly one channel, got %d",
			ErrInvalidChannels, len(cfg.channels))
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	params := cfg.params(w, d)
	delete(params, TimeVariable)

	return &FunctionTemplate{
		base: base{
			id:           cfg.id,
			params:       params,
			channels:     cfg.channels,
			measurements: slices.Clone(cfg.measurements),
			duration:     d,
		},
		waveform: w,
	}, nil
}

func (f *FunctionTemplate) Kind() Kind {
	return KindFunction
}

// Waveform returns the waveform expression.
func (f *FunctionTemplate) Waveform() expression.Expression {
	return f.waveform
}

func (f *FunctionTemplate) bind(b *binder, values map[string]float64, path string) (float64, []window, bool) {
	d, ok := b.evaluate(f.duration, values, path, "duration")
	if !ok {
		return 0, nil, false
	}

	if d < 0 {
		b.fail(CodeNegativeDuration, path, "", fmt.Errorf("%w: %v", ErrNegativeDuration, d))
		return 0, nil, false
	}

	windows, ok := b.measure(f.measurements, d, values, path)

	return d, windows, ok
}

// Interpolation selects how a point template moves from one point to the next.
type Interpolation string

const (
	// InterpolationHold keeps the previous value until the point time.
	InterpolationHold Interpolation = "hold"
	// InterpolationLinear ramps linearly to the point value.
	InterpolationLinear Interpolation = "linear"
	// InterpolationJump jumps to the point value right after the previous point.
	InterpolationJump Interpolation = "jump"
)

// ParseInterpolation parses an interpolation name; the empty name is hold.
func ParseInterpolation(s string) (Interpolation, error) {
	switch Interpolation(s) {
	case "", InterpolationHold:
		return InterpolationHold, nil
	case InterpolationLinear, InterpolationJump:
		return Interpolation(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidInterpolation, s)
	}
}

// Point is one entry of a point template.
// Values holds either one value for all channels or one value per channel.
type Point struct {
	Time          expression.Expression
	Values        []expression.Expression
	Interpolation Interpolation
}

// PointTemplate is a waveform given as a list of points per channel.
// Its duration is the time of the last point.
type PointTemplate struct {
	base
	points []Point
}

// NewPoints builds a point template.
func NewPoints(points []Point, opts ...Option) (*PointTemplate, error) {
	if common.IsEmpty(points) {
		return nil, fmt.Errorf("%w: no points", ErrInvalidPoints)
	}

	cfg := newLeafConfig(opts)
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	exprs := make([]expression.Expression, 0, len(points)*2)
	cp := make([]Point, len(points))

	for i, p := range points {
		if n := len(p.Values); n != 1 && n != len(cfg.channels) {
			return nil, fmt.Errorf("%w: point %d has %d values for %d channels",
				ErrInvalidPoints, i, n, len(cfg.channels))
		}

		interp, err := ParseInterpolation(string(p.Interpolation))
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}

		cp[i] = Point{Time: p.Time, Values: slices.Clone(p.Values), Interpolation: interp}

		exprs = append(exprs, p.Time)
		exprs = append(exprs, p.Values...)
	}

	last, _ := common.Last(cp)

	return &PointTemplate{
		base: base{
			id:           cfg.id,
			params:       cfg.params(exprs...),
			channels:     cfg.channels,
			measurements: slices.Clone(cfg.measurements),
			duration:     last.Time,
		},
		points: cp,
	}, nil
}

func (p *PointTemplate) Kind() Kind {
	return KindPoints
}

// Points returns a copy of the point list.
func (p *PointTemplate) Points() []Point {
	out := make([]Point, len(p.points))
	for i, pt := range p.points {
		out[i] = Point{Time: pt.Time, Values: slices.Clone(pt.Values), Interpolation: pt.Interpolation}
	}

	return out
}

func (p *PointTemplate) bind(b *binder, values map[string]float64, path string) (float64, []window, bool) {
	prev := 0.0
	ok := true

	for i, pt := range p.points {
		at, evaluated := b.evaluate(pt.Time, values, path, fmt.Sprintf("point %d time", i))
		if !evaluated {
			ok = false
			continue
		}

		for j, v := range pt.Values {
			if _, evaluated := b.evaluate(v, values, path, fmt.Sprintf("point %d value %d", i, j)); !evaluated {
				ok = false
			}
		}

		switch {
		case i == 0 && at < 0:
			b.fail(CodeTimeNotIncreasing, path, "",
				fmt.Errorf("%w: point 0 at negative time %v", ErrTimeNotIncreasing, at))

			ok = false
		case i > 0 && at <= prev:
			b.fail(CodeTimeNotIncreasing, path, "",
				fmt.Errorf("%w: point %d at %v is not after %v", ErrTimeNotIncreasing, i, at, prev))

			ok = false
		}

		prev = at
	}

	if !ok {
		return 0, nil, false
	}

	windows, ok := b.measure(p.measurements, prev, values, path)

	return prev, windows, ok
}
