package pulse

import (
	"fmt"
	"slices"

	"pulse-mapper/internal/expression"
)

// Kind identifies the variant of a template.
type Kind string

const (
	KindFunction     Kind = "function"
	KindPoints       Kind = "points"
	KindMapping      Kind = "mapping"
	KindMultiChannel Kind = "multi_channel"
	KindSequence     Kind = "sequence"
	KindRepetition   Kind = "repetition"
)

// DefaultChannel is the channel of a leaf template that names none.
const DefaultChannel = "default"

// Template is an immutable pulse template.
//
// The set of implementations is closed: FunctionTemplate, PointTemplate,
// MappingTemplate, MultiChannelTemplate, SequenceTemplate and RepetitionTemplate.
type Template interface {
	// Identifier is the optional name given at construction.
	Identifier() string
	Kind() Kind

	// ParameterNames are the free parameters that must be bound to instantiate the template.
	ParameterNames() NameSet
	DefinedChannels() NameSet
	// ChannelOrder lists DefinedChannels in the order downstream consumers see them.
	ChannelOrder() []string
	MeasurementNames() NameSet
	MeasurementDeclarations() []MeasurementDeclaration

	// DurationExpression is the duration over ParameterNames.
	DurationExpression() expression.Expression
	// Duration evaluates DurationExpression with the given parameter values.
	Duration(values map[string]float64) (float64, error)

	bind(b *binder, values map[string]float64, path string) (float64, []window, bool)
}

// MeasurementDeclaration is a named window [Start, Start+Length] relative to the template start.
type MeasurementDeclaration struct {
	Name   string
	Start  expression.Expression
	Length expression.Expression
}

// Measure parses a measurement declaration.
func Measure(name, start, length string) (MeasurementDeclaration, error) {
	if name == "" {
		return MeasurementDeclaration{}, fmt.Errorf("%w: empty name", ErrInvalidMeasurement)
	}

	s, err := expression.Parse(start)
	if err != nil {
		return MeasurementDeclaration{}, fmt.Errorf("measurement %q start: %w", name, err)
	}

	l, err := expression.Parse(length)
	if err != nil {
		return MeasurementDeclaration{}, fmt.Errorf("measurement %q length: %w", name, err)
	}

	return MeasurementDeclaration{Name: name, Start: s, Length: l}, nil
}

// MustMeasure is like Measure but panics on error.
func MustMeasure(name, start, length string) MeasurementDeclaration {
	m, err := Measure(name, start, length)
	if err != nil {
		panic(err)
	}

	return m
}

func (m MeasurementDeclaration) String() string {
	return fmt.Sprintf("%s[%s, %s]", m.Name, m.Start, m.Length)
}

// base holds the namespaces every template exposes.
type base struct {
	id           string
	params       NameSet
	channels     []string
	measurements []MeasurementDeclaration
	duration     expression.Expression
}

func (b *base) Identifier() string {
	return b.id
}

func (b *base) ParameterNames() NameSet {
	return b.params.clone()
}

func (b *base) DefinedChannels() NameSet {
	return NewNameSet(b.channels...)
}

func (b *base) ChannelOrder() []string {
	return slices.Clone(b.channels)
}

func (b *base) MeasurementNames() NameSet {
	return measurementNames(b.measurements)
}

func (b *base) MeasurementDeclarations() []MeasurementDeclaration {
	return slices.Clone(b.measurements)
}

func (b *base) DurationExpression() expression.Expression {
	return b.duration
}

func (b *base) Duration(values map[string]float64) (float64, error) {
	return b.duration.Evaluate(values)
}

// Identify returns a copy of t carrying the identifier id.
func Identify(t Template, id string) Template {
	switch v := t.(type) {
	case *FunctionTemplate:
		c := *v
		c.id = id

		return &c
	case *PointTemplate:
		c := *v
		c.id = id

		return &c
	case *MappingTemplate:
		c := *v
		c.id = id

		return &c
	case *MultiChannelTemplate:
		c := *v
		c.id = id

		return &c
	case *SequenceTemplate:
		c := *v
		c.id = id

		return &c
	case *RepetitionTemplate:
		c := *v
		c.id = id

		return &c
	default:
		panic(fmt.Sprintf("pulse: unknown template type %T", t))
	}
}

// label names t in diagnostic paths.
func label(t Template) string {
	if id := t.Identifier(); id != "" {
		return id
	}

	return string(t.Kind())
}

func measurementNames(decls []MeasurementDeclaration) NameSet {
	names := NewNameSet()
	for _, m := range decls {
		names.add(m.Name)
	}

	return names
}
