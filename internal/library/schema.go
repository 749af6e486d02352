package library

import (
	"pulse-mapper/internal/expression"
	"pulse-mapper/internal/pulse"
)

// CurrentVersion is the document version written by Marshal.
const CurrentVersion = "1"

// File is the root of a template library document.
type File struct {
	// Version of the document schema.
	Version string `yaml:"version,omitempty"`

	// Templates are the template definitions, in document order.
	Templates []Definition `yaml:"templates"`
}

// Definition declares one named template. Exactly one kind field must be set.
type Definition struct {
	Name string `yaml:"name"`

	Function     *FunctionDef   `yaml:"function,omitempty"`
	Points       *PointsDef     `yaml:"points,omitempty"`
	Mapping      *ChildRef      `yaml:"mapping,omitempty"`
	MultiChannel []ChildRef     `yaml:"multi_channel,omitempty"`
	Sequence     []ChildRef     `yaml:"sequence,omitempty"`
	Repetition   *RepetitionDef `yaml:"repetition,omitempty"`
}

// Kinds returns the kinds set on the definition, in a fixed order.
func (d *Definition) Kinds() []pulse.Kind {
	var kinds []pulse.Kind

	if d.Function != nil {
		kinds = append(kinds, pulse.KindFunction)
	}

	if d.Points != nil {
		kinds = append(kinds, pulse.KindPoints)
	}

	if d.Mapping != nil {
		kinds = append(kinds, pulse.KindMapping)
	}

	if d.MultiChannel != nil {
		kinds = append(kinds, pulse.KindMultiChannel)
	}

	if d.Sequence != nil {
		kinds = append(kinds, pulse.KindSequence)
	}

	if d.Repetition != nil {
		kinds = append(kinds, pulse.KindRepetition)
	}

	return kinds
}

// Children returns the references of a composite definition.
func (d *Definition) Children() []ChildRef {
	switch {
	case d.Mapping != nil:
		return []ChildRef{*d.Mapping}
	case d.MultiChannel != nil:
		return d.MultiChannel
	case d.Sequence != nil:
		return d.Sequence
	case d.Repetition != nil:
		return []ChildRef{d.Repetition.Body}
	default:
		return nil
	}
}

// FunctionDef defines a single-channel function template.
type FunctionDef struct {
	Expression   expression.Expression `yaml:"expression"`
	Duration     expression.Expression `yaml:"duration"`
	Channel      string                `yaml:"channel,omitempty"`
	Measurements []MeasurementDef      `yaml:"measurements,omitempty"`
}

// PointsDef defines a point template.
type PointsDef struct {
	Channels     []string         `yaml:"channels,omitempty"`
	Entries      []PointEntry     `yaml:"entries"`
	Measurements []MeasurementDef `yaml:"measurements,omitempty"`
}

// PointEntry is one point, written as a flow sequence:
//   - [time, value]
//   - [time, value, interpolation]
//   - [time, [value_ch0, value_ch1, ...], interpolation]
type PointEntry struct {
	Time          expression.Expression
	Values        []expression.Expression
	Interpolation string
}

// MeasurementDef declares a measurement window.
type MeasurementDef struct {
	Name   string                `yaml:"name"`
	Start  expression.Expression `yaml:"start"`
	Length expression.Expression `yaml:"length"`
}

// RepetitionDef repeats a referenced template.
type RepetitionDef struct {
	Body  ChildRef              `yaml:"body"`
	Count expression.Expression `yaml:"count"`
}

// ChildRef refers to another definition, optionally remapping it.
// YAML formats supported:
//   - Simple string: "sine"
//   - Explicit mappings: {template: sine, channels: {default: X}}
//   - Untyped mappings classified by their keys: {template: sine, mapping: {default: X}}
type ChildRef struct {
	Template     string            `yaml:"template"`
	Parameters   map[string]string `yaml:"parameters,omitempty"`
	Channels     map[string]string `yaml:"channels,omitempty"`
	Measurements map[string]string `yaml:"measurements,omitempty"`
	Mapping      MappingList       `yaml:"mapping,omitempty"`
	AllowPartial bool              `yaml:"allow_partial,omitempty"`
}

// IsBare returns true if the reference applies no mapping.
func (c ChildRef) IsBare() bool {
	return c.Parameters == nil && len(c.Channels) == 0 && len(c.Measurements) == 0 &&
		c.Mapping.IsEmpty() && !c.AllowPartial
}

// Remap returns the explicit part of the reference's mapping.
func (c ChildRef) Remap() pulse.Remap {
	return pulse.Remap{
		Parameters:             c.Parameters,
		Channels:               c.Channels,
		Measurements:           c.Measurements,
		AllowPartialParameters: c.AllowPartial,
	}
}

// MappingList is a list of untyped mappings. It unmarshals from a single
// mapping or from a sequence of mappings.
type MappingList []map[string]string

// IsEmpty returns true if the list holds no non-empty mapping.
func (m MappingList) IsEmpty() bool {
	for _, entry := range m {
		if len(entry) > 0 {
			return false
		}
	}

	return true
}
