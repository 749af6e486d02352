package pulse

import (
	"fmt"
	"maps"
	"slices"

	"pulse-mapper/internal/expression"
	"pulse-mapper/internal/match"
)

// maxSuggestions bounds the "did you mean" hints of a SurplusMappingError.
const maxSuggestions = 3

// Remap is the explicit mapping applied by a MappingTemplate.
//
// A nil Parameters map keeps every child parameter under its own name.
// A non-nil one must cover all child parameters unless AllowPartialParameters
// is set, in which case unmapped parameters pass through unchanged.
// Channels and Measurements are partial; omitted names are kept.
type Remap struct {
	Parameters             map[string]string `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	Channels               map[string]string `yaml:"channels,omitempty" json:"channels,omitempty"`
	Measurements           map[string]string `yaml:"measurements,omitempty" json:"measurements,omitempty"`
	AllowPartialParameters bool              `yaml:"allow_partial,omitempty" json:"allow_partial,omitempty"`
}

// IsIdentity reports whether r changes nothing.
func (r Remap) IsIdentity() bool {
	return r.Parameters == nil && len(r.Channels) == 0 && len(r.Measurements) == 0
}

func (r Remap) clone() Remap {
	return Remap{
		Parameters:             maps.Clone(r.Parameters),
		Channels:               maps.Clone(r.Channels),
		Measurements:           maps.Clone(r.Measurements),
		AllowPartialParameters: r.AllowPartialParameters,
	}
}

// MappingOption configures Wrap.
type MappingOption func(*mappingConfig)

type mappingConfig struct {
	id    string
	remap Remap
}

// MapParameters maps child parameters to expressions over the new parameters.
func MapParameters(m map[string]string) MappingOption {
	return func(c *mappingConfig) {
		if c.remap.Parameters == nil {
			c.remap.Parameters = make(map[string]string, len(m))
		}

		maps.Copy(c.remap.Parameters, m)
	}
}

// MapChannels renames child channels.
func MapChannels(m map[string]string) MappingOption {
	return func(c *mappingConfig) {
		if c.remap.Channels == nil {
			c.remap.Channels = make(map[string]string, len(m))
		}

		maps.Copy(c.remap.Channels, m)
	}
}

// MapMeasurements renames child measurements. Several names may map to one.
func MapMeasurements(m map[string]string) MappingOption {
	return func(c *mappingConfig) {
		if c.remap.Measurements == nil {
			c.remap.Measurements = make(map[string]string, len(m))
		}

		maps.Copy(c.remap.Measurements, m)
	}
}

// AllowPartialParameters lets unmapped child parameters pass through.
func AllowPartialParameters() MappingOption {
	return func(c *mappingConfig) {
		c.remap.AllowPartialParameters = true
	}
}

// Named sets the identifier of the mapping template.
func Named(id string) MappingOption {
	return func(c *mappingConfig) {
		c.id = id
	}
}

// MappingTemplate wraps a child and renames or recomputes its namespaces.
type MappingTemplate struct {
	base
	child          Template
	remap          Remap
	parameters     map[string]expression.Expression
	measurementMap map[string]string
}

// Wrap builds a mapping template around child.
func Wrap(child Template, opts ...MappingOption) (*MappingTemplate, error) {
	var cfg mappingConfig
	for _, o := range opts {
		o(&cfg)
	}

	m, err := WrapRemap(child, cfg.remap)
	if err != nil {
		return nil, err
	}

	m.id = cfg.id

	return m, nil
}

// WrapRemap builds a mapping template around child from an explicit Remap.
//
// Errors are checked in this order: unparsable parameter expressions, missing
// parameters, undeclared names, channel collisions.
func WrapRemap(child Template, r Remap) (*MappingTemplate, error) {
	r = r.clone()
	childParams := child.ParameterNames()

	exprs := make(map[string]expression.Expression, len(r.Parameters))

	for _, k := range slices.Sorted(maps.Keys(r.Parameters)) {
		e, err := expression.Parse(r.Parameters[k])
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", k, err)
		}

		exprs[k] = e
	}

	if r.Parameters != nil && !r.AllowPartialParameters {
		if missing := childParams.minus(NewNameSet(slices.Collect(maps.Keys(r.Parameters))...)); len(missing) > 0 {
			return nil, &MissingMappingError{Template: child.Identifier(), Missing: missing}
		}
	}

	if err := checkSurplus(child, NamespaceParameter, r.Parameters, childParams); err != nil {
		return nil, err
	}

	if err := checkSurplus(child, NamespaceChannel, r.Channels, child.DefinedChannels()); err != nil {
		return nil, err
	}

	if err := checkSurplus(child, NamespaceMeasurement, r.Measurements, child.MeasurementNames()); err != nil {
		return nil, err
	}

	for _, k := range slices.Sorted(maps.Keys(r.Channels)) {
		if r.Channels[k] == "" {
			return nil, fmt.Errorf("%w: channel %q mapped to empty name", ErrInvalidChannels, k)
		}
	}

	for _, k := range slices.Sorted(maps.Keys(r.Measurements)) {
		if r.Measurements[k] == "" {
			return nil, fmt.Errorf("%w: measurement %q mapped to empty name", ErrInvalidMeasurement, k)
		}
	}

	// Complete the parameter mapping: unmapped child parameters keep their name.
	params := NewNameSet()

	for p := range childParams {
		e, ok := exprs[p]
		if !ok {
			e = expression.Variable(p)
			exprs[p] = e
		}

		params.add(e.Variables()...)
	}

	channels, err := renameChannels(child.ChannelOrder(), r.Channels)
	if err != nil {
		return nil, err
	}

	return &MappingTemplate{
		base: base{
			params:       params,
			channels:     channels,
			measurements: mapDeclarations(child.MeasurementDeclarations(), exprs, r.Measurements),
			duration:     child.DurationExpression().Substitute(exprs),
		},
		child:          child,
		remap:          r,
		parameters:     exprs,
		measurementMap: r.Measurements,
	}, nil
}

func checkSurplus(child Template, ns Namespace, m map[string]string, declared NameSet) error {
	surplus := NewNameSet(slices.Collect(maps.Keys(m))...).minus(declared)
	if len(surplus) == 0 {
		return nil
	}

	known := declared.Sorted()
	suggestions := make(map[string][]string)

	for _, name := range surplus {
		if s := match.Suggest(name, known, maxSuggestions); len(s) > 0 {
			suggestions[name] = s
		}
	}

	return &SurplusMappingError{
		Template:    child.Identifier(),
		Namespace:   ns,
		Names:       surplus,
		Suggestions: suggestions,
	}
}

func renameChannels(order []string, m map[string]string) ([]string, error) {
	out := make([]string, 0, len(order))
	source := make(map[string]string, len(order))

	for _, c := range order {
		target := rename(m, c)
		if prev, ok := source[target]; ok {
			return nil, &ChannelMappingCollisionError{
				Channel: target,
				First:   -1,
				Second:  -1,
				Sources: []string{prev, c},
			}
		}

		source[target] = c
		out = append(out, target)
	}

	return out, nil
}

func mapDeclarations(decls []MeasurementDeclaration, exprs map[string]expression.Expression, names map[string]string) []MeasurementDeclaration {
	out := make([]MeasurementDeclaration, len(decls))
	for i, d := range decls {
		out[i] = MeasurementDeclaration{
			Name:   rename(names, d.Name),
			Start:  d.Start.Substitute(exprs),
			Length: d.Length.Substitute(exprs),
		}
	}

	return out
}

func rename(m map[string]string, name string) string {
	if to, ok := m[name]; ok {
		return to
	}

	return name
}

func (m *MappingTemplate) Kind() Kind {
	return KindMapping
}

// Child returns the wrapped template.
func (m *MappingTemplate) Child() Template {
	return m.child
}

// Remap returns the mapping as given at construction.
func (m *MappingTemplate) Remap() Remap {
	return m.remap.clone()
}

// ParameterMapping returns the complete child parameter mapping, including
// the implicit identity entries.
func (m *MappingTemplate) ParameterMapping() map[string]expression.Expression {
	return maps.Clone(m.parameters)
}

func (m *MappingTemplate) bind(b *binder, values map[string]float64, path string) (float64, []window, bool) {
	inner := make(map[string]float64, len(m.parameters))
	ok := true

	for _, p := range slices.Sorted(maps.Keys(m.parameters)) {
		v, evaluated := b.evaluate(m.parameters[p], values, path, "parameter "+p)
		if !evaluated {
			ok = false
			continue
		}

		inner[p] = v
	}

	if !ok {
		return 0, nil, false
	}

	d, windows, ok := m.child.bind(b, inner, path+"."+label(m.child))
	if !ok {
		return 0, nil, false
	}

	for i := range windows {
		windows[i].name = rename(m.measurementMap, windows[i].name)
	}

	return d, windows, true
}
